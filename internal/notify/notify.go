// Package notify escalates terminal sync failures to a human.
//
// Delivery is two-tier. The local failure log is the backstop of record:
// append-only, human-readable, never rotated or truncated, and written
// under the append lock so concurrent failures never interleave. The
// desktop notification is opportunistic: attempted once, at-least-once
// delivery, and its failure never escalates further. A notification
// problem is logged and swallowed so a broken alert channel can never
// create a failure loop.
package notify

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/steveyegge/daybook/internal/lockfile"
)

// Alert is the human-facing rendering of a terminal failure.
type Alert struct {
	// Time is when the failure was declared terminal
	Time time.Time

	// Cause is the human-readable failure cause
	Cause string

	// Remediation is a short hint on what to do next
	Remediation string
}

// Notifier delivers failure alerts.
type Notifier struct {
	// logPath is the local failure log (backstop of record)
	logPath string

	logger *log.Logger

	// send delivers a desktop notification; replaceable in tests
	send func(title, body string) error
}

// New creates a Notifier writing its backstop to logPath.
// If logger is nil, a default stderr logger is used.
func New(logPath string, logger *log.Logger) *Notifier {
	if logger == nil {
		logger = log.New(os.Stderr, "[notify] ", log.LstdFlags)
	}
	return &Notifier{
		logPath: logPath,
		logger:  logger,
		send: func(title, body string) error {
			return beeep.Notify(title, body, "")
		},
	}
}

// WithoutDesktop disables the desktop tier; alerts go to the failure log
// and process logger only.
func (n *Notifier) WithoutDesktop() *Notifier {
	n.send = func(title, body string) error { return nil }
	return n
}

// Notify delivers one alert: backstop first, then the desktop channel.
//
// Notify never returns an error. Should even the backstop append fail
// (filesystem read-only, disk full), the alert is written to the process
// logger so no failure passes without a trace somewhere.
func (n *Notifier) Notify(a Alert) {
	record := formatRecord(a)

	if err := lockfile.AppendRecord(n.logPath, []byte(record)); err != nil {
		n.logger.Printf("FAILURE LOG UNWRITABLE: %v; alert was: %s", err, record)
	}

	title := "daybook: sync failed"
	body := a.Cause
	if a.Remediation != "" {
		body = fmt.Sprintf("%s\n%s", a.Cause, a.Remediation)
	}

	if err := n.send(title, body); err != nil {
		n.logger.Printf("desktop notification failed (failure log is authoritative): %v", err)
	}
}

// formatRecord renders one failure-log line: timestamp, cause, hint.
func formatRecord(a Alert) string {
	ts := a.Time.UTC().Format(time.RFC3339)
	if a.Remediation != "" {
		return fmt.Sprintf("%s\t%s\thint: %s", ts, a.Cause, a.Remediation)
	}
	return fmt.Sprintf("%s\t%s", ts, a.Cause)
}
