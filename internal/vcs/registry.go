package vcs

import (
	"fmt"
	"sync"
)

// Constructor creates a VCS instance for a given repo root.
// Implementations register themselves with the registry using Register().
type Constructor func(repoRoot string) (VCS, error)

var (
	registry      = make(map[Type]Constructor)
	registryMutex sync.RWMutex
)

// Register registers a VCS implementation constructor.
// Called from init() in implementation packages (git, jj).
//
//	func init() {
//	    vcs.Register(vcs.TypeGit, newVCS)
//	}
func Register(t Type, constructor Constructor) {
	registryMutex.Lock()
	defer registryMutex.Unlock()

	if constructor == nil {
		panic(fmt.Sprintf("vcs: Register constructor is nil for type %s", t))
	}
	if _, exists := registry[t]; exists {
		panic(fmt.Sprintf("vcs: Register called twice for type %s", t))
	}

	registry[t] = constructor
}

// getConstructor retrieves the constructor for a VCS type.
// Returns nil if the type is not registered.
func getConstructor(t Type) Constructor {
	registryMutex.RLock()
	defer registryMutex.RUnlock()
	return registry[t]
}

// IsRegistered returns true if a constructor is registered for the type.
func IsRegistered(t Type) bool {
	registryMutex.RLock()
	defer registryMutex.RUnlock()
	_, exists := registry[t]
	return exists
}

// RegisteredTypes returns all registered VCS types.
func RegisteredTypes() []Type {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	types := make([]Type, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	return types
}

// UnregisterAll clears all registered constructors. Test use only.
func UnregisterAll() {
	registryMutex.Lock()
	defer registryMutex.Unlock()
	registry = make(map[Type]Constructor)
}
