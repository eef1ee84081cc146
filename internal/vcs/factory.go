package vcs

import "fmt"

// Factory creates VCS instances from detection results and preferences.
type Factory struct {
	// preferredType specifies which backend to prefer in colocated repos
	preferredType Type
}

// NewFactory creates a factory. By default colocated repos prefer jj.
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{preferredType: PreferredVCS()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FactoryOption configures the factory
type FactoryOption func(*Factory)

// WithPreferredType sets the preferred backend for colocated repos
func WithPreferredType(t Type) FactoryOption {
	return func(f *Factory) {
		f.preferredType = t
	}
}

// Create creates a VCS instance for the given path.
//
// Detection walks up from path; for colocated repositories the factory
// preference decides the implementation, narrowed by binary availability.
func (f *Factory) Create(path string) (VCS, error) {
	result, err := DetectWithAvailability(path)
	if err != nil {
		return nil, err
	}

	implType := f.implementationType(result)

	constructor := getConstructor(implType)
	if constructor == nil {
		return nil, fmt.Errorf("no registered constructor for VCS type %s (available: %v)",
			implType, RegisteredTypes())
	}

	v, err := constructor(result.RepoRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s VCS instance: %w", implType, err)
	}

	return v, nil
}

// implementationType resolves a detection result to a concrete backend.
func (f *Factory) implementationType(result *DetectionResult) Type {
	if result.Type != TypeColocate {
		return result.Type
	}

	switch f.preferredType {
	case TypeGit:
		if result.HasGit && IsGitAvailable() {
			return TypeGit
		}
		if result.HasJJ && IsJJAvailable() {
			return TypeJJ
		}
	default:
		if result.HasJJ && IsJJAvailable() {
			return TypeJJ
		}
		if result.HasGit && IsGitAvailable() {
			return TypeGit
		}
	}

	return TypeGit
}

// Get returns a VCS instance for the current directory.
func Get() (VCS, error) {
	return NewFactory().Create(".")
}

// GetForPath returns a VCS instance for the specified path.
// This is the entry point the sync engine uses for a tracked root.
func GetForPath(path string) (VCS, error) {
	return NewFactory().Create(path)
}

// GetWithPreference returns a VCS instance forcing a backend preference.
func GetWithPreference(path string, preferred Type) (VCS, error) {
	return NewFactory(WithPreferredType(preferred)).Create(path)
}
