package driven

// ConfigStore holds flat dot-keyed configuration ("spatial.color").
// File-backed implementations persist on every write.
type ConfigStore interface {
	// Get returns the raw value and whether the key is set.
	Get(key string) (any, bool)

	// GetString returns "" for a missing or non-string value.
	GetString(key string) string

	// GetFloat widens integers and returns 0 for a missing or
	// non-numeric value.
	GetFloat(key string) float64

	// GetBool returns false for a missing or non-boolean value.
	GetBool(key string) bool

	// Set stores one value.
	Set(key string, value any) error

	// SetAll stores several values with a single write.
	SetAll(values map[string]any) error

	// Load rereads the configuration, discarding unsaved state.
	Load() error

	// Path returns where the configuration lives.
	Path() string
}
