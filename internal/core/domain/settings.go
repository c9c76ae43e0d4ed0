package domain

const unknownDescription = "Unknown"

// StorageBackend identifies the annotation store implementation.
type StorageBackend string

// Available storage backends.
const (
	// StorageSQLite stores everything in one SQLite database.
	StorageSQLite StorageBackend = "sqlite"

	// StorageFile stores one JSON bundle per subject.
	StorageFile StorageBackend = "file"

	// StorageMemory keeps everything in memory for the life of the process.
	StorageMemory StorageBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	switch b {
	case StorageSQLite, StorageFile, StorageMemory:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b StorageBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b StorageBackend) Description() string {
	switch b {
	case StorageSQLite:
		return "SQLite database"
	case StorageFile:
		return "JSON bundle per subject"
	case StorageMemory:
		return "In-memory (not persisted)"
	default:
		return unknownDescription
	}
}

// TextSettings configures text annotators.
type TextSettings struct {
	// Style selects correction or comment behaviour.
	Style Style

	// DefaultKind is preselected when creating annotations.
	DefaultKind Kind
}

// SpatialSettings configures spatial annotators.
type SpatialSettings struct {
	// Color is the pen and stamp colour.
	Color string

	// StrokeWidth is the pen width in document units.
	StrokeWidth float64

	// EraseThreshold is the erase proximity in document units.
	EraseThreshold float64

	// DefaultZoom is the zoom used when a surface does not set one.
	DefaultZoom float64
}

// StorageSettings configures where annotations are persisted.
type StorageSettings struct {
	Backend  StorageBackend
	DataDir  string
	Compress bool
}

// AppSettings is the full application configuration.
type AppSettings struct {
	Text    TextSettings
	Spatial SpatialSettings
	Storage StorageSettings
}

// DefaultAppSettings returns the settings used when nothing is configured.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Text: TextSettings{
			Style:       StyleCorrection,
			DefaultKind: KindGrammar,
		},
		Spatial: SpatialSettings{
			Color:          "#E11D48",
			StrokeWidth:    2,
			EraseThreshold: 10,
			DefaultZoom:    1,
		},
		Storage: StorageSettings{
			Backend: StorageSQLite,
		},
	}
}

// Validate checks that all settings are usable.
func (s AppSettings) Validate() error {
	if !s.Text.Style.IsValid() || !s.Text.DefaultKind.IsValid() {
		return ErrInvalidInput
	}
	if s.Spatial.StrokeWidth <= 0 || s.Spatial.EraseThreshold <= 0 || s.Spatial.DefaultZoom <= 0 {
		return ErrInvalidInput
	}
	if !s.Storage.Backend.IsValid() {
		return ErrInvalidInput
	}
	return nil
}
