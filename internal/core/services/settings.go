package services

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyTextStyle       = "text.style"
	keyTextDefaultKind = "text.default_kind"
	keySpatialColor    = "spatial.color"
	keySpatialStroke   = "spatial.stroke_width"
	keySpatialErase    = "spatial.erase_threshold"
	keySpatialZoom     = "spatial.default_zoom"
	keyStorageBackend  = "storage.backend"
	keyStorageDataDir  = "storage.data_dir"
	keyStorageCompress = "storage.compress"
)

var settingKeys = []string{
	keyTextStyle,
	keyTextDefaultKind,
	keySpatialColor,
	keySpatialStroke,
	keySpatialErase,
	keySpatialZoom,
	keyStorageBackend,
	keyStorageDataDir,
	keyStorageCompress,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings. Missing or invalid values
// are replaced by defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()
	if s.configStore == nil {
		return &defaults, nil
	}

	settings := &domain.AppSettings{
		Text: domain.TextSettings{
			Style:       s.getStyle(defaults.Text.Style),
			DefaultKind: s.getKind(defaults.Text.DefaultKind),
		},
		Spatial: domain.SpatialSettings{
			Color:          s.getString(keySpatialColor, defaults.Spatial.Color),
			StrokeWidth:    s.getPositive(keySpatialStroke, defaults.Spatial.StrokeWidth),
			EraseThreshold: s.getPositive(keySpatialErase, defaults.Spatial.EraseThreshold),
			DefaultZoom:    s.getPositive(keySpatialZoom, defaults.Spatial.DefaultZoom),
		},
		Storage: domain.StorageSettings{
			Backend:  s.getBackend(defaults.Storage.Backend),
			DataDir:  s.configStore.GetString(keyStorageDataDir), // No default - empty means next to the config file
			Compress: s.getBool(keyStorageCompress, defaults.Storage.Compress),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if s.configStore == nil {
		return domain.ErrNotImplemented
	}
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	values := map[string]any{
		keyTextStyle:       settings.Text.Style.String(),
		keyTextDefaultKind: settings.Text.DefaultKind.String(),
		keySpatialColor:    settings.Spatial.Color,
		keySpatialStroke:   settings.Spatial.StrokeWidth,
		keySpatialErase:    settings.Spatial.EraseThreshold,
		keySpatialZoom:     settings.Spatial.DefaultZoom,
		keyStorageBackend:  settings.Storage.Backend.String(),
		keyStorageDataDir:  settings.Storage.DataDir,
		keyStorageCompress: settings.Storage.Compress,
	}
	if err := s.configStore.SetAll(values); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Keys returns the recognised setting keys.
func (s *SettingsService) Keys() []string {
	return slices.Clone(settingKeys)
}

// GetValue returns one setting as a string.
func (s *SettingsService) GetValue(key string) (string, error) {
	settings, err := s.Get()
	if err != nil {
		return "", err
	}

	switch key {
	case keyTextStyle:
		return settings.Text.Style.String(), nil
	case keyTextDefaultKind:
		return settings.Text.DefaultKind.String(), nil
	case keySpatialColor:
		return settings.Spatial.Color, nil
	case keySpatialStroke:
		return formatFloat(settings.Spatial.StrokeWidth), nil
	case keySpatialErase:
		return formatFloat(settings.Spatial.EraseThreshold), nil
	case keySpatialZoom:
		return formatFloat(settings.Spatial.DefaultZoom), nil
	case keyStorageBackend:
		return settings.Storage.Backend.String(), nil
	case keyStorageDataDir:
		return settings.Storage.DataDir, nil
	case keyStorageCompress:
		return strconv.FormatBool(settings.Storage.Compress), nil
	default:
		return "", fmt.Errorf("unknown setting %q: %w", key, domain.ErrInvalidInput)
	}
}

// SetValue parses and stores one setting.
func (s *SettingsService) SetValue(key, value string) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	switch key {
	case keyTextStyle:
		settings.Text.Style = domain.Style(value)
	case keyTextDefaultKind:
		settings.Text.DefaultKind = domain.Kind(value)
	case keySpatialColor:
		settings.Spatial.Color = value
	case keySpatialStroke, keySpatialErase, keySpatialZoom:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("setting %s: %w", key, domain.ErrInvalidInput)
		}
		switch key {
		case keySpatialStroke:
			settings.Spatial.StrokeWidth = f
		case keySpatialErase:
			settings.Spatial.EraseThreshold = f
		default:
			settings.Spatial.DefaultZoom = f
		}
	case keyStorageBackend:
		settings.Storage.Backend = domain.StorageBackend(value)
	case keyStorageDataDir:
		settings.Storage.DataDir = value
	case keyStorageCompress:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("setting %s: %w", key, domain.ErrInvalidInput)
		}
		settings.Storage.Compress = b
	default:
		return fmt.Errorf("unknown setting %q: %w", key, domain.ErrInvalidInput)
	}

	return s.Save(settings)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getPositive(key string, defaultVal float64) float64 {
	val := s.configStore.GetFloat(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getStyle(defaultVal domain.Style) domain.Style {
	style := domain.Style(s.configStore.GetString(keyTextStyle))
	if !style.IsValid() {
		return defaultVal
	}
	return style
}

func (s *SettingsService) getKind(defaultVal domain.Kind) domain.Kind {
	kind := domain.Kind(s.configStore.GetString(keyTextDefaultKind))
	if !kind.IsValid() {
		return defaultVal
	}
	return kind
}

func (s *SettingsService) getBackend(defaultVal domain.StorageBackend) domain.StorageBackend {
	backend := domain.StorageBackend(s.configStore.GetString(keyStorageBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
