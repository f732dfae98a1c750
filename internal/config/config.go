// Package config loads folio settings from defaults, an optional YAML file
// and FOLIO_* environment variables, and reloads them when the file changes.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is the prefix for environment overrides, e.g.
// FOLIO_SEGMENT_PAGES_PER_CHAPTER=30.
const EnvPrefix = "FOLIO"

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	v *viper.Viper

	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
	errorFn   func(error)
}

// NewManager creates a new config manager and loads initial config.
// With an empty cfgFile, folio.yaml is looked up in the working directory
// and then in searchDirs.
func NewManager(cfgFile string, searchDirs ...string) (*Manager, error) {
	cm := &Manager{
		v:         viper.New(),
		callbacks: make([]func(*Config), 0),
	}

	if err := cm.initViper(cfgFile, searchDirs); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile string, searchDirs []string) error {
	v := cm.v
	d := DefaultConfig()
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("segment.pages_per_chapter", d.Segment.PagesPerChapter)
	v.SetDefault("segment.smart_detection", d.Segment.SmartDetection)
	v.SetDefault("segment.smart_sample_pages", d.Segment.SmartSamplePages)
	v.SetDefault("segment.min_chapter_pages", d.Segment.MinChapterPages)
	v.SetDefault("segment.max_chapter_pages", d.Segment.MaxChapterPages)
	v.SetDefault("segment.write_text", d.Segment.WriteText)
	v.SetDefault("segment.detailed_classification", d.Segment.DetailedClassification)
	v.SetDefault("ocr.enabled", d.OCR.Enabled)
	v.SetDefault("ocr.force", d.OCR.Force)
	v.SetDefault("ocr.languages", d.OCR.Languages)
	v.SetDefault("ocr.dpi", d.OCR.DPI)
	v.SetDefault("ocr.analysis_dpi", d.OCR.AnalysisDPI)
	v.SetDefault("ocr.preprocess", d.OCR.Preprocess)
	v.SetDefault("ocr.pdftotext", d.OCR.Pdftotext)
	v.SetDefault("batch.workers", d.Batch.Workers)
	v.SetDefault("batch.settle_seconds", d.Batch.SettleSeconds)

	// Environment variables with FOLIO_ prefix; nested keys use '_'
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("folio")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		for _, dir := range searchDirs {
			v.AddConfigPath(dir)
		}
	}

	// Try to read config file (not required unless named explicitly)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// load parses the current viper state into a validated Config.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// File returns the config file in use, or "" when running on defaults.
func (cm *Manager) File() string {
	return cm.v.ConfigFileUsed()
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// OnError registers a callback for reloads that fail to parse or validate.
// The previous config stays in effect.
func (cm *Manager) OnError(fn func(error)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.errorFn = fn
}

// WatchConfig enables hot-reloading of configuration.
func (cm *Manager) WatchConfig() {
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			cm.mu.RLock()
			fn := cm.errorFn
			cm.mu.RUnlock()
			if fn != nil {
				fn(fmt.Errorf("reload %s: %w", e.Name, err))
			}
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	cm.v.WatchConfig()
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# folio configuration
# Every key can be overridden with a FOLIO_ environment variable,
# e.g. FOLIO_SEGMENT_PAGES_PER_CHAPTER=30 or FOLIO_OCR_LANGUAGES=eng.
# min/max_chapter_pages of 0 derive from pages_per_chapter.

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
