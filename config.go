// config.go: Manager configuration loading and file watching
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package nativeplugins

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/agilira/argus"
	"gopkg.in/yaml.v3"
)

// SearchPath names one directory the manager should scan for plugins.
type SearchPath struct {
	Dir       string `json:"dir" yaml:"dir"`
	Recursive bool   `json:"recursive" yaml:"recursive"`
}

// LoggingConfig carries the manager's log-sink settings.
type LoggingConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// ManagerConfig is the host-provided manager configuration, loadable from
// JSON or YAML files.
type ManagerConfig struct {
	SearchPaths  []SearchPath  `json:"search_paths" yaml:"search_paths"`
	MainPlugin   string        `json:"main_plugin" yaml:"main_plugin"`
	AppDirectory string        `json:"app_directory" yaml:"app_directory"`
	Logging      LoggingConfig `json:"logging" yaml:"logging"`
}

// DefaultManagerConfig returns the configuration used when a field is left
// unset: no search paths, no main plugin, logging enabled.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		Logging: LoggingConfig{Enabled: true},
	}
}

// Validate checks the configuration for structural problems.
func (c *ManagerConfig) Validate() error {
	for _, sp := range c.SearchPaths {
		if sp.Dir == "" {
			return NewConfigApplyError("search path with empty dir")
		}
	}
	if c.MainPlugin != "" && !validPluginName(c.MainPlugin) {
		return NewInvalidPluginNameError(c.MainPlugin)
	}
	return nil
}

// LoadManagerConfigFile reads a manager configuration from path. The format
// is detected from the file extension; YAML goes through the full-spec YAML
// parser, everything else through the Argus universal parser.
func LoadManagerConfigFile(path string) (ManagerConfig, error) {
	config := DefaultManagerConfig()

	content, err := os.ReadFile(path)
	if err != nil {
		return config, NewConfigParseError(path, err)
	}

	switch format := argus.DetectFormat(path); format {
	case argus.FormatYAML:
		if err := yaml.Unmarshal(content, &config); err != nil {
			return config, NewConfigParseError(path, err)
		}
	default:
		configMap, err := argus.ParseConfig(content, format)
		if err != nil {
			return config, NewConfigParseError(path, err)
		}
		if err := bindManagerConfig(configMap, &config); err != nil {
			return config, NewConfigParseError(path, err)
		}
	}

	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

// ApplyConfig applies the settings half of a configuration: logging switch,
// application directory override and main-plugin registration. It does not
// run any search.
func (m *PluginManager) ApplyConfig(config ManagerConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logEnabled = config.Logging.Enabled
	if config.AppDirectory != "" {
		m.appDir = config.AppDirectory
	}
	if config.MainPlugin != "" {
		m.mainPlugin = config.MainPlugin
	}
	return nil
}

// SearchConfigured runs Search over every configured search path. It returns
// OutcomeSuccess when at least one path yielded a plugin, OutcomeNothingFound
// otherwise.
func (m *PluginManager) SearchConfigured(config ManagerConfig, reporter Reporter) Outcome {
	found := false
	for _, sp := range config.SearchPaths {
		if m.Search(sp.Dir, sp.Recursive, reporter).OK() {
			found = true
		}
	}
	if !found {
		return OutcomeNothingFound
	}
	return OutcomeSuccess
}

// ConfigWatcher re-applies a manager configuration file whenever it changes
// on disk. Only the settings half is re-applied; search paths take effect at
// the next explicit SearchConfigured call.
type ConfigWatcher struct {
	manager *PluginManager
	path    string
	logger  Logger
	watcher *argus.Watcher

	mu      sync.Mutex
	started bool
}

// ConfigWatcherOptions tunes the underlying file watcher.
type ConfigWatcherOptions struct {
	PollInterval time.Duration
	CacheTTL     time.Duration
}

// DefaultConfigWatcherOptions returns the polling defaults: manager
// configuration changes rarely, so a relaxed cadence is enough.
func DefaultConfigWatcherOptions() ConfigWatcherOptions {
	return ConfigWatcherOptions{
		PollInterval: 10 * time.Second,
		CacheTTL:     5 * time.Second,
	}
}

// NewConfigWatcher creates a watcher for the configuration file at path.
func NewConfigWatcher(manager *PluginManager, path string, options ConfigWatcherOptions, logger any) *ConfigWatcher {
	internalLogger := NewLogger(logger)
	watcher := argus.New(argus.Config{
		PollInterval:         options.PollInterval,
		CacheTTL:             options.CacheTTL,
		MaxWatchedFiles:      1,
		OptimizationStrategy: argus.OptimizationSingleEvent,
		ErrorHandler: func(err error, filepath string) {
			internalLogger.Error("config file watching error", "error", err, "file", filepath)
		},
	})
	return &ConfigWatcher{
		manager: manager,
		path:    path,
		logger:  internalLogger,
		watcher: watcher,
	}
}

// Start loads and applies the current file content, then begins watching.
func (w *ConfigWatcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}

	config, err := LoadManagerConfigFile(w.path)
	if err != nil {
		return err
	}
	if err := w.manager.ApplyConfig(config); err != nil {
		return err
	}

	if err := w.watcher.Watch(w.path, w.handleChange); err != nil {
		return NewConfigWatcherError(err)
	}
	if err := w.watcher.Start(); err != nil {
		return NewConfigWatcherError(err)
	}
	w.started = true
	w.logger.Info("config watcher started", "path", w.path)
	return nil
}

// Stop halts the watcher. The last applied configuration stays in effect.
func (w *ConfigWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return nil
	}
	w.started = false
	if err := w.watcher.Stop(); err != nil {
		return NewConfigWatcherError(err)
	}
	return nil
}

func (w *ConfigWatcher) handleChange(event argus.ChangeEvent) {
	if event.IsDelete {
		w.logger.Warn("config file deleted, keeping last applied configuration", "path", event.Path)
		return
	}

	config, err := LoadManagerConfigFile(event.Path)
	if err != nil {
		w.logger.Error("config reload failed", "path", event.Path, "error", err)
		return
	}
	if err := w.manager.ApplyConfig(config); err != nil {
		w.logger.Error("config apply failed", "path", event.Path, "error", err)
		return
	}
	w.logger.Info("config reloaded", "path", event.Path)
}

// bindManagerConfig converts an Argus-parsed map into a ManagerConfig via a
// JSON round trip, so every Argus-supported format shares one binding path.
func bindManagerConfig(configMap map[string]interface{}, config *ManagerConfig) error {
	if configMap == nil {
		return NewConfigApplyError("configuration map is nil")
	}
	jsonBytes, err := json.Marshal(configMap)
	if err != nil {
		return NewConfigApplyError(err.Error())
	}
	if err := json.Unmarshal(jsonBytes, config); err != nil {
		return NewConfigApplyError(err.Error())
	}
	return nil
}
