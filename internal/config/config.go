// Package config provides configuration management for promptdeck.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

const (
	// DefaultWorkerPort is the dashboard HTTP port.
	DefaultWorkerPort = 37877
	// DefaultWorkerHost binds the dashboard to loopback only.
	DefaultWorkerHost = "127.0.0.1"
	// DefaultLocale is used to order search results by title.
	DefaultLocale = "en"
	// DefaultFetchTimeout bounds a remote dataset fetch.
	DefaultFetchTimeout = 10 * time.Second

	dataDirName      = ".promptdeck"
	settingsFileName = "settings.json"
	libraryFileName  = "prompt-library.json"
	packDirName      = "packs"
)

// Environment variables that override the settings file.
const (
	EnvWorkerPort = "PROMPTDECK_WORKER_PORT"
	EnvLibrary    = "PROMPTDECK_LIBRARY"
)

// Config holds promptdeck settings.
type Config struct {
	WorkerHost        string
	LibrarySource     string
	PackDir           string
	CacheBust         string
	Locale            string
	MCPDisabledTools  []string
	CORSOrigins       []string
	WorkerPort        int
	FetchTimeout      time.Duration
	WatchLibrary      bool
	DashboardReadOnly bool
}

// settingsFile mirrors settings.json. Pointer fields distinguish "absent" from zero.
type settingsFile struct {
	WorkerPort        *int    `json:"PROMPTDECK_WORKER_PORT"`
	WorkerHost        *string `json:"PROMPTDECK_WORKER_HOST"`
	Library           *string `json:"PROMPTDECK_LIBRARY"`
	PackDir           *string `json:"PROMPTDECK_PACK_DIR"`
	CacheBust         *string `json:"PROMPTDECK_CACHE_BUST"`
	Locale            *string `json:"PROMPTDECK_LOCALE"`
	WatchLibrary      *bool   `json:"PROMPTDECK_WATCH_LIBRARY"`
	FetchTimeoutSecs  *int    `json:"PROMPTDECK_FETCH_TIMEOUT"`
	MCPDisabledTools  *string `json:"PROMPTDECK_MCP_DISABLED_TOOLS"`
	DashboardReadOnly *bool   `json:"PROMPTDECK_DASHBOARD_READ_ONLY"`
	CORSOrigins       *string `json:"PROMPTDECK_CORS_ORIGINS"`
}

var (
	globalConfig *Config
	globalOnce   sync.Once
)

// DataDir returns ~/.promptdeck.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = os.Getenv("HOME")
	}
	return filepath.Join(home, dataDirName)
}

// SettingsPath returns the settings file path.
func SettingsPath() string {
	return filepath.Join(DataDir(), settingsFileName)
}

// LibraryPath returns the default dataset location.
func LibraryPath() string {
	return filepath.Join(DataDir(), libraryFileName)
}

// PackDir returns the default overlay directory.
func PackDir() string {
	return filepath.Join(DataDir(), packDirName)
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		WorkerHost:       DefaultWorkerHost,
		WorkerPort:       DefaultWorkerPort,
		LibrarySource:    LibraryPath(),
		PackDir:          PackDir(),
		Locale:           DefaultLocale,
		FetchTimeout:     DefaultFetchTimeout,
		WatchLibrary:     true,
		MCPDisabledTools: []string{},
		CORSOrigins:      []string{},
	}
}

// EnsureDataDir creates the data directory.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0750)
}

// EnsureSettings writes a default settings file if none exists.
func EnsureSettings() error {
	path := SettingsPath()
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}

	def := Default()
	port := def.WorkerPort
	host := def.WorkerHost
	locale := def.Locale
	watch := def.WatchLibrary
	data, err := json.MarshalIndent(settingsFile{
		WorkerPort:   &port,
		WorkerHost:   &host,
		Locale:       &locale,
		WatchLibrary: &watch,
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// EnsureAll creates the data directory and default settings.
func EnsureAll() error {
	if err := EnsureDataDir(); err != nil {
		return err
	}
	return EnsureSettings()
}

// Load reads settings.json on top of the defaults. A missing or unparsable file yields
// the defaults. Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(SettingsPath())
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		applyEnv(cfg)
		return cfg, nil
	}

	var sf settingsFile
	if err := json.Unmarshal(data, &sf); err != nil {
		applyEnv(cfg)
		return cfg, nil
	}

	if sf.WorkerPort != nil && *sf.WorkerPort > 0 {
		cfg.WorkerPort = *sf.WorkerPort
	}
	if sf.WorkerHost != nil && *sf.WorkerHost != "" {
		cfg.WorkerHost = *sf.WorkerHost
	}
	if sf.Library != nil && *sf.Library != "" {
		cfg.LibrarySource = expandHome(*sf.Library)
	}
	if sf.PackDir != nil {
		cfg.PackDir = expandHome(*sf.PackDir)
	}
	if sf.CacheBust != nil {
		cfg.CacheBust = *sf.CacheBust
	}
	if sf.Locale != nil && *sf.Locale != "" {
		cfg.Locale = *sf.Locale
	}
	if sf.WatchLibrary != nil {
		cfg.WatchLibrary = *sf.WatchLibrary
	}
	if sf.FetchTimeoutSecs != nil && *sf.FetchTimeoutSecs > 0 {
		cfg.FetchTimeout = time.Duration(*sf.FetchTimeoutSecs) * time.Second
	}
	if sf.MCPDisabledTools != nil {
		cfg.MCPDisabledTools = splitTrim(*sf.MCPDisabledTools)
	}
	if sf.DashboardReadOnly != nil {
		cfg.DashboardReadOnly = *sf.DashboardReadOnly
	}
	if sf.CORSOrigins != nil {
		cfg.CORSOrigins = splitTrim(*sf.CORSOrigins)
	}

	applyEnv(cfg)
	return cfg, nil
}

// Get returns the process-wide configuration, loading it once.
func Get() *Config {
	globalOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			cfg = Default()
		}
		globalConfig = cfg
	})
	return globalConfig
}

// GetWorkerPort returns the port from the environment, or from Get() when unset or invalid.
func GetWorkerPort() int {
	if port, ok := envPort(); ok {
		return port
	}
	return Get().WorkerPort
}

func applyEnv(cfg *Config) {
	if port, ok := envPort(); ok {
		cfg.WorkerPort = port
	}
	if lib := strings.TrimSpace(os.Getenv(EnvLibrary)); lib != "" {
		cfg.LibrarySource = expandHome(lib)
	}
}

func envPort() (int, bool) {
	v := os.Getenv(EnvWorkerPort)
	if v == "" {
		return 0, false
	}
	port, err := strconv.Atoi(v)
	if err != nil || port <= 0 {
		return 0, false
	}
	return port, true
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}

// splitTrim splits a comma-separated list, trimming spaces and dropping empty items.
func splitTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
