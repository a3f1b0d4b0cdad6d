package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultBackendURL is where the ModularAI backend listens under uvicorn defaults.
	DefaultBackendURL = "http://localhost:8000"
	// DefaultNamespace prefixes every key written to the store.
	DefaultNamespace = "modular-ai"

	envPrefix = "MODULAR_CHAT_"
)

// Config holds the client configuration.
type Config struct {
	BackendURL     string        `yaml:"backend_url"`
	Store          string        `yaml:"store"` // sqlite path, redis:// URL or memory:
	Namespace      string        `yaml:"namespace"`
	Locale         string        `yaml:"locale"` // en, pt
	ShowSteps      bool          `yaml:"show_steps"`
	AutoScroll     bool          `yaml:"auto_scroll"`
	RequestTimeout time.Duration `yaml:"request_timeout"` // 0 disables
	LogFile        string        `yaml:"log_file"`

	// DataDir is not read from the file; it anchors the relative defaults.
	DataDir string `yaml:"-"`
}

// DetectDataDir returns the per-user directory holding the store, config and logs.
func DetectDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library/Application Support/modular-chat"), nil
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "modular-chat"), nil
		}
		return filepath.Join(home, ".config/modular-chat"), nil
	case "windows":
		if appData := os.Getenv("AppData"); appData != "" {
			return filepath.Join(appData, "modular-chat"), nil
		}
	}
	return filepath.Join(home, ".modular-chat"), nil
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig(dataDir string) *Config {
	return &Config{
		BackendURL: DefaultBackendURL,
		Store:      filepath.Join(dataDir, "store.db"),
		Namespace:  DefaultNamespace,
		Locale:     "en",
		AutoScroll: true,
		LogFile:    filepath.Join(dataDir, "modular-chat.log"),
		DataDir:    dataDir,
	}
}

// DefaultConfigPath returns the config file location inside dataDir.
func DefaultConfigPath(dataDir string) string {
	return filepath.Join(dataDir, "config.yaml")
}

// LoadConfig builds the configuration from defaults, the YAML file at path,
// a .env file in the working directory and MODULAR_CHAT_* variables, in
// increasing precedence. An empty path means the default location; a missing
// file is not an error.
func LoadConfig(path string) (*Config, error) {
	dataDir, err := DetectDataDir()
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig(dataDir)

	if path == "" {
		path = DefaultConfigPath(dataDir)
	}
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	// .env never overrides variables already set in the environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		LogDebug("Ignoring .env: %v", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			LogDebug("No config file at %s, using defaults", path)
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return &ParseError{Source: "config", Key: path, Err: err}
	}
	LogDebug("Loaded config from %s", path)
	return nil
}

func (c *Config) applyEnv() error {
	if v, ok := lookupEnv("BACKEND_URL"); ok {
		c.BackendURL = v
	}
	if v, ok := lookupEnv("STORE"); ok {
		c.Store = v
	}
	if v, ok := lookupEnv("NAMESPACE"); ok {
		c.Namespace = v
	}
	if v, ok := lookupEnv("LOCALE"); ok {
		c.Locale = v
	}
	if v, ok := lookupEnv("LOG_FILE"); ok {
		c.LogFile = v
	}
	if v, ok := lookupEnv("SHOW_STEPS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sSHOW_STEPS: %w", envPrefix, err)
		}
		c.ShowSteps = b
	}
	if v, ok := lookupEnv("AUTO_SCROLL"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sAUTO_SCROLL: %w", envPrefix, err)
		}
		c.AutoScroll = b
	}
	if v, ok := lookupEnv("REQUEST_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %sREQUEST_TIMEOUT: %w", envPrefix, err)
		}
		c.RequestTimeout = d
	}
	return nil
}

func lookupEnv(name string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// Save writes the configuration as YAML to path.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
