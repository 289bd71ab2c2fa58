package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the settings bindery reads at startup.
type Config struct {
	BaseURL       string
	APIPrefix     string
	EnqueueMethod string
	LogFile       string
	LogLevel      string
	PrefsPath     string
	// Path is the config file that was consulted, whether or not it existed.
	Path string
}

const (
	defaultConfigPath    = "~/.config/bindery/config.toml"
	defaultBaseURL       = "http://127.0.0.1:8084"
	defaultAPIPrefix     = "/request/api"
	defaultEnqueueMethod = http.MethodGet
	defaultLogFile       = "~/.local/state/bindery/bindery.log"
	defaultLogLevel      = "info"
	defaultPrefsPath     = "~/.config/bindery/prefs.toml"

	envPrefix = "BINDERY"
)

// flagKeys maps command-line flag names onto config keys.
var flagKeys = map[string]string{
	"base-url":       "base_url",
	"api-prefix":     "api_prefix",
	"enqueue-method": "enqueue_method",
	"log-level":      "log_level",
}

// Load reads the config file at path, or the default location when path is
// empty. A missing file is not an error; defaults apply.
func Load(path string) (Config, error) {
	return LoadWithFlags(path, nil)
}

// LoadWithFlags is Load with command-line overrides. Only flags the user
// actually set take precedence over the environment and the file.
func LoadWithFlags(path string, flags *pflag.FlagSet) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if _, err := os.Stat(resolved); err == nil {
		v.SetConfigFile(resolved)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("open config: %w", err)
	}

	cfg := Config{
		BaseURL:       stringOr(v, "base_url", defaultBaseURL),
		APIPrefix:     stringOr(v, "api_prefix", defaultAPIPrefix),
		EnqueueMethod: strings.ToUpper(stringOr(v, "enqueue_method", defaultEnqueueMethod)),
		LogLevel:      strings.ToLower(stringOr(v, "log_level", defaultLogLevel)),
		Path:          resolved,
	}
	if cfg.LogFile, err = expandPath(stringOr(v, "log_file", defaultLogFile)); err != nil {
		return Config{}, fmt.Errorf("log_file: %w", err)
	}
	if cfg.PrefsPath, err = expandPath(stringOr(v, "prefs_path", defaultPrefsPath)); err != nil {
		return Config{}, fmt.Errorf("prefs_path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch c.EnqueueMethod {
	case http.MethodGet, http.MethodPost:
	default:
		return fmt.Errorf("invalid enqueue_method %q: want GET or POST", c.EnqueueMethod)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("base_url", defaultBaseURL)
	v.SetDefault("api_prefix", defaultAPIPrefix)
	v.SetDefault("enqueue_method", defaultEnqueueMethod)
	v.SetDefault("log_file", defaultLogFile)
	v.SetDefault("log_level", defaultLogLevel)
	v.SetDefault("prefs_path", defaultPrefsPath)
}

// stringOr returns the trimmed value of key, or def when it is blank.
func stringOr(v *viper.Viper, key, def string) string {
	if s := strings.TrimSpace(v.GetString(key)); s != "" {
		return s
	}
	return def
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
