package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"ui_harness/domain/interfaces"
)

// EnvPrefix is prepended to every key when read from the environment:
// browser.headless becomes HARNESS_BROWSER_HEADLESS.
const EnvPrefix = "HARNESS"

// LoadOptions controls configuration loading
type LoadOptions struct {
	// EnvFile is loaded into the process environment if it exists. Defaults to .env
	EnvFile string
	// ConfigFile is an optional YAML/TOML/JSON file. Empty means harness.yaml in CWD if present.
	ConfigFile string
	// Defaults sit under every other source, next to the built-in defaults
	Defaults map[string]interface{}
	// Overrides have the highest precedence (dot-notated keys)
	Overrides map[string]interface{}
}

// Store is a viper-backed interfaces.Config
type Store struct {
	v *viper.Viper
}

var _ interfaces.Config = (*Store)(nil)

// Load builds the effective configuration:
// defaults < config file < environment (.env included) < overrides.
func Load(opts LoadOptions) (*Store, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	v := viper.New()
	setDefaults(v)
	for k, val := range opts.Defaults {
		v.SetDefault(k, val)
	}

	if err := mergeConfigFile(v, opts.ConfigFile); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for k, val := range opts.Overrides {
		v.Set(k, val)
	}
	return &Store{v: v}, nil
}

// FromMap builds a store from defaults plus values, ignoring files and environment
func FromMap(values map[string]interface{}) *Store {
	v := viper.New()
	setDefaults(v)
	for k, val := range values {
		v.Set(k, val)
	}
	return &Store{v: v}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(interfaces.KeyFramework, "selenium")
	v.SetDefault(interfaces.KeyBrowserName, "chromium")
	v.SetDefault(interfaces.KeyHeadless, false)
	v.SetDefault(interfaces.KeySlowMo, 0)
	v.SetDefault(interfaces.KeyViewport, "1920x1080")
	v.SetDefault(interfaces.KeyDefaultTimeout, 30)
	v.SetDefault(interfaces.KeyScreenshotPolicy, "on-failure")
	v.SetDefault(interfaces.KeyExecutionMode, "local")
	v.SetDefault(interfaces.KeyChromeDriverPort, 0) // 0 picks a free port per session
	v.SetDefault(interfaces.KeyGeckoDriverPort, 0)
	v.SetDefault(interfaces.KeyArtifactsDir, "artifacts")
	v.SetDefault(interfaces.KeyIdleWait, "5s")
}

func mergeConfigFile(v *viper.Viper, path string) error {
	if path == "" {
		if _, err := os.Stat("harness.yaml"); err != nil {
			return nil
		}
		path = "harness.yaml"
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

func (s *Store) String(key, def string) string {
	if !s.v.IsSet(key) {
		return def
	}
	if val := s.v.GetString(key); val != "" {
		return val
	}
	return def
}

func (s *Store) Bool(key string, def bool) bool {
	if !s.v.IsSet(key) {
		return def
	}
	return s.v.GetBool(key)
}

func (s *Store) Int(key string, def int) int {
	if !s.v.IsSet(key) {
		return def
	}
	return s.v.GetInt(key)
}

func (s *Store) Duration(key string, def time.Duration) time.Duration {
	if !s.v.IsSet(key) {
		return def
	}
	if d := s.v.GetDuration(key); d > 0 {
		return d
	}
	return def
}

// Set overrides one key at runtime
func (s *Store) Set(key string, value interface{}) {
	s.v.Set(key, value)
}

// Keys returns every known key in sorted order
func (s *Store) Keys() []string {
	keys := s.v.AllKeys()
	sort.Strings(keys)
	return keys
}

// AllSettings returns the effective settings, for diagnostics
func (s *Store) AllSettings() map[string]interface{} {
	return s.v.AllSettings()
}
