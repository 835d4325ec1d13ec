// Package config assembles settings shared by the plannerdig binaries from
// an optional YAML file and the environment. Environment values win.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kuzcou/plannerdig/storage"
)

// EnvFile names the variable pointing at the YAML config file.
const EnvFile = "PLANNERDIG_CONFIG"

type Config struct {
	Debug   bool          `yaml:"debug"`
	Port    string        `yaml:"port"`
	Storage StorageConfig `yaml:"storage"`
	Redis   RedisConfig   `yaml:"redis"`
	Auth    AuthConfig    `yaml:"auth"`
}

type StorageConfig struct {
	ConnectionString string         `yaml:"connectionString"`
	Tables           storage.Tables `yaml:"tables"`
	ActivityQueue    string         `yaml:"activityQueue"`
}

type RedisConfig struct {
	ConnectionString string        `yaml:"connectionString"`
	CacheTTL         time.Duration `yaml:"cacheTTL"`
	DedupeTTL        time.Duration `yaml:"dedupeTTL"`
}

// AuthConfig selects Auth0 (RS256 over JWKS) or local HS256 verification.
type AuthConfig struct {
	Domain       string        `yaml:"domain"`
	Audience     string        `yaml:"audience"`
	LocalMode    string        `yaml:"localMode"`
	SharedSecret string        `yaml:"sharedSecret"`
	KeyCacheTTL  time.Duration `yaml:"keyCacheTTL"`
}

// Local reports whether tokens are verified with the shared secret.
func (a AuthConfig) Local() bool {
	return a.LocalMode == "hs256"
}

// Issuer is the Auth0 issuer URL for Domain.
func (a AuthConfig) Issuer() string {
	if a.Domain == "" {
		return ""
	}
	return "https://" + a.Domain + "/"
}

// JWKSURL is where Auth0 publishes signing keys for Domain.
func (a AuthConfig) JWKSURL() string {
	return fmt.Sprintf("https://%s/.well-known/jwks.json", a.Domain)
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Port: "8080",
		Storage: StorageConfig{
			Tables: storage.Tables{
				Tasks:           "Tasks",
				Boards:          "Boards",
				Users:           "Users",
				DiaryEntries:    "DiaryEntries",
				DiaryCategories: "DiaryCategories",
			},
			ActivityQueue: "activity",
		},
		Redis: RedisConfig{
			CacheTTL:  5 * time.Minute,
			DedupeTTL: 24 * time.Hour,
		},
		Auth: AuthConfig{KeyCacheTTL: 15 * time.Minute},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (or
// $PLANNERDIG_CONFIG when path is empty), then the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvFile)
	}
	if path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := ApplyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile overlays the YAML document at path onto cfg.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg with any of the recognised environment variables
// that are set.
func ApplyEnv(cfg *Config) error {
	if v, ok := lookup("DEBUG"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid DEBUG: %w", err)
		}
		cfg.Debug = b
	}
	setString(&cfg.Port, "FUNCTIONS_CUSTOMHANDLER_PORT")
	setString(&cfg.Port, "PORT")

	setString(&cfg.Storage.ConnectionString, "STORAGE_CONNECTION_STRING")
	setString(&cfg.Storage.Tables.Tasks, "TASKS_TABLE")
	setString(&cfg.Storage.Tables.Boards, "BOARDS_TABLE")
	setString(&cfg.Storage.Tables.Users, "USERS_TABLE")
	setString(&cfg.Storage.Tables.DiaryEntries, "DIARY_ENTRIES_TABLE")
	setString(&cfg.Storage.Tables.DiaryCategories, "DIARY_CATEGORIES_TABLE")
	setString(&cfg.Storage.ActivityQueue, "ACTIVITY_QUEUE")

	setString(&cfg.Redis.ConnectionString, "REDIS_CONNECTION_STRING")
	if err := setDuration(&cfg.Redis.CacheTTL, "CACHE_TTL"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Redis.DedupeTTL, "DEDUPER_TTL"); err != nil {
		return err
	}

	setString(&cfg.Auth.Domain, "AUTH0_DOMAIN")
	setString(&cfg.Auth.Audience, "AUTH0_AUDIENCE")
	if v, ok := lookup("LOCAL_AUTH_MODE"); ok {
		cfg.Auth.LocalMode = strings.ToLower(v)
		setString(&cfg.Auth.SharedSecret, "LOCAL_AUTH_SHARED_SECRET")
	} else if os.Getenv("AUTH0_TEST_MODE") == "1" {
		cfg.Auth.LocalMode = "hs256"
		setString(&cfg.Auth.SharedSecret, "TEST_JWT_SECRET")
	}
	return setDuration(&cfg.Auth.KeyCacheTTL, "JWKS_CACHE_TTL")
}

// ValidateStorage checks what every binary touching the store needs.
func (c Config) ValidateStorage() error {
	if c.Storage.ConnectionString == "" {
		return errors.New("missing STORAGE_CONNECTION_STRING")
	}
	for _, name := range c.Storage.Tables.Names() {
		if name == "" {
			return errors.New("missing table name")
		}
	}
	return nil
}

// ValidateServer checks the settings the HTTP server needs on top of storage.
func (c Config) ValidateServer() error {
	if err := c.ValidateStorage(); err != nil {
		return err
	}
	if c.Redis.ConnectionString == "" {
		return errors.New("missing redis config")
	}
	switch c.Auth.LocalMode {
	case "":
		if c.Auth.Domain == "" || c.Auth.Audience == "" {
			return errors.New("missing Auth0 config")
		}
	case "hs256":
		if c.Auth.SharedSecret == "" {
			return errors.New("a shared secret must be set for hs256 local auth")
		}
	default:
		return fmt.Errorf("unsupported local auth mode %q", c.Auth.LocalMode)
	}
	return nil
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(name)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func setString(dst *string, name string) {
	if v, ok := lookup(name); ok {
		*dst = v
	}
}

func setDuration(dst *time.Duration, name string) error {
	v, ok := lookup(name)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fmt.Errorf("invalid %s: %q", name, v)
	}
	*dst = d
	return nil
}
