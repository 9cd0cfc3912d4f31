// ABOUTME: Layered configuration for contactdesk
// ABOUTME: Defaults, then YAML file, then .env, then CONTACTDESK_* environment variables
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/harperreed/contactdesk/editor"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix marks environment variables that override config keys.
const EnvPrefix = "CONTACTDESK_"

type Config struct {
	DB      DBConfig      `koanf:"db" yaml:"db"`
	Phone   PhoneConfig   `koanf:"phone" yaml:"phone"`
	Company CompanyConfig `koanf:"company" yaml:"company"`
	Cases   CasesConfig   `koanf:"cases" yaml:"cases"`
	Remote  RemoteConfig  `koanf:"remote" yaml:"remote"`
	Cache   CacheConfig   `koanf:"cache" yaml:"cache"`
	Charm   CharmConfig   `koanf:"charm" yaml:"charm"`
	Log     LogConfig     `koanf:"log" yaml:"log"`
}

type DBConfig struct {
	Path string `koanf:"path" yaml:"path"`
}

type PhoneConfig struct {
	HomeCode   string   `koanf:"home_code" yaml:"home_code"`
	ExtraCodes []string `koanf:"extra_codes" yaml:"extra_codes,omitempty"`
}

type CompanyConfig struct {
	MinQueryLen   int           `koanf:"min_query_len" yaml:"min_query_len"`
	Debounce      time.Duration `koanf:"debounce" yaml:"debounce"`
	SearchTimeout time.Duration `koanf:"search_timeout" yaml:"search_timeout"`
	CreateTimeout time.Duration `koanf:"create_timeout" yaml:"create_timeout"`
	SearchLimit   int           `koanf:"search_limit" yaml:"search_limit"`
}

type CasesConfig struct {
	SaveTimeout time.Duration `koanf:"save_timeout" yaml:"save_timeout"`
}

// RemoteConfig points the editor at a CRM backend over HTTP. Empty BaseURL
// means the local database serves everything.
type RemoteConfig struct {
	BaseURL string        `koanf:"base_url" yaml:"base_url,omitempty"`
	Token   string        `koanf:"token" yaml:"token,omitempty"`
	Timeout time.Duration `koanf:"timeout" yaml:"timeout"`
	Retries int           `koanf:"retries" yaml:"retries"`
}

// CacheConfig enables the Redis company search cache when RedisAddr is set.
type CacheConfig struct {
	RedisAddr string        `koanf:"redis_addr" yaml:"redis_addr,omitempty"`
	TTL       time.Duration `koanf:"ttl" yaml:"ttl"`
}

type CharmConfig struct {
	Enabled  bool   `koanf:"enabled" yaml:"enabled"`
	Host     string `koanf:"host" yaml:"host,omitempty"`
	AutoSync bool   `koanf:"auto_sync" yaml:"auto_sync"`
}

type LogConfig struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
	Output string `koanf:"output" yaml:"output"`
}

// DefaultPath is the config file location under the XDG config directory.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "contactdesk", "config.yaml")
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	wf := editor.DefaultWorkflowConfig()
	return &Config{
		DB: DBConfig{Path: filepath.Join(xdg.DataHome, "contactdesk", "contactdesk.db")},
		Phone: PhoneConfig{
			HomeCode: editor.DefaultHomeCode,
		},
		Company: CompanyConfig{
			MinQueryLen:   wf.MinQueryLen,
			Debounce:      wf.Debounce,
			SearchTimeout: wf.SearchTimeout,
			CreateTimeout: wf.CreateTimeout,
			SearchLimit:   wf.SearchLimit,
		},
		Cases:  CasesConfig{SaveTimeout: editor.DefaultSaveTimeout},
		Remote: RemoteConfig{Timeout: 15 * time.Second, Retries: 2},
		Cache:  CacheConfig{TTL: 5 * time.Minute},
		Charm:  CharmConfig{Enabled: true, AutoSync: true},
		Log:    LogConfig{Level: "info", Format: "json", Output: "stderr"},
	}
}

// Load reads the YAML file at path when it exists, then applies environment
// overrides. A .env file in the working directory is loaded into the process
// environment first; variables already set win over it.
func Load(path string) (*Config, error) {
	if err := loadDotenv(".env"); err != nil {
		return nil, err
	}

	k := koanf.New(".")
	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	// CONTACTDESK_COMPANY_MIN_QUERY_LEN -> company.min_query_len
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.Replace(key, "_", ".", 1)
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

func loadDotenv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Save writes the configuration as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration contains usable values.
func (c *Config) Validate() error {
	var errs []error

	if c.DB.Path == "" && c.Remote.BaseURL == "" {
		errs = append(errs, errors.New("db.path or remote.base_url is required"))
	}
	if !strings.HasPrefix(c.Phone.HomeCode, "+") || len(c.Phone.HomeCode) < 2 {
		errs = append(errs, fmt.Errorf("invalid phone.home_code %q: must start with +", c.Phone.HomeCode))
	}
	for _, code := range c.Phone.ExtraCodes {
		if !strings.HasPrefix(strings.TrimSpace(code), "+") {
			errs = append(errs, fmt.Errorf("invalid phone.extra_codes entry %q", code))
		}
	}
	if c.Company.MinQueryLen < 1 {
		errs = append(errs, errors.New("company.min_query_len must be at least 1"))
	}
	if c.Company.Debounce < 0 {
		errs = append(errs, errors.New("company.debounce must be non-negative"))
	}
	if c.Company.SearchTimeout <= 0 || c.Company.CreateTimeout <= 0 {
		errs = append(errs, errors.New("company timeouts must be positive"))
	}
	if c.Company.SearchLimit < 1 {
		errs = append(errs, errors.New("company.search_limit must be at least 1"))
	}
	if c.Cases.SaveTimeout <= 0 {
		errs = append(errs, errors.New("cases.save_timeout must be positive"))
	}
	if c.Remote.BaseURL != "" && c.Remote.Timeout <= 0 {
		errs = append(errs, errors.New("remote.timeout must be positive"))
	}
	if c.Remote.Retries < 0 {
		errs = append(errs, errors.New("remote.retries must be non-negative"))
	}
	if c.Cache.RedisAddr != "" && c.Cache.TTL <= 0 {
		errs = append(errs, errors.New("cache.ttl must be positive"))
	}

	return errors.Join(errs...)
}

// WorkflowConfig converts the company section for the editor.
func (c *Config) WorkflowConfig() editor.WorkflowConfig {
	return editor.WorkflowConfig{
		MinQueryLen:   c.Company.MinQueryLen,
		Debounce:      c.Company.Debounce,
		SearchTimeout: c.Company.SearchTimeout,
		CreateTimeout: c.Company.CreateTimeout,
		SearchLimit:   c.Company.SearchLimit,
	}
}

// SessionConfig converts the company and cases sections for the editor.
func (c *Config) SessionConfig() editor.SessionConfig {
	return editor.SessionConfig{
		Workflow:    c.WorkflowConfig(),
		SaveTimeout: c.Cases.SaveTimeout,
	}
}

// Resolver builds the dialing-code resolver from the phone section.
func (c *Config) Resolver() *editor.CountryCodeResolver {
	return editor.NewCountryCodeResolver(c.Phone.HomeCode, c.Phone.ExtraCodes...)
}
