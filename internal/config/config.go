package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	// ConfigureAccounts selects the operational mode: true runs account
	// reconciliation once and exits, false runs the posting pipeline.
	ConfigureAccounts bool `mapstructure:"configure_accounts"`

	// PostIntervalSeconds > 0 loops posting cycles on that cadence;
	// 0 runs a single cycle and exits.
	PostIntervalSeconds int64         `mapstructure:"post_interval"`
	PostInterval        time.Duration `mapstructure:"-"`

	StorageType  string `mapstructure:"storage_type"`
	AccountsPath string `mapstructure:"accounts_path"`

	GraphAPIBasePath    string `mapstructure:"graph_api_base_path"`
	GraphAPIVersion     string `mapstructure:"graph_api_version"`
	GraphAPIAccessToken string `mapstructure:"graph_api_access_token"`

	UnsplashAPIBasePath string `mapstructure:"unsplash_api_base_path"`
	UnsplashAPIVersion  string `mapstructure:"unsplash_api_version"`
	UnsplashAccessKey   string `mapstructure:"unsplash_access_token"`

	SinksFile string `mapstructure:"sinks_file"`
	SeedsFile string `mapstructure:"seeds_file"`

	HTTPTimeoutSeconds int64         `mapstructure:"http_timeout_seconds"`
	HTTPTimeout        time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "photogram-poster")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("configure_accounts", false)
	v.SetDefault("post_interval", 0)
	v.SetDefault("storage_type", "file")
	v.SetDefault("accounts_path", "./data/accounts")
	v.SetDefault("graph_api_base_path", "https://graph.facebook.com/")
	v.SetDefault("graph_api_version", "v21.0")
	v.SetDefault("unsplash_api_base_path", "https://api.unsplash.com/")
	v.SetDefault("unsplash_api_version", "v1")
	v.SetDefault("sinks_file", "")
	v.SetDefault("seeds_file", "")
	v.SetDefault("http_timeout_seconds", 15)

	v.AutomaticEnv()

	// Keys without a default are unknown to viper, so Unmarshal would never
	// see their environment values. Bind the env-only credential keys
	// explicitly.
	for _, key := range []string{"graph_api_access_token", "unsplash_access_token"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	if cfg.PostIntervalSeconds < 0 {
		return nil, fmt.Errorf("invalid post_interval (must be zero or positive seconds)")
	}
	cfg.PostInterval = time.Duration(cfg.PostIntervalSeconds) * time.Second

	if cfg.HTTPTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid http_timeout_seconds (must be positive seconds)")
	}
	cfg.HTTPTimeout = time.Duration(cfg.HTTPTimeoutSeconds) * time.Second

	return &cfg, nil
}

// validate checks credential and path presence before the core runs. The
// values themselves are treated as opaque strings.
func validate(cfg *Config) error {
	required := []struct {
		key string
		val string
	}{
		{"graph_api_base_path", cfg.GraphAPIBasePath},
		{"graph_api_version", cfg.GraphAPIVersion},
		{"graph_api_access_token", cfg.GraphAPIAccessToken},
		{"unsplash_api_base_path", cfg.UnsplashAPIBasePath},
		{"unsplash_api_version", cfg.UnsplashAPIVersion},
		{"unsplash_access_token", cfg.UnsplashAccessKey},
		{"accounts_path", cfg.AccountsPath},
	}
	for _, r := range required {
		if r.val == "" {
			return fmt.Errorf("missing required configuration %q", r.key)
		}
	}
	return nil
}
