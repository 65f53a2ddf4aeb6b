package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GRAPH_API_ACCESS_TOKEN", "graph-token")
	t.Setenv("UNSPLASH_ACCESS_TOKEN", "unsplash-key")
}

func TestLoadReadsCredentialsFromEnv(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GraphAPIAccessToken != "graph-token" {
		t.Fatalf("graph token = %q", cfg.GraphAPIAccessToken)
	}
	if cfg.UnsplashAccessKey != "unsplash-key" {
		t.Fatalf("unsplash key = %q", cfg.UnsplashAccessKey)
	}
	if cfg.StorageType != "file" || cfg.AccountsPath == "" {
		t.Fatalf("storage defaults missing: type=%q path=%q", cfg.StorageType, cfg.AccountsPath)
	}
	if cfg.HTTPTimeout != 15*time.Second {
		t.Fatalf("http timeout = %v", cfg.HTTPTimeout)
	}
	if cfg.ConfigureAccounts {
		t.Fatal("configure_accounts must default to false")
	}
}

func TestLoadFailsWithoutCredentials(t *testing.T) {
	t.Setenv("GRAPH_API_ACCESS_TOKEN", "graph-token")
	t.Setenv("UNSPLASH_ACCESS_TOKEN", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing unsplash credential")
	}
}

func TestLoadParsesPostInterval(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("POST_INTERVAL", "600")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PostInterval != 10*time.Minute {
		t.Fatalf("post interval = %v", cfg.PostInterval)
	}
}

func TestLoadRejectsNegativePostInterval(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("POST_INTERVAL", "-5")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for negative post_interval")
	}
}

func TestLoadSelectsConfigureAccountsMode(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CONFIGURE_ACCOUNTS", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.ConfigureAccounts {
		t.Fatal("configure_accounts env override not applied")
	}
}
