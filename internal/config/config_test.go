// AdEval - Ad Effectiveness Stream Join Service
// Copyright 2026 The adeval authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/adeval/adeval

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithKoanf_Defaults(t *testing.T) {
	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf error: %v", err)
	}

	if cfg.Join.ViewDurationThreshold != 10 {
		t.Errorf("ViewDurationThreshold = %d, want 10", cfg.Join.ViewDurationThreshold)
	}
	if cfg.Join.PriceCeiling != 1_000_000 {
		t.Errorf("PriceCeiling = %d, want 1000000", cfg.Join.PriceCeiling)
	}
	if cfg.Join.AdTableTTL != 0 {
		t.Errorf("AdTableTTL = %v, want 0 (unbounded)", cfg.Join.AdTableTTL)
	}
	if cfg.Server.Port != 3858 {
		t.Errorf("Server.Port = %d, want 3858", cfg.Server.Port)
	}
	if cfg.NATS.URL != "nats://127.0.0.1:4222" {
		t.Errorf("NATS.URL = %q, want default", cfg.NATS.URL)
	}
	if !cfg.NATS.EmbeddedServer {
		t.Error("NATS.EmbeddedServer should default to true")
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v, want info/json", cfg.Logging)
	}
}

func TestLoadWithKoanf_EnvOverrides(t *testing.T) {
	t.Setenv("JOIN_VIEW_DURATION_THRESHOLD", "5")
	t.Setenv("JOIN_PRICE_CEILING", "500000")
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("NATS_URL", "nats://broker:4222")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf error: %v", err)
	}

	if cfg.Join.ViewDurationThreshold != 5 {
		t.Errorf("ViewDurationThreshold = %d, want 5", cfg.Join.ViewDurationThreshold)
	}
	if cfg.Join.PriceCeiling != 500000 {
		t.Errorf("PriceCeiling = %d, want 500000", cfg.Join.PriceCeiling)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.NATS.URL != "nats://broker:4222" {
		t.Errorf("NATS.URL = %q, want nats://broker:4222", cfg.NATS.URL)
	}
}

func TestLoadWithKoanf_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("join:\n  price_ceiling: 250000\nserver:\n  port: 9000\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf error: %v", err)
	}

	if cfg.Join.PriceCeiling != 250000 {
		t.Errorf("PriceCeiling = %d, want 250000 from file", cfg.Join.PriceCeiling)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000 from file", cfg.Server.Port)
	}
	// Unset fields keep their defaults.
	if cfg.Join.ViewDurationThreshold != 10 {
		t.Errorf("ViewDurationThreshold = %d, want default 10", cfg.Join.ViewDurationThreshold)
	}
}

func TestLoadWithKoanf_EnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "7777")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf error: %v", err)
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("Server.Port = %d, want env value 7777", cfg.Server.Port)
	}
}

func TestLoadWithKoanf_CORSOriginsFromEnv(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf error: %v", err)
	}

	want := []string{"https://a.example.com", "https://b.example.com"}
	if len(cfg.API.CORSOrigins) != len(want) {
		t.Fatalf("CORSOrigins = %v, want %v", cfg.API.CORSOrigins, want)
	}
	for i, w := range want {
		if cfg.API.CORSOrigins[i] != w {
			t.Errorf("CORSOrigins[%d] = %q, want %q", i, cfg.API.CORSOrigins[i], w)
		}
	}
}

func TestLoadWithKoanf_ValidationFailures(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"bad log format", "LOG_FORMAT", "xml"},
		{"port too high", "HTTP_PORT", "70000"},
		{"zero price ceiling", "JOIN_PRICE_CEILING", "0"},
		{"negative threshold", "JOIN_VIEW_DURATION_THRESHOLD", "-1"},
		{"zero shard count", "JOIN_SHARD_COUNT", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := LoadWithKoanf(); err == nil {
				t.Errorf("LoadWithKoanf accepted %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestValidate_PoisonTopicRequired(t *testing.T) {
	cfg := defaultConfig()
	cfg.NATS.RouterPoisonQueueEnabled = true
	cfg.NATS.RouterPoisonQueueTopic = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Validate accepted poison queue without a topic")
	}
}

func TestFindConfigFile_EnvPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte("{}"), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	if got := findConfigFile(); got != path {
		t.Errorf("findConfigFile = %q, want %q", got, path)
	}
}

func TestFindConfigFile_MissingEnvPathIgnored(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "/nonexistent/config.yaml")
	// Falls through to default paths; in a test working directory none exist.
	if got := findConfigFile(); got != "" {
		t.Errorf("findConfigFile = %q, want empty", got)
	}
}

func TestLoadWithKoanf_DurationFromEnv(t *testing.T) {
	t.Setenv("JOIN_AD_TABLE_TTL", "24h")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf error: %v", err)
	}
	if cfg.Join.AdTableTTL != 24*time.Hour {
		t.Errorf("AdTableTTL = %v, want 24h", cfg.Join.AdTableTTL)
	}
}
