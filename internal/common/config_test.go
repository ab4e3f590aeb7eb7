package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig_DefaultPort(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port default = %d, want %d", cfg.Server.Port, 8080)
	}
}

func TestConfig_PortEnvOverride(t *testing.T) {
	t.Setenv("TRADELOG_PORT", "9090")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d after env override, want %d", cfg.Server.Port, 9090)
	}
}

func TestConfig_StorageEnvOverrides(t *testing.T) {
	t.Setenv("TRADELOG_STORAGE_ADDRESS", "ws://db:9000/rpc")
	t.Setenv("TRADELOG_STORAGE_NAMESPACE", "custom")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Storage.Address != "ws://db:9000/rpc" {
		t.Errorf("Storage.Address = %q, want %q", cfg.Storage.Address, "ws://db:9000/rpc")
	}
	if cfg.Storage.Namespace != "custom" {
		t.Errorf("Storage.Namespace = %q, want %q", cfg.Storage.Namespace, "custom")
	}
}

func TestConfig_LoadTOMLMerge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tradelog.toml")
	content := []byte("environment = \"production\"\n\n[server]\nport = 9999\n\n[auth]\nadmin_user = \"mh\"\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Auth.AdminUser != "mh" {
		t.Errorf("Auth.AdminUser = %q, want %q", cfg.Auth.AdminUser, "mh")
	}
	// Fields not in the file keep their defaults
	if cfg.Storage.Namespace != "tradelog" {
		t.Errorf("Storage.Namespace = %q, want default", cfg.Storage.Namespace)
	}
	if !cfg.IsProduction() {
		t.Error("expected IsProduction() with environment = production")
	}
}

func TestConfig_LoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/tradelog.toml")
	if err != nil {
		t.Fatalf("LoadConfig with missing file: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want default 8080", cfg.Server.Port)
	}
}

func TestAuthConfig_TokenExpiry(t *testing.T) {
	cfg := AuthConfig{TokenExpiry: "2h"}
	if got := cfg.GetTokenExpiry(); got != 2*time.Hour {
		t.Errorf("GetTokenExpiry() = %v, want 2h", got)
	}

	cfg.TokenExpiry = "garbage"
	if got := cfg.GetTokenExpiry(); got != 24*time.Hour {
		t.Errorf("GetTokenExpiry() fallback = %v, want 24h", got)
	}
}

func TestConfig_IsProduction(t *testing.T) {
	for env, want := range map[string]bool{
		"production":  true,
		"prod":        true,
		"PRODUCTION ": true,
		"development": false,
		"":            false,
	} {
		cfg := &Config{Environment: env}
		if got := cfg.IsProduction(); got != want {
			t.Errorf("IsProduction() with %q = %v, want %v", env, got, want)
		}
	}
}
