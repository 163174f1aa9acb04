package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("BOT_TELEGRAM_TOKEN", "123456:test-token")
	t.Setenv("BOT_TELEGRAM_ADMIN_USER_ID", "42")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.Ollama.URL != "http://localhost:11434/api/chat" {
		t.Errorf("default ollama url = %q", cfg.Ollama.URL)
	}
	if cfg.Ollama.Model != "llama3.2:3b" {
		t.Errorf("default model = %q", cfg.Ollama.Model)
	}
	if cfg.Ollama.Timeout != 2*time.Minute {
		t.Errorf("default timeout = %v", cfg.Ollama.Timeout)
	}
	if cfg.Bot.MaxMessageLength != 2000 {
		t.Errorf("default max message length = %d", cfg.Bot.MaxMessageLength)
	}
	if cfg.Telegram.AdminUserID != 42 {
		t.Errorf("admin user id = %d, want 42", cfg.Telegram.AdminUserID)
	}
}

func TestLoadConfigRequiresToken(t *testing.T) {
	t.Setenv("BOT_TELEGRAM_TOKEN", "")
	t.Setenv("BOT_TELEGRAM_ADMIN_USER_ID", "42")

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml")); err == nil {
		t.Fatal("LoadConfig succeeded without a telegram token")
	}
}

func TestLoadConfigReadsFile(t *testing.T) {
	t.Setenv("BOT_TELEGRAM_TOKEN", "")
	t.Setenv("BOT_TELEGRAM_ADMIN_USER_ID", "")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
telegram:
  token: "123456:file-token"
  admin_user_id: 7
ollama:
  model: "mistral:7b"
  timeout: 30s
meta:
  hosted_by: "someone"
  version: "1.2.3"
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.Telegram.Token != "123456:file-token" {
		t.Errorf("token = %q", cfg.Telegram.Token)
	}
	if cfg.Ollama.Model != "mistral:7b" {
		t.Errorf("model = %q", cfg.Ollama.Model)
	}
	if cfg.Ollama.Timeout != 30*time.Second {
		t.Errorf("timeout = %v", cfg.Ollama.Timeout)
	}
	if cfg.Ollama.URL != "http://localhost:11434/api/chat" {
		t.Errorf("url default not applied, got %q", cfg.Ollama.URL)
	}
	if cfg.Meta.HostedBy != "someone" || cfg.Meta.Version != "1.2.3" {
		t.Errorf("meta = %+v", cfg.Meta)
	}
}

func TestLoadConfigRejectsBadTimeout(t *testing.T) {
	t.Setenv("BOT_TELEGRAM_TOKEN", "123456:test-token")
	t.Setenv("BOT_TELEGRAM_ADMIN_USER_ID", "42")
	t.Setenv("BOT_OLLAMA_TIMEOUT", "20m")

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml")); err == nil {
		t.Fatal("LoadConfig accepted a timeout above the maximum")
	}
}
