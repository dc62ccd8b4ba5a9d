package config

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Bridge.Host != "127.0.0.1" {
		t.Fatalf("expected default host 127.0.0.1, got %q", cfg.Bridge.Host)
	}
	if cfg.Bridge.Port != 7888 {
		t.Fatalf("expected default port 7888, got %d", cfg.Bridge.Port)
	}
	if cfg.ApprovalTimeout().Seconds() != 300 {
		t.Fatalf("expected default approval timeout 300s, got %v", cfg.ApprovalTimeout())
	}
}

// The config file is one flat JSON object with top-level keys, the shape
// ExampleConfig documents; absent keys keep their defaults.
func TestUnmarshalFlatDocument(t *testing.T) {
	cfg := DefaultConfig()
	doc := `{
		"telegram_bot_token": "123456:ABC-DEF",
		"telegram_chat_id": 123456789,
		"bridge_port": 9000
	}`
	if err := json.Unmarshal([]byte(doc), cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if cfg.Telegram.BotToken != "123456:ABC-DEF" || cfg.Telegram.ChatID != 123456789 {
		t.Fatalf("unexpected telegram config: %+v", cfg.Telegram)
	}
	if cfg.Bridge.Port != 9000 {
		t.Fatalf("expected overridden port 9000, got %d", cfg.Bridge.Port)
	}
	if cfg.Bridge.Host != "127.0.0.1" || cfg.Bridge.ApprovalTimeoutSeconds != 300 {
		t.Fatalf("expected absent keys to keep defaults, got %+v", cfg.Bridge)
	}
}

func TestMarshalProducesFlatKeys(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Telegram.BotToken = "abc"
	cfg.Telegram.ChatID = 42
	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := string(data)
	for _, key := range []string{"telegram_bot_token", "telegram_chat_id", "bridge_host", "bridge_port", "approval_timeout_seconds"} {
		if !strings.Contains(out, `"`+key+`"`) {
			t.Fatalf("expected top-level key %q in %s", key, out)
		}
	}
	if strings.Contains(out, `"telegram"`) || strings.Contains(out, `"bridge"`) {
		t.Fatalf("expected no nested sub-objects, got %s", out)
	}
}

func TestExampleConfigRoundTrips(t *testing.T) {
	cfg := DefaultConfig()
	if err := json.Unmarshal([]byte(ExampleConfig), cfg); err != nil {
		t.Fatalf("ExampleConfig must parse: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("ExampleConfig must validate: %v", err)
	}
}

func TestValidateRequiresTelegramCredentials(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing telegram credentials")
	}
	cfg.Telegram.BotToken = "token"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing chat id")
	}
	cfg.Telegram.ChatID = 123
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestAddrFallsBackToDefaults(t *testing.T) {
	cfg := &Config{}
	if got := cfg.Addr(); got != "127.0.0.1:7888" {
		t.Fatalf("expected 127.0.0.1:7888, got %q", got)
	}
}

func TestLoadWritesAndReadsBackFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CLAUDE_BRIDGE_CONFIG", filepath.Join(dir, "config.json"))
	t.Setenv("CLAUDE_BRIDGE_TELEGRAM_BOT_TOKEN", "")
	t.Setenv("CLAUDE_BRIDGE_TELEGRAM_CHAT_ID", "")

	cfg := DefaultConfig()
	cfg.Telegram.BotToken = "abc"
	cfg.Telegram.ChatID = 42
	if err := Save(cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Telegram.BotToken != "abc" || loaded.Telegram.ChatID != 42 {
		t.Fatalf("unexpected loaded config: %+v", loaded.Telegram)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CLAUDE_BRIDGE_CONFIG", filepath.Join(dir, "config.json"))
	cfg := DefaultConfig()
	cfg.Telegram.BotToken = "from-file"
	cfg.Telegram.ChatID = 1
	if err := Save(cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	t.Setenv("CLAUDE_BRIDGE_TELEGRAM_BOT_TOKEN", "from-env")

	loaded, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Telegram.BotToken != "from-env" {
		t.Fatalf("expected env override, got %q", loaded.Telegram.BotToken)
	}
}
