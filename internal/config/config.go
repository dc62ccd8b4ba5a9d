// Package config provides configuration types and loading for the bridge.
package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Config is the root configuration struct for the bridge process. Its JSON
// form is the flat document the config file carries (see fileSchema); the
// nested Go structs exist only for envconfig prefix grouping.
type Config struct {
	Telegram TelegramConfig
	Bridge   BridgeConfig
}

// TelegramConfig configures the sole chat backend: one bot, one allow-listed
// operator chat, no fan-out to other backends.
type TelegramConfig struct {
	BotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	ChatID   int64  `envconfig:"TELEGRAM_CHAT_ID"`
}

// BridgeConfig groups the HTTP control-plane settings.
type BridgeConfig struct {
	Host                   string `envconfig:"BRIDGE_HOST"`
	Port                   int    `envconfig:"BRIDGE_PORT"`
	ApprovalTimeoutSeconds int    `envconfig:"APPROVAL_TIMEOUT_SECONDS"`
}

// fileSchema is the config file's on-disk shape: a single flat JSON object
// with top-level keys, no sub-objects. Pointer fields let an absent key keep
// whatever value (default or otherwise) the Config already holds.
type fileSchema struct {
	TelegramBotToken       *string `json:"telegram_bot_token"`
	TelegramChatID         *int64  `json:"telegram_chat_id"`
	BridgeHost             *string `json:"bridge_host"`
	BridgePort             *int    `json:"bridge_port"`
	ApprovalTimeoutSeconds *int    `json:"approval_timeout_seconds"`
}

// UnmarshalJSON reads the flat document, overlaying only the keys present.
func (c *Config) UnmarshalJSON(data []byte) error {
	var f fileSchema
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	if f.TelegramBotToken != nil {
		c.Telegram.BotToken = *f.TelegramBotToken
	}
	if f.TelegramChatID != nil {
		c.Telegram.ChatID = *f.TelegramChatID
	}
	if f.BridgeHost != nil {
		c.Bridge.Host = *f.BridgeHost
	}
	if f.BridgePort != nil {
		c.Bridge.Port = *f.BridgePort
	}
	if f.ApprovalTimeoutSeconds != nil {
		c.Bridge.ApprovalTimeoutSeconds = *f.ApprovalTimeoutSeconds
	}
	return nil
}

// MarshalJSON writes the same flat document UnmarshalJSON reads.
func (c Config) MarshalJSON() ([]byte, error) {
	return json.Marshal(fileSchema{
		TelegramBotToken:       &c.Telegram.BotToken,
		TelegramChatID:         &c.Telegram.ChatID,
		BridgeHost:             &c.Bridge.Host,
		BridgePort:             &c.Bridge.Port,
		ApprovalTimeoutSeconds: &c.Bridge.ApprovalTimeoutSeconds,
	})
}

// DefaultApprovalTimeout is used when a /approve caller omits timeout.
const DefaultApprovalTimeout = 300 * time.Second

// MaxSendMessageTimeout bounds /send_message long-polls.
const MaxSendMessageTimeout = 120 * time.Second

// DefaultConfig returns sensible defaults; Telegram fields are left blank and
// must be supplied by the config file or environment.
func DefaultConfig() *Config {
	return &Config{
		Bridge: BridgeConfig{
			Host:                   "127.0.0.1",
			Port:                   7888,
			ApprovalTimeoutSeconds: 300,
		},
	}
}

// ApprovalTimeout returns the configured default approval timeout as a
// time.Duration, falling back to DefaultApprovalTimeout when unset.
func (c *Config) ApprovalTimeout() time.Duration {
	if c.Bridge.ApprovalTimeoutSeconds <= 0 {
		return DefaultApprovalTimeout
	}
	return time.Duration(c.Bridge.ApprovalTimeoutSeconds) * time.Second
}

// Addr returns the host:port the Hook API should bind to.
func (c *Config) Addr() string {
	host := c.Bridge.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := c.Bridge.Port
	if port == 0 {
		port = 7888
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// Validate checks that the required Telegram credentials are present.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("config: telegram_bot_token is required")
	}
	if c.Telegram.ChatID == 0 {
		return fmt.Errorf("config: telegram_chat_id is required")
	}
	return nil
}
