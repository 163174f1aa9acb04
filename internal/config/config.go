// Package config loads and validates the application configuration from
// defaults, an optional config.yaml, and BOT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-telegram/bot/models"
	"github.com/spf13/viper"
)

// Config defines the application configuration parameters.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"log"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Ollama    OllamaConfig    `mapstructure:"ollama"`
	Bot       BotConfig       `mapstructure:"bot"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Meta      MetaConfig      `mapstructure:"meta"`
}

// LoggerConfig controls log verbosity and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the bot credentials and runtime bot identity.
type TelegramConfig struct {
	Token       string `mapstructure:"token"         validate:"required"`
	AdminUserID int64  `mapstructure:"admin_user_id" validate:"required,gt=0"`

	// BotInfo is populated at startup from GetMe, not from the config file.
	BotInfo *models.User `mapstructure:"-"`
}

// OllamaConfig describes the inference backend endpoint.
type OllamaConfig struct {
	URL     string        `mapstructure:"url"     validate:"required,url"`
	Model   string        `mapstructure:"model"   validate:"required"`
	Timeout time.Duration `mapstructure:"timeout" validate:"min=1s,max=10m"`
}

// BotConfig holds the outbound message limit and configurable reply texts.
type BotConfig struct {
	MaxMessageLength int            `mapstructure:"max_message_length" validate:"min=100"`
	Messages         MessagesConfig `mapstructure:"messages"`
}

// MessagesConfig contains user-facing texts that may be customized per
// deployment. Relay failure messages are not here; their wording is fixed.
type MessagesConfig struct {
	Welcome       string `mapstructure:"welcome"        validate:"required"`
	ProvidePrompt string `mapstructure:"provide_prompt" validate:"required"`
	NotAuthorized string `mapstructure:"not_authorized" validate:"required"`
	StatsError    string `mapstructure:"stats_error"    validate:"required"`
}

// DatabaseConfig points at the SQLite usage log.
type DatabaseConfig struct {
	Path          string `mapstructure:"path"           validate:"required"`
	RetentionDays int    `mapstructure:"retention_days" validate:"min=1"`
}

// SchedulerConfig enables and schedules background tasks by name.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig configures a single scheduled task.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// MetaConfig holds instance attribution shown by the help command.
type MetaConfig struct {
	HostedBy string `mapstructure:"hosted_by"`
	Version  string `mapstructure:"version"`
}

// LoadConfig reads configuration from the given YAML file, overlays BOT_*
// environment variables, and validates the result. A missing config file is
// acceptable; defaults and environment variables take over.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)

	// Empty defaults so BOT_TELEGRAM_* env overrides are picked up by
	// Unmarshal even without a config file.
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_user_id", 0)

	v.SetDefault("ollama.url", "http://localhost:11434/api/chat")
	v.SetDefault("ollama.model", "llama3.2:3b")
	v.SetDefault("ollama.timeout", 2*time.Minute)

	v.SetDefault("bot.max_message_length", 2000)
	v.SetDefault("bot.messages.welcome", "Hi! Use /ask followed by your question and I'll answer using a local AI model. See /help for everything I can do.")
	v.SetDefault("bot.messages.provide_prompt", "Please provide a message with your command.")
	v.SetDefault("bot.messages.not_authorized", "You are not authorized to use this command.")
	v.SetDefault("bot.messages.stats_error", "Could not retrieve usage statistics.")

	v.SetDefault("database.path", "storage.db")
	v.SetDefault("database.retention_days", 90)

	v.SetDefault("scheduler.tasks.sql_maintenance.enabled", true)
	v.SetDefault("scheduler.tasks.sql_maintenance.schedule", "0 0 4 * * *")
}
