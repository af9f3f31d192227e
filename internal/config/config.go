package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config describes runtime configuration for jotting-pal.
type Config struct {
	// ServiceName is a human-friendly service name for logs.
	ServiceName string `env:"JOTPAL_SERVICE_NAME" envDefault:"jotting-pal"`
	// HTTPHost is the HTTP listen host.
	HTTPHost string `env:"JOTPAL_HTTP_HOST,required"`
	// HTTPPort is the HTTP listen port.
	HTTPPort int `env:"JOTPAL_HTTP_PORT" envDefault:"8080"`
	// LogLevel controls log verbosity (debug, info, warn, error).
	LogLevel string `env:"JOTPAL_LOG_LEVEL" envDefault:"info"`
	// LogFormat selects the log encoding (text or json).
	LogFormat string `env:"JOTPAL_LOG_FORMAT" envDefault:"text"`
	// Lang selects i18n language (en or ru).
	Lang string `env:"JOTPAL_LANG" envDefault:"en"`
	// Token is the Telegram bot token.
	Token string `env:"JOTPAL_TOKEN,required,notEmpty"`
	// AllowedChatIDs limits the bot to these chats. Empty allows all chats.
	AllowedChatIDs []int64 `env:"JOTPAL_ALLOWED_CHAT_IDS" envSeparator:","`
	// WebhookURL enables webhook mode when set with WebhookSecret.
	WebhookURL string `env:"JOTPAL_WEBHOOK_URL"`
	// WebhookSecret is the Telegram webhook secret token.
	WebhookSecret string `env:"JOTPAL_WEBHOOK_SECRET"`
	// OpenAIAPIKey is used for chat completions and transcription.
	OpenAIAPIKey string `env:"JOTPAL_OPENAI_API_KEY,required,notEmpty"`
	// OpenAIBaseURL overrides the OpenAI API endpoint.
	OpenAIBaseURL string `env:"JOTPAL_OPENAI_BASE_URL"`
	// OpenAIMaxRetries is the number of retries for OpenAI requests.
	OpenAIMaxRetries int `env:"JOTPAL_OPENAI_MAX_RETRIES" envDefault:"3"`
	// ChatTimeout bounds a single chat completion.
	ChatTimeout time.Duration `env:"JOTPAL_CHAT_TIMEOUT" envDefault:"2m"`
	// DefaultModel is the language model used until a chat picks one.
	DefaultModel string `env:"JOTPAL_DEFAULT_MODEL" envDefault:"gpt4"`
	// HistoryLimit is the number of conversation turns kept per thread.
	HistoryLimit int `env:"JOTPAL_HISTORY_LIMIT" envDefault:"20"`
	// StorePath is the badger directory. Empty keeps state in memory.
	StorePath string `env:"JOTPAL_STORE_PATH"`
	// CacheSize is the LRU size for thread contexts.
	CacheSize int `env:"JOTPAL_CACHE_SIZE" envDefault:"1024"`
	// VoiceEnabled turns on voice questions.
	VoiceEnabled bool `env:"JOTPAL_VOICE_ENABLED" envDefault:"false"`
	// STTModel is the OpenAI model for transcription.
	STTModel string `env:"JOTPAL_STT_MODEL" envDefault:"gpt-4o-mini-transcribe"`
	// STTTimeout is the OpenAI transcription timeout.
	STTTimeout time.Duration `env:"JOTPAL_STT_TIMEOUT" envDefault:"30s"`
	// MaxMessageRunes is the chunk size for long replies.
	MaxMessageRunes int `env:"JOTPAL_MAX_MESSAGE_RUNES" envDefault:"4000"`
	// ShutdownTimeout is the graceful shutdown timeout.
	ShutdownTimeout time.Duration `env:"JOTPAL_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load parses configuration from environment variables.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	c.Lang = strings.ToLower(strings.TrimSpace(c.Lang))
	if c.Lang == "" {
		c.Lang = "en"
	}
	c.DefaultModel = strings.TrimSpace(c.DefaultModel)
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("log format must be text or json")
	}

	if strings.TrimSpace(c.HTTPHost) == "" {
		return fmt.Errorf("http host is required")
	}
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("http port must be between 1 and 65535")
	}
	if (c.WebhookURL == "") != (c.WebhookSecret == "") {
		return fmt.Errorf("webhook url and secret must be set together")
	}
	if c.ChatTimeout <= 0 {
		return fmt.Errorf("chat timeout must be positive")
	}
	if c.OpenAIMaxRetries < 0 {
		return fmt.Errorf("openai max retries must not be negative")
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("history limit must not be negative")
	}
	if c.CacheSize < 1 {
		return fmt.Errorf("cache size must be positive")
	}
	if c.MaxMessageRunes < 100 {
		return fmt.Errorf("max message runes must be at least 100")
	}
	return nil
}

// HTTPAddr returns a listen address for the HTTP server.
func (c Config) HTTPAddr() string {
	return net.JoinHostPort(strings.TrimSpace(c.HTTPHost), fmt.Sprintf("%d", c.HTTPPort))
}

// WebhookEnabled reports whether webhook mode is configured.
func (c Config) WebhookEnabled() bool {
	return c.WebhookURL != "" && c.WebhookSecret != ""
}

// ChatAllowed reports whether the bot serves chatID.
func (c Config) ChatAllowed(chatID int64) bool {
	if len(c.AllowedChatIDs) == 0 {
		return true
	}
	for _, id := range c.AllowedChatIDs {
		if id == chatID {
			return true
		}
	}
	return false
}
