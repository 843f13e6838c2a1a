package config

import (
	"fmt"
	"time"
	_ "time/tzdata" // bot.timezone must resolve on hosts without zoneinfo

	"github.com/Veraticus/catat/internal/common"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the full application configuration.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	NLP      NLPConfig      `mapstructure:"nlp"`
	Bot      BotConfig      `mapstructure:"bot"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// ServerConfig configures the webhook listener.
type ServerConfig struct {
	Addr        string        `mapstructure:"addr" validate:"required"`
	ReadTimeout time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
}

// GatewayConfig configures the outbound WhatsApp bridge.
type GatewayConfig struct {
	URL         string        `mapstructure:"url" validate:"omitempty,url"`
	Token       string        `mapstructure:"token"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxAttempts int           `mapstructure:"max_attempts" validate:"gte=1,lte=10"`
}

// BotConfig holds conversation behavior.
type BotConfig struct {
	Timezone     string        `mapstructure:"timezone" validate:"required"`
	Source       string        `mapstructure:"source" validate:"required"`
	MaxAmount    int64         `mapstructure:"max_amount" validate:"gt=0"`
	CallTimeout  time.Duration `mapstructure:"call_timeout" validate:"gt=0"`
	HistoryLimit int           `mapstructure:"history_limit" validate:"gte=1,lte=50"`
}

// NLPConfig tunes the intent classifier.
type NLPConfig struct {
	Shorthands    map[string]int64  `mapstructure:"shorthands" validate:"dive,keys,required,endkeys,gt=0"`
	Abbreviations map[string]string `mapstructure:"abbreviations" validate:"dive,keys,required,endkeys,required"`
	CorpusPath    string            `mapstructure:"corpus_path"`
	MinConfidence float64           `mapstructure:"min_confidence" validate:"gt=0,lte=1"`
}

// LoggingConfig selects the slog level and handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn warning error"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "~/.local/share/catat/catat.db")

	v.SetDefault("server.addr", ":3001")
	v.SetDefault("server.read_timeout", "10s")

	v.SetDefault("gateway.url", "")
	v.SetDefault("gateway.token", "")
	v.SetDefault("gateway.timeout", "10s")
	v.SetDefault("gateway.max_attempts", 3)

	v.SetDefault("bot.timezone", "Asia/Jakarta")
	v.SetDefault("bot.source", "whatsapp")
	v.SetDefault("bot.history_limit", 5)
	v.SetDefault("bot.call_timeout", "5s")
	v.SetDefault("bot.max_amount", int64(1_000_000_000))

	v.SetDefault("nlp.min_confidence", 0.5)
	v.SetDefault("nlp.corpus_path", "")
	v.SetDefault("nlp.shorthands", map[string]int64{
		"rb":   1_000,
		"ribu": 1_000,
		"k":    1_000,
		"jt":   1_000_000,
		"juta": 1_000_000,
	})
	v.SetDefault("nlp.abbreviations", map[string]string{
		"utk":  "untuk",
		"untk": "untuk",
		"utuk": "untuk",
		"unt":  "untuk",
		"buat": "untuk",
		"bwt":  "untuk",
		"dr":   "dari",
		"dri":  "dari",
	})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load reads the configuration held by v, expands paths and validates it.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}

	cfg.Database.Path = ExpandPath(cfg.Database.Path)
	cfg.NLP.CorpusPath = ExpandPath(cfg.NLP.CorpusPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and that the timezone can be loaded.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	if _, err := time.LoadLocation(c.Bot.Timezone); err != nil {
		return fmt.Errorf("%w: bot.timezone: %w", common.ErrInvalidConfig, err)
	}
	return nil
}

// Location returns the bot time zone. Validate has already confirmed it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Bot.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// RequireGateway reports an error when no outbound gateway URL is configured.
func (c *Config) RequireGateway() error {
	if c.Gateway.URL == "" {
		return fmt.Errorf("%w: gateway.url", common.ErrMissingConfig)
	}
	return nil
}
