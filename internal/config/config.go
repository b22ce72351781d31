package config

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ApplicationID  string        `yaml:"application_id"`
	BotToken       string        `yaml:"bot_token"`
	PublicKey      string        `yaml:"public_key"`
	GuildID        string        `yaml:"guild_id"`
	HypixelGuildID string        `yaml:"hypixel_guild_id"`
	DatabaseURL    string        `yaml:"database_url"`
	HypixelAPIKey  string        `yaml:"hypixel_api_key"`
	ScammerBaseURL string        `yaml:"scammer_base_url"`
	ServiceSecret  string        `yaml:"service_secret"`
	LogLevel       string        `yaml:"log_level"`
	ListenAddr     string        `yaml:"listen_addr"`
	Roles          RoleConfig    `yaml:"roles"`
	Channels       ChannelConfig `yaml:"channels"`
	Embeds         EmbedColors   `yaml:"embed_colors"`
}

// RoleConfig maps guild standing to Discord role ids. RankRoles is keyed by
// lowercased Hypixel guild rank name.
type RoleConfig struct {
	Staff     []string          `yaml:"staff"`
	Member    string            `yaml:"member"`
	RankRoles map[string]string `yaml:"rank_roles"`
}

type ChannelConfig struct {
	Log     string `yaml:"log"`
	Tickets string `yaml:"tickets"`
}

type EmbedColors struct {
	Success int `yaml:"success"`
	Warning int `yaml:"warning"`
	Error   int `yaml:"error"`
}

func DefaultConfig() Config {
	return Config{
		LogLevel:       "info",
		ListenAddr:     ":8080",
		ScammerBaseURL: "https://api.scammer.watch",
		Roles:          RoleConfig{RankRoles: map[string]string{}},
		Embeds: EmbedColors{
			Success: 0xFB9B00,
			Warning: 0xF59E0B,
			Error:   0xEF4444,
		},
	}
}

func Load() (Config, error) {
	cfg := DefaultConfig()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)

	if cfg.PublicKey == "" {
		return Config{}, errors.New("DISCORD_PUBLIC_KEY is required")
	}
	if _, err := cfg.DecodePublicKey(); err != nil {
		return Config{}, err
	}
	if cfg.BotToken == "" {
		return Config{}, errors.New("DISCORD_BOT_TOKEN is required")
	}
	if cfg.ApplicationID == "" {
		return Config{}, errors.New("DISCORD_APPLICATION_ID is required")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required")
	}
	if cfg.HypixelAPIKey == "" {
		return Config{}, errors.New("HYPIXEL_API_KEY is required")
	}

	return cfg, nil
}

// DecodePublicKey parses the hex-encoded verification key Discord issues
// per application.
func (c Config) DecodePublicKey() (ed25519.PublicKey, error) {
	raw, err := hex.DecodeString(c.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("invalid public key: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("invalid public key: expected %d bytes, got %d", ed25519.PublicKeySize, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}

func applyEnv(cfg *Config) {
	cfg.ApplicationID = envString("DISCORD_APPLICATION_ID", cfg.ApplicationID)
	cfg.BotToken = envString("DISCORD_BOT_TOKEN", cfg.BotToken)
	cfg.PublicKey = envString("DISCORD_PUBLIC_KEY", cfg.PublicKey)
	cfg.GuildID = envString("DISCORD_GUILD_ID", cfg.GuildID)
	cfg.HypixelGuildID = envString("HYPIXEL_GUILD_ID", cfg.HypixelGuildID)
	cfg.DatabaseURL = envString("DATABASE_URL", cfg.DatabaseURL)
	cfg.HypixelAPIKey = envString("HYPIXEL_API_KEY", cfg.HypixelAPIKey)
	cfg.ScammerBaseURL = envString("SCAMMER_BASE_URL", cfg.ScammerBaseURL)
	cfg.ServiceSecret = envString("SERVICE_SECRET", cfg.ServiceSecret)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.ListenAddr = envString("LISTEN_ADDR", cfg.ListenAddr)
	cfg.Channels.Log = envString("LOG_CHANNEL_ID", cfg.Channels.Log)
	cfg.Channels.Tickets = envString("TICKET_CHANNEL_ID", cfg.Channels.Tickets)
	cfg.Embeds.Success = envInt("EMBED_COLOR_SUCCESS", cfg.Embeds.Success)
	cfg.Embeds.Warning = envInt("EMBED_COLOR_WARNING", cfg.Embeds.Warning)
	cfg.Embeds.Error = envInt("EMBED_COLOR_ERROR", cfg.Embeds.Error)
}

func BuildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	lvl := strings.ToLower(level)
	switch lvl {
	case "debug", "info", "warn", "error":
		cfg.Level = zap.NewAtomicLevelAt(parseLevel(lvl))
	default:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	return cfg.Build()
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
