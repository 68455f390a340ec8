// Package config loads environment variables and provides a typed Config used across the bot.
// It applies sensible defaults so the binary can run locally with minimal setup.
// For required credentials use ValidateDiscordReady / ValidateTwitchReady.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	// Discord
	DiscordToken      string
	AnnounceChannelID string
	AdminRoleID       string

	// Twitch
	TwitchClientID    string
	TwitchBearerToken string
	MonitorChannels   []string

	// Polling
	PollInterval time.Duration
	UserCacheTTL time.Duration
	GameCacheTTL time.Duration

	// Chat moderation
	FilterWords  []string
	FilterBypass []string

	// HTTP
	HTTPAddr string
}

// Load reads environment variables and applies defaults. Missing credentials
// don't fail Load; features validate their own readiness at startup.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.DiscordToken = os.Getenv("DISCORD_TOKEN")
	cfg.AnnounceChannelID = os.Getenv("DISCORD_ANNOUNCE_CHANNEL")
	cfg.AdminRoleID = os.Getenv("DISCORD_ADMIN_ROLE")

	cfg.TwitchClientID = os.Getenv("TWITCH_CLIENT_ID")
	cfg.TwitchBearerToken = os.Getenv("TWITCH_BEARER_TOKEN")
	cfg.MonitorChannels = splitList(os.Getenv("TWITCH_MONITOR_CHANNELS"))

	var err error
	if cfg.PollInterval, err = durationEnv("POLL_INTERVAL", 45*time.Second); err != nil {
		return nil, err
	}
	if cfg.UserCacheTTL, err = durationEnv("USER_CACHE_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.GameCacheTTL, err = durationEnv("GAME_CACHE_TTL", 24*time.Hour); err != nil {
		return nil, err
	}

	cfg.FilterWords = splitList(os.Getenv("CHAT_FILTER_WORDS"))
	cfg.FilterBypass = splitList(os.Getenv("CHAT_FILTER_BYPASS"))

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	return cfg, nil
}

// ValidateDiscordReady checks required fields for connecting the chat bot.
func (c *Config) ValidateDiscordReady() error {
	if c.DiscordToken == "" {
		return fmt.Errorf("missing discord env: require DISCORD_TOKEN")
	}
	return nil
}

// ValidateTwitchReady checks required fields for the live-stream poller.
func (c *Config) ValidateTwitchReady() error {
	if c.TwitchClientID == "" {
		return fmt.Errorf("missing twitch env: require TWITCH_CLIENT_ID")
	}
	if len(c.MonitorChannels) == 0 {
		return fmt.Errorf("missing twitch env: require TWITCH_MONITOR_CHANNELS")
	}
	return nil
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}
