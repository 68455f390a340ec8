package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "")
	t.Setenv("USER_CACHE_TTL", "")
	t.Setenv("GAME_CACHE_TTL", "")
	t.Setenv("HTTP_ADDR", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.PollInterval != 45*time.Second {
		t.Errorf("PollInterval = %v, want 45s", cfg.PollInterval)
	}
	if cfg.UserCacheTTL != time.Hour {
		t.Errorf("UserCacheTTL = %v, want 1h", cfg.UserCacheTTL)
	}
	if cfg.GameCacheTTL != 24*time.Hour {
		t.Errorf("GameCacheTTL = %v, want 24h", cfg.GameCacheTTL)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
}

func TestLoadParsesLists(t *testing.T) {
	t.Setenv("TWITCH_MONITOR_CHANNELS", "chana, chanb ,,chanc")
	t.Setenv("CHAT_FILTER_WORDS", "PINEAPPLE,APPLE")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	want := []string{"chana", "chanb", "chanc"}
	if len(cfg.MonitorChannels) != len(want) {
		t.Fatalf("MonitorChannels = %v, want %v", cfg.MonitorChannels, want)
	}
	for i := range want {
		if cfg.MonitorChannels[i] != want[i] {
			t.Fatalf("MonitorChannels = %v, want %v", cfg.MonitorChannels, want)
		}
	}
	if len(cfg.FilterWords) != 2 {
		t.Errorf("FilterWords = %v, want 2 entries", cfg.FilterWords)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "soon")
	if _, err := Load(); err == nil {
		t.Error("expected error for unparseable POLL_INTERVAL")
	}

	t.Setenv("POLL_INTERVAL", "-10s")
	if _, err := Load(); err == nil {
		t.Error("expected error for negative POLL_INTERVAL")
	}
}

func TestValidateDiscordReady(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "tok")
	cfg, _ := Load()
	if err := cfg.ValidateDiscordReady(); err != nil {
		t.Errorf("expected valid discord config, got %v", err)
	}

	t.Setenv("DISCORD_TOKEN", "")
	cfg, _ = Load()
	if err := cfg.ValidateDiscordReady(); err == nil {
		t.Error("expected error when DISCORD_TOKEN missing")
	}
}

func TestValidateTwitchReady(t *testing.T) {
	t.Setenv("TWITCH_CLIENT_ID", "cid")
	t.Setenv("TWITCH_MONITOR_CHANNELS", "chana")
	cfg, _ := Load()
	if err := cfg.ValidateTwitchReady(); err != nil {
		t.Errorf("expected valid twitch config, got %v", err)
	}

	t.Setenv("TWITCH_MONITOR_CHANNELS", "")
	cfg, _ = Load()
	if err := cfg.ValidateTwitchReady(); err == nil {
		t.Error("expected error when monitor channels missing")
	}
}
