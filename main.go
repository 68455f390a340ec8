// Command dububot is the main entrypoint for the Discord bot and its
// Twitch live-stream tracker. It:
//   - Loads configuration and initializes structured logging.
//   - Connects the Discord gateway session and registers chat commands.
//   - Polls the Twitch Helix API on an interval, diffing live state into
//     started/stopped/updated events announced on Discord.
//   - Exposes a minimal HTTP server with /healthz, /status, and /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"log/slog"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // G108: pprof endpoints enabled only when ENABLE_PPROF=1
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kprdev/Dububot/config"
	"github.com/kprdev/Dububot/discord"
	"github.com/kprdev/Dububot/server"
	"github.com/kprdev/Dububot/telemetry"
	"github.com/kprdev/Dububot/tracker"
	"github.com/kprdev/Dububot/twitchapi"
)

const version = "1.0.0"

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load()

	// Configure logging (level + format). Defaults: level=info, format=text.
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	format := strings.ToLower(os.Getenv("LOG_FORMAT")) // text | json
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))
	slog.Info("logger initialized", slog.String("level", lvl.String()), slog.String("format", map[bool]string{true: "json", false: "text"}[format == "json"]))

	// Config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}
	if err := cfg.ValidateDiscordReady(); err != nil {
		slog.Error("discord configuration incomplete", slog.Any("err", err))
		os.Exit(1)
	}

	// Metrics / telemetry init
	telemetry.Init()

	// Initialize OpenTelemetry tracing (optional; requires OTEL_EXPORTER_OTLP_ENDPOINT)
	shutdown, err := telemetry.InitTracing("dububot", version)
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Helix API client
	helix := &twitchapi.Client{
		ClientID:    cfg.TwitchClientID,
		BearerToken: cfg.TwitchBearerToken,
	}

	// Discord bot
	bot, err := discord.New(cfg, helix)
	if err != nil {
		slog.Error("failed to create discord bot", slog.Any("err", err))
		os.Exit(1)
	}
	if err := bot.Start(ctx); err != nil {
		slog.Error("failed to connect to discord", slog.Any("err", err))
		os.Exit(1)
	}

	// Live-stream tracker and poller
	var poller *tracker.Poller
	if err := cfg.ValidateTwitchReady(); err != nil {
		slog.Info("stream tracking disabled", slog.Any("reason", err))
	} else {
		tr := tracker.New(helix, cfg.UserCacheTTL, cfg.GameCacheTTL)
		announcer := discord.NewAnnouncer(bot.Session(), cfg.AnnounceChannelID)
		poller = tracker.NewPoller(tr, announcer, cfg.MonitorChannels, cfg.PollInterval)
		go poller.Run(ctx)
	}

	// Enable pprof profiling endpoints in debug mode (ENABLE_PPROF=1)
	if os.Getenv("ENABLE_PPROF") == "1" {
		pprofAddr := os.Getenv("PPROF_ADDR")
		if pprofAddr == "" {
			pprofAddr = "localhost:6060"
		}
		go func() {
			slog.Info("pprof profiling enabled", slog.String("addr", pprofAddr))
			srv := &http.Server{
				Addr:              pprofAddr,
				Handler:           nil, // default mux exposes /debug/pprof
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       10 * time.Second,
				WriteTimeout:      10 * time.Second,
				IdleTimeout:       60 * time.Second,
			}
			if err := srv.ListenAndServe(); err != nil {
				slog.Error("pprof server error", slog.Any("err", err))
			}
		}()
	}

	// HTTP server (health/status/metrics)
	go func() {
		if err := server.Start(ctx, statusSource{poller}, cfg.HTTPAddr); err != nil {
			slog.Error("http server exited with error", slog.Any("err", err))
		}
	}()

	// Block until shutdown signal
	<-ctx.Done()
	slog.Info("shutting down")
}

// statusSource adapts an optional poller for the status endpoint; with
// tracking disabled it reports an empty status.
type statusSource struct {
	poller *tracker.Poller
}

func (s statusSource) Status() tracker.Status {
	if s.poller == nil {
		return tracker.Status{}
	}
	return s.poller.Status()
}
