package tracker

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kprdev/Dububot/telemetry"
)

// EventHandler consumes the event sets of one poll cycle. Implementations
// render and deliver announcements; they must not retain the maps.
type EventHandler interface {
	HandleEvents(ctx context.Context, res PollResult)
}

// Status is a point-in-time view of the poller for the HTTP status endpoint.
type Status struct {
	Channels    []string  `json:"channels"`
	LiveCount   int       `json:"live_count"`
	LastPollAt  time.Time `json:"last_poll_at"`
	LastPollErr string    `json:"last_poll_error,omitempty"`
	Cycles      uint64    `json:"cycles"`
}

// Poller drives the tracker on a fixed interval and forwards events to the
// handler. Tracker state is touched only from Run's goroutine; the small
// status snapshot has its own lock so the HTTP server can read it.
type Poller struct {
	tracker  *Tracker
	handler  EventHandler
	channels []string
	interval time.Duration

	mu     sync.Mutex
	status Status
}

// NewPoller wires a tracker to an event handler for the given channel logins.
func NewPoller(t *Tracker, handler EventHandler, channels []string, interval time.Duration) *Poller {
	return &Poller{
		tracker:  t,
		handler:  handler,
		channels: channels,
		interval: interval,
		status:   Status{Channels: channels},
	}
}

// Run polls immediately and then once per interval until ctx is cancelled.
// Cancellation is honoured between cycles; an in-flight request finishes or
// times out on its own.
func (p *Poller) Run(ctx context.Context) {
	slog.Info("live poller started",
		slog.Duration("interval", p.interval),
		slog.String("channels", strings.Join(p.channels, ",")))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		p.pollOnce(ctx)
		select {
		case <-ctx.Done():
			slog.Info("live poller stopped")
			return
		case <-ticker.C:
		}
	}
}

// pollOnce runs a single update cycle: correlation id, span, metrics, diff,
// and event delivery. Failures degrade to "no data this cycle".
func (p *Poller) pollOnce(ctx context.Context) {
	corr := uuid.New().String()
	ctx = telemetry.WithCorrelation(ctx, corr)
	ctx, span := telemetry.StartSpan(ctx, "tracker", "poll-cycle",
		telemetry.ChannelAttr(strings.Join(p.channels, ",")))
	defer span.End()

	log := telemetry.LoggerWithCorr(ctx)

	var res PollResult
	var err error
	telemetry.TimeFunc(telemetry.PollDuration, func() {
		res, err = p.tracker.Update(ctx, p.channels)
	})
	if telemetry.PollCycles != nil {
		telemetry.PollCycles.Inc()
	}

	p.recordStatus(err)

	if err != nil {
		telemetry.RecordError(span, err)
		if telemetry.PollFailures != nil {
			telemetry.PollFailures.Inc()
		}
		log.Warn("poll cycle failed; keeping previous live set", slog.Any("err", err))
		return
	}
	telemetry.SetSpanSuccess(span)

	if n := len(res.Started) + len(res.Stopped) + len(res.Updated); n > 0 {
		log.Info("live set changed",
			slog.Int("started", len(res.Started)),
			slog.Int("stopped", len(res.Stopped)),
			slog.Int("updated", len(res.Updated)),
			slog.Int("live", len(res.Streams)))
		countEvents(res)
		p.handler.HandleEvents(ctx, res)
	}
}

func countEvents(res PollResult) {
	if telemetry.StartedEvents != nil {
		telemetry.StartedEvents.Add(float64(len(res.Started)))
	}
	if telemetry.StoppedEvents != nil {
		telemetry.StoppedEvents.Add(float64(len(res.Stopped)))
	}
	if telemetry.UpdatedEvents != nil {
		telemetry.UpdatedEvents.Add(float64(len(res.Updated)))
	}
}

func (p *Poller) recordStatus(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.Cycles++
	p.status.LastPollAt = time.Now().UTC()
	p.status.LiveCount = p.tracker.Live()
	if err != nil {
		p.status.LastPollErr = err.Error()
	} else {
		p.status.LastPollErr = ""
	}
}

// Status returns a copy of the current poller status.
func (p *Poller) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}
