// Package tracker implements the live-stream tracking client. It polls the
// Helix API for the monitored channels, enriches raw stream records with user
// and game metadata held in time-bounded caches, and diffs successive
// snapshots into started/stopped/updated event sets for the announcer.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kprdev/Dububot/cache"
	"github.com/kprdev/Dububot/telemetry"
	"github.com/kprdev/Dububot/twitchapi"
)

// streamAPI is the slice of the Helix client the tracker needs.
type streamAPI interface {
	GetStreams(ctx context.Context, logins []string) ([]twitchapi.Stream, error)
	GetUsers(ctx context.Context, ids []string) ([]twitchapi.User, error)
	GetGames(ctx context.Context, ids []string) ([]twitchapi.Game, error)
}

// Stream is a raw stream record with its user and game metadata attached.
// The User and Game values are copies resolved through the caches; many
// streams may carry the same user or game.
type Stream struct {
	twitchapi.Stream
	User twitchapi.User
	Game twitchapi.Game
}

// PollResult is what one poll cycle produced. Started, Stopped and Updated
// are disjoint views derived from comparing the new snapshot against the
// previous one; Streams is the full new snapshot keyed by stream id.
type PollResult struct {
	Started map[string]Stream
	Stopped map[string]Stream
	Updated map[string]Stream
	Streams map[string]Stream
}

// Tracker holds the previous enriched snapshot and the metadata caches. It is
// not safe for concurrent use: a single poller goroutine must own it.
type Tracker struct {
	api   streamAPI
	users *cache.TimeBounded[string, twitchapi.User]
	games *cache.TimeBounded[string, twitchapi.Game]
	live  map[string]Stream
}

// unlistedGame stands in for games the platform returns no data for.
var unlistedGame = twitchapi.Game{Name: "Unlisted Game"}

// New creates a tracker with one cache per entity kind.
func New(api streamAPI, userTTL, gameTTL time.Duration) *Tracker {
	games := cache.NewTimeBounded[string, twitchapi.Game]("game", gameTTL)
	games.SetDefault(unlistedGame)
	return &Tracker{
		api:   api,
		users: cache.NewTimeBounded[string, twitchapi.User]("user", userTTL),
		games: games,
		live:  map[string]Stream{},
	}
}

// Enrich fetches the current live set for the given logins and attaches user
// and game metadata, hitting the API only for ids the caches don't hold.
// A non-nil error means the poll failed outright; an empty map with a nil
// error means the poll succeeded and nobody is live. A metadata fetch
// failure degrades the cycle to the empty result rather than failing it.
func (t *Tracker) Enrich(ctx context.Context, logins []string) (map[string]Stream, error) {
	t.users.Cleanup()
	t.games.Cleanup()

	raw, err := t.api.GetStreams(ctx, logins)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return map[string]Stream{}, nil
	}
	streams := twitchapi.RekeyStreamsByID(raw)

	var userIDs, gameIDs []string
	for _, s := range streams {
		if !t.users.Contains(s.UserID) {
			userIDs = append(userIDs, s.UserID)
		}
		if s.GameID != "" && !t.games.Contains(s.GameID) {
			gameIDs = append(gameIDs, s.GameID)
		}
	}

	if err := t.fillCaches(ctx, userIDs, gameIDs); err != nil {
		// Metadata is required for rendering, so a failed batch fetch
		// degrades the whole cycle to "nobody live" instead of erroring.
		slog.Warn("metadata fetch failed; degrading poll cycle to empty", slog.Any("err", err))
		return map[string]Stream{}, nil
	}

	enriched := make(map[string]Stream, len(streams))
	for id, s := range streams {
		user, _ := t.users.Get(s.UserID)
		game, _ := t.games.Get(s.GameID)
		enriched[id] = Stream{Stream: s, User: user, Game: game}
	}

	telemetry.SetCacheSize("users", t.users.Len())
	telemetry.SetCacheSize("games", t.games.Len())
	return enriched, nil
}

// fillCaches batch-fetches the missing users and games and stores them.
func (t *Tracker) fillCaches(ctx context.Context, userIDs, gameIDs []string) error {
	if len(userIDs) > 0 {
		users, err := t.api.GetUsers(ctx, userIDs)
		if err != nil {
			return fmt.Errorf("users: %w", err)
		}
		t.users.AddMany(twitchapi.RekeyUsersByID(users))
	}
	if len(gameIDs) > 0 {
		games, err := t.api.GetGames(ctx, gameIDs)
		if err != nil {
			return fmt.Errorf("games: %w", err)
		}
		t.games.AddMany(twitchapi.RekeyGamesByID(games))
	}
	return nil
}

// Update polls once and diffs the result against the held snapshot.
//
// On success the held snapshot is replaced wholesale, even when it is empty.
// On a failed poll Update returns the error, emits no events, and keeps the
// previous snapshot, so a transient API outage is not announced as every
// monitored channel stopping at once.
func (t *Tracker) Update(ctx context.Context, logins []string) (PollResult, error) {
	streams, err := t.Enrich(ctx, logins)
	if err != nil {
		return PollResult{}, fmt.Errorf("live poll: %w", err)
	}

	res := PollResult{
		Started: map[string]Stream{},
		Stopped: map[string]Stream{},
		Updated: map[string]Stream{},
		Streams: streams,
	}
	for id, s := range streams {
		prev, held := t.live[id]
		switch {
		case !held:
			res.Started[id] = s
		case prev.GameID != s.GameID || prev.Title != s.Title:
			res.Updated[id] = s
		}
	}
	for id, s := range t.live {
		if _, stillLive := streams[id]; !stillLive {
			res.Stopped[id] = s
		}
	}

	t.live = streams
	telemetry.SetLiveChannels(len(streams))
	return res, nil
}

// Live returns how many streams the held snapshot contains.
func (t *Tracker) Live() int {
	return len(t.live)
}
