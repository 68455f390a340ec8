package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kprdev/Dububot/twitchapi"
)

type fakeAPI struct {
	streams    []twitchapi.Stream
	streamsErr error
	users      map[string]twitchapi.User
	usersErr   error
	games      map[string]twitchapi.Game
	gamesErr   error

	streamsCalls int
	usersCalls   int
	gamesCalls   int
}

func (f *fakeAPI) GetStreams(ctx context.Context, logins []string) ([]twitchapi.Stream, error) {
	f.streamsCalls++
	return f.streams, f.streamsErr
}

func (f *fakeAPI) GetUsers(ctx context.Context, ids []string) ([]twitchapi.User, error) {
	f.usersCalls++
	if f.usersErr != nil {
		return nil, f.usersErr
	}
	out := []twitchapi.User{}
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeAPI) GetGames(ctx context.Context, ids []string) ([]twitchapi.Game, error) {
	f.gamesCalls++
	if f.gamesErr != nil {
		return nil, f.gamesErr
	}
	out := []twitchapi.Game{}
	for _, id := range ids {
		if g, ok := f.games[id]; ok {
			out = append(out, g)
		}
	}
	return out, nil
}

func stream(id, userID, gameID, title string) twitchapi.Stream {
	return twitchapi.Stream{ID: id, UserID: userID, GameID: gameID, Title: title, UserLogin: "login-" + userID}
}

func newTestAPI() *fakeAPI {
	return &fakeAPI{
		users: map[string]twitchapi.User{
			"u1": {ID: "u1", Login: "chana", DisplayName: "ChanA"},
			"u2": {ID: "u2", Login: "chanb", DisplayName: "ChanB"},
		},
		games: map[string]twitchapi.Game{
			"g1": {ID: "g1", Name: "Rhythm Game"},
			"g2": {ID: "g2", Name: "Variety"},
		},
	}
}

func TestUpdateFirstPollAnnouncesLiveAsStarted(t *testing.T) {
	api := newTestAPI()
	api.streams = []twitchapi.Stream{stream("x1", "u1", "g1", "T1")}
	tr := New(api, time.Hour, 24*time.Hour)

	res, err := tr.Update(context.Background(), []string{"chana"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if len(res.Started) != 1 || len(res.Stopped) != 0 || len(res.Updated) != 0 {
		t.Fatalf("got started=%d stopped=%d updated=%d, want 1/0/0",
			len(res.Started), len(res.Stopped), len(res.Updated))
	}
	s, ok := res.Started["x1"]
	if !ok {
		t.Fatal("expected started entry keyed by stream id x1")
	}
	if s.User.DisplayName != "ChanA" {
		t.Errorf("user not enriched: %+v", s.User)
	}
	if s.Game.Name != "Rhythm Game" {
		t.Errorf("game not enriched: %+v", s.Game)
	}
}

func TestUpdateIdenticalRepollYieldsNoEvents(t *testing.T) {
	api := newTestAPI()
	api.streams = []twitchapi.Stream{stream("x1", "u1", "g1", "T1")}
	tr := New(api, time.Hour, 24*time.Hour)
	ctx := context.Background()

	if _, err := tr.Update(ctx, nil); err != nil {
		t.Fatalf("first Update() error = %v", err)
	}
	res, err := tr.Update(ctx, nil)
	if err != nil {
		t.Fatalf("second Update() error = %v", err)
	}
	if len(res.Started)+len(res.Stopped)+len(res.Updated) != 0 {
		t.Fatalf("identical re-poll produced events: %+v", res)
	}
	if len(res.Streams) != 1 {
		t.Fatalf("snapshot should still hold the live stream, got %d", len(res.Streams))
	}
}

func TestUpdateDetectsGameChange(t *testing.T) {
	api := newTestAPI()
	api.streams = []twitchapi.Stream{stream("x1", "u1", "g1", "T1")}
	tr := New(api, time.Hour, 24*time.Hour)
	ctx := context.Background()

	if _, err := tr.Update(ctx, nil); err != nil {
		t.Fatal(err)
	}
	api.streams = []twitchapi.Stream{stream("x1", "u1", "g2", "T1")}
	res, err := tr.Update(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Updated) != 1 || len(res.Started) != 0 || len(res.Stopped) != 0 {
		t.Fatalf("got started=%d stopped=%d updated=%d, want 0/0/1",
			len(res.Started), len(res.Stopped), len(res.Updated))
	}
	if res.Updated["x1"].Game.Name != "Variety" {
		t.Errorf("updated entry carries stale game: %+v", res.Updated["x1"].Game)
	}
}

func TestUpdateDetectsTitleChange(t *testing.T) {
	api := newTestAPI()
	api.streams = []twitchapi.Stream{stream("x1", "u1", "g1", "T1")}
	tr := New(api, time.Hour, 24*time.Hour)
	ctx := context.Background()

	if _, err := tr.Update(ctx, nil); err != nil {
		t.Fatal(err)
	}
	api.streams = []twitchapi.Stream{stream("x1", "u1", "g1", "T2")}
	res, err := tr.Update(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Updated) != 1 {
		t.Fatalf("title change not detected: %+v", res)
	}
}

func TestUpdateDetectsStop(t *testing.T) {
	api := newTestAPI()
	api.streams = []twitchapi.Stream{
		stream("x1", "u1", "g1", "T1"),
		stream("x2", "u2", "g2", "T2"),
	}
	tr := New(api, time.Hour, 24*time.Hour)
	ctx := context.Background()

	if _, err := tr.Update(ctx, nil); err != nil {
		t.Fatal(err)
	}
	api.streams = []twitchapi.Stream{stream("x2", "u2", "g2", "T2")}
	res, err := tr.Update(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Stopped) != 1 {
		t.Fatalf("expected 1 stopped, got %d", len(res.Stopped))
	}
	if _, ok := res.Stopped["x1"]; !ok {
		t.Error("expected x1 in stopped set")
	}
	// Partition invariant: an id can't both start and stop in one cycle.
	for id := range res.Started {
		if _, also := res.Stopped[id]; also {
			t.Errorf("id %s present in both started and stopped", id)
		}
	}
}

func TestUpdateAllOffline(t *testing.T) {
	api := newTestAPI()
	api.streams = []twitchapi.Stream{stream("x1", "u1", "g1", "T1")}
	tr := New(api, time.Hour, 24*time.Hour)
	ctx := context.Background()

	if _, err := tr.Update(ctx, nil); err != nil {
		t.Fatal(err)
	}
	// A successful poll with zero live streams is a real "everyone stopped".
	api.streams = nil
	res, err := tr.Update(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Stopped) != 1 || len(res.Streams) != 0 {
		t.Fatalf("got stopped=%d live=%d, want 1/0", len(res.Stopped), len(res.Streams))
	}
}

// A failed poll must not look like "everyone stopped streaming": Update
// returns the error, emits nothing, and keeps the previous snapshot. This
// deliberately diverges from the original behavior, which coerced a failed
// poll to an empty live set and announced spurious stops during API outages.
func TestUpdatePollFailureKeepsSnapshot(t *testing.T) {
	api := newTestAPI()
	api.streams = []twitchapi.Stream{stream("x1", "u1", "g1", "T1")}
	tr := New(api, time.Hour, 24*time.Hour)
	ctx := context.Background()

	if _, err := tr.Update(ctx, nil); err != nil {
		t.Fatal(err)
	}

	api.streamsErr = errors.New("helix streams: status 503")
	res, err := tr.Update(ctx, nil)
	if err == nil {
		t.Fatal("expected error from failed poll")
	}
	if len(res.Stopped) != 0 {
		t.Fatalf("failed poll produced %d stop events, want 0", len(res.Stopped))
	}
	if tr.Live() != 1 {
		t.Fatalf("snapshot discarded on failed poll: live=%d, want 1", tr.Live())
	}

	// Recovery: the same stream still live must not be re-announced.
	api.streamsErr = nil
	res, err = tr.Update(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Started)+len(res.Stopped)+len(res.Updated) != 0 {
		t.Fatalf("recovery poll produced events: %+v", res)
	}
}

// A failed metadata batch fetch degrades the cycle to an empty snapshot.
// This mirrors the original client's defensive fallback and, unlike a failed
// streams poll, does replace the held snapshot.
func TestEnrichMetadataFailureDegradesToEmpty(t *testing.T) {
	api := newTestAPI()
	api.streams = []twitchapi.Stream{stream("x1", "u1", "g1", "T1")}
	api.usersErr = errors.New("helix users: status 500")
	tr := New(api, time.Hour, 24*time.Hour)

	streams, err := tr.Enrich(context.Background(), nil)
	if err != nil {
		t.Fatalf("Enrich() error = %v, want degraded empty result", err)
	}
	if len(streams) != 0 {
		t.Fatalf("expected empty mapping, got %d entries", len(streams))
	}
}

func TestEnrichEmptyDistinctFromAbsent(t *testing.T) {
	api := newTestAPI()
	tr := New(api, time.Hour, 24*time.Hour)

	streams, err := tr.Enrich(context.Background(), nil)
	if err != nil {
		t.Fatalf("Enrich() error = %v", err)
	}
	if streams == nil {
		t.Fatal("successful empty poll must return an empty map, not nil")
	}
}

func TestEnrichUsesCachesAcrossCycles(t *testing.T) {
	api := newTestAPI()
	api.streams = []twitchapi.Stream{stream("x1", "u1", "g1", "T1")}
	tr := New(api, time.Hour, 24*time.Hour)
	ctx := context.Background()

	if _, err := tr.Enrich(ctx, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.Enrich(ctx, nil); err != nil {
		t.Fatal(err)
	}
	if api.usersCalls != 1 || api.gamesCalls != 1 {
		t.Errorf("metadata refetched despite warm caches: users=%d games=%d calls",
			api.usersCalls, api.gamesCalls)
	}
	if api.streamsCalls != 2 {
		t.Errorf("streams should be fetched every cycle, got %d calls", api.streamsCalls)
	}
}

func TestEnrichUnknownGameGetsPlaceholder(t *testing.T) {
	api := newTestAPI()
	// g9 is not in the games fixture: Helix returns no record for it.
	api.streams = []twitchapi.Stream{stream("x1", "u1", "g9", "T1")}
	tr := New(api, time.Hour, 24*time.Hour)

	streams, err := tr.Enrich(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := streams["x1"].Game.Name; got != "Unlisted Game" {
		t.Errorf("Game.Name = %q, want Unlisted Game placeholder", got)
	}
}
