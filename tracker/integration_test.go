package tracker

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/kprdev/Dububot/testutil"
	"github.com/kprdev/Dububot/twitchapi"
)

// Exercises the tracker against a real twitchapi.Client talking to a mock
// Helix server, covering the full enrich path over the wire.
func TestTrackerAgainstMockHelix(t *testing.T) {
	srv := testutil.NewMockTwitchServer(t)
	srv.MockStreamsResponse([]map[string]interface{}{
		{"id": "s1", "user_id": "u1", "user_login": "chana", "game_id": "g1", "title": "Opening Act", "started_at": "2024-10-15T14:30:00Z"},
	})
	srv.MockUsersResponse([]map[string]interface{}{
		{"id": "u1", "login": "chana", "display_name": "ChanA", "view_count": 42},
	})
	srv.MockGamesResponse([]map[string]interface{}{
		{"id": "g1", "name": "Rhythm Game"},
	})

	client := &twitchapi.Client{
		ClientID:       "test-client-id",
		BaseURL:        srv.BaseURL(),
		RetryDelayInit: time.Millisecond,
	}
	tr := New(client, time.Hour, 24*time.Hour)

	res, err := tr.Update(context.Background(), []string{"chana"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if len(res.Started) != 1 {
		t.Fatalf("expected 1 started event, got %d", len(res.Started))
	}
	s := res.Started["s1"]
	if s.User.DisplayName != "ChanA" || s.Game.Name != "Rhythm Game" || s.Title != "Opening Act" {
		t.Errorf("enriched stream wrong: %+v", s)
	}

	// An outage mid-flight must not produce stop events.
	srv.MockStreamsFailure(http.StatusServiceUnavailable)
	res, err = tr.Update(context.Background(), []string{"chana"})
	if err == nil {
		t.Fatal("expected error while Helix is down")
	}
	if len(res.Stopped) != 0 {
		t.Fatalf("outage produced %d stop events", len(res.Stopped))
	}
	if tr.Live() != 1 {
		t.Fatalf("snapshot lost during outage: live=%d", tr.Live())
	}
}
