// Package testutil provides a mock Twitch Helix server for tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
)

// MockTwitchServer is a test server that mocks Twitch Helix API responses.
type MockTwitchServer struct {
	*httptest.Server
	Handlers map[string]http.HandlerFunc

	// RateLimitRemaining is attached to every canned response.
	RateLimitRemaining int
}

// NewMockTwitchServer creates a new mock Twitch API server.
func NewMockTwitchServer(t *testing.T) *MockTwitchServer {
	t.Helper()
	m := &MockTwitchServer{
		Handlers:           make(map[string]http.HandlerFunc),
		RateLimitRemaining: 800,
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := m.Handlers[r.URL.Path]; ok {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(m.Close)
	return m
}

// BaseURL is the value to set on a twitchapi.Client to hit this server.
func (m *MockTwitchServer) BaseURL() string {
	return m.URL + "/helix/"
}

func (m *MockTwitchServer) respond(w http.ResponseWriter, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Ratelimit-Remaining", strconv.Itoa(m.RateLimitRemaining))
	_ = json.NewEncoder(w).Encode(body) //nolint:errcheck // test mock response
}

// MockStreamsResponse adds a handler for the /helix/streams endpoint.
func (m *MockTwitchServer) MockStreamsResponse(streams []map[string]interface{}) {
	m.Handlers["/helix/streams"] = func(w http.ResponseWriter, r *http.Request) {
		m.respond(w, map[string]interface{}{"data": streams})
	}
}

// MockUsersResponse adds a handler for the /helix/users endpoint.
func (m *MockTwitchServer) MockUsersResponse(users []map[string]interface{}) {
	m.Handlers["/helix/users"] = func(w http.ResponseWriter, r *http.Request) {
		m.respond(w, map[string]interface{}{"data": users})
	}
}

// MockGamesResponse adds a handler for the /helix/games endpoint.
func (m *MockTwitchServer) MockGamesResponse(games []map[string]interface{}) {
	m.Handlers["/helix/games"] = func(w http.ResponseWriter, r *http.Request) {
		m.respond(w, map[string]interface{}{"data": games})
	}
}

// MockStreamsFailure makes the /helix/streams endpoint return the status code.
func (m *MockTwitchServer) MockStreamsFailure(statusCode int) {
	m.Handlers["/helix/streams"] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(statusCode)
	}
}
