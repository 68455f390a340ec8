// Package twitchapi contains a small client for the Twitch Helix REST API:
// live stream listing, user and game lookup by id, and follower counts.
// Requests carry the Client-Id credential, encode multi-value query keys,
// follow pagination cursors, and retry transient failures with exponential
// backoff. Every failure path funnels into a single non-nil error so callers
// have one uniform "no data" signal.
package twitchapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/kprdev/Dububot/telemetry"
)

const defaultBaseURL = "https://api.twitch.tv/helix/"

const (
	// Total attempts per call, counting the first one. Transport errors and
	// 5xx responses are retried; other statuses are permanent.
	defaultRetryMax = 5
	// First backoff delay; doubles on each failed attempt.
	defaultRetryDelayInit = 500 * time.Millisecond
	// Per-attempt bound so a wedged request cannot stall the poll loop.
	defaultRequestTimeout = 10 * time.Second
	// Headroom threshold below which a warning is logged.
	lowRateLimitHeadroom = 5
	// Helix caps both page size and id filters per request at 100.
	maxPageSize = 100
)

var defaultHTTPClient = &http.Client{Timeout: defaultRequestTimeout}

// Client issues Helix API calls. The zero value is not usable; at minimum
// ClientID must be set. BaseURL, HTTPClient and the retry knobs exist for
// tests and default sensibly when left empty.
type Client struct {
	ClientID    string
	BearerToken string
	HTTPClient  *http.Client
	BaseURL     string

	RetryMax       uint
	RetryDelayInit time.Duration
}

func (c *Client) http() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return defaultHTTPClient
}

func (c *Client) baseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return defaultBaseURL
}

func (c *Client) retryMax() uint {
	if c.RetryMax > 0 {
		return c.RetryMax
	}
	return defaultRetryMax
}

func (c *Client) retryDelayInit() time.Duration {
	if c.RetryDelayInit > 0 {
		return c.RetryDelayInit
	}
	return defaultRetryDelayInit
}

// GetStreams returns the currently live streams among the given user logins,
// following pagination cursors when the monitored set spans pages.
func (c *Client) GetStreams(ctx context.Context, logins []string) ([]Stream, error) {
	if len(logins) == 0 {
		return nil, nil
	}
	params := url.Values{"user_login": logins}
	return getPaged[Stream](ctx, c, "streams", params)
}

// GetUsers resolves users by id, batching past the per-request id cap.
func (c *Client) GetUsers(ctx context.Context, ids []string) ([]User, error) {
	return getBatched[User](ctx, c, "users", ids)
}

// GetUsersByLogin resolves users by login name.
func (c *Client) GetUsersByLogin(ctx context.Context, logins []string) ([]User, error) {
	if len(logins) == 0 {
		return nil, nil
	}
	pg, err := getPage[User](ctx, c, "users", url.Values{"login": logins})
	if err != nil {
		telemetry.CountAPIFailure("users")
		return nil, err
	}
	return pg.Data, nil
}

// GetGames resolves games by id, batching past the per-request id cap.
func (c *Client) GetGames(ctx context.Context, ids []string) ([]Game, error) {
	return getBatched[Game](ctx, c, "games", ids)
}

// GetFollowerCount returns the follower total for one user.
func (c *Client) GetFollowerCount(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, fmt.Errorf("userID empty")
	}
	pg, err := getPage[json.RawMessage](ctx, c, "users/followers", url.Values{"to_id": {userID}})
	if err != nil {
		telemetry.CountAPIFailure("users/followers")
		return 0, err
	}
	return pg.Total, nil
}

// page mirrors the common Helix response envelope.
type page[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Pagination struct {
		Cursor string `json:"cursor"`
	} `json:"pagination"`
}

// getPaged accumulates every page of a cursor-paginated endpoint.
func getPaged[T any](ctx context.Context, c *Client, endpoint string, params url.Values) ([]T, error) {
	out := []T{}
	after := ""
	for {
		p := url.Values{}
		for k, vs := range params {
			p[k] = vs
		}
		p.Set("first", strconv.Itoa(maxPageSize))
		if after != "" {
			p.Set("after", after)
		}
		pg, err := getPage[T](ctx, c, endpoint, p)
		if err != nil {
			telemetry.CountAPIFailure(endpoint)
			return nil, err
		}
		out = append(out, pg.Data...)
		if pg.Pagination.Cursor == "" || len(pg.Data) == 0 {
			return out, nil
		}
		after = pg.Pagination.Cursor
	}
}

// getBatched fetches entities by id in chunks of the per-request cap.
func getBatched[T any](ctx context.Context, c *Client, endpoint string, ids []string) ([]T, error) {
	out := []T{}
	for start := 0; start < len(ids); start += maxPageSize {
		end := min(start+maxPageSize, len(ids))
		pg, err := getPage[T](ctx, c, endpoint, url.Values{"id": ids[start:end]})
		if err != nil {
			telemetry.CountAPIFailure(endpoint)
			return nil, err
		}
		out = append(out, pg.Data...)
	}
	return out, nil
}

// getPage performs one logical GET with the retry policy applied: transport
// errors and 5xx are retried with exponential backoff up to the attempt cap,
// 429 honours Retry-After, everything else fails immediately.
func getPage[T any](ctx context.Context, c *Client, endpoint string, params url.Values) (page[T], error) {
	operation := func() (page[T], error) {
		return attempt[T](ctx, c, endpoint, params)
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryDelayInit()
	b.Multiplier = 2
	b.RandomizationFactor = 0
	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.retryMax()),
		backoff.WithNotify(func(err error, d time.Duration) {
			slog.Warn("helix request failed; backing off",
				slog.String("endpoint", endpoint),
				slog.Duration("delay", d),
				slog.Any("err", err))
		}),
	)
}

// attempt is a single HTTP round trip plus response classification.
func attempt[T any](ctx context.Context, c *Client, endpoint string, params url.Values) (page[T], error) {
	var pg page[T]
	telemetry.CountAPIRequest(endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL()+endpoint, nil)
	if err != nil {
		return pg, backoff.Permanent(err)
	}
	req.URL.RawQuery = params.Encode()
	req.Header.Set("Client-Id", c.ClientID)
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}

	resp, err := c.http().Do(req)
	if err != nil {
		return pg, fmt.Errorf("helix %s: %w", endpoint, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		if s, convErr := strconv.Atoi(resp.Header.Get("Retry-After")); convErr == nil && s >= 0 {
			return pg, backoff.RetryAfter(s)
		}
		return pg, fmt.Errorf("helix %s: status %d", endpoint, resp.StatusCode)
	case resp.StatusCode >= http.StatusInternalServerError:
		return pg, fmt.Errorf("helix %s: status %d", endpoint, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		slog.Warn("helix request rejected", slog.String("endpoint", endpoint), slog.Int("status", resp.StatusCode))
		return pg, backoff.Permanent(fmt.Errorf("helix %s: status %d", endpoint, resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(&pg); err != nil {
		return pg, backoff.Permanent(fmt.Errorf("helix %s: decode: %w", endpoint, err))
	}
	noteHeadroom(endpoint, resp.Header.Get("Ratelimit-Remaining"))
	return pg, nil
}

// noteHeadroom records remaining rate-limit quota for logging and metrics
// only; it does not gate requests.
func noteHeadroom(endpoint, header string) {
	remaining, err := strconv.Atoi(header)
	if err != nil {
		return
	}
	telemetry.SetRateLimitRemaining(remaining)
	if remaining < lowRateLimitHeadroom {
		slog.Warn("helix rate limit nearly exhausted",
			slog.String("endpoint", endpoint),
			slog.Int("remaining", remaining))
	}
}
