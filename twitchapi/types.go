package twitchapi

import "time"

// Stream is one entry of the Helix /streams response. List order from the API
// carries no meaning; callers rekey by ID before further processing.
type Stream struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	UserLogin    string    `json:"user_login"`
	UserName     string    `json:"user_name"`
	GameID       string    `json:"game_id"`
	GameName     string    `json:"game_name"`
	Type         string    `json:"type"`
	Title        string    `json:"title"`
	ViewerCount  int       `json:"viewer_count"`
	StartedAt    time.Time `json:"started_at"`
	Language     string    `json:"language"`
	ThumbnailURL string    `json:"thumbnail_url"`
}

// User is one entry of the Helix /users response.
type User struct {
	ID              string `json:"id"`
	Login           string `json:"login"`
	DisplayName     string `json:"display_name"`
	Description     string `json:"description"`
	ProfileImageURL string `json:"profile_image_url"`
	ViewCount       int    `json:"view_count"`
}

// Game is one entry of the Helix /games response.
type Game struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	BoxArtURL string `json:"box_art_url"`
}

// RekeyStreamsByID turns the API's stream list into a mapping keyed by
// stream id. IDs are unique per the API contract, so nothing is lost.
func RekeyStreamsByID(streams []Stream) map[string]Stream {
	out := make(map[string]Stream, len(streams))
	for _, s := range streams {
		out[s.ID] = s
	}
	return out
}

// RekeyUsersByID rekeys a user list by user id.
func RekeyUsersByID(users []User) map[string]User {
	out := make(map[string]User, len(users))
	for _, u := range users {
		out[u.ID] = u
	}
	return out
}

// RekeyGamesByID rekeys a game list by game id.
func RekeyGamesByID(games []Game) map[string]Game {
	out := make(map[string]Game, len(games))
	for _, g := range games {
		out[g.ID] = g
	}
	return out
}
