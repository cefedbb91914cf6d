// Package notify posts player join/leave events to the external API. Calls
// are best-effort: callers log failures and keep session state unchanged.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"example.com/presencebot/internal/domain"
)

// Event types accepted by the API.
const (
	EventPlayerJoined = "player_joined"
	EventPlayerLeft   = "player_left"
)

// APIError reports a non-2xx response or transport failure from the event
// API.
type APIError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("event api request failed: %v", e.Err)
	}
	return fmt.Sprintf("event api returned status %d: %s", e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error { return e.Err }

// Client posts events to {baseURL}/api/discord/events with bearer-token auth.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient constructs a client with sane defaults.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type eventPayload struct {
	DiscordID     string `json:"discord_id"`
	DiscordName   string `json:"discord_name"`
	DiscordAvatar string `json:"discord_avatar"`
	GameTitle     string `json:"game_title"`
	EventType     string `json:"event_type"`
}

// PlayerJoined reports an activity start.
func (c *Client) PlayerJoined(ctx context.Context, session domain.UserSession) error {
	return c.post(ctx, session, EventPlayerJoined)
}

// PlayerLeft reports an activity end.
func (c *Client) PlayerLeft(ctx context.Context, session domain.UserSession) error {
	return c.post(ctx, session, EventPlayerLeft)
}

func (c *Client) post(ctx context.Context, session domain.UserSession, eventType string) error {
	body, err := json.Marshal(eventPayload{
		DiscordID:     session.UserID,
		DiscordName:   session.Username,
		DiscordAvatar: session.AvatarURL,
		GameTitle:     session.ActivityName,
		EventType:     eventType,
	})
	if err != nil {
		return &APIError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/discord/events", bytes.NewReader(body))
	if err != nil {
		return &APIError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return nil
}
