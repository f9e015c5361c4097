package vk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	apiBaseURL = "https://api.vk.com/method/"
	apiVersion = "5.131"

	// VK allows 20 requests per second for group tokens.
	requestsPerSecond = 20
)

// Client is a minimal VK Bots API client covering what the poller and sender
// need: long polling, sending messages and answering button events.
type Client struct {
	token      string
	groupID    int64
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a VK API client for the given group token.
func NewClient(token string, groupID int64, logger *slog.Logger) *Client {
	return &Client{
		token:      token,
		groupID:    groupID,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
		logger:     logger,
	}
}

type apiError struct {
	Code    int    `json:"error_code"`
	Message string `json:"error_msg"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("vk api error %d: %s", e.Code, e.Message)
}

// callMethod performs one VK API method call and returns the raw response
// field.
func (c *Client) callMethod(ctx context.Context, method string, params url.Values) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params.Set("access_token", c.token)
	params.Set("v", apiVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiBaseURL+method,
		strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", method, err)
	}

	var envelope struct {
		Response json.RawMessage `json:"response"`
		Error    *apiError       `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if envelope.Error != nil {
		return nil, fmt.Errorf("%s failed: %w", method, envelope.Error)
	}
	return envelope.Response, nil
}

// LongPollServer is a group long poll endpoint with its session key and
// cursor.
type LongPollServer struct {
	Server string `json:"server"`
	Key    string `json:"key"`
	TS     string `json:"ts"`
}

// GetLongPollServer fetches the group's long poll endpoint.
func (c *Client) GetLongPollServer(ctx context.Context) (*LongPollServer, error) {
	params := url.Values{}
	params.Set("group_id", strconv.FormatInt(c.groupID, 10))
	raw, err := c.callMethod(ctx, "groups.getLongPollServer", params)
	if err != nil {
		return nil, err
	}
	var server LongPollServer
	if err := json.Unmarshal(raw, &server); err != nil {
		return nil, fmt.Errorf("failed to decode long poll server: %w", err)
	}
	return &server, nil
}

// PollResult is one long poll response: the advanced cursor and the raw
// updates, or a failure code asking the caller to refresh the cursor or the
// whole session.
type PollResult struct {
	TS      string            `json:"ts"`
	Updates []json.RawMessage `json:"updates"`
	Failed  int               `json:"failed"`
}

// Poll blocks on the long poll endpoint for up to wait seconds.
func (c *Client) Poll(ctx context.Context, server *LongPollServer, wait int) (*PollResult, error) {
	pollURL := fmt.Sprintf("%s?act=a_check&key=%s&ts=%s&wait=%d",
		server.Server, url.QueryEscape(server.Key), url.QueryEscape(server.TS), wait)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pollURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build poll request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("poll request failed: %w", err)
	}
	defer resp.Body.Close()

	var result PollResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode poll response: %w", err)
	}
	return &result, nil
}

// User is a VK user profile.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// GetUser fetches one user's profile.
func (c *Client) GetUser(ctx context.Context, userID int64) (*User, error) {
	params := url.Values{}
	params.Set("user_ids", strconv.FormatInt(userID, 10))
	raw, err := c.callMethod(ctx, "users.get", params)
	if err != nil {
		return nil, err
	}
	var users []User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users.get response: %w", err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("user %d not found", userID)
	}
	return &users[0], nil
}

// SendMessage sends a chat message, with an optional keyboard.
func (c *Client) SendMessage(ctx context.Context, peerID int64, text, keyboard string) error {
	params := url.Values{}
	params.Set("peer_id", strconv.FormatInt(peerID, 10))
	params.Set("message", text)
	params.Set("random_id", strconv.FormatInt(rand.Int63(), 10))
	if keyboard != "" {
		params.Set("keyboard", keyboard)
	}
	_, err := c.callMethod(ctx, "messages.send", params)
	return err
}

// SendEventAnswer acknowledges a button press, typically with a snackbar.
func (c *Client) SendEventAnswer(ctx context.Context, eventID string, userID, peerID int64, eventData string) error {
	params := url.Values{}
	params.Set("event_id", eventID)
	params.Set("user_id", strconv.FormatInt(userID, 10))
	params.Set("peer_id", strconv.FormatInt(peerID, 10))
	if eventData != "" {
		params.Set("event_data", eventData)
	}
	_, err := c.callMethod(ctx, "messages.sendMessageEventAnswer", params)
	return err
}
