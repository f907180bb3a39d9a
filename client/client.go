package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/meinhoongagan/healthcoach-api/models"
	"github.com/meinhoongagan/healthcoach-api/utils"
)

const defaultTimeout = 15 * time.Second

// APIError is any non-2xx response. Status is 0 when the request never got a response.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return "network error: " + e.Detail
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Detail)
}

// Client wraps the JSON API. It does not retry.
type Client struct {
	baseURL string
	http    *http.Client
	session *Session
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, session *Session, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		session: session,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Session() *Session { return c.session }

// Do sends body as JSON and decodes a 2xx response into out. Either may be nil.
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token, ok := c.session.Token(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Status: 0, Detail: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.session.Invalidate()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Detail == "" {
		payload.Detail = strings.TrimSpace(string(raw))
		if payload.Detail == "" {
			payload.Detail = http.StatusText(resp.StatusCode)
		}
	}
	return &APIError{Status: resp.StatusCode, Detail: payload.Detail}
}

// Login authenticates and stores the token pair in the session.
func (c *Client) Login(ctx context.Context, identifier, password string) error {
	var pair utils.TokenPair
	body := map[string]string{"identifier": identifier, "password": password}
	if err := c.Do(ctx, http.MethodPost, "/api/auth/login", body, &pair); err != nil {
		return err
	}
	c.session.Login(pair)
	return nil
}

// Refresh trades the session's refresh token for a new pair.
func (c *Client) Refresh(ctx context.Context) error {
	var pair utils.TokenPair
	body := map[string]string{"refresh_token": c.session.RefreshToken()}
	if err := c.Do(ctx, http.MethodPost, "/api/auth/refresh", body, &pair); err != nil {
		return err
	}
	c.session.Login(pair)
	return nil
}

// Logout tells the server and clears the session even if the call fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.Do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	c.session.Logout()
	return err
}

func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.Do(ctx, http.MethodGet, "/api/auth/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Messages lists a room's messages after afterID. Zero returns the latest page.
func (c *Client) Messages(ctx context.Context, roomID, afterID uint) ([]models.ChatMessage, error) {
	q := url.Values{}
	if afterID > 0 {
		q.Set("after_id", strconv.FormatUint(uint64(afterID), 10))
	}
	path := fmt.Sprintf("/api/sessions/rooms/%d/messages", roomID)
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var msgs []models.ChatMessage
	if err := c.Do(ctx, http.MethodGet, path, nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (c *Client) PostMessage(ctx context.Context, roomID uint, text string) (*models.ChatMessage, error) {
	var msg models.ChatMessage
	path := fmt.Sprintf("/api/sessions/rooms/%d/messages", roomID)
	if err := c.Do(ctx, http.MethodPost, path, map[string]string{"message": text}, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
