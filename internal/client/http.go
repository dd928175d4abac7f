package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrUnauthorized is returned for any 401 response. The portal token is no
// longer valid and the caller must de-authenticate.
var ErrUnauthorized = errors.New("authentication failed, please login again")

// APIError is a non-2xx response other than 401.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, strings.TrimSpace(e.Body))
}

// HTTPClient makes REST calls to the portal.
type HTTPClient struct {
	baseURL        string
	token          string
	client         *http.Client
	onUnauthorized func()
}

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithTimeout sets the per-request timeout. The default is 10s.
func WithTimeout(d time.Duration) HTTPOption {
	return func(c *HTTPClient) { c.client.Timeout = d }
}

// WithUnauthorizedHandler registers fn to run on every 401, before the
// ErrUnauthorized error is returned to the caller.
func WithUnauthorizedHandler(fn func()) HTTPOption {
	return func(c *HTTPClient) { c.onUnauthorized = fn }
}

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(c *HTTPClient) { c.client = hc }
}

// NewHTTPClient creates a client targeting the given base URL (e.g. "http://127.0.0.1:8080").
func NewHTTPClient(baseURL, token string, opts ...HTTPOption) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// --- Agent ---

// GetAgentStatus fetches /api/agent/status.
func (c *HTTPClient) GetAgentStatus(ctx context.Context) (AgentStatus, error) {
	var s AgentStatus
	err := c.do(ctx, http.MethodGet, "/api/agent/status", nil, &s)
	return s, err
}

// --- OBS ---

// GetOBSStatus fetches /api/obs/status.
func (c *HTTPClient) GetOBSStatus(ctx context.Context) (OBSStatus, error) {
	var s OBSStatus
	err := c.do(ctx, http.MethodGet, "/api/obs/status", nil, &s)
	return s, err
}

// GetScenes fetches /api/obs/scenes.
func (c *HTTPClient) GetScenes(ctx context.Context) ([]Scene, error) {
	var out struct {
		Scenes []Scene `json:"scenes"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/obs/scenes", nil, &out); err != nil {
		return nil, err
	}
	return out.Scenes, nil
}

// GetSources fetches /api/obs/sources, optionally for a named scene.
func (c *HTTPClient) GetSources(ctx context.Context, scene string) ([]Source, error) {
	path := "/api/obs/sources"
	if scene != "" {
		path += "?scene=" + url.QueryEscape(scene)
	}
	var out struct {
		Sources []Source `json:"sources"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Sources, nil
}

// SwitchScene sends POST /api/obs/scenes/switch.
func (c *HTTPClient) SwitchScene(ctx context.Context, scene string) error {
	body := map[string]string{"scene_name": scene}
	return c.do(ctx, http.MethodPost, "/api/obs/scenes/switch", body, nil)
}

// ToggleSource sends POST /api/obs/sources/toggle.
func (c *HTTPClient) ToggleSource(ctx context.Context, scene, source string, visible bool) error {
	body := map[string]any{
		"scene_name":  scene,
		"source_name": source,
		"visible":     visible,
	}
	return c.do(ctx, http.MethodPost, "/api/obs/sources/toggle", body, nil)
}

func (c *HTTPClient) StartStreaming(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/obs/streaming/start", nil, nil)
}

func (c *HTTPClient) StopStreaming(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/obs/streaming/stop", nil, nil)
}

func (c *HTTPClient) StartRecording(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/obs/recording/start", nil, nil)
}

func (c *HTTPClient) StopRecording(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/obs/recording/stop", nil, nil)
}

func (c *HTTPClient) PauseRecording(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/obs/recording/pause", nil, nil)
}

func (c *HTTPClient) ResumeRecording(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/obs/recording/resume", nil, nil)
}

// --- Twitch ---

// GetTwitchStatus fetches /api/twitch/status.
func (c *HTTPClient) GetTwitchStatus(ctx context.Context) (TwitchStatus, error) {
	var s TwitchStatus
	err := c.do(ctx, http.MethodGet, "/api/twitch/status", nil, &s)
	return s, err
}

// GetTwitchStats fetches /api/twitch/stats.
func (c *HTTPClient) GetTwitchStats(ctx context.Context) (TwitchStreamStats, error) {
	var s TwitchStreamStats
	err := c.do(ctx, http.MethodGet, "/api/twitch/stats", nil, &s)
	return s, err
}

// UpdateTwitchStream sends PATCH /api/twitch/stream.
func (c *HTTPClient) UpdateTwitchStream(ctx context.Context, req UpdateTwitchStreamRequest) error {
	return c.do(ctx, http.MethodPatch, "/api/twitch/stream", req, nil)
}

// --- YouTube ---

// GetYouTubeStatus fetches /api/youtube/status.
func (c *HTTPClient) GetYouTubeStatus(ctx context.Context) (YouTubeStatus, error) {
	var s YouTubeStatus
	err := c.do(ctx, http.MethodGet, "/api/youtube/status", nil, &s)
	return s, err
}

// GetYouTubeStats fetches /api/youtube/stats.
func (c *HTTPClient) GetYouTubeStats(ctx context.Context) (YouTubeStreamStats, error) {
	var s YouTubeStreamStats
	err := c.do(ctx, http.MethodGet, "/api/youtube/stats", nil, &s)
	return s, err
}

// UpdateYouTubeStream sends PATCH /api/youtube/stream.
func (c *HTTPClient) UpdateYouTubeStream(ctx context.Context, req UpdateYouTubeStreamRequest) error {
	return c.do(ctx, http.MethodPatch, "/api/youtube/stream", req, nil)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setAuth(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return fmt.Errorf("%s %s: %w", method, path, ErrUnauthorized)
	}
	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Method: method, Path: path, Status: resp.StatusCode, Body: string(respBody)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *HTTPClient) setAuth(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
