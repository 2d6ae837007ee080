package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"cat-endurance/internal/constants"
	"cat-endurance/internal/domain"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

// Client talks to the leaderboard JSON API.
type Client struct {
	baseURL string
	client  *fasthttp.Client
	logger  zerolog.Logger

	requestIDMu   sync.RWMutex
	lastRequestID string
}

type Envelope[T any] struct {
	Status  string `json:"status"`
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API error: %d", e.StatusCode)
	}
	return fmt.Sprintf("API error: %d: %s", e.StatusCode, e.Message)
}

func NewClient(baseURL string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         constants.ClientTimeout,
			WriteTimeout:        constants.ClientTimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		logger: logger,
	}
}

// LastRequestID is the X-Request-ID of the most recent response.
func (c *Client) LastRequestID() string {
	c.requestIDMu.RLock()
	defer c.requestIDMu.RUnlock()
	return c.lastRequestID
}

func (c *Client) updateRequestID(resp *fasthttp.Response) {
	id := string(resp.Header.Peek("X-Request-ID"))
	if id == "" {
		return
	}
	c.requestIDMu.Lock()
	c.lastRequestID = id
	c.requestIDMu.Unlock()
}

func (c *Client) SubmitScore(ctx context.Context, record domain.ScoreRecord) (*domain.SubmitResult, error) {
	body, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode score: %w", err)
	}
	env, err := doRequest[Envelope[domain.SubmitResult]](ctx, c, fasthttp.MethodPost, "/api/submit-score", body)
	if err != nil {
		return nil, err
	}
	return &env.Data, nil
}

func (c *Client) Leaderboard(ctx context.Context, limit int, continentID string) (*domain.LeaderboardData, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if continentID != "" {
		q.Set("continentId", continentID)
	}
	path := "/api/leaderboard"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	env, err := doRequest[Envelope[domain.LeaderboardData]](ctx, c, fasthttp.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return &env.Data, nil
}

func (c *Client) ContinentStats(ctx context.Context) ([]domain.ContinentStats, error) {
	env, err := doRequest[Envelope[[]domain.ContinentStats]](ctx, c, fasthttp.MethodGet, "/api/leaderboard/stats", nil)
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

// PlayerBest returns nil without error when the player has no score.
func (c *Client) PlayerBest(ctx context.Context, playerID string) (*domain.ScoreRecord, error) {
	path := "/api/player-best?" + url.Values{"playerId": {playerID}}.Encode()
	env, err := doRequest[Envelope[*domain.ScoreRecord]](ctx, c, fasthttp.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (c *Client) SeedTestData(ctx context.Context) ([]domain.SubmitResult, error) {
	env, err := doRequest[Envelope[[]domain.SubmitResult]](ctx, c, fasthttp.MethodPost, "/api/add-test-data", nil)
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (c *Client) Maintenance(ctx context.Context) (*domain.MaintenanceReport, error) {
	env, err := doRequest[Envelope[domain.MaintenanceReport]](ctx, c, fasthttp.MethodPost, "/api/maintenance", nil)
	if err != nil {
		return nil, err
	}
	return &env.Data, nil
}

func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	return doRequest[HealthResponse](ctx, c, fasthttp.MethodGet, "/api/health", nil)
}

func doRequest[T any](ctx context.Context, client *Client, method, path string, body []byte) (*T, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(client.baseURL + path)
	req.Header.SetMethod(method)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(constants.ClientTimeout)
	}
	if err := client.client.DoDeadline(req, resp, deadline); err != nil {
		client.logger.Error().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return nil, fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}

	client.updateRequestID(resp)

	status := resp.StatusCode()
	client.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", status).
		Str("request_id", client.LastRequestID()).
		Msg("api response")

	if status < 200 || status >= 300 {
		var env Envelope[json.RawMessage]
		_ = json.Unmarshal(resp.Body(), &env)
		return nil, &APIError{StatusCode: status, Message: env.Message}
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return &result, nil
}
