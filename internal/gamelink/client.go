package gamelink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/park285/cheese-session/pkg/sessiondto"
)

// Client is the REST side of the game API.
type Client struct {
	baseURL string
	http    *fasthttp.Client
	headers HeaderProvider

	defaultTimeout time.Duration
	retryMax       int
	backoffBase    time.Duration
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

// WithRetry sets the attempt count for idempotent calls.
func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

func WithBackoff(base time.Duration) Option {
	return func(c *Client) { c.backoffBase = base }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 16},
		defaultTimeout: 8 * time.Second,
		retryMax:       3,
		backoffBase:    100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmitMove posts a move. Moves are never retried; a duplicate could be played twice.
func (c *Client) SubmitMove(ctx context.Context, req sessiondto.MoveRequest) error {
	var resp sessiondto.MoveResponse
	path := "/games/" + url.PathEscape(req.GameID) + "/moves"
	if err := c.doJSON(ctx, fasthttp.MethodPost, path, req, &resp, false); err != nil {
		return err
	}
	if !resp.Accepted {
		return fmt.Errorf("%w: %s", ErrMoveRejected, resp.Error)
	}
	return nil
}

// JoinQueue enters the matchmaking queue.
func (c *Client) JoinQueue(ctx context.Context, req sessiondto.QueueRequest) (*sessiondto.QueueResponse, error) {
	var resp sessiondto.QueueResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/matchmaking/queue", req, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LeaveQueue is idempotent and retried.
func (c *Client) LeaveQueue(ctx context.Context, req sessiondto.LeaveQueueRequest) error {
	return c.doJSON(ctx, fasthttp.MethodDelete, "/matchmaking/queue", req, nil, true)
}

// ServerTime returns the server clock in epoch milliseconds.
func (c *Client) ServerTime(ctx context.Context) (int64, error) {
	var resp sessiondto.ServerTimeResponse
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/time", nil, &resp, true); err != nil {
		return 0, err
	}
	return resp.ServerNow, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any, retry bool) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetContentType("application/json")
	if c.headers != nil {
		for k, v := range c.headers() {
			if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
				req.Header.Set(k, v)
			}
		}
	}
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		req.SetBody(payload)
	}

	attempts := 1
	if retry && c.retryMax > 1 {
		attempts = c.retryMax
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx))
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			if attempt == attempts {
				return lastErr
			}
			if sleepErr := c.sleepWithContext(ctx, c.backoff(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		status := resp.StatusCode()
		if status < 200 || status >= 300 {
			apiErr := parseAPIError(status, resp.Body())
			if attempt == attempts || !shouldRetryStatus(status) {
				return apiErr
			}
			lastErr = apiErr
			if sleepErr := c.sleepWithContext(ctx, c.backoff(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		if out != nil && len(resp.Body()) > 0 {
			if err := json.Unmarshal(resp.Body(), out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	}

	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return lastErr
}

func parseAPIError(status int, body []byte) *APIError {
	var er sessiondto.ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil && (er.Code != "" || er.Message != "") {
		return &APIError{Status: status, Code: er.Code, Message: er.Message}
	}
	return &APIError{Status: status, Message: truncate(string(body), 512)}
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func (c *Client) sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *Client) backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	return time.Duration(1<<uint(attempt-1)) * c.backoffBase
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
