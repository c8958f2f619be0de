package restclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultRetryAttempts = 3
	defaultRetryDelay    = time.Second
	defaultTimeout       = 30 * time.Second

	apiRoot = "/wp-json"
)

// Config carries the credentials and policy for one remote target.
type Config struct {
	BaseURL   string
	Username  string
	AppSecret string

	// RetryAttempts is the number of retries after the first attempt.
	// Zero selects the default; a negative value disables retries.
	RetryAttempts int
	RetryDelay    time.Duration
	Timeout       time.Duration

	// QueryRouting addresses endpoints as ?rest_route={path} for targets
	// without pretty-permalink routing.
	QueryRouting bool
}

// Client issues authenticated JSON requests against the remote API.
type Client struct {
	baseURL       string
	authHeader    string
	retryAttempts int
	retryDelay    time.Duration
	queryRouting  bool
	httpClient    *http.Client
}

// Option customises client instantiation.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// New validates cfg and constructs a Client. Missing credentials are a
// construction error, not a request-time one.
func New(cfg Config, opts ...Option) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return nil, fmt.Errorf("%w: base url is required", ErrConfig)
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return nil, fmt.Errorf("%w: base url must include scheme", ErrConfig)
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if strings.TrimSpace(cfg.Username) == "" {
		return nil, fmt.Errorf("%w: username is required", ErrConfig)
	}
	if strings.TrimSpace(cfg.AppSecret) == "" {
		return nil, fmt.Errorf("%w: application secret is required", ErrConfig)
	}

	attempts := cfg.RetryAttempts
	if attempts < 0 {
		attempts = 0
	}
	if cfg.RetryAttempts == 0 {
		attempts = defaultRetryAttempts
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	creds := base64.StdEncoding.EncodeToString([]byte(cfg.Username + ":" + cfg.AppSecret))
	cli := &Client{
		baseURL:       strings.TrimRight(base, "/"),
		authHeader:    "Basic " + creds,
		retryAttempts: attempts,
		retryDelay:    delay,
		queryRouting:  cfg.QueryRouting,
		httpClient:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli, nil
}

// Get issues a GET for path and decodes the response into out.
func (c *Client) Get(ctx context.Context, path string, params url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, params, nil, out)
}

// Post issues a POST with a JSON body and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// Put issues a PUT with a JSON body and decodes the response into out.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

// Delete issues a DELETE for path. The response body is discarded.
func (c *Client) Delete(ctx context.Context, path string, params url.Values) error {
	return c.do(ctx, http.MethodDelete, path, params, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	endpoint := c.buildURL(path, params)

	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		payload = data
	}

	attempt := func() error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("Authorization", c.authHeader)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return &APIError{Kind: KindTransport, Endpoint: path, cause: err}
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			code, msg := extractError(resp.Body)
			return &APIError{Kind: KindServer, Code: code, Message: msg, Status: resp.StatusCode, Endpoint: path}
		}
		if resp.StatusCode >= 400 {
			code, msg := extractError(resp.Body)
			return backoff.Permanent(&APIError{Kind: KindClient, Code: code, Message: msg, Status: resp.StatusCode, Endpoint: path})
		}
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode response from %s: %w", path, err))
		}
		return nil
	}

	return backoff.Retry(attempt, backoff.WithContext(c.retryPolicy(), ctx))
}

// retryPolicy doubles the delay on each attempt and caps total retries.
func (c *Client) retryPolicy() backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryDelay
	policy.Multiplier = 2
	policy.RandomizationFactor = 0
	policy.MaxElapsedTime = 0
	policy.Reset()
	return backoff.WithMaxRetries(policy, uint64(c.retryAttempts))
}

func (c *Client) buildURL(path string, params url.Values) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if c.queryRouting {
		endpoint := c.baseURL + "/?rest_route=" + url.QueryEscape(path)
		if len(params) > 0 {
			endpoint += "&" + params.Encode()
		}
		return endpoint
	}
	endpoint := c.baseURL + apiRoot + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	return endpoint
}

func extractError(body io.Reader) (code, message string) {
	data, err := io.ReadAll(body)
	if err != nil || len(data) == 0 {
		return "", ""
	}
	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", strings.TrimSpace(string(data))
	}
	return payload.Code, strings.TrimSpace(payload.Message)
}
