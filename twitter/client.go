// Package twitter is a small client for the two Twitter endpoints the bot
// needs: chunked media upload (v1.1) and tweet creation (v2).
package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dghubble/oauth1"
	"golang.org/x/time/rate"
)

const (
	// UploadURL is the v1.1 media upload endpoint.
	UploadURL = "https://upload.twitter.com/1.1/media/upload.json"

	// APIBaseURL is the v2 API base URL.
	APIBaseURL = "https://api.twitter.com/2"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 60 * time.Second

	// RateLimit paces outbound calls; uploads issue several requests per file.
	RateLimit = 5.0
)

// Credentials are the OAuth 1.0a user-context keys for the posting account.
type Credentials struct {
	APIKey       string
	SecretKey    string
	AccessToken  string
	AccessSecret string
}

// Client is a rate-limited, OAuth1-signed Twitter API client.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	uploadURL  string
	apiBaseURL string
	chunkSize  int
	sleep      func(ctx context.Context, d time.Duration) error
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithUploadURL sets a custom media upload URL (for testing).
func WithUploadURL(url string) ClientOption {
	return func(c *Client) {
		c.uploadURL = url
	}
}

// WithAPIBaseURL sets a custom v2 base URL (for testing).
func WithAPIBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.apiBaseURL = strings.TrimSuffix(url, "/")
	}
}

// WithChunkSize sets the APPEND segment size.
func WithChunkSize(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// WithRateLimit overrides the request pacing.
func WithRateLimit(limit rate.Limit) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(limit, 1)
	}
}

// NewClient creates a client that signs every request with creds.
func NewClient(creds Credentials, opts ...ClientOption) *Client {
	config := oauth1.NewConfig(creds.APIKey, creds.SecretKey)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessSecret)

	httpClient := config.Client(oauth1.NoContext, token)
	httpClient.Timeout = DefaultTimeout

	c := &Client{
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		uploadURL:  UploadURL,
		apiBaseURL: APIBaseURL,
		chunkSize:  defaultChunkSize,
		sleep:      sleepContext,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError is a non-2xx response from Twitter.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("twitter API error: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("twitter API error: HTTP %d: %s", e.StatusCode, e.Message)
}

// errorResponse covers both the v2 problem shape and the v1.1 errors list.
type errorResponse struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Errors []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

func parseAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err == nil {
		switch {
		case parsed.Detail != "":
			apiErr.Message = parsed.Detail
		case parsed.Title != "":
			apiErr.Message = parsed.Title
		case len(parsed.Errors) > 0:
			msgs := make([]string, 0, len(parsed.Errors))
			for _, e := range parsed.Errors {
				msgs = append(msgs, e.Message)
			}
			apiErr.Message = strings.Join(msgs, "; ")
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}

// do sends req after waiting for the limiter and decodes a JSON body into out
// when out is non-nil.
func (c *Client) do(req *http.Request, out any) error {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseAPIError(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", req.URL.Path, err)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
