// Package simplepush sends push notifications through the SimplePush API.
package simplepush

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.simplepush.io"

// Client delivers push notifications to a SimplePush key.
type Client interface {
	// Send delivers a single notification.
	Send(ctx context.Context, msg Message) error
}

// Message is one notification payload.
type Message struct {
	Key   string // Recipient key. Falls back to the client default when empty.
	Title string
	Body  string
	Event string // Optional event name for per-event device settings.
}

// Option configures the client.
type Option func(*client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpClient = hc
	}
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(base string) Option {
	return func(c *client) {
		c.baseURL = strings.TrimRight(base, "/")
	}
}

// WithRateLimit sets the requests-per-second limit on sends.
func WithRateLimit(rps float64) Option {
	return func(c *client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

type client struct {
	httpClient *http.Client
	baseURL    string
	defaultKey string
	limiter    *rate.Limiter
}

// NewClient creates a SimplePush client. defaultKey is used for messages
// that do not carry their own key.
func NewClient(defaultKey string, opts ...Option) Client {
	c := &client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    defaultBaseURL,
		defaultKey: defaultKey,
		limiter:    rate.NewLimiter(5, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send posts the message as form data to /send. Server-side failures come
// back typed so callers can retry them.
func (c *client) Send(ctx context.Context, msg Message) error {
	key := msg.Key
	if key == "" {
		key = c.defaultKey
	}
	if key == "" {
		return eris.New("simplepush: no recipient key")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "simplepush: rate limit wait")
	}

	form := url.Values{}
	form.Set("key", key)
	form.Set("title", msg.Title)
	form.Set("msg", msg.Body)
	if msg.Event != "" {
		form.Set("event", msg.Event)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/send", strings.NewReader(form.Encode()))
	if err != nil {
		return eris.Wrap(err, "simplepush: build request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return eris.Wrap(err, "simplepush: send")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := eris.Errorf("simplepush: send returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		if transientStatus(resp.StatusCode) {
			return &TransientSendError{Err: err, StatusCode: resp.StatusCode}
		}
		return err
	}

	return nil
}

func transientStatus(code int) bool {
	return code == http.StatusRequestTimeout ||
		code == http.StatusTooManyRequests ||
		code >= 500
}

// TransientSendError marks a send failure that is worth retrying.
type TransientSendError struct {
	Err        error
	StatusCode int
}

func (e *TransientSendError) Error() string { return e.Err.Error() }

func (e *TransientSendError) Unwrap() error { return e.Err }
