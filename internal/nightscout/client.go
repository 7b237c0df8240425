package nightscout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sony/gobreaker"

	"github.com/jwulff/nightscout-go/internal/bloodsugar"
)

// Nightscout API paths.
const (
	EntriesPath = "/api/v1/entries.json"
	StatusPath  = "/api/v1/status.json"

	// DefaultCount is the number of entries requested per fetch.
	DefaultCount = 10
)

var urlPattern = regexp.MustCompile(`^(?i)(http|https)(://)([^ .]+)(\.)([^ \n]+)$`)

// ValidateURL checks a user-supplied site URL and returns it without a
// trailing slash.
func ValidateURL(raw string) (*url.URL, error) {
	s := strings.TrimRight(strings.TrimSpace(raw), "/")
	if !urlPattern.MatchString(s) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	return u, nil
}

// BackoffConfig controls retries of failed requests.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultBackoff retries twice, starting at half a second.
var DefaultBackoff = BackoffConfig{
	MaxRetries:      2,
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     5 * time.Second,
}

// Client is an HTTP client for a Nightscout site.
type Client struct {
	BaseURL    *url.URL
	HTTPClient *http.Client
	Backoff    BackoffConfig
	breaker    *gobreaker.CircuitBreaker
}

// NewClient creates a client for a validated base URL.
func NewClient(baseURL *url.URL) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		Backoff: DefaultBackoff,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "nightscout " + baseURL.Host,
			MaxRequests: 1,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		}),
	}
}

// FetchEntries fetches the raw newest-first entries payload.
func (c *Client) FetchEntries(ctx context.Context, count int) ([]byte, error) {
	if count <= 0 {
		count = DefaultCount
	}
	q := url.Values{"count": {strconv.Itoa(count)}}
	return c.get(ctx, "fetch entries", EntriesPath, q)
}

type statusPayload struct {
	Settings *struct {
		Units string `json:"units" validate:"required"`
	} `json:"settings" validate:"required"`
}

var validate = validator.New()

// FetchUnit fetches the display unit the site is configured with.
func (c *Client) FetchUnit(ctx context.Context) (bloodsugar.Unit, error) {
	body, err := c.get(ctx, "fetch status", StatusPath, nil)
	if err != nil {
		return bloodsugar.MgdL, err
	}
	return DecodeUnit(body)
}

// DecodeUnit extracts settings.units from a status.json payload. Only the
// two feed tokens are accepted.
func DecodeUnit(data []byte) (bloodsugar.Unit, error) {
	var status statusPayload
	if err := json.Unmarshal(data, &status); err != nil {
		return bloodsugar.MgdL, fmt.Errorf("%w: failed to decode status: %v", ErrInvalidData, err)
	}
	if err := validate.Struct(status); err != nil {
		return bloodsugar.MgdL, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	switch status.Settings.Units {
	case bloodsugar.TokenMgdL:
		return bloodsugar.MgdL, nil
	case bloodsugar.TokenMmolL:
		return bloodsugar.MmolL, nil
	}
	return bloodsugar.MgdL, fmt.Errorf("%w: unknown unit %q", ErrInvalidData, status.Settings.Units)
}

type response struct {
	status int
	body   []byte
}

// get issues a GET with retries and the circuit breaker. Transport errors
// and 5xx count against the breaker; 5xx and 429 are retried.
func (c *Client) get(ctx context.Context, op, path string, query url.Values) ([]byte, error) {
	if c.BaseURL == nil {
		return nil, ErrInvalidURL
	}
	u := c.BaseURL.JoinPath(path)
	u.RawQuery = query.Encode()
	target := u.String()

	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, &TransportError{Op: op, Err: err}
		}

		resp, err := c.do(ctx, op, target)
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return nil, &TransportError{Op: op, Err: err}
		case err != nil:
			lastErr = err
		case resp.status == http.StatusOK:
			return resp.body, nil
		case resp.status == http.StatusNotFound:
			return nil, ErrNotFound
		case resp.status == http.StatusTooManyRequests:
			lastErr = &UnknownResponseError{StatusCode: resp.status}
		default:
			return nil, &UnknownResponseError{StatusCode: resp.status}
		}

		if attempt >= c.Backoff.MaxRetries {
			return nil, lastErr
		}
		if err := c.sleep(ctx, attempt); err != nil {
			return nil, &TransportError{Op: op, Err: err}
		}
	}
}

func (c *Client) do(ctx context.Context, op, target string) (*response, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, &TransportError{Op: op, Err: err}
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return nil, &TransportError{Op: op, Err: err}
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &TransportError{Op: op, Err: err}
		}
		if resp.StatusCode >= 500 {
			return nil, &UnknownResponseError{StatusCode: resp.StatusCode}
		}
		return &response{status: resp.StatusCode, body: body}, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*response), nil
}

func (c *Client) sleep(ctx context.Context, attempt int) error {
	delay := c.Backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
	if c.Backoff.MaxInterval > 0 && delay > c.Backoff.MaxInterval {
		delay = c.Backoff.MaxInterval
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
