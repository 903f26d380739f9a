// Package apiclient is the transport to the headless backend API: it builds
// requests from structured input, attaches the session's bearer token, issues
// exactly one HTTP call per operation and runs the response through a decoder.
//
// Failures come back as one of ErrUnauthenticated, *NetworkError, *DomainError
// or *DecodeError; Classify tags them for call sites. The client never retries
// and never touches the query cache.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/fwsm/internal/domain/decode"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 8 << 20

// TokenSource yields the session's bearer token. Absence is a normal state.
type TokenSource interface {
	Token() (string, bool)
}

// StaticToken is a TokenSource holding a fixed token; "" means none.
type StaticToken string

func (t StaticToken) Token() (string, bool) { return string(t), t != "" }

// Option configures a Client.
type Option func(c *Client) error

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return errors.New("apiclient: nil http client")
		}
		c.hc = hc
		return nil
	}
}

// WithLogger sets the logger used for per-request logging.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) error {
		c.logger = logger.Named("api")
		return nil
	}
}

// WithUserAgent sets the User-Agent header of outbound requests.
func WithUserAgent(ua string) Option {
	return func(c *Client) error {
		c.userAgent = ua
		return nil
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		c.hc.Timeout = d
		return nil
	}
}

// Client talks to one backend base URL (for example http://localhost:1337/api).
type Client struct {
	hc        *http.Client
	logger    *zap.Logger
	base      url.URL
	userAgent string
}

// Open validates baseURL and returns a Client.
func Open(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("apiclient: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("apiclient: base url must be http(s), got %q", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("apiclient: base url has no host: %q", baseURL)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""

	c := &Client{
		hc:        &http.Client{Timeout: 15 * time.Second},
		logger:    zap.NewNop(),
		base:      *u,
		userAgent: "fwsm-portal",
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.base.String()
}

/*─────────────────────────────────────────────────────────────────────────────*
| Requests                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// Request describes one backend call.
type Request struct {
	Method string
	Path   string // already escaped, see PathOf
	Query  Query
	Body   any // JSON-encoded, unless it implements Payload

	// Auth supplies the bearer token. With RequireAuth the call is refused
	// (ErrUnauthenticated) when Auth has no token; without it the token is
	// attached only when present.
	Auth        TokenSource
	RequireAuth bool

	// StatusKinds overrides the DomainError kind for specific statuses, e.g.
	// 400 → KindInvalidCredentials on sign-in.
	StatusKinds map[int]Kind
}

// Payload is a request body that is not JSON.
type Payload interface {
	ContentType() string
	Reader() (io.Reader, error)
}

// ValidateID rejects ids that cannot name a backend entry.
func ValidateID(id int) error {
	if id <= 0 {
		return fmt.Errorf("apiclient: invalid id %d", id)
	}
	return nil
}

// PathOf joins segments into an escaped path. Integer segments must be valid
// ids.
func PathOf(segments ...any) (string, error) {
	var b strings.Builder
	for _, s := range segments {
		b.WriteByte('/')
		switch v := s.(type) {
		case int:
			if err := ValidateID(v); err != nil {
				return "", err
			}
			b.WriteString(strconv.Itoa(v))
		case string:
			if v == "" {
				return "", errors.New("apiclient: empty path segment")
			}
			b.WriteString(url.PathEscape(v))
		default:
			return "", fmt.Errorf("apiclient: unsupported path segment %T", s)
		}
	}
	return b.String(), nil
}

// Do issues req and decodes a 2xx body with d.
func Do[T any](ctx context.Context, c *Client, req Request, d decode.Decoder[T]) (T, error) {
	var zero T
	body, target, err := c.send(ctx, req)
	if err != nil {
		return zero, err
	}
	out, err := decode.Parse(body, d)
	if err != nil {
		var ve *decode.ValidationError
		if errors.As(err, &ve) {
			c.logger.Warn("response failed validation",
				zap.String("url", target),
				zap.String("path", ve.Path),
				zap.String("expected", ve.Expected),
				zap.String("got", ve.Got))
			return zero, &DecodeError{URL: target, Err: ve}
		}
		return zero, err
	}
	return out, nil
}

// Ping checks that the backend answers at all. Any HTTP response counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.base.String(), nil)
	if err != nil {
		return err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return &NetworkError{Op: http.MethodHead, URL: req.URL.String(), Err: err}
	}
	_ = resp.Body.Close()
	return nil
}

// send performs the single network call for req and returns the 2xx body.
func (c *Client) send(ctx context.Context, req Request) ([]byte, string, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var token string
	if req.Auth != nil {
		token, _ = req.Auth.Token()
	}
	if req.RequireAuth && token == "" {
		return nil, "", ErrUnauthenticated
	}

	target := c.formatURL(req.Path, req.Query)

	bodyReader, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, target, fmt.Errorf("apiclient: encode %s %s: %w", method, req.Path, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, target, fmt.Errorf("apiclient: build %s %s: %w", method, req.Path, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	httpReq.Header.Set("X-Request-ID", requestID(ctx))

	hc := c.hc
	if token != "" {
		hc = c.withBearer(token)
	}

	start := time.Now()
	resp, err := hc.Do(httpReq)
	if err != nil {
		c.logger.Warn("request failed",
			zap.String("method", method),
			zap.String("url", target),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, target, &NetworkError{Op: method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, target, &NetworkError{Op: method, URL: target, Err: fmt.Errorf("read body: %w", err)}
	}

	fields := []zap.Field{
		zap.String("method", method),
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
		zap.Bool("auth", token != ""),
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		de := newDomainError(resp.StatusCode, req.StatusKinds[resp.StatusCode], body)
		c.logger.Info("backend rejected request", append(fields, zap.String("kind", string(de.Kind)))...)
		return nil, target, de
	}
	c.logger.Debug("backend request", fields...)
	return body, target, nil
}

// withBearer returns a client whose transport attaches token as a bearer
// Authorization header.
func (c *Client) withBearer(token string) *http.Client {
	base := c.hc.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	return &http.Client{
		Timeout:       c.hc.Timeout,
		CheckRedirect: c.hc.CheckRedirect,
		Jar:           c.hc.Jar,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   base,
		},
	}
}

func (c *Client) formatURL(path string, q Query) string {
	u := c.base
	u.Path = c.base.Path + path
	u.RawPath = ""
	if !q.IsZero() {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case Payload:
		r, err := b.Reader()
		if err != nil {
			return nil, "", err
		}
		return r, b.ContentType(), nil
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(raw), "application/json", nil
	}
}

// requestID propagates the inbound request id when there is one.
func requestID(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}
