// Package session holds the signed-in user's bearer token in a signed and
// encrypted cookie, plus one-shot flash notices.
//
// The token store is request scoped: Manager.For returns the Session bound to
// the current request, so a read after a write in the same request sees the
// new value even though the browser has not echoed the cookie back yet.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	// DefaultCookieName is the token cookie name.
	DefaultCookieName = "fwsm-jwt"
	// DefaultMaxAge is the token cookie lifetime (23 hours).
	DefaultMaxAge = 82800 * time.Second

	flashKey = "_flash"
)

// Config configures a Manager.
type Config struct {
	CookieName string
	MaxAge     time.Duration
	HashKey    []byte // ≥ 32 bytes
	BlockKey   []byte // 16, 24 or 32 bytes; empty disables encryption
	Domain     string
	Secure     bool

	// FlashKey signs the flash cookie; FlashName names it.
	FlashKey  []byte
	FlashName string
}

// Manager issues request-scoped Sessions.
type Manager struct {
	cfg    Config
	codec  *securecookie.SecureCookie
	flash  *sessions.CookieStore
	logger *zap.Logger
}

// NewManager validates cfg and builds the cookie codecs.
func NewManager(cfg Config, logger *zap.Logger) (*Manager, error) {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultMaxAge
	}
	if cfg.FlashName == "" {
		cfg.FlashName = "fwsm-flash"
	}
	if len(cfg.HashKey) < 32 {
		return nil, fmt.Errorf("session: hash key must be at least 32 bytes, got %d", len(cfg.HashKey))
	}
	switch len(cfg.BlockKey) {
	case 0, 16, 24, 32:
	default:
		return nil, fmt.Errorf("session: block key must be 16, 24 or 32 bytes, got %d", len(cfg.BlockKey))
	}
	if len(cfg.FlashKey) == 0 {
		cfg.FlashKey = cfg.HashKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var block []byte
	if len(cfg.BlockKey) > 0 {
		block = cfg.BlockKey
	}
	codec := securecookie.New(cfg.HashKey, block)
	codec.MaxAge(int(cfg.MaxAge / time.Second))

	flash := sessions.NewCookieStore(cfg.FlashKey)
	flash.Options = &sessions.Options{
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   300,
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	return &Manager{cfg: cfg, codec: codec, flash: flash, logger: logger}, nil
}

// CookieName returns the token cookie name.
func (m *Manager) CookieName() string { return m.cfg.CookieName }

type ctxKey struct{}

// Middleware binds one Session to each request so handlers and other
// middleware share it.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := m.newSession(w, r)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, s)))
	})
}

// For returns the Session bound to r by Middleware, or a fresh one writing to w.
func (m *Manager) For(w http.ResponseWriter, r *http.Request) *Session {
	if s, ok := r.Context().Value(ctxKey{}).(*Session); ok {
		return s
	}
	return m.newSession(w, r)
}

// FromRequest returns the Session bound to r by Middleware.
func FromRequest(r *http.Request) (*Session, bool) {
	s, ok := r.Context().Value(ctxKey{}).(*Session)
	return s, ok
}

func (m *Manager) newSession(w http.ResponseWriter, r *http.Request) *Session {
	return &Session{m: m, w: w, r: r}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Session                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// Session is the token store of one request. It is not safe for concurrent use.
type Session struct {
	m *Manager
	w http.ResponseWriter
	r *http.Request

	loaded bool
	token  string
}

// Token returns the stored token. Undecodable or expired cookies read as absent.
func (s *Session) Token() (string, bool) {
	if !s.loaded {
		s.token = s.read()
		s.loaded = true
	}
	return s.token, s.token != ""
}

func (s *Session) read() string {
	c, err := s.r.Cookie(s.m.cfg.CookieName)
	if err != nil || c.Value == "" {
		return ""
	}
	var token string
	if err := s.m.codec.Decode(s.m.cfg.CookieName, c.Value, &token); err != nil {
		s.m.logger.Debug("discarding unreadable token cookie", zap.Error(err))
		return ""
	}
	if exp, ok := expiry(token); ok && !exp.After(time.Now()) {
		return ""
	}
	return token
}

// SetToken stores token for maxAge (DefaultMaxAge when zero). The cookie never
// outlives the token's own exp claim.
func (s *Session) SetToken(token string, maxAge time.Duration) error {
	if token == "" {
		return errors.New("session: empty token")
	}
	if maxAge <= 0 {
		maxAge = s.m.cfg.MaxAge
	}
	if exp, ok := expiry(token); ok {
		if left := time.Until(exp); left < maxAge {
			maxAge = left
		}
	}
	if maxAge < time.Second {
		return errors.New("session: token already expired")
	}

	value, err := s.m.codec.Encode(s.m.cfg.CookieName, token)
	if err != nil {
		return fmt.Errorf("session: encode token cookie: %w", err)
	}
	http.SetCookie(s.w, s.cookie(value, int(maxAge/time.Second)))
	s.token = token
	s.loaded = true
	return nil
}

// ClearToken removes the token. Clearing an empty store is a no-op apart from
// the expiring cookie header.
func (s *Session) ClearToken() {
	http.SetCookie(s.w, s.cookie("", -1))
	s.token = ""
	s.loaded = true
}

// Fingerprint is a stable, non-reversible id for the current token, or "" when
// there is none. Cache keys of authenticated queries carry it.
func (s *Session) Fingerprint() string {
	tok, ok := s.Token()
	if !ok {
		return ""
	}
	sum := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(sum[:12])
}

func (s *Session) cookie(value string, maxAge int) *http.Cookie {
	c := &http.Cookie{
		Name:     s.m.cfg.CookieName,
		Value:    value,
		Path:     "/",
		Domain:   s.m.cfg.Domain,
		MaxAge:   maxAge,
		Secure:   s.m.cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge > 0 {
		c.Expires = time.Now().Add(time.Duration(maxAge) * time.Second)
	}
	return c
}

/*─────────────────────────────────────────────────────────────────────────────*
| Flash notices                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// AddFlash queues a notice for the next page view.
func (s *Session) AddFlash(msg string) {
	sess, err := s.m.flash.Get(s.r, s.m.cfg.FlashName)
	if err != nil {
		s.m.logger.Debug("flash cookie unreadable, starting fresh", zap.Error(err))
	}
	sess.AddFlash(msg, flashKey)
	if err := sess.Save(s.r, s.w); err != nil {
		s.m.logger.Warn("save flash failed", zap.Error(err))
	}
}

// Flashes returns and consumes the queued notices.
func (s *Session) Flashes() []string {
	sess, err := s.m.flash.Get(s.r, s.m.cfg.FlashName)
	if err != nil || sess.IsNew {
		return nil
	}
	raw := sess.Flashes(flashKey)
	if len(raw) == 0 {
		return nil
	}
	if err := sess.Save(s.r, s.w); err != nil {
		s.m.logger.Warn("clear flash failed", zap.Error(err))
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if msg, ok := v.(string); ok {
			out = append(out, msg)
		}
	}
	return out
}

/*─────────────────────────────────────────────────────────────────────────────*
| Token claims                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// expiry reads the exp claim without verifying the signature; the backend is
// the only party that can verify. ok is false for opaque tokens.
func expiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// UserID reads the backend user id claim ("id") from token without
// verification. Used only to label audit events.
func UserID(token string) (int, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return 0, false
	}
	switch v := claims["id"].(type) {
	case float64:
		return int(v), v > 0
	default:
		return 0, false
	}
}
