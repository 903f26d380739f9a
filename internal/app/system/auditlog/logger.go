// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/fwsm/internal/app/store/audit"
	"github.com/dalemusser/fwsm/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// Destinations for a category of events.
const (
	All = "all" // MongoDB + zap
	DB  = "db"  // MongoDB only
	Log = "log" // zap only
	Off = "off"
)

// Config selects where each category of events goes.
type Config struct {
	// Auth covers sign-in, sign-up, sign-out and password changes.
	Auth string
	// Admin covers organization registration and profile changes.
	Admin string
}

// Logger records audit events to zap and, when a store is configured, to
// MongoDB. A nil *Logger is a no-op.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a Logger. store may be nil when MongoDB is not configured;
// "db" destinations are then skipped.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != 0 {
		fields = append(fields, zap.Int("user_id", event.UserID))
	}
	if event.OrganizationID != 0 {
		fields = append(fields, zap.Int("organization_id", event.OrganizationID))
	}
	if event.Identifier != "" {
		fields = append(fields, zap.String("identifier", event.Identifier))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records event according to the configured destination for its category.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryOrganization:
		setting = l.config.Admin
	default:
		setting = All
	}
	if setting == "" {
		setting = All
	}
	if setting == Off {
		return
	}

	if setting == All || setting == Log {
		l.logToZap(event)
	}
	if (setting == All || setting == DB) && l.store != nil {
		// The request may be finishing; the record should still land.
		if err := l.store.Log(context.WithoutCancel(ctx), event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func authEvent(r *http.Request, eventType string, success bool) audit.Event {
	return audit.Event{
		Category:  audit.CategoryAuth,
		EventType: eventType,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   success,
	}
}

func orgEvent(r *http.Request, eventType string, userID, orgID int) audit.Event {
	return audit.Event{
		Category:       audit.CategoryOrganization,
		EventType:      eventType,
		UserID:         userID,
		OrganizationID: orgID,
		IP:             ratelimit.ClientIP(r),
		UserAgent:      r.UserAgent(),
		Success:        true,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Authentication events                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (l *Logger) SignInSuccess(ctx context.Context, r *http.Request, userID int, identifier string) {
	e := authEvent(r, audit.EventSignInSuccess, true)
	e.UserID = userID
	e.Identifier = identifier
	l.Log(ctx, e)
}

// SignInFailed records a rejected attempt; reason is the error kind.
func (l *Logger) SignInFailed(ctx context.Context, r *http.Request, identifier, reason string) {
	e := authEvent(r, audit.EventSignInFailed, false)
	e.Identifier = identifier
	e.FailureReason = reason
	l.Log(ctx, e)
}

func (l *Logger) SignInRateLimited(ctx context.Context, r *http.Request, identifier string) {
	e := authEvent(r, audit.EventSignInRateLimited, false)
	e.Identifier = identifier
	e.FailureReason = "rate limited"
	l.Log(ctx, e)
}

func (l *Logger) SignUp(ctx context.Context, r *http.Request, userID int, email string) {
	e := authEvent(r, audit.EventSignUp, true)
	e.UserID = userID
	e.Identifier = email
	l.Log(ctx, e)
}

func (l *Logger) SignUpFailed(ctx context.Context, r *http.Request, email, reason string) {
	e := authEvent(r, audit.EventSignUpFailed, false)
	e.Identifier = email
	e.FailureReason = reason
	l.Log(ctx, e)
}

// SignOut records a sign-out; userID is 0 when the token had no id claim.
func (l *Logger) SignOut(ctx context.Context, r *http.Request, userID int) {
	e := authEvent(r, audit.EventSignOut, true)
	e.UserID = userID
	l.Log(ctx, e)
}

func (l *Logger) PasswordChanged(ctx context.Context, r *http.Request, userID int) {
	e := authEvent(r, audit.EventPasswordChanged, true)
	e.UserID = userID
	l.Log(ctx, e)
}

func (l *Logger) PasswordChangeFailed(ctx context.Context, r *http.Request, userID int, reason string) {
	e := authEvent(r, audit.EventPasswordChangeFailed, false)
	e.UserID = userID
	e.FailureReason = reason
	l.Log(ctx, e)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Organization events                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

func (l *Logger) OrgCreated(ctx context.Context, r *http.Request, userID, orgID int, name string) {
	e := orgEvent(r, audit.EventOrgCreated, userID, orgID)
	e.Details = map[string]string{"name": name}
	l.Log(ctx, e)
}

// OrgUpdated records a profile change; fields lists the form sections saved.
func (l *Logger) OrgUpdated(ctx context.Context, r *http.Request, userID, orgID int, fields string) {
	e := orgEvent(r, audit.EventOrgUpdated, userID, orgID)
	e.Details = map[string]string{"fields_changed": fields}
	l.Log(ctx, e)
}

func (l *Logger) OrgLogoUpdated(ctx context.Context, r *http.Request, userID, orgID, imageID int) {
	e := orgEvent(r, audit.EventOrgLogoUpdated, userID, orgID)
	e.Details = map[string]string{"image_id": strconv.Itoa(imageID)}
	l.Log(ctx, e)
}

func (l *Logger) OrgImagesUpdated(ctx context.Context, r *http.Request, userID, orgID, count int) {
	e := orgEvent(r, audit.EventOrgImagesUpdated, userID, orgID)
	e.Details = map[string]string{"image_count": strconv.Itoa(count)}
	l.Log(ctx, e)
}
