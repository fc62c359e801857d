// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/linguashift/internal/app/store/audit"
	"github.com/dalemusser/linguashift/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destination modes for a category.
const (
	ModeAll = "all" // MongoDB and zap
	ModeDB  = "db"
	ModeLog = "log"
	ModeOff = "off"
)

// Config selects a destination mode per event category.
type Config struct {
	Auth    string // registration, login, logout
	Content string // glossary edits, channel creation, message edits and deletes
}

// Logger records audit events to the audit store and/or zap.
// A nil *Logger is a no-op.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func (l *Logger) mode(category string) string {
	var m string
	switch category {
	case audit.CategoryAuth:
		m = l.config.Auth
	case audit.CategoryContent:
		m = l.config.Content
	}
	if m == "" {
		return ModeAll
	}
	return m
}

// Log routes event according to its category's mode.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}
	m := l.mode(event.Category)
	if m == ModeOff {
		return
	}
	if m == ModeAll || m == ModeLog {
		l.logToZap(event)
	}
	if (m == ModeAll || m == ModeDB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.OrganizationID != nil {
		fields = append(fields, zap.String("organization_id", event.OrganizationID.Hex()))
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

func authEvent(r *http.Request, eventType string) audit.Event {
	return audit.Event{
		Category:  audit.CategoryAuth,
		EventType: eventType,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}

// --- Authentication ---

func (l *Logger) Registered(ctx context.Context, r *http.Request, userID, orgID primitive.ObjectID) {
	e := authEvent(r, audit.EventRegistered)
	e.UserID, e.OrganizationID, e.Success = &userID, &orgID, true
	l.Log(ctx, e)
}

func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID, orgID primitive.ObjectID, email string) {
	e := authEvent(r, audit.EventLoginSuccess)
	e.UserID, e.OrganizationID, e.Success = &userID, &orgID, true
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, email string) {
	e := authEvent(r, audit.EventLoginFailedUserNotFound)
	e.FailureReason = "user not found"
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID, orgID primitive.ObjectID, email string) {
	e := authEvent(r, audit.EventLoginFailedWrongPassword)
	e.UserID, e.OrganizationID = &userID, &orgID
	e.FailureReason = "wrong password"
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request, email string) {
	e := authEvent(r, audit.EventLoginFailedRateLimit)
	e.FailureReason = "rate limited"
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// Logout accepts a hex id since it comes straight from the session.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userIDHex string) {
	e := authEvent(r, audit.EventLogout)
	e.Success = true
	if oid, err := primitive.ObjectIDFromHex(userIDHex); err == nil {
		e.UserID = &oid
	}
	l.Log(ctx, e)
}

// --- Content ---

// GlossaryChanged records an add, update or remove of term.
func (l *Logger) GlossaryChanged(ctx context.Context, r *http.Request, eventType string, actorID, orgID primitive.ObjectID, term string) {
	l.Log(ctx, audit.Event{
		Category:       audit.CategoryContent,
		EventType:      eventType,
		ActorID:        &actorID,
		OrganizationID: &orgID,
		IP:             ratelimit.ClientIP(r),
		Success:        true,
		Details:        map[string]string{"term": term},
	})
}

func (l *Logger) ChannelCreated(ctx context.Context, r *http.Request, actorID, channelID primitive.ObjectID, channelType string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryContent,
		EventType: audit.EventChannelCreated,
		ActorID:   &actorID,
		IP:        ratelimit.ClientIP(r),
		Success:   true,
		Details: map[string]string{
			"channel_id": channelID.Hex(),
			"type":       channelType,
		},
	})
}

// MessageChanged records an edit or soft delete by the message's sender.
func (l *Logger) MessageChanged(ctx context.Context, r *http.Request, eventType string, actorID, channelID, messageID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryContent,
		EventType: eventType,
		ActorID:   &actorID,
		IP:        ratelimit.ClientIP(r),
		Success:   true,
		Details: map[string]string{
			"channel_id": channelID.Hex(),
			"message_id": messageID.Hex(),
		},
	})
}
