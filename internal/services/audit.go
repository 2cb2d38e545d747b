package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docverify/internal/apperror"
	"docverify/internal/auth"
	"docverify/internal/models"
	"docverify/internal/store"
)

// auditPageSize caps how many entries a single listing returns.
const auditPageSize = 50

// AuditTrail appends action records and reads them back with per-role
// visibility: admins see everything, users only their own entries.
type AuditTrail struct {
	logs store.Collection[models.AuditLogEntry]
	gate *auth.Gate
	lg   *zap.SugaredLogger
	now  func() time.Time
}

func NewAuditTrail(logs store.Collection[models.AuditLogEntry], gate *auth.Gate, lg *zap.SugaredLogger) *AuditTrail {
	return &AuditTrail{logs: logs, gate: gate, lg: lg, now: utcNow}
}

// Append stores entry, stamping id, timestamp and, when actor is set, the
// acting user. The entry is written whatever the outcome it describes.
func (t *AuditTrail) Append(ctx context.Context, entry models.AuditLogEntry, actor *models.Identity) (*models.AuditLogEntry, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = t.now()
	}
	if actor != nil {
		entry.User = &models.Actor{Email: actor.Email, Name: actor.Name, Role: actor.Role}
	}
	if err := t.logs.Insert(ctx, &entry); err != nil {
		return nil, apperror.Upstream("append audit entry", err)
	}
	return &entry, nil
}

// List returns the newest entries visible to the caller, newest first.
func (t *AuditTrail) List(ctx context.Context) ([]models.AuditLogEntry, error) {
	actor, err := t.gate.RequireAuthenticated(ctx)
	if err != nil {
		return nil, err
	}
	q := store.Query{
		Sort:  []store.Sort{{Field: "timestamp", Desc: true}},
		Limit: auditPageSize,
	}
	if !actor.IsAdmin() {
		q.Filter = store.Filter{"user.email": actor.Email}
	}
	entries, err := t.logs.Find(ctx, q)
	if err != nil {
		return nil, apperror.Upstream("list audit entries", err)
	}
	return entries, nil
}
