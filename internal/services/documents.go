package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docverify/internal/apperror"
	"docverify/internal/auth"
	"docverify/internal/fingerprint"
	"docverify/internal/models"
	"docverify/internal/store"
)

// Registry stores document fingerprints and metadata. The submitted hash is
// trusted as computed by the client and never recomputed here.
type Registry struct {
	docs  store.Collection[models.DocumentRecord]
	gate  *auth.Gate
	audit *AuditTrail
	lg    *zap.SugaredLogger
	now   func() time.Time
}

func NewRegistry(docs store.Collection[models.DocumentRecord], gate *auth.Gate, audit *AuditTrail, lg *zap.SugaredLogger) *Registry {
	return &Registry{docs: docs, gate: gate, audit: audit, lg: lg, now: utcNow}
}

type UploadInput struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
	Hash string `json:"hash"`
}

func (in UploadInput) validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return apperror.InvalidInput("name is required")
	case utf8.RuneCountInString(strings.TrimSpace(in.Name)) > maxNameLen:
		return apperror.InvalidInput("name is too long")
	case in.Size < 0:
		return apperror.InvalidInput("size must not be negative")
	case !fingerprint.Valid(in.Hash):
		return apperror.InvalidInput("hash must be a 64 character hex SHA-256 digest")
	}
	return nil
}

// Create records an uploaded document for an admin and writes the matching
// upload audit entry. A failed audit write is logged, not returned.
func (r *Registry) Create(ctx context.Context, in UploadInput) (*models.DocumentRecord, error) {
	actor, err := r.gate.RequireRole(ctx, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	rec := models.DocumentRecord{
		ID:         strings.TrimSpace(in.ID),
		Name:       strings.TrimSpace(in.Name),
		Size:       in.Size,
		Type:       in.Type,
		Hash:       fingerprint.Normalize(in.Hash),
		UploadedAt: r.now(),
		UploadedBy: &models.Uploader{Email: actor.Email, Name: actor.Name},
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if err := r.docs.Insert(ctx, &rec); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperror.Conflict("document id already exists")
		}
		return nil, apperror.Upstream("insert document", err)
	}
	r.lg.Infow("document uploaded", "id", rec.ID, "hash", rec.Hash, "actor", actor.Email)

	_, err = r.audit.Append(ctx, models.AuditLogEntry{
		Action:       models.ActionUpload,
		DocumentName: rec.Name,
		Hash:         rec.Hash,
		Status:       models.StatusSuccess,
		Message:      "Document uploaded successfully by admin",
	}, &actor)
	if err != nil {
		r.lg.Warnw("upload audit entry not written", "id", rec.ID, "error", err)
	}
	return &rec, nil
}

// List returns every document, newest upload first, to any signed-in actor.
func (r *Registry) List(ctx context.Context) ([]models.DocumentRecord, error) {
	if _, err := r.gate.RequireAuthenticated(ctx); err != nil {
		return nil, err
	}
	docs, err := r.docs.Find(ctx, store.Query{Sort: []store.Sort{{Field: "uploadedAt", Desc: true}}})
	if err != nil {
		return nil, apperror.Upstream("list documents", err)
	}
	return docs, nil
}

// FindByFingerprint does an exact match on the normalized digest.
func (r *Registry) FindByFingerprint(ctx context.Context, digest string) (*models.DocumentRecord, bool, error) {
	rec, err := r.docs.FindOne(ctx, store.Filter{"hash": fingerprint.Normalize(digest)})
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperror.Upstream("find document", err)
	}
	return rec, true, nil
}

// Delete removes the record permanently. Audit entries that mention it stay.
func (r *Registry) Delete(ctx context.Context, id string) error {
	actor, err := r.gate.RequireRole(ctx, models.RoleAdmin)
	if err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.InvalidInput("document id is required")
	}
	n, err := r.docs.DeleteOne(ctx, store.Filter{"id": id})
	if err != nil {
		return apperror.Upstream("delete document", err)
	}
	if n == 0 {
		return apperror.NotFound("document not found")
	}
	r.lg.Infow("document deleted", "id", id, "actor", actor.Email)
	return nil
}
