package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"docverify/internal/apperror"
	"docverify/internal/auth"
	"docverify/internal/fingerprint"
	"docverify/internal/models"
)

const (
	// maxHashLen bounds what is looked up and audited. Real digests are
	// fingerprint.Size long; anything up to this is recorded as unmatched.
	maxHashLen = 256
	maxNameLen = 255
)

type VerifyInput struct {
	Hash         string `json:"hash"`
	DocumentName string `json:"documentName,omitempty"`
}

type MatchedDocument struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	UploadedAt time.Time        `json:"uploadedAt"`
	UploadedBy *models.Uploader `json:"uploadedBy,omitempty"`
}

type Outcome struct {
	Verified bool             `json:"verified"`
	Status   models.Status    `json:"status"`
	Message  string           `json:"message"`
	Document *MatchedDocument `json:"document,omitempty"`
}

// Verifier matches a presented fingerprint against the registry and records
// one audit entry per call, matched or not.
type Verifier struct {
	registry *Registry
	audit    *AuditTrail
	gate     *auth.Gate
	lg       *zap.SugaredLogger
}

func NewVerifier(registry *Registry, audit *AuditTrail, gate *auth.Gate, lg *zap.SugaredLogger) *Verifier {
	return &Verifier{registry: registry, audit: audit, gate: gate, lg: lg}
}

func (v *Verifier) Verify(ctx context.Context, in VerifyInput) (*Outcome, error) {
	actor, err := v.gate.RequireAuthenticated(ctx)
	if err != nil {
		return nil, err
	}
	digest := fingerprint.Normalize(in.Hash)
	if digest == "" {
		return nil, apperror.InvalidInput("hash is required")
	}
	if len(digest) > maxHashLen {
		return nil, apperror.InvalidInput("hash is too long")
	}

	rec, found, err := v.registry.FindByFingerprint(ctx, digest)
	if err != nil {
		return nil, err
	}

	var (
		out   Outcome
		entry = models.AuditLogEntry{Hash: digest, DocumentName: truncate(strings.TrimSpace(in.DocumentName), maxNameLen)}
	)
	if found {
		out = Outcome{
			Verified: true,
			Status:   models.StatusSuccess,
			Message:  "Document verified successfully! Hash matches the original.",
			Document: &MatchedDocument{ID: rec.ID, Name: rec.Name, UploadedAt: rec.UploadedAt, UploadedBy: rec.UploadedBy},
		}
		entry.Action = models.ActionVerifySuccess
		entry.Status = models.StatusSuccess
		entry.Message = "Document integrity verified - matches " + rec.Name
		if entry.DocumentName == "" {
			entry.DocumentName = rec.Name
		}
	} else {
		out = Outcome{
			Verified: false,
			Status:   models.StatusError,
			Message:  "Verification failed! This document is not in our records or has been modified.",
		}
		entry.Action = models.ActionVerifyFail
		entry.Status = models.StatusError
		entry.Message = "Document verification failed - hash not found in records"
		if entry.DocumentName == "" {
			entry.DocumentName = digest
		}
	}

	if _, err := v.audit.Append(ctx, entry, &actor); err != nil {
		v.lg.Warnw("verification audit entry not written", "hash", digest, "action", entry.Action, "error", err)
	}
	v.lg.Infow("document verified", "hash", digest, "matched", found, "actor", actor.Email)
	return &out, nil
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
