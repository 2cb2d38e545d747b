// Package services holds the account, document registry, audit trail and
// verification logic. Each operation that needs an actor resolves it through
// the auth.Gate carried in the service, never from its arguments.
package services

import (
	"time"

	"go.uber.org/zap"

	"docverify/internal/auth"
	"docverify/internal/store"
)

type Services struct {
	Gate      *auth.Gate
	Accounts  *Accounts
	Documents *Registry
	Audit     *AuditTrail
	Verifier  *Verifier
}

func New(st *store.Store, tokens *auth.TokenService, lg *zap.SugaredLogger) *Services {
	gate := auth.NewGate(tokens, lg)
	audit := NewAuditTrail(st.AuditLogs, gate, lg)
	docs := NewRegistry(st.Documents, gate, audit, lg)
	return &Services{
		Gate:      gate,
		Accounts:  NewAccounts(st.Users, tokens, lg),
		Documents: docs,
		Audit:     audit,
		Verifier:  NewVerifier(docs, audit, gate, lg),
	}
}

func utcNow() time.Time { return time.Now().UTC() }
