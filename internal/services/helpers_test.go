package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"docverify/internal/auth"
	"docverify/internal/models"
	"docverify/internal/store"
)

var (
	adminA = models.Identity{Email: "admin@x.com", Name: "A", Role: models.RoleAdmin}
	userU  = models.Identity{Email: "user@x.com", Name: "U", Role: models.RoleUser}
)

type fixture struct {
	st     *store.Store
	tokens *auth.TokenService
	svc    *Services
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.NewMemory()
	tokens := auth.NewTokenService("test-secret", time.Hour)
	return &fixture{st: st, tokens: tokens, svc: New(st, tokens, zap.NewNop().Sugar())}
}

func (f *fixture) as(t *testing.T, id models.Identity) context.Context {
	t.Helper()
	tok, err := f.tokens.Issue(id)
	require.NoError(t, err)
	return auth.WithToken(context.Background(), tok)
}

func (f *fixture) auditCount(t *testing.T) int {
	t.Helper()
	all, err := f.st.AuditLogs.Find(context.Background(), store.Query{})
	require.NoError(t, err)
	return len(all)
}

var errStoreDown = errors.New("store down")

// brokenCollection fails every call.
type brokenCollection[T any] struct{}

func (brokenCollection[T]) Insert(context.Context, *T) error { return errStoreDown }
func (brokenCollection[T]) Find(context.Context, store.Query) ([]T, error) {
	return nil, errStoreDown
}
func (brokenCollection[T]) FindOne(context.Context, store.Filter) (*T, error) {
	return nil, errStoreDown
}
func (brokenCollection[T]) DeleteOne(context.Context, store.Filter) (int64, error) {
	return 0, errStoreDown
}
