package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"docverify/internal/config"
	"docverify/internal/models"
)

func TestMemory_InsertAndFindOne(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	doc := models.DocumentRecord{ID: "d1", Name: "a.pdf", Hash: "h1", UploadedAt: time.Now()}
	require.NoError(t, s.Documents.Insert(ctx, &doc))

	got, err := s.Documents.FindOne(ctx, Filter{"hash": "h1"})
	require.NoError(t, err)
	assert.Equal(t, "a.pdf", got.Name)

	_, err = s.Documents.FindOne(ctx, Filter{"hash": "nope"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_UniqueField(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	require.NoError(t, s.Users.Insert(ctx, &models.User{Email: "a@x.com", Role: models.RoleUser}))
	err := s.Users.Insert(ctx, &models.User{Email: "a@x.com", Role: models.RoleAdmin})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestMemory_FindSortLimitAndTies(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	entries := []models.AuditLogEntry{
		{ID: "e1", Timestamp: base, User: &models.Actor{Email: "u@x.com"}},
		{ID: "e2", Timestamp: base.Add(time.Minute), User: &models.Actor{Email: "a@x.com"}},
		{ID: "e3", Timestamp: base.Add(time.Minute), User: &models.Actor{Email: "u@x.com"}},
		{ID: "e4", Timestamp: base.Add(-time.Minute)},
	}
	for i := range entries {
		require.NoError(t, s.AuditLogs.Insert(ctx, &entries[i]))
	}

	all, err := s.AuditLogs.Find(ctx, Query{Sort: []Sort{{Field: "timestamp", Desc: true}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"e3", "e2", "e1", "e4"}, ids(all))

	limited, err := s.AuditLogs.Find(ctx, Query{Sort: []Sort{{Field: "timestamp", Desc: true}}, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"e3", "e2"}, ids(limited))

	mine, err := s.AuditLogs.Find(ctx, Query{
		Filter: Filter{"user.email": "u@x.com"},
		Sort:   []Sort{{Field: "timestamp", Desc: true}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"e3", "e1"}, ids(mine))

	asc, err := s.AuditLogs.Find(ctx, Query{Sort: []Sort{{Field: "timestamp"}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"e4", "e1", "e2", "e3"}, ids(asc))
}

func TestMemory_FilterMatchesNamedStringTypes(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, s.Users.Insert(ctx, &models.User{Email: "a@x.com", Role: models.RoleAdmin}))

	got, err := s.Users.Find(ctx, Query{Filter: Filter{"role": models.RoleAdmin}})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = s.Users.Find(ctx, Query{Filter: Filter{"role": "admin"}})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestMemory_DeleteOne(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, s.Documents.Insert(ctx, &models.DocumentRecord{ID: "d1", Hash: "h"}))

	n, err := s.Documents.DeleteOne(ctx, Filter{"id": "d1"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = s.Documents.DeleteOne(ctx, Filter{"id": "d1"})
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestMemory_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewMemory()

	assert.ErrorIs(t, s.Documents.Insert(ctx, &models.DocumentRecord{ID: "d"}), context.Canceled)
	_, err := s.Documents.Find(ctx, Query{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpen_Memory(t *testing.T) {
	s, err := Open(context.Background(), &config.Config{StoreDriver: config.DriverMemory}, zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.NotNil(t, s.Users)
	assert.NoError(t, s.Close(context.Background()))

	_, err = Open(context.Background(), &config.Config{StoreDriver: "bolt"}, zap.NewNop().Sugar())
	assert.Error(t, err)
}

func ids(es []models.AuditLogEntry) []string {
	out := make([]string, 0, len(es))
	for _, e := range es {
		out = append(out, e.ID)
	}
	return out
}
