package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"docverify/internal/apperror"
	"docverify/internal/auth"
	"docverify/internal/fingerprint"
	"docverify/internal/models"
	"docverify/internal/store"
)

func upload(name, content string) UploadInput {
	return UploadInput{Name: name, Size: int64(len(content)), Type: "text/plain", Hash: fingerprint.Sum([]byte(content))}
}

func TestCreate_AdminStampsUploaderAndAudits(t *testing.T) {
	f := newFixture(t)
	ctx := f.as(t, adminA)

	rec, err := f.svc.Documents.Create(ctx, upload("f.txt", "hello"))
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, &models.Uploader{Email: adminA.Email, Name: adminA.Name}, rec.UploadedBy)
	assert.False(t, rec.UploadedAt.IsZero())

	logs, err := f.svc.Audit.List(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.ActionUpload, logs[0].Action)
	assert.Equal(t, "f.txt", logs[0].DocumentName)
	assert.Equal(t, rec.Hash, logs[0].Hash)
	assert.Equal(t, adminA.Email, logs[0].User.Email)
}

func TestCreate_KeepsCallerIDAndNormalizesHash(t *testing.T) {
	f := newFixture(t)
	in := upload("f.txt", "hello")
	in.ID = "client-1"
	in.Hash = strings.ToUpper(in.Hash)

	rec, err := f.svc.Documents.Create(f.as(t, adminA), in)
	require.NoError(t, err)
	assert.Equal(t, "client-1", rec.ID)
	assert.Equal(t, fingerprint.Sum([]byte("hello")), rec.Hash)

	_, err = f.svc.Documents.Create(f.as(t, adminA), in)
	assert.True(t, apperror.Is(err, apperror.KindConflict))
}

func TestCreate_RequiresAdmin(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Documents.Create(f.as(t, userU), upload("f.txt", "hello"))
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	_, err = f.svc.Documents.Create(context.Background(), upload("f.txt", "hello"))
	assert.True(t, apperror.Is(err, apperror.KindUnauthenticated))

	assert.Equal(t, 0, f.auditCount(t))
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := f.as(t, adminA)

	bad := []UploadInput{
		{Name: "", Hash: fingerprint.Sum(nil)},
		{Name: "x", Hash: "abc"},
		{Name: "x", Size: -1, Hash: fingerprint.Sum(nil)},
		{Name: strings.Repeat("n", maxNameLen+1), Hash: fingerprint.Sum(nil)},
	}
	for _, in := range bad {
		_, err := f.svc.Documents.Create(ctx, in)
		assert.True(t, apperror.Is(err, apperror.KindInvalidInput), "%+v", in)
	}
}

func TestCreate_AuditFailureDoesNotFailUpload(t *testing.T) {
	st := store.NewMemory()
	tokens := auth.NewTokenService("k", 0)
	lg := zap.NewNop().Sugar()
	gate := auth.NewGate(tokens, lg)
	audit := NewAuditTrail(brokenCollection[models.AuditLogEntry]{}, gate, lg)
	reg := NewRegistry(st.Documents, gate, audit, lg)

	tok, err := tokens.Issue(adminA)
	require.NoError(t, err)
	ctx := auth.WithToken(context.Background(), tok)

	rec, err := reg.Create(ctx, upload("f.txt", "hello"))
	require.NoError(t, err)

	_, found, err := reg.FindByFingerprint(ctx, rec.Hash)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestList_NewestFirstForAnyActor(t *testing.T) {
	f := newFixture(t)
	admin := f.as(t, adminA)
	base := f.svc.Documents.now()
	tick := 0
	f.svc.Documents.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	for _, c := range []string{"one", "two", "three"} {
		_, err := f.svc.Documents.Create(admin, upload(c+".txt", c))
		require.NoError(t, err)
	}

	docs, err := f.svc.Documents.List(f.as(t, userU))
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, []string{"three.txt", "two.txt", "one.txt"}, []string{docs[0].Name, docs[1].Name, docs[2].Name})

	_, err = f.svc.Documents.List(context.Background())
	assert.True(t, apperror.Is(err, apperror.KindUnauthenticated))
}

func TestDelete_TwiceReportsNotFound(t *testing.T) {
	f := newFixture(t)
	admin := f.as(t, adminA)
	rec, err := f.svc.Documents.Create(admin, upload("f.txt", "hello"))
	require.NoError(t, err)

	require.NoError(t, f.svc.Documents.Delete(admin, rec.ID))
	err = f.svc.Documents.Delete(admin, rec.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	_, found, err := f.svc.Documents.FindByFingerprint(admin, rec.Hash)
	require.NoError(t, err)
	assert.False(t, found)

	// the upload entry survives the delete
	assert.Equal(t, 1, f.auditCount(t))
}

func TestDelete_RequiresAdmin(t *testing.T) {
	f := newFixture(t)
	rec, err := f.svc.Documents.Create(f.as(t, adminA), upload("f.txt", "hello"))
	require.NoError(t, err)

	err = f.svc.Documents.Delete(f.as(t, userU), rec.ID)
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	err = f.svc.Documents.Delete(f.as(t, adminA), "  ")
	assert.True(t, apperror.Is(err, apperror.KindInvalidInput))
}

func TestFindByFingerprint_ExactMatchOnly(t *testing.T) {
	f := newFixture(t)
	rec, err := f.svc.Documents.Create(f.as(t, adminA), upload("f.txt", "hello"))
	require.NoError(t, err)

	_, found, err := f.svc.Documents.FindByFingerprint(context.Background(), rec.Hash[:32])
	require.NoError(t, err)
	assert.False(t, found)

	got, found, err := f.svc.Documents.FindByFingerprint(context.Background(), " "+strings.ToUpper(rec.Hash))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, rec.ID, got.ID)
}
