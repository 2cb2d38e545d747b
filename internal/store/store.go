// Package store is the record repository behind the services. Every backend
// offers the same four calls per collection: insert, find (with sort and
// limit), findOne and deleteOne, filtered by field equality.
//
// Field names in filters and sorts are the logical (bson) names, e.g.
// "hash", "uploadedAt" or "user.email". Each backend maps them onto its own
// column or path naming.
package store

import (
	"context"
	"errors"

	"docverify/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
)

type Filter map[string]any

type Sort struct {
	Field string
	Desc  bool
}

// Query selects records. Ties left by Sort are broken by insertion order,
// in the direction of the first sort key.
type Query struct {
	Filter Filter
	Sort   []Sort
	Limit  int
}

type Collection[T any] interface {
	Insert(ctx context.Context, rec *T) error
	Find(ctx context.Context, q Query) ([]T, error)
	FindOne(ctx context.Context, f Filter) (*T, error)
	DeleteOne(ctx context.Context, f Filter) (int64, error)
}

// Store bundles the collections used by the services. It is built once per
// process and passed down explicitly.
type Store struct {
	Users     Collection[models.User]
	Documents Collection[models.DocumentRecord]
	AuditLogs Collection[models.AuditLogEntry]

	close func(context.Context) error
}

func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

func tieDesc(q Query) bool {
	return len(q.Sort) > 0 && q.Sort[0].Desc
}
