package store

import (
	"context"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"docverify/internal/models"
)

// NewMemory returns a process-local store. Used by tests and STORE_DRIVER=memory.
func NewMemory() *Store {
	return &Store{
		Users:     NewMemoryCollection(models.User.Fields, "email"),
		Documents: NewMemoryCollection(models.DocumentRecord.Fields, "id"),
		AuditLogs: NewMemoryCollection(models.AuditLogEntry.Fields, "id"),
	}
}

type MemoryCollection[T any] struct {
	mu     sync.RWMutex
	rows   []T
	fields func(T) map[string]any
	unique []string
}

// NewMemoryCollection keeps rows in insertion order. fields exposes the
// filterable and sortable values of a row; unique names fields that must not
// repeat across rows.
func NewMemoryCollection[T any](fields func(T) map[string]any, unique ...string) *MemoryCollection[T] {
	return &MemoryCollection[T]{fields: fields, unique: unique}
}

func (c *MemoryCollection[T]) Insert(ctx context.Context, rec *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	nf := c.fields(*rec)
	for _, row := range c.rows {
		rf := c.fields(row)
		for _, u := range c.unique {
			if equal(rf[u], nf[u]) {
				return ErrDuplicate
			}
		}
	}
	c.rows = append(c.rows, *rec)
	return nil
}

func (c *MemoryCollection[T]) Find(ctx context.Context, q Query) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	type hit struct {
		idx    int
		row    T
		fields map[string]any
	}
	var hits []hit
	for i, row := range c.rows {
		f := c.fields(row)
		if matches(f, q.Filter) {
			hits = append(hits, hit{idx: i, row: row, fields: f})
		}
	}
	c.mu.RUnlock()

	desc := tieDesc(q)
	sort.SliceStable(hits, func(i, j int) bool {
		for _, s := range q.Sort {
			cmp := compare(hits[i].fields[s.Field], hits[j].fields[s.Field])
			if cmp == 0 {
				continue
			}
			if s.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		if desc {
			return hits[i].idx > hits[j].idx
		}
		return hits[i].idx < hits[j].idx
	})
	if q.Limit > 0 && len(hits) > q.Limit {
		hits = hits[:q.Limit]
	}
	out := make([]T, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.row)
	}
	return out, nil
}

func (c *MemoryCollection[T]) FindOne(ctx context.Context, f Filter) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, row := range c.rows {
		if matches(c.fields(row), f) {
			r := row
			return &r, nil
		}
	}
	return nil, ErrNotFound
}

func (c *MemoryCollection[T]) DeleteOne(ctx context.Context, f Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, row := range c.rows {
		if matches(c.fields(row), f) {
			c.rows = append(c.rows[:i], c.rows[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func matches(fields map[string]any, f Filter) bool {
	for k, want := range f {
		got, ok := fields[k]
		if !ok || !equal(got, want) {
			return false
		}
	}
	return true
}

// equal treats named string types (models.Role) and plain strings alike.
func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Kind() == reflect.String && rb.Kind() == reflect.String {
		return ra.String() == rb.String()
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return reflect.DeepEqual(a, b)
}

func compare(a, b any) int {
	switch x := a.(type) {
	case time.Time:
		y, _ := b.(time.Time)
		return x.Compare(y)
	case int64:
		y, _ := b.(int64)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Kind() == reflect.String && rb.Kind() == reflect.String {
		return strings.Compare(ra.String(), rb.String())
	}
	return 0
}
