package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"docverify/internal/models"
	"docverify/internal/store/migrations"
)

// OpenPostgres connects through gorm, applies the embedded migrations and
// returns a Store backed by the users, documents and audit_logs tables.
func OpenPostgres(ctx context.Context, dsn string, lg *zap.SugaredLogger) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db handle: %w", err)
	}
	if err := migrations.Up(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	lg.Infow("postgres store ready")
	return &Store{
		Users:     NewGormCollection[models.User](db),
		Documents: NewGormCollection[models.DocumentRecord](db),
		AuditLogs: NewGormCollection[models.AuditLogEntry](db),
		close:     func(context.Context) error { return sqlDB.Close() },
	}, nil
}

type GormCollection[T any] struct {
	db *gorm.DB
}

func NewGormCollection[T any](db *gorm.DB) *GormCollection[T] {
	return &GormCollection[T]{db: db}
}

// column maps a logical field name ("user.email", "uploadedAt") onto the
// snake_case column gorm generates for it.
func (c *GormCollection[T]) column(field string) string {
	return c.db.NamingStrategy.ColumnName("", strings.ReplaceAll(field, ".", "_"))
}

func (c *GormCollection[T]) where(f Filter) map[string]any {
	w := make(map[string]any, len(f))
	for k, v := range f {
		w[c.column(k)] = v
	}
	return w
}

func (c *GormCollection[T]) Insert(ctx context.Context, rec *T) error {
	if err := c.db.WithContext(ctx).Create(rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (c *GormCollection[T]) Find(ctx context.Context, q Query) ([]T, error) {
	tx := c.db.WithContext(ctx).Model(new(T))
	if len(q.Filter) > 0 {
		tx = tx.Where(c.where(q.Filter))
	}
	for _, s := range q.Sort {
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: c.column(s.Field)}, Desc: s.Desc})
	}
	tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: "seq"}, Desc: tieDesc(q)})
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	var out []T
	if err := tx.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (c *GormCollection[T]) FindOne(ctx context.Context, f Filter) (*T, error) {
	var out T
	err := c.db.WithContext(ctx).Where(c.where(f)).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *GormCollection[T]) DeleteOne(ctx context.Context, f Filter) (int64, error) {
	if len(f) == 0 {
		return 0, gorm.ErrMissingWhereClause
	}
	res := c.db.WithContext(ctx).Where(c.where(f)).Delete(new(T))
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
