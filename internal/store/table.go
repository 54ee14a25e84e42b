package store

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	pkgerrors "github.com/agentstation/storefront/pkg/errors"
)

// Table is a CRUD repository over a single entity keyed by an int64 "id".
type Table[T any] struct {
	db       *gorm.DB
	resource string
	preload  []string
	cascade  func(tx *gorm.DB, id int64) error
}

// TableOption configures a Table.
type TableOption func(*tableOptions)

type tableOptions struct {
	preload []string
	cascade func(tx *gorm.DB, id int64) error
}

// WithPreload eager loads the named associations on reads.
func WithPreload(associations ...string) TableOption {
	return func(o *tableOptions) {
		o.preload = append(o.preload, associations...)
	}
}

// WithCascade runs fn inside the delete transaction before the row is removed.
func WithCascade(fn func(tx *gorm.DB, id int64) error) TableOption {
	return func(o *tableOptions) {
		o.cascade = fn
	}
}

// NewTable creates a repository for T.
func NewTable[T any](db *gorm.DB, resource string, opts ...TableOption) *Table[T] {
	o := &tableOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return &Table[T]{db: db, resource: resource, preload: o.preload, cascade: o.cascade}
}

// Resource returns the entity name used in errors.
func (t *Table[T]) Resource() string {
	return t.resource
}

func (t *Table[T]) query(ctx context.Context) *gorm.DB {
	db := t.db.WithContext(ctx)
	for _, assoc := range t.preload {
		db = db.Preload(assoc)
	}
	return db
}

// Create inserts item. Associations are managed through their own tables.
func (t *Table[T]) Create(ctx context.Context, item *T) error {
	err := t.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error
	return translate("create", t.resource, 0, err)
}

// Get loads the row with the given id.
func (t *Table[T]) Get(ctx context.Context, id int64) (*T, error) {
	var item T
	if err := t.query(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, translate("get", t.resource, id, err)
	}
	return &item, nil
}

// List returns one page of rows ordered by id and the total row count.
func (t *Table[T]) List(ctx context.Context, page Page) ([]T, int64, error) {
	var total int64
	if err := t.db.WithContext(ctx).Model(new(T)).Count(&total).Error; err != nil {
		return nil, 0, translate("count", t.resource, 0, err)
	}

	items := []T{}
	if err := page.apply(t.query(ctx)).Order("id").Find(&items).Error; err != nil {
		return nil, 0, translate("list", t.resource, 0, err)
	}
	return items, total, nil
}

// Update overwrites the row with the given id. The row must exist.
func (t *Table[T]) Update(ctx context.Context, id int64, item *T) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists[T](tx, t.resource, id); err != nil {
			return err
		}
		return translate("update", t.resource, id, tx.Omit(clause.Associations).Save(item).Error)
	})
}

// Delete removes the row with the given id.
func (t *Table[T]) Delete(ctx context.Context, id int64) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists[T](tx, t.resource, id); err != nil {
			return err
		}
		if t.cascade != nil {
			if err := t.cascade(tx, id); err != nil {
				return translate("delete", t.resource, id, err)
			}
		}
		return translate("delete", t.resource, id, tx.Delete(new(T), "id = ?", id).Error)
	})
}

// Exists reports whether a row with the given id is stored.
func (t *Table[T]) Exists(ctx context.Context, id int64) (bool, error) {
	err := exists[T](t.db.WithContext(ctx), t.resource, id)
	if pkgerrors.IsNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

func exists[T any](db *gorm.DB, resource string, id int64) error {
	var count int64
	if err := db.Model(new(T)).Where("id = ?", id).Count(&count).Error; err != nil {
		return translate("get", resource, id, err)
	}
	if count == 0 {
		return translate("get", resource, id, gorm.ErrRecordNotFound)
	}
	return nil
}
