// Package repo holds the gorm plumbing the users and alerts repositories
// embed.
package repo

import (
	"context"

	"gorm.io/gorm"
)

// Scope narrows a query before it runs.
type Scope func(*gorm.DB) *gorm.DB

// Base carries the gorm handle of a repository. It points at the pool until
// Rebind moves it onto a transaction, so the account workflows can span the
// users and alerts tables in one commit.
type Base struct {
	conn *gorm.DB
}

func NewBase(conn *gorm.DB) Base {
	return Base{conn: conn}
}

// DB scopes the handle to ctx. Tests pass a nil ctx to reach the bare handle.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.conn
	}
	return b.conn.WithContext(ctx)
}

// Rebind returns a copy running on tx; nil keeps the current handle.
func (b Base) Rebind(tx *gorm.DB) Base {
	if tx == nil {
		return b
	}
	return Base{conn: tx}
}

// Exists reports whether any row of model survives scope.
func (b Base) Exists(ctx context.Context, model any, scope Scope) (bool, error) {
	query := b.DB(ctx).Model(model)
	if scope != nil {
		query = scope(query)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
