package repository

import (
	"context"

	"gorm.io/gorm"
)

// DBContext bundles a request context with an optional GORM transaction. When
// Tx is set every repo call joins it instead of using the shared handle.
type DBContext struct {
	Ctx context.Context
	Tx  *gorm.DB
}

func Ctx(ctx context.Context) DBContext {
	return DBContext{Ctx: ctx}
}

func (d DBContext) WithTx(tx *gorm.DB) DBContext {
	return DBContext{Ctx: d.Ctx, Tx: tx}
}

func conn(db *gorm.DB, dbc DBContext) *gorm.DB {
	ctx := dbc.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
