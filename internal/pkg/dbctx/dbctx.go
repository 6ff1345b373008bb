package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context bundles a request context with an optional GORM transaction.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

// New wraps ctx without a transaction.
func New(ctx context.Context) Context {
	return Context{Ctx: ctx}
}

// Within returns a copy bound to tx.
func (c Context) Within(tx *gorm.DB) Context {
	return Context{Ctx: c.Ctx, Tx: tx}
}

// DB returns the transaction when one is bound, otherwise fallback, scoped to the context.
func (c Context) DB(fallback *gorm.DB) *gorm.DB {
	conn := c.Tx
	if conn == nil {
		conn = fallback
	}
	ctx := c.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return conn.WithContext(ctx)
}
