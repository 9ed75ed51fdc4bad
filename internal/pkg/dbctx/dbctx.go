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

func With(ctx context.Context) Context { return Context{Ctx: ctx} }

// Session returns the transaction when one is set, otherwise fallback, bound
// to Ctx.
func (c Context) Session(fallback *gorm.DB) *gorm.DB {
	transaction := c.Tx
	if transaction == nil {
		transaction = fallback
	}
	if c.Ctx == nil {
		return transaction.WithContext(context.Background())
	}
	return transaction.WithContext(c.Ctx)
}
