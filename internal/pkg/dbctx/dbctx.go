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

// Conn returns the transaction when one is set and fallback otherwise, bound
// to Ctx (or context.Background when Ctx is nil).
func (c Context) Conn(fallback *gorm.DB) *gorm.DB {
	q := c.Tx
	if q == nil {
		q = fallback
	}
	ctx := c.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return q.WithContext(ctx)
}

func (c Context) InTx() bool { return c.Tx != nil }
