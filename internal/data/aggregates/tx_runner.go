package aggregates

import (
	"context"
	"time"

	"gorm.io/gorm"

	domainagg "github.com/yungbote/brokerdesk-backend/internal/domain/aggregates"
	"github.com/yungbote/brokerdesk-backend/internal/platform/dbctx"
)

// TxRunner runs fn inside one database transaction. fn must do all of its writes through
// the dbctx it receives.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type TxOption func(*gormTxRunner)

// WithRetries re-runs a transaction that failed with a retryable store error (deadlock,
// serialization failure, locked sqlite file) up to attempts times in total.
func WithRetries(attempts int, backoff time.Duration) TxOption {
	return func(r *gormTxRunner) {
		if attempts > 1 {
			r.attempts = attempts
		}
		if backoff > 0 {
			r.backoff = backoff
		}
	}
}

type gormTxRunner struct {
	db       *gorm.DB
	attempts int
	backoff  time.Duration
}

func NewGormTxRunner(db *gorm.DB, opts ...TxOption) TxRunner {
	r := &gormTxRunner{db: db, attempts: 1, backoff: 20 * time.Millisecond}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return domainagg.NewError(domainagg.CodeInternal, "tx", "transaction runner has nil db", nil)
	}
	var err error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(dbctx.Context{Ctx: ctx, Tx: tx})
		})
		if err == nil || attempt == r.attempts || !retryable(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(time.Duration(attempt) * r.backoff):
		}
	}
	return err
}

// retryable is true for store contention; callers' own domain errors never retry.
func retryable(err error) bool {
	if domainagg.CodeOf(err) != "" {
		return false
	}
	return domainagg.IsCode(MapError("tx", err), domainagg.CodeRetryable)
}
