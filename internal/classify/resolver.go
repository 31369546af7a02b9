package classify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ledgerwave/Solana-Trading-Bot/internal/solana"
)

// ErrFetchFailed marks a transaction that could not be fetched within the
// retry bound. Callers surface it as a terminal outcome, never swallow it.
var ErrFetchFailed = errors.New("transaction fetch failed")

// Resolver fetches full transaction records for observed signatures.
// Confirmed transactions can lag the log notification on the RPC side, so
// not-found responses are retried the same way transient errors are.
type Resolver struct {
	rpc         solana.RPCClient
	maxAttempts int
	retryDelay  time.Duration
	logger      *log.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithMaxAttempts sets the fetch attempt bound.
func WithMaxAttempts(n int) ResolverOption {
	return func(r *Resolver) {
		r.maxAttempts = n
	}
}

// WithRetryDelay sets the delay between fetch attempts.
func WithRetryDelay(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.retryDelay = d
	}
}

// NewResolver creates a Resolver over the given RPC client.
func NewResolver(rpc solana.RPCClient, logger *log.Logger, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		rpc:         rpc,
		maxAttempts: 5,
		retryDelay:  2 * time.Second,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve fetches the transaction record for a signature, retrying both
// errors and not-found up to the attempt bound.
func (r *Resolver) Resolve(ctx context.Context, signature string) (*solana.TransactionRecord, error) {
	var lastErr error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.retryDelay):
			}
		}

		rec, err := r.rpc.GetTransaction(ctx, signature)
		if err != nil {
			lastErr = err
			if r.logger != nil {
				r.logger.Printf("[classify] fetch %s attempt %d/%d: %v",
					signature, attempt, r.maxAttempts, err)
			}
			continue
		}
		if rec == nil {
			lastErr = fmt.Errorf("not found")
			continue
		}
		return rec, nil
	}

	return nil, fmt.Errorf("%w: %s after %d attempts: %v",
		ErrFetchFailed, signature, r.maxAttempts, lastErr)
}
