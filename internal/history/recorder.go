// Package history records mirror outcomes and serves the activity log.
package history

import (
	"context"
	"errors"
	"log"

	"github.com/ledgerwave/Solana-Trading-Bot/internal/domain"
	"github.com/ledgerwave/Solana-Trading-Bot/internal/storage"
)

// EventSink receives a best-effort analytics copy of every recorded
// outcome. Implemented by the ClickHouse outcome event store.
type EventSink interface {
	Insert(ctx context.Context, o domain.MirrorOutcome) error
}

// Recorder appends outcomes to the durable log and mirrors them into an
// optional analytics sink. The log is the source of truth; sink failures
// are logged and swallowed.
type Recorder struct {
	store  storage.OutcomeStore
	sink   EventSink
	logger *log.Logger
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithEventSink attaches an analytics sink.
func WithEventSink(sink EventSink) RecorderOption {
	return func(r *Recorder) {
		r.sink = sink
	}
}

// NewRecorder creates a Recorder over the given outcome store.
func NewRecorder(store storage.OutcomeStore, logger *log.Logger, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:  store,
		logger: logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record appends one outcome. A duplicate outcome_id means the record was
// already written (replayed signature after a reconcile), not an error.
func (r *Recorder) Record(ctx context.Context, o domain.MirrorOutcome) error {
	err := r.store.Append(ctx, o)
	if errors.Is(err, storage.ErrDuplicateKey) {
		r.logf("outcome %s already recorded", o.OutcomeID)
		return nil
	}
	if err != nil {
		return err
	}

	if r.sink != nil {
		if err := r.sink.Insert(ctx, o); err != nil {
			r.logf("analytics sink insert failed for %s: %v", o.OutcomeID, err)
		}
	}

	return nil
}

// Query retrieves recorded outcomes, newest first.
func (r *Recorder) Query(ctx context.Context, f storage.OutcomeFilter) ([]domain.MirrorOutcome, error) {
	return r.store.Query(ctx, f)
}

// Stats derives aggregate counters over all recorded outcomes.
func (r *Recorder) Stats(ctx context.Context) (domain.Stats, error) {
	return r.store.Stats(ctx)
}

func (r *Recorder) logf(format string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Printf("[history] "+format, args...)
	}
}
