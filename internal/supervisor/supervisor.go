// Package supervisor owns the per-account log subscriptions: it keeps one
// consumer task per watched address, restarts failed subscriptions with
// backoff, and hands observed signatures to the pipeline in arrival order.
package supervisor

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/ledgerwave/Solana-Trading-Bot/internal/observability"
	"github.com/ledgerwave/Solana-Trading-Bot/internal/solana"
)

// Defaults for subscription restart behaviour.
const (
	DefaultRestartBackoff = 1 * time.Second
	DefaultMaxBackoff     = 30 * time.Second
	DefaultDegradedAfter  = 5
)

// Event is one observed signature on a watched account. Events for the
// same account are delivered to the handler sequentially in arrival order.
type Event struct {
	Account   string
	Signature string
	Slot      int64
	// Failed is set when the observed transaction errored on chain.
	// Failed transactions are never mirrored.
	Failed bool
}

// Handler consumes observed events. It is called from the account's
// consumer goroutine; blocking here backpressures that account only.
type Handler func(ctx context.Context, ev Event)

// DegradedFunc is notified when an account's subscription keeps failing.
type DegradedFunc func(account string, consecutiveFailures int, err error)

// Supervisor manages one subscription task per watched account.
type Supervisor struct {
	ws      solana.WSClient
	handler Handler
	logger  *log.Logger

	restartBackoff time.Duration
	maxBackoff     time.Duration
	degradedAfter  int
	onDegraded     DegradedFunc

	mu      sync.Mutex
	baseCtx context.Context
	tasks   map[string]*task
	wg      sync.WaitGroup
}

type task struct {
	account string
	cancel  context.CancelFunc
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithRestartBackoff sets the initial delay before resubscribing.
func WithRestartBackoff(d time.Duration) Option {
	return func(s *Supervisor) {
		s.restartBackoff = d
	}
}

// WithMaxBackoff caps the resubscribe delay.
func WithMaxBackoff(d time.Duration) Option {
	return func(s *Supervisor) {
		s.maxBackoff = d
	}
}

// WithDegradedAfter sets how many consecutive subscribe failures mark an
// account degraded.
func WithDegradedAfter(n int) Option {
	return func(s *Supervisor) {
		s.degradedAfter = n
	}
}

// WithDegradedCallback registers a degraded-health notification sink.
func WithDegradedCallback(fn DegradedFunc) Option {
	return func(s *Supervisor) {
		s.onDegraded = fn
	}
}

// New creates a Supervisor. Start must be called before Watch.
func New(ws solana.WSClient, handler Handler, logger *log.Logger, opts ...Option) *Supervisor {
	s := &Supervisor{
		ws:             ws,
		handler:        handler,
		logger:         logger,
		restartBackoff: DefaultRestartBackoff,
		maxBackoff:     DefaultMaxBackoff,
		degradedAfter:  DefaultDegradedAfter,
		tasks:          make(map[string]*task),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start binds the supervisor to its lifetime context.
func (s *Supervisor) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baseCtx = ctx
}

// Watch subscribes to the account and starts its consumer task. It does
// not return until the gateway acknowledged the subscription or refused
// it; restarts after that are the task's job. Watching an already watched
// account is a no-op.
func (s *Supervisor) Watch(account string) error {
	if account == "" {
		return fmt.Errorf("empty account")
	}

	s.mu.Lock()
	if s.baseCtx == nil {
		s.mu.Unlock()
		return fmt.Errorf("supervisor not started")
	}
	if _, exists := s.tasks[account]; exists {
		s.mu.Unlock()
		return nil
	}

	// Reserve the slot so a concurrent Watch for the same account is a
	// no-op while the subscribe is in flight.
	ctx, cancel := context.WithCancel(s.baseCtx)
	t := &task{account: account, cancel: cancel}
	s.tasks[account] = t
	s.mu.Unlock()

	sub, err := s.ws.SubscribeLogs(ctx, solana.LogsFilter{Mentions: []string{account}})
	if err != nil {
		cancel()
		s.mu.Lock()
		if s.tasks[account] == t {
			delete(s.tasks, account)
		}
		s.mu.Unlock()
		return fmt.Errorf("subscribe %s: %w", account, err)
	}

	s.mu.Lock()
	observability.DefaultMetrics.ActiveSubscriptions.Set(float64(len(s.tasks)))
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run(ctx, t, sub)

	s.logf("watching %s", account)
	return nil
}

// Unwatch stops the account's subscription task. Unwatching an unknown
// account is a no-op.
func (s *Supervisor) Unwatch(account string) {
	s.mu.Lock()
	t, exists := s.tasks[account]
	if exists {
		delete(s.tasks, account)
		observability.DefaultMetrics.ActiveSubscriptions.Set(float64(len(s.tasks)))
	}
	s.mu.Unlock()

	if exists {
		t.cancel()
		s.logf("unwatched %s", account)
	}
}

// Reconcile drives the task set to exactly the desired accounts: missing
// subscriptions start, stale ones stop, existing ones are left alone.
// Safe to call repeatedly with the same input.
func (s *Supervisor) Reconcile(accounts []string) error {
	desired := make(map[string]struct{}, len(accounts))
	for _, a := range accounts {
		if a == "" {
			continue
		}
		desired[a] = struct{}{}
	}

	for _, stale := range s.diffStale(desired) {
		s.Unwatch(stale)
	}

	for a := range desired {
		if err := s.Watch(a); err != nil {
			return fmt.Errorf("watch %s: %w", a, err)
		}
	}
	return nil
}

func (s *Supervisor) diffStale(desired map[string]struct{}) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stale []string
	for a := range s.tasks {
		if _, ok := desired[a]; !ok {
			stale = append(stale, a)
		}
	}
	return stale
}

// Watched returns the currently watched accounts, sorted.
func (s *Supervisor) Watched() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.tasks))
	for a := range s.tasks {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Stop cancels every task and waits for the consumers to drain.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	tasks := make([]*task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, t)
	}
	s.tasks = make(map[string]*task)
	observability.DefaultMetrics.ActiveSubscriptions.Set(0)
	s.mu.Unlock()

	for _, t := range tasks {
		t.cancel()
	}
	s.wg.Wait()
}

// run keeps the account's subscription alive until its context ends.
// Watch hands in the acknowledged first subscription.
func (s *Supervisor) run(ctx context.Context, t *task, sub *solana.Subscription) {
	defer s.wg.Done()

	backoff := s.restartBackoff
	failures := 0

	for {
		if sub == nil {
			if ctx.Err() != nil {
				return
			}

			var err error
			sub, err = s.ws.SubscribeLogs(ctx, solana.LogsFilter{Mentions: []string{t.account}})
			if err != nil {
				failures++
				observability.RecordSubscriptionRestart(t.account)
				s.logf("resubscribe %s failed (attempt %d): %v", t.account, failures, err)
				if s.onDegraded != nil && failures >= s.degradedAfter {
					s.onDegraded(t.account, failures, err)
				}

				select {
				case <-ctx.Done():
					return
				case <-time.After(backoff):
				}
				backoff *= 2
				if backoff > s.maxBackoff {
					backoff = s.maxBackoff
				}
				continue
			}

			failures = 0
			backoff = s.restartBackoff
		}

		s.consume(ctx, t.account, sub)

		if ctx.Err() != nil {
			// Detached so unsubscribe still reaches the node during shutdown.
			unsubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			_ = s.ws.Unsubscribe(unsubCtx, sub)
			cancel()
			return
		}

		// Channel closed underneath us (connection torn down), resubscribe.
		observability.RecordSubscriptionRestart(t.account)
		s.logf("subscription for %s ended, resubscribing", t.account)
		sub = nil
	}
}

// consume drains notifications until the channel closes or ctx ends.
func (s *Supervisor) consume(ctx context.Context, account string, sub *solana.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case notif, ok := <-sub.C:
			if !ok {
				return
			}
			if notif.Signature == "" {
				observability.RecordMalformedNotification()
				s.logf("malformed notification on %s dropped", account)
				continue
			}

			observability.RecordEventObserved(uint64(notif.Slot))
			s.handler(ctx, Event{
				Account:   account,
				Signature: notif.Signature,
				Slot:      notif.Slot,
				Failed:    notif.Err != nil,
			})
		}
	}
}

func (s *Supervisor) logf(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Printf("[supervisor] "+format, args...)
	}
}
