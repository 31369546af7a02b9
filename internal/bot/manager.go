// Package bot wires the monitoring pipeline together and owns its
// lifecycle: storage-backed account set, per-account subscriptions,
// dedup, classification, policy, execution, and outcome recording.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ledgerwave/Solana-Trading-Bot/internal/classify"
	"github.com/ledgerwave/Solana-Trading-Bot/internal/dedup"
	"github.com/ledgerwave/Solana-Trading-Bot/internal/domain"
	"github.com/ledgerwave/Solana-Trading-Bot/internal/history"
	"github.com/ledgerwave/Solana-Trading-Bot/internal/idhash"
	"github.com/ledgerwave/Solana-Trading-Bot/internal/mirror"
	"github.com/ledgerwave/Solana-Trading-Bot/internal/observability"
	"github.com/ledgerwave/Solana-Trading-Bot/internal/policy"
	"github.com/ledgerwave/Solana-Trading-Bot/internal/solana"
	"github.com/ledgerwave/Solana-Trading-Bot/internal/storage"
	"github.com/ledgerwave/Solana-Trading-Bot/internal/supervisor"
)

// State is the manager's lifecycle state.
type State string

const (
	StateStopped  State = "stopped"
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateStopping State = "stopping"
	StateError    State = "error"
)

// Defaults for the dedup window.
const (
	DefaultDedupCapacity = 1024
	DefaultDedupTTL      = 10 * time.Minute
)

// Config tunes the pipeline. Zero values select package defaults.
type Config struct {
	// SeedAccounts are upserted into the account store on Init with
	// default copy settings (the TARGET_WALLETS bootstrap).
	SeedAccounts []string

	Policy policy.Config

	DedupCapacity int
	DedupTTL      time.Duration

	FetchAttempts   int
	FetchRetryDelay time.Duration

	SubmitRetries    int
	SubmitRetryDelay time.Duration
	ConfirmTimeout   time.Duration
	ConfirmInterval  time.Duration
}

// Deps are the external dependencies the manager builds the pipeline on.
type Deps struct {
	RPC      solana.RPCClient
	WS       solana.WSClient
	Accounts storage.WatchedAccountStore
	Recorder *history.Recorder
	Signer   mirror.Signer
	Logger   *log.Logger
}

// Status is a snapshot of the manager for the management API.
type Status struct {
	State           State  `json:"state"`
	BotAddress      string `json:"bot_address"`
	WatchedAccounts int    `json:"watched_accounts"`
	StartedAt       int64  `json:"started_at_ms,omitempty"`
	UptimeSeconds   int64  `json:"uptime_seconds"`
	LastError       string `json:"last_error,omitempty"`
}

// Manager runs the copy-trading pipeline.
type Manager struct {
	deps   Deps
	cfg    Config
	logger *log.Logger

	engine   *policy.Engine
	window   *dedup.Window
	resolver *classify.Resolver
	executor *mirror.Executor
	sup      *supervisor.Supervisor

	mu        sync.Mutex
	state     State
	startedAt time.Time
	lastErr   string
	cancel    context.CancelFunc

	now func() time.Time
}

// NewManager assembles the pipeline. Call Init to load state, then Start.
func NewManager(deps Deps, cfg Config) *Manager {
	if cfg.DedupCapacity <= 0 {
		cfg.DedupCapacity = DefaultDedupCapacity
	}
	if cfg.DedupTTL <= 0 {
		cfg.DedupTTL = DefaultDedupTTL
	}

	m := &Manager{
		deps:   deps,
		cfg:    cfg,
		logger: deps.Logger,
		engine: policy.NewEngine(cfg.Policy),
		window: dedup.NewWindow(cfg.DedupCapacity, cfg.DedupTTL),
		state:  StateStopped,
		now:    time.Now,
	}

	var resolverOpts []classify.ResolverOption
	if cfg.FetchAttempts > 0 {
		resolverOpts = append(resolverOpts, classify.WithMaxAttempts(cfg.FetchAttempts))
	}
	if cfg.FetchRetryDelay > 0 {
		resolverOpts = append(resolverOpts, classify.WithRetryDelay(cfg.FetchRetryDelay))
	}
	m.resolver = classify.NewResolver(deps.RPC, deps.Logger, resolverOpts...)

	executorOpts := []mirror.ExecutorOption{
		mirror.WithSentCallback(func(o domain.MirrorOutcome) {
			if err := deps.Recorder.Record(context.Background(), o); err != nil {
				m.logf("record sent outcome %s: %v", o.OutcomeID, err)
			}
			observability.RecordOutcome(string(o.Status))
		}),
	}
	if cfg.SubmitRetries > 0 {
		executorOpts = append(executorOpts, mirror.WithSubmitRetries(cfg.SubmitRetries))
	}
	if cfg.SubmitRetryDelay > 0 {
		executorOpts = append(executorOpts, mirror.WithSubmitDelay(cfg.SubmitRetryDelay))
	}
	if cfg.ConfirmTimeout > 0 {
		executorOpts = append(executorOpts, mirror.WithConfirmTimeout(cfg.ConfirmTimeout))
	}
	if cfg.ConfirmInterval > 0 {
		executorOpts = append(executorOpts, mirror.WithConfirmInterval(cfg.ConfirmInterval))
	}
	m.executor = mirror.NewExecutor(deps.RPC, deps.Signer, deps.Logger, executorOpts...)

	m.sup = supervisor.New(deps.WS, m.handleEvent, deps.Logger,
		supervisor.WithDegradedCallback(func(account string, failures int, err error) {
			m.setLastError(fmt.Sprintf("subscription for %s degraded after %d failures: %v", account, failures, err))
		}),
	)

	return m
}

// Init seeds configured target wallets and loads the policy snapshot.
// Seeding is idempotent: already known addresses keep their settings.
func (m *Manager) Init(ctx context.Context) error {
	for _, addr := range m.cfg.SeedAccounts {
		if addr == "" {
			continue
		}
		a := domain.WatchedAccount{
			Address:    addr,
			Enabled:    true,
			CopyNative: true,
			CopyToken:  true,
		}
		if err := a.Validate(); err != nil {
			return fmt.Errorf("seed account: %w", err)
		}
		err := m.deps.Accounts.Insert(ctx, a)
		if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			return fmt.Errorf("seed account %s: %w", addr, err)
		}
	}

	return m.refreshPolicy(ctx)
}

// Start brings the pipeline up. Starting a running manager is a no-op.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	switch m.state {
	case StateRunning, StateStarting:
		m.mu.Unlock()
		return nil
	case StateStopping:
		m.mu.Unlock()
		return fmt.Errorf("manager is stopping")
	}
	m.state = StateStarting
	m.mu.Unlock()

	if err := m.refreshPolicy(ctx); err != nil {
		m.fail(err)
		return err
	}

	// The pipeline outlives the caller's request context.
	runCtx, cancel := context.WithCancel(context.Background())
	m.sup.Start(runCtx)

	addrs := m.enabledAddrs()
	if err := m.sup.Reconcile(addrs); err != nil {
		cancel()
		m.fail(err)
		return err
	}

	m.mu.Lock()
	m.cancel = cancel
	m.state = StateRunning
	m.startedAt = m.now()
	m.lastErr = ""
	m.mu.Unlock()

	m.logf("started, watching %d accounts", len(addrs))
	return nil
}

// Stop tears the pipeline down. Stopping a stopped manager is a no-op.
// In-flight submissions complete on their own confirmation deadline.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.state != StateRunning && m.state != StateError {
		m.mu.Unlock()
		return
	}
	m.state = StateStopping
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.sup.Stop()

	m.mu.Lock()
	m.state = StateStopped
	m.mu.Unlock()

	m.logf("stopped")
}

// Status reports the manager snapshot.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := Status{
		State:           m.state,
		BotAddress:      m.deps.Signer.Address(),
		WatchedAccounts: len(m.engine.Snapshot()),
		LastError:       m.lastErr,
	}
	if m.state == StateRunning {
		st.StartedAt = m.startedAt.UnixMilli()
		st.UptimeSeconds = int64(m.now().Sub(m.startedAt).Seconds())
	}
	return st
}

// AddWallet registers a new watched account and subscribes to it if the
// pipeline is running and the account is enabled.
func (m *Manager) AddWallet(ctx context.Context, a domain.WatchedAccount) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if err := m.deps.Accounts.Insert(ctx, a); err != nil {
		return err
	}
	if err := m.refreshPolicy(ctx); err != nil {
		return err
	}
	return m.syncSubscriptions()
}

// UpdateWallet applies a partial update to a watched account. Toggling
// enabled starts or stops the account's subscription.
func (m *Manager) UpdateWallet(ctx context.Context, address string, upd domain.AccountUpdate) (domain.WatchedAccount, error) {
	if upd.MaxAmount != nil && *upd.MaxAmount < 0 {
		return domain.WatchedAccount{}, fmt.Errorf("%w: negative max_amount", domain.ErrInvalidAccount)
	}
	a, err := m.deps.Accounts.Update(ctx, address, upd)
	if err != nil {
		return domain.WatchedAccount{}, err
	}
	if err := m.refreshPolicy(ctx); err != nil {
		return domain.WatchedAccount{}, err
	}
	return a, m.syncSubscriptions()
}

// RemoveWallet deletes a watched account and drops its subscription and
// dedup state.
func (m *Manager) RemoveWallet(ctx context.Context, address string) error {
	if err := m.deps.Accounts.Delete(ctx, address); err != nil {
		return err
	}
	m.sup.Unwatch(address)
	m.window.Forget(address)
	return m.refreshPolicy(ctx)
}

// GetWallet retrieves one watched account.
func (m *Manager) GetWallet(ctx context.Context, address string) (domain.WatchedAccount, error) {
	return m.deps.Accounts.Get(ctx, address)
}

// ListWallets retrieves all watched accounts, ordered by address.
func (m *Manager) ListWallets(ctx context.Context) ([]domain.WatchedAccount, error) {
	return m.deps.Accounts.List(ctx)
}

// Transactions serves the outcome history.
func (m *Manager) Transactions(ctx context.Context, f storage.OutcomeFilter) ([]domain.MirrorOutcome, error) {
	return m.deps.Recorder.Query(ctx, f)
}

// Stats serves the derived counters.
func (m *Manager) Stats(ctx context.Context) (domain.Stats, error) {
	return m.deps.Recorder.Stats(ctx)
}

// WalletBalance fetches the lamport balance of an arbitrary address.
func (m *Manager) WalletBalance(ctx context.Context, address string) (uint64, error) {
	return m.deps.RPC.GetBalance(ctx, address)
}

// BotBalance fetches the lamport balance of the signing account.
func (m *Manager) BotBalance(ctx context.Context) (uint64, error) {
	return m.deps.RPC.GetBalance(ctx, m.deps.Signer.Address())
}

// handleEvent is the pipeline entry, called sequentially per account.
func (m *Manager) handleEvent(ctx context.Context, ev supervisor.Event) {
	if !m.window.Admit(ev.Account, ev.Signature) {
		observability.RecordDuplicateDropped()
		return
	}

	// Transactions that failed on chain carry no effect worth mirroring.
	if ev.Failed {
		m.logf("skipping failed transaction %s on %s", ev.Signature, ev.Account)
		return
	}

	observedAt := m.now().UnixMilli()

	rec, err := m.resolver.Resolve(ctx, ev.Signature)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		observability.DefaultMetrics.FetchFailures.Inc()
		m.record(ctx, m.fetchFailureOutcome(ev, observedAt, err))
		return
	}

	ct := classify.Classify(rec, ev.Account)
	observability.RecordClassification(ct.Kind.String())

	decision := m.engine.Evaluate(ct)
	if decision.Skip {
		observability.RecordDecision("skip", string(decision.Reason))
	} else {
		observability.RecordDecision("mirror", string(ct.Kind))
	}

	outcome := m.executor.Execute(ctx, decision)
	m.record(ctx, outcome)
	observability.RecordOutcome(string(outcome.Status))
	if !decision.Skip {
		observability.DefaultMetrics.MirrorLatency.Observe(float64(m.now().UnixMilli()-observedAt) / 1000)
	}
}

func (m *Manager) fetchFailureOutcome(ev supervisor.Event, observedAt int64, err error) domain.MirrorOutcome {
	completedAt := m.now().UnixMilli()
	return domain.MirrorOutcome{
		OutcomeID:     idhash.ComputeOutcomeID(ev.Signature, ev.Account, domain.StatusFailed),
		Signature:     ev.Signature,
		SourceAccount: ev.Account,
		Kind:          domain.KindUnknown,
		Status:        domain.StatusFailed,
		ErrorKind:     domain.ErrorKindFetch,
		ErrorMsg:      err.Error(),
		ObservedAt:    observedAt,
		CompletedAt:   completedAt,
	}
}

// record never drops an outcome on shutdown; the history write runs
// detached from pipeline cancellation.
func (m *Manager) record(ctx context.Context, o domain.MirrorOutcome) {
	if err := m.deps.Recorder.Record(context.WithoutCancel(ctx), o); err != nil {
		m.logf("record outcome %s: %v", o.OutcomeID, err)
	}
}

// enabledAddrs lists the enabled accounts in the current policy snapshot.
// Only these carry subscriptions; the policy check on each event stays as
// the in-flight backstop.
func (m *Manager) enabledAddrs() []string {
	accounts := m.engine.Snapshot()
	addrs := make([]string, 0, len(accounts))
	for _, a := range accounts {
		if a.Enabled {
			addrs = append(addrs, a.Address)
		}
	}
	return addrs
}

// syncSubscriptions drives the supervisor to the enabled account set.
func (m *Manager) syncSubscriptions() error {
	if !m.isRunning() {
		return nil
	}
	return m.sup.Reconcile(m.enabledAddrs())
}

// refreshPolicy reloads the account snapshot from storage.
func (m *Manager) refreshPolicy(ctx context.Context) error {
	accounts, err := m.deps.Accounts.List(ctx)
	if err != nil {
		return fmt.Errorf("load watched accounts: %w", err)
	}
	m.engine.SetAccounts(accounts)
	return nil
}

func (m *Manager) isRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateRunning
}

func (m *Manager) fail(err error) {
	m.mu.Lock()
	m.state = StateError
	m.lastErr = err.Error()
	m.mu.Unlock()
	m.logf("start failed: %v", err)
}

func (m *Manager) setLastError(msg string) {
	m.mu.Lock()
	m.lastErr = msg
	m.mu.Unlock()
}

func (m *Manager) logf(format string, args ...interface{}) {
	if m.logger != nil {
		m.logger.Printf("[bot] "+format, args...)
	}
}
