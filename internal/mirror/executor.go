// Package mirror constructs, signs, submits, and confirms mirrored
// transactions.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ledgerwave/Solana-Trading-Bot/internal/domain"
	"github.com/ledgerwave/Solana-Trading-Bot/internal/idhash"
	"github.com/ledgerwave/Solana-Trading-Bot/internal/solana"
	"github.com/ledgerwave/Solana-Trading-Bot/internal/txbuild"
	"github.com/ledgerwave/Solana-Trading-Bot/internal/wallet"
)

// Defaults for submission and confirmation.
const (
	DefaultSubmitRetries   = 3
	DefaultSubmitDelay     = 500 * time.Millisecond
	DefaultConfirmTimeout  = 60 * time.Second
	DefaultConfirmInterval = 2 * time.Second
)

// Signer is the bot credential used for mirrored transactions.
// Implemented by wallet.Keypair.
type Signer interface {
	Address() string
	Sign(message []byte) []byte
}

var _ Signer = (*wallet.Keypair)(nil)

// Executor signs and submits mirrored transactions. Submissions are
// serialized per credential to keep blockhash/ordering sane on the signing
// account; Execute may be called from many pipeline workers.
type Executor struct {
	rpc    solana.RPCClient
	signer Signer
	logger *log.Logger

	submitMu sync.Mutex

	submitRetries   int
	submitDelay     time.Duration
	confirmTimeout  time.Duration
	confirmInterval time.Duration

	// onSent, when set, receives the intermediate Sent outcome right after
	// a successful submission, before confirmation polling begins.
	onSent func(domain.MirrorOutcome)

	now func() time.Time
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithSubmitRetries bounds transient submission retries.
func WithSubmitRetries(n int) ExecutorOption {
	return func(e *Executor) {
		e.submitRetries = n
	}
}

// WithSubmitDelay sets the delay between submission retries.
func WithSubmitDelay(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.submitDelay = d
	}
}

// WithConfirmTimeout bounds confirmation polling.
func WithConfirmTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.confirmTimeout = d
	}
}

// WithConfirmInterval sets the confirmation poll interval.
func WithConfirmInterval(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.confirmInterval = d
	}
}

// WithSentCallback registers a sink for intermediate Sent outcomes.
func WithSentCallback(fn func(domain.MirrorOutcome)) ExecutorOption {
	return func(e *Executor) {
		e.onSent = fn
	}
}

// NewExecutor creates a mirror executor.
func NewExecutor(rpc solana.RPCClient, signer Signer, logger *log.Logger, opts ...ExecutorOption) *Executor {
	e := &Executor{
		rpc:             rpc,
		signer:          signer,
		logger:          logger,
		submitRetries:   DefaultSubmitRetries,
		submitDelay:     DefaultSubmitDelay,
		confirmTimeout:  DefaultConfirmTimeout,
		confirmInterval: DefaultConfirmInterval,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute carries out a mirror decision and returns the terminal outcome.
// Skip decisions return a Skipped outcome without any network call.
func (e *Executor) Execute(ctx context.Context, d domain.MirrorDecision) domain.MirrorOutcome {
	out := e.baseOutcome(d)

	if d.Skip {
		out.Status = domain.StatusSkipped
		out.SkipReason = d.Reason
		return e.finish(out)
	}

	instrs, err := e.buildInstructions(d.Constructed, d.Classified.SourceAccount)
	if err != nil {
		return e.fail(out, domain.ErrorKindRejection, err)
	}

	mirrorSig, err := e.submit(ctx, instrs)
	if err != nil {
		var rpcErr *solana.RPCError
		if errors.As(err, &rpcErr) {
			return e.fail(out, domain.ErrorKindRejection, err)
		}
		return e.fail(out, domain.ErrorKindSubmit, err)
	}

	out.MirrorSignature = mirrorSig
	out.SubmittedAt = e.now().UnixMilli()
	e.logf("submitted %s mirroring %s", mirrorSig, out.Signature)

	if e.onSent != nil {
		sent := out
		sent.Status = domain.StatusSent
		sent.CompletedAt = sent.SubmittedAt
		sent.OutcomeID = idhash.ComputeOutcomeID(sent.Signature, sent.SourceAccount, sent.Status)
		e.onSent(sent)
	}

	// A sent transaction is never abandoned on shutdown; confirmation runs
	// on its own deadline detached from pipeline cancellation.
	confirmCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.confirmTimeout)
	defer cancel()

	if err := e.awaitConfirmation(confirmCtx, mirrorSig); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return e.fail(out, domain.ErrorKindTimeout,
				fmt.Errorf("confirmation timeout after %s", e.confirmTimeout))
		}
		return e.fail(out, domain.ErrorKindRejection, err)
	}

	out.Status = domain.StatusConfirmed
	e.logf("confirmed %s", mirrorSig)
	return e.finish(out)
}

// submit builds, signs, and sends the transaction. Transient errors retry
// with a fixed delay; node rejections (*solana.RPCError) surface immediately.
// One submission in flight per credential.
func (e *Executor) submit(ctx context.Context, instrs []txbuild.Instruction) (string, error) {
	e.submitMu.Lock()
	defer e.submitMu.Unlock()

	var lastErr error
	for attempt := 0; attempt <= e.submitRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(e.submitDelay):
			}
		}

		blockhash, err := e.rpc.GetLatestBlockhash(ctx)
		if err != nil {
			lastErr = fmt.Errorf("blockhash: %w", err)
			continue
		}

		wireTx, err := txbuild.BuildSigned(e.signer, blockhash, instrs)
		if err != nil {
			// Construction errors are deterministic
			return "", err
		}

		sig, err := e.rpc.SendTransaction(ctx, wireTx)
		if err != nil {
			var rpcErr *solana.RPCError
			if errors.As(err, &rpcErr) {
				return "", err
			}
			lastErr = err
			e.logf("submit attempt %d/%d: %v", attempt+1, e.submitRetries+1, err)
			continue
		}
		return sig, nil
	}

	return "", fmt.Errorf("submit retries exhausted: %w", lastErr)
}

// awaitConfirmation polls signature status until confirmed commitment, an
// on-chain failure, or deadline.
func (e *Executor) awaitConfirmation(ctx context.Context, signature string) error {
	ticker := time.NewTicker(e.confirmInterval)
	defer ticker.Stop()

	for {
		statuses, err := e.rpc.GetSignatureStatuses(ctx, []string{signature})
		if err == nil && len(statuses) > 0 && statuses[0] != nil {
			st := statuses[0]
			if st.Err != nil {
				return fmt.Errorf("transaction failed on chain: %v", st.Err)
			}
			if st.Confirmed() {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// buildInstructions maps a constructed transaction to wire instructions.
func (e *Executor) buildInstructions(c *domain.ConstructedTransaction, watched string) ([]txbuild.Instruction, error) {
	bot := e.signer.Address()

	switch c.Kind {
	case domain.KindNativeTransfer:
		if c.Lamports == 0 {
			return nil, fmt.Errorf("zero lamport transfer")
		}
		return []txbuild.Instruction{
			txbuild.SystemTransfer(bot, c.Recipient, c.Lamports),
		}, nil

	case domain.KindTokenTransfer:
		if c.TokenMint == "" {
			return nil, fmt.Errorf("token transfer without mint")
		}
		srcATA, _, err := wallet.FindAssociatedTokenAddress(bot, c.TokenMint)
		if err != nil {
			return nil, fmt.Errorf("derive source token account: %w", err)
		}
		dstATA, _, err := wallet.FindAssociatedTokenAddress(c.Recipient, c.TokenMint)
		if err != nil {
			return nil, fmt.Errorf("derive destination token account: %w", err)
		}
		return []txbuild.Instruction{
			txbuild.TokenTransfer(srcATA, dstATA, bot, c.TokenAmount),
		}, nil

	case domain.KindProgram:
		if c.Replay == nil {
			return nil, fmt.Errorf("program mirror without replay instruction")
		}
		return []txbuild.Instruction{
			txbuild.ReplayInstruction(*c.Replay, watched, bot),
		}, nil
	}

	return nil, fmt.Errorf("unmirrorable kind %s", c.Kind)
}

func (e *Executor) baseOutcome(d domain.MirrorDecision) domain.MirrorOutcome {
	ct := d.Classified
	return domain.MirrorOutcome{
		Signature:     ct.Signature,
		SourceAccount: ct.SourceAccount,
		Kind:          ct.Kind,
		Lamports:      ct.Lamports,
		TokenMint:     ct.TokenMint,
		ObservedAt:    e.now().UnixMilli(),
	}
}

func (e *Executor) fail(out domain.MirrorOutcome, kind domain.ErrorKind, err error) domain.MirrorOutcome {
	out.Status = domain.StatusFailed
	out.ErrorKind = kind
	out.ErrorMsg = err.Error()
	e.logf("mirror of %s failed (%s): %v", out.Signature, kind, err)
	return e.finish(out)
}

func (e *Executor) finish(out domain.MirrorOutcome) domain.MirrorOutcome {
	out.CompletedAt = e.now().UnixMilli()
	out.OutcomeID = idhash.ComputeOutcomeID(out.Signature, out.SourceAccount, out.Status)
	return out
}

func (e *Executor) logf(format string, args ...interface{}) {
	if e.logger != nil {
		e.logger.Printf("[executor] "+format, args...)
	}
}
