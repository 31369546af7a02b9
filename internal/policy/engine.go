// Package policy owns the watched account set and decides, per classified
// transaction, whether and how it is mirrored.
package policy

import (
	"math"
	"math/big"
	"sync"

	"github.com/ledgerwave/Solana-Trading-Bot/internal/domain"
)

// Config holds the global mirroring policy.
type Config struct {
	// MinAmountSOL skips transactions below this native amount. Zero
	// disables the floor.
	MinAmountSOL float64
	// MaxAmountSOL skips transactions above this native amount. Zero
	// disables the global ceiling.
	MaxAmountSOL float64
	// CopyRatio scales mirrored amounts. Zero or negative selects 1:1.
	CopyRatio float64
}

// Engine evaluates classified transactions against per-account policy.
// The account set is held as a snapshot map swapped on update, so pipeline
// reads never contend with management writes.
type Engine struct {
	cfg Config

	mu       sync.RWMutex
	accounts map[string]domain.WatchedAccount
}

// NewEngine creates a policy engine with an empty account set.
func NewEngine(cfg Config) *Engine {
	if cfg.CopyRatio <= 0 {
		cfg.CopyRatio = 1.0
	}
	return &Engine{
		cfg:      cfg,
		accounts: make(map[string]domain.WatchedAccount),
	}
}

// SetAccounts replaces the account snapshot.
func (e *Engine) SetAccounts(accounts []domain.WatchedAccount) {
	next := make(map[string]domain.WatchedAccount, len(accounts))
	for _, a := range accounts {
		next[a.Address] = a
	}

	e.mu.Lock()
	e.accounts = next
	e.mu.Unlock()
}

// Lookup returns the policy for an address.
func (e *Engine) Lookup(address string) (domain.WatchedAccount, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	a, ok := e.accounts[address]
	return a, ok
}

// Snapshot returns a copy of the current account set.
func (e *Engine) Snapshot() []domain.WatchedAccount {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]domain.WatchedAccount, 0, len(e.accounts))
	for _, a := range e.accounts {
		out = append(out, a)
	}
	return out
}

// Evaluate applies the policy rules in order, first match wins. The input
// transaction is never mutated.
func (e *Engine) Evaluate(ct domain.ClassifiedTransaction) domain.MirrorDecision {
	account, ok := e.Lookup(ct.SourceAccount)
	if !ok || !account.Enabled {
		return domain.SkipDecision(&ct, domain.SkipDisabled)
	}

	if !kindEnabled(account, ct.Kind) {
		return domain.SkipDecision(&ct, domain.SkipKindDisabled)
	}

	amount := policyAmount(ct)
	if e.cfg.MinAmountSOL > 0 && amount < e.cfg.MinAmountSOL {
		return domain.SkipDecision(&ct, domain.SkipAmountBounds)
	}
	if e.cfg.MaxAmountSOL > 0 && amount > e.cfg.MaxAmountSOL {
		return domain.SkipDecision(&ct, domain.SkipAmountBounds)
	}
	if account.MaxAmount > 0 && amount > account.MaxAmount {
		return domain.SkipDecision(&ct, domain.SkipAmountBounds)
	}

	if ct.Kind == domain.KindUnknown {
		return domain.SkipDecision(&ct, domain.SkipUnknownKind)
	}

	constructed, reason := e.construct(ct, account)
	if reason != "" {
		return domain.SkipDecision(&ct, reason)
	}
	return domain.ExecuteDecision(&ct, constructed)
}

// kindEnabled reports whether the account opted into mirroring the kind.
// Unknown passes through here and is skipped by the later unknown-kind rule.
func kindEnabled(a domain.WatchedAccount, kind domain.TxKind) bool {
	switch kind {
	case domain.KindNativeTransfer:
		return a.CopyNative
	case domain.KindTokenTransfer:
		return a.CopyToken
	case domain.KindProgram:
		return a.CopyProgram
	}
	return true
}

// policyAmount is the bounded magnitude of a transaction: the native amount
// in SOL for native transfers and swap candidates, the decimal token amount
// for token transfers when decimals are known.
func policyAmount(ct domain.ClassifiedTransaction) float64 {
	switch ct.Kind {
	case domain.KindTokenTransfer:
		if ct.TokenDecimals >= 0 {
			return float64(ct.TokenAmount) / math.Pow10(ct.TokenDecimals)
		}
		return 0
	default:
		return float64(ct.Lamports) / domain.LamportsPerSOL
	}
}

// construct builds the mirrored transaction description. Amounts are scaled
// by the copy ratio and capped at the account's max_amount.
func (e *Engine) construct(ct domain.ClassifiedTransaction, account domain.WatchedAccount) (*domain.ConstructedTransaction, domain.SkipReason) {
	switch ct.Kind {
	case domain.KindNativeTransfer:
		recipient := ct.Recipient()
		if recipient == "" {
			return nil, domain.SkipNoRecipient
		}

		lamports := scaleAmount(ct.Lamports, e.cfg.CopyRatio)
		if account.MaxAmount > 0 {
			limit := uint64(account.MaxAmount * domain.LamportsPerSOL)
			if lamports > limit {
				lamports = limit
			}
		}

		return &domain.ConstructedTransaction{
			Kind:      domain.KindNativeTransfer,
			Recipient: recipient,
			Lamports:  lamports,
		}, ""

	case domain.KindTokenTransfer:
		recipient := ct.Recipient()
		if recipient == "" {
			return nil, domain.SkipNoRecipient
		}

		amount := scaleAmount(ct.TokenAmount, e.cfg.CopyRatio)
		if account.MaxAmount > 0 && ct.TokenDecimals >= 0 {
			limit := uint64(account.MaxAmount * math.Pow10(ct.TokenDecimals))
			if amount > limit {
				amount = limit
			}
		}

		return &domain.ConstructedTransaction{
			Kind:        domain.KindTokenTransfer,
			Recipient:   recipient,
			TokenMint:   ct.TokenMint,
			TokenAmount: amount,
		}, ""

	case domain.KindProgram:
		replay := swapInstruction(ct)
		if replay == nil {
			return nil, domain.SkipNoRecipient
		}
		return &domain.ConstructedTransaction{
			Kind:     domain.KindProgram,
			Lamports: ct.Lamports,
			Replay:   replay,
		}, ""
	}

	return nil, domain.SkipUnknownKind
}

// swapInstruction picks the observed instruction against the swap program
// for best-effort replay.
func swapInstruction(ct domain.ClassifiedTransaction) *domain.Instruction {
	for i := range ct.Instructions {
		if ct.Instructions[i].ProgramID == ct.SwapProgramID && ct.SwapProgramID != "" {
			ix := ct.Instructions[i]
			return &ix
		}
	}
	return nil
}

// scaleAmount multiplies a lamport amount by the copy ratio. The product
// is computed in big.Float so large amounts neither lose precision in the
// float64 round-trip nor wrap; overflow saturates at MaxUint64.
func scaleAmount(amount uint64, ratio float64) uint64 {
	if ratio == 1.0 {
		return amount
	}
	product := new(big.Float).SetPrec(128).SetUint64(amount)
	product.Mul(product, big.NewFloat(ratio))
	scaled, _ := product.Uint64()
	return scaled
}
