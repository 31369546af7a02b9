package domain

// SkipReason explains why the policy engine declined to mirror.
type SkipReason string

const (
	SkipDisabled     SkipReason = "DISABLED_ACCOUNT"
	SkipKindDisabled SkipReason = "KIND_DISABLED"
	SkipAmountBounds SkipReason = "AMOUNT_OUT_OF_BOUNDS"
	SkipUnknownKind  SkipReason = "UNKNOWN_KIND"
	SkipNoRecipient  SkipReason = "NO_RECIPIENT"
)

// ConstructedTransaction describes the mirror the executor should build and
// submit. The bot's own account is substituted as the sender; amounts have
// already been scaled by the copy ratio and capped.
type ConstructedTransaction struct {
	Kind      TxKind
	Recipient string
	Lamports  uint64

	// Token transfer fields (KindTokenTransfer only).
	TokenMint   string
	TokenAmount uint64

	// Replay carries the observed instruction with the watched account's
	// keys substituted by the bot's key (KindProgram only).
	Replay *Instruction
}

// MirrorDecision is the policy engine's verdict on one classified
// transaction. Exactly one of Skip/Execute applies.
type MirrorDecision struct {
	Classified  *ClassifiedTransaction
	Skip        bool
	Reason      SkipReason              // set when Skip
	Constructed *ConstructedTransaction // set when !Skip
}

// SkipDecision creates a Skip decision with the given reason.
func SkipDecision(c *ClassifiedTransaction, reason SkipReason) MirrorDecision {
	return MirrorDecision{Classified: c, Skip: true, Reason: reason}
}

// ExecuteDecision creates an Execute decision with the constructed mirror.
func ExecuteDecision(c *ClassifiedTransaction, tx *ConstructedTransaction) MirrorDecision {
	return MirrorDecision{Classified: c, Constructed: tx}
}
