package domain

// TxKind is the closed set of semantic transaction kinds produced by
// classification. Anything unrecognized falls back to KindUnknown.
type TxKind string

const (
	KindNativeTransfer TxKind = "NATIVE_TRANSFER"
	KindTokenTransfer  TxKind = "TOKEN_TRANSFER"
	KindProgram        TxKind = "PROGRAM_INTERACTION"
	KindUnknown        TxKind = "UNKNOWN"
)

// String returns the string representation of TxKind.
func (k TxKind) String() string {
	return string(k)
}

// IsValid checks if the kind is a valid value.
func (k TxKind) IsValid() bool {
	switch k {
	case KindNativeTransfer, KindTokenTransfer, KindProgram, KindUnknown:
		return true
	}
	return false
}

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL = 1_000_000_000

// RawEvent is a subscription notification for a watched account.
// Ephemeral: produced by the supervisor, consumed by the deduplicator.
type RawEvent struct {
	Account    string
	Signature  string
	Slot       int64
	ObservedAt int64 // unix ms
}

// InstructionAccount is one account reference of an instruction, with the
// signer and writable flags recovered from the message header.
type InstructionAccount struct {
	Address  string
	Signer   bool
	Writable bool
}

// Instruction is one compiled instruction of an observed transaction,
// resolved against the transaction's account keys.
type Instruction struct {
	ProgramID string
	Accounts  []InstructionAccount
	Data      []byte
}

// ClassifiedTransaction is the immutable result of classifying an observed
// transaction. Amounts are raw chain units: lamports for the native asset,
// base token units for SPL transfers.
type ClassifiedTransaction struct {
	Signature     string
	SourceAccount string
	Kind          TxKind
	Slot          int64
	BlockTime     int64 // unix seconds, 0 if unknown

	// Native / swap-input amount in lamports.
	Lamports uint64

	// Token transfer details (KindTokenTransfer only). Decimals is -1 when
	// it could not be resolved from the record.
	TokenMint     string
	TokenAmount   uint64
	TokenDecimals int

	// Counterparties observed on the matched instruction, source first.
	Counterparties []string

	// Swap candidate details (KindProgram only), best effort.
	SwapProgramID string
	SwapInputMint string
	SwapOutput    uint64

	// Raw instruction list, kept for observability and best-effort replay.
	Instructions []Instruction
}

// Recipient returns the first counterparty that is not the source account,
// or empty if none was observed.
func (c *ClassifiedTransaction) Recipient() string {
	for _, p := range c.Counterparties {
		if p != c.SourceAccount {
			return p
		}
	}
	return ""
}
