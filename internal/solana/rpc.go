package solana

import "context"

// RPCClient defines the Solana RPC HTTP interface consumed by the bot.
type RPCClient interface {
	// GetTransaction retrieves a transaction by signature.
	// Returns (nil, nil) if the transaction is not found.
	GetTransaction(ctx context.Context, signature string) (*TransactionRecord, error)

	// GetBalance retrieves the lamport balance of an account.
	GetBalance(ctx context.Context, pubkey string) (uint64, error)

	// GetLatestBlockhash retrieves the latest blockhash for transaction building.
	GetLatestBlockhash(ctx context.Context) (string, error)

	// SendTransaction submits a signed wire transaction and returns its signature.
	// Node-side rejections surface as *RPCError and are never retried here.
	SendTransaction(ctx context.Context, wireTx []byte) (string, error)

	// GetSignatureStatuses retrieves confirmation status for the given signatures.
	// Result entries are nil for unknown signatures, positionally matching the input.
	GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error)
}

// TransactionRecord is a fully fetched, immutable transaction.
type TransactionRecord struct {
	Signature    string
	Slot         int64
	BlockTime    int64 // unix seconds, 0 if unknown
	Err          interface{}
	AccountKeys  []string
	Header       MessageHeader
	Instructions []CompiledInstruction
	LogMessages  []string

	// Lamport balances per account key, before and after execution.
	PreBalances  []uint64
	PostBalances []uint64

	// Token balances after execution, for SPL mint resolution.
	PostTokenBalances []TokenBalance
}

// MessageHeader describes signer and writability layout of AccountKeys.
type MessageHeader struct {
	NumRequiredSignatures       int
	NumReadonlySignedAccounts   int
	NumReadonlyUnsignedAccounts int
}

// IsSigner reports whether the account at index i is a required signer.
func (h MessageHeader) IsSigner(i int) bool {
	return i < h.NumRequiredSignatures
}

// IsWritable reports whether the account at index i is writable, given the
// total number of account keys.
func (h MessageHeader) IsWritable(i, numKeys int) bool {
	if h.IsSigner(i) {
		return i < h.NumRequiredSignatures-h.NumReadonlySignedAccounts
	}
	return i < numKeys-h.NumReadonlyUnsignedAccounts
}

// CompiledInstruction is one instruction of the transaction message, with
// indices into AccountKeys.
type CompiledInstruction struct {
	ProgramIDIndex int
	Accounts       []int
	Data           string // base58
}

// TokenBalance is a post-execution SPL token balance entry.
type TokenBalance struct {
	AccountIndex int
	Mint         string
	Owner        string
	Amount       uint64 // raw base units
	Decimals     int
}

// SignatureStatus reports the confirmation state of a submitted transaction.
type SignatureStatus struct {
	Slot               int64
	Confirmations      *int // nil once rooted
	ConfirmationStatus string
	Err                interface{}
}

// Confirmed reports whether the transaction reached at least confirmed commitment.
func (s *SignatureStatus) Confirmed() bool {
	return s.ConfirmationStatus == "confirmed" || s.ConfirmationStatus == "finalized"
}
