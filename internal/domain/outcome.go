package domain

// OutcomeStatus is the terminal state of one mirroring attempt.
type OutcomeStatus string

const (
	StatusSent      OutcomeStatus = "SENT"
	StatusConfirmed OutcomeStatus = "CONFIRMED"
	StatusFailed    OutcomeStatus = "FAILED"
	StatusSkipped   OutcomeStatus = "SKIPPED"
)

// String returns the string representation of OutcomeStatus.
func (s OutcomeStatus) String() string {
	return string(s)
}

// ErrorKind classifies a failed mirror attempt.
type ErrorKind string

const (
	ErrorKindRejection ErrorKind = "REJECTION"      // deterministic, never retried
	ErrorKindFetch     ErrorKind = "FETCH_FAILED"   // record fetch exhausted retries
	ErrorKindSubmit    ErrorKind = "SUBMIT_FAILED"  // transient submit exhausted retries
	ErrorKindTimeout   ErrorKind = "CONFIRM_TIMEOUT"
)

// MirrorOutcome is the terminal record for one observed transaction.
// Immutable once written; appended to the history store.
type MirrorOutcome struct {
	OutcomeID     string `json:"outcome_id"` // deterministic hash, see idhash
	Signature     string `json:"signature"`  // observed transaction signature
	SourceAccount string `json:"source_account"`
	Kind          TxKind `json:"kind"`
	Lamports      uint64 `json:"lamports"`
	TokenMint     string `json:"token_mint,omitempty"`

	Status     OutcomeStatus `json:"status"`
	SkipReason SkipReason    `json:"skip_reason,omitempty"` // set when Status == StatusSkipped
	ErrorKind  ErrorKind     `json:"error_kind,omitempty"`  // set when Status == StatusFailed
	ErrorMsg   string        `json:"error_msg,omitempty"`

	// MirrorSignature is the submitted transaction's signature, if any.
	MirrorSignature string `json:"mirror_signature,omitempty"`

	ObservedAt  int64 `json:"observed_at_ms"`
	SubmittedAt int64 `json:"submitted_at_ms,omitempty"`
	CompletedAt int64 `json:"completed_at_ms"`
}

// Stats are the derived counters over all recorded outcomes.
type Stats struct {
	TotalObserved  int64 `json:"total_observed"`
	TotalMirrored  int64 `json:"total_mirrored"`
	TotalConfirmed int64 `json:"total_confirmed"`
	TotalFailed    int64 `json:"total_failed"`
	TotalSkipped   int64 `json:"total_skipped"`

	NativeMirrored  int64 `json:"native_transfers_mirrored"`
	TokenMirrored   int64 `json:"token_transfers_mirrored"`
	ProgramMirrored int64 `json:"program_interactions_mirrored"`

	// VolumeLamports is the total native volume of confirmed mirrors.
	VolumeLamports uint64 `json:"volume_lamports"`

	LastActivity int64 `json:"last_activity_ms"` // unix ms, 0 if none
}
