package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/ledgerwave/Solana-Trading-Bot/internal/domain"
)

// ComputeOutcomeID computes a deterministic outcome_id using SHA256.
// Formula: SHA256(signature|source_account|status)
// Returns hex-encoded hash (64 characters).
//
// One observed transaction yields exactly one terminal outcome, so
// (signature, source_account) alone would suffice; status is included so a
// Sent record and its later Confirmed upgrade never collide in the
// append-only history.
func ComputeOutcomeID(signature, sourceAccount string, status domain.OutcomeStatus) string {
	data := fmt.Sprintf("%s|%s|%s", signature, sourceAccount, string(status))
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
