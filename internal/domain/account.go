package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidAccount is returned when a watched account fails validation.
var ErrInvalidAccount = errors.New("invalid watched account")

// WatchedAccount is the monitoring configuration for one remote wallet.
// The address is the unique key; at most one entry exists per address.
type WatchedAccount struct {
	Address     string  `json:"address"`
	Enabled     bool    `json:"enabled"`
	CopyNative  bool    `json:"copy_native"`
	CopyToken   bool    `json:"copy_token"`
	CopyProgram bool    `json:"copy_program_interactions"`
	MaxAmount   float64 `json:"max_amount"` // SOL, 0 means use global bound
}

// Validate checks the account configuration. Invalid configurations are
// rejected at the management boundary and never reach the pipeline.
func (a *WatchedAccount) Validate() error {
	if a.Address == "" {
		return fmt.Errorf("%w: empty address", ErrInvalidAccount)
	}
	if len(a.Address) < 32 || len(a.Address) > 44 {
		return fmt.Errorf("%w: address %q is not a base58 pubkey", ErrInvalidAccount, a.Address)
	}
	if a.MaxAmount < 0 {
		return fmt.Errorf("%w: negative max_amount", ErrInvalidAccount)
	}
	return nil
}

// AccountUpdate carries a partial update for a watched account.
// Nil fields are left unchanged.
type AccountUpdate struct {
	Enabled     *bool    `json:"enabled,omitempty"`
	CopyNative  *bool    `json:"copy_native,omitempty"`
	CopyToken   *bool    `json:"copy_token,omitempty"`
	CopyProgram *bool    `json:"copy_program_interactions,omitempty"`
	MaxAmount   *float64 `json:"max_amount,omitempty"`
}

// Apply returns a copy of the account with the update applied.
func (u AccountUpdate) Apply(a WatchedAccount) WatchedAccount {
	if u.Enabled != nil {
		a.Enabled = *u.Enabled
	}
	if u.CopyNative != nil {
		a.CopyNative = *u.CopyNative
	}
	if u.CopyToken != nil {
		a.CopyToken = *u.CopyToken
	}
	if u.CopyProgram != nil {
		a.CopyProgram = *u.CopyProgram
	}
	if u.MaxAmount != nil {
		a.MaxAmount = *u.MaxAmount
	}
	return a
}
