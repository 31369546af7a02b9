package wallet

import (
	"crypto/sha256"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"

	"github.com/ledgerwave/Solana-Trading-Bot/internal/solana"
)

// pdaMarker terminates the seed list in program derived address hashing.
const pdaMarker = "ProgramDerivedAddress"

// DecodeAddress decodes a base58 address and validates its length.
func DecodeAddress(addr string) ([]byte, error) {
	raw, err := base58.Decode(addr)
	if err != nil {
		return nil, fmt.Errorf("decode address %q: %w", addr, err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("address %q has %d bytes, want 32", addr, len(raw))
	}
	return raw, nil
}

// IsOnCurve reports whether a 32-byte public key lies on the ed25519 curve.
// Program derived addresses are off-curve, wallet keys are on-curve.
func IsOnCurve(pub []byte) bool {
	if len(pub) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(pub)
	return err == nil
}

// FindAssociatedTokenAddress derives the associated token account for an
// owner wallet and token mint. Walks the bump seed down from 255 until the
// derived point is off-curve.
func FindAssociatedTokenAddress(owner, mint string) (string, uint8, error) {
	ownerRaw, err := DecodeAddress(owner)
	if err != nil {
		return "", 0, err
	}
	mintRaw, err := DecodeAddress(mint)
	if err != nil {
		return "", 0, err
	}
	tokenProgRaw, err := DecodeAddress(solana.TokenProgramID)
	if err != nil {
		return "", 0, err
	}
	ataProgRaw, err := DecodeAddress(solana.ATokenProgramID)
	if err != nil {
		return "", 0, err
	}

	for bump := 255; bump >= 0; bump-- {
		h := sha256.New()
		h.Write(ownerRaw)
		h.Write(tokenProgRaw)
		h.Write(mintRaw)
		h.Write([]byte{uint8(bump)})
		h.Write(ataProgRaw)
		h.Write([]byte(pdaMarker))
		candidate := h.Sum(nil)

		if !IsOnCurve(candidate) {
			return base58.Encode(candidate), uint8(bump), nil
		}
	}

	return "", 0, fmt.Errorf("no off-curve address for owner %s mint %s", owner, mint)
}
