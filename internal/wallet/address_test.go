package wallet

import (
	"crypto/ed25519"
	"testing"

	"github.com/mr-tron/base58"

	"github.com/ledgerwave/Solana-Trading-Bot/internal/solana"
)

func TestDecodeAddress(t *testing.T) {
	raw, err := DecodeAddress(solana.TokenProgramID)
	if err != nil {
		t.Fatalf("DecodeAddress: %v", err)
	}
	if len(raw) != 32 {
		t.Errorf("expected 32 bytes, got %d", len(raw))
	}

	if _, err := DecodeAddress("short"); err == nil {
		t.Error("expected error for short address")
	}
	if _, err := DecodeAddress("0OIl-invalid"); err == nil {
		t.Error("expected error for invalid base58")
	}
}

func TestIsOnCurve_WalletKey(t *testing.T) {
	priv := ed25519.NewKeyFromSeed(testSeed())
	pub := priv.Public().(ed25519.PublicKey)

	if !IsOnCurve(pub) {
		t.Error("ed25519 public key should be on curve")
	}

	if IsOnCurve(make([]byte, 16)) {
		t.Error("wrong-length input should not be on curve")
	}
}

func TestFindAssociatedTokenAddress(t *testing.T) {
	priv := ed25519.NewKeyFromSeed(testSeed())
	owner := base58.Encode(priv.Public().(ed25519.PublicKey))

	addr1, bump1, err := FindAssociatedTokenAddress(owner, solana.WrappedSOLMint)
	if err != nil {
		t.Fatalf("FindAssociatedTokenAddress: %v", err)
	}

	// Deterministic derivation
	addr2, bump2, err := FindAssociatedTokenAddress(owner, solana.WrappedSOLMint)
	if err != nil {
		t.Fatalf("FindAssociatedTokenAddress: %v", err)
	}
	if addr1 != addr2 || bump1 != bump2 {
		t.Errorf("derivation not deterministic: %s/%d vs %s/%d", addr1, bump1, addr2, bump2)
	}

	// Derived address must be off-curve
	raw, err := DecodeAddress(addr1)
	if err != nil {
		t.Fatalf("decode derived address: %v", err)
	}
	if IsOnCurve(raw) {
		t.Error("derived address should be off-curve")
	}

	// Different mint, different address
	other, _, err := FindAssociatedTokenAddress(owner, solana.TokenProgramID)
	if err != nil {
		t.Fatalf("FindAssociatedTokenAddress: %v", err)
	}
	if other == addr1 {
		t.Error("different mints should derive different addresses")
	}
}
