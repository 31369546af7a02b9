package wallet

import (
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
)

// Keypair holds the bot's signing identity.
type Keypair struct {
	pub  ed25519.PublicKey
	priv ed25519.PrivateKey
	addr string
}

// FromBase58Secret parses a keypair from a base58-encoded secret.
// Accepts the 64-byte seed+pubkey wallet export format and the
// 32-byte raw seed format.
func FromBase58Secret(secret string) (*Keypair, error) {
	raw, err := base58.Decode(secret)
	if err != nil {
		return nil, fmt.Errorf("decode secret: %w", err)
	}

	var priv ed25519.PrivateKey
	switch len(raw) {
	case ed25519.PrivateKeySize: // 64 bytes
		priv = ed25519.PrivateKey(raw)
		derived := priv.Public().(ed25519.PublicKey)
		if !derived.Equal(ed25519.PublicKey(raw[ed25519.SeedSize:])) {
			return nil, fmt.Errorf("secret public key mismatch")
		}
	case ed25519.SeedSize: // 32 bytes
		priv = ed25519.NewKeyFromSeed(raw)
	default:
		return nil, fmt.Errorf("invalid secret length %d, want 32 or 64", len(raw))
	}

	pub := priv.Public().(ed25519.PublicKey)
	return &Keypair{
		pub:  pub,
		priv: priv,
		addr: base58.Encode(pub),
	}, nil
}

// Address returns the base58 public key.
func (k *Keypair) Address() string {
	return k.addr
}

// PublicKey returns the raw 32-byte public key.
func (k *Keypair) PublicKey() ed25519.PublicKey {
	return k.pub
}

// Sign signs a serialized transaction message.
func (k *Keypair) Sign(message []byte) []byte {
	return ed25519.Sign(k.priv, message)
}
