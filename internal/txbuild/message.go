package txbuild

import (
	"fmt"
	"sort"

	"github.com/mr-tron/base58"

	"github.com/ledgerwave/Solana-Trading-Bot/internal/wallet"
)

// Signer signs compiled messages. Implemented by wallet.Keypair.
type Signer interface {
	Address() string
	Sign(message []byte) []byte
}

var _ Signer = (*wallet.Keypair)(nil)

// CompileMessage serializes a legacy transaction message: header, account
// keys, recent blockhash, compiled instructions. The fee payer is always the
// first account key.
func CompileMessage(feePayer, recentBlockhash string, instrs []Instruction) ([]byte, error) {
	if feePayer == "" {
		return nil, fmt.Errorf("empty fee payer")
	}
	if len(instrs) == 0 {
		return nil, fmt.Errorf("no instructions")
	}

	keys, header, err := collectAccounts(feePayer, instrs)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(keys))
	for i, k := range keys {
		index[k.pubkey] = i
	}

	blockhashRaw, err := base58.Decode(recentBlockhash)
	if err != nil {
		return nil, fmt.Errorf("decode blockhash: %w", err)
	}
	if len(blockhashRaw) != 32 {
		return nil, fmt.Errorf("blockhash has %d bytes, want 32", len(blockhashRaw))
	}

	var msg []byte
	msg = append(msg, header[0], header[1], header[2])

	msg = appendCompactU16(msg, len(keys))
	for _, k := range keys {
		raw, err := wallet.DecodeAddress(k.pubkey)
		if err != nil {
			return nil, err
		}
		msg = append(msg, raw...)
	}

	msg = append(msg, blockhashRaw...)

	msg = appendCompactU16(msg, len(instrs))
	for _, ix := range instrs {
		progIdx, ok := index[ix.ProgramID]
		if !ok {
			return nil, fmt.Errorf("program %s not in account keys", ix.ProgramID)
		}
		msg = append(msg, byte(progIdx))

		msg = appendCompactU16(msg, len(ix.Accounts))
		for _, acc := range ix.Accounts {
			i, ok := index[acc.Pubkey]
			if !ok {
				return nil, fmt.Errorf("account %s not in account keys", acc.Pubkey)
			}
			msg = append(msg, byte(i))
		}

		msg = appendCompactU16(msg, len(ix.Data))
		msg = append(msg, ix.Data...)
	}

	return msg, nil
}

// BuildSigned compiles, signs, and serializes a single-signer transaction
// ready for sendTransaction. Fails if any instruction requires a signer
// other than the keypair.
func BuildSigned(kp Signer, recentBlockhash string, instrs []Instruction) ([]byte, error) {
	for _, ix := range instrs {
		for _, acc := range ix.Accounts {
			if acc.Signer && acc.Pubkey != kp.Address() {
				return nil, fmt.Errorf("unsatisfiable signer %s", acc.Pubkey)
			}
		}
	}

	msg, err := CompileMessage(kp.Address(), recentBlockhash, instrs)
	if err != nil {
		return nil, err
	}

	sig := kp.Sign(msg)

	var wire []byte
	wire = appendCompactU16(wire, 1)
	wire = append(wire, sig...)
	wire = append(wire, msg...)
	return wire, nil
}

// compiledKey is an account key with merged signer/writable flags.
type compiledKey struct {
	pubkey   string
	signer   bool
	writable bool
}

// collectAccounts gathers and orders the account keys of a message:
// writable signers, readonly signers, writable non-signers, readonly
// non-signers. Returns the ordered keys and the three header bytes.
func collectAccounts(feePayer string, instrs []Instruction) ([]compiledKey, [3]byte, error) {
	merged := map[string]*compiledKey{
		feePayer: {pubkey: feePayer, signer: true, writable: true},
	}
	order := []string{feePayer}

	add := func(pubkey string, signer, writable bool) {
		k, ok := merged[pubkey]
		if !ok {
			k = &compiledKey{pubkey: pubkey}
			merged[pubkey] = k
			order = append(order, pubkey)
		}
		k.signer = k.signer || signer
		k.writable = k.writable || writable
	}

	for _, ix := range instrs {
		for _, acc := range ix.Accounts {
			if acc.Pubkey == "" {
				return nil, [3]byte{}, fmt.Errorf("empty account pubkey")
			}
			add(acc.Pubkey, acc.Signer, acc.Writable)
		}
		if ix.ProgramID == "" {
			return nil, [3]byte{}, fmt.Errorf("empty program id")
		}
		add(ix.ProgramID, false, false)
	}

	keys := make([]compiledKey, 0, len(order))
	for _, pk := range order {
		keys = append(keys, *merged[pk])
	}

	rank := func(k compiledKey) int {
		switch {
		case k.pubkey == feePayer:
			return 0
		case k.signer && k.writable:
			return 1
		case k.signer:
			return 2
		case k.writable:
			return 3
		default:
			return 4
		}
	}
	sort.SliceStable(keys, func(i, j int) bool {
		return rank(keys[i]) < rank(keys[j])
	})

	var numSigners, numReadonlySigned, numReadonlyUnsigned int
	for _, k := range keys {
		if k.signer {
			numSigners++
			if !k.writable {
				numReadonlySigned++
			}
		} else if !k.writable {
			numReadonlyUnsigned++
		}
	}

	if len(keys) > 255 {
		return nil, [3]byte{}, fmt.Errorf("too many account keys: %d", len(keys))
	}

	header := [3]byte{byte(numSigners), byte(numReadonlySigned), byte(numReadonlyUnsigned)}
	return keys, header, nil
}
