package txbuild

import (
	"encoding/binary"

	"github.com/ledgerwave/Solana-Trading-Bot/internal/domain"
	"github.com/ledgerwave/Solana-Trading-Bot/internal/solana"
)

// AccountMeta references one account of an instruction.
type AccountMeta struct {
	Pubkey   string
	Signer   bool
	Writable bool
}

// Instruction is a single instruction ready for message compilation.
type Instruction struct {
	ProgramID string
	Accounts  []AccountMeta
	Data      []byte
}

// System program instruction discriminators (u32 little-endian).
const sysTransferIndex = 2

// SPL Token program instruction tags.
const (
	tokenTransferTag        = 3
	tokenTransferCheckedTag = 12
)

// SystemTransfer builds a native SOL transfer instruction.
func SystemTransfer(from, to string, lamports uint64) Instruction {
	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:4], sysTransferIndex)
	binary.LittleEndian.PutUint64(data[4:12], lamports)

	return Instruction{
		ProgramID: solana.SystemProgramID,
		Accounts: []AccountMeta{
			{Pubkey: from, Signer: true, Writable: true},
			{Pubkey: to, Writable: true},
		},
		Data: data,
	}
}

// TokenTransfer builds an SPL token transfer instruction moving amount base
// units from the source token account to the destination token account.
func TokenTransfer(source, dest, owner string, amount uint64) Instruction {
	data := make([]byte, 9)
	data[0] = tokenTransferTag
	binary.LittleEndian.PutUint64(data[1:9], amount)

	return Instruction{
		ProgramID: solana.TokenProgramID,
		Accounts: []AccountMeta{
			{Pubkey: source, Writable: true},
			{Pubkey: dest, Writable: true},
			{Pubkey: owner, Signer: true},
		},
		Data: data,
	}
}

// ReplayInstruction rebuilds an observed instruction for resubmission,
// substituting every occurrence of watched with signer. The substituted
// account keeps its writable flag and becomes the required signer.
func ReplayInstruction(ix domain.Instruction, watched, signer string) Instruction {
	out := Instruction{
		ProgramID: ix.ProgramID,
		Accounts:  make([]AccountMeta, len(ix.Accounts)),
		Data:      append([]byte(nil), ix.Data...),
	}
	for i, acc := range ix.Accounts {
		meta := AccountMeta{
			Pubkey:   acc.Address,
			Signer:   acc.Signer,
			Writable: acc.Writable,
		}
		if acc.Address == watched {
			meta.Pubkey = signer
		}
		out.Accounts[i] = meta
	}
	return out
}
