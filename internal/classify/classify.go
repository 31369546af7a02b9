// Package classify decodes fetched transaction records into the closed set
// of semantic kinds driving mirror policy.
package classify

import (
	"encoding/binary"

	"github.com/mr-tron/base58"

	"github.com/ledgerwave/Solana-Trading-Bot/internal/domain"
	"github.com/ledgerwave/Solana-Trading-Bot/internal/solana"
)

// System program instruction discriminator (u32 little-endian).
const sysTransferIndex = 2

// SPL Token program instruction tags.
const (
	tokenTransferTag        = 3
	tokenTransferCheckedTag = 12
)

// Classify decodes a transaction record observed for sourceAccount. Pure and
// deterministic: no network calls, no side effects. Multi-instruction
// transactions classify by the first instruction matching a known shape;
// everything else falls back to KindUnknown with the raw instruction list.
func Classify(rec *solana.TransactionRecord, sourceAccount string) domain.ClassifiedTransaction {
	out := domain.ClassifiedTransaction{
		Signature:     rec.Signature,
		SourceAccount: sourceAccount,
		Kind:          domain.KindUnknown,
		Slot:          rec.Slot,
		BlockTime:     rec.BlockTime,
		Instructions:  resolveInstructions(rec),
	}

	for _, ix := range out.Instructions {
		switch {
		case isSystemTransfer(ix):
			classifyNative(&out, ix)
			return out
		case isTokenTransfer(ix):
			classifyToken(&out, ix, rec)
			return out
		case ix.ProgramID == solana.RaydiumAMMV4ID || ix.ProgramID == solana.PumpFunProgramID:
			classifySwapCandidate(&out, ix, rec)
			return out
		}
	}

	return out
}

// resolveInstructions maps compiled instructions to address-resolved ones,
// recovering signer/writable flags from the message header.
func resolveInstructions(rec *solana.TransactionRecord) []domain.Instruction {
	numKeys := len(rec.AccountKeys)
	out := make([]domain.Instruction, 0, len(rec.Instructions))

	for _, cin := range rec.Instructions {
		if cin.ProgramIDIndex < 0 || cin.ProgramIDIndex >= numKeys {
			continue
		}

		ix := domain.Instruction{
			ProgramID: rec.AccountKeys[cin.ProgramIDIndex],
			Accounts:  make([]domain.InstructionAccount, 0, len(cin.Accounts)),
		}
		if raw, err := base58.Decode(cin.Data); err == nil {
			ix.Data = raw
		}

		valid := true
		for _, idx := range cin.Accounts {
			if idx < 0 || idx >= numKeys {
				valid = false
				break
			}
			ix.Accounts = append(ix.Accounts, domain.InstructionAccount{
				Address:  rec.AccountKeys[idx],
				Signer:   rec.Header.IsSigner(idx),
				Writable: rec.Header.IsWritable(idx, numKeys),
			})
		}
		if !valid {
			continue
		}

		out = append(out, ix)
	}

	return out
}

func isSystemTransfer(ix domain.Instruction) bool {
	return ix.ProgramID == solana.SystemProgramID &&
		len(ix.Data) >= 12 &&
		binary.LittleEndian.Uint32(ix.Data[0:4]) == sysTransferIndex &&
		len(ix.Accounts) >= 2
}

func isTokenTransfer(ix domain.Instruction) bool {
	if ix.ProgramID != solana.TokenProgramID || len(ix.Data) == 0 {
		return false
	}
	switch ix.Data[0] {
	case tokenTransferTag:
		return len(ix.Data) >= 9 && len(ix.Accounts) >= 3
	case tokenTransferCheckedTag:
		return len(ix.Data) >= 9 && len(ix.Accounts) >= 4
	}
	return false
}

func classifyNative(out *domain.ClassifiedTransaction, ix domain.Instruction) {
	out.Kind = domain.KindNativeTransfer
	out.Lamports = binary.LittleEndian.Uint64(ix.Data[4:12])
	out.Counterparties = []string{ix.Accounts[0].Address, ix.Accounts[1].Address}
}

func classifyToken(out *domain.ClassifiedTransaction, ix domain.Instruction, rec *solana.TransactionRecord) {
	out.Kind = domain.KindTokenTransfer
	out.TokenAmount = binary.LittleEndian.Uint64(ix.Data[1:9])
	out.TokenDecimals = -1
	if ix.Data[0] == tokenTransferCheckedTag && len(ix.Data) >= 10 {
		out.TokenDecimals = int(ix.Data[9])
	}

	var source, dest, owner string
	if ix.Data[0] == tokenTransferCheckedTag {
		// TransferChecked: source, mint, destination, owner
		source = ix.Accounts[0].Address
		out.TokenMint = ix.Accounts[1].Address
		dest = ix.Accounts[2].Address
		owner = ix.Accounts[3].Address
	} else {
		// Transfer: source, destination, owner
		source = ix.Accounts[0].Address
		dest = ix.Accounts[1].Address
		owner = ix.Accounts[2].Address
	}

	if out.TokenMint == "" {
		out.TokenMint = lookupMint(rec, source, dest)
	}
	if out.TokenDecimals < 0 {
		if d, ok := lookupDecimals(rec, source, dest); ok {
			out.TokenDecimals = d
		}
	}

	out.Counterparties = []string{owner}
	if destOwner := lookupOwner(rec, dest); destOwner != "" {
		out.Counterparties = append(out.Counterparties, destOwner)
	} else {
		out.Counterparties = append(out.Counterparties, dest)
	}
}

func classifySwapCandidate(out *domain.ClassifiedTransaction, ix domain.Instruction, rec *solana.TransactionRecord) {
	out.Kind = domain.KindProgram
	out.SwapProgramID = ix.ProgramID
	out.Counterparties = []string{out.SourceAccount}

	if detail, ok := parseRayLog(rec.LogMessages); ok {
		out.SwapInputMint = detail.inputMint
		out.SwapOutput = detail.amountOut
		if detail.inputMint == solana.WrappedSOLMint {
			out.Lamports = detail.amountIn
		}
	}
}

// lookupMint resolves the mint of a token account address from the
// post-execution token balances.
func lookupMint(rec *solana.TransactionRecord, addrs ...string) string {
	for _, addr := range addrs {
		for _, tb := range rec.PostTokenBalances {
			if tb.AccountIndex >= 0 && tb.AccountIndex < len(rec.AccountKeys) &&
				rec.AccountKeys[tb.AccountIndex] == addr {
				return tb.Mint
			}
		}
	}
	return ""
}

// lookupDecimals resolves the mint decimals of a token account address.
func lookupDecimals(rec *solana.TransactionRecord, addrs ...string) (int, bool) {
	for _, addr := range addrs {
		for _, tb := range rec.PostTokenBalances {
			if tb.AccountIndex >= 0 && tb.AccountIndex < len(rec.AccountKeys) &&
				rec.AccountKeys[tb.AccountIndex] == addr {
				return tb.Decimals, true
			}
		}
	}
	return 0, false
}

// lookupOwner resolves the wallet owning a token account address.
func lookupOwner(rec *solana.TransactionRecord, addr string) string {
	for _, tb := range rec.PostTokenBalances {
		if tb.AccountIndex >= 0 && tb.AccountIndex < len(rec.AccountKeys) &&
			rec.AccountKeys[tb.AccountIndex] == addr {
			return tb.Owner
		}
	}
	return ""
}

// readUint64LE reads a little-endian uint64 from data at offset.
func readUint64LE(data []byte, offset int) uint64 {
	if offset+8 > len(data) {
		return 0
	}
	return binary.LittleEndian.Uint64(data[offset:])
}
