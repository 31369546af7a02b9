package solana

// Well-known program and mint addresses.
const (
	SystemProgramID  = "11111111111111111111111111111111"
	TokenProgramID   = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	ATokenProgramID  = "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL"
	RaydiumAMMV4ID   = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
	PumpFunProgramID = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"
	WrappedSOLMint   = "So11111111111111111111111111111111111111112"
)
