package solprogram

import "github.com/gagliardetto/solana-go"

// Program IDs
var (
	SystemProgramID = solana.SystemProgramID
	TokenProgramID  = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
)

// Instruction names as declared by the Catoff program IDL
const (
	participateIx        = "participate"
	processStringInputIx = "process_string_input"
)

// FeeAmount - nominal SOL transfer signed before deferred backend calls
const FeeAmount = "0.000000001"

// NeverHaveIEverPrompt - first argument of process_string_input
const NeverHaveIEverPrompt = "never-have-i-ever"
