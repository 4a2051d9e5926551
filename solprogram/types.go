package solprogram

import (
	"github.com/gagliardetto/solana-go"

	"blinks/cluster"
)

// ParticipateType - variant of the on-chain participate instruction
type ParticipateType uint8

const (
	JoinChallenge ParticipateType = 0
	SideBet       ParticipateType = 1
)

func (p ParticipateType) String() string {
	switch p {
	case JoinChallenge:
		return "joinChallenge"
	case SideBet:
		return "sideBet"
	default:
		return "unknown"
	}
}

// TokenAccounts - escrow and user token accounts for one mint
type TokenAccounts struct {
	Mint   solana.PublicKey
	Escrow solana.PublicKey
	User   solana.PublicKey
}

// TransactionIntent - everything needed to build one participate transaction
type TransactionIntent struct {
	Kind        ParticipateType
	User        solana.PublicKey
	Currency    cluster.Currency
	Amount      string // decimal, before scaling
	ChallengeID uint64
	PlayerID    *uint64
}

// TransactionStatus - outcome of a blink transaction as seen by the cluster
type TransactionStatus string

const (
	StatusNotFound  TransactionStatus = "not_found"
	StatusConfirmed TransactionStatus = "confirmed"
	StatusFailed    TransactionStatus = "failed"
)

// TransactionStatusResponse - confirmation status of a signed blink transaction
type TransactionStatusResponse struct {
	Signature     string            `json:"signature"`
	Status        TransactionStatus `json:"status"`
	Slot          uint64            `json:"slot,omitempty"`
	BlockTime     *int64            `json:"block_time,omitempty"`
	Fee           uint64            `json:"fee,omitempty"`
	Confirmations uint64            `json:"confirmations"`
	Error         *string           `json:"error,omitempty"`
	ExplorerURL   string            `json:"explorer_url"`
}
