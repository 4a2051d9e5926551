package store

import "time"

// Action record statuses
const (
	StatusBuilt   = "built"
	StatusCreated = "created"
	StatusVoted   = "voted"
)

// ActionRecord - one row per transaction handed to a wallet and per
// off-chain side effect performed by a next-action callback
type ActionRecord struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RequestID   string    `gorm:"index;size:64" json:"request_id"`
	Action      string    `gorm:"index;size:32" json:"action"`
	Cluster     string    `gorm:"size:16" json:"cluster"`
	Account     string    `gorm:"index;size:44" json:"account"`
	Currency    string    `gorm:"size:8" json:"currency,omitempty"`
	Amount      string    `gorm:"size:40" json:"amount,omitempty"`
	ChallengeID *int64    `gorm:"index" json:"challenge_id,omitempty"`
	Status      string    `gorm:"index;size:20" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

func (ActionRecord) TableName() string {
	return "action_records"
}

// Never Have I Ever answers
const (
	AnswerHave      = "I Have"
	AnswerHaveNever = "I Have Never"
)

type NeverHaveIEverAnswer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Wallet    string    `gorm:"index;size:44" json:"wallet"`
	Answer1   string    `gorm:"size:32" json:"answer1"`
	Answer2   string    `gorm:"size:32" json:"answer2"`
	CreatedAt time.Time `json:"created_at"`
}

func (NeverHaveIEverAnswer) TableName() string {
	return "never_have_i_ever_responses"
}

// Percentages of first answers over every stored response.
type Percentages struct {
	Have      float64 `json:"have"`
	HaveNever float64 `json:"have_never"`
	Total     int64   `json:"total"`
}
