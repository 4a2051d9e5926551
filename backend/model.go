package backend

// Envelope - response wrapper of the Catoff REST API
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// Participation types
const (
	ZeroVsOne = 0
	OneVsOne  = 1
	NvN       = 2
)

// Challenge categories
const (
	CategorySocialMedia = "Social Media"
	CategoryEvent       = "Event"
)

// GameNvNVoting - multiplayer game settled by spectator votes
const GameNvNVoting = 14

type Game struct {
	GameID            int    `json:"GameID"`
	GameName          string `json:"GameName,omitempty"`
	ParticipationType *int   `json:"ParticipationType,omitempty"`
	GameType          int    `json:"GameType,omitempty"`
}

type Submission struct {
	ID            int64    `json:"ID"`
	MediaUrls     []string `json:"MediaUrls,omitempty"`
	NumberOfVotes *int     `json:"NumberOfVotes,omitempty"`
}

type Player struct {
	PlayerID        int64       `json:"PlayerID"`
	PlayerPublicKey *string     `json:"PlayerPublicKey,omitempty"`
	Submission      *Submission `json:"Submission,omitempty"`
}

// Participant - flattened player/submission pair
type Participant struct {
	PlayerID     int64 `json:"PlayerID"`
	SubmissionID int64 `json:"SubmissionID"`
}

// Challenge - subset of the backend challenge the blinks read
type Challenge struct {
	ChallengeID          int64         `json:"ChallengeID"`
	ChallengeName        string        `json:"ChallengeName"`
	ChallengeDescription string        `json:"ChallengeDescription"`
	StartDate            int64         `json:"StartDate"`
	EndDate              int64         `json:"EndDate"`
	State                string        `json:"State,omitempty"`
	MaxParticipants      int           `json:"MaxParticipants,omitempty"`
	Media                *string       `json:"Media,omitempty"`
	Wager                float64       `json:"Wager"`
	Target               float64       `json:"Target,omitempty"`
	Unit                 *string       `json:"Unit,omitempty"`
	Category             string        `json:"Category,omitempty"`
	AllowSideBets        bool          `json:"AllowSideBets"`
	SideBetsWager        float64       `json:"SideBetsWager"`
	Slug                 *string       `json:"Slug,omitempty"`
	IsPrivate            bool          `json:"IsPrivate"`
	Currency             string        `json:"Currency"`
	Game                 *Game         `json:"Game,omitempty"`
	Players              []Player      `json:"Players,omitempty"`
	Participants         []Participant `json:"Participants,omitempty"`
}

// ParticipantList merges the two shapes the backend uses for players.
func (c Challenge) ParticipantList() []Participant {
	if len(c.Participants) > 0 {
		return c.Participants
	}
	out := make([]Participant, 0, len(c.Players))
	for _, p := range c.Players {
		part := Participant{PlayerID: p.PlayerID}
		if p.Submission != nil {
			part.SubmissionID = p.Submission.ID
		}
		out = append(out, part)
	}
	return out
}

// CreateChallengeRequest - POST /challenge body
type CreateChallengeRequest struct {
	ChallengeName        string  `json:"ChallengeName"`
	ChallengeDescription string  `json:"ChallengeDescription"`
	StartDate            int64   `json:"StartDate"`
	EndDate              int64   `json:"EndDate"`
	GameID               int     `json:"GameID"`
	Wager                float64 `json:"Wager"`
	Target               float64 `json:"Target"`
	AllowSideBets        bool    `json:"AllowSideBets"`
	SideBetsWager        float64 `json:"SideBetsWager"`
	Unit                 string  `json:"Unit"`
	IsPrivate            bool    `json:"IsPrivate"`
	Currency             string  `json:"Currency"`
	ChallengeCategory    string  `json:"ChallengeCategory"`
	NFTMedia             string  `json:"NFTMedia,omitempty"`
	Media                string  `json:"Media,omitempty"`
	UserAddress          string  `json:"UserAddress,omitempty"`
}

// CreateBattleRequest - POST /createBattle body. Polls carry no player
// wager; the amount rides on side bets.
type CreateBattleRequest struct {
	ChallengeName        string   `json:"ChallengeName"`
	ChallengeDescription string   `json:"ChallengeDescription"`
	StartDate            int64    `json:"StartDate"`
	EndDate              int64    `json:"EndDate"`
	GameID               int      `json:"GameID"`
	Wager                float64  `json:"Wager"`
	Target               float64  `json:"Target"`
	AllowSideBets        bool     `json:"AllowSideBets"`
	SideWagerAmount      float64  `json:"SideWagerAmount"`
	Unit                 string   `json:"Unit"`
	IsPrivate            bool     `json:"IsPrivate"`
	Currency             string   `json:"Currency"`
	ChallengeCategory    string   `json:"ChallengeCategory"`
	NFTMedia             string   `json:"NFTMedia,omitempty"`
	Media                string   `json:"Media,omitempty"`
	UserNames            []string `json:"UserNames"`
	SubmissionMediaUrls  []string `json:"SubmissionMediaUrls"`
	UserAddress          string   `json:"UserAddress,omitempty"`
}

// VoteRequest - POST /player/submission/vote body
type VoteRequest struct {
	ChallengeID  int64  `json:"ChallengeID"`
	SubmissionID int64  `json:"SubmissionID"`
	UserAddress  string `json:"UserAddress"`
}

// AIDescriptionRequest - body of the description generator
type AIDescriptionRequest struct {
	Prompt            string `json:"prompt"`
	ParticipationType string `json:"participation_type"`
	ResultType        string `json:"result_type"`
	AdditionalInfo    string `json:"additional_info"`
}

// AIDescription - generated title and description
type AIDescription struct {
	Title       string `json:"challenge_title"`
	Description string `json:"challenge_description"`
}

// GameIDFor maps a participation type to the validator-based game.
func GameIDFor(participationType int) int {
	if participationType == OneVsOne {
		return 11
	}
	return 10
}
