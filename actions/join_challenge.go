package actions

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/AlekSi/pointer"
	"github.com/shopspring/decimal"

	"blinks/apperr"
	"blinks/backend"
	"blinks/cluster"
	"blinks/params"
	"blinks/solprogram"
	"blinks/store"
)

// Ways a caller can point at a challenge
const (
	methodLink        = "LINK"
	methodSlug        = "SLUG"
	methodChallengeID = "CHALLENGE_ID"
)

var joinMethodSpec = params.Spec{
	Name:     "method",
	Kind:     params.KindEnum,
	Required: true,
	Allowed:  []any{methodLink, methodSlug, methodChallengeID},
}

func (s *Server) joinChallenge(rq *request) (any, error) {
	if rq.isPost() {
		return s.joinChallengePost(rq)
	}
	return s.joinChallengeGet(rq)
}

func (s *Server) joinChallengeGet(rq *request) (any, error) {
	id, err := rq.params.Int(params.Spec{Name: "challengeID"})
	if err != nil {
		return nil, err
	}

	if id > 0 {
		ch, err := s.challenge(rq, id, true)
		if err != nil {
			return nil, err
		}
		icon := s.icon(rq.r, "join.png")
		if ch.Media != nil && *ch.Media != "" {
			icon = *ch.Media
		}
		return ActionGetResponse{
			Type:        typeAction,
			Title:       "Join Challenge",
			Icon:        icon,
			Description: ch.ChallengeName + "\n" + ch.ChallengeDescription,
			Label:       "Join",
			Links: &ActionLinks{Actions: []LinkedAction{{
				Type:  typeTransaction,
				Label: fmt.Sprintf("Join Challenge %d", ch.ChallengeID),
				Href:  fmt.Sprintf("/api/actions/join-challenge?clusterurl=%s&challengeId=%d", rq.cluster.Name, id),
			}}},
		}, nil
	}

	return ActionGetResponse{
		Type:        typeAction,
		Title:       "Join Challenges",
		Icon:        s.icon(rq.r, "join.png"),
		Description: "🚀 Join the Action!\n- Enter thrilling IRL or in-game Challenges\n- Compete in high-stakes dares, duels, and multiplayer showdowns\n- Who will rise or crack under pressure? Join the fun, win big! 🎯🔥",
		Label:       "Join",
		Links: &ActionLinks{Actions: []LinkedAction{{
			Type:  typeTransaction,
			Label: "Join Catoff Challenge",
			Href:  fmt.Sprintf("/api/actions/join-challenge?clusterurl=%s&method={method}&value={value}", rq.cluster.Name),
			Parameters: []ActionParameter{
				{
					Name:  "method",
					Label: "You have?",
					Type:  "radio",
					Options: []ParameterOption{
						{Label: "Challenge Link", Value: methodLink, Selected: true},
						{Label: "Challenge SLUG", Value: methodSlug},
						{Label: "Challenge ID", Value: methodChallengeID},
					},
				},
				{Name: "value", Label: "Paste the link/SLUG/Challenge ID"},
			},
		}}},
	}, nil
}

func (s *Server) joinChallengePost(rq *request) (any, error) {
	id, err := s.resolveChallengeID(rq)
	if err != nil {
		return nil, err
	}
	account, _, err := rq.account()
	if err != nil {
		return nil, err
	}

	ch, err := s.challenge(rq, id, false)
	if err != nil {
		return nil, err
	}
	// joins carry player id Some(0); the program reads the option before the type
	tx, err := s.participate(rq, "join-challenge", account, ch, solprogram.JoinChallenge, pointer.ToUint64(0), decimal.NewFromFloat(ch.Wager))
	if err != nil {
		return nil, err
	}
	return ActionPostResponse{
		Type:        typeTransaction,
		Transaction: tx,
		Message:     "Challenge successfully joined!",
	}, nil
}

// resolveChallengeID reads challengeId or derives it from method/value.
func (s *Server) resolveChallengeID(rq *request) (int64, error) {
	id, err := rq.params.Int(params.Spec{Name: "challengeId"})
	if err != nil {
		return 0, err
	}
	if id > 0 {
		return id, nil
	}

	method, err := rq.params.String(joinMethodSpec)
	if err != nil {
		return 0, err
	}
	value, err := rq.params.String(params.Spec{Name: "value", Required: true})
	if err != nil {
		return 0, err
	}
	value = strings.TrimSpace(value)

	switch method {
	case methodChallengeID:
		id, err = strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0, apperr.Validation("value", "Invalid challenge ID")
		}
	case methodLink:
		id, err = lastSegmentID(value)
		if err != nil {
			return 0, apperr.Validation("value", "Invalid challenge ID in link")
		}
	case methodSlug:
		link, err := s.backend.GetShareLink(rq.ctx(), rq.cluster, value)
		if err != nil {
			return 0, err
		}
		id, err = lastSegmentID(link)
		if err != nil {
			return 0, apperr.Validation("value", fmt.Sprintf("Invalid challenge ID in link from slug with value: %s", value))
		}
	}
	if err := params.Require("challengeId", id > 0, "Challenge ID must be positive"); err != nil {
		return 0, err
	}
	rq.log.Infof("[resolveChallengeID] %s %q -> %d", method, value, id)
	return id, nil
}

// lastSegmentID parses the trailing path segment of a challenge link.
func lastSegmentID(link string) (int64, error) {
	link = strings.TrimRight(link, "/")
	if i := strings.IndexAny(link, "?#"); i >= 0 {
		link = link[:i]
	}
	parts := strings.Split(link, "/")
	return strconv.ParseInt(parts[len(parts)-1], 10, 64)
}

// participate builds the participate transaction for ch and records it.
func (s *Server) participate(
	rq *request,
	action string,
	account solana.PublicKey,
	ch *backend.Challenge,
	kind solprogram.ParticipateType,
	playerID *uint64,
	amount decimal.Decimal,
) (string, error) {
	currency, err := cluster.ParseCurrency(ch.Currency)
	if err != nil {
		return "", apperr.Validationf("currency", err, "Invalid currency type: %s", ch.Currency)
	}
	if ch.ChallengeID <= 0 {
		return "", apperr.Dependency("Failed to communicate with the challenge service",
			fmt.Errorf("challenge service returned id %d", ch.ChallengeID))
	}

	tx, err := s.timed(action, func() (string, error) {
		return rq.sol.BuildParticipateTransaction(rq.ctx(), solprogram.TransactionIntent{
			Kind:        kind,
			User:        account,
			Currency:    currency,
			Amount:      amount.String(),
			ChallengeID: uint64(ch.ChallengeID),
			PlayerID:    playerID,
		})
	})
	if err != nil {
		return "", err
	}

	id := ch.ChallengeID
	s.record(rq, store.ActionRecord{
		Action:      action,
		Account:     account.String(),
		Currency:    string(currency),
		Amount:      amount.String(),
		ChallengeID: &id,
		Status:      store.StatusBuilt,
	})
	return tx, nil
}
