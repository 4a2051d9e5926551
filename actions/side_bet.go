package actions

import (
	"fmt"

	"github.com/shopspring/decimal"

	"blinks/apperr"
	"blinks/backend"
	"blinks/cluster"
	"blinks/params"
	"blinks/solprogram"
)

// side bets stake wager / sideBetDivisor.
var sideBetDivisor = decimal.NewFromInt(10)

func (s *Server) sideBet(rq *request) (any, error) {
	if rq.isPost() {
		return s.sideBetPost(rq)
	}
	return s.sideBetGet(rq)
}

func (s *Server) sideBetGet(rq *request) (any, error) {
	id, err := rq.params.Int(params.Spec{Name: "challengeID", Required: true})
	if err != nil {
		return nil, err
	}
	ch, err := s.challenge(rq, id, true)
	if err != nil {
		return nil, err
	}

	participants := ch.ParticipantList()
	actions := make([]LinkedAction, 0, len(participants))
	for _, p := range participants {
		actions = append(actions, LinkedAction{
			Type:  typeTransaction,
			Label: fmt.Sprintf("Place Side-Bet on player %d", p.PlayerID),
			Href: fmt.Sprintf("/api/actions/side-bet?clusterurl=%s&challengeId=%d&playerId=%d",
				rq.cluster.Name, ch.ChallengeID, p.PlayerID),
		})
	}

	icon := s.icon(rq.r, "join.png")
	if ch.Media != nil && *ch.Media != "" {
		icon = *ch.Media
	}
	resp := ActionGetResponse{
		Type:        typeAction,
		Title:       "Bet on a player",
		Icon:        icon,
		Description: fmt.Sprintf("Side bet on a player\n%s\n%s", ch.ChallengeName, ch.ChallengeDescription),
		Label:       "Bet",
		Links:       &ActionLinks{Actions: actions},
	}
	switch {
	case !ch.AllowSideBets:
		resp.Disabled = true
		resp.Error = &ActionError{Message: "Side bets are not allowed on this challenge"}
	case len(actions) == 0:
		resp.Disabled = true
		resp.Error = &ActionError{Message: "No players to bet on yet"}
	}
	return resp, nil
}

func (s *Server) sideBetPost(rq *request) (any, error) {
	id, err := rq.params.Int(params.Spec{Name: "challengeId", Required: true})
	if err != nil {
		return nil, err
	}
	playerID, err := rq.params.Int(params.Spec{Name: "playerId", Required: true})
	if err != nil {
		return nil, err
	}
	if err := params.Require("playerId", playerID > 0, "Player ID must be positive"); err != nil {
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
	if !ch.AllowSideBets {
		return nil, apperr.Validation("challengeId", "Side bets are not allowed on this challenge")
	}
	if !hasPlayer(ch.ParticipantList(), playerID) {
		return nil, apperr.Validation("playerId", fmt.Sprintf("Player %d is not part of challenge %d", playerID, id))
	}

	amount, err := sideBetAmount(rq.cluster, ch.Currency, ch.Wager)
	if err != nil {
		return nil, err
	}
	pid := uint64(playerID)
	tx, err := s.participate(rq, "side-bet", account, ch, solprogram.SideBet, &pid, amount)
	if err != nil {
		return nil, err
	}
	return ActionPostResponse{
		Type:        typeTransaction,
		Transaction: tx,
		Message:     "Your side-bet has been placed!",
	}, nil
}

// sideBetAmount is a tenth of the wager, truncated to the currency precision.
func sideBetAmount(cfg cluster.Config, currency string, wager float64) (decimal.Decimal, error) {
	cur, err := cluster.ParseCurrency(currency)
	if err != nil {
		return decimal.Zero, apperr.Validationf("currency", err, "Invalid currency type: %s", currency)
	}
	decimals, err := cfg.DecimalsFor(cur)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromFloat(wager).Div(sideBetDivisor).Truncate(int32(decimals)), nil
}

func hasPlayer(participants []backend.Participant, playerID int64) bool {
	for _, p := range participants {
		if p.PlayerID == playerID {
			return true
		}
	}
	return false
}
