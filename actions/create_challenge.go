package actions

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"

	"blinks/backend"
	"blinks/cluster"
	"blinks/params"
	"blinks/reltime"
	"blinks/solprogram"
	"blinks/store"
)

var (
	participationTypeSpec = params.Spec{Name: "participationtype", Kind: params.KindNumber, Required: true, Allowed: []any{0, 1, 2}}
	tokenSpec             = params.Spec{
		Name:    "token",
		Kind:    params.KindEnum,
		Allowed: []any{string(cluster.SOL), string(cluster.USDC), string(cluster.BONK), string(cluster.SEND)},
		Default: string(cluster.SOL),
	}
)

type challengeStyle struct {
	title       string
	icon        string
	description string
}

var challengeStyles = map[int64]challengeStyle{
	backend.ZeroVsOne: {
		title:       "🚀 Create IRL Dares:",
		icon:        "dare.png",
		description: "- Make daring IRL challenges for friends\n- Wager on who will step up or back down\n- Spectators can join with side bets and raise the stakes. Who will rise to the challenge? Dare, compete, win big! 💪🔥",
	},
	backend.OneVsOne: {
		title:       "🚀 Duel On!",
		icon:        "peer.png",
		description: "- Ignite 1v1 showdowns in fitness, sports, skills, or games\n- Wager on every clash in real-time\n- Spectators fuel the fire with side bets. Who will emerge victorious? Step up, compete, win! 🥊🔥🕹️🔥",
	},
	backend.NvN: {
		title:       "🚀 Battle Royale!",
		icon:        "multi.png",
		description: "- Launch multiplayer challenges from fitness to cooking to creativity\n- Wagers are pooled for high stakes and bigger winnings\n- Spectators sidebet on top contenders. Who will outlast and outshine? Gather your crew, compete, win big! 🏆🔥",
	},
}

func (s *Server) createChallenge(rq *request) (any, error) {
	if rq.isPost() {
		return s.createChallengePost(rq)
	}
	return s.createChallengeGet(rq)
}

// createChallengeGet - form for a new challenge of the given participation type
func (s *Server) createChallengeGet(rq *request) (any, error) {
	ptype, err := rq.params.Int(participationTypeSpec)
	if err != nil {
		return nil, err
	}
	style := challengeStyles[ptype]

	href := fmt.Sprintf("/api/actions/create-challenge?clusterurl=%s&participationtype=%d&name={name}&token={token}&wager={wager}&startTime={startTime}&duration={duration}",
		rq.cluster.Name, ptype)

	return ActionGetResponse{
		Type:        typeAction,
		Title:       style.title,
		Icon:        s.icon(rq.r, style.icon),
		Description: style.description,
		Label:       "Create",
		Links: &ActionLinks{Actions: []LinkedAction{{
			Type:  typeTransaction,
			Label: "Create a catoff challenge",
			Href:  href,
			Parameters: []ActionParameter{
				{Name: "name", Label: "Name your challenge", Required: true},
				{
					Name:     "token",
					Label:    "Choose token",
					Type:     "radio",
					Required: true,
					Options: []ParameterOption{
						{Label: string(cluster.SOL), Value: string(cluster.SOL), Selected: true},
						{Label: string(cluster.USDC), Value: string(cluster.USDC)},
						{Label: string(cluster.BONK), Value: string(cluster.BONK)},
						{Label: string(cluster.SEND), Value: string(cluster.SEND)},
					},
				},
				{Name: "wager", Label: "Set wager amount", Type: "number", Required: true},
				{Name: "startTime", Label: "Starting time of the challenge. eg: 5m, 1h, 2d...", Required: true},
				{Name: "duration", Label: "Duration of the challenge. eg: 5m, 1h, 2d...", Required: true},
			},
		}}},
	}, nil
}

// createChallengePost - validates the form, charges the fee and defers the
// actual creation to next-action
func (s *Server) createChallengePost(rq *request) (any, error) {
	ptype, err := rq.params.Int(participationTypeSpec)
	if err != nil {
		return nil, err
	}
	name, err := rq.params.String(params.Spec{Name: "name", Required: true})
	if err != nil {
		return nil, err
	}
	if err := params.Require("name", name != "", "Name must not be empty"); err != nil {
		return nil, err
	}
	token, err := rq.params.String(tokenSpec)
	if err != nil {
		return nil, err
	}
	wager, err := rq.params.Decimal(params.Spec{Name: "wager", Required: true})
	if err != nil {
		return nil, err
	}
	if err := params.Require("wager", wager.IsPositive(), "Wager must be greater than zero"); err != nil {
		return nil, err
	}
	startTime, err := rq.params.String(params.Spec{Name: "startTime", Required: true})
	if err != nil {
		return nil, err
	}
	duration, err := rq.params.String(params.Spec{Name: "duration", Required: true})
	if err != nil {
		return nil, err
	}
	timeRange, err := reltime.CalculateTimeRange(s.now(), startTime, duration)
	if err != nil {
		return nil, err
	}
	rq.log.WithFields(logrus.Fields{
		"start_date": timeRange.StartDate,
		"end_date":   timeRange.EndDate,
	}).Info("[createChallenge] time range computed")

	account, _, err := rq.account()
	if err != nil {
		return nil, err
	}

	tx, err := s.timed("create-challenge", func() (string, error) {
		return rq.sol.BuildFeeTransaction(rq.ctx(), account)
	})
	if err != nil {
		return nil, err
	}

	next := s.next.sign("/api/actions/create-challenge/next-action", url.Values{
		"clusterurl":        {string(rq.cluster.Name)},
		"participationtype": {strconv.FormatInt(ptype, 10)},
		"name":              {name},
		"token":             {token},
		"wager":             {wager.String()},
		"startDate":         {strconv.FormatInt(timeRange.StartDate, 10)},
		"endDate":           {strconv.FormatInt(timeRange.EndDate, 10)},
	})
	rq.log.Infof("[createChallenge] next action: %s", next)

	s.record(rq, store.ActionRecord{
		Action:   "create-challenge",
		Account:  account.String(),
		Currency: string(cluster.SOL),
		Amount:   solprogram.FeeAmount,
		Status:   store.StatusBuilt,
	})

	return ActionPostResponse{
		Type:        typeTransaction,
		Transaction: tx,
		Message:     "Create Catoff Challenge",
		Links:       &PostResponseLinks{Next: &NextActionLink{Type: typePost, Href: next}},
	}, nil
}

// createChallengeNext - runs after the fee transaction was signed: asks the
// AI service for a description and creates the challenge off-chain
func (s *Server) createChallengeNext(rq *request) (_ any, err error) {
	q := rq.r.URL.Query()
	if err := s.next.claim(rq.r.URL.Path, q); err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			s.next.release(q)
		}
	}()
	ptype, err := rq.params.Int(participationTypeSpec)
	if err != nil {
		return nil, err
	}
	name, err := rq.params.String(params.Spec{Name: "name", Required: true})
	if err != nil {
		return nil, err
	}
	token, err := rq.params.String(params.Spec{Name: "token", Kind: params.KindEnum, Required: true, Allowed: tokenSpec.Allowed})
	if err != nil {
		return nil, err
	}
	wager, err := rq.params.Decimal(params.Spec{Name: "wager", Required: true})
	if err != nil {
		return nil, err
	}
	if err := params.Require("wager", wager.IsPositive(), "Wager must be greater than zero"); err != nil {
		return nil, err
	}
	startDate, err := rq.params.Int(params.Spec{Name: "startDate", Required: true})
	if err != nil {
		return nil, err
	}
	endDate, err := rq.params.Int(params.Spec{Name: "endDate", Required: true})
	if err != nil {
		return nil, err
	}
	if err := params.Require("endDate", endDate > startDate, "End date must be after start date"); err != nil {
		return nil, err
	}

	account, _, err := rq.account()
	if err != nil {
		return nil, err
	}

	desc, err := s.backend.GenerateDescription(rq.ctx(), name, int(ptype))
	if err != nil {
		return nil, err
	}

	challenge, err := s.backend.CreateChallenge(rq.ctx(), rq.cluster, backend.CreateChallengeRequest{
		ChallengeName:        name,
		ChallengeDescription: desc.Description,
		StartDate:            startDate,
		EndDate:              endDate,
		GameID:               backend.GameIDFor(int(ptype)),
		Wager:                wager.InexactFloat64(),
		Target:               0,
		AllowSideBets:        true,
		SideBetsWager:        wager.Div(sideBetDivisor).InexactFloat64(),
		Unit:                 "units",
		IsPrivate:            false,
		Currency:             token,
		ChallengeCategory:    backend.CategorySocialMedia,
		UserAddress:          account.String(),
	})
	if err != nil {
		return nil, err
	}

	id := challenge.ChallengeID
	s.record(rq, store.ActionRecord{
		Action:      "create-challenge",
		Account:     account.String(),
		Currency:    token,
		Amount:      wager.String(),
		ChallengeID: &id,
		Status:      store.StatusCreated,
	})

	joinBlink := fmt.Sprintf("%s/api/actions/join-challenge?clusterurl=%s&challengeID=%d", s.joinBaseURL(rq.r), rq.cluster.Name, id)
	message := fmt.Sprintf("Your challenge has been created successfully!\nJoin with blink: %s%s\nOpen Catoff App: %s%d",
		dialURL, joinBlink, appChallengeURL, id)
	rq.log.Infof("[createChallengeNext] challenge %d created", id)

	return CompletedAction{
		Type:        typeCompleted,
		Title:       "Your challenge has been created successfully!",
		Icon:        s.icon(rq.r, challengeStyles[ptype].icon),
		Label:       "Catoff Challenge Created",
		Description: message,
	}, nil
}
