package actions

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"blinks/backend"
	"blinks/cluster"
	"blinks/params"
	"blinks/reltime"
	"blinks/solprogram"
	"blinks/store"
)

const pollIcon = "poll.png"

func (s *Server) createPoll(rq *request) (any, error) {
	if rq.isPost() {
		return s.createPollPost(rq)
	}
	return s.createPollGet(rq)
}

func (s *Server) createPollGet(rq *request) (any, error) {
	href := fmt.Sprintf("/api/actions/create-poll?clusterurl=%s&name={name}&description={description}&token={token}&wager={wager}&duration={duration}&usernames={usernames}",
		rq.cluster.Name)

	return ActionGetResponse{
		Type:        typeAction,
		Title:       "🚀 Create Battles:",
		Icon:        s.icon(rq.r, pollIcon),
		Description: "- Create Your Own Poll and Wager on the Results!\n- Name the contenders, set the stakes and let the crowd vote\n- Spectators back their favourite with side bets 🗳️🔥",
		Label:       "Create",
		Links: &ActionLinks{Actions: []LinkedAction{{
			Type:  typeTransaction,
			Label: "Create a poll",
			Href:  href,
			Parameters: []ActionParameter{
				{Name: "name", Label: "Name your poll", Required: true},
				{Name: "description", Label: "What is the poll about?", Required: true},
				{
					Name:     "token",
					Label:    "Choose token",
					Type:     "radio",
					Required: true,
					Options: []ParameterOption{
						{Label: string(cluster.SOL), Value: string(cluster.SOL), Selected: true},
						{Label: string(cluster.USDC), Value: string(cluster.USDC)},
						{Label: string(cluster.SEND), Value: string(cluster.SEND)},
						{Label: string(cluster.BONK), Value: string(cluster.BONK)},
					},
				},
				{Name: "wager", Label: "Set Bets Wager?", Type: "number", Required: true},
				{Name: "duration", Label: "Duration of the poll. eg: 5m, 1h, 2d...", Required: true},
				{Name: "usernames", Label: "Contenders, comma separated", Required: true},
			},
		}}},
	}, nil
}

// pollInput - fields shared by the poll POST and its next-action
type pollInput struct {
	name        string
	description string
	token       string
	wager       decimal.Decimal
	usernames   []string
}

func (rq *request) pollInput(tokenRequired bool) (pollInput, error) {
	var in pollInput
	var err error
	if in.name, err = rq.params.String(params.Spec{Name: "name", Required: true}); err != nil {
		return in, err
	}
	if err := params.Require("name", in.name != "", "Name must not be empty"); err != nil {
		return in, err
	}
	if in.description, err = rq.params.String(params.Spec{Name: "description"}); err != nil {
		return in, err
	}
	spec := tokenSpec
	spec.Required = tokenRequired
	if in.token, err = rq.params.String(spec); err != nil {
		return in, err
	}
	if in.wager, err = rq.params.Decimal(params.Spec{Name: "wager", Required: true}); err != nil {
		return in, err
	}
	if err := params.Require("wager", in.wager.IsPositive(), "Wager must be greater than zero"); err != nil {
		return in, err
	}

	raw, err := rq.params.String(params.Spec{Name: "usernames", Required: true})
	if err != nil {
		return in, err
	}
	in.usernames = splitUsernames(raw)
	if err := params.Require("usernames", len(in.usernames) >= 2, "Add at least two usernames"); err != nil {
		return in, err
	}
	return in, nil
}

func splitUsernames(raw string) []string {
	var out []string
	for _, name := range strings.Split(raw, ",") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// createPollPost - the poll opens immediately and closes after duration
func (s *Server) createPollPost(rq *request) (any, error) {
	in, err := rq.pollInput(false)
	if err != nil {
		return nil, err
	}
	duration, err := rq.params.String(params.Spec{Name: "duration", Required: true})
	if err != nil {
		return nil, err
	}
	timeRange, err := reltime.CalculateTimeRange(s.now(), "0s", duration)
	if err != nil {
		return nil, err
	}
	rq.log.WithFields(logrus.Fields{
		"end_date":  timeRange.EndDate,
		"usernames": len(in.usernames),
	}).Info("[createPoll] time range computed")

	account, _, err := rq.account()
	if err != nil {
		return nil, err
	}

	tx, err := s.timed("create-poll", func() (string, error) {
		return rq.sol.BuildFeeTransaction(rq.ctx(), account)
	})
	if err != nil {
		return nil, err
	}

	next := s.next.sign("/api/actions/create-poll/next-action", url.Values{
		"clusterurl":  {string(rq.cluster.Name)},
		"name":        {in.name},
		"description": {in.description},
		"token":       {in.token},
		"wager":       {in.wager.String()},
		"usernames":   {strings.Join(in.usernames, ",")},
		"startDate":   {strconv.FormatInt(timeRange.StartDate, 10)},
		"endDate":     {strconv.FormatInt(timeRange.EndDate, 10)},
	})

	s.record(rq, store.ActionRecord{
		Action:   "create-poll",
		Account:  account.String(),
		Currency: string(cluster.SOL),
		Amount:   solprogram.FeeAmount,
		Status:   store.StatusBuilt,
	})

	return ActionPostResponse{
		Type:        typeTransaction,
		Transaction: tx,
		Message:     "Create Catoff Poll",
		Links:       &PostResponseLinks{Next: &NextActionLink{Type: typePost, Href: next}},
	}, nil
}

// createPollNext - describes the poll with the AI service and creates the
// voting battle once the fee transaction is signed
func (s *Server) createPollNext(rq *request) (_ any, err error) {
	q := rq.r.URL.Query()
	if err := s.next.claim(rq.r.URL.Path, q); err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			s.next.release(q)
		}
	}()
	in, err := rq.pollInput(true)
	if err != nil {
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

	desc, err := s.backend.DescribeBattle(rq.ctx(), in.name, in.description)
	if err != nil {
		return nil, err
	}
	battle, err := s.backend.CreateBattle(rq.ctx(), rq.cluster, backend.CreateBattleRequest{
		ChallengeName:        in.name,
		ChallengeDescription: desc.Description,
		StartDate:            startDate,
		EndDate:              endDate,
		GameID:               backend.GameNvNVoting,
		AllowSideBets:        true,
		SideWagerAmount:      in.wager.InexactFloat64(),
		Unit:                 "vote",
		Currency:             in.token,
		ChallengeCategory:    backend.CategoryEvent,
		UserNames:            in.usernames,
		SubmissionMediaUrls:  []string{},
		UserAddress:          account.String(),
	})
	if err != nil {
		return nil, err
	}

	id := battle.ChallengeID
	s.record(rq, store.ActionRecord{
		Action:      "create-poll",
		Account:     account.String(),
		Currency:    in.token,
		Amount:      in.wager.String(),
		ChallengeID: &id,
		Status:      store.StatusCreated,
	})

	voteBlink := fmt.Sprintf("%s/api/actions/submit-vote?clusterurl=%s&challengeID=%d", s.joinBaseURL(rq.r), rq.cluster.Name, id)
	message := fmt.Sprintf("Your poll has been created successfully!\nVote with blink: %s%s\nOpen Catoff App: %s%d",
		dialURL, voteBlink, appChallengeURL, id)
	rq.log.Infof("[createPollNext] battle %d created", id)

	return CompletedAction{
		Type:        typeCompleted,
		Title:       "Your poll has been created successfully!",
		Icon:        s.icon(rq.r, pollIcon),
		Label:       "Catoff Poll Created",
		Description: message,
	}, nil
}
