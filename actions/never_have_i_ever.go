package actions

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"blinks/apperr"
	"blinks/params"
	"blinks/store"
)

const (
	nhieStatement = "Never Have I Ever said a baby was cute when it was obviously ugly!"
	nhieMajority  = "What do you think the majority of people would've chosen for this question?"
)

var (
	answer1Spec = params.Spec{Name: "answer1", Kind: params.KindEnum, Required: true, Allowed: []any{store.AnswerHave, store.AnswerHaveNever}}
	answer2Spec = params.Spec{Name: "answer2", Kind: params.KindEnum, Required: true, Allowed: []any{store.AnswerHave, store.AnswerHaveNever}}
)

func (s *Server) neverHaveIEver(rq *request) (any, error) {
	if rq.isPost() {
		return s.neverHaveIEverPost(rq)
	}
	return s.neverHaveIEverGet(rq)
}

func answerOptions() []ParameterOption {
	return []ParameterOption{
		{Label: store.AnswerHave, Value: store.AnswerHave},
		{Label: store.AnswerHaveNever, Value: store.AnswerHaveNever},
	}
}

func (s *Server) neverHaveIEverGet(rq *request) (any, error) {
	return ActionGetResponse{
		Type:        typeAction,
		Title:       "🚀 Never Have I Ever",
		Icon:        s.icon(rq.r, "dare.png"),
		Description: "🕶️ Spill the tea, no holding back! Never Have I Ever, where we find out who's been naughty, who's been nice, and who's just plain shady. Get ready to confess or play it cool… but remember, the truth always comes out! 😏✨",
		Label:       "Choose your answer",
		Links: &ActionLinks{Actions: []LinkedAction{{
			Type:  typeTransaction,
			Label: "Submit",
			Href:  fmt.Sprintf("/api/actions/never-have-i-ever?clusterurl=%s&answer1={answer1}&answer2={answer2}", rq.cluster.Name),
			Parameters: []ActionParameter{
				{Name: "answer1", Label: nhieStatement, Type: "radio", Required: true, Options: answerOptions()},
				{Name: "answer2", Label: nhieMajority, Type: "radio", Required: true, Options: answerOptions()},
			},
		}}},
	}, nil
}

// neverHaveIEverPost builds the on-chain answer transaction, then stores the
// answers and names the side currently winning. Nothing is stored when the
// transaction cannot be built.
func (s *Server) neverHaveIEverPost(rq *request) (any, error) {
	account, body, err := rq.account()
	if err != nil {
		return nil, err
	}

	// answers may also arrive in the POST data of newer blink clients
	values := rq.r.URL.Query()
	for k, v := range body.Data {
		if !values.Has(k) {
			values.Set(k, v)
		}
	}
	answers := params.NewResolver(values, rq.log)
	answer1, err := answers.String(answer1Spec)
	if err != nil {
		return nil, err
	}
	answer2, err := answers.String(answer2Spec)
	if err != nil {
		return nil, err
	}
	if !s.store.Enabled() {
		return nil, apperr.Dependency("database not configured", store.ErrNotConfigured)
	}

	tx, err := s.timed("never-have-i-ever", func() (string, error) {
		return rq.sol.BuildNeverHaveIEverTransaction(rq.ctx(), account, answer1)
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.SaveAnswer(rq.ctx(), account.String(), answer1, answer2); err != nil {
		return nil, err
	}
	pct, err := s.store.AnswerPercentages(rq.ctx())
	if err != nil {
		return nil, err
	}
	winner := store.AnswerHaveNever
	if pct.Have > pct.HaveNever {
		winner = store.AnswerHave
	}
	rq.log.WithFields(logrus.Fields{
		"have":       pct.Have,
		"have_never": pct.HaveNever,
		"total":      pct.Total,
	}).Info("[neverHaveIEver] answer stored")

	s.record(rq, store.ActionRecord{
		Action:  "never-have-i-ever",
		Account: account.String(),
		Status:  store.StatusBuilt,
	})

	return ActionPostResponse{
		Type:        typeTransaction,
		Transaction: tx,
		Message:     fmt.Sprintf("Players who answered '%s' for question 2 are the winners!", winner),
	}, nil
}
