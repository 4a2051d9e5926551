package actions

import (
	"fmt"
	"net/url"
	"strconv"

	"blinks/apperr"
	"blinks/backend"
	"blinks/cluster"
	"blinks/params"
	"blinks/solprogram"
	"blinks/store"
)

func (s *Server) submitVote(rq *request) (any, error) {
	if rq.isPost() {
		return s.submitVotePost(rq)
	}
	return s.submitVoteGet(rq)
}

// submitVoteGet - one vote button per submission of the challenge
func (s *Server) submitVoteGet(rq *request) (any, error) {
	id, err := rq.params.Int(params.Spec{Name: "challengeID", Required: true})
	if err != nil {
		return nil, err
	}
	ch, err := s.challenge(rq, id, true)
	if err != nil {
		return nil, err
	}

	var actions []LinkedAction
	for _, p := range ch.ParticipantList() {
		if p.SubmissionID == 0 {
			continue
		}
		actions = append(actions, LinkedAction{
			Type:  typeTransaction,
			Label: fmt.Sprintf("Vote for player %d", p.PlayerID),
			Href: fmt.Sprintf("/api/actions/submit-vote?clusterurl=%s&challengeId=%d&submissionId=%d",
				rq.cluster.Name, ch.ChallengeID, p.SubmissionID),
		})
	}

	resp := ActionGetResponse{
		Type:        typeAction,
		Title:       "Vote on " + ch.ChallengeName,
		Icon:        s.icon(rq.r, "vote.png"),
		Description: ch.ChallengeDescription,
		Label:       "Vote",
		Links:       &ActionLinks{Actions: actions},
	}
	if len(actions) == 0 {
		resp.Disabled = true
		resp.Error = &ActionError{Message: "No submissions to vote on yet"}
	}
	return resp, nil
}

// submitVotePost - fee transaction plus a signed next link carrying the vote
func (s *Server) submitVotePost(rq *request) (any, error) {
	id, submissionID, err := voteParams(rq)
	if err != nil {
		return nil, err
	}
	account, _, err := rq.account()
	if err != nil {
		return nil, err
	}

	tx, err := s.timed("submit-vote", func() (string, error) {
		return rq.sol.BuildFeeTransaction(rq.ctx(), account)
	})
	if err != nil {
		return nil, err
	}

	next := s.next.sign("/api/actions/submit-vote/next-action", url.Values{
		"clusterurl":   {string(rq.cluster.Name)},
		"challengeId":  {strconv.FormatInt(id, 10)},
		"submissionId": {strconv.FormatInt(submissionID, 10)},
	})
	s.record(rq, store.ActionRecord{
		Action:      "submit-vote",
		Account:     account.String(),
		Currency:    string(cluster.SOL),
		Amount:      solprogram.FeeAmount,
		ChallengeID: &id,
		Status:      store.StatusBuilt,
	})

	return ActionPostResponse{
		Type:        typeTransaction,
		Transaction: tx,
		Message:     "Submit your vote",
		Links:       &PostResponseLinks{Next: &NextActionLink{Type: typePost, Href: next}},
	}, nil
}

// submitVoteNext - the fee was signed, record the vote off-chain
func (s *Server) submitVoteNext(rq *request) (_ any, err error) {
	q := rq.r.URL.Query()
	if err := s.next.claim(rq.r.URL.Path, q); err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			s.next.release(q)
		}
	}()
	id, submissionID, err := voteParams(rq)
	if err != nil {
		return nil, err
	}
	account, _, err := rq.account()
	if err != nil {
		return nil, err
	}

	err = s.backend.SubmitVote(rq.ctx(), rq.cluster, backend.VoteRequest{
		ChallengeID:  id,
		SubmissionID: submissionID,
		UserAddress:  account.String(),
	})
	if err != nil {
		return nil, err
	}
	s.record(rq, store.ActionRecord{
		Action:      "submit-vote",
		Account:     account.String(),
		ChallengeID: &id,
		Status:      store.StatusVoted,
	})
	rq.log.Infof("[submitVoteNext] vote on submission %d of challenge %d recorded", submissionID, id)

	return CompletedAction{
		Type:        typeCompleted,
		Title:       "Your vote has been recorded!",
		Icon:        s.icon(rq.r, "vote.png"),
		Label:       "Vote recorded",
		Description: fmt.Sprintf("Your vote has been recorded!\nOpen Catoff App: %s%d", appChallengeURL, id),
	}, nil
}

func voteParams(rq *request) (int64, int64, error) {
	id, err := rq.params.Int(params.Spec{Name: "challengeId", Required: true})
	if err != nil {
		return 0, 0, err
	}
	submissionID, err := rq.params.Int(params.Spec{Name: "submissionId", Required: true})
	if err != nil {
		return 0, 0, err
	}
	if id <= 0 || submissionID <= 0 {
		return 0, 0, apperr.Validation("submissionId", "Challenge and submission IDs must be positive")
	}
	return id, submissionID, nil
}
