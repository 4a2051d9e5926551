package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blinks/apperr"
	"blinks/cluster"
	"blinks/logger"
)

type recordingObserver struct {
	mu       sync.Mutex
	outcomes map[string][]string
}

func (o *recordingObserver) ObserveBackend(endpoint, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.outcomes == nil {
		o.outcomes = map[string][]string{}
	}
	o.outcomes[endpoint] = append(o.outcomes[endpoint], outcome)
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) (*Client, cluster.Config) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	opts = append([]Option{WithRetry(3, time.Millisecond), WithAI(srv.URL+"/ai", time.Second)}, opts...)
	c := NewClient(logger.Discard(), opts...)
	cfg := cluster.Config{Name: cluster.Devnet, BackendURL: srv.URL, PartnerAPIKey: "partner-key"}
	return c, cfg
}

func writeEnvelope(w http.ResponseWriter, success bool, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"success": success, "message": message, "data": data})
}

func TestGetChallenge_SendsHeaders(t *testing.T) {
	var gotKey, gotOp, gotPath string
	c, cfg := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotOp = r.Header.Get("operationID")
		gotPath = r.URL.Path
		writeEnvelope(w, true, "", map[string]any{
			"ChallengeID":   42,
			"ChallengeName": "Pushups",
			"Wager":         1.5,
			"Currency":      "USDC",
		})
	})

	ctx := WithOperationID(context.Background(), "req-1")
	ch, err := c.GetChallenge(ctx, cfg, 42)
	require.NoError(t, err)

	assert.Equal(t, "partner-key", gotKey)
	assert.Equal(t, "req-1", gotOp)
	assert.Equal(t, "/challenge/42", gotPath)
	assert.Equal(t, int64(42), ch.ChallengeID)
	assert.Equal(t, "Pushups", ch.ChallengeName)
	assert.Equal(t, 1.5, ch.Wager)
}

func TestRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	obs := &recordingObserver{}
	c, cfg := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeEnvelope(w, true, "", "https://game.catoff.xyz/challenge/77/pushups")
	}, WithObserver(obs))

	link, err := c.GetShareLink(context.Background(), cfg, "pushups")
	require.NoError(t, err)
	assert.Equal(t, "https://game.catoff.xyz/challenge/77/pushups", link)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []string{"ok"}, obs.outcomes["share_link"])
}

func TestGivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	c, cfg := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.GetChallenge(context.Background(), cfg, 1)
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())

	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindDependency, appErr.Kind)
	assert.Equal(t, "Failed to communicate with the challenge service", appErr.Public())

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
}

func TestNoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	c, cfg := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.GetChallenge(context.Background(), cfg, 9)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, http.StatusInternalServerError, apperr.Status(err))
}

func TestUnsuccessfulEnvelope(t *testing.T) {
	c, cfg := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, false, "challenge closed", nil)
	})

	err := c.SubmitVote(context.Background(), cfg, VoteRequest{ChallengeID: 1, SubmissionID: 2, UserAddress: "abc"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsuccessful)
}

func TestCreateChallenge_Body(t *testing.T) {
	var got CreateChallengeRequest
	c, cfg := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/challenge", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeEnvelope(w, true, "", map[string]any{"ChallengeID": 501, "ChallengeName": got.ChallengeName})
	})

	ch, err := c.CreateChallenge(context.Background(), cfg, CreateChallengeRequest{
		ChallengeName: "Run 5k",
		GameID:        GameIDFor(OneVsOne),
		Wager:         2,
		SideBetsWager: 0.2,
		Currency:      "SOL",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(501), ch.ChallengeID)
	assert.Equal(t, 11, got.GameID)
	assert.Equal(t, 0.2, got.SideBetsWager)
}

func TestGenerateDescription(t *testing.T) {
	var got AIDescriptionRequest
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ai", r.URL.Path)
		assert.Empty(t, r.Header.Get("x-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]string{
			"challenge_title":       "Battle of Pushups",
			"challenge_description": "Most pushups wins",
		})
	})

	desc, err := c.GenerateDescription(context.Background(), "pushups", NvN)
	require.NoError(t, err)
	assert.Equal(t, "Battle of Pushups", desc.Title)
	assert.Equal(t, "Most pushups wins", desc.Description)
	assert.Equal(t, "NvN", got.ParticipationType)
	assert.Equal(t, "voting", got.ResultType)
	assert.Equal(t, "pushups", got.Prompt)
}

func TestGenerateDescription_OneVsOne(t *testing.T) {
	var got AIDescriptionRequest
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"challenge_title":"t","challenge_description":"d"}`))
	})

	_, err := c.GenerateDescription(context.Background(), "chess", ZeroVsOne)
	require.NoError(t, err)
	assert.Equal(t, "1v1", got.ParticipationType)
}

func TestCreateBattle_Body(t *testing.T) {
	var got map[string]any
	c, cfg := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/createBattle", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeEnvelope(w, true, "", map[string]any{"ChallengeID": 77})
	})

	ch, err := c.CreateBattle(context.Background(), cfg, CreateBattleRequest{
		ChallengeName:   "Best pizza",
		GameID:          GameNvNVoting,
		AllowSideBets:   true,
		SideWagerAmount: 0.5,
		Unit:            "vote",
		Currency:        "SOL",
		UserNames:       []string{"alice", "bob"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(77), ch.ChallengeID)
	assert.Equal(t, float64(14), got["GameID"])
	assert.Equal(t, 0.5, got["SideWagerAmount"])
	assert.Equal(t, []any{"alice", "bob"}, got["UserNames"])
}

func TestDescribeBattle(t *testing.T) {
	var got AIDescriptionRequest
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"challenge_title":"t","challenge_description":"d"}`))
	})

	desc, err := c.DescribeBattle(context.Background(), "Best pizza", "Naples vs New York")
	require.NoError(t, err)
	assert.Equal(t, "d", desc.Description)
	assert.Equal(t, "NvN", got.ParticipationType)
	assert.Equal(t, "Naples vs New York", got.AdditionalInfo)
}

func TestParticipantList(t *testing.T) {
	ch := Challenge{Players: []Player{
		{PlayerID: 1, Submission: &Submission{ID: 10}},
		{PlayerID: 2},
	}}
	assert.Equal(t, []Participant{{PlayerID: 1, SubmissionID: 10}, {PlayerID: 2}}, ch.ParticipantList())

	ch.Participants = []Participant{{PlayerID: 5, SubmissionID: 50}}
	assert.Equal(t, []Participant{{PlayerID: 5, SubmissionID: 50}}, ch.ParticipantList())
}

func TestOperationID_Fallback(t *testing.T) {
	assert.NotEmpty(t, OperationID(context.Background()))
	assert.Equal(t, "x", OperationID(WithOperationID(context.Background(), "x")))
}
