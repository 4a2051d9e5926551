// Package backend talks to the Catoff REST API and the AI description
// service. Both are reached over plain JSON/HTTP with retries on 5xx and
// network failures.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"blinks/apperr"
	"blinks/cluster"
)

var ErrUnsuccessful = errors.New("backend reported failure")

// StatusError is a non-2xx answer.
type StatusError struct {
	Endpoint string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: http error %d: %s", e.Endpoint, e.Code, e.Body)
}

// Observer receives one outcome per logical call (after retries).
type Observer interface {
	ObserveBackend(endpoint, outcome string)
}

type Client struct {
	http            *http.Client
	log             logrus.FieldLogger
	observer        Observer
	timeout         time.Duration
	aiURL           string
	aiTimeout       time.Duration
	maxAttempts     int
	initialInterval time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

func WithObserver(o Observer) Option { return func(c *Client) { c.observer = o } }

func WithTimeout(d time.Duration) Option { return func(c *Client) { c.timeout = d } }

// WithRetry sets the attempt cap and the first backoff interval.
func WithRetry(maxAttempts int, initial time.Duration) Option {
	return func(c *Client) {
		c.maxAttempts = maxAttempts
		c.initialInterval = initial
	}
}

func WithAI(endpoint string, timeout time.Duration) Option {
	return func(c *Client) {
		c.aiURL = endpoint
		c.aiTimeout = timeout
	}
}

func NewClient(log logrus.FieldLogger, opts ...Option) *Client {
	c := &Client{
		http:            &http.Client{},
		log:             log,
		timeout:         100 * time.Second,
		aiURL:           "https://ai-api.catoff.xyz/generate-description-x-api-key/",
		aiTimeout:       100 * time.Second,
		maxAttempts:     5,
		initialInterval: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxAttempts < 1 {
		c.maxAttempts = 1
	}
	return c
}

type operationIDKey struct{}

// WithOperationID tags ctx so outbound calls carry the caller's request id.
func WithOperationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, operationIDKey{}, id)
}

// OperationID returns the id stored by WithOperationID or a fresh one.
func OperationID(ctx context.Context) string {
	if id, ok := ctx.Value(operationIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

// CreateChallenge - POST /challenge
func (c *Client) CreateChallenge(ctx context.Context, cfg cluster.Config, req CreateChallengeRequest) (*Challenge, error) {
	c.log.WithField("cluster", cfg.Name).Infof("[CreateChallenge] %s at %s", req.ChallengeName, cfg.BackendURL)
	ch, err := call[Challenge](ctx, c, "create_challenge", http.MethodPost, cfg.BackendURL+"/challenge", cfg.PartnerAPIKey, req)
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// GetChallenge - GET /challenge/:id
func (c *Client) GetChallenge(ctx context.Context, cfg cluster.Config, id int64) (*Challenge, error) {
	endpoint := cfg.BackendURL + "/challenge/" + strconv.FormatInt(id, 10)
	ch, err := call[Challenge](ctx, c, "get_challenge", http.MethodGet, endpoint, cfg.PartnerAPIKey, nil)
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// GetShareLink - GET /challenge/share/:slug, answers with the share URL
func (c *Client) GetShareLink(ctx context.Context, cfg cluster.Config, slug string) (string, error) {
	endpoint := cfg.BackendURL + "/challenge/share/" + url.PathEscape(slug)
	return call[string](ctx, c, "share_link", http.MethodGet, endpoint, cfg.PartnerAPIKey, nil)
}

// SubmitVote - POST /player/submission/vote
func (c *Client) SubmitVote(ctx context.Context, cfg cluster.Config, req VoteRequest) error {
	_, err := call[json.RawMessage](ctx, c, "submit_vote", http.MethodPost, cfg.BackendURL+"/player/submission/vote", cfg.PartnerAPIKey, req)
	return err
}

// CreateBattle creates a voting battle between the named users.
func (c *Client) CreateBattle(ctx context.Context, cfg cluster.Config, req CreateBattleRequest) (*Challenge, error) {
	c.log.Infof("[CreateBattle] %q with %d users", req.ChallengeName, len(req.UserNames))
	ch, err := call[Challenge](ctx, c, "create_battle", http.MethodPost, cfg.BackendURL+"/createBattle", cfg.PartnerAPIKey, req)
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// GenerateDescription asks the AI service for a challenge title and
// description. The service answers without the usual envelope.
func (c *Client) GenerateDescription(ctx context.Context, name string, participationType int) (*AIDescription, error) {
	body := AIDescriptionRequest{
		Prompt:            name,
		ParticipationType: "1v1",
		ResultType:        "voting",
	}
	if participationType == NvN {
		body.ParticipationType = "NvN"
	}
	c.log.Infof("[GenerateDescription] battle %q", name)
	return c.describe(ctx, body)
}

// DescribeBattle is GenerateDescription for an NvN poll with extra context.
func (c *Client) DescribeBattle(ctx context.Context, name, info string) (*AIDescription, error) {
	c.log.Infof("[DescribeBattle] battle %q", name)
	return c.describe(ctx, AIDescriptionRequest{
		Prompt:            name,
		ParticipationType: "NvN",
		ResultType:        "voting",
		AdditionalInfo:    info,
	})
}

func (c *Client) describe(ctx context.Context, body AIDescriptionRequest) (*AIDescription, error) {
	raw, err := c.doWithRetry(ctx, "ai_description", http.MethodPost, c.aiURL, "", body, c.aiTimeout)
	if err != nil {
		return nil, c.fail("ai_description", "Failed to generate challenge description", err)
	}
	var out AIDescription
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, c.fail("ai_description", "Failed to generate challenge description", fmt.Errorf("decode: %w", err))
	}
	c.observe("ai_description", "ok")
	return &out, nil
}

func call[T any](ctx context.Context, c *Client, endpoint, method, target, apiKey string, body any) (T, error) {
	var zero T
	raw, err := c.doWithRetry(ctx, endpoint, method, target, apiKey, body, c.timeout)
	if err != nil {
		return zero, c.fail(endpoint, "Failed to communicate with the challenge service", err)
	}
	var env Envelope[T]
	if err := json.Unmarshal(raw, &env); err != nil {
		return zero, c.fail(endpoint, "Failed to communicate with the challenge service", fmt.Errorf("%s: decode: %w", endpoint, err))
	}
	if !env.Success {
		return zero, c.fail(endpoint, "Failed to communicate with the challenge service", fmt.Errorf("%w: %s: %s", ErrUnsuccessful, endpoint, env.Message))
	}
	c.observe(endpoint, "ok")
	return env.Data, nil
}

// doWithRetry sends the request and returns the raw 2xx body. 5xx and
// transport errors are retried with exponential backoff; other statuses stop
// immediately. Each attempt gets its own timeout.
func (c *Client) doWithRetry(ctx context.Context, endpoint, method, target, apiKey string, body any, timeout time.Duration) ([]byte, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("%s: encode: %w", endpoint, err)
		}
	}
	opID := OperationID(ctx)

	attempt := func() ([]byte, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(attemptCtx, method, target, reader)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("operationID", opID)
		if apiKey != "" {
			req.Header.Set("x-api-key", apiKey)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, &StatusError{Endpoint: endpoint, Code: resp.StatusCode, Body: string(raw)}
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, backoff.Permanent(&StatusError{Endpoint: endpoint, Code: resp.StatusCode, Body: string(raw)})
		}
		return raw, nil
	}

	policy := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(c.initialInterval),
		backoff.WithMaxInterval(10*c.initialInterval),
		backoff.WithMaxElapsedTime(0),
	)
	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.maxAttempts-1)), ctx)

	return backoff.RetryNotifyWithData(attempt, b, func(err error, next time.Duration) {
		c.log.WithError(err).WithField("operationID", opID).
			Warnf("[%s] retrying in %s", endpoint, next)
	})
}

func (c *Client) fail(endpoint, message string, err error) error {
	c.observe(endpoint, "error")
	c.log.WithError(err).Errorf("[%s] failed", endpoint)
	return apperr.Dependency(message, err)
}

func (c *Client) observe(endpoint, outcome string) {
	if c.observer != nil {
		c.observer.ObserveBackend(endpoint, outcome)
	}
}
