// Package actions serves the Catoff blinks: Solana Actions endpoints that
// describe a challenge operation on GET and hand back an unsigned
// transaction on POST.
package actions

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"blinks/apperr"
	"blinks/backend"
	"blinks/cache"
	"blinks/cluster"
	"blinks/metrics"
	"blinks/params"
	"blinks/solprogram"
	"blinks/store"
)

const (
	actionVersion = "2.1.3"
	maxBodyBytes  = 64 << 10

	appChallengeURL = "https://game.catoff.xyz/challenge/"
	dialURL         = "https://dial.to/?action=solana-action:"
)

// ChallengeService is the off-chain side the handlers depend on.
type ChallengeService interface {
	CreateChallenge(ctx context.Context, cfg cluster.Config, req backend.CreateChallengeRequest) (*backend.Challenge, error)
	GetChallenge(ctx context.Context, cfg cluster.Config, id int64) (*backend.Challenge, error)
	GetShareLink(ctx context.Context, cfg cluster.Config, slug string) (string, error)
	SubmitVote(ctx context.Context, cfg cluster.Config, req backend.VoteRequest) error
	GenerateDescription(ctx context.Context, name string, participationType int) (*backend.AIDescription, error)
	CreateBattle(ctx context.Context, cfg cluster.Config, req backend.CreateBattleRequest) (*backend.Challenge, error)
	DescribeBattle(ctx context.Context, name, info string) (*backend.AIDescription, error)
}

// Options - dependencies and settings of a Server
type Options struct {
	Registry  *cluster.Registry
	Pool      *solprogram.Pool
	Backend   ChallengeService
	Cache     cache.ChallengeCache
	Store     *store.Store
	Metrics   *metrics.Metrics
	Log       logrus.FieldLogger
	Now       func() time.Time
	HealthRPC func(ctx context.Context, name cluster.Name) error

	// PublicBaseURL replaces the request origin in icons and links when
	// IsProd is set.
	PublicBaseURL      string
	IsProd             bool
	ContinuationSecret string
	CORSOrigins        []string
}

type Server struct {
	registry *cluster.Registry
	pool     *solprogram.Pool
	backend  ChallengeService
	cache    cache.ChallengeCache
	store    *store.Store
	metrics  *metrics.Metrics
	log      logrus.FieldLogger
	now      func() time.Time
	next     *continuation

	healthRPC func(ctx context.Context, name cluster.Name) error

	publicBaseURL string
	isProd        bool
	corsOrigins   map[string]bool
}

func NewServer(opts Options) *Server {
	s := &Server{
		registry:      opts.Registry,
		pool:          opts.Pool,
		backend:       opts.Backend,
		cache:         opts.Cache,
		store:         opts.Store,
		metrics:       opts.Metrics,
		log:           opts.Log,
		now:           opts.Now,
		healthRPC:     opts.HealthRPC,
		publicBaseURL: strings.TrimRight(opts.PublicBaseURL, "/"),
		isProd:        opts.IsProd,
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.next = newContinuation(opts.ContinuationSecret, s.now)
	if s.cache == nil {
		s.cache = cache.Nop{}
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	if s.healthRPC == nil {
		s.healthRPC = s.rpcHealth
	}
	if len(opts.CORSOrigins) > 0 {
		s.corsOrigins = make(map[string]bool, len(opts.CORSOrigins))
		for _, o := range opts.CORSOrigins {
			s.corsOrigins[o] = true
		}
	}
	if !s.next.enabled() {
		s.log.Warn("continuation secret not set: next-action parameters are trusted as sent")
	}
	return s
}

// Routes returns the full handler chain.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/actions.json", allow(s.handleActionsJSON, http.MethodGet))
	mux.Handle("/api/actions/create-challenge", allow(s.action("create-challenge", s.createChallenge), http.MethodGet, http.MethodPost))
	mux.Handle("/api/actions/create-challenge/next-action", allow(s.action("create-challenge-next", s.createChallengeNext), http.MethodPost))
	mux.Handle("/api/actions/create-poll", allow(s.action("create-poll", s.createPoll), http.MethodGet, http.MethodPost))
	mux.Handle("/api/actions/create-poll/next-action", allow(s.action("create-poll-next", s.createPollNext), http.MethodPost))
	mux.Handle("/api/actions/join-challenge", allow(s.action("join-challenge", s.joinChallenge), http.MethodGet, http.MethodPost))
	mux.Handle("/api/actions/side-bet", allow(s.action("side-bet", s.sideBet), http.MethodGet, http.MethodPost))
	mux.Handle("/api/actions/submit-vote", allow(s.action("submit-vote", s.submitVote), http.MethodGet, http.MethodPost))
	mux.Handle("/api/actions/submit-vote/next-action", allow(s.action("submit-vote-next", s.submitVoteNext), http.MethodPost))
	mux.Handle("/api/actions/never-have-i-ever", allow(s.action("never-have-i-ever", s.neverHaveIEver), http.MethodGet, http.MethodPost))
	mux.Handle("/api/actions/history", allow(s.action("history", s.history), http.MethodGet))
	mux.Handle("/api/transactions/status", allow(s.action("transaction-status", s.transactionStatus), http.MethodGet))
	mux.Handle("/health", allow(s.handleHealth, http.MethodGet))
	mux.Handle("/metrics", allow(s.metrics.Handler().ServeHTTP, http.MethodGet))

	var h http.Handler = mux
	h = s.cors(h)
	h = s.recoverer(h)
	h = s.logRequests(h)
	h = requestID(h)
	return h
}

// request carries what every handler needs once the cluster is resolved.
type request struct {
	r       *http.Request
	id      string
	params  *params.Resolver
	cluster cluster.Config
	sol     *solprogram.Client
	log     logrus.FieldLogger
}

func (rq *request) ctx() context.Context { return rq.r.Context() }

func (rq *request) isPost() bool { return rq.r.Method == http.MethodPost }

type actionFunc func(rq *request) (any, error)

var clusterSpec = params.Spec{
	Name:    "clusterurl",
	Kind:    params.KindEnum,
	Allowed: []any{string(cluster.Devnet), string(cluster.Mainnet), string(cluster.Staging)},
	Default: string(cluster.Devnet),
}

// action resolves the cluster, runs h and writes its result or error.
func (s *Server) action(name string, h actionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := backend.OperationID(r.Context())
		log := s.log.WithFields(logrus.Fields{"request_id": id, "action": name})

		out, err := func() (any, error) {
			resolver := params.NewResolver(r.URL.Query(), log)
			raw, err := resolver.String(clusterSpec)
			if err != nil {
				return nil, err
			}
			cname, err := cluster.ParseName(raw)
			if err != nil {
				return nil, err
			}
			cfg, err := s.registry.Resolve(cname)
			if err != nil {
				return nil, err
			}
			sol, err := s.pool.For(cname)
			if err != nil {
				return nil, err
			}
			w.Header().Set("X-Blockchain-Ids", cfg.BlockchainID())
			return h(&request{
				r:       r,
				id:      id,
				params:  resolver,
				cluster: cfg,
				sol:     sol,
				log:     log.WithField("cluster", cfg.Name),
			})
		}()

		status := http.StatusOK
		if err != nil {
			status = apperr.Status(err)
			if status >= http.StatusInternalServerError {
				log.WithError(err).Error("action failed")
			} else {
				log.WithError(err).Warn("action rejected")
			}
			respondError(w, apperr.PublicMessage(err), status)
		} else {
			respondJSON(w, out, status)
		}
		s.metrics.ObserveRequest(name, r.Method, status)
	}
}

// account decodes the POST body and validates the wallet key.
func (rq *request) account() (solana.PublicKey, *ActionPostRequest, error) {
	var body ActionPostRequest
	dec := json.NewDecoder(io.LimitReader(rq.r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		return solana.PublicKey{}, nil, apperr.Validation("body", "Invalid request body")
	}
	pk, err := solana.PublicKeyFromBase58(strings.TrimSpace(body.Account))
	if err != nil {
		rq.log.Warnf("invalid account public key: %q", body.Account)
		return solana.PublicKey{}, nil, apperr.Validation("account", "Invalid account public key")
	}
	return pk, &body, nil
}

// baseURL is the origin icons and absolute links are built on.
func (s *Server) baseURL(r *http.Request) string {
	if s.isProd && s.publicBaseURL != "" {
		return s.publicBaseURL
	}
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func (s *Server) icon(r *http.Request, file string) string {
	return s.baseURL(r) + "/" + file
}

// joinBaseURL is where shared join blinks point.
func (s *Server) joinBaseURL(r *http.Request) string {
	if s.publicBaseURL != "" {
		return s.publicBaseURL
	}
	return s.baseURL(r)
}

// record stores a row for rec; failures are only logged.
func (s *Server) record(rq *request, rec store.ActionRecord) {
	rec.RequestID = rq.id
	rec.Cluster = string(rq.cluster.Name)
	if err := s.store.RecordAction(rq.ctx(), &rec); err != nil {
		rq.log.WithError(err).Warn("failed to record action")
	}
}

// challenge fetches a challenge; describe requests read through the cache.
func (s *Server) challenge(rq *request, id int64, cached bool) (*backend.Challenge, error) {
	if cached {
		if ch, ok := s.cache.Get(rq.ctx(), rq.cluster.Name, id); ok {
			rq.log.Debugf("challenge %d served from cache", id)
			return &ch, nil
		}
	}
	ch, err := s.backend.GetChallenge(rq.ctx(), rq.cluster, id)
	if err != nil {
		return nil, err
	}
	s.cache.Set(rq.ctx(), rq.cluster.Name, *ch)
	return ch, nil
}

// timed runs build and records its duration under action.
func (s *Server) timed(action string, build func() (string, error)) (string, error) {
	start := time.Now()
	tx, err := build()
	if err == nil {
		s.metrics.ObserveBuild(action, time.Since(start))
	}
	return tx, err
}

func (s *Server) rpcHealth(ctx context.Context, name cluster.Name) error {
	c, err := s.pool.For(name)
	if err != nil {
		return err
	}
	return c.HealthCheck(ctx)
}
