package actions

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"blinks/cluster"
	"blinks/params"
)

const healthTimeout = 5 * time.Second

func (s *Server) handleActionsJSON(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, ActionsJSON{Rules: []ActionRule{
		{PathPattern: "/api/actions/**", APIPath: "/api/actions/**"},
	}}, http.StatusOK)
}

// transactionStatus - GET /api/transactions/status?signature=
func (s *Server) transactionStatus(rq *request) (any, error) {
	sig, err := rq.params.String(params.Spec{Name: "signature", Required: true})
	if err != nil {
		return nil, err
	}
	return rq.sol.GetTransactionStatus(rq.ctx(), sig)
}

// history - GET /api/actions/history?account=&limit=
func (s *Server) history(rq *request) (any, error) {
	account, err := rq.params.String(params.Spec{Name: "account", Required: true})
	if err != nil {
		return nil, err
	}
	limit, err := rq.params.Int(params.Spec{Name: "limit", Default: float64(10)})
	if err != nil {
		return nil, err
	}
	return s.store.History(rq.ctx(), account, int(limit))
}

// handleHealth checks every configured cluster and the database concurrently.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	names := s.registry.Names()
	results := make([]string, len(names))
	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			results[i] = "ok"
			if err := s.healthRPC(ctx, name); err != nil {
				s.log.WithError(err).Warnf("health: cluster %s unreachable", name)
				results[i] = "unreachable"
			}
			return nil
		})
	}

	database := "disabled"
	if s.store.Enabled() {
		g.Go(func() error {
			database = "ok"
			if err := s.store.Ping(ctx); err != nil {
				s.log.WithError(err).Warn("health: database unreachable")
				database = "unreachable"
			}
			return nil
		})
	}
	_ = g.Wait()

	resp := HealthResponse{Status: "ok", Clusters: make(map[string]string, len(names)), Database: database}
	status := http.StatusOK
	for i, name := range names {
		resp.Clusters[string(name)] = results[i]
		if results[i] != "ok" && name == s.defaultCluster() {
			resp.Status, status = "unhealthy", http.StatusServiceUnavailable
		}
	}
	if database == "unreachable" {
		resp.Status, status = "unhealthy", http.StatusServiceUnavailable
	}
	respondJSON(w, resp, status)
}

// defaultCluster is devnet when configured, else the first configured cluster.
func (s *Server) defaultCluster() cluster.Name {
	names := s.registry.Names()
	for _, n := range names {
		if n == cluster.Devnet {
			return n
		}
	}
	if len(names) > 0 {
		return names[0]
	}
	return cluster.Devnet
}
