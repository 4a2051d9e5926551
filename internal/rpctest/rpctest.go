// Package rpctest serves the handful of Solana JSON-RPC methods the blink
// handlers call, backed by in-memory fixtures.
package rpctest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/gagliardetto/solana-go"
)

type request struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// Server is a fake Solana RPC node.
type Server struct {
	*httptest.Server

	Blockhash solana.Hash
	Slot      uint64

	mu            sync.Mutex
	tokenAccounts map[string]solana.PublicKey // owner|mint
	transactions  map[string]json.RawMessage
	calls         map[string]int
	failing       map[string]int
	sendLogs      []string
}

// New starts a fake node. Close it with t.Cleanup(srv.Close).
func New() *Server {
	s := &Server{
		Blockhash:     solana.Hash(solana.NewWallet().PublicKey()),
		Slot:          1000,
		tokenAccounts: map[string]solana.PublicKey{},
		transactions:  map[string]json.RawMessage{},
		calls:         map[string]int{},
		failing:       map[string]int{},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// AddTokenAccount registers account as owner's token account for mint.
func (s *Server) AddTokenAccount(owner, mint, account solana.PublicKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenAccounts[owner.String()+"|"+mint.String()] = account
}

// AddTransaction registers a getTransaction result for sig.
func (s *Server) AddTransaction(sig string, result any) {
	raw, _ := json.Marshal(result)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[sig] = raw
}

// FailWith makes every call to method answer with HTTP status code.
func (s *Server) FailWith(method string, code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing[method] = code
}

// RejectSend makes sendTransaction fail preflight with the given program logs.
func (s *Server) RejectSend(logs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendLogs = logs
}

// Calls reports how many times method was invoked.
func (s *Server) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.calls[req.Method]++
	code, failing := s.failing[req.Method]
	s.mu.Unlock()
	if failing {
		http.Error(w, "upstream unavailable", code)
		return
	}

	var result any
	switch req.Method {
	case "getLatestBlockhash":
		result = map[string]any{
			"context": map[string]any{"slot": s.Slot},
			"value": map[string]any{
				"blockhash":            s.Blockhash.String(),
				"lastValidBlockHeight": s.Slot + 150,
			},
		}
	case "getTokenAccountsByOwner":
		result = s.tokenAccountsByOwner(req.Params)
	case "getTransaction":
		result = s.transaction(req.Params)
	case "getSlot":
		result = s.Slot
	case "getHealth":
		result = "ok"
	case "sendTransaction":
		s.mu.Lock()
		logs := s.sendLogs
		s.mu.Unlock()
		if logs != nil {
			writeJSON(w, map[string]any{
				"jsonrpc": "2.0",
				"id":      req.ID,
				"error": map[string]any{
					"code":    -32002,
					"message": "Transaction simulation failed: Error processing Instruction 0: custom program error: 0x1771",
					"data":    map[string]any{"logs": logs},
				},
			})
			return
		}
		result = solana.SignatureFromBytes(make([]byte, 64)).String()
	default:
		writeJSON(w, map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error":   map[string]any{"code": -32601, "message": "Method not found"},
		})
		return
	}

	writeJSON(w, map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": result})
}

func (s *Server) tokenAccountsByOwner(params []json.RawMessage) any {
	var owner string
	var filter struct {
		Mint string `json:"mint"`
	}
	if len(params) > 0 {
		_ = json.Unmarshal(params[0], &owner)
	}
	if len(params) > 1 {
		_ = json.Unmarshal(params[1], &filter)
	}

	s.mu.Lock()
	account, ok := s.tokenAccounts[owner+"|"+filter.Mint]
	s.mu.Unlock()

	value := []any{}
	if ok {
		value = append(value, map[string]any{
			"pubkey": account.String(),
			"account": map[string]any{
				"lamports":   2039280,
				"owner":      solana.TokenProgramID.String(),
				"data":       []string{"", "base64"},
				"executable": false,
				"rentEpoch":  0,
			},
		})
	}
	return map[string]any{
		"context": map[string]any{"slot": s.Slot},
		"value":   value,
	}
}

func (s *Server) transaction(params []json.RawMessage) any {
	var sig string
	if len(params) > 0 {
		_ = json.Unmarshal(params[0], &sig)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if raw, ok := s.transactions[sig]; ok {
		return raw
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
