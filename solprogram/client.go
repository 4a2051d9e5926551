package solprogram

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/sirupsen/logrus"

	"blinks/cluster"
)

// RPCObserver receives the latency of every RPC call the builders make.
type RPCObserver interface {
	ObserveRPC(method string, d time.Duration)
}

// Client wraps Solana RPC client for one cluster
type Client struct {
	RPC      *rpc.Client
	Cluster  cluster.Config
	log      logrus.FieldLogger
	observer RPCObserver
}

// NewClient creates new Solana client for cfg
func NewClient(cfg cluster.Config, log logrus.FieldLogger) *Client {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		RPC:     rpc.New(cfg.RPCURL),
		Cluster: cfg,
		log:     log.WithField("cluster", cfg.Name),
	}
}

// BuildTransaction creates unsigned transaction with user as fee payer and
// returns it base64 encoded.
func (c *Client) BuildTransaction(
	ctx context.Context,
	instructions []solana.Instruction,
	payer solana.PublicKey,
) (string, error) {
	start := time.Now()
	recent, err := c.RPC.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	c.observe("getLatestBlockhash", start)
	if err != nil {
		return "", fmt.Errorf("failed to get blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		instructions,
		recent.Value.Blockhash,
		solana.TransactionPayer(payer),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create transaction: %w", err)
	}

	txBytes, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("failed to serialize: %w", err)
	}

	c.log.WithFields(logrus.Fields{
		"payer":        payer.String(),
		"instructions": len(instructions),
		"blockhash":    recent.Value.Blockhash.String(),
	}).Debug("[BuildTransaction] transaction assembled")

	return base64.StdEncoding.EncodeToString(txBytes), nil
}

// SendTransaction sends signed transaction
func (c *Client) SendTransaction(ctx context.Context, signedTxBase64 string) (string, error) {
	tx, err := DecodeTransaction(signedTxBase64)
	if err != nil {
		return "", err
	}

	sig, err := c.RPC.SendTransaction(ctx, tx)
	if err != nil {
		c.log.WithError(err).
			WithField("program_logs", ExtractLogMessages(err)).
			Errorf("send failed: %s", ParseSolanaError(err))
		return "", fmt.Errorf("failed to send: %w", err)
	}

	return sig.String(), nil
}

// HealthCheck - RPC node health
func (c *Client) HealthCheck(ctx context.Context) error {
	status, err := c.RPC.GetHealth(ctx)
	if err != nil {
		return err
	}
	if status != rpc.HealthOk {
		return fmt.Errorf("rpc unhealthy: %s", status)
	}
	return nil
}

func (c *Client) observe(method string, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveRPC(method, time.Since(start))
	}
}

// DecodeTransaction parses a base64 wire transaction.
func DecodeTransaction(b64 string) (*solana.Transaction, error) {
	txBytes, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode: %w", err)
	}

	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(txBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to parse transaction: %w", err)
	}
	return tx, nil
}

// Pool hands out one Client per configured cluster.
type Pool struct {
	registry *cluster.Registry
	log      logrus.FieldLogger
	observer RPCObserver

	mu      sync.Mutex
	clients map[cluster.Name]*Client
}

func NewPool(registry *cluster.Registry, log logrus.FieldLogger) *Pool {
	return &Pool{
		registry: registry,
		log:      log,
		clients:  make(map[cluster.Name]*Client),
	}
}

// Observe attaches o to every client the pool hands out from now on.
func (p *Pool) Observe(o RPCObserver) *Pool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observer = o
	return p
}

// For returns the client of name, creating it on first use.
func (p *Pool) For(name cluster.Name) (*Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[name]; ok {
		return c, nil
	}
	cfg, err := p.registry.Resolve(name)
	if err != nil {
		return nil, err
	}
	c := NewClient(cfg, p.log)
	c.observer = p.observer
	p.clients[name] = c
	return c, nil
}
