package solprogram

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"blinks/apperr"
	"blinks/cluster"
)

var (
	ErrNoAssociatedTokenAccount = errors.New("no associated token account found")
	ErrUnsupportedCurrency      = cluster.ErrUnsupportedCurrency
)

// participateMint picks the mint the participate path uses for currency.
// With NativeEscrowSubstitution SOL goes through the USDC mint.
func participateMint(cfg cluster.Config, currency cluster.Currency) (solana.PublicKey, error) {
	switch currency {
	case cluster.SOL:
		if cfg.NativeEscrowSubstitution {
			return cfg.Mint(cluster.USDC)
		}
		return cfg.Mint(cluster.SOL)
	case cluster.USDC, cluster.BONK, cluster.SEND:
		return cfg.Mint(currency)
	default:
		return solana.PublicKey{}, apperr.Validationf("currency", ErrUnsupportedCurrency, "Invalid currency type: %s", currency)
	}
}

// ResolveTokenAccounts looks up the existing token accounts of the escrow
// and the user for currency. Accounts are never created here.
func (c *Client) ResolveTokenAccounts(ctx context.Context, currency cluster.Currency, user solana.PublicKey) (*TokenAccounts, error) {
	cfg := c.Cluster
	if _, err := cfg.DecimalsFor(currency); err != nil {
		return nil, err
	}

	mint, err := participateMint(cfg, currency)
	if err != nil {
		return nil, err
	}

	userOwner := user
	if currency.IsNative() && cfg.NativeEscrowSubstitution {
		userOwner = cfg.EscrowAccount
		c.log.WithField("currency", currency).Warn("[ResolveTokenAccounts] native escrow substitution: user token account resolved against escrow")
	}

	out := &TokenAccounts{Mint: mint}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		acc, err := c.findTokenAccount(gctx, cfg.EscrowAccount, mint)
		if err != nil {
			return fmt.Errorf("escrow: %w", err)
		}
		out.Escrow = acc
		return nil
	})
	g.Go(func() error {
		acc, err := c.findTokenAccount(gctx, userOwner, mint)
		if err != nil {
			return fmt.Errorf("user: %w", err)
		}
		out.User = acc
		return nil
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, ErrNoAssociatedTokenAccount) {
			return nil, apperr.Validationf("account", err, "No associated token account found for %s", currency)
		}
		return nil, apperr.Dependency("Failed to retrieve token accounts", err)
	}

	c.log.WithFields(logrus.Fields{
		"currency": currency,
		"mint":     mint.String(),
		"escrow":   out.Escrow.String(),
		"user":     out.User.String(),
	}).Info("[ResolveTokenAccounts] token accounts resolved")
	return out, nil
}

func (c *Client) findTokenAccount(ctx context.Context, owner, mint solana.PublicKey) (solana.PublicKey, error) {
	start := time.Now()
	res, err := c.RPC.GetTokenAccountsByOwner(ctx, owner,
		&rpc.GetTokenAccountsConfig{Mint: &mint},
		&rpc.GetTokenAccountsOpts{Encoding: solana.EncodingBase64},
	)
	c.observe("getTokenAccountsByOwner", start)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("getTokenAccountsByOwner %s: %w", owner, err)
	}
	if res == nil || len(res.Value) == 0 || res.Value[0] == nil {
		return solana.PublicKey{}, fmt.Errorf("%w: owner %s mint %s", ErrNoAssociatedTokenAccount, owner, mint)
	}
	return res.Value[0].Pubkey, nil
}
