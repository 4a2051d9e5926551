package solprogram

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"blinks/apperr"
	"blinks/cluster"
)

// BuildFeeTransfer builds the value transfer from payer to recipient. SOL
// goes through the system program; SPL currencies transfer between the
// associated token accounts of both sides.
func BuildFeeTransfer(
	cfg cluster.Config,
	payer solana.PublicKey,
	recipient solana.PublicKey,
	currency cluster.Currency,
	amount decimal.Decimal,
) ([]solana.Instruction, error) {
	decimals, err := cfg.DecimalsFor(currency)
	if err != nil {
		return nil, err
	}
	baseUnits, err := ScaleToUint64(amount, decimals)
	if err != nil {
		return nil, err
	}

	if currency.IsNative() {
		return []solana.Instruction{
			system.NewTransferInstruction(baseUnits, payer, recipient).Build(),
		}, nil
	}

	mint, err := cfg.Mint(currency)
	if err != nil {
		return nil, err
	}
	senderATA, _, err := solana.FindAssociatedTokenAddress(payer, mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive sender token account: %w", err)
	}
	recipientATA, _, err := solana.FindAssociatedTokenAddress(recipient, mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive recipient token account: %w", err)
	}

	return []solana.Instruction{
		token.NewTransferInstruction(baseUnits, senderATA, recipientATA, payer, []solana.PublicKey{}).Build(),
	}, nil
}

// BuildFeeTransaction collects FeeAmount SOL from payer into the treasury.
func (c *Client) BuildFeeTransaction(ctx context.Context, payer solana.PublicKey) (string, error) {
	ixs, err := BuildFeeTransfer(c.Cluster, payer, c.Cluster.Treasury, cluster.SOL, decimal.RequireFromString(FeeAmount))
	if err != nil {
		return "", err
	}
	return c.BuildTransaction(ctx, ixs, payer)
}

// BuildParticipateTransaction resolves token accounts, scales the amount and
// wraps a single participate instruction into a transaction paid by the user.
func (c *Client) BuildParticipateTransaction(ctx context.Context, intent TransactionIntent) (string, error) {
	cfg := c.Cluster

	decimals, err := cfg.DecimalsFor(intent.Currency)
	if err != nil {
		return "", err
	}
	amount, err := ParseAmount("amount", intent.Amount)
	if err != nil {
		return "", err
	}
	baseUnits, err := ScaleToUint64(amount, decimals)
	if err != nil {
		return "", err
	}

	accounts, err := c.ResolveTokenAccounts(ctx, intent.Currency, intent.User)
	if err != nil {
		return "", err
	}

	ix, err := BuildParticipateInstruction(cfg.ProgramID,
		ParticipateAccounts{
			User:               intent.User,
			UserTokenAccount:   accounts.User,
			EscrowTokenAccount: accounts.Escrow,
			EscrowAccount:      cfg.EscrowAccount,
		},
		ParticipateArgs{
			Currency:    string(intent.Currency),
			Amount:      baseUnits,
			ChallengeID: intent.ChallengeID,
			PlayerID:    intent.PlayerID,
			Type:        intent.Kind,
		})
	if err != nil {
		return "", err
	}

	c.log.WithFields(logrus.Fields{
		"kind":         intent.Kind.String(),
		"challenge_id": intent.ChallengeID,
		"amount":       baseUnits,
		"currency":     intent.Currency,
	}).Info("[BuildParticipateTransaction] participate instruction built")

	return c.BuildTransaction(ctx, []solana.Instruction{ix}, intent.User)
}

// BuildNeverHaveIEverTransaction records answer on the Never Have I Ever program.
func (c *Client) BuildNeverHaveIEverTransaction(ctx context.Context, user solana.PublicKey, answer string) (string, error) {
	if c.Cluster.NeverHaveIEverProgramID.IsZero() {
		return "", apperr.Configuration("Never Have I Ever program not configured",
			fmt.Errorf("never_have_i_ever_program_id missing on %s", c.Cluster.Name))
	}
	ix, err := BuildProcessStringInputInstruction(c.Cluster.NeverHaveIEverProgramID, user, NeverHaveIEverPrompt, answer)
	if err != nil {
		return "", err
	}
	return c.BuildTransaction(ctx, []solana.Instruction{ix}, user)
}
