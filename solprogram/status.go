package solprogram

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/AlekSi/pointer"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"blinks/apperr"
)

// GetTransactionStatus - Check transaction status
func (c *Client) GetTransactionStatus(ctx context.Context, signature string) (*TransactionStatusResponse, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, apperr.Validation("signature", "Invalid transaction signature")
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// Get transaction details
	result, err := c.RPC.GetTransaction(
		ctx,
		sig,
		&rpc.GetTransactionOpts{
			Encoding:   solana.EncodingBase64,
			Commitment: rpc.CommitmentConfirmed,
			// blink wallets may sign v0 messages
			MaxSupportedTransactionVersion: pointer.ToUint64(rpc.MaxSupportedTransactionVersion0),
		},
	)
	response := &TransactionStatusResponse{
		Signature:   signature,
		ExplorerURL: c.Cluster.ExplorerTxURL(signature),
	}
	switch {
	case errors.Is(err, rpc.ErrNotFound), err == nil && result == nil:
		c.log.Debugf("[GetTransactionStatus] %s not found", signature)
		response.Status = StatusNotFound
		return response, nil
	case err != nil:
		c.log.WithError(err).Errorf("[GetTransactionStatus] lookup of %s failed", signature)
		return nil, apperr.Dependency("Failed to fetch transaction status", err)
	}

	if result.Meta != nil {
		if result.Meta.Err != nil {
			raw, _ := json.Marshal(result.Meta.Err)
			errMsg := ParseSolanaError(errors.New(string(raw)))
			response.Status = StatusFailed
			response.Error = &errMsg
		} else {
			response.Status = StatusConfirmed
		}
		response.Fee = result.Meta.Fee
	}
	response.Slot = result.Slot
	if result.BlockTime != nil {
		blockTime := int64(*result.BlockTime)
		response.BlockTime = &blockTime
	}
	currentSlot, err := c.RPC.GetSlot(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return nil, apperr.Dependency("Failed to fetch transaction status", err)
	}
	if currentSlot >= result.Slot {
		response.Confirmations = currentSlot - result.Slot
	}
	return response, nil
}
