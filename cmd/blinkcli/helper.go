package main

import (
	"context"
	"encoding/base64"
	"net/url"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"blinks/cluster"
	"blinks/logger"
	"blinks/solprogram"
)

// clientSign signs the base64 transaction with key, the way a wallet would.
func clientSign(unsignedTx string, key solana.PrivateKey) (*solana.Transaction, error) {
	txBytes, err := base64.StdEncoding.DecodeString(unsignedTx)
	if err != nil {
		return nil, err
	}
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(txBytes))
	if err != nil {
		return nil, err
	}
	_, err = tx.Sign(func(pub solana.PublicKey) *solana.PrivateKey {
		if key.PublicKey().Equals(pub) {
			return &key
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// sender picks the cluster from the action URL; rpcURL overrides its RPC.
func sender(actionURL *url.URL, rpcURL string) (*solprogram.Client, error) {
	name, err := cluster.ParseName(actionURL.Query().Get("clusterurl"))
	if err != nil {
		return nil, err
	}
	registry, err := cluster.NewRegistryFromSettings(cluster.DefaultSettings())
	if err != nil {
		return nil, err
	}
	cfg, err := registry.Resolve(name)
	if err != nil {
		return nil, err
	}
	if rpcURL != "" {
		cfg.RPCURL = rpcURL
	}
	return solprogram.NewClient(cfg, logger.New("warn", "text")), nil
}

func send(ctx context.Context, c *solprogram.Client, tx *solana.Transaction) (string, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return "", err
	}
	return c.SendTransaction(ctx, base64.StdEncoding.EncodeToString(raw))
}
