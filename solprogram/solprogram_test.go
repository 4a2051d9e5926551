package solprogram

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"net/http"
	"testing"
	"time"

	"github.com/AlekSi/pointer"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blinks/apperr"
	"blinks/cluster"
	"blinks/internal/rpctest"
	"blinks/logger"
)

func devnetConfig(t *testing.T, rpcURL string) cluster.Config {
	t.Helper()
	reg, err := cluster.NewRegistryFromSettings(cluster.DefaultSettings())
	require.NoError(t, err)
	cfg, err := reg.Resolve(cluster.Devnet)
	require.NoError(t, err)
	cfg.RPCURL = rpcURL
	return cfg
}

func newTestClient(t *testing.T) (*Client, *rpctest.Server) {
	t.Helper()
	srv := rpctest.New()
	t.Cleanup(srv.Close)
	return NewClient(devnetConfig(t, srv.URL), logger.Discard()), srv
}

func TestScaleToBaseUnits(t *testing.T) {
	tests := []struct {
		amount   string
		decimals uint8
		want     string
	}{
		{"1.5", 9, "1500000000"},
		{"0.000000001", 9, "1"},
		{"100", 6, "100000000"},
		{"0.1", 6, "100000"},
		{"123456.654321", 6, "123456654321"},
		{"0", 5, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			got, err := ScaleToBaseUnits(decimal.RequireFromString(tt.amount), tt.decimals)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScaleToBaseUnitsRejectsExtraPrecision(t *testing.T) {
	_, err := ScaleToBaseUnits(decimal.RequireFromString("0.0000001"), 6)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAmountPrecision)
	assert.True(t, apperr.IsValidation(err))

	_, err = ScaleToUint64(decimal.RequireFromString("-1"), 6)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = ScaleToUint64(decimal.RequireFromString("100000000000000000000"), 9)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestParticipateArgsEncoding(t *testing.T) {
	data, err := encodeInstruction(ParticipateDisc, ParticipateArgs{
		Currency:    "USDC",
		Amount:      2_000_000,
		ChallengeID: 42,
		PlayerID:    pointer.ToUint64(7),
		Type:        SideBet,
	})
	require.NoError(t, err)

	disc := sha256.Sum256([]byte("global:participate"))
	want := new(bytes.Buffer)
	want.Write(disc[:8])
	_ = binary.Write(want, binary.LittleEndian, uint32(4))
	want.WriteString("USDC")
	_ = binary.Write(want, binary.LittleEndian, uint64(2_000_000))
	_ = binary.Write(want, binary.LittleEndian, uint64(42))
	want.WriteByte(1)
	_ = binary.Write(want, binary.LittleEndian, uint64(7))
	want.WriteByte(1)
	assert.Equal(t, want.Bytes(), data)

	noPlayer, err := encodeInstruction(ParticipateDisc, ParticipateArgs{Currency: "SOL", Amount: 1, ChallengeID: 1})
	require.NoError(t, err)
	// disc + len + "SOL" + amount + id + none + variant
	assert.Len(t, noPlayer, 8+4+3+8+8+1+1)
	assert.Equal(t, byte(0), noPlayer[len(noPlayer)-2])
	assert.Equal(t, byte(JoinChallenge), noPlayer[len(noPlayer)-1])
}

func TestBuildParticipateInstructionAccounts(t *testing.T) {
	program := solana.NewWallet().PublicKey()
	accts := ParticipateAccounts{
		User:               solana.NewWallet().PublicKey(),
		UserTokenAccount:   solana.NewWallet().PublicKey(),
		EscrowTokenAccount: solana.NewWallet().PublicKey(),
		EscrowAccount:      solana.NewWallet().PublicKey(),
	}
	ix, err := BuildParticipateInstruction(program, accts, ParticipateArgs{Currency: "USDC", Amount: 1, ChallengeID: 1})
	require.NoError(t, err)
	assert.Equal(t, program, ix.ProgramID())

	metas := ix.Accounts()
	require.Len(t, metas, 6)
	assert.True(t, metas[0].IsSigner)
	assert.True(t, metas[0].IsWritable)
	assert.Equal(t, accts.EscrowAccount, metas[3].PublicKey)
	assert.Equal(t, SystemProgramID, metas[4].PublicKey)
	assert.Equal(t, TokenProgramID, metas[5].PublicKey)

	_, err = BuildParticipateInstruction(program, accts, ParticipateArgs{Type: ParticipateType(9)})
	assert.Error(t, err)
}

func TestBuildFeeTransferNative(t *testing.T) {
	cfg := devnetConfig(t, "http://unused")
	payer := solana.NewWallet().PublicKey()

	ixs, err := BuildFeeTransfer(cfg, payer, cfg.Treasury, cluster.SOL, decimal.RequireFromString(FeeAmount))
	require.NoError(t, err)
	require.Len(t, ixs, 1)
	assert.Equal(t, solana.SystemProgramID, ixs[0].ProgramID())

	data, err := ixs[0].Data()
	require.NoError(t, err)
	// system transfer: u32 index 2 + u64 lamports
	require.Len(t, data, 12)
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(data[:4]))
	assert.Equal(t, uint64(1), binary.LittleEndian.Uint64(data[4:]))
}

func TestBuildFeeTransferSPL(t *testing.T) {
	cfg := devnetConfig(t, "http://unused")
	payer := solana.NewWallet().PublicKey()

	ixs, err := BuildFeeTransfer(cfg, payer, cfg.Treasury, cluster.USDC, decimal.RequireFromString("1.25"))
	require.NoError(t, err)
	require.Len(t, ixs, 1)
	assert.Equal(t, solana.TokenProgramID, ixs[0].ProgramID())

	mint := cfg.Mints[cluster.USDC]
	senderATA, _, err := solana.FindAssociatedTokenAddress(payer, mint)
	require.NoError(t, err)
	metas := ixs[0].Accounts()
	require.GreaterOrEqual(t, len(metas), 3)
	assert.Equal(t, senderATA, metas[0].PublicKey)
	assert.Equal(t, payer, metas[2].PublicKey)

	data, err := ixs[0].Data()
	require.NoError(t, err)
	assert.Equal(t, uint64(1_250_000), binary.LittleEndian.Uint64(data[1:9]))
}

func TestBuildFeeTransferMissingDecimals(t *testing.T) {
	cfg := devnetConfig(t, "http://unused")
	delete(cfg.Decimals, cluster.BONK)
	_, err := BuildFeeTransfer(cfg, solana.NewWallet().PublicKey(), cfg.Treasury, cluster.BONK, decimal.NewFromInt(1))
	require.Error(t, err)
	assert.ErrorIs(t, err, cluster.ErrMissingDecimals)
}

func TestResolveTokenAccounts(t *testing.T) {
	c, srv := newTestClient(t)
	user := solana.NewWallet().PublicKey()
	mint := c.Cluster.Mints[cluster.BONK]
	escrowATA := solana.NewWallet().PublicKey()
	userATA := solana.NewWallet().PublicKey()
	srv.AddTokenAccount(c.Cluster.EscrowAccount, mint, escrowATA)
	srv.AddTokenAccount(user, mint, userATA)

	accts, err := c.ResolveTokenAccounts(context.Background(), cluster.BONK, user)
	require.NoError(t, err)
	assert.Equal(t, escrowATA, accts.Escrow)
	assert.Equal(t, userATA, accts.User)
	assert.Equal(t, 2, srv.Calls("getTokenAccountsByOwner"))
}

func TestResolveTokenAccountsNativeSubstitution(t *testing.T) {
	c, srv := newTestClient(t)
	require.True(t, c.Cluster.NativeEscrowSubstitution)

	usdc := c.Cluster.Mints[cluster.USDC]
	escrowATA := solana.NewWallet().PublicKey()
	srv.AddTokenAccount(c.Cluster.EscrowAccount, usdc, escrowATA)

	accts, err := c.ResolveTokenAccounts(context.Background(), cluster.SOL, solana.NewWallet().PublicKey())
	require.NoError(t, err)
	assert.Equal(t, usdc, accts.Mint)
	assert.Equal(t, escrowATA, accts.User)
	assert.Equal(t, escrowATA, accts.Escrow)
}

func TestResolveTokenAccountsMissing(t *testing.T) {
	c, _ := newTestClient(t)
	_, err := c.ResolveTokenAccounts(context.Background(), cluster.USDC, solana.NewWallet().PublicKey())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoAssociatedTokenAccount)
}

func TestResolveTokenAccountsMissingDecimals(t *testing.T) {
	c, srv := newTestClient(t)
	delete(c.Cluster.Decimals, cluster.SEND)
	_, err := c.ResolveTokenAccounts(context.Background(), cluster.SEND, solana.NewWallet().PublicKey())
	require.Error(t, err)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindConfiguration, e.Kind)
	assert.Zero(t, srv.Calls("getTokenAccountsByOwner"))
}

func TestBuildParticipateTransaction(t *testing.T) {
	c, srv := newTestClient(t)
	user := solana.NewWallet().PublicKey()
	mint := c.Cluster.Mints[cluster.USDC]
	srv.AddTokenAccount(c.Cluster.EscrowAccount, mint, solana.NewWallet().PublicKey())
	srv.AddTokenAccount(user, mint, solana.NewWallet().PublicKey())

	b64, err := c.BuildParticipateTransaction(context.Background(), TransactionIntent{
		Kind:        JoinChallenge,
		User:        user,
		Currency:    cluster.USDC,
		Amount:      "2.5",
		ChallengeID: 77,
	})
	require.NoError(t, err)

	tx, err := DecodeTransaction(b64)
	require.NoError(t, err)
	assert.Equal(t, srv.Blockhash, tx.Message.RecentBlockhash)
	assert.Equal(t, user, tx.Message.AccountKeys[0])
	require.Len(t, tx.Message.Instructions, 1)

	data := []byte(tx.Message.Instructions[0].Data)
	assert.Equal(t, ParticipateDisc[:], data[:8])
	// after disc + "USDC"
	assert.Equal(t, uint64(2_500_000), binary.LittleEndian.Uint64(data[16:24]))
	assert.Equal(t, uint64(77), binary.LittleEndian.Uint64(data[24:32]))
}

func TestBuildFeeTransaction(t *testing.T) {
	c, srv := newTestClient(t)
	payer := solana.NewWallet().PublicKey()

	b64, err := c.BuildFeeTransaction(context.Background(), payer)
	require.NoError(t, err)
	tx, err := DecodeTransaction(b64)
	require.NoError(t, err)
	assert.Equal(t, payer, tx.Message.AccountKeys[0])
	assert.Contains(t, tx.Message.AccountKeys, c.Cluster.Treasury)
	assert.Equal(t, 1, srv.Calls("getLatestBlockhash"))
}

func TestBuildNeverHaveIEverTransaction(t *testing.T) {
	c, _ := newTestClient(t)
	user := solana.NewWallet().PublicKey()

	b64, err := c.BuildNeverHaveIEverTransaction(context.Background(), user, "I Have")
	require.NoError(t, err)
	tx, err := DecodeTransaction(b64)
	require.NoError(t, err)
	data := []byte(tx.Message.Instructions[0].Data)
	assert.Equal(t, ProcessStringInputDisc[:], data[:8])
	assert.Equal(t, uint32(len(NeverHaveIEverPrompt)), binary.LittleEndian.Uint32(data[8:12]))

	c.Cluster.NeverHaveIEverProgramID = solana.PublicKey{}
	_, err = c.BuildNeverHaveIEverTransaction(context.Background(), user, "I Have")
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindConfiguration, e.Kind)
}

func TestGetTransactionStatus(t *testing.T) {
	c, srv := newTestClient(t)
	okSig := solana.SignatureFromBytes(bytes.Repeat([]byte{1}, 64)).String()
	failSig := solana.SignatureFromBytes(bytes.Repeat([]byte{2}, 64)).String()
	srv.AddTransaction(okSig, map[string]any{
		"slot":      990,
		"blockTime": 1700000000,
		"meta":      map[string]any{"err": nil, "fee": 5000},
	})
	srv.AddTransaction(failSig, map[string]any{
		"slot": 995,
		"meta": map[string]any{
			"err": map[string]any{"InstructionError": []any{0, map[string]any{"Custom": 6001}}},
			"fee": 5000,
		},
	})

	st, err := c.GetTransactionStatus(context.Background(), okSig)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, st.Status)
	assert.Equal(t, uint64(10), st.Confirmations)
	assert.Equal(t, uint64(5000), st.Fee)
	require.NotNil(t, st.BlockTime)
	assert.Contains(t, st.ExplorerURL, "cluster=devnet")

	st, err = c.GetTransactionStatus(context.Background(), failSig)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, st.Status)
	require.NotNil(t, st.Error)
	assert.Contains(t, *st.Error, "InsufficientFunds")

	missing := solana.SignatureFromBytes(bytes.Repeat([]byte{3}, 64)).String()
	st, err = c.GetTransactionStatus(context.Background(), missing)
	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, st.Status)

	_, err = c.GetTransactionStatus(context.Background(), "bogus")
	assert.True(t, apperr.IsValidation(err))
}

func TestGetTransactionStatusRPCFailure(t *testing.T) {
	c, srv := newTestClient(t)
	srv.FailWith("getTransaction", http.StatusBadGateway)
	sig := solana.SignatureFromBytes(bytes.Repeat([]byte{4}, 64)).String()

	st, err := c.GetTransactionStatus(context.Background(), sig)
	require.Error(t, err)
	assert.Nil(t, st)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindDependency, e.Kind)
	assert.Equal(t, http.StatusInternalServerError, apperr.Status(err))
}

func TestGetTransactionStatusSlotFailure(t *testing.T) {
	c, srv := newTestClient(t)
	sig := solana.SignatureFromBytes(bytes.Repeat([]byte{5}, 64)).String()
	srv.AddTransaction(sig, map[string]any{"slot": 990, "meta": map[string]any{"err": nil, "fee": 5000}})
	srv.FailWith("getSlot", http.StatusServiceUnavailable)

	_, err := c.GetTransactionStatus(context.Background(), sig)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindDependency, e.Kind)
}

func TestParseSolanaError(t *testing.T) {
	assert.Contains(t, ParseSolanaError(assert.AnError), "assert.AnError")
	assert.Equal(t, "Custom program error code: 42",
		ParseSolanaError(errString("custom program error: 0x2a")))
	assert.Contains(t, ParseSolanaError(errString("Blockhash not found")), "Transaction expired")
	assert.Equal(t, []string{"hello", "world"},
		ExtractLogMessages(errString("Program log: hello\nProgram log: world\nProgram log: hello")))
}

func TestSendTransactionLogsProgramOutput(t *testing.T) {
	srv := rpctest.New()
	t.Cleanup(srv.Close)
	log, hook := logtest.NewNullLogger()
	c := NewClient(devnetConfig(t, srv.URL), log)

	b64, err := c.BuildFeeTransaction(context.Background(), solana.NewWallet().PublicKey())
	require.NoError(t, err)

	srv.RejectSend("Program log: Instruction: Participate", "Program log: AnchorError: ChallengeClosed")
	_, err = c.SendTransaction(context.Background(), b64)
	require.Error(t, err)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, []string{"Instruction: Participate", "AnchorError: ChallengeClosed"}, entry.Data["program_logs"])
	assert.Equal(t, "send failed: "+ParseSolanaError(err), entry.Message)
}

type errString string

func (e errString) Error() string { return string(e) }

type rpcTimings struct{ methods []string }

func (r *rpcTimings) ObserveRPC(method string, _ time.Duration) {
	r.methods = append(r.methods, method)
}

func TestPoolObserver(t *testing.T) {
	srv := rpctest.New()
	t.Cleanup(srv.Close)
	obs := &rpcTimings{}
	pool := NewPool(cluster.NewRegistry(devnetConfig(t, srv.URL)), logger.Discard()).Observe(obs)

	c, err := pool.For(cluster.Devnet)
	require.NoError(t, err)
	again, err := pool.For(cluster.Devnet)
	require.NoError(t, err)
	assert.Same(t, c, again)

	_, err = c.BuildFeeTransaction(context.Background(), solana.NewWallet().PublicKey())
	require.NoError(t, err)
	assert.Equal(t, []string{"getLatestBlockhash"}, obs.methods)

	_, err = pool.For(cluster.Mainnet)
	assert.Error(t, err)
}
