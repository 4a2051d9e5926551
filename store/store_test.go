package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"blinks/apperr"
	"blinks/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection so every query sees the same in-memory database
	sqlDB.SetMaxOpenConns(1)

	s, err := New(db, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestHistory_NewestFirstAndCapped(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 120; i++ {
		require.NoError(t, s.RecordAction(ctx, &ActionRecord{
			Action:    "join-challenge",
			Cluster:   "devnet",
			Account:   "wallet-a",
			Amount:    fmt.Sprint(i),
			Status:    StatusBuilt,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, s.RecordAction(ctx, &ActionRecord{Action: "side-bet", Account: "wallet-b", Status: StatusBuilt}))

	records, err := s.History(ctx, "wallet-a", 500)
	require.NoError(t, err)
	require.Len(t, records, 100)
	assert.Equal(t, "119", records[0].Amount)
	assert.Equal(t, "20", records[99].Amount)

	records, err = s.History(ctx, "wallet-b", 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "side-bet", records[0].Action)
}

func TestAnswerPercentages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.AnswerPercentages(ctx)
	require.NoError(t, err)
	assert.Equal(t, Percentages{}, p)

	require.NoError(t, s.SaveAnswer(ctx, "w1", AnswerHave, AnswerHaveNever))
	require.NoError(t, s.SaveAnswer(ctx, "w2", AnswerHave, AnswerHave))
	require.NoError(t, s.SaveAnswer(ctx, "w3", AnswerHave, AnswerHave))
	require.NoError(t, s.SaveAnswer(ctx, "w4", AnswerHaveNever, AnswerHave))

	p, err = s.AnswerPercentages(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), p.Total)
	assert.InDelta(t, 75.0, p.Have, 0.0001)
	assert.InDelta(t, 25.0, p.HaveNever, 0.0001)
}

func TestNilStore(t *testing.T) {
	var s *Store
	ctx := context.Background()

	assert.False(t, s.Enabled())
	assert.NoError(t, s.RecordAction(ctx, &ActionRecord{Action: "x"}))
	assert.NoError(t, s.Ping(ctx))

	_, err := s.History(ctx, "w", 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, "database not configured", apperr.PublicMessage(err))

	err = s.SaveAnswer(ctx, "w", AnswerHave, AnswerHave)
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = s.AnswerPercentages(ctx)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
