// Package cache keeps recently fetched challenges for the describe-by-id
// GET endpoints, which wallets and link unfurlers hit repeatedly.
package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"blinks/backend"
	"blinks/cluster"
)

// ChallengeCache is a read-through cache keyed by cluster and challenge id.
// Implementations treat their own failures as misses.
type ChallengeCache interface {
	Get(ctx context.Context, c cluster.Name, id int64) (backend.Challenge, bool)
	Set(ctx context.Context, c cluster.Name, ch backend.Challenge)
}

func key(c cluster.Name, id int64) string {
	return "challenge:" + string(c) + ":" + strconv.FormatInt(id, 10)
}

// LRU is the in-process cache.
type LRU struct {
	lru *expirable.LRU[string, backend.Challenge]
}

func NewLRU(size int, ttl time.Duration) *LRU {
	return &LRU{lru: expirable.NewLRU[string, backend.Challenge](size, nil, ttl)}
}

func (l *LRU) Get(_ context.Context, c cluster.Name, id int64) (backend.Challenge, bool) {
	return l.lru.Get(key(c, id))
}

func (l *LRU) Set(_ context.Context, c cluster.Name, ch backend.Challenge) {
	l.lru.Add(key(c, ch.ChallengeID), ch)
}

// Nop never hits.
type Nop struct{}

func (Nop) Get(context.Context, cluster.Name, int64) (backend.Challenge, bool) {
	return backend.Challenge{}, false
}

func (Nop) Set(context.Context, cluster.Name, backend.Challenge) {}
