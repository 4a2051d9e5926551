package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"blinks/backend"
	"blinks/cluster"
)

// Redis shares cached challenges between replicas.
//
// Key schema:
//
//	challenge:{cluster}:{id} - JSON encoded backend.Challenge
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
	log logrus.FieldLogger
}

func NewRedis(rdb *redis.Client, ttl time.Duration, log logrus.FieldLogger) *Redis {
	return &Redis{rdb: rdb, ttl: ttl, log: log}
}

func (r *Redis) Get(ctx context.Context, c cluster.Name, id int64) (backend.Challenge, bool) {
	data, err := r.rdb.Get(ctx, key(c, id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.WithError(err).Warnf("redis: get challenge %d", id)
		}
		return backend.Challenge{}, false
	}
	var ch backend.Challenge
	if err := json.Unmarshal(data, &ch); err != nil {
		r.log.WithError(err).Warnf("redis: unmarshal challenge %d", id)
		return backend.Challenge{}, false
	}
	return ch, true
}

func (r *Redis) Set(ctx context.Context, c cluster.Name, ch backend.Challenge) {
	data, err := json.Marshal(ch)
	if err != nil {
		r.log.WithError(err).Warnf("redis: marshal challenge %d", ch.ChallengeID)
		return
	}
	if err := r.rdb.Set(ctx, key(c, ch.ChallengeID), data, r.ttl).Err(); err != nil {
		r.log.WithError(err).Warnf("redis: set challenge %d", ch.ChallengeID)
	}
}

// Ping checks the connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}
