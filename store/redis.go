package store

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/plus3/tickbox/match"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

const (
	keyPrefix   = "tickbox:match:"
	recentKey   = "tickbox:matches"
	recentLimit = 1000
)

func resultKey(matchID string) string {
	return keyPrefix + matchID
}

// RedisStore keeps results as JSON strings with an expiry. An index of match
// IDs ordered by finish time backs Recent.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ResultStore = (*RedisStore)(nil)

// NewRedisStore wraps client. A zero ttl keeps results forever.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Ping checks that redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.client.Ping(ctx).Err(), "pinging redis")
}

func (s *RedisStore) Save(ctx context.Context, result *match.Result) error {
	if result == nil || result.MatchID == "" {
		return eris.New("result must have a match id")
	}
	data, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "encoding result")
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, resultKey(result.MatchID), data, s.ttl)
	pipe.ZAdd(ctx, recentKey, redis.Z{
		Score:  float64(result.FinishedAt.UnixMilli()),
		Member: result.MatchID,
	})
	pipe.ZRemRangeByRank(ctx, recentKey, 0, -recentLimit-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return eris.Wrapf(err, "saving match %s", result.MatchID)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, matchID string) (*match.Result, error) {
	data, err := s.client.Get(ctx, resultKey(matchID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, eris.Wrapf(ErrNotFound, "match %s", matchID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "loading match %s", matchID)
	}

	var result match.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, eris.Wrapf(err, "decoding match %s", matchID)
	}
	return &result, nil
}

// Recent lists indexed match IDs, newest first. IDs whose result has expired
// may still be listed.
func (s *RedisStore) Recent(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		return []string{}, nil
	}
	ids, err := s.client.ZRevRange(ctx, recentKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, eris.Wrap(err, "listing recent matches")
	}
	return ids, nil
}
