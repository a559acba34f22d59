package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/okian/scorekeeper/pkg/logger"
)

// Key suffixes under the configured prefix.
const (
	keyLatest   = "run:latest"
	keyBoardEXP = "leaderboard:exp"
	keyBoardREP = "leaderboard:rep"
)

// RedisStore keeps the latest run and EXP/REP leaderboards in Redis.
// A save replaces all three keys in one MULTI/EXEC.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	opts   options
	log    logger.Logger
}

// RedisConfig holds the connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisStore connects to Redis and pings it.
func NewRedisStore(ctx context.Context, cfg RedisConfig, opts ...Option) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis store: empty addr: %w", ErrInvalidStore)
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis store: ping: %w", err)
	}
	return NewRedisStoreWithClient(client, opts...), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client redis.UniversalClient, opts ...Option) *RedisStore {
	o := apply(opts)
	return &RedisStore{
		client: client,
		prefix: o.keyPrefix,
		opts:   o,
		log:    o.log.Named("redis_store"),
	}
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(suffix string) string {
	return s.prefix + suffix
}

// Save writes the run JSON and rebuilds both leaderboards.
func (s *RedisStore) Save(ctx context.Context, run Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("redis store: marshal run: %w", err)
	}
	expMembers, repMembers := boardMembers(run)

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(keyLatest), data, s.opts.ttl)
		pipe.Del(ctx, s.key(keyBoardEXP), s.key(keyBoardREP))
		if len(expMembers) > 0 {
			pipe.ZAdd(ctx, s.key(keyBoardEXP), expMembers...)
			pipe.ZAdd(ctx, s.key(keyBoardREP), repMembers...)
			if s.opts.ttl > 0 {
				pipe.Expire(ctx, s.key(keyBoardEXP), s.opts.ttl)
				pipe.Expire(ctx, s.key(keyBoardREP), s.opts.ttl)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis store: save %s: %w", run.ID, err)
	}

	s.log.Info(ctx, "run cached",
		logger.String("run_id", run.ID.String()),
		logger.Int("players", len(expMembers)))
	return nil
}

// Latest reads the cached run.
func (s *RedisStore) Latest(ctx context.Context) (Run, error) {
	data, err := s.client.Get(ctx, s.key(keyLatest)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Run{}, ErrNotFound
	}
	if err != nil {
		return Run{}, fmt.Errorf("redis store: latest: %w", err)
	}
	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return Run{}, fmt.Errorf("redis store: %w: %w", ErrCorruptRun, err)
	}
	return run, nil
}

// TopEXP returns up to n player names ordered by EXP, highest first.
func (s *RedisStore) TopEXP(ctx context.Context, n int64) ([]redis.Z, error) {
	return s.top(ctx, keyBoardEXP, n)
}

// TopREP returns up to n player names ordered by REP, highest first.
func (s *RedisStore) TopREP(ctx context.Context, n int64) ([]redis.Z, error) {
	return s.top(ctx, keyBoardREP, n)
}

func (s *RedisStore) top(ctx context.Context, board string, n int64) ([]redis.Z, error) {
	if n <= 0 {
		return nil, fmt.Errorf("redis store: limit %d: %w", n, ErrInvalidStore)
	}
	out, err := s.client.ZRevRangeWithScores(ctx, s.key(board), 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis store: top %s: %w", board, err)
	}
	return out, nil
}

func boardMembers(run Run) (exp, rep []redis.Z) {
	exp = make([]redis.Z, 0, len(run.Export.Players))
	rep = make([]redis.Z, 0, len(run.Export.Players))
	for _, p := range run.Export.Players {
		exp = append(exp, redis.Z{Score: float64(p.EXP), Member: p.Name})
		rep = append(rep, redis.Z{Score: float64(p.REP), Member: p.Name})
	}
	return exp, rep
}
