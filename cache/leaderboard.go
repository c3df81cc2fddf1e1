// Package cache fronts the account store with a Redis cache-aside layer
// for leaderboards.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"wordrush/domain"
	"wordrush/logger"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// MaxCachedEntries is how deep a cached leaderboard goes. Deeper requests
// skip the cache.
const MaxCachedEntries = 50

type Store interface {
	AddScoreDeltas(ctx context.Context, userId string, delta domain.ScoreDelta) error
	TopN(ctx context.Context, category domain.Category, n int) ([]domain.LeaderboardEntry, error)
	GetProfile(ctx context.Context, userId string) (domain.Profile, error)
}

// Leaderboards implements Store. Reads of TopN are served from Redis when
// possible. Cached boards live under a generation number that every score
// change bumps, so a board read from the inner store before a concurrent
// write is stored under a generation nobody reads anymore. Redis failures
// are logged and fall through to the inner store.
type Leaderboards struct {
	inner  Store
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger zerolog.Logger
}

func NewLeaderboards(inner Store, client *redis.Client, prefix string, ttl time.Duration) *Leaderboards {
	return &Leaderboards{
		inner:  inner,
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger.Component("leaderboard-cache"),
	}
}

func (l *Leaderboards) genKey() string {
	return l.prefix + "leaderboard:gen"
}

func (l *Leaderboards) key(c domain.Category, gen int64) string {
	return fmt.Sprintf("%sleaderboard:%d:%s", l.prefix, gen, c)
}

func (l *Leaderboards) generation(ctx context.Context) (int64, error) {
	gen, err := l.client.Get(ctx, l.genKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (l *Leaderboards) AddScoreDeltas(ctx context.Context, userId string, delta domain.ScoreDelta) error {
	if err := l.inner.AddScoreDeltas(ctx, userId, delta); err != nil {
		return err
	}
	l.invalidate(ctx)
	return nil
}

// invalidate moves readers to a fresh generation. Boards of older
// generations expire with their TTL.
func (l *Leaderboards) invalidate(ctx context.Context) {
	if err := l.client.Incr(ctx, l.genKey()).Err(); err != nil {
		l.logger.Warn().Err(err).Msg("leaderboard invalidation failed")
	}
}

func (l *Leaderboards) TopN(ctx context.Context, category domain.Category, n int) ([]domain.LeaderboardEntry, error) {
	if n > MaxCachedEntries {
		return l.inner.TopN(ctx, category, n)
	}

	gen, err := l.generation(ctx)
	if err != nil {
		l.logger.Warn().Err(err).Msg("leaderboard generation read failed")
		return l.inner.TopN(ctx, category, n)
	}

	entries, hit, err := l.get(ctx, category, gen)
	if err != nil {
		l.logger.Warn().Err(err).Str("category", string(category)).Msg("leaderboard cache read failed")
	}
	if !hit {
		entries, err = l.inner.TopN(ctx, category, MaxCachedEntries)
		if err != nil {
			return nil, err
		}
		if err := l.set(ctx, category, gen, entries); err != nil {
			l.logger.Warn().Err(err).Str("category", string(category)).Msg("leaderboard cache write failed")
		}
	}

	if len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

func (l *Leaderboards) get(ctx context.Context, category domain.Category, gen int64) ([]domain.LeaderboardEntry, bool, error) {
	data, err := l.client.Get(ctx, l.key(category, gen)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache get error: %w", err)
	}

	var entries []domain.LeaderboardEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, false, fmt.Errorf("cache unmarshal error: %w", err)
	}
	return entries, true, nil
}

func (l *Leaderboards) set(ctx context.Context, category domain.Category, gen int64, entries []domain.LeaderboardEntry) error {
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}
	if err := l.client.Set(ctx, l.key(category, gen), data, l.ttl).Err(); err != nil {
		return fmt.Errorf("cache set error: %w", err)
	}
	return nil
}

// GetProfile is not cached: ranks move whenever anyone scores.
func (l *Leaderboards) GetProfile(ctx context.Context, userId string) (domain.Profile, error) {
	return l.inner.GetProfile(ctx, userId)
}
