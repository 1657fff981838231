package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis key layout. Counters are hashes so increments stay atomic under
// concurrent workers; errors are a capped list, newest first.
const (
	keyUserSet         = "users"
	keyPlatformCount   = "stats:platform"
	keyQualityCount    = "stats:quality"
	keyTotalDownloads  = "stats:total"
	keyErrors          = "stats:errors"
	errorsKept         = 100
	topQualitiesLimit  = 5
	timestampFormat    = time.RFC3339
	neverDownloadedTag = "never"
)

func keyUser(id int64) string         { return fmt.Sprintf("user:%d", id) }
func keyUserPlatform(id int64) string { return fmt.Sprintf("user:%d:platform", id) }
func keyUserQuality(id int64) string  { return fmt.Sprintf("user:%d:quality", id) }
func keyUserTotal(id int64) string    { return fmt.Sprintf("user:%d:total", id) }

// QualityCount is one row of a top-qualities report.
type QualityCount struct {
	Quality string
	Count   int64
}

// GlobalStats aggregates every user's activity.
type GlobalStats struct {
	TotalUsers     int64
	TotalDownloads int64
	Platforms      map[string]int64
	TopQualities   []QualityCount
	MostUsed       string
}

// UserStats aggregates one user's activity.
type UserStats struct {
	Downloads    int64
	Platforms    map[string]int64
	TopQualities []QualityCount
	LastDownload string
}

// ErrorEntry is one recorded failure, for the operator report.
type ErrorEntry struct {
	UserID    int64  `json:"user_id"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Store persists counters and user records in Redis. Counters are
// monotonically increasing and survive restarts.
type Store struct {
	cl  *redis.Client
	now func() time.Time
}

func NewStore(cl *redis.Client) *Store {
	return &Store{cl: cl, now: time.Now}
}

// UpsertUser records a user sighting: first_seen is written once, last_seen
// and the name fields on every call.
func (s *Store) UpsertUser(ctx context.Context, id int64, username, firstName string) error {
	now := s.now().UTC().Format(timestampFormat)
	pipe := s.cl.Pipeline()
	pipe.SAdd(ctx, keyUserSet, id)
	pipe.HSetNX(ctx, keyUser(id), "first_seen", now)
	pipe.HSet(ctx, keyUser(id), "username", username, "first_name", firstName, "last_seen", now)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("upsert user %d: %w", id, err)
	}
	return nil
}

// RecordDownload increments the platform and quality counters, globally and
// for the user, in one pipeline.
func (s *Store) RecordDownload(ctx context.Context, user int64, platform, quality string, size int64) error {
	now := s.now().UTC().Format(timestampFormat)
	pipe := s.cl.Pipeline()
	pipe.HIncrBy(ctx, keyPlatformCount, platform, 1)
	pipe.HIncrBy(ctx, keyQualityCount, quality, 1)
	pipe.Incr(ctx, keyTotalDownloads)
	pipe.HIncrBy(ctx, keyUserPlatform(user), platform, 1)
	pipe.HIncrBy(ctx, keyUserQuality(user), quality, 1)
	pipe.Incr(ctx, keyUserTotal(user))
	pipe.HSet(ctx, keyUser(user), "last_seen", now, "last_download", now)
	pipe.HIncrBy(ctx, keyUser(user), "bytes", size)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record download for %d: %w", user, err)
	}
	return nil
}

// LogError appends a failure record, keeping only the most recent entries.
func (s *Store) LogError(ctx context.Context, user int64, message string) error {
	entry, _ := json.Marshal(ErrorEntry{
		UserID:    user,
		Message:   message,
		Timestamp: s.now().UTC().Format(timestampFormat),
	})
	pipe := s.cl.Pipeline()
	pipe.LPush(ctx, keyErrors, entry)
	pipe.LTrim(ctx, keyErrors, 0, errorsKept-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("log error for %d: %w", user, err)
	}
	return nil
}

func (s *Store) GlobalStats(ctx context.Context) (*GlobalStats, error) {
	users, err := s.cl.SCard(ctx, keyUserSet).Result()
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	total, err := s.cl.Get(ctx, keyTotalDownloads).Int64()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("total downloads: %w", err)
	}
	platforms, err := s.readCounters(ctx, keyPlatformCount)
	if err != nil {
		return nil, err
	}
	qualities, err := s.readCounters(ctx, keyQualityCount)
	if err != nil {
		return nil, err
	}

	top := topQualities(qualities)
	mostUsed := "none"
	if len(top) > 0 {
		mostUsed = top[0].Quality
	}
	return &GlobalStats{
		TotalUsers:     users,
		TotalDownloads: total,
		Platforms:      platforms,
		TopQualities:   top,
		MostUsed:       mostUsed,
	}, nil
}

func (s *Store) UserStats(ctx context.Context, user int64) (*UserStats, error) {
	total, err := s.cl.Get(ctx, keyUserTotal(user)).Int64()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("user total: %w", err)
	}
	platforms, err := s.readCounters(ctx, keyUserPlatform(user))
	if err != nil {
		return nil, err
	}
	qualities, err := s.readCounters(ctx, keyUserQuality(user))
	if err != nil {
		return nil, err
	}
	last, err := s.cl.HGet(ctx, keyUser(user), "last_download").Result()
	if err == redis.Nil {
		last = neverDownloadedTag
	} else if err != nil {
		return nil, fmt.Errorf("user last download: %w", err)
	}

	return &UserStats{
		Downloads:    total,
		Platforms:    platforms,
		TopQualities: topQualities(qualities),
		LastDownload: last,
	}, nil
}

func (s *Store) RecentErrors(ctx context.Context, limit int64) ([]ErrorEntry, error) {
	raw, err := s.cl.LRange(ctx, keyErrors, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("recent errors: %w", err)
	}
	entries := make([]ErrorEntry, 0, len(raw))
	for _, item := range raw {
		var e ErrorEntry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *Store) readCounters(ctx context.Context, key string) (map[string]int64, error) {
	raw, err := s.cl.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("read counters %s: %w", key, err)
	}
	counters := make(map[string]int64, len(raw))
	for field, val := range raw {
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			continue
		}
		counters[field] = n
	}
	return counters, nil
}

func topQualities(counters map[string]int64) []QualityCount {
	out := make([]QualityCount, 0, len(counters))
	for q, c := range counters {
		out = append(out, QualityCount{Quality: q, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Quality < out[j].Quality
	})
	if len(out) > topQualitiesLimit {
		out = out[:topQualitiesLimit]
	}
	return out
}
