// Package buildcache tracks last-access times for build-cache blobs so an
// external sweeper can expire cold entries. The records live in redis,
// independent of the Maven catalog.
package buildcache

import (
	"context"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const keyPrefix = "buildcache:"

// Tracker records one access-time entry per cached blob key.
type Tracker struct {
	rdb *redis.Client
}

func NewTracker(rdb *redis.Client) *Tracker {
	return &Tracker{rdb: rdb}
}

// Key derives the record key from the blob's bucket-relative path: the
// directory with slashes dotted, then the blob filename.
func Key(relPath string) string {
	dir, file := path.Split(strings.Trim(relPath, "/"))
	namespace := strings.ReplaceAll(strings.Trim(dir, "/"), "/", ".")
	if namespace == "" {
		return keyPrefix + file
	}
	return keyPrefix + namespace + ":" + file
}

// Touch updates the blob's last-access epoch time. Best effort: a tracking
// failure is logged and never fails the triggering upload.
func (t *Tracker) Touch(ctx context.Context, relPath string, now time.Time) {
	if t == nil || t.rdb == nil {
		return
	}
	key := Key(relPath)
	if err := t.rdb.Set(ctx, key, now.Unix(), 0).Err(); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("key", key).Msg("failed to record build cache access time")
	}
}

// LastAccessed returns the recorded epoch time for a blob, or zero when no
// record exists.
func (t *Tracker) LastAccessed(ctx context.Context, relPath string) (int64, error) {
	val, err := t.rdb.Get(ctx, Key(relPath)).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}
