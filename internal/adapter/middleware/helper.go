package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"rentadvance-backend/pkg/id"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "rentadvance:idemp:"

func bodyHash(b []byte) string { s := sha256.Sum256(b); return hex.EncodeToString(s[:]) }

func nowUTC() time.Time { return time.Now().UTC() }

// buildKey scopes a request id to the route and the acting party, so two
// property managers reusing an id never collide.
func buildKey(method, route, actorID, requestID string) string {
	return keyPrefix + strings.Join([]string{strings.ToLower(method), route, actorID, requestID}, ":")
}

// parseRequestAt accepts epoch seconds, epoch milliseconds, or RFC3339 with a
// zone. Timestamps without a zone are rejected.
func parseRequestAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("missing " + HeaderRequestAt)
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errors.New(HeaderRequestAt + " must be epoch (s/ms) or RFC3339 with timezone")
}

// checkRequestAt rejects timestamps outside the allowed skew around now.
func checkRequestAt(reqAt, now time.Time) error {
	if reqAt.Before(now.Add(-maxClockSkew)) || reqAt.After(now.Add(maxClockSkew)) {
		return errors.New(HeaderRequestAt + " too skewed")
	}
	return nil
}

// entryStore keeps one idempEntry per key in redis.
type entryStore struct{ rdb *redis.Client }

// reserve writes an in-progress marker unless the key already exists.
func (s entryStore) reserve(ctx context.Context, key string, e idempEntry) (bool, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return false, err
	}
	return s.rdb.SetNX(ctx, key, payload, provisionalLockTTL).Result()
}

func (s entryStore) load(ctx context.Context, key string) (idempEntry, error) {
	var e idempEntry
	v, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return e, err
	}
	return e, json.Unmarshal(v, &e)
}

// commit replaces the marker with the final response for ttl.
func (s entryStore) commit(ctx context.Context, key string, e idempEntry, ttl time.Duration) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, payload, ttl).Err()
}

// release drops the key so the client may retry.
func (s entryStore) release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

// requestIDOf returns the trimmed request id or the client-facing problem.
func requestIDOf(raw string) (string, string) {
	reqID := strings.TrimSpace(raw)
	if reqID == "" {
		return "", "missing " + HeaderRequestID
	}
	if !id.IsRequestID(reqID) {
		return "", "invalid " + HeaderRequestID + " format"
	}
	return reqID, ""
}
