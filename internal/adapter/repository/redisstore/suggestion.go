package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"rentadvance-backend/internal/domain/selection"

	"github.com/redis/go-redis/v9"
)

const suggestionPrefix = "rentadvance:suggestion:"

// SuggestionStore keeps optimizer results as JSON blobs with a TTL.
type SuggestionStore struct{ rdb *redis.Client }

func NewSuggestionStore(rdb *redis.Client) *SuggestionStore { return &SuggestionStore{rdb: rdb} }

func suggestionKey(id string) string { return suggestionPrefix + id }

func (s *SuggestionStore) Save(ctx context.Context, sg *selection.Suggestion, ttl time.Duration) error {
	payload, err := json.Marshal(sg)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, suggestionKey(sg.SuggestionID), payload, ttl).Err()
}

func (s *SuggestionStore) Get(ctx context.Context, suggestionID string) (*selection.Suggestion, error) {
	raw, err := s.rdb.Get(ctx, suggestionKey(suggestionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, selection.ErrSuggestionNotFound
	}
	if err != nil {
		return nil, err
	}
	var out selection.Suggestion
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
