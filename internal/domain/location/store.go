package location

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	prefKeyPrefix    = "loc:pref:"
	sessionKeyPrefix = "sess:id:"
)

// Record is the persisted location preference. ExpiresAt is stored explicitly
// in addition to the key TTL so a record surviving past its expiry (clock
// skew, TTL-less restore from a dump) is still discarded on read.
type Record struct {
	State     State     `json:"state"`
	SavedAt   time.Time `json:"saved_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store persists per-client state to Redis: explicit location choices with a
// 24h expiry, and the client's last session identifier so a returning client
// can resume. Everything here is best-effort: a missing or unreachable Redis
// never breaks the search flow. Records key on the caller's stable client
// identifier; an anonymous client (empty ID) is never persisted, otherwise
// every anonymous visitor would share one record.
type Store struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewStore creates a location preference store
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{redis: client, ttl: ttl}
}

// Save persists the state, but only for explicit user choices. Passive
// detections are never written.
func (s *Store) Save(ctx context.Context, clientID string, state *State) {
	if s.redis == nil || clientID == "" || state == nil {
		return
	}
	if state.Source != SourceUserText && state.Source != SourcePlaceSelect {
		return
	}

	now := time.Now()
	record := Record{
		State:     *state,
		SavedAt:   now,
		ExpiresAt: now.Add(s.ttl),
	}

	data, err := json.Marshal(record)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode location preference")
		return
	}

	if err := s.redis.Set(ctx, prefKeyPrefix+clientID, data, s.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("client_id", clientID).Msg("failed to persist location preference")
	}
}

// Restore reads the persisted state. Expired or missing records yield nil.
func (s *Store) Restore(ctx context.Context, clientID string) *State {
	if s.redis == nil || clientID == "" {
		return nil
	}

	data, err := s.redis.Get(ctx, prefKeyPrefix+clientID).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Str("client_id", clientID).Msg("failed to read location preference")
		}
		return nil
	}

	return decodeRecord(data, time.Now())
}

// SaveSessionID records the client's current session so a later visit can
// resume it.
func (s *Store) SaveSessionID(ctx context.Context, clientID, sessionID string) {
	if s.redis == nil || clientID == "" || sessionID == "" {
		return
	}

	if err := s.redis.Set(ctx, sessionKeyPrefix+clientID, sessionID, s.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("client_id", clientID).Msg("failed to persist session identifier")
	}
}

// RestoreSessionID returns the client's last recorded session identifier, or
// "" when none is stored.
func (s *Store) RestoreSessionID(ctx context.Context, clientID string) string {
	if s.redis == nil || clientID == "" {
		return ""
	}

	sessionID, err := s.redis.Get(ctx, sessionKeyPrefix+clientID).Result()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Str("client_id", clientID).Msg("failed to read session identifier")
		}
		return ""
	}
	return sessionID
}

// decodeRecord parses a stored record and applies the expiry check. An
// expired record is treated identically to no record at all.
func decodeRecord(data []byte, now time.Time) *State {
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		log.Warn().Err(err).Msg("discarding malformed location preference")
		return nil
	}
	if !record.ExpiresAt.After(now) {
		return nil
	}
	state := record.State
	return &state
}
