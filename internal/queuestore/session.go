package queuestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/redis/go-redis/v9"

	"github.com/ndrandal/tradesignal-core/internal/domain"
)

// ErrSessionNotFound is returned when a session lookup misses (spec §4.5
// "404 on unknown/expired refresh_token").
var ErrSessionNotFound = errors.New("queuestore: session not found")

// AddSession writes a Session under all three indexes in a single
// transactional pipeline (spec §4.4 Atomicity: "add_session... executed
// as multi-op pipelined transactions updating the primary record AND the
// two secondary indexes"). TTL applies to the primary record and the
// forward index; the reverse-index set member has no independent TTL and
// is cleaned up on delete.
func (s *Store) AddSession(ctx context.Context, sess domain.Session, ttl time.Duration) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("queuestore: marshal session: %w", err)
	}

	_, err = RetryCall(ctx, DefaultRetryConfig(), func(ctx context.Context) (any, error) {
		pipe := s.client.TxPipeline()
		pipe.Set(ctx, s.keys.session(sess.RefreshToken), payload, ttl)
		pipe.Set(ctx, s.keys.clientSession(sess.ClientInstanceID), sess.RefreshToken, ttl)
		pipe.SAdd(ctx, s.keys.copySetupSessions(sess.CopySetupID), sess.RefreshToken)
		_, err := pipe.Exec(ctx)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("queuestore: add session: %w", err)
	}
	return nil
}

// UpdateSession rewrites a Session's primary record and forward index
// under a new refresh token, removing the old token's primary record and
// reverse-index entry in the same transaction (spec §4.5 poll: "issue
// a new refresh_token, overwrite the Session record... with TTL reset").
func (s *Store) UpdateSession(ctx context.Context, oldRefreshToken string, sess domain.Session, ttl time.Duration) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("queuestore: marshal session: %w", err)
	}

	_, err = RetryCall(ctx, DefaultRetryConfig(), func(ctx context.Context) (any, error) {
		pipe := s.client.TxPipeline()
		pipe.Del(ctx, s.keys.session(oldRefreshToken))
		pipe.SRem(ctx, s.keys.copySetupSessions(sess.CopySetupID), oldRefreshToken)
		pipe.Set(ctx, s.keys.session(sess.RefreshToken), payload, ttl)
		pipe.Set(ctx, s.keys.clientSession(sess.ClientInstanceID), sess.RefreshToken, ttl)
		pipe.SAdd(ctx, s.keys.copySetupSessions(sess.CopySetupID), sess.RefreshToken)
		_, err := pipe.Exec(ctx)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("queuestore: update session: %w", err)
	}
	return nil
}

// DeleteSession removes a Session from all three indexes.
func (s *Store) DeleteSession(ctx context.Context, sess domain.Session) error {
	_, err := RetryCall(ctx, DefaultRetryConfig(), func(ctx context.Context) (any, error) {
		pipe := s.client.TxPipeline()
		pipe.Del(ctx, s.keys.session(sess.RefreshToken))
		pipe.Del(ctx, s.keys.clientSession(sess.ClientInstanceID))
		pipe.SRem(ctx, s.keys.copySetupSessions(sess.CopySetupID), sess.RefreshToken)
		_, err := pipe.Exec(ctx)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("queuestore: delete session: %w", err)
	}
	return nil
}

// GetSession fetches a Session by refresh token (spec §4.4 "O(1)"). A
// miss (redis.Nil) is the normal unknown/expired-token path (spec §4.5
// S5), not a transient failure, so it fails fast without retrying.
func (s *Store) GetSession(ctx context.Context, refreshToken string) (domain.Session, error) {
	val, err := RetryCall(ctx, DefaultRetryConfig(), func(ctx context.Context) (string, error) {
		v, err := s.client.Get(ctx, s.keys.session(refreshToken)).Result()
		if errors.Is(err, redis.Nil) {
			return v, backoff.Permanent(err)
		}
		return v, err
	})
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("queuestore: get session: %w", err)
	}

	var sess domain.Session
	if err := json.Unmarshal([]byte(val), &sess); err != nil {
		return domain.Session{}, fmt.Errorf("queuestore: decode session: %w", err)
	}
	return sess, nil
}

// GetSessionByClient resolves a Session via the two-hop forward index
// (spec §4.4 "get_session_by_client(client_instance_id) — two-hop O(1)").
// Same redis.Nil fail-fast treatment as GetSession.
func (s *Store) GetSessionByClient(ctx context.Context, clientInstanceID string) (domain.Session, error) {
	refreshToken, err := RetryCall(ctx, DefaultRetryConfig(), func(ctx context.Context) (string, error) {
		v, err := s.client.Get(ctx, s.keys.clientSession(clientInstanceID)).Result()
		if errors.Is(err, redis.Nil) {
			return v, backoff.Permanent(err)
		}
		return v, err
	})
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("queuestore: get client session index: %w", err)
	}
	return s.GetSession(ctx, refreshToken)
}

// SessionsByCopySetup returns Sessions attached to a CopySetup via
// SMEMBERS + batched MGET (spec §4.4 "batch size 512"), skipping expired
// (nil) members and honoring limit (0 = unlimited).
func (s *Store) SessionsByCopySetup(ctx context.Context, copySetupID int64, limit int) ([]domain.Session, error) {
	const mgetBatchSize = 512

	refreshTokens, err := RetryCall(ctx, DefaultRetryConfig(), func(ctx context.Context) ([]string, error) {
		return s.client.SMembers(ctx, s.keys.copySetupSessions(copySetupID)).Result()
	})
	if err != nil {
		return nil, fmt.Errorf("queuestore: smembers copysetup sessions: %w", err)
	}

	var out []domain.Session
	for start := 0; start < len(refreshTokens); start += mgetBatchSize {
		end := min(start+mgetBatchSize, len(refreshTokens))
		batch := refreshTokens[start:end]

		keys := make([]string, len(batch))
		for i, rt := range batch {
			keys[i] = s.keys.session(rt)
		}

		vals, err := RetryCall(ctx, DefaultRetryConfig(), func(ctx context.Context) ([]any, error) {
			return s.client.MGet(ctx, keys...).Result()
		})
		if err != nil {
			return nil, fmt.Errorf("queuestore: mget copysetup sessions: %w", err)
		}

		for _, v := range vals {
			if v == nil {
				continue
			}
			str, ok := v.(string)
			if !ok {
				continue
			}
			var sess domain.Session
			if err := json.Unmarshal([]byte(str), &sess); err != nil {
				continue
			}
			out = append(out, sess)
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}
	}
	return out, nil
}
