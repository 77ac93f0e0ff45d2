package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
)

const defaultUpdateRetries = 8

// RedisStore keeps each session in a Redis hash with an idle expiry.
type RedisStore struct {
	redis   redis.UniversalClient
	prefix  string
	retries uint64
}

// NewRedisStore creates a [RedisStore]. prefix namespaces the keys
// ("<prefix>:<id>"); an empty prefix means "sess".
func NewRedisStore(rdb redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "sess"
	}
	return &RedisStore{
		redis:   rdb,
		prefix:  prefix,
		retries: defaultUpdateRetries,
	}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + ":" + id
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// Create writes the identity fields and the expiry in one MULTI block.
func (s *RedisStore) Create(ctx context.Context, sess *Session, ttl time.Duration) error {
	if sess == nil || sess.ID == "" {
		return errors.New("session: missing id")
	}
	key := s.key(sess.ID)

	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, sess.fields())
		if ttl > 0 {
			pipe.PExpire(ctx, key, ttl)
		}
		return nil
	})
	if err != nil {
		return unavailable(err)
	}
	return nil
}

// Get reads the session hash and slides its expiry.
func (s *RedisStore) Get(ctx context.Context, id string, ttl time.Duration) (*Session, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	key := s.key(id)

	fields, err := s.redis.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}

	sess, err := fromFields(id, fields)
	if err != nil {
		return nil, err
	}

	if ttl > 0 {
		if err := s.redis.PExpire(ctx, key, ttl).Err(); err != nil {
			return nil, unavailable(err)
		}
	}
	return sess, nil
}

// Delete removes the session hash.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.redis.Del(ctx, s.key(id)).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// Update runs fn under WATCH on the session key and applies its decision in a
// MULTI block. When another client touches the key in between, the
// transaction aborts and the whole read-decide-write cycle is retried, so fn
// may run more than once but its effect is applied at most once.
func (s *RedisStore) Update(ctx context.Context, id, field string, fn UpdateFunc) error {
	if err := checkField(field); err != nil {
		return err
	}
	if id == "" {
		return ErrNotFound
	}
	key := s.key(id)

	txf := func(tx *redis.Tx) error {
		vals, err := tx.HMGet(ctx, key, FieldUserID, field).Result()
		if err != nil {
			return unavailable(err)
		}
		if vals[0] == nil {
			return ErrNotFound
		}
		current, ok := vals[1].(string)

		action, next, err := fn(current, ok)
		if err != nil {
			return callbackError{err: err}
		}
		if action == Keep {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if action == Set {
				pipe.HSet(ctx, key, field, next)
			} else {
				pipe.HDel(ctx, key, field)
			}
			return nil
		})
		return err
	}

	backoff := retry.NewExponential(2 * time.Millisecond)
	backoff = retry.WithJitterPercent(25, backoff)
	backoff = retry.WithCappedDuration(50*time.Millisecond, backoff)
	backoff = retry.WithMaxRetries(s.retries, backoff)
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := s.redis.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			return retry.RetryableError(err)
		}
		return err
	})

	var cbErr callbackError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &cbErr):
		return cbErr.err
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUnavailable):
		return err
	case errors.Is(err, redis.TxFailedErr):
		return ErrConflict
	default:
		return unavailable(err)
	}
}

// callbackError marks errors produced by the caller's UpdateFunc so they are
// returned untouched.
type callbackError struct {
	err error
}

func (e callbackError) Error() string { return e.err.Error() }

func (e callbackError) Unwrap() error { return e.err }
