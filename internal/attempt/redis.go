package attempt

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const attemptRecordVersion1 = 1

// RedisTracker stores failure records in Redis. Locked records carry a
// native TTL that ends exactly when the lockout elapses, so Redis itself
// performs the full reset; read paths still check lazily to cover clock
// edges before the TTL fires.
type RedisTracker struct {
	redis  redis.UniversalClient
	prefix string
	cfg    Config
	now    func() time.Time
}

func NewRedisTracker(redisClient redis.UniversalClient, prefix string, cfg Config) *RedisTracker {
	if prefix == "" {
		prefix = "ag:att"
	}
	return &RedisTracker{
		redis:  redisClient,
		prefix: prefix,
		cfg:    cfg,
		now:    time.Now,
	}
}

func (t *RedisTracker) key(identifier string) string {
	return t.prefix + ":" + identifier
}

func (t *RedisTracker) Record(ctx context.Context, identifier string) (int, bool, error) {
	const maxRetries = 4
	key := t.key(identifier)

	for i := 0; i < maxRetries; i++ {
		var (
			count  int
			locked bool
		)

		err := t.redis.Watch(ctx, func(tx *redis.Tx) error {
			now := t.now()

			r := &record{}
			data, err := tx.Get(ctx, key).Bytes()
			switch {
			case err == nil:
				r, err = decodeRecord(data)
				if err != nil {
					return err
				}
				if r.lockoutElapsed(now) {
					r = &record{}
				}
			case errors.Is(err, redis.Nil):
				// first failure for this identifier
			default:
				return err
			}

			r.count++
			r.lastAttemptAt = now
			if r.count >= t.cfg.Threshold && r.lockoutUntil.IsZero() {
				r.lockoutUntil = now.Add(t.cfg.LockoutDuration)
				locked = true
			}
			count = r.count

			encoded, err := encodeRecord(r)
			if err != nil {
				return err
			}

			// Locked records self-delete when the lockout elapses.
			// Unlocked histories have no TTL: only success clears them.
			var ttl time.Duration
			if !r.lockoutUntil.IsZero() {
				ttl = r.lockoutUntil.Sub(now)
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, encoded, ttl)
				return nil
			})
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return 0, false, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
		return count, locked, nil
	}

	return 0, false, fmt.Errorf("%w: transaction retries exhausted", ErrBackendUnavailable)
}

func (t *RedisTracker) Check(ctx context.Context, identifier string) (Status, error) {
	now := t.now()
	key := t.key(identifier)

	data, err := t.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return statusFor(nil, t.cfg, now), nil
		}
		return Status{}, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	r, err := decodeRecord(data)
	if err != nil {
		return Status{}, err
	}
	if r.lockoutElapsed(now) {
		if err := t.redis.Del(ctx, key).Err(); err != nil {
			return Status{}, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
		r = nil
	}

	return statusFor(r, t.cfg, now), nil
}

func (t *RedisTracker) Clear(ctx context.Context, identifier string) error {
	if err := t.redis.Del(ctx, t.key(identifier)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

func encodeRecord(r *record) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(attemptRecordVersion1)
	if err := binary.Write(&buf, binary.BigEndian, uint16(r.count)); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, r.lastAttemptAt.Unix()); err != nil {
		return nil, err
	}
	var lockout int64
	if !r.lockoutUntil.IsZero() {
		lockout = r.lockoutUntil.Unix()
	}
	if err := binary.Write(&buf, binary.BigEndian, lockout); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func decodeRecord(data []byte) (*record, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, errors.New("attempt record truncated")
	}
	if version != attemptRecordVersion1 {
		return nil, errors.New("invalid attempt record version")
	}

	var count uint16
	if err := binary.Read(reader, binary.BigEndian, &count); err != nil {
		return nil, err
	}
	var lastAttempt, lockout int64
	if err := binary.Read(reader, binary.BigEndian, &lastAttempt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &lockout); err != nil {
		return nil, err
	}

	r := &record{
		count:         int(count),
		lastAttemptAt: time.Unix(lastAttempt, 0),
	}
	if lockout > 0 {
		r.lockoutUntil = time.Unix(lockout, 0)
	}
	return r, nil
}
