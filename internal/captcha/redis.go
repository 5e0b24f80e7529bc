package captcha

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const challengeRecordVersion1 = 1

// RedisStore keeps pending challenges in Redis. GETDEL gives Consume its
// atomic remove-and-return semantics; the native TTL evicts abandoned
// challenges.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
}

func NewRedisStore(redisClient redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ag:cap"
	}
	return &RedisStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + ":" + id
}

func (s *RedisStore) Save(ctx context.Context, id string, rec Record, ttl time.Duration) error {
	encoded, err := encodeChallengeRecord(rec)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key(id), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Consume(ctx context.Context, id string) (Record, bool, error) {
	data, err := s.redis.GetDel(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, false, nil
		}
		return Record{}, false, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	rec, err := decodeChallengeRecord(data)
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

func encodeChallengeRecord(rec Record) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(challengeRecordVersion1)
	if err := binary.Write(&buf, binary.BigEndian, rec.Answer); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, rec.ExpiresAt.Unix()); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func decodeChallengeRecord(data []byte) (Record, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return Record{}, errors.New("challenge record truncated")
	}
	if version != challengeRecordVersion1 {
		return Record{}, errors.New("invalid challenge record version")
	}

	var rec Record
	if err := binary.Read(reader, binary.BigEndian, &rec.Answer); err != nil {
		return Record{}, err
	}
	var expires int64
	if err := binary.Read(reader, binary.BigEndian, &expires); err != nil {
		return Record{}, err
	}
	rec.ExpiresAt = time.Unix(expires, 0)

	return rec, nil
}
