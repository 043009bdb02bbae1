package otp

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix     = "otp:v1:"
	hashField     = "hash"
	attemptsField = "attempts"
)

// incrIfExists avoids recreating a key (without TTL) that expired between
// Load and IncrAttempts.
var incrIfExists = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return -1
end
return redis.call('HINCRBY', KEYS[1], ARGV[1], 1)
`)

var consumeIfMatches = redis.NewScript(`
if redis.call('HGET', KEYS[1], ARGV[1]) == ARGV[2] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

// RedisStore keeps passcodes in a Redis hash per account with a key TTL.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore builds a Redis-backed Store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Save(ctx context.Context, accountID string, hash []byte, ttl time.Duration) error {
	key := keyPrefix + accountID
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, hashField, hash, attemptsField, 0)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	return err
}

func (s *RedisStore) Load(ctx context.Context, accountID string) (Entry, error) {
	values, err := s.client.HGetAll(ctx, keyPrefix+accountID).Result()
	if err != nil {
		return Entry{}, err
	}
	hash, ok := values[hashField]
	if !ok || hash == "" {
		return Entry{}, ErrNoCode
	}
	attempts, err := strconv.Atoi(values[attemptsField])
	if err != nil {
		attempts = 0
	}
	return Entry{Hash: []byte(hash), Attempts: attempts}, nil
}

func (s *RedisStore) IncrAttempts(ctx context.Context, accountID string) (int, error) {
	n, err := incrIfExists.Run(ctx, s.client, []string{keyPrefix + accountID}, attemptsField).Int()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, ErrNoCode
	}
	return n, nil
}

func (s *RedisStore) Consume(ctx context.Context, accountID string, hash []byte) (bool, error) {
	n, err := consumeIfMatches.Run(ctx, s.client, []string{keyPrefix + accountID}, hashField, string(hash)).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *RedisStore) Delete(ctx context.Context, accountID string) error {
	err := s.client.Del(ctx, keyPrefix+accountID).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
