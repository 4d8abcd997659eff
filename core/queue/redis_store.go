package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on a Redis sorted set.
//
// Delivery correctness comes entirely from Redis: ZPOPMIN reads and
// removes the minimum-score member as one native atomic command, so any
// number of concurrent consumers draw distinct envelopes without
// client-side coordination.
//
// Arrival sequences come from INCR on a sibling counter key. A store-side
// counter keeps the priority tie-break correct across multiple producer
// processes and across producer restarts.
type RedisStore struct {
	client *redis.Client
	key    string
	seqKey string
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithQueueKey sets the sorted set key holding the queue. The arrival
// counter lives under "<key>:seq".
func WithQueueKey(key string) RedisStoreOption {
	return func(s *RedisStore) {
		if key != "" {
			s.key = key
			s.seqKey = key + ":seq"
		}
	}
}

// NewRedisStore creates a Redis-backed ordered task store.
func NewRedisStore(client *redis.Client, opts ...RedisStoreOption) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client cannot be nil")
	}

	s := &RedisStore{
		client: client,
		key:    DefaultQueueKey,
		seqKey: DefaultQueueKey + ":seq",
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Insert adds the envelope under a sort key computed from its priority and
// a freshly incremented arrival sequence. Exactly one sequence number is
// consumed per inserted envelope.
func (s *RedisStore) Insert(ctx context.Context, e *Envelope) error {
	if e == nil {
		return errors.New("envelope cannot be nil")
	}
	if !e.Priority.Valid() {
		return ErrInvalidPriority
	}

	seq, err := s.client.Incr(ctx, s.seqKey).Result()
	if err != nil {
		return fmt.Errorf("%w: incr %s: %v", ErrStoreUnavailable, s.seqKey, err)
	}

	score, err := Score(e.Priority, uint64(seq))
	if err != nil {
		return err
	}

	data, err := EncodeEnvelope(e)
	if err != nil {
		return err
	}

	if err := s.client.ZAdd(ctx, s.key, redis.Z{Score: score, Member: data}).Err(); err != nil {
		return fmt.Errorf("%w: zadd %s: %v", ErrStoreUnavailable, s.key, err)
	}

	return nil
}

// TakeLowest atomically removes and returns the minimum-key envelope via
// ZPOPMIN. Returns (nil, nil) when the set is empty. A member that fails
// to decode has already been removed; it is reported as ErrDecode and
// never reinserted.
func (s *RedisStore) TakeLowest(ctx context.Context) (*Envelope, error) {
	members, err := s.client.ZPopMin(ctx, s.key, 1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: zpopmin %s: %v", ErrStoreUnavailable, s.key, err)
	}
	if len(members) == 0 {
		return nil, nil
	}

	raw, ok := members[0].Member.(string)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected member type %T", ErrDecode, members[0].Member)
	}

	return DecodeEnvelope([]byte(raw))
}

// PeekLowest returns the minimum-key envelope without removing it.
func (s *RedisStore) PeekLowest(ctx context.Context) (*Envelope, error) {
	members, err := s.client.ZRange(ctx, s.key, 0, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: zrange %s: %v", ErrStoreUnavailable, s.key, err)
	}
	if len(members) == 0 {
		return nil, nil
	}

	return DecodeEnvelope([]byte(members[0]))
}

// Size returns the number of envelopes currently in the queue.
func (s *RedisStore) Size(ctx context.Context) (int64, error) {
	n, err := s.client.ZCard(ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: zcard %s: %v", ErrStoreUnavailable, s.key, err)
	}
	return n, nil
}

// Clear removes all envelopes and resets the arrival counter.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key, s.seqKey).Err(); err != nil {
		return fmt.Errorf("%w: del %s: %v", ErrStoreUnavailable, s.key, err)
	}
	return nil
}

// Key returns the sorted set key holding the queue, for diagnostics and
// raw range queries by operators.
func (s *RedisStore) Key() string {
	return s.key
}
