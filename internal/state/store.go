package state

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"regexp"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lucianot/liquidity-pool/internal/constants"
)

var pairRe = regexp.MustCompile(`^[A-Z0-9]{1,16}/[A-Z0-9]{1,16}$`)

// Store persists per-pair pool state in Redis, keyed under
// pool:state:<pair> with a set index for listing.
type Store struct {
	client redis.Cmdable
	clock  func() time.Time
}

func NewStore(client redis.Cmdable) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	return &Store{client: client, clock: func() time.Time { return time.Now().UTC() }}, nil
}

func ValidatePair(pair string) error {
	if !pairRe.MatchString(pair) {
		return fmt.Errorf("invalid pair")
	}
	return nil
}

// Upsert writes the state snapshot for a pair.
func (s *Store) Upsert(ctx context.Context, pair string, priceConstant *big.Int) (*PoolState, error) {
	if err := ValidatePair(pair); err != nil {
		return nil, err
	}
	if priceConstant == nil {
		return nil, fmt.Errorf("price constant is nil")
	}

	st := &PoolState{Pair: pair, PriceConstant: priceConstant.String(), UpdatedAt: s.clock()}
	b, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("marshal pool state: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, stateKey(pair), b, 0)
	pipe.SAdd(ctx, constants.RedisKeyStateIndex, pair)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("upsert pool state: %w", err)
	}

	return st, nil
}

// SavePriceConstant is the persistence hook the pool engine calls after
// every settled mutation.
func (s *Store) SavePriceConstant(ctx context.Context, pair string, k *big.Int) error {
	_, err := s.Upsert(ctx, pair, k)
	return err
}

func (s *Store) Get(ctx context.Context, pair string) (*PoolState, error) {
	if err := ValidatePair(pair); err != nil {
		return nil, err
	}

	val, err := s.client.Get(ctx, stateKey(pair)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get pool state: %w", err)
	}

	var st PoolState
	if err := json.Unmarshal([]byte(val), &st); err != nil {
		return nil, fmt.Errorf("unmarshal pool state: %w", err)
	}
	return &st, nil
}

func (s *Store) List(ctx context.Context) ([]*PoolState, error) {
	pairs, err := s.client.SMembers(ctx, constants.RedisKeyStateIndex).Result()
	if err != nil {
		return nil, fmt.Errorf("list pool state index: %w", err)
	}
	if len(pairs) == 0 {
		return []*PoolState{}, nil
	}

	keys := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if err := ValidatePair(p); err != nil {
			continue
		}
		keys = append(keys, stateKey(p))
	}
	if len(keys) == 0 {
		return []*PoolState{}, nil
	}

	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("mget pool states: %w", err)
	}

	out := make([]*PoolState, 0, len(vals))
	for _, v := range vals {
		if v == nil {
			continue
		}
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var st PoolState
		if err := json.Unmarshal([]byte(raw), &st); err != nil {
			continue
		}
		out = append(out, &st)
	}

	return out, nil
}

func (s *Store) Delete(ctx context.Context, pair string) error {
	if err := ValidatePair(pair); err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, stateKey(pair))
	pipe.SRem(ctx, constants.RedisKeyStateIndex, pair)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete pool state: %w", err)
	}

	return nil
}

func stateKey(pair string) string {
	return constants.RedisKeyStatePrefix + pair
}
