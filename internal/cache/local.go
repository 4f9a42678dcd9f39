package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/zeromicro/go-zero/core/collection"
	gocache "github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/syncx"
)

var _ gocache.Cache = (*Local)(nil)

// Local is an in-process gocache.Cache used when Redis is not configured.
// Values are stored JSON encoded, matching what the Redis backed cache does.
type Local struct {
	store       *collection.Cache
	barrier     syncx.SingleFlight
	expire      time.Duration
	errNotFound error
}

// NewLocal returns a Local cache whose entries default to expire.
func NewLocal(name string, expire time.Duration, errNotFound error) (*Local, error) {
	if expire <= 0 {
		expire = time.Minute
	}
	store, err := collection.NewCache(expire, collection.WithName(name))
	if err != nil {
		return nil, err
	}
	return &Local{
		store:       store,
		barrier:     syncx.NewSingleFlight(),
		expire:      expire,
		errNotFound: errNotFound,
	}, nil
}

func (l *Local) Del(keys ...string) error {
	return l.DelCtx(context.Background(), keys...)
}

func (l *Local) DelCtx(_ context.Context, keys ...string) error {
	for _, key := range keys {
		l.store.Del(key)
	}
	return nil
}

func (l *Local) Get(key string, val any) error {
	return l.GetCtx(context.Background(), key, val)
}

func (l *Local) GetCtx(_ context.Context, key string, val any) error {
	raw, ok := l.store.Get(key)
	if !ok {
		return l.errNotFound
	}
	data, ok := raw.([]byte)
	if !ok {
		l.store.Del(key)
		return l.errNotFound
	}
	return json.Unmarshal(data, val)
}

func (l *Local) IsNotFound(err error) bool {
	return errors.Is(err, l.errNotFound)
}

func (l *Local) Set(key string, val any) error {
	return l.SetCtx(context.Background(), key, val)
}

func (l *Local) SetCtx(ctx context.Context, key string, val any) error {
	return l.SetWithExpireCtx(ctx, key, val, l.expire)
}

func (l *Local) SetWithExpire(key string, val any, expire time.Duration) error {
	return l.SetWithExpireCtx(context.Background(), key, val, expire)
}

func (l *Local) SetWithExpireCtx(_ context.Context, key string, val any, expire time.Duration) error {
	data, err := json.Marshal(val)
	if err != nil {
		return err
	}
	l.store.SetWithExpire(key, data, expire)
	return nil
}

func (l *Local) Take(val any, key string, query func(val any) error) error {
	return l.TakeCtx(context.Background(), val, key, query)
}

func (l *Local) TakeCtx(ctx context.Context, val any, key string, query func(val any) error) error {
	return l.TakeWithExpireCtx(ctx, val, key, func(v any, _ time.Duration) error {
		return query(v)
	})
}

func (l *Local) TakeWithExpire(val any, key string, query func(val any, expire time.Duration) error) error {
	return l.TakeWithExpireCtx(context.Background(), val, key, query)
}

// TakeWithExpireCtx returns the cached value or runs query once per key
// across concurrent callers and caches its result.
func (l *Local) TakeWithExpireCtx(ctx context.Context, val any, key string, query func(val any, expire time.Duration) error) error {
	data, err := l.barrier.Do(key, func() (any, error) {
		if raw, ok := l.store.Get(key); ok {
			if data, ok := raw.([]byte); ok {
				return data, nil
			}
		}
		if err := query(val, l.expire); err != nil {
			return nil, err
		}
		data, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		l.store.SetWithExpire(key, data, l.expire)
		return data, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(data.([]byte), val)
}
