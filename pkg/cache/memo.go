package cache

import (
	"context"
	"errors"
	"fmt"

	applogger "SpillNet/pkg/logger"

	"golang.org/x/sync/singleflight"
)

const memoNamespace = "memo"

// Memo memoizes expensive computations in a Store. Entries are populated on first
// request and kept for the lifetime of the store; concurrent requests for the same
// key share one computation.
type Memo struct {
	store  Store
	group  singleflight.Group
	logger *applogger.Logger
}

type MemoOption func(*Memo)

func WithMemoLogger(l *applogger.Logger) MemoOption {
	return func(m *Memo) { m.logger = l }
}

func NewMemo(store Store, opts ...MemoOption) *Memo {
	m := &Memo{store: store, logger: applogger.Nop()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Do returns the memoized result of compute for (fn, params), computing and storing
// it on a miss. Store failures degrade to recomputation and are logged.
func Do[T any](ctx context.Context, m *Memo, fn string, params interface{}, compute func(context.Context) (T, error)) (T, error) {
	var zero T
	hash, err := HashKey(fn, params)
	if err != nil {
		return zero, err
	}
	key := GenerateKey(memoNamespace, hash)

	var cached T
	if err := m.store.Get(ctx, key, &cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, ErrCacheMiss) {
		m.logger.Warn("memo read failed", applogger.String("fn", fn), applogger.Error(err))
	}

	v, err, _ := m.group.Do(key, func() (interface{}, error) {
		var again T
		if err := m.store.Get(ctx, key, &again); err == nil {
			return again, nil
		}
		out, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		if err := m.store.Set(ctx, key, out); err != nil {
			m.logger.Warn("memo write failed", applogger.String("fn", fn), applogger.Error(err))
		}
		return out, nil
	})
	if err != nil {
		return zero, fmt.Errorf("%s: %w", fn, err)
	}
	return v.(T), nil
}
