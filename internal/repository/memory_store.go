package repository

import (
	"context"
	"fmt"
	"sync"

	"SpillNet/internal/domain/models"
	domrepo "SpillNet/internal/domain/repository"
)

// MemoryStore is the process-local store behind storage.backend "none".
type MemoryStore struct {
	mu     sync.RWMutex
	series map[string]models.PriceSeries
}

var _ domrepo.PriceStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{series: make(map[string]models.PriceSeries)}
}

func (s *MemoryStore) Save(_ context.Context, series models.PriceSeries) error {
	bars := make([]models.PriceBar, len(series.Bars))
	copy(bars, series.Bars)
	s.mu.Lock()
	s.series[series.Ticker] = models.PriceSeries{Ticker: series.Ticker, Bars: bars}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Load(_ context.Context, ticker string) (models.PriceSeries, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	series, ok := s.series[ticker]
	if !ok {
		return models.PriceSeries{}, fmt.Errorf("memory load %s: %w", ticker, domrepo.ErrNotFound)
	}
	return series, nil
}

func (s *MemoryStore) Close() error { return nil }
