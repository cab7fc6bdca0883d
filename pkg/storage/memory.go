package storage

import (
	"context"
	"slices"
	"sync"

	"github.com/absmach/fedfraud/pkg/errors"
)

type inMemoryStorage struct {
	sync.Mutex

	rounds    map[int]RoundMetrics
	threshold *Threshold
}

func NewInMemoryStorage() MetricsRepository {
	return &inMemoryStorage{
		rounds: make(map[int]RoundMetrics),
	}
}

func (s *inMemoryStorage) Save(_ context.Context, m RoundMetrics) error {
	if m.Round < 0 {
		return ErrInvalidRound
	}

	s.Lock()
	defer s.Unlock()

	s.rounds[m.Round] = m

	return nil
}

func (s *inMemoryStorage) List(_ context.Context, offset, limit uint64) (result []RoundMetrics, total uint64, err error) {
	s.Lock()
	defer s.Unlock()

	keys := make([]int, 0, len(s.rounds))
	for k := range s.rounds {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	total = uint64(len(keys))
	if offset >= total {
		return []RoundMetrics{}, total, nil
	}

	end := min(offset+limit, total)

	result = make([]RoundMetrics, end-offset)
	for i := offset; i < end; i++ {
		result[i-offset] = s.rounds[keys[i]]
	}

	return result, total, nil
}

func (s *inMemoryStorage) Latest(_ context.Context) (RoundMetrics, error) {
	s.Lock()
	defer s.Unlock()

	if len(s.rounds) == 0 {
		return RoundMetrics{}, errors.ErrNotFound
	}

	latest := -1
	for k := range s.rounds {
		latest = max(latest, k)
	}

	return s.rounds[latest], nil
}

func (s *inMemoryStorage) SetThreshold(_ context.Context, t Threshold) error {
	s.Lock()
	defer s.Unlock()

	s.threshold = &t

	return nil
}

func (s *inMemoryStorage) Threshold(_ context.Context) (Threshold, error) {
	s.Lock()
	defer s.Unlock()

	if s.threshold == nil {
		return Threshold{}, errors.ErrNotFound
	}

	return *s.threshold, nil
}
