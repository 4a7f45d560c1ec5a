package tracking

import (
	"context"
	"sync"

	"github.com/jengzang/trackheat/internal/models"
)

// memStore is an in-memory PointStore. The optional func fields inject failures.
type memStore struct {
	mu        sync.Mutex
	samples   []models.GeoSample
	nextID    int64
	initCalls int

	initFn      func(ctx context.Context) error
	insertFn    func(ctx context.Context, s models.GeoSample) error
	selectAllFn func(ctx context.Context) error
}

func (m *memStore) Init(ctx context.Context) error {
	m.mu.Lock()
	m.initCalls++
	m.mu.Unlock()
	if m.initFn != nil {
		return m.initFn(ctx)
	}
	return nil
}

func (m *memStore) Insert(ctx context.Context, s models.GeoSample) (int64, error) {
	if m.insertFn != nil {
		if err := m.insertFn(ctx, s); err != nil {
			return 0, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	s.ID = m.nextID
	m.samples = append(m.samples, s)
	return s.ID, nil
}

func (m *memStore) SelectAll(ctx context.Context) ([]models.GeoSample, error) {
	if m.selectAllFn != nil {
		if err := m.selectAllFn(ctx); err != nil {
			return nil, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.GeoSample, len(m.samples))
	copy(out, m.samples)
	return out, nil
}

func (m *memStore) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.samples)), nil
}

func (m *memStore) DeleteAll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = nil
	return nil
}

func (m *memStore) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.samples)
}

func (m *memStore) inits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initCalls
}
