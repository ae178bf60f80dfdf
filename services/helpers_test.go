package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/kendall-kelly/shg-marketplace-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingNotifier keeps every notification it is given. after, when set,
// runs once the notification is recorded.
type recordingNotifier struct {
	mu    sync.Mutex
	sent  []models.Notification
	err   error
	after func(n models.Notification)
}

func (r *recordingNotifier) Notify(_ context.Context, n *models.Notification) error {
	r.mu.Lock()
	if r.err != nil {
		r.mu.Unlock()
		return r.err
	}
	r.sent = append(r.sent, *n)
	after := r.after
	r.mu.Unlock()

	if after != nil {
		after(*n)
	}
	return nil
}

func (r *recordingNotifier) Sent() []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Notification(nil), r.sent...)
}

// memoryCache is an in-process OpenOrderCache. beforeSet, when set, runs at
// the start of SetOpen to interleave a write with a cache fill.
type memoryCache struct {
	mu            sync.Mutex
	orders        []models.OpenOrder
	ok            bool
	generation    int64
	hits          int
	invalidations int
	staleWrites   int
	beforeSet     func()
}

func (m *memoryCache) GetOpen(context.Context) ([]models.OpenOrder, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ok {
		m.hits++
	}
	return m.orders, m.ok, nil
}

func (m *memoryCache) Generation(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation, nil
}

func (m *memoryCache) SetOpen(_ context.Context, generation int64, orders []models.OpenOrder) error {
	if hook := m.beforeSet; hook != nil {
		m.beforeSet = nil
		hook()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if generation != m.generation {
		m.staleWrites++
		return ErrStaleOpenOrders
	}
	m.orders, m.ok = orders, true
	return nil
}

func (m *memoryCache) Invalidate(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders, m.ok = nil, false
	m.generation++
	m.invalidations++
	return nil
}

func requireKind(t *testing.T, err error, kind Kind, code string) {
	t.Helper()

	require.Error(t, err)
	var se *Error
	require.True(t, errors.As(err, &se), "expected *services.Error, got %T: %v", err, err)
	assert.Equal(t, kind, se.Kind)
	if code != "" {
		assert.Equal(t, code, se.Code)
	}
}
