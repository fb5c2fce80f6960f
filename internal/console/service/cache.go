package service

import (
	"sync"
	"time"

	"github.com/xela07ax/agent-metrics-console/internal/domain"
)

// SnapshotCache хранит последний посчитанный ответ и время его расчета.
// Снапшот свеж, пока его возраст строго меньше TTL.
type SnapshotCache struct {
	mu         sync.RWMutex
	ttl        time.Duration
	now        func() time.Time
	snapshot   *domain.AgentMetricsResponse
	computedAt time.Time
}

func NewSnapshotCache(ttl time.Duration, now func() time.Time) *SnapshotCache {
	if now == nil {
		now = time.Now
	}
	return &SnapshotCache{ttl: ttl, now: now}
}

// Get возвращает снапшот, только если он еще свеж
func (c *SnapshotCache) Get() (*domain.AgentMetricsResponse, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.snapshot == nil {
		return nil, false
	}
	if c.now().Sub(c.computedAt) >= c.ttl {
		return nil, false
	}
	return c.snapshot, true
}

// Peek возвращает последний снапшот независимо от возраста (nil, если его не было)
func (c *SnapshotCache) Peek() *domain.AgentMetricsResponse {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

func (c *SnapshotCache) Store(snapshot *domain.AgentMetricsResponse, computedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = snapshot
	c.computedAt = computedAt
}

func (c *SnapshotCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = nil
	c.computedAt = time.Time{}
}
