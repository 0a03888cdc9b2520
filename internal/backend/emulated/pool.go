package emulated

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// SizeClass represents the region size categories used for pooling.
type SizeClass int

const (
	// SmallRegion for regions < 4KB.
	SmallRegion SizeClass = iota
	// MediumRegion for regions 4KB-1MB.
	MediumRegion
	// LargeRegion for regions > 1MB.
	LargeRegion
)

const (
	smallThreshold  = 4 * 1024    // 4KB
	mediumThreshold = 1024 * 1024 // 1MB
	maxPoolSize     = 64          // Max idle regions per class
)

// region is one mapped block of device memory. len(data) is the mapped capacity.
type region struct {
	data []byte
}

// PoolStats summarizes pool activity.
type PoolStats struct {
	Mapped   uint64 `json:"mapped"`
	Unmapped uint64 `json:"unmapped"`
	Hits     uint64 `json:"hits"`
	Misses   uint64 `json:"misses"`
	Idle     int    `json:"idle"`
}

// Pool recycles mapped regions by size class to avoid a mapping per allocation.
type Pool struct {
	mu    sync.Mutex
	idle  [3][]*region
	stats PoolStats
	log   *logrus.Entry
}

// NewPool creates an empty pool.
func NewPool(log *logrus.Entry) *Pool {
	return &Pool{log: log}
}

// Acquire returns a region of at least size bytes whose first size bytes are zero.
func (p *Pool) Acquire(size int) (*region, error) {
	if size < 0 {
		return nil, errors.Errorf("invalid region size %d", size)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	class := classify(size)
	idle := p.idle[class]
	for i, r := range idle {
		if len(r.data) >= size {
			p.idle[class] = append(idle[:i], idle[i+1:]...)
			p.stats.Hits++
			clear(r.data[:size])
			return r, nil
		}
	}

	p.stats.Misses++
	// Anonymous mappings must be non-empty.
	data, err := mapRegion(max(size, 1))
	if err != nil {
		return nil, errors.Wrapf(err, "map %d bytes", size)
	}
	p.stats.Mapped++
	return &region{data: data}, nil
}

// Release returns r to its pool, or unmaps it when the pool is full.
func (p *Pool) Release(r *region) {
	p.mu.Lock()
	defer p.mu.Unlock()

	class := classify(len(r.data))
	if len(p.idle[class]) >= maxPoolSize {
		p.unmap(r)
		return
	}
	p.idle[class] = append(p.idle[class], r)
}

// Clear unmaps every idle region.
func (p *Pool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for class := range p.idle {
		for _, r := range p.idle[class] {
			p.unmap(r)
		}
		p.idle[class] = p.idle[class][:0]
	}
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.stats
	for _, idle := range p.idle {
		s.Idle += len(idle)
	}
	return s
}

func (p *Pool) unmap(r *region) {
	if err := unmapRegion(r.data); err != nil {
		p.log.WithError(err).WithField("bytes", len(r.data)).Warn("unmap failed")
	}
	r.data = nil
	p.stats.Unmapped++
}

func classify(size int) SizeClass {
	if size < smallThreshold {
		return SmallRegion
	}
	if size < mediumThreshold {
		return MediumRegion
	}
	return LargeRegion
}
