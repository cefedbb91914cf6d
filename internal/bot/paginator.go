package bot

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"example.com/presencebot/internal/domain"
)

// Paginator is the state of one paginated activities reply. Only the owner
// may drive its controls.
type Paginator struct {
	ID        string
	OwnerID   string
	Period    domain.Period
	Page      int
	CreatedAt time.Time
}

// Registry owns every live paginator, keyed by instance ID. Entries expire
// after the TTL; expired entries are dropped on access and by a periodic
// sweep.
type Registry struct {
	mu    sync.Mutex
	items map[string]*Paginator
	ttl   time.Duration
	now   func() time.Time
}

// NewRegistry constructs a Registry with the given entry lifetime.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		items: make(map[string]*Paginator),
		ttl:   ttl,
		now:   time.Now,
	}
}

// New creates and tracks a paginator owned by ownerID, returning a snapshot.
func (r *Registry) New(ownerID string, period domain.Period) Paginator {
	p := &Paginator{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Period:    period,
		CreatedAt: r.now(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[p.ID] = p
	return *p
}

// Get returns a snapshot of the paginator for id, dropping and reporting
// false when it has expired or never existed. Callers never share the stored
// value; mutations go through Set, which holds the registry lock.
func (r *Registry) Get(id string) (Paginator, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.lookup(id)
	if !ok {
		return Paginator{}, false
	}
	return *p, true
}

// Set updates the paginator's page and period under the registry lock and
// returns the resulting snapshot. It reports false when the entry has expired
// or never existed.
func (r *Registry) Set(id string, page int, period domain.Period) (Paginator, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.lookup(id)
	if !ok {
		return Paginator{}, false
	}
	p.Page = page
	p.Period = period
	return *p, true
}

// lookup returns the live entry for id, evicting it when expired. Callers
// must hold r.mu.
func (r *Registry) lookup(id string) (*Paginator, bool) {
	p, ok := r.items[id]
	if !ok {
		return nil, false
	}
	if r.now().Sub(p.CreatedAt) > r.ttl {
		delete(r.items, id)
		return nil, false
	}
	return p, true
}

// Remove drops a paginator.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
}

// Sweep removes every expired entry and returns how many were dropped.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	dropped := 0
	cutoff := r.now().Add(-r.ttl)
	for id, p := range r.items {
		if p.CreatedAt.Before(cutoff) {
			delete(r.items, id)
			dropped++
		}
	}
	return dropped
}

// Run sweeps the registry periodically until the context is cancelled.
// The interval is floored at one minute so a zero TTL cannot feed
// time.NewTicker an invalid duration.
func (r *Registry) Run(ctx context.Context) {
	interval := r.ttl
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
