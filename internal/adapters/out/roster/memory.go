// Package roster keeps track of the florists on shift. MemoryRoster serves a
// single process; RedisRoster is shared by every instance of the service.
package roster

import (
	"context"
	"sync"

	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/core/ports"
	"flowershop/internal/pkg/errs"
)

// MemoryRoster is safe for concurrent use.
type MemoryRoster struct {
	mu       sync.RWMutex
	order    []kernel.UUID
	florists map[kernel.UUID]ports.Florist
}

// NewMemoryRoster returns an empty roster.
func NewMemoryRoster() *MemoryRoster {
	return &MemoryRoster{florists: make(map[kernel.UUID]ports.Florist)}
}

// CheckIn adds the florist at the end of the shift order. Checking in again
// updates name and channel but keeps the original position.
func (r *MemoryRoster) CheckIn(_ context.Context, florist ports.Florist) error {
	if err := florist.ID.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.florists[florist.ID]; !ok {
		r.order = append(r.order, florist.ID)
	}
	r.florists[florist.ID] = florist
	return nil
}

// CheckOut removes the florist. Florists off shift yield errs.ErrObjectNotFound.
func (r *MemoryRoster) CheckOut(_ context.Context, floristID kernel.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.florists[floristID]; !ok {
		return errs.NewObjectNotFoundError("florist", floristID.String())
	}
	delete(r.florists, floristID)
	for i, id := range r.order {
		if id == floristID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Get returns errs.ErrObjectNotFound for florists off shift.
func (r *MemoryRoster) Get(_ context.Context, floristID kernel.UUID) (ports.Florist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	florist, ok := r.florists[floristID]
	if !ok {
		return ports.Florist{}, errs.NewObjectNotFoundError("florist", floristID.String())
	}
	return florist, nil
}

// OnShift lists florists in check-in order.
func (r *MemoryRoster) OnShift(_ context.Context) ([]ports.Florist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	florists := make([]ports.Florist, 0, len(r.order))
	for _, id := range r.order {
		florists = append(florists, r.florists[id])
	}
	return florists, nil
}
