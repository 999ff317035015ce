package reconcile

import (
	"sort"
	"sync"

	"github.com/tessro/linkctl/internal/core"
)

// Registry holds one Reconciler per managed device, keyed by device ID.
// Devices are independent; the registry only serves master lookups and
// enumeration.
type Registry struct {
	opts Options

	mu      sync.RWMutex
	devices map[string]*Reconciler
}

// NewRegistry creates an empty registry whose reconcilers share opts.
func NewRegistry(opts Options) *Registry {
	return &Registry{
		opts:    opts.withDefaults(),
		devices: make(map[string]*Reconciler),
	}
}

// Add registers device and returns its reconciler. Adding an ID that is
// already present returns the existing reconciler.
func (r *Registry) Add(device core.Device) *Reconciler {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.devices[device.ID]; ok {
		return rec
	}
	rec := New(device, r, r.opts)
	r.devices[device.ID] = rec
	return rec
}

// Get returns the reconciler for id, or nil.
func (r *Registry) Get(id string) *Reconciler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.devices[id]
}

// Remove ends the device's session and drops its state.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	rec, ok := r.devices[id]
	delete(r.devices, id)
	r.mu.Unlock()

	if ok {
		rec.Close()
	}
}

// IDs returns the registered device IDs in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.devices))
	for id := range r.devices {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// States returns the current state of every device in ID order.
func (r *Registry) States() []core.DeviceState {
	ids := r.IDs()
	states := make([]core.DeviceState, 0, len(ids))
	for _, id := range ids {
		if rec := r.Get(id); rec != nil {
			states = append(states, rec.CurrentState())
		}
	}
	return states
}
