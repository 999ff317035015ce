// Package reconcile merges polled and pushed device status into one
// consistent, versioned DeviceState per device.
package reconcile

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/tessro/linkctl/internal/authority"
	"github.com/tessro/linkctl/internal/capability"
	"github.com/tessro/linkctl/internal/core"
	"github.com/tessro/linkctl/internal/source"
)

// DefaultStalenessWindow is used when Options leaves the window unset.
const DefaultStalenessWindow = 15 * time.Second

// Clock provides the current time. Tests inject a fixed or manual clock.
type Clock interface {
	Now() time.Time
}

// SystemClock returns the wall-clock time.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// Options configures reconcilers created by a Registry.
type Options struct {
	StalenessWindow time.Duration
	Clock           Clock
	Vocabulary      *source.Vocabulary
	Logger          *zap.Logger
	// ListenerBuffer is the channel size handed to each subscriber.
	ListenerBuffer int
}

func (o Options) withDefaults() Options {
	if o.StalenessWindow <= 0 {
		o.StalenessWindow = DefaultStalenessWindow
	}
	if o.Clock == nil {
		o.Clock = SystemClock{}
	}
	if o.Vocabulary == nil {
		o.Vocabulary = source.Default()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.ListenerBuffer <= 0 {
		o.ListenerBuffer = 16
	}
	return o
}

// snapshot is the unit published atomically: a state plus the local time it was accepted.
type snapshot struct {
	state      core.DeviceState
	receivedAt time.Time
}

// Reconciler owns the DeviceState of one device.
type Reconciler struct {
	device   core.Device
	opts     Options
	caps     *capability.Resolver
	registry *Registry
	log      *zap.Logger

	// mu serializes merges; readers use current without locking.
	mu           sync.Mutex
	current      atomic.Pointer[snapshot]
	lastAccepted time.Time
	staleSent    bool

	listenersMu sync.Mutex
	listeners   map[int]chan core.DeviceState
	nextID      int
}

// New creates a reconciler for device. registry may be nil when the device
// never needs to borrow a master's state.
func New(device core.Device, registry *Registry, opts Options) *Reconciler {
	opts = opts.withDefaults()
	if device.Role == "" {
		device.Role = core.RoleStandalone
	}
	return &Reconciler{
		device:    device,
		opts:      opts,
		caps:      capability.NewResolver(opts.Vocabulary),
		registry:  registry,
		log:       opts.Logger.Named("reconcile").With(zap.String("device", device.ID)),
		listeners: make(map[int]chan core.DeviceState),
	}
}

// Device returns the identity the reconciler was created with.
func (r *Reconciler) Device() core.Device {
	return r.device
}

// Merge folds a status snapshot into the device state. It returns the state
// as readers now see it and whether the snapshot was accepted.
//
// A snapshot older than the last accepted one is discarded, so a slow poll
// never rolls back an event that already advanced the revision.
func (r *Reconciler) Merge(raw *core.RawStatus) (core.DeviceState, bool) {
	if raw == nil {
		return r.CurrentState(), false
	}

	r.mu.Lock()
	now := r.opts.Clock.Now()
	ts := raw.Timestamp
	if ts.IsZero() {
		ts = now
	}

	prev := r.current.Load()
	if prev != nil && ts.Before(r.lastAccepted) {
		r.mu.Unlock()
		r.log.Debug("discarded out-of-order status",
			zap.String("origin", string(raw.Origin)),
			zap.Time("timestamp", ts),
			zap.Time("last_accepted", r.lastAccepted))
		return r.CurrentState(), false
	}

	next := r.build(raw, prev, ts)
	r.current.Store(&snapshot{state: next, receivedAt: now})
	r.lastAccepted = ts
	if r.staleSent {
		r.log.Info("device resynced", zap.Uint64("revision", next.Revision))
	}
	r.staleSent = false

	// Publishing under mu keeps listeners in revision order.
	view := r.CurrentState()
	r.publish(view)
	r.mu.Unlock()
	return view, true
}

// build derives a complete new state from raw. prev supplies the revision and
// fields the snapshot does not report.
func (r *Reconciler) build(raw *core.RawStatus, prev *snapshot, ts time.Time) core.DeviceState {
	auth := authority.ClassifyStatus(raw)
	id := r.opts.Vocabulary.Identify(raw.SourceIdentifier())
	shuffle, repeat := raw.Loop.Decode()

	role, masterID := r.device.Role, r.device.MasterID
	inputs := raw.Inputs
	var revision uint64 = 1
	if prev != nil {
		role, masterID = prev.state.Role, prev.state.MasterID
		if inputs == nil {
			inputs = prev.state.Inputs
		}
		revision = prev.state.Revision + 1
	}
	if raw.Role != "" {
		role, masterID = raw.Role, raw.MasterID
	} else if raw.Mode == core.ModeFollower && role != core.RoleSlave {
		role = core.RoleSlave
	}
	if role != core.RoleSlave {
		masterID = ""
	}

	return core.DeviceState{
		DeviceID:      r.device.ID,
		Name:          r.device.Name,
		Sync:          core.SyncSynced,
		Mode:          raw.Mode,
		Source:        id,
		Authority:     auth,
		Capabilities:  r.caps.Resolve(auth, id),
		PlayStatus:    raw.PlayStatus,
		Shuffle:       shuffle,
		Repeat:        repeat,
		Position:      raw.Position,
		Volume:        raw.Volume,
		Muted:         raw.Muted,
		Track:         raw.Track,
		QueuePosition: raw.QueuePosition,
		QueueCount:    raw.QueueCount,
		Inputs:        inputs,
		Role:          role,
		MasterID:      masterID,
		Revision:      revision,
		UpdatedAt:     ts,
		LastOrigin:    raw.Origin,
	}
}

// CurrentState returns the state callers should act on. Stale devices report
// no capabilities; slaves in a transitional condition report their master's state.
func (r *Reconciler) CurrentState() core.DeviceState {
	state, ok := r.ownState()
	if !ok || state.Sync == core.SyncStale {
		return state
	}
	if forwarded, ok := r.forward(state); ok {
		return forwarded
	}
	return state
}

// ownState returns this device's state without master substitution.
func (r *Reconciler) ownState() (core.DeviceState, bool) {
	snap := r.current.Load()
	if snap == nil {
		return core.DeviceState{
			DeviceID:  r.device.ID,
			Name:      r.device.Name,
			Sync:      core.SyncUninitialized,
			Mode:      core.ModeUnknown,
			Authority: core.AuthorityUnknown,
			Role:      r.device.Role,
			MasterID:  r.device.MasterID,
		}, false
	}

	state := snap.state
	if r.isStale(snap) {
		state.Sync = core.SyncStale
		state.Capabilities = capability.None()
	}
	return state, true
}

func (r *Reconciler) isStale(snap *snapshot) bool {
	return r.opts.Clock.Now().Sub(snap.receivedAt) > r.opts.StalenessWindow
}

// forward substitutes the master's state for a slave that has no meaningful
// local status. The master is looked up by ID on every call.
func (r *Reconciler) forward(state core.DeviceState) (core.DeviceState, bool) {
	if state.Role != core.RoleSlave || state.MasterID == "" || r.registry == nil {
		return state, false
	}
	if !state.PlayStatus.Transitional() {
		return state, false
	}
	master := r.registry.Get(state.MasterID)
	if master == nil || master == r {
		return state, false
	}
	ms, ok := master.ownState()
	if !ok {
		return state, false
	}

	ms.DeviceID = state.DeviceID
	ms.Name = state.Name
	ms.Role = core.RoleSlave
	ms.MasterID = state.MasterID
	ms.Inputs = state.Inputs
	ms.MasterRevision = ms.Revision
	ms.Revision = state.Revision
	ms.Forwarded = true
	return ms, true
}

// CheckStale publishes the Synced to Stale transition once per stale period.
// It returns true if the device is currently stale.
func (r *Reconciler) CheckStale() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := r.current.Load()
	if snap == nil || !r.isStale(snap) {
		return false
	}
	if !r.staleSent {
		r.staleSent = true
		r.log.Warn("device state is stale",
			zap.Duration("window", r.opts.StalenessWindow),
			zap.Time("last_update", snap.state.UpdatedAt))
		state, _ := r.ownState()
		r.publish(state)
	}
	return true
}

// Subscribe returns a channel that receives every published state and a
// function that ends the subscription.
func (r *Reconciler) Subscribe() (<-chan core.DeviceState, func()) {
	ch := make(chan core.DeviceState, r.opts.ListenerBuffer)

	r.listenersMu.Lock()
	id := r.nextID
	r.nextID++
	r.listeners[id] = ch
	r.listenersMu.Unlock()

	return ch, func() {
		r.listenersMu.Lock()
		defer r.listenersMu.Unlock()
		if c, ok := r.listeners[id]; ok {
			delete(r.listeners, id)
			close(c)
		}
	}
}

func (r *Reconciler) publish(state core.DeviceState) {
	r.listenersMu.Lock()
	defer r.listenersMu.Unlock()
	for _, ch := range r.listeners {
		select {
		case ch <- state:
		default:
			// Drop for slow listeners
		}
	}
}

// Close ends every subscription.
func (r *Reconciler) Close() {
	r.listenersMu.Lock()
	defer r.listenersMu.Unlock()
	for id, ch := range r.listeners {
		delete(r.listeners, id)
		close(ch)
	}
}
