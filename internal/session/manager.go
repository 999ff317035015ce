package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tessro/linkctl/internal/config"
	"github.com/tessro/linkctl/internal/control"
	"github.com/tessro/linkctl/internal/core"
	lerrors "github.com/tessro/linkctl/internal/errors"
	"github.com/tessro/linkctl/internal/linkplay"
	"github.com/tessro/linkctl/internal/reconcile"
)

// Manager owns the registry, transports, and loops for every configured device.
type Manager struct {
	cfg      *config.Config
	registry *reconcile.Registry
	listener *linkplay.EventListener
	log      *zap.Logger

	mu         sync.RWMutex
	transports map[string]core.Transport
	clients    map[string]*linkplay.Client
	byUUID     map[string]string
}

var _ control.Transports = (*Manager)(nil)

// New builds a manager for the devices in cfg. Nothing touches the network
// until Run or Refresh is called.
func New(cfg *config.Config, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{
		cfg: cfg,
		registry: reconcile.NewRegistry(reconcile.Options{
			StalenessWindow: cfg.Engine.Window(),
			Logger:          log,
		}),
		log:        log,
		transports: make(map[string]core.Transport),
		clients:    make(map[string]*linkplay.Client),
		byUUID:     make(map[string]string),
	}

	anyEvents := false
	for _, d := range cfg.Devices {
		anyEvents = anyEvents || d.Events
	}
	if anyEvents {
		m.listener = linkplay.NewEventListener(cfg.Events.CallbackHost, cfg.Events.Listen, log)
	}

	cache := linkplay.NewInfoCache(cfg.HTTP.InputCacheSize, time.Duration(cfg.HTTP.InputCacheTTL)*time.Second)
	for _, d := range cfg.Devices {
		opts := linkplay.Options{
			Host:     d.Host,
			Port:     d.Port,
			HTTPS:    d.HTTPS,
			Insecure: d.Insecure,
			Timeout:  time.Duration(cfg.HTTP.Timeout) * time.Millisecond,
			Cache:    cache,
			Logger:   log,
			MasterID: m.deviceForUUID,
		}
		if d.Events {
			opts.Listener = m.listener
		}
		client := linkplay.NewClient(d.ID, opts)
		m.clients[d.ID] = client
		m.transports[d.ID] = client
		m.registry.Add(core.Device{ID: d.ID, Name: d.DisplayName(), Host: d.Host})
	}
	return m
}

// NewWithTransports builds a manager over existing transports. Used by tests
// and callers that bring their own device access.
func NewWithTransports(devices []core.Device, transports map[string]core.Transport, opts reconcile.Options) *Manager {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{
		cfg:        config.Default(),
		registry:   reconcile.NewRegistry(opts),
		log:        log,
		transports: make(map[string]core.Transport, len(transports)),
		clients:    make(map[string]*linkplay.Client),
		byUUID:     make(map[string]string),
	}
	for id, t := range transports {
		m.transports[id] = t
	}
	for _, d := range devices {
		m.registry.Add(d)
	}
	return m
}

// Registry returns the state registry.
func (m *Manager) Registry() *reconcile.Registry {
	return m.registry
}

// Transport implements control.Transports.
func (m *Manager) Transport(deviceID string) (core.Transport, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.transports[deviceID]
	return t, ok
}

// Facade returns the control surface for a device ID or name.
func (m *Manager) Facade(key string, refresh bool) (*control.Facade, error) {
	id, err := m.Resolve(key)
	if err != nil {
		return nil, err
	}
	return control.New(id, m.registry, m, control.Options{
		Logger:              m.log,
		RefreshAfterCommand: refresh,
	}), nil
}

// Resolve maps a device ID or configured name to its ID. An empty key
// selects the only device when exactly one is configured.
func (m *Manager) Resolve(key string) (string, error) {
	ids := m.registry.IDs()
	if key == "" {
		if len(ids) == 1 {
			return ids[0], nil
		}
		if len(ids) == 0 {
			return "", lerrors.WithSuggestion(lerrors.ErrDeviceNotFound,
				"Add a [[devices]] entry to your config or set LINKCTL_DEVICE")
		}
		return "", lerrors.WithSuggestion(fmt.Errorf("%d devices configured", len(ids)),
			"Choose one with --device")
	}
	if m.registry.Get(key) != nil {
		return key, nil
	}
	d, err := m.cfg.Device(key)
	if err != nil {
		return "", err
	}
	return d.ID, nil
}

// Refresh polls the named devices once, concurrently. Devices that cannot be
// reached are reported in the result without failing the others.
func (m *Manager) Refresh(ctx context.Context, ids ...string) *lerrors.PartialResult[[]core.DeviceState] {
	if len(ids) == 0 {
		ids = m.registry.IDs()
	}
	result := &lerrors.PartialResult[[]core.DeviceState]{}
	m.learnUUIDs(ctx)

	var mu sync.Mutex
	var g errgroup.Group
	for _, id := range ids {
		rec := m.registry.Get(id)
		t, ok := m.Transport(id)
		if rec == nil || !ok {
			result.AddError(fmt.Errorf("%w: %s", lerrors.ErrDeviceNotFound, id))
			continue
		}
		g.Go(func() error {
			raw, err := t.GetStatus(ctx)
			if err != nil {
				mu.Lock()
				result.AddError(err)
				mu.Unlock()
				return nil
			}
			rec.Merge(raw)
			return nil
		})
	}
	_ = g.Wait()

	// A slave's forwarded view depends on its master, so states are read
	// only after every poll has merged.
	for _, id := range ids {
		if rec := m.registry.Get(id); rec != nil {
			result.Data = append(result.Data, rec.CurrentState())
		}
	}
	return result
}

// Run drives every device until ctx ends.
func (m *Manager) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if m.listener != nil {
		if err := m.listener.Listen(); err != nil {
			return err
		}
		g.Go(func() error { return m.listener.Serve(ctx) })
	}

	m.learnUUIDs(ctx)

	stale := m.cfg.Engine.Window() / 4
	for _, d := range m.cfg.Devices {
		rec := m.registry.Get(d.ID)
		t, ok := m.Transport(d.ID)
		if rec == nil || !ok {
			continue
		}
		opts := DriverOptions{
			PollInterval:     m.cfg.Engine.PollEvery(),
			ResubscribeDelay: m.cfg.Engine.ResubscribeDelay(),
			StaleCheck:       stale,
			Events:           d.Events,
			Logger:           m.log,
		}
		g.Go(func() error { return Drive(ctx, rec, t, opts) })
	}

	m.log.Info("session started", zap.Int("devices", len(m.cfg.Devices)))
	return g.Wait()
}

// DeviceInfo returns firmware details for a configured device.
func (m *Manager) DeviceInfo(ctx context.Context, id string) (*linkplay.DeviceInfo, error) {
	m.mu.RLock()
	client, ok := m.clients[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", lerrors.ErrDeviceNotFound, id)
	}
	return client.DeviceInfo(ctx)
}

// learnUUIDs records each device's UUID so slaves can name their master by ID.
func (m *Manager) learnUUIDs(ctx context.Context) {
	m.mu.RLock()
	clients := make(map[string]*linkplay.Client, len(m.clients))
	for id, c := range m.clients {
		clients[id] = c
	}
	m.mu.RUnlock()

	var g errgroup.Group
	for id, c := range clients {
		id, c := id, c
		g.Go(func() error {
			info, err := c.DeviceInfo(ctx)
			if err != nil || info.UUID == "" {
				return nil
			}
			m.mu.Lock()
			m.byUUID[info.UUID] = id
			m.mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
}

func (m *Manager) deviceForUUID(uuid string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.byUUID[uuid]; ok {
		return id
	}
	return uuid
}
