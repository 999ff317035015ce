// Package control is the public operation surface over a managed device.
//
// Every operation reads the current DeviceState once, decides against that
// snapshot, and issues at most one transport command. Local state is never
// changed in anticipation of the device's answer.
package control

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/tessro/linkctl/internal/core"
	lerrors "github.com/tessro/linkctl/internal/errors"
	"github.com/tessro/linkctl/internal/reconcile"
	"github.com/tessro/linkctl/internal/source"
)

// Transports finds the transport for a device ID.
type Transports interface {
	Transport(deviceID string) (core.Transport, bool)
}

// Options configures a Facade.
type Options struct {
	Vocabulary *source.Vocabulary
	Logger     *zap.Logger
	// RefreshAfterCommand fetches and merges a fresh status after each
	// acknowledged command.
	RefreshAfterCommand bool
}

// Facade controls one device.
type Facade struct {
	deviceID   string
	registry   *reconcile.Registry
	transports Transports
	vocab      *source.Vocabulary
	log        *zap.Logger
	refresh    bool
}

// New creates a Facade for deviceID. The device must already be registered
// when operations are called, not when the Facade is created.
func New(deviceID string, registry *reconcile.Registry, transports Transports, opts Options) *Facade {
	if opts.Vocabulary == nil {
		opts.Vocabulary = source.Default()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Facade{
		deviceID:   deviceID,
		registry:   registry,
		transports: transports,
		vocab:      opts.Vocabulary,
		log:        opts.Logger.Named("control").With(zap.String("device", deviceID)),
		refresh:    opts.RefreshAfterCommand,
	}
}

// DeviceID returns the ID of the controlled device.
func (f *Facade) DeviceID() string {
	return f.deviceID
}

// CurrentState returns the device's current state.
func (f *Facade) CurrentState() (core.DeviceState, error) {
	rec := f.registry.Get(f.deviceID)
	if rec == nil {
		return core.DeviceState{}, fmt.Errorf("%w: %s", lerrors.ErrDeviceNotFound, f.deviceID)
	}
	return rec.CurrentState(), nil
}

// Inputs returns the display names the device currently offers.
func (f *Facade) Inputs() ([]string, error) {
	state, err := f.CurrentState()
	if err != nil {
		return nil, err
	}
	return f.vocab.Available(state.Inputs), nil
}

// SetSource switches the device to the input named name. The name is resolved
// against the device's live input list; an unresolvable name fails with
// ErrNotFound before anything is sent.
func (f *Facade) SetSource(ctx context.Context, name string) error {
	const op = "set source"
	state, err := f.synced(op)
	if err != nil {
		return err
	}
	id, err := f.vocab.Resolve(name, state.Inputs)
	if err != nil {
		return err
	}
	// Input selection belongs to the device itself, never to its master.
	return f.send(ctx, op, f.deviceID, core.CommandSwitchMode, id)
}

// SetShuffle turns shuffle on or off, keeping the current repeat mode.
func (f *Facade) SetShuffle(ctx context.Context, on bool) error {
	const op = "set shuffle"
	state, err := f.synced(op)
	if err != nil {
		return err
	}
	if !state.Capabilities.Shuffle {
		return f.unsupported(op, state)
	}
	loop := core.EncodeLoop(on, state.Repeat)
	return f.send(ctx, op, f.target(state), core.CommandLoopMode, strconv.Itoa(int(loop)))
}

// SetRepeat sets the repeat mode, keeping the current shuffle setting.
func (f *Facade) SetRepeat(ctx context.Context, mode core.RepeatMode) error {
	const op = "set repeat"
	state, err := f.synced(op)
	if err != nil {
		return err
	}
	if !state.Capabilities.Repeat {
		return f.unsupported(op, state)
	}
	loop := core.EncodeLoop(state.Shuffle, mode)
	return f.send(ctx, op, f.target(state), core.CommandLoopMode, strconv.Itoa(int(loop)))
}

// Play starts or resumes playback.
func (f *Facade) Play(ctx context.Context) error {
	const op = "play"
	state, err := f.synced(op)
	if err != nil {
		return err
	}
	if !state.Capabilities.Playback {
		return f.unsupported(op, state)
	}
	cmd := core.CommandPlay
	if state.PlayStatus == core.StatusPaused {
		cmd = core.CommandResume
	}
	return f.send(ctx, op, f.target(state), cmd)
}

// Pause pauses playback.
func (f *Facade) Pause(ctx context.Context) error {
	return f.simple(ctx, "pause", core.CommandPause, func(c core.Capabilities) bool { return c.Playback })
}

// Stop stops playback.
func (f *Facade) Stop(ctx context.Context) error {
	return f.simple(ctx, "stop", core.CommandStop, func(c core.Capabilities) bool { return c.Playback })
}

// Next skips to the next track.
func (f *Facade) Next(ctx context.Context) error {
	return f.simple(ctx, "next", core.CommandNext, func(c core.Capabilities) bool { return c.Skip })
}

// Prev returns to the previous track.
func (f *Facade) Prev(ctx context.Context) error {
	return f.simple(ctx, "prev", core.CommandPrev, func(c core.Capabilities) bool { return c.Skip })
}

// Seek moves the playhead to position.
func (f *Facade) Seek(ctx context.Context, position time.Duration) error {
	const op = "seek"
	state, err := f.synced(op)
	if err != nil {
		return err
	}
	if !state.Capabilities.Seek {
		return f.unsupported(op, state)
	}
	if position < 0 {
		return fmt.Errorf("%s: position must be non-negative", op)
	}
	if d := state.Track.Duration; d > 0 && position > d {
		return fmt.Errorf("%s: position %s is past the end of the track (%s)", op, position, d)
	}
	secs := strconv.Itoa(int(position / time.Second))
	return f.send(ctx, op, f.target(state), core.CommandSeek, secs)
}

func (f *Facade) simple(ctx context.Context, op, cmd string, allowed func(core.Capabilities) bool) error {
	state, err := f.synced(op)
	if err != nil {
		return err
	}
	if !allowed(state.Capabilities) {
		return f.unsupported(op, state)
	}
	return f.send(ctx, op, f.target(state), cmd)
}

// synced returns the current snapshot, or ErrStale when the engine has no
// trustworthy state for the device.
func (f *Facade) synced(op string) (core.DeviceState, error) {
	state, err := f.CurrentState()
	if err != nil {
		return state, err
	}
	switch state.Sync {
	case core.SyncStale:
		return state, lerrors.Stale(op, "no update within the staleness window")
	case core.SyncUninitialized:
		return state, lerrors.Stale(op, "no status received yet")
	}
	return state, nil
}

func (f *Facade) unsupported(op string, state core.DeviceState) error {
	return lerrors.Unsupported(op, fmt.Sprintf("%s is controlled by %s", state.Source.Label(), state.Authority.Label()))
}

// target returns the device whose transport should carry a playback command.
// Forwarded slaves are driven through their master.
func (f *Facade) target(state core.DeviceState) string {
	if state.Forwarded && state.MasterID != "" {
		return state.MasterID
	}
	return f.deviceID
}

func (f *Facade) send(ctx context.Context, op, deviceID, cmd string, args ...string) error {
	t, ok := f.transports.Transport(deviceID)
	if !ok {
		return fmt.Errorf("%s: %w: %s", op, lerrors.ErrDeviceNotFound, deviceID)
	}

	f.log.Debug("sending command",
		zap.String("op", op),
		zap.String("target", deviceID),
		zap.String("command", cmd),
		zap.Strings("args", args))

	if err := t.SendCommand(ctx, cmd, args...); err != nil {
		return lerrors.Transport(op, deviceID, err)
	}

	if f.refresh {
		f.refreshState(ctx, deviceID, t)
	}
	return nil
}

// refreshState merges a freshly fetched status. Failures are left for the
// next poll.
func (f *Facade) refreshState(ctx context.Context, deviceID string, t core.Transport) {
	rec := f.registry.Get(deviceID)
	if rec == nil {
		return
	}
	raw, err := t.GetStatus(ctx)
	if err != nil {
		f.log.Debug("refresh after command failed", zap.Error(err))
		return
	}
	rec.Merge(raw)
}
