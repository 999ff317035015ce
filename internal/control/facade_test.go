package control

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tessro/linkctl/internal/core"
	lerrors "github.com/tessro/linkctl/internal/errors"
	"github.com/tessro/linkctl/internal/reconcile"
)

type sentCommand struct {
	name string
	args []string
}

type fakeTransport struct {
	mu       sync.Mutex
	sent     []sentCommand
	statuses int
	sendErr  error
	status   *core.RawStatus
}

func (f *fakeTransport) GetStatus(ctx context.Context) (*core.RawStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses++
	if f.status == nil {
		return nil, errors.New("no status")
	}
	s := *f.status
	s.Timestamp = time.Now()
	return &s, nil
}

func (f *fakeTransport) SendCommand(ctx context.Context, name string, args ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentCommand{name: name, args: args})
	return f.sendErr
}

func (f *fakeTransport) SubscribeEvents(ctx context.Context) (<-chan *core.RawStatus, error) {
	return nil, errors.New("events not supported")
}

func (f *fakeTransport) calls() []sentCommand {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentCommand(nil), f.sent...)
}

type transportMap map[string]core.Transport

func (m transportMap) Transport(id string) (core.Transport, bool) {
	t, ok := m[id]
	return t, ok
}

func setup(t *testing.T, raw *core.RawStatus) (*Facade, *fakeTransport, *reconcile.Registry) {
	t.Helper()
	reg := reconcile.NewRegistry(reconcile.Options{StalenessWindow: time.Minute})
	rec := reg.Add(core.Device{ID: "kitchen", Name: "Kitchen"})
	if raw != nil {
		rec.Merge(raw)
	}
	ft := &fakeTransport{}
	return New("kitchen", reg, transportMap{"kitchen": ft}, Options{}), ft, reg
}

func localUSB() *core.RawStatus {
	return &core.RawStatus{
		Mode:       core.ModeUSBDisk,
		PlayStatus: core.StatusPlaying,
		QueueCount: 10,
		Loop:       core.LoopRepeatAll,
		Inputs:     []string{"wifi", "udisk", "OPTICAL_IN", "bluetooth"},
		Track:      core.Track{Title: "Song", Duration: 4 * time.Minute},
	}
}

func cloudSpotify() *core.RawStatus {
	return &core.RawStatus{Mode: core.ModeSpotify, PlayStatus: core.StatusPlaying}
}

func TestSetShuffleUnderCloudDelegate(t *testing.T) {
	f, ft, _ := setup(t, cloudSpotify())

	err := f.SetShuffle(context.Background(), true)
	if !errors.Is(err, lerrors.ErrUnsupported) {
		t.Fatalf("SetShuffle() error = %v, want ErrUnsupported", err)
	}
	if n := len(ft.calls()); n != 0 {
		t.Errorf("transport calls = %d, want 0", n)
	}
}

func TestSetShuffleUnderLocalController(t *testing.T) {
	f, ft, _ := setup(t, localUSB())

	before, _ := f.CurrentState()
	if !before.Capabilities.Shuffle {
		t.Fatal("Capabilities.Shuffle = false before command")
	}

	if err := f.SetShuffle(context.Background(), true); err != nil {
		t.Fatalf("SetShuffle() error = %v", err)
	}

	calls := ft.calls()
	if len(calls) != 1 {
		t.Fatalf("transport calls = %d, want 1", len(calls))
	}
	// repeat all is kept, so shuffle+all
	if calls[0].name != core.CommandLoopMode || len(calls[0].args) != 1 || calls[0].args[0] != "2" {
		t.Errorf("command = %+v, want loopmode 2", calls[0])
	}

	after, _ := f.CurrentState()
	if !after.Capabilities.Shuffle {
		t.Error("Capabilities.Shuffle = false after command")
	}
	if after.Shuffle {
		t.Error("Shuffle = true before the device reported it")
	}
	if after.Revision != before.Revision {
		t.Errorf("Revision = %d, want unchanged %d", after.Revision, before.Revision)
	}
}

func TestSetRepeatKeepsShuffle(t *testing.T) {
	raw := localUSB()
	raw.Loop = core.LoopShuffle
	f, ft, _ := setup(t, raw)

	if err := f.SetRepeat(context.Background(), core.RepeatOne); err != nil {
		t.Fatalf("SetRepeat() error = %v", err)
	}
	calls := ft.calls()
	if len(calls) != 1 || calls[0].args[0] != "5" {
		t.Errorf("commands = %+v, want loopmode 5", calls)
	}
}

func TestSetSource(t *testing.T) {
	tests := []struct {
		name    string
		display string
		want    string
		wantErr error
	}{
		{"structural", "Optical In", "OPTICAL_IN", nil},
		{"direct", "USB", "udisk", nil},
		{"not found", "HDMI", "", lerrors.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ft, _ := setup(t, localUSB())
			err := f.SetSource(context.Background(), tt.display)
			calls := ft.calls()

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("SetSource() error = %v, want %v", err, tt.wantErr)
				}
				if len(calls) != 0 {
					t.Errorf("transport calls = %d, want 0", len(calls))
				}
				return
			}
			if err != nil {
				t.Fatalf("SetSource() error = %v", err)
			}
			if len(calls) != 1 || calls[0].name != core.CommandSwitchMode || calls[0].args[0] != tt.want {
				t.Errorf("commands = %+v, want switchmode %q", calls, tt.want)
			}
		})
	}
}

func TestOperationsWhileUninitialized(t *testing.T) {
	f, ft, _ := setup(t, nil)

	if err := f.Play(context.Background()); !errors.Is(err, lerrors.ErrStale) {
		t.Errorf("Play() error = %v, want ErrStale", err)
	}
	if err := f.SetSource(context.Background(), "USB"); !errors.Is(err, lerrors.ErrStale) {
		t.Errorf("SetSource() error = %v, want ErrStale", err)
	}
	if n := len(ft.calls()); n != 0 {
		t.Errorf("transport calls = %d, want 0", n)
	}
}

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func TestOperationsWhileStale(t *testing.T) {
	clock := &stepClock{now: time.Now()}
	reg := reconcile.NewRegistry(reconcile.Options{StalenessWindow: 10 * time.Second, Clock: clock})
	reg.Add(core.Device{ID: "kitchen"}).Merge(localUSB())
	ft := &fakeTransport{}
	f := New("kitchen", reg, transportMap{"kitchen": ft}, Options{})

	clock.mu.Lock()
	clock.now = clock.now.Add(time.Minute)
	clock.mu.Unlock()

	state, _ := f.CurrentState()
	if state.Capabilities.Shuffle {
		t.Error("Capabilities.Shuffle = true while stale")
	}
	if err := f.SetShuffle(context.Background(), true); !errors.Is(err, lerrors.ErrStale) {
		t.Errorf("SetShuffle() error = %v, want ErrStale", err)
	}
	if n := len(ft.calls()); n != 0 {
		t.Errorf("transport calls = %d, want 0", n)
	}
}

func TestCapabilityGating(t *testing.T) {
	passive := &core.RawStatus{Mode: core.ModeBluetooth, PlayStatus: core.StatusPlaying}

	tests := []struct {
		name    string
		raw     *core.RawStatus
		call    func(*Facade) error
		wantErr error
		wantCmd string
	}{
		{"seek local", localUSB(), func(f *Facade) error { return f.Seek(context.Background(), 90*time.Second) }, nil, core.CommandSeek},
		{"seek cloud", cloudSpotify(), func(f *Facade) error { return f.Seek(context.Background(), time.Second) }, lerrors.ErrUnsupported, ""},
		{"next cloud", cloudSpotify(), func(f *Facade) error { return f.Next(context.Background()) }, nil, core.CommandNext},
		{"next passive", passive, func(f *Facade) error { return f.Next(context.Background()) }, lerrors.ErrUnsupported, ""},
		{"prev local", localUSB(), func(f *Facade) error { return f.Prev(context.Background()) }, nil, core.CommandPrev},
		{"pause passive", passive, func(f *Facade) error { return f.Pause(context.Background()) }, nil, core.CommandPause},
		{"repeat passive", passive, func(f *Facade) error { return f.SetRepeat(context.Background(), core.RepeatAll) }, lerrors.ErrUnsupported, ""},
		{"play playing", localUSB(), func(f *Facade) error { return f.Play(context.Background()) }, nil, core.CommandPlay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ft, _ := setup(t, tt.raw)
			err := tt.call(f)
			calls := ft.calls()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				if len(calls) != 0 {
					t.Errorf("transport calls = %d, want 0", len(calls))
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(calls) != 1 || calls[0].name != tt.wantCmd {
				t.Errorf("commands = %+v, want one %q", calls, tt.wantCmd)
			}
		})
	}
}

func TestPlayResumesWhenPaused(t *testing.T) {
	raw := localUSB()
	raw.PlayStatus = core.StatusPaused
	f, ft, _ := setup(t, raw)

	if err := f.Play(context.Background()); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if calls := ft.calls(); len(calls) != 1 || calls[0].name != core.CommandResume {
		t.Errorf("commands = %+v, want resume", calls)
	}
}

func TestSeekValidation(t *testing.T) {
	f, ft, _ := setup(t, localUSB())

	if err := f.Seek(context.Background(), -time.Second); err == nil {
		t.Error("Seek(-1s) error = nil")
	}
	if err := f.Seek(context.Background(), 5*time.Minute); err == nil {
		t.Error("Seek(past end) error = nil")
	}
	if n := len(ft.calls()); n != 0 {
		t.Errorf("transport calls = %d, want 0", n)
	}

	if err := f.Seek(context.Background(), 95*time.Second); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	if calls := ft.calls(); calls[0].args[0] != "95" {
		t.Errorf("seek arg = %q, want 95", calls[0].args[0])
	}
}

func TestTransportFailure(t *testing.T) {
	f, ft, _ := setup(t, localUSB())
	ft.sendErr = errors.New("connection refused")

	err := f.Pause(context.Background())
	if !errors.Is(err, lerrors.ErrTransport) {
		t.Fatalf("Pause() error = %v, want ErrTransport", err)
	}
	if state, _ := f.CurrentState(); state.Sync != core.SyncSynced {
		t.Errorf("Sync = %q after transport error, want unchanged", state.Sync)
	}
}

func TestForwardedSlaveUsesMasterTransport(t *testing.T) {
	reg := reconcile.NewRegistry(reconcile.Options{StalenessWindow: time.Minute})
	reg.Add(core.Device{ID: "living"}).Merge(localUSB())
	reg.Add(core.Device{ID: "patio"}).Merge(&core.RawStatus{
		Mode:       core.ModeFollower,
		PlayStatus: core.StatusBuffering,
		Role:       core.RoleSlave,
		MasterID:   "living",
	})

	master, slave := &fakeTransport{}, &fakeTransport{}
	f := New("patio", reg, transportMap{"living": master, "patio": slave}, Options{})

	if err := f.Next(context.Background()); err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if len(master.calls()) != 1 || len(slave.calls()) != 0 {
		t.Errorf("master calls = %d, slave calls = %d, want 1 and 0", len(master.calls()), len(slave.calls()))
	}
}

func TestSettledSlaveRejectsPlayback(t *testing.T) {
	reg := reconcile.NewRegistry(reconcile.Options{StalenessWindow: time.Minute})
	reg.Add(core.Device{ID: "patio"}).Merge(&core.RawStatus{
		Mode:       core.ModeFollower,
		PlayStatus: core.StatusPlaying,
		Role:       core.RoleSlave,
		MasterID:   "living",
	})
	ft := &fakeTransport{}
	f := New("patio", reg, transportMap{"patio": ft}, Options{})

	if err := f.Pause(context.Background()); !errors.Is(err, lerrors.ErrUnsupported) {
		t.Errorf("Pause() error = %v, want ErrUnsupported", err)
	}
}

func TestRefreshAfterCommand(t *testing.T) {
	reg := reconcile.NewRegistry(reconcile.Options{StalenessWindow: time.Minute})
	rec := reg.Add(core.Device{ID: "kitchen"})
	rec.Merge(localUSB())

	updated := localUSB()
	updated.Loop = core.LoopShuffleRepeatAll
	ft := &fakeTransport{status: updated}
	f := New("kitchen", reg, transportMap{"kitchen": ft}, Options{RefreshAfterCommand: true})

	if err := f.SetShuffle(context.Background(), true); err != nil {
		t.Fatalf("SetShuffle() error = %v", err)
	}
	if ft.statuses != 1 {
		t.Errorf("GetStatus calls = %d, want 1", ft.statuses)
	}
	if state := rec.CurrentState(); !state.Shuffle {
		t.Error("Shuffle = false after refresh, want device-reported true")
	}
}

func TestUnknownDevice(t *testing.T) {
	reg := reconcile.NewRegistry(reconcile.Options{})
	f := New("ghost", reg, transportMap{}, Options{})

	if _, err := f.CurrentState(); !errors.Is(err, lerrors.ErrDeviceNotFound) {
		t.Errorf("CurrentState() error = %v, want ErrDeviceNotFound", err)
	}
}

func TestInputs(t *testing.T) {
	f, _, _ := setup(t, localUSB())
	names, err := f.Inputs()
	if err != nil {
		t.Fatalf("Inputs() error = %v", err)
	}
	want := []string{"Network", "USB", "Bluetooth", "Optical In"}
	if len(names) != len(want) {
		t.Fatalf("Inputs() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Inputs()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}
