package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tessro/linkctl/internal/core"
	lerrors "github.com/tessro/linkctl/internal/errors"
	"github.com/tessro/linkctl/internal/reconcile"
)

type scriptedTransport struct {
	mu      sync.Mutex
	status  core.RawStatus
	fail    bool
	polls   atomic.Int32
	subs    atomic.Int32
	streams chan chan *core.RawStatus
}

func newScripted(status core.RawStatus) *scriptedTransport {
	return &scriptedTransport{status: status, streams: make(chan chan *core.RawStatus, 4)}
}

func (s *scriptedTransport) GetStatus(ctx context.Context) (*core.RawStatus, error) {
	s.polls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return nil, lerrors.Transport("get status", "test", errors.New("timeout"))
	}
	raw := s.status
	raw.Origin = core.OriginPoll
	raw.Timestamp = time.Now()
	return &raw, nil
}

func (s *scriptedTransport) SendCommand(ctx context.Context, name string, args ...string) error {
	return nil
}

func (s *scriptedTransport) SubscribeEvents(ctx context.Context) (<-chan *core.RawStatus, error) {
	s.subs.Add(1)
	select {
	case ch := <-s.streams:
		return ch, nil
	default:
		return nil, errors.New("no stream")
	}
}

func (s *scriptedTransport) setFail(fail bool) {
	s.mu.Lock()
	s.fail = fail
	s.mu.Unlock()
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestDrivePollsAndAbsorbsErrors(t *testing.T) {
	reg := reconcile.NewRegistry(reconcile.Options{StalenessWindow: 50 * time.Millisecond})
	rec := reg.Add(core.Device{ID: "kitchen"})
	tr := newScripted(core.RawStatus{Mode: core.ModeUSBDisk, PlayStatus: core.StatusPlaying})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Drive(ctx, rec, tr, DriverOptions{
			PollInterval: 10 * time.Millisecond,
			StaleCheck:   5 * time.Millisecond,
		})
	}()

	waitFor(t, "first sync", func() bool { return rec.CurrentState().Sync == core.SyncSynced })

	updates, unsubscribe := rec.Subscribe()
	defer unsubscribe()

	tr.setFail(true)
	waitFor(t, "stale", func() bool { return rec.CurrentState().Sync == core.SyncStale })
	if rec.CurrentState().Capabilities.Any() {
		t.Error("capabilities reported while stale")
	}

	sawStale := false
	waitFor(t, "stale publication", func() bool {
		for {
			select {
			case s := <-updates:
				if s.Sync == core.SyncStale {
					sawStale = true
				}
			default:
				return sawStale
			}
		}
	})

	tr.setFail(false)
	waitFor(t, "resync", func() bool { return rec.CurrentState().Sync == core.SyncSynced })

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Drive() error = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Drive() did not return after cancel")
	}
}

func TestDriveMergesEventsAndResubscribes(t *testing.T) {
	reg := reconcile.NewRegistry(reconcile.Options{StalenessWindow: time.Minute})
	rec := reg.Add(core.Device{ID: "kitchen"})
	tr := newScripted(core.RawStatus{Mode: core.ModeNetwork, PlayStatus: core.StatusPlaying})

	first := make(chan *core.RawStatus, 1)
	tr.streams <- first

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Drive(ctx, rec, tr, DriverOptions{
		PollInterval:     time.Hour,
		ResubscribeDelay: 10 * time.Millisecond,
		Events:           true,
	})

	waitFor(t, "poll", func() bool { return rec.CurrentState().Sync == core.SyncSynced })

	first <- &core.RawStatus{
		Mode:       core.ModeNetwork,
		PlayStatus: core.StatusPaused,
		Origin:     core.OriginEvent,
		Timestamp:  time.Now().Add(time.Second),
	}
	waitFor(t, "event merge", func() bool {
		s := rec.CurrentState()
		return s.PlayStatus == core.StatusPaused && s.LastOrigin == core.OriginEvent
	})

	close(first)
	waitFor(t, "resubscribe", func() bool { return tr.subs.Load() >= 2 })
}

func TestManagerRefreshAndResolve(t *testing.T) {
	devices := []core.Device{{ID: "living", Name: "Living Room"}, {ID: "patio", Name: "Patio"}}
	master := newScripted(core.RawStatus{Mode: core.ModeUSBDisk, PlayStatus: core.StatusPlaying, Track: core.Track{Title: "Song"}})
	slave := newScripted(core.RawStatus{Mode: core.ModeFollower, PlayStatus: core.StatusBuffering, Role: core.RoleSlave, MasterID: "living"})
	ghost := newScripted(core.RawStatus{})
	ghost.setFail(true)

	m := NewWithTransports(append(devices, core.Device{ID: "garage"}), map[string]core.Transport{
		"living": master, "patio": slave, "garage": ghost,
	}, reconcile.Options{StalenessWindow: time.Minute})

	res := m.Refresh(context.Background())
	if len(res.Errors) != 1 || !errors.Is(res.Errors[0], lerrors.ErrTransport) {
		t.Errorf("Errors = %v, want one transport error", res.Errors)
	}
	if len(res.Data) != 3 {
		t.Fatalf("Data = %d states, want 3", len(res.Data))
	}

	var patio core.DeviceState
	for _, s := range res.Data {
		if s.DeviceID == "patio" {
			patio = s
		}
	}
	if !patio.Forwarded || patio.Track.Title != "Song" {
		t.Errorf("patio = %+v, want forwarded master state", patio)
	}

	if _, err := m.Resolve(""); err == nil {
		t.Error("Resolve(\"\") with three devices error = nil")
	}
	if id, err := m.Resolve("patio"); err != nil || id != "patio" {
		t.Errorf("Resolve(patio) = %q, %v", id, err)
	}

	f, err := m.Facade("living", false)
	if err != nil {
		t.Fatalf("Facade() error = %v", err)
	}
	if err := f.Next(context.Background()); err != nil {
		t.Errorf("Next() error = %v", err)
	}
}

func TestManagerResolveSingleDevice(t *testing.T) {
	m := NewWithTransports([]core.Device{{ID: "only"}}, map[string]core.Transport{}, reconcile.Options{})
	if id, err := m.Resolve(""); err != nil || id != "only" {
		t.Errorf("Resolve(\"\") = %q, %v, want only", id, err)
	}
}
