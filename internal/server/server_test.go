package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tessro/linkctl/internal/core"
	lerrors "github.com/tessro/linkctl/internal/errors"
	"github.com/tessro/linkctl/internal/reconcile"
	"github.com/tessro/linkctl/internal/session"
)

type fakeTransport struct {
	mu      sync.Mutex
	status  core.RawStatus
	sent    []string
	sendErr error
}

func (f *fakeTransport) GetStatus(ctx context.Context) (*core.RawStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.status
	s.Origin = core.OriginPoll
	s.Timestamp = time.Now()
	return &s, nil
}

func (f *fakeTransport) SendCommand(ctx context.Context, name string, args ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, name)
	return nil
}

func (f *fakeTransport) SubscribeEvents(ctx context.Context) (<-chan *core.RawStatus, error) {
	return nil, errors.New("events not supported")
}

func (f *fakeTransport) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	srv     *Server
	kitchen *fakeTransport
	patio   *fakeTransport
	clock   *manualClock
	m       *session.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	kitchen := &fakeTransport{status: core.RawStatus{
		Mode:       core.ModeUSBDisk,
		PlayStatus: core.StatusPlaying,
		QueueCount: 12,
		Inputs:     []string{"wifi", "udisk", "optical"},
		Track:      core.Track{Title: "Song", Duration: 4 * time.Minute},
	}}
	patio := &fakeTransport{status: core.RawStatus{Mode: core.ModeSpotify, PlayStatus: core.StatusPlaying}}
	clock := &manualClock{now: time.Now()}

	m := session.NewWithTransports(
		[]core.Device{{ID: "kitchen", Name: "Kitchen"}, {ID: "patio", Name: "Patio"}},
		map[string]core.Transport{"kitchen": kitchen, "patio": patio},
		reconcile.Options{StalenessWindow: time.Minute, Clock: clock},
	)
	if res := m.Refresh(context.Background()); res.HasErrors() {
		t.Fatalf("Refresh() errors = %v", res.Errors)
	}
	return &fixture{srv: New(m, Options{}), kitchen: kitchen, patio: patio, clock: clock, m: m}
}

func (fx *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	fx.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestListDevices(t *testing.T) {
	fx := newFixture(t)

	rec := fx.do(http.MethodGet, "/api/devices", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var states []core.DeviceState
	if err := json.Unmarshal(rec.Body.Bytes(), &states); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(states) != 2 {
		t.Errorf("len(states) = %d, want 2", len(states))
	}
}

func TestGetDevice(t *testing.T) {
	fx := newFixture(t)

	rec := fx.do(http.MethodGet, "/api/devices/kitchen", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var state core.DeviceState
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if state.DeviceID != "kitchen" || state.Track.Title != "Song" {
		t.Errorf("state = %+v, want kitchen playing Song", state)
	}
	if state.Authority != core.AuthorityLocal {
		t.Errorf("Authority = %q, want %q", state.Authority, core.AuthorityLocal)
	}
}

func TestCommands(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantKind   string
		wantSent   string
	}{
		{"next local", http.MethodPost, "/api/devices/kitchen/next", "", http.StatusOK, "", core.CommandNext},
		{"pause", http.MethodPost, "/api/devices/kitchen/pause", "", http.StatusOK, "", core.CommandPause},
		{"seek", http.MethodPut, "/api/devices/kitchen/seek", `{"position": 90}`, http.StatusOK, "", core.CommandSeek},
		{"repeat", http.MethodPut, "/api/devices/kitchen/repeat", `{"mode": "all"}`, http.StatusOK, "", core.CommandLoopMode},
		{"source", http.MethodPut, "/api/devices/kitchen/source", `{"name": "Optical In"}`, http.StatusOK, "", core.CommandSwitchMode},
		{"shuffle cloud", http.MethodPut, "/api/devices/patio/shuffle", `{"enabled": true}`, http.StatusConflict, lerrors.KindUnsupported, ""},
		{"seek cloud", http.MethodPut, "/api/devices/patio/seek", `{"position": 1}`, http.StatusConflict, lerrors.KindUnsupported, ""},
		{"unknown source", http.MethodPut, "/api/devices/kitchen/source", `{"name": "HDMI"}`, http.StatusNotFound, lerrors.KindNotFound, ""},
		{"unknown device", http.MethodPost, "/api/devices/garage/play", "", http.StatusNotFound, lerrors.KindNotFound, ""},
		{"bad body", http.MethodPut, "/api/devices/kitchen/shuffle", `{`, http.StatusBadRequest, "", ""},
		{"missing field", http.MethodPut, "/api/devices/kitchen/shuffle", `{}`, http.StatusBadRequest, "", ""},
		{"bad repeat", http.MethodPut, "/api/devices/kitchen/repeat", `{"mode": "sometimes"}`, http.StatusBadRequest, "", ""},
		{"negative seek", http.MethodPut, "/api/devices/kitchen/seek", `{"position": -3}`, http.StatusBadRequest, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t)

			rec := fx.do(tt.method, tt.path, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantKind != "" {
				var body errorBody
				if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if body.Kind != tt.wantKind {
					t.Errorf("kind = %q, want %q", body.Kind, tt.wantKind)
				}
			}

			sent := append(fx.kitchen.commands(), fx.patio.commands()...)
			if tt.wantSent == "" {
				if len(sent) != 0 {
					t.Errorf("sent = %v, want none", sent)
				}
				return
			}
			if len(sent) != 1 || sent[0] != tt.wantSent {
				t.Errorf("sent = %v, want [%s]", sent, tt.wantSent)
			}
		})
	}
}

func TestCommandTransportFailure(t *testing.T) {
	fx := newFixture(t)
	fx.kitchen.sendErr = errors.New("connection refused")

	rec := fx.do(http.MethodPost, "/api/devices/kitchen/stop", "")
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestCommandOnStaleDevice(t *testing.T) {
	fx := newFixture(t)
	fx.clock.Advance(2 * time.Minute)

	rec := fx.do(http.MethodPost, "/api/devices/kitchen/play", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	if n := len(fx.kitchen.commands()); n != 0 {
		t.Errorf("sent %d commands to a stale device, want 0", n)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{lerrors.Unsupported("seek", "cloud"), http.StatusConflict},
		{lerrors.NotFound("set source", "no input"), http.StatusNotFound},
		{lerrors.Stale("play", "no status"), http.StatusServiceUnavailable},
		{lerrors.Transport("play", "kitchen", errors.New("timeout")), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestStreamDevice(t *testing.T) {
	fx := newFixture(t)
	ts := httptest.NewServer(fx.srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/devices/kitchen/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	var first core.DeviceState
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if first.Track.Title != "Song" {
		t.Errorf("initial Track.Title = %q, want Song", first.Track.Title)
	}

	rec := fx.m.Registry().Get("kitchen")
	rec.Merge(&core.RawStatus{
		Mode:       core.ModeUSBDisk,
		PlayStatus: core.StatusPlaying,
		Track:      core.Track{Title: "Next Song"},
		Timestamp:  time.Now(),
	})

	var next core.DeviceState
	if err := conn.ReadJSON(&next); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if next.Track.Title != "Next Song" || next.Revision <= first.Revision {
		t.Errorf("update = %q rev %d, want Next Song after rev %d", next.Track.Title, next.Revision, first.Revision)
	}
}

func TestStreamUnknownDevice(t *testing.T) {
	fx := newFixture(t)

	rec := fx.do(http.MethodGet, "/api/devices/garage/ws", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
