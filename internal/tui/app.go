// Package tui implements the interactive dashboard.
package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/linkctl/internal/config"
	"github.com/tessro/linkctl/internal/control"
	"github.com/tessro/linkctl/internal/core"
	"github.com/tessro/linkctl/internal/session"
	"github.com/tessro/linkctl/internal/tail"
	"github.com/tessro/linkctl/internal/tui/components"
	"github.com/tessro/linkctl/internal/tui/styles"
)

const seekStep = 10 * time.Second

// Session is the part of the device session the dashboard needs.
type Session interface {
	States() []core.DeviceState
	Facade(id string) (*control.Facade, error)
}

// Model is the main TUI model
type Model struct {
	session     Session
	updates     <-chan core.DeviceState
	refreshRate time.Duration

	width  int
	height int

	// State
	states []core.DeviceState
	prev   map[string]core.DeviceState

	// Components
	nowPlaying  *components.NowPlaying
	controls    *components.Controls
	devicesView *components.Devices
	activity    *components.Activity
	help        help.Model
	spinner     spinner.Model

	// Error handling
	lastError   error
	errorExpiry time.Time // When to clear the error

	// Quit flag
	quitting bool
}

// NewModel creates a new TUI model. updates carries every state the session publishes.
func NewModel(s Session, updates <-chan core.DeviceState, refreshRate time.Duration) Model {
	if refreshRate <= 0 {
		refreshRate = time.Second
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Highlight

	return Model{
		session:     s,
		updates:     updates,
		refreshRate: refreshRate,
		states:      s.States(),
		prev:        make(map[string]core.DeviceState),
		nowPlaying:  components.NewNowPlaying(),
		controls:    components.NewControls(),
		devicesView: components.NewDevices(),
		activity:    components.NewActivity(),
		help:        help.New(),
		spinner:     sp,
	}
}

// Messages
type tickMsg time.Time
type stateMsg core.DeviceState
type errMsg struct{ err error }
type actionDoneMsg struct{}

// Commands
func (m Model) tick() tea.Cmd {
	return tea.Tick(m.refreshRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) waitForState() tea.Cmd {
	updates := m.updates
	return func() tea.Msg {
		s, ok := <-updates
		if !ok {
			return nil
		}
		return stateMsg(s)
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.tick(),
		m.waitForState(),
		m.spinner.Tick,
	)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		if time.Now().After(m.errorExpiry) {
			m.lastError = nil
		}
		// Staleness is evaluated on read, so re-read rather than wait for a publish.
		for _, s := range m.session.States() {
			m.applyState(s)
		}
		return m, m.tick()

	case stateMsg:
		m.applyState(core.DeviceState(msg))
		return m, m.waitForState()

	case errMsg:
		m.lastError = msg.err
		m.errorExpiry = time.Now().Add(5 * time.Second) // Show error for 5 seconds
		return m, nil

	case actionDoneMsg:
		m.states = m.session.States()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// applyState records s and logs the changes since the last state of the same device.
func (m *Model) applyState(s core.DeviceState) {
	if prev, ok := m.prev[s.DeviceID]; ok {
		if prev.Fingerprint() == s.Fingerprint() {
			return
		}
		m.activity.Add(tail.Diff(&prev, &s, time.Now()))
	} else if s.Sync != core.SyncUninitialized {
		m.activity.Add(tail.Diff(nil, &s, time.Now()))
	}
	if s.Sync != core.SyncUninitialized {
		m.prev[s.DeviceID] = s
	}

	for i := range m.states {
		if m.states[i].DeviceID == s.DeviceID {
			m.states[i] = s
			return
		}
	}
	m.states = append(m.states, s)
}

func (m Model) selected() *core.DeviceState {
	if len(m.states) == 0 {
		return nil
	}
	i := m.devicesView.Selected()
	if i >= len(m.states) {
		i = len(m.states) - 1
	}
	s := m.states[i]
	return &s
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, keys.NextDev):
		m.devicesView.SelectNext(len(m.states))
		return m, nil

	case key.Matches(msg, keys.PrevDev):
		m.devicesView.SelectPrev(len(m.states))
		return m, nil
	}

	state := m.selected()
	if state == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.PlayPause):
		playing := state.IsPlaying()
		return m, m.act(state.DeviceID, func(ctx context.Context, f *control.Facade) error {
			if playing {
				return f.Pause(ctx)
			}
			return f.Play(ctx)
		})

	case key.Matches(msg, keys.Next):
		return m, m.act(state.DeviceID, func(ctx context.Context, f *control.Facade) error {
			return f.Next(ctx)
		})

	case key.Matches(msg, keys.Prev):
		return m, m.act(state.DeviceID, func(ctx context.Context, f *control.Facade) error {
			return f.Prev(ctx)
		})

	case key.Matches(msg, keys.Shuffle):
		on := !state.Shuffle
		return m, m.act(state.DeviceID, func(ctx context.Context, f *control.Facade) error {
			return f.SetShuffle(ctx, on)
		})

	case key.Matches(msg, keys.Repeat):
		mode := nextRepeat(state.Repeat)
		return m, m.act(state.DeviceID, func(ctx context.Context, f *control.Facade) error {
			return f.SetRepeat(ctx, mode)
		})

	case key.Matches(msg, keys.SeekBack), key.Matches(msg, keys.SeekFwd):
		step := seekStep
		if key.Matches(msg, keys.SeekBack) {
			step = -seekStep
		}
		pos := clampPosition(state.Position+step, state.Track.Duration)
		return m, m.act(state.DeviceID, func(ctx context.Context, f *control.Facade) error {
			return f.Seek(ctx, pos)
		})
	}

	return m, nil
}

// act runs fn against the device's facade off the UI goroutine.
func (m Model) act(id string, fn func(context.Context, *control.Facade) error) tea.Cmd {
	s := m.session
	return func() tea.Msg {
		f, err := s.Facade(id)
		if err != nil {
			return errMsg{err}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := fn(ctx, f); err != nil {
			return errMsg{err}
		}
		return actionDoneMsg{}
	}
}

func nextRepeat(r core.RepeatMode) core.RepeatMode {
	switch r {
	case core.RepeatOff:
		return core.RepeatAll
	case core.RepeatAll:
		return core.RepeatOne
	default:
		return core.RepeatOff
	}
}

func clampPosition(pos, duration time.Duration) time.Duration {
	if pos < 0 {
		return 0
	}
	if duration > 0 && pos > duration {
		return duration
	}
	return pos
}

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.width == 0 {
		return m.spinner.View() + " Loading..."
	}

	// Left: Now Playing (top), Controls (bottom)
	// Right: Devices (top), Activity (bottom)
	leftWidth := m.width * 60 / 100
	rightWidth := m.width - leftWidth - 2
	helpHeight := lipgloss.Height(m.help.View(keys))
	available := m.height - helpHeight - 1
	topHeight := available * 50 / 100
	bottomHeight := available - topHeight

	state := m.selected()
	nowPlaying := m.nowPlaying.Render(state, leftWidth-2, topHeight-2, true)
	controls := m.controls.Render(state, leftWidth-2, bottomHeight-2, false)
	devices := m.devicesView.Render(m.states, rightWidth-2, topHeight-2, false)
	activity := m.activity.Render(rightWidth-2, bottomHeight-2, false)

	leftCol := lipgloss.JoinVertical(lipgloss.Left, nowPlaying, controls)
	rightCol := lipgloss.JoinVertical(lipgloss.Left, devices, activity)
	main := lipgloss.JoinHorizontal(lipgloss.Top, leftCol, rightCol)

	return lipgloss.JoinVertical(lipgloss.Left, main, m.renderStatusBar())
}

func (m Model) renderStatusBar() string {
	status := m.help.View(keys)

	if m.lastError != nil {
		status = styles.Paused.Render("Error: " + m.lastError.Error())
	} else if s := m.selected(); s != nil && s.Sync == core.SyncUninitialized {
		status = m.spinner.View() + styles.Dim.Render(" connecting to "+s.Name)
	}

	return lipgloss.NewStyle().
		Width(m.width).
		Padding(0, 1).
		Render(status)
}

// managerSession adapts a session.Manager for the dashboard.
type managerSession struct {
	m *session.Manager
}

func (s managerSession) States() []core.DeviceState {
	return s.m.Registry().States()
}

func (s managerSession) Facade(id string) (*control.Facade, error) {
	return s.m.Facade(id, true)
}

// Run starts the dashboard over m's devices and drives the session until the
// user quits or ctx ends.
func Run(ctx context.Context, m *session.Manager, cfg config.TUIConfig) error {
	styles.SetTheme(cfg.Theme)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := make(chan core.DeviceState, 64)
	for _, id := range m.Registry().IDs() {
		rec := m.Registry().Get(id)
		if rec == nil {
			continue
		}
		ch, unsubscribe := rec.Subscribe()
		defer unsubscribe()
		go forward(ctx, ch, updates)
	}

	model := NewModel(managerSession{m}, updates, time.Duration(cfg.RefreshInterval)*time.Millisecond)
	p := tea.NewProgram(model, tea.WithAltScreen())

	go func() {
		if err := m.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			p.Send(errMsg{err})
		}
	}()
	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	_, err := p.Run()
	return err
}

func forward(ctx context.Context, in <-chan core.DeviceState, out chan<- core.DeviceState) {
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-in:
			if !ok {
				return
			}
			select {
			case out <- s:
			case <-ctx.Done():
				return
			}
		}
	}
}
