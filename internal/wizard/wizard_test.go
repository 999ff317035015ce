package wizard

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tessro/linkctl/internal/core"
)

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestDevicePickerSelects(t *testing.T) {
	devices := []core.Device{
		{ID: "kitchen", Name: "Kitchen", Host: "10.0.0.2"},
		{ID: "den", Name: "Den", Host: "10.0.0.3"},
	}

	tests := []struct {
		name string
		keys []string
		want string
	}{
		{"move and choose", []string{"down", "enter"}, "den"},
		{"wraps past the end", []string{"down", "j", "enter"}, "kitchen"},
		{"wraps before the start", []string{"up", "enter"}, "den"},
		{"digit chooses directly", []string{"2"}, "den"},
		{"digit out of range ignored", []string{"7", "enter"}, "kitchen"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m tea.Model = NewDeviceModel(devices)
			for _, k := range tt.keys {
				m, _ = m.Update(keyMsg(k))
			}
			got := m.(DeviceModel).Selected()
			if got == nil || got.ID != tt.want {
				t.Fatalf("Selected() = %+v, want %s", got, tt.want)
			}
		})
	}
}

func TestDevicePickerEscape(t *testing.T) {
	var m tea.Model = NewDeviceModel([]core.Device{{ID: "a", Name: "A"}})
	m, cmd := m.Update(keyMsg("esc"))
	if cmd == nil {
		t.Error("Update(esc) cmd = nil, want quit")
	}
	if got := m.(DeviceModel).Selected(); got != nil {
		t.Errorf("Selected() = %+v, want nil", got)
	}
}

func TestDevicePickerView(t *testing.T) {
	view := NewDeviceModel(nil).View()
	if !strings.Contains(view, "No devices configured") {
		t.Errorf("View() = %q, want empty-list hint", view)
	}

	view = NewDeviceModel([]core.Device{
		{ID: "k", Name: "Kitchen", Host: "10.0.0.2"},
		{ID: "p", Name: "Patio", Host: "10.0.0.3", Role: core.RoleSlave, MasterID: "k"},
	}).View()
	for _, want := range []string{"Kitchen", "10.0.0.2", "follows k"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() = %q, want %q", view, want)
		}
	}
}

func TestPickSourceRequiresNames(t *testing.T) {
	if _, err := PickSource(nil, ""); err == nil {
		t.Error("PickSource(nil) error = nil, want error")
	}
}
