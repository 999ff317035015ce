package wizard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tessro/linkctl/internal/core"
	"github.com/tessro/linkctl/internal/tui/styles"
)

type pickerKeys struct {
	Up     key.Binding
	Down   key.Binding
	Choose key.Binding
	Cancel key.Binding
}

var pickKeys = pickerKeys{
	Up:     key.NewBinding(key.WithKeys("up", "k", "shift+tab")),
	Down:   key.NewBinding(key.WithKeys("down", "j", "tab")),
	Choose: key.NewBinding(key.WithKeys("enter", " ")),
	Cancel: key.NewBinding(key.WithKeys("esc", "q", "ctrl+c")),
}

// DeviceModel picks one configured speaker. Digits 1-9 choose directly.
type DeviceModel struct {
	devices  []core.Device
	cursor   int
	selected *core.Device
}

func NewDeviceModel(devices []core.Device) DeviceModel {
	return DeviceModel{devices: devices}
}

func (m DeviceModel) Init() tea.Cmd {
	return nil
}

func (m DeviceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	n := len(m.devices)

	switch {
	case key.Matches(kmsg, pickKeys.Cancel):
		return m, tea.Quit
	case n == 0:
		return m, nil
	case key.Matches(kmsg, pickKeys.Choose):
		return m.choose(m.cursor)
	case key.Matches(kmsg, pickKeys.Up):
		m.cursor = (m.cursor + n - 1) % n
	case key.Matches(kmsg, pickKeys.Down):
		m.cursor = (m.cursor + 1) % n
	case kmsg.Type == tea.KeyRunes && len(kmsg.Runes) == 1:
		if r := kmsg.Runes[0]; r >= '1' && r <= '9' && int(r-'1') < n {
			return m.choose(int(r - '1'))
		}
	}
	return m, nil
}

func (m DeviceModel) choose(i int) (tea.Model, tea.Cmd) {
	m.cursor = i
	m.selected = &m.devices[i]
	return m, tea.Quit
}

func (m DeviceModel) View() string {
	var b strings.Builder
	b.WriteString(styles.Title.Render("Which speaker?"))
	b.WriteString("\n\n")

	if len(m.devices) == 0 {
		b.WriteString(styles.Muted.Render("No devices configured. Add a [[devices]] entry to ~/.linkctlrc."))
		return b.String()
	}

	for i, d := range m.devices {
		label := d.Name
		if label == "" {
			label = d.ID
		}
		if i == m.cursor {
			label = "▸ " + styles.Highlight.Render(label)
		} else {
			label = "  " + label
		}

		detail := d.Host
		if d.IsSlave() && d.MasterID != "" {
			detail += ", follows " + d.MasterID
		}
		if detail != "" {
			label += styles.Dim.Render(" " + detail)
		}

		if i < 9 {
			fmt.Fprintf(&b, "%s %s\n", styles.Dim.Render(fmt.Sprintf("%d", i+1)), label)
		} else {
			fmt.Fprintf(&b, "  %s\n", label)
		}
	}

	b.WriteString("\n")
	b.WriteString(styles.Dim.Render("↑/↓ move • enter or 1-9 choose • esc cancel"))
	return b.String()
}

// Selected returns the chosen device, or nil when the picker was dismissed.
func (m DeviceModel) Selected() *core.Device {
	return m.selected
}

// RunDevicePicker asks the user to choose among devices. It returns nil when
// the picker is dismissed.
func RunDevicePicker(devices []core.Device) (*core.Device, error) {
	final, err := tea.NewProgram(NewDeviceModel(devices)).Run()
	if err != nil {
		return nil, err
	}
	return final.(DeviceModel).Selected(), nil
}
