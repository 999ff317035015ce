package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tessro/linkctl/internal/core"
	"github.com/tessro/linkctl/internal/linkplay"
	"github.com/tessro/linkctl/internal/session"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List configured devices",
	Long:  `Lists configured devices with the name, firmware, and group role they report.`,
	RunE:  runDevices,
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

type deviceRow struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Host     string   `json:"host"`
	Online   bool     `json:"online"`
	Reported string   `json:"reported_name,omitempty"`
	Firmware string   `json:"firmware,omitempty"`
	UUID     string   `json:"uuid,omitempty"`
	Role     string   `json:"role,omitempty"`
	Master   string   `json:"master,omitempty"`
	Inputs   []string `json:"inputs,omitempty"`
	Error    string   `json:"error,omitempty"`
}

func runDevices(cmd *cobra.Command, args []string) error {
	m := newManager()
	rows := collectDevices(cmd.Context(), m)

	if JSONOutput() {
		return writeJSON(os.Stdout, rows)
	}

	headers := []string{"", "ID", "NAME", "HOST", "ROLE", "FIRMWARE"}
	if Verbose() {
		headers = append(headers, "INPUTS")
	}
	t := NewTable(headers...)
	for _, r := range rows {
		values := []string{StatusIcon(r.Online), r.ID, r.Name, r.Host, r.Role, r.Firmware}
		if Verbose() {
			values = append(values, strings.Join(r.Inputs, ","))
		}
		t.Row(values...)
	}
	t.Flush()
	return nil
}

func collectDevices(ctx context.Context, m *session.Manager) []deviceRow {
	rows := make([]deviceRow, len(cfg.Devices))
	var g errgroup.Group
	for i, d := range cfg.Devices {
		i, d := i, d
		rows[i] = deviceRow{ID: d.ID, Name: d.DisplayName(), Host: d.Host}
		g.Go(func() error {
			info, err := m.DeviceInfo(ctx, d.ID)
			if err != nil {
				rows[i].Error = err.Error()
				return nil
			}
			fillDeviceRow(&rows[i], info)
			return nil
		})
	}
	_ = g.Wait()
	return rows
}

func fillDeviceRow(r *deviceRow, info *linkplay.DeviceInfo) {
	r.Online = true
	r.Reported = info.Name
	r.Firmware = info.Firmware
	r.UUID = info.UUID
	r.Inputs = info.Inputs
	switch {
	case info.Slave:
		r.Role = string(core.RoleSlave)
		r.Master = info.MasterUUID
	case info.Slaves > 0:
		r.Role = fmt.Sprintf("%s (%d)", core.RoleMaster, info.Slaves)
	default:
		r.Role = string(core.RoleStandalone)
	}
}
