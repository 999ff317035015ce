package linkplay

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tessro/linkctl/internal/core"
)

// playerStatus is the getPlayerStatus payload. The firmware encodes every
// value as a string.
type playerStatus struct {
	Type     string `json:"type"`
	Ch       string `json:"ch"`
	Mode     string `json:"mode"`
	Loop     string `json:"loop"`
	Eq       string `json:"eq"`
	Status   string `json:"status"`
	CurPos   string `json:"curpos"`
	TotLen   string `json:"totlen"`
	Title    string `json:"Title"`
	Artist   string `json:"Artist"`
	Album    string `json:"Album"`
	PLICount string `json:"plicount"`
	PLICurr  string `json:"plicurr"`
	Vol      string `json:"vol"`
	Mute     string `json:"mute"`
}

func parsePlayerStatus(body []byte) (*core.RawStatus, error) {
	var ps playerStatus
	if err := json.Unmarshal(body, &ps); err != nil {
		return nil, fmt.Errorf("parse player status: %w", err)
	}
	if ps.Mode == "" {
		return nil, fmt.Errorf("parse player status: missing mode")
	}

	loop := core.LoopOff
	if n, err := strconv.Atoi(ps.Loop); err == nil {
		loop = core.LoopMode(n)
	}

	return &core.RawStatus{
		Mode:          core.ParseMode(ps.Mode),
		PlayStatus:    core.ParsePlayStatus(ps.Status),
		QueuePosition: atoi(ps.PLICurr),
		QueueCount:    atoi(ps.PLICount),
		Loop:          loop,
		Position:      millis(ps.CurPos),
		Volume:        atoi(ps.Vol),
		Muted:         ps.Mute == "1",
		Track: core.Track{
			Title:    decodeText(ps.Title),
			Artist:   decodeText(ps.Artist),
			Album:    decodeText(ps.Album),
			Duration: millis(ps.TotLen),
		},
	}, nil
}

// DeviceInfo is the subset of getStatusEx the engine uses.
type DeviceInfo struct {
	Name       string   `json:"name"`
	UUID       string   `json:"uuid"`
	Firmware   string   `json:"firmware"`
	Project    string   `json:"project"`
	Slave      bool     `json:"slave"`
	MasterUUID string   `json:"master_uuid,omitempty"`
	Slaves     int      `json:"slaves"`
	Inputs     []string `json:"inputs"`
}

type statusEx struct {
	DeviceName string `json:"DeviceName"`
	UUID       string `json:"uuid"`
	Firmware   string `json:"firmware"`
	Project    string `json:"project"`
	Group      string `json:"group"`
	MasterUUID string `json:"master_uuid"`
	PLMSupport string `json:"plm_support"`
}

func parseStatusEx(body []byte) (*DeviceInfo, error) {
	var ex statusEx
	if err := json.Unmarshal(body, &ex); err != nil {
		return nil, fmt.Errorf("parse device info: %w", err)
	}
	slave := ex.Group == "1"
	info := &DeviceInfo{
		Name:     ex.DeviceName,
		UUID:     ex.UUID,
		Firmware: ex.Firmware,
		Project:  ex.Project,
		Slave:    slave,
		Inputs:   inputsFromMask(ex.PLMSupport),
	}
	if slave {
		info.MasterUUID = ex.MasterUUID
	}
	return info, nil
}

// apply copies group and input details onto a polled status. The role is
// always set, so leaving a group clears the master link.
func (i *DeviceInfo) apply(raw *core.RawStatus, masterID func(string) string) {
	raw.Inputs = i.Inputs
	switch {
	case i.Slave:
		raw.Role = core.RoleSlave
		raw.MasterID = masterID(i.MasterUUID)
	case i.Slaves > 0:
		raw.Role = core.RoleMaster
		raw.MasterID = ""
	default:
		raw.Role = core.RoleStandalone
		raw.MasterID = ""
	}
}

type slaveList struct {
	Slaves json.Number `json:"slaves"`
}

func parseSlaveList(body []byte) (int, error) {
	var sl slaveList
	if err := json.Unmarshal(body, &sl); err != nil {
		return 0, fmt.Errorf("parse slave list: %w", err)
	}
	if sl.Slaves == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(sl.Slaves.String())
	if err != nil {
		return 0, fmt.Errorf("parse slave list: %w", err)
	}
	return n, nil
}

// plmInputs lists the plm_support bits and the input each one advertises.
var plmInputs = []struct {
	bit   uint64
	input string
}{
	{0x2, "line-in"},
	{0x4, "bluetooth"},
	{0x8, "udisk"},
	{0x10, "optical"},
	{0x40, "co-axial"},
	{0x100, "line-in2"},
	{0x8000, "PCUSB"},
	{0x40000, "optical2"},
}

// inputsFromMask expands the plm_support bitmask. Network playback is always
// available. An empty or malformed mask yields nil so the engine treats the
// list as not reported.
func inputsFromMask(mask string) []string {
	mask = strings.TrimSpace(mask)
	if mask == "" {
		return nil
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(mask), "0x"), 16, 64)
	if err != nil {
		return nil
	}
	inputs := []string{"wifi"}
	for _, p := range plmInputs {
		if n&p.bit != 0 {
			inputs = append(inputs, p.input)
		}
	}
	return inputs
}

// decodeText decodes the hex-encoded metadata strings the firmware reports.
// Values that are not valid hex-encoded UTF-8 are returned unchanged.
func decodeText(s string) string {
	if s == "" {
		return ""
	}
	b, err := hex.DecodeString(s)
	if err != nil || !utf8.Valid(b) {
		return s
	}
	text := strings.TrimSpace(string(b))
	if strings.EqualFold(text, "unknown") {
		return ""
	}
	return text
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

func millis(s string) time.Duration {
	return time.Duration(atoi(s)) * time.Millisecond
}
