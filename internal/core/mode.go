package core

import (
	"strconv"
	"strings"
)

// Mode is the firmware playback mode code reported in every status.
//
// The set is closed: codes the firmware reports that are not listed here
// parse to ModeUnknown rather than being carried as raw integers.
type Mode int

const (
	ModeUnknown      Mode = -1
	ModeIdle         Mode = 0
	ModeAirPlay      Mode = 1
	ModeDLNA         Mode = 2
	ModeQPlay        Mode = 3
	ModeNetwork      Mode = 10
	ModeUSBDisk      Mode = 11
	ModeTFCard       Mode = 16
	ModeHTTPAPI      Mode = 20
	ModeUSBDiskAlt   Mode = 21
	ModeSpotify      Mode = 31
	ModeTidalConnect Mode = 32
	ModeLineIn       Mode = 40
	ModeBluetooth    Mode = 41
	ModeOptical      Mode = 43
	ModeRCA          Mode = 44
	ModeCoaxial      Mode = 45
	ModeLineIn2      Mode = 47
	ModeXLR          Mode = 48
	ModeHDMI         Mode = 49
	ModeUSBDAC       Mode = 51
	ModeTFCard2      Mode = 52
	ModePhono        Mode = 54
	ModeOptical2     Mode = 56
	ModeFollower     Mode = 99
)

var modeNames = map[Mode]string{
	ModeUnknown:      "unknown",
	ModeIdle:         "idle",
	ModeAirPlay:      "airplay",
	ModeDLNA:         "dlna",
	ModeQPlay:        "qplay",
	ModeNetwork:      "network",
	ModeUSBDisk:      "usb",
	ModeTFCard:       "tfcard",
	ModeHTTPAPI:      "http-api",
	ModeUSBDiskAlt:   "usb",
	ModeSpotify:      "spotify",
	ModeTidalConnect: "tidal-connect",
	ModeLineIn:       "line-in",
	ModeBluetooth:    "bluetooth",
	ModeOptical:      "optical",
	ModeRCA:          "rca",
	ModeCoaxial:      "coaxial",
	ModeLineIn2:      "line-in-2",
	ModeXLR:          "xlr",
	ModeHDMI:         "hdmi",
	ModeUSBDAC:       "usb-dac",
	ModeTFCard2:      "tfcard",
	ModePhono:        "phono",
	ModeOptical2:     "optical-2",
	ModeFollower:     "follower",
}

// modeInputs is the input identifier the firmware uses for each mode.
// Modes without a selectable input map to a descriptive identifier.
var modeInputs = map[Mode]string{
	ModeAirPlay:      "airplay",
	ModeDLNA:         "dlna",
	ModeQPlay:        "qplay",
	ModeNetwork:      "wifi",
	ModeUSBDisk:      "udisk",
	ModeTFCard:       "tfcard",
	ModeHTTPAPI:      "wifi",
	ModeUSBDiskAlt:   "udisk",
	ModeSpotify:      "spotify",
	ModeTidalConnect: "tidal",
	ModeLineIn:       "line-in",
	ModeBluetooth:    "bluetooth",
	ModeOptical:      "optical",
	ModeRCA:          "RCA",
	ModeCoaxial:      "co-axial",
	ModeLineIn2:      "line-in2",
	ModeXLR:          "XLR",
	ModeHDMI:         "HDMI",
	ModeUSBDAC:       "PCUSB",
	ModeTFCard2:      "tfcard",
	ModePhono:        "phono",
	ModeOptical2:     "optical2",
	ModeFollower:     "multiroom",
}

// ParseMode converts a firmware mode string into a Mode.
// Unrecognized or malformed values return ModeUnknown.
func ParseMode(s string) Mode {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return ModeUnknown
	}
	return ModeFromCode(n)
}

// ModeFromCode converts a numeric firmware code into a Mode.
func ModeFromCode(n int) Mode {
	m := Mode(n)
	if _, ok := modeNames[m]; !ok {
		return ModeUnknown
	}
	return m
}

// Known returns true if the mode is part of the closed set.
func (m Mode) Known() bool {
	_, ok := modeNames[m]
	return ok && m != ModeUnknown
}

// Input returns the device input identifier associated with the mode, if any.
func (m Mode) Input() string {
	return modeInputs[m]
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return modeNames[ModeUnknown]
}
