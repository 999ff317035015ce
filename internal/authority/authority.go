// Package authority classifies firmware mode codes into control authorities.
package authority

import "github.com/tessro/linkctl/internal/core"

// table is the fixed mode-to-authority mapping. Modes absent here are Unknown.
var table = map[core.Mode]core.Authority{
	// Device-owned queues: local files, USB, network playlists, HTTP API.
	core.ModeIdle:       core.AuthorityLocal,
	core.ModeNetwork:    core.AuthorityLocal,
	core.ModeUSBDisk:    core.AuthorityLocal,
	core.ModeUSBDiskAlt: core.AuthorityLocal,
	core.ModeTFCard:     core.AuthorityLocal,
	core.ModeTFCard2:    core.AuthorityLocal,
	core.ModeHTTPAPI:    core.AuthorityLocal,

	// Cloud connect protocols.
	core.ModeSpotify:      core.AuthorityCloud,
	core.ModeTidalConnect: core.AuthorityCloud,

	// Casting, Bluetooth, and physical inputs.
	core.ModeAirPlay:   core.AuthorityPassive,
	core.ModeDLNA:      core.AuthorityPassive,
	core.ModeQPlay:     core.AuthorityPassive,
	core.ModeBluetooth: core.AuthorityPassive,
	core.ModeLineIn:    core.AuthorityPassive,
	core.ModeLineIn2:   core.AuthorityPassive,
	core.ModeOptical:   core.AuthorityPassive,
	core.ModeOptical2:  core.AuthorityPassive,
	core.ModeCoaxial:   core.AuthorityPassive,
	core.ModeRCA:       core.AuthorityPassive,
	core.ModeXLR:       core.AuthorityPassive,
	core.ModeHDMI:      core.AuthorityPassive,
	core.ModeUSBDAC:    core.AuthorityPassive,
	core.ModePhono:     core.AuthorityPassive,

	core.ModeFollower: core.AuthoritySlave,
}

// Classify returns the control authority for a mode. It never fails.
func Classify(mode core.Mode) core.Authority {
	if a, ok := table[mode]; ok {
		return a
	}
	return core.AuthorityUnknown
}

// ClassifyStatus classifies a raw status. Queue counts do not influence the result.
func ClassifyStatus(status *core.RawStatus) core.Authority {
	if status == nil {
		return core.AuthorityUnknown
	}
	return Classify(status.Mode)
}
