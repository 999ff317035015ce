package core

import (
	"strings"
	"time"
)

// PlayStatus is the transport state reported by the firmware.
type PlayStatus string

const (
	StatusPlaying       PlayStatus = "play"
	StatusPaused        PlayStatus = "pause"
	StatusStopped       PlayStatus = "stop"
	StatusLoading       PlayStatus = "load"
	StatusBuffering     PlayStatus = "buffering"
	StatusTransitioning PlayStatus = "transitioning"
	StatusNone          PlayStatus = "none"
)

// ParsePlayStatus normalizes a reported status string.
func ParsePlayStatus(s string) PlayStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "play", "playing":
		return StatusPlaying
	case "pause", "paused", "paused_playback":
		return StatusPaused
	case "stop", "stopped":
		return StatusStopped
	case "load", "loading":
		return StatusLoading
	case "buffering":
		return StatusBuffering
	case "transitioning":
		return StatusTransitioning
	default:
		return StatusNone
	}
}

// Transitional returns true if the device has no settled playback status.
func (s PlayStatus) Transitional() bool {
	switch s {
	case StatusLoading, StatusBuffering, StatusTransitioning:
		return true
	}
	return false
}

// Origin records how a status snapshot reached the engine.
type Origin string

const (
	OriginPoll  Origin = "poll"
	OriginEvent Origin = "event"
)

// RawStatus is one status snapshot taken from the device at a single instant.
// It is never modified after construction.
type RawStatus struct {
	Mode          Mode          `json:"mode"`
	Source        string        `json:"source"`
	PlayStatus    PlayStatus    `json:"status"`
	QueuePosition int           `json:"queue_position"`
	QueueCount    int           `json:"queue_count"`
	Loop          LoopMode      `json:"loop"`
	Position      time.Duration `json:"position"`
	Volume        int           `json:"volume"`
	Muted         bool          `json:"muted"`
	Track         Track         `json:"track"`

	// Role is empty when the snapshot carries no grouping information.
	Role     GroupRole `json:"role,omitempty"`
	MasterID string    `json:"master_id,omitempty"`

	// Inputs is nil when the snapshot does not report the live input list.
	Inputs []string `json:"inputs,omitempty"`

	Origin    Origin    `json:"origin"`
	Timestamp time.Time `json:"timestamp"`
}

// SourceIdentifier returns the reported source, falling back to the mode's input.
func (r *RawStatus) SourceIdentifier() string {
	if r.Source != "" {
		return r.Source
	}
	return r.Mode.Input()
}
