package core

import (
	"time"

	"github.com/mitchellh/hashstructure/v2"
)

// SyncState is the reconciler's view of how current a device's state is.
type SyncState string

const (
	SyncUninitialized SyncState = "uninitialized"
	SyncSynced        SyncState = "synced"
	SyncStale         SyncState = "stale"
)

// SourceIdentity pairs a locked display name with the identifier the device reported.
type SourceIdentity struct {
	DisplayName string `json:"display_name"`
	Identifier  string `json:"identifier"`
}

// Label returns the display name, or the raw identifier when the source is not in the vocabulary.
func (s SourceIdentity) Label() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.Identifier
}

// Capabilities lists which control operations are meaningful right now.
type Capabilities struct {
	Shuffle      bool `json:"shuffle_supported"`
	Repeat       bool `json:"repeat_supported"`
	Seek         bool `json:"seek_supported"`
	QueueVisible bool `json:"queue_visible"`
	Skip         bool `json:"skip_supported"`
	Playback     bool `json:"playback_supported"`
}

// Any returns true if at least one operation is permitted.
func (c Capabilities) Any() bool {
	return c.Shuffle || c.Repeat || c.Seek || c.QueueVisible || c.Skip || c.Playback
}

// DeviceState is the merged view of a device exposed to callers.
// Instances are published whole and never modified afterwards.
type DeviceState struct {
	DeviceID     string         `json:"device_id"`
	Name         string         `json:"name"`
	Sync         SyncState      `json:"sync"`
	Mode         Mode           `json:"mode"`
	Source       SourceIdentity `json:"source"`
	Authority    Authority      `json:"authority"`
	Capabilities Capabilities   `json:"capabilities"`

	PlayStatus    PlayStatus    `json:"status"`
	Shuffle       bool          `json:"shuffle"`
	Repeat        RepeatMode    `json:"repeat"`
	Position      time.Duration `json:"position"`
	Volume        int           `json:"volume"`
	Muted         bool          `json:"muted"`
	Track         Track         `json:"track"`
	QueuePosition int           `json:"queue_position"`
	QueueCount    int           `json:"queue_count"`
	Inputs        []string      `json:"inputs,omitempty"`

	Role      GroupRole `json:"role"`
	MasterID  string    `json:"master_id,omitempty"`
	Forwarded bool      `json:"forwarded,omitempty"`

	// Revision counts accepted updates of this device. A forwarded view also
	// carries the master revision it was read from; the pair identifies its content.
	Revision       uint64    `json:"revision" hash:"ignore"`
	MasterRevision uint64    `json:"master_revision,omitempty" hash:"ignore"`
	UpdatedAt      time.Time `json:"updated_at" hash:"ignore"`
	LastOrigin     Origin    `json:"last_origin,omitempty" hash:"ignore"`
}

// IsPlaying returns true if the device reports active playback.
func (s *DeviceState) IsPlaying() bool {
	return s != nil && s.PlayStatus == StatusPlaying
}

// ProgressPercent returns playback progress as a percentage (0-100).
func (s *DeviceState) ProgressPercent() float64 {
	if s == nil || s.Track.Duration == 0 {
		return 0
	}
	return float64(s.Position) / float64(s.Track.Duration) * 100
}

// Fingerprint hashes the semantic fields of the state, ignoring revision and timestamps.
// Two states with the same fingerprint describe the same device condition.
func (s *DeviceState) Fingerprint() uint64 {
	if s == nil {
		return 0
	}
	h, err := hashstructure.Hash(s, hashstructure.FormatV2, nil)
	if err != nil {
		return 0
	}
	return h
}
