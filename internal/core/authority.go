package core

// Authority is the entity that currently owns playback control.
type Authority string

const (
	// AuthorityLocal means the device firmware owns the queue and progression.
	AuthorityLocal Authority = "local_controller"
	// AuthorityCloud means a cloud streaming service drives playback.
	AuthorityCloud Authority = "cloud_delegate"
	// AuthorityPassive means an external source (cast, Bluetooth, physical input) drives playback.
	AuthorityPassive Authority = "passive_renderer"
	// AuthoritySlave means the device renders a multi-room master's stream.
	AuthoritySlave Authority = "slave_renderer"
	// AuthorityUnknown means the mode was not recognized.
	AuthorityUnknown Authority = "unknown"
)

// Label returns a short human-readable name.
func (a Authority) Label() string {
	switch a {
	case AuthorityLocal:
		return "Device"
	case AuthorityCloud:
		return "Cloud service"
	case AuthorityPassive:
		return "External source"
	case AuthoritySlave:
		return "Group member"
	default:
		return "Unknown"
	}
}
