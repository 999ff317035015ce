package core

import "context"

// Command names understood by every transport.
const (
	CommandPlay       = "play"
	CommandPause      = "pause"
	CommandResume     = "resume"
	CommandStop       = "stop"
	CommandNext       = "next"
	CommandPrev       = "prev"
	CommandSeek       = "seek"
	CommandLoopMode   = "loopmode"
	CommandSwitchMode = "switchmode"
)

// Transport issues commands to a single device and reports its status.
// Implementations own no engine logic.
type Transport interface {
	// GetStatus returns a fresh status snapshot.
	GetStatus(ctx context.Context) (*RawStatus, error)

	// SendCommand issues a control command. A nil error is the device's acknowledgement.
	SendCommand(ctx context.Context, name string, args ...string) error

	// SubscribeEvents starts delivering pushed status snapshots. The channel is
	// closed when the subscription ends; callers may subscribe again afterwards.
	SubscribeEvents(ctx context.Context) (<-chan *RawStatus, error)
}
