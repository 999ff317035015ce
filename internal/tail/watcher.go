// Package tail turns a device's stream of published states into a feed of
// discrete change events.
package tail

import (
	"context"
	"time"

	"github.com/tessro/linkctl/internal/core"
)

// EventType represents the kind of state change.
type EventType int

const (
	EventTrackChange EventType = iota
	EventTrackComplete
	EventTrackSkip
	EventPause
	EventResume
	EventVolumeChange
	EventSourceChange
	EventAuthorityChange
	EventCapabilityChange
	EventStale
	EventResync
)

// Event represents one state change.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Previous  *core.DeviceState
	Current   *core.DeviceState
}

// Watcher diffs successive states and emits events.
type Watcher struct {
	updates <-chan core.DeviceState
	initial *core.DeviceState
	events  chan Event
	done    chan struct{}
	now     func() time.Time
}

// NewWatcher creates a watcher over a state subscription. initial, if not
// nil, is treated as the state before the first update.
func NewWatcher(updates <-chan core.DeviceState, initial *core.DeviceState) *Watcher {
	return &Watcher{
		updates: updates,
		initial: initial,
		events:  make(chan Event, 16),
		done:    make(chan struct{}),
		now:     time.Now,
	}
}

// Events returns the channel of change events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start consumes updates until ctx ends, Stop is called, or the
// subscription closes.
func (w *Watcher) Start(ctx context.Context) error {
	defer close(w.events)

	prev := w.initial
	if prev != nil && prev.Sync == core.SyncUninitialized {
		prev = nil
	}
	var lastPrint uint64

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		case curr, ok := <-w.updates:
			if !ok {
				return nil
			}

			// Same content at a new revision
			fp := curr.Fingerprint()
			if prev != nil && fp == lastPrint {
				continue
			}
			lastPrint = fp

			for _, e := range Diff(prev, &curr, w.now()) {
				select {
				case w.events <- e:
				default:
					// Drop event if channel is full
				}
			}
			c := curr
			prev = &c
		}
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	close(w.done)
}

// Diff compares two states and returns the change events between them. A nil
// prev yields a track change for a state that already carries metadata.
func Diff(prev, curr *core.DeviceState, now time.Time) []Event {
	if curr == nil {
		return nil
	}
	ev := func(t EventType) Event {
		return Event{Type: t, Timestamp: now, Previous: prev, Current: curr}
	}

	// First state - no previous state
	if prev == nil {
		if !curr.Track.IsEmpty() {
			return []Event{ev(EventTrackChange)}
		}
		return nil
	}

	// Stale and resync replace every other comparison: a stale state carries
	// the last known content with nothing new to report.
	if curr.Sync == core.SyncStale && prev.Sync != core.SyncStale {
		return []Event{ev(EventStale)}
	}
	if curr.Sync == core.SyncStale {
		return nil
	}

	var events []Event
	if prev.Sync == core.SyncStale && curr.Sync == core.SyncSynced {
		events = append(events, ev(EventResync))
	}

	if prev.Authority != curr.Authority {
		events = append(events, ev(EventAuthorityChange))
	}
	if prev.Source.Identifier != curr.Source.Identifier {
		events = append(events, ev(EventSourceChange))
	}
	if prev.Capabilities != curr.Capabilities && prev.Sync != core.SyncStale {
		events = append(events, ev(EventCapabilityChange))
	}

	// Track change detection
	if trackChanged(prev, curr) {
		t := EventTrackChange
		if !prev.Track.IsEmpty() {
			if wasCompleted(prev) {
				t = EventTrackComplete
			} else {
				t = EventTrackSkip
			}
		}
		events = append(events, ev(t))
	}

	// Pause/Resume detection
	if prev.IsPlaying() && !curr.IsPlaying() {
		events = append(events, ev(EventPause))
	} else if !prev.IsPlaying() && curr.IsPlaying() {
		events = append(events, ev(EventResume))
	}

	if prev.Volume != curr.Volume {
		events = append(events, ev(EventVolumeChange))
	}

	return events
}

// trackChanged returns true if a different item is now reported.
func trackChanged(prev, curr *core.DeviceState) bool {
	if curr.Track.IsEmpty() {
		return false
	}
	return prev.Track.Title != curr.Track.Title || prev.Track.Artist != curr.Track.Artist
}

// wasCompleted returns true if the track likely completed naturally.
func wasCompleted(state *core.DeviceState) bool {
	if state.Track.Duration == 0 {
		return false
	}
	// Consider completed if progress is >= 95% of duration
	threshold := float64(state.Track.Duration) * 0.95
	return float64(state.Position) >= threshold
}
