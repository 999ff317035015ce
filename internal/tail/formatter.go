package tail

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"
)

// Formatter formats events for output.
type Formatter struct {
	showEmoji     bool
	showTimestamp bool
	template      *template.Template
}

// FormatterOption configures a Formatter.
type FormatterOption func(*Formatter)

// WithEmoji enables emoji output.
func WithEmoji(enabled bool) FormatterOption {
	return func(f *Formatter) {
		f.showEmoji = enabled
	}
}

// WithTimestamp enables timestamp output.
func WithTimestamp(enabled bool) FormatterOption {
	return func(f *Formatter) {
		f.showTimestamp = enabled
	}
}

// WithTemplate sets a custom format template. An invalid template is ignored.
func WithTemplate(tmpl string) FormatterOption {
	return func(f *Formatter) {
		if tmpl == "" {
			return
		}
		if t, err := template.New("format").Parse(tmpl); err == nil {
			f.template = t
		}
	}
}

// NewFormatter creates a new formatter with the given options.
func NewFormatter(opts ...FormatterOption) *Formatter {
	f := &Formatter{showEmoji: true}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format formats an event as a string.
func (f *Formatter) Format(e Event) string {
	if f.template != nil {
		return f.formatTemplate(e)
	}
	return f.formatLine(e)
}

func (f *Formatter) formatLine(e Event) string {
	var parts []string
	if f.showTimestamp {
		parts = append(parts, e.Timestamp.Format("15:04:05"))
	}
	if f.showEmoji {
		parts = append(parts, eventEmoji(e.Type))
	}
	if e.Current != nil && e.Current.Name != "" {
		parts = append(parts, "["+e.Current.Name+"]")
	}
	parts = append(parts, describe(e))
	return strings.Join(parts, " ")
}

type templateData struct {
	Type      string
	Emoji     string
	Timestamp time.Time
	Time      string
	Device    string
	Title     string
	Artist    string
	Album     string
	Source    string
	Authority string
	Volume    int
	Revision  uint64
}

func (f *Formatter) formatTemplate(e Event) string {
	data := templateData{
		Type:      eventTypeName(e.Type),
		Emoji:     eventEmoji(e.Type),
		Timestamp: e.Timestamp,
		Time:      e.Timestamp.Format("15:04:05"),
	}
	if c := e.Current; c != nil {
		data.Device = c.Name
		data.Title = c.Track.Title
		data.Artist = c.Track.Artist
		data.Album = c.Track.Album
		data.Source = c.Source.Label()
		data.Authority = string(c.Authority)
		data.Volume = c.Volume
		data.Revision = c.Revision
	}

	var buf bytes.Buffer
	if err := f.template.Execute(&buf, data); err != nil {
		return f.formatLine(e)
	}
	return buf.String()
}

func describe(e Event) string {
	c, p := e.Current, e.Previous
	switch e.Type {
	case EventTrackChange:
		if c != nil && !c.Track.IsEmpty() {
			return fmt.Sprintf("Now playing: %s - %s", c.Track.Artist, c.Track.Title)
		}
		return "Track changed"
	case EventTrackComplete:
		if p != nil {
			return fmt.Sprintf("Finished: %s - %s", p.Track.Artist, p.Track.Title)
		}
		return "Track completed"
	case EventTrackSkip:
		if p != nil {
			return fmt.Sprintf("Skipped: %s - %s", p.Track.Artist, p.Track.Title)
		}
		return "Track skipped"
	case EventPause:
		return "Paused"
	case EventResume:
		return "Resumed"
	case EventVolumeChange:
		if c != nil {
			return fmt.Sprintf("Volume: %d%%", c.Volume)
		}
		return "Volume changed"
	case EventSourceChange:
		if c != nil {
			return "Source: " + c.Source.Label()
		}
		return "Source changed"
	case EventAuthorityChange:
		if c != nil {
			return "Controlled by " + c.Authority.Label()
		}
		return "Control changed"
	case EventCapabilityChange:
		if c != nil {
			return "Controls: " + capabilitySummary(c.Capabilities.Shuffle, c.Capabilities.Repeat, c.Capabilities.Seek, c.Capabilities.Skip)
		}
		return "Controls changed"
	case EventStale:
		return "Not responding; controls disabled"
	case EventResync:
		return "Responding again"
	default:
		return "Unknown event"
	}
}

func capabilitySummary(shuffle, repeat, seek, skip bool) string {
	var on []string
	for _, c := range []struct {
		name string
		ok   bool
	}{{"shuffle", shuffle}, {"repeat", repeat}, {"seek", seek}, {"skip", skip}} {
		if c.ok {
			on = append(on, c.name)
		}
	}
	if len(on) == 0 {
		return "none"
	}
	return strings.Join(on, ", ")
}

func eventEmoji(t EventType) string {
	switch t {
	case EventTrackChange:
		return "🎵"
	case EventTrackComplete:
		return "✅"
	case EventTrackSkip:
		return "⏭️"
	case EventPause:
		return "⏸️"
	case EventResume:
		return "▶️"
	case EventVolumeChange:
		return "🔊"
	case EventSourceChange:
		return "🔌"
	case EventAuthorityChange:
		return "🎛️"
	case EventCapabilityChange:
		return "🔧"
	case EventStale:
		return "⚠️"
	case EventResync:
		return "🔄"
	default:
		return "❓"
	}
}

func eventTypeName(t EventType) string {
	switch t {
	case EventTrackChange:
		return "track_change"
	case EventTrackComplete:
		return "track_complete"
	case EventTrackSkip:
		return "track_skip"
	case EventPause:
		return "pause"
	case EventResume:
		return "resume"
	case EventVolumeChange:
		return "volume_change"
	case EventSourceChange:
		return "source_change"
	case EventAuthorityChange:
		return "authority_change"
	case EventCapabilityChange:
		return "capability_change"
	case EventStale:
		return "stale"
	case EventResync:
		return "resync"
	default:
		return "unknown"
	}
}

// String returns the event type's machine-readable name.
func (t EventType) String() string {
	return eventTypeName(t)
}
