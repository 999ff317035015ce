package linkplay

import (
	"bytes"
	"encoding/xml"
	"html"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/tessro/linkctl/internal/core"
)

// ParseEvent decodes a UPnP propertyset payload into a flat map keyed by
// snake_case variable name. A LastChange property is decoded and flattened.
func ParseEvent(payload []byte) (map[string]string, error) {
	out := map[string]string{}

	dec := xml.NewDecoder(bytes.NewReader(payload))
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				return out, nil
			}
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok || !strings.EqualFold(start.Name.Local, "LastChange") {
			continue
		}
		var raw string
		if err := dec.DecodeElement(&raw, &start); err != nil {
			return nil, err
		}
		raw = strings.TrimSpace(raw)
		// Some firmware escapes the document twice.
		if !strings.HasPrefix(raw, "<") {
			raw = html.UnescapeString(raw)
		}
		for k, v := range parseLastChange(raw) {
			out[k] = v
		}
	}
}

func parseLastChange(doc string) map[string]string {
	out := map[string]string{}
	dec := xml.NewDecoder(strings.NewReader(doc))
	inInstance := false
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "InstanceID" {
				inInstance = true
				continue
			}
			if !inInstance {
				continue
			}
			var val, channel string
			hasVal := false
			for _, a := range t.Attr {
				switch strings.ToLower(a.Name.Local) {
				case "val":
					val, hasVal = a.Value, true
				case "channel":
					channel = a.Value
				}
			}
			if !hasVal {
				continue
			}
			key := camelToSnake(t.Name.Local)
			if channel != "" {
				key += "_" + strings.ToLower(channel)
			}
			out[key] = val
		case xml.EndElement:
			if t.Name.Local == "InstanceID" {
				inInstance = false
			}
		}
	}
}

func camelToSnake(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			prev := rune(s[i-1])
			if prev >= 'a' && prev <= 'z' {
				b.WriteByte('_')
			}
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}

var playModes = map[string]core.LoopMode{
	"NORMAL":             core.LoopOff,
	"REPEAT_ALL":         core.LoopRepeatAll,
	"REPEAT_ONE":         core.LoopRepeatOne,
	"SHUFFLE":            core.LoopShuffleRepeatAll,
	"SHUFFLE_NOREPEAT":   core.LoopShuffle,
	"SHUFFLE_REPEAT_ONE": core.LoopShuffleRepeatOne,
}

// overlayEvent builds an event status from the last full status and the
// variables an event changed. It returns false when the event carries
// nothing the engine tracks.
func overlayEvent(base *core.RawStatus, vars map[string]string) (*core.RawStatus, bool) {
	next := *base
	next.Origin = core.OriginEvent
	touched := false

	if v, ok := vars["transport_state"]; ok {
		next.PlayStatus = core.ParsePlayStatus(v)
		touched = true
	}
	if v, ok := vars["current_play_mode"]; ok {
		if loop, known := playModes[strings.ToUpper(v)]; known {
			next.Loop = loop
			touched = true
		}
	}
	if v, ok := vars["relative_time_position"]; ok {
		if d, ok := parseClock(v); ok {
			next.Position = d
			touched = true
		}
	}
	if v, ok := vars["current_track_duration"]; ok {
		if d, ok := parseClock(v); ok {
			next.Track.Duration = d
			touched = true
		}
	}
	if v, ok := vars["current_track_meta_data"]; ok {
		if track, ok := parseTrackMetadata(v); ok {
			track.Duration = next.Track.Duration
			next.Track = track
			touched = true
		}
	}
	if v, ok := vars["current_track"]; ok {
		next.QueuePosition = atoi(v)
		touched = true
	}
	if v, ok := vars["number_of_tracks"]; ok {
		next.QueueCount = atoi(v)
		touched = true
	}
	if v, ok := vars["volume_master"]; ok {
		next.Volume = atoi(v)
		touched = true
	}
	if v, ok := vars["mute_master"]; ok {
		next.Muted = v == "1"
		touched = true
	}
	return &next, touched
}

// parseClock parses UPnP H:MM:SS durations.
func parseClock(s string) (time.Duration, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "NOT_IMPLEMENTED" {
		return 0, false
	}
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, false
	}
	var total int
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, false
		}
		total = total*60 + n
	}
	return time.Duration(total) * time.Second, true
}
