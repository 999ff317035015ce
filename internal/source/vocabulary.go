// Package source maps user-facing input names to the identifiers a device reports.
package source

import (
	"fmt"
	"strings"
)

// Entry is one locked display name and the canonical identifier it maps to.
type Entry struct {
	DisplayName string
	Identifier  string
	// QueueOwning is set for sources whose track list lives in the device's memory.
	QueueOwning bool
}

// Release is the full vocabulary as published at one version.
type Release struct {
	Version int
	Entries []Entry
}

// releases is the published history. Each release must keep every entry of
// the one before it unchanged; new names are appended at the end.
var releases = []Release{
	{
		Version: 1,
		Entries: []Entry{
			{DisplayName: "Network", Identifier: "wifi", QueueOwning: true},
			{DisplayName: "USB", Identifier: "udisk", QueueOwning: true},
			{DisplayName: "TF Card", Identifier: "tfcard", QueueOwning: true},
			{DisplayName: "Line In", Identifier: "line-in"},
			{DisplayName: "Bluetooth", Identifier: "bluetooth"},
			{DisplayName: "Optical In", Identifier: "optical"},
			{DisplayName: "Coaxial In", Identifier: "co-axial"},
			{DisplayName: "AirPlay", Identifier: "airplay"},
			{DisplayName: "DLNA", Identifier: "dlna"},
			{DisplayName: "Spotify Connect", Identifier: "spotify"},
			{DisplayName: "Multiroom", Identifier: "multiroom"},
		},
	},
	{
		Version: 2,
		Entries: []Entry{
			{DisplayName: "Network", Identifier: "wifi", QueueOwning: true},
			{DisplayName: "USB", Identifier: "udisk", QueueOwning: true},
			{DisplayName: "TF Card", Identifier: "tfcard", QueueOwning: true},
			{DisplayName: "Line In", Identifier: "line-in"},
			{DisplayName: "Bluetooth", Identifier: "bluetooth"},
			{DisplayName: "Optical In", Identifier: "optical"},
			{DisplayName: "Coaxial In", Identifier: "co-axial"},
			{DisplayName: "AirPlay", Identifier: "airplay"},
			{DisplayName: "DLNA", Identifier: "dlna"},
			{DisplayName: "Spotify Connect", Identifier: "spotify"},
			{DisplayName: "Multiroom", Identifier: "multiroom"},
			{DisplayName: "Line In 2", Identifier: "line-in2"},
			{DisplayName: "Optical In 2", Identifier: "optical2"},
			{DisplayName: "HDMI", Identifier: "HDMI"},
			{DisplayName: "USB DAC", Identifier: "PCUSB"},
			{DisplayName: "Phono", Identifier: "phono"},
			{DisplayName: "RCA", Identifier: "RCA"},
			{DisplayName: "XLR", Identifier: "XLR"},
			{DisplayName: "Tidal Connect", Identifier: "tidal"},
			{DisplayName: "QPlay", Identifier: "qplay"},
		},
	},
}

var locked = mustBuild(releases)

// Vocabulary is an immutable, versioned set of display names.
type Vocabulary struct {
	version     int
	entries     []Entry
	byName      map[string]Entry
	queueOwning map[string]bool
}

// Default returns the locked vocabulary at its latest release.
func Default() *Vocabulary {
	return locked
}

// Build verifies that history only grows and returns the latest vocabulary.
func Build(history []Release) (*Vocabulary, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("vocabulary has no releases")
	}
	if err := VerifyAppendOnly(history); err != nil {
		return nil, err
	}

	latest := history[len(history)-1]
	v := &Vocabulary{
		version:     latest.Version,
		entries:     append([]Entry(nil), latest.Entries...),
		byName:      make(map[string]Entry, len(latest.Entries)),
		queueOwning: make(map[string]bool),
	}
	for _, e := range latest.Entries {
		v.byName[e.DisplayName] = e
		if e.QueueOwning {
			v.queueOwning[Canonical(e.Identifier)] = true
			v.queueOwning[Canonical(e.DisplayName)] = true
		}
	}
	return v, nil
}

func mustBuild(history []Release) *Vocabulary {
	v, err := Build(history)
	if err != nil {
		panic(fmt.Sprintf("source: locked vocabulary: %v", err))
	}
	return v
}

// VerifyAppendOnly checks that every release keeps the entries of the previous
// release unchanged and in order, and that display names are unique.
func VerifyAppendOnly(history []Release) error {
	for i, rel := range history {
		seen := make(map[string]bool, len(rel.Entries))
		for _, e := range rel.Entries {
			if e.DisplayName == "" || e.Identifier == "" {
				return fmt.Errorf("v%d: entry with empty name or identifier", rel.Version)
			}
			if seen[e.DisplayName] {
				return fmt.Errorf("v%d: duplicate display name %q", rel.Version, e.DisplayName)
			}
			seen[e.DisplayName] = true
		}

		if i == 0 {
			continue
		}
		prev := history[i-1]
		if rel.Version <= prev.Version {
			return fmt.Errorf("v%d: version must increase after v%d", rel.Version, prev.Version)
		}
		if len(rel.Entries) < len(prev.Entries) {
			return fmt.Errorf("v%d: removes names published in v%d", rel.Version, prev.Version)
		}
		for j, old := range prev.Entries {
			if rel.Entries[j] != old {
				return fmt.Errorf("v%d: changes %q published in v%d", rel.Version, old.DisplayName, prev.Version)
			}
		}
	}
	return nil
}

// Version returns the release number of the vocabulary.
func (v *Vocabulary) Version() int {
	return v.version
}

// Names returns every display name in publication order.
func (v *Vocabulary) Names() []string {
	names := make([]string, len(v.entries))
	for i, e := range v.entries {
		names[i] = e.DisplayName
	}
	return names
}

// Lookup returns the direct-mapping entry for a display name.
func (v *Vocabulary) Lookup(displayName string) (Entry, bool) {
	e, ok := v.byName[displayName]
	return e, ok
}

// Canonical lower-cases s and strips spaces, underscores, and hyphens.
func Canonical(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch r {
		case ' ', '_', '-':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
