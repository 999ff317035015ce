package source

import (
	"errors"
	"testing"

	"github.com/tessro/linkctl/internal/core"
	lerrors "github.com/tessro/linkctl/internal/errors"
)

func TestCanonical(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Optical In", "opticalin"},
		{"OPTICAL_IN", "opticalin"},
		{"line-in2", "linein2"},
		{"Co-Axial", "coaxial"},
		{"", ""},
		{"  ", ""},
	}

	for _, tt := range tests {
		if got := Canonical(tt.in); got != tt.want {
			t.Errorf("Canonical(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		display string
		inputs  []string
		want    string
		wantErr bool
	}{
		{
			name:    "structural match returned verbatim",
			display: "Optical In",
			inputs:  []string{"wifi", "OPTICAL_IN", "bluetooth"},
			want:    "OPTICAL_IN",
		},
		{
			name:    "direct mapping when advertised",
			display: "Optical In",
			inputs:  []string{"wifi", "optical"},
			want:    "optical",
		},
		{
			name:    "direct mapping takes precedence over structural",
			display: "USB",
			inputs:  []string{"USB", "udisk"},
			want:    "udisk",
		},
		{
			name:    "direct mapping without reported inputs",
			display: "Line In",
			inputs:  nil,
			want:    "line-in",
		},
		{
			name:    "unknown display name matched structurally",
			display: "aux in",
			inputs:  []string{"AUX_IN"},
			want:    "AUX_IN",
		},
		{
			name:    "no match",
			display: "HDMI",
			inputs:  []string{"wifi", "bluetooth"},
			wantErr: true,
		},
		{
			name:    "ambiguous structural match",
			display: "Aux",
			inputs:  []string{"AUX", "a-u-x"},
			wantErr: true,
		},
		{
			name:    "empty name",
			display: "",
			inputs:  []string{"wifi"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.display, tt.inputs)
			if tt.wantErr {
				if !errors.Is(err, lerrors.ErrNotFound) {
					t.Fatalf("Resolve() error = %v, want ErrNotFound", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveNeverReturnsDisplayName(t *testing.T) {
	v := Default()
	for _, name := range v.Names() {
		got, err := v.Resolve(name, nil)
		if err != nil {
			t.Fatalf("Resolve(%q) unexpected error: %v", name, err)
		}
		e, _ := v.Lookup(name)
		if got != e.Identifier {
			t.Errorf("Resolve(%q) = %q, want table identifier %q", name, got, e.Identifier)
		}
	}
}

func TestIdentify(t *testing.T) {
	tests := []struct {
		identifier string
		want       string
	}{
		{"optical", "Optical In"},
		{"OPTICAL_IN", "Optical In"},
		{"udisk", "USB"},
		{"line-in2", "Line In 2"},
		{"mystery", ""},
		{"", ""},
	}

	for _, tt := range tests {
		got := Identify(tt.identifier)
		if got.DisplayName != tt.want {
			t.Errorf("Identify(%q).DisplayName = %q, want %q", tt.identifier, got.DisplayName, tt.want)
		}
		if got.Identifier != tt.identifier {
			t.Errorf("Identify(%q).Identifier = %q, want verbatim", tt.identifier, got.Identifier)
		}
	}
}

func TestIsQueueOwning(t *testing.T) {
	v := Default()
	tests := []struct {
		id   core.SourceIdentity
		want bool
	}{
		{core.SourceIdentity{DisplayName: "USB", Identifier: "udisk"}, true},
		{core.SourceIdentity{DisplayName: "Network", Identifier: "wifi"}, true},
		{core.SourceIdentity{Identifier: "TF_CARD"}, true},
		{core.SourceIdentity{DisplayName: "Optical In", Identifier: "optical"}, false},
		{core.SourceIdentity{DisplayName: "Spotify Connect", Identifier: "spotify"}, false},
		{core.SourceIdentity{}, false},
	}

	for _, tt := range tests {
		if got := v.IsQueueOwning(tt.id); got != tt.want {
			t.Errorf("IsQueueOwning(%+v) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestLockedVocabularyOnlyGrows(t *testing.T) {
	if err := VerifyAppendOnly(releases); err != nil {
		t.Fatalf("published releases violate append-only: %v", err)
	}
	if Default().Version() != releases[len(releases)-1].Version {
		t.Errorf("Default().Version() = %d, want latest", Default().Version())
	}
}

func TestVerifyAppendOnlyRejects(t *testing.T) {
	base := Release{Version: 1, Entries: []Entry{
		{DisplayName: "Line In", Identifier: "line-in"},
		{DisplayName: "Optical In", Identifier: "optical"},
	}}

	tests := []struct {
		name string
		next Release
	}{
		{"rename", Release{Version: 2, Entries: []Entry{
			{DisplayName: "Line Input", Identifier: "line-in"},
			{DisplayName: "Optical In", Identifier: "optical"},
		}}},
		{"removal", Release{Version: 2, Entries: []Entry{
			{DisplayName: "Line In", Identifier: "line-in"},
		}}},
		{"remap", Release{Version: 2, Entries: []Entry{
			{DisplayName: "Line In", Identifier: "aux"},
			{DisplayName: "Optical In", Identifier: "optical"},
		}}},
		{"duplicate", Release{Version: 2, Entries: []Entry{
			{DisplayName: "Line In", Identifier: "line-in"},
			{DisplayName: "Optical In", Identifier: "optical"},
			{DisplayName: "Line In", Identifier: "line-in"},
		}}},
		{"version not increasing", Release{Version: 1, Entries: base.Entries}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Build([]Release{base, tt.next}); err == nil {
				t.Error("Build() error = nil, want violation")
			}
		})
	}

	appended := Release{Version: 2, Entries: append(append([]Entry(nil), base.Entries...),
		Entry{DisplayName: "HDMI", Identifier: "HDMI"})}
	if _, err := Build([]Release{base, appended}); err != nil {
		t.Errorf("Build(appended) error = %v, want nil", err)
	}
}

func TestAvailable(t *testing.T) {
	got := Default().Available([]string{"wifi", "bluetooth", "OPTICAL_IN"})
	want := []string{"Network", "Bluetooth", "Optical In"}
	if len(got) != len(want) {
		t.Fatalf("Available() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Available()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
