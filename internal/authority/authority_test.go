package authority

import (
	"testing"

	"github.com/tessro/linkctl/internal/core"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		mode core.Mode
		want core.Authority
	}{
		{core.ModeNetwork, core.AuthorityLocal},
		{core.ModeUSBDisk, core.AuthorityLocal},
		{core.ModeTFCard, core.AuthorityLocal},
		{core.ModeHTTPAPI, core.AuthorityLocal},
		{core.ModeSpotify, core.AuthorityCloud},
		{core.ModeTidalConnect, core.AuthorityCloud},
		{core.ModeAirPlay, core.AuthorityPassive},
		{core.ModeBluetooth, core.AuthorityPassive},
		{core.ModeOptical, core.AuthorityPassive},
		{core.ModeFollower, core.AuthoritySlave},
		{core.ModeUnknown, core.AuthorityUnknown},
		{core.Mode(77), core.AuthorityUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			if got := Classify(tt.mode); got != tt.want {
				t.Errorf("Classify(%d) = %q, want %q", tt.mode, got, tt.want)
			}
		})
	}
}

func TestClassifyIsTotal(t *testing.T) {
	for code := -5; code < 200; code++ {
		got := Classify(core.ModeFromCode(code))
		switch got {
		case core.AuthorityLocal, core.AuthorityCloud, core.AuthorityPassive,
			core.AuthoritySlave, core.AuthorityUnknown:
		default:
			t.Fatalf("Classify(%d) = %q, not a valid authority", code, got)
		}
	}
}

func TestClassifyStatusEmptyQueue(t *testing.T) {
	status := &core.RawStatus{Mode: core.ModeUSBDisk, QueueCount: 0, QueuePosition: 0}
	if got := ClassifyStatus(status); got != core.AuthorityLocal {
		t.Errorf("ClassifyStatus(empty queue) = %q, want %q", got, core.AuthorityLocal)
	}
	if got := ClassifyStatus(nil); got != core.AuthorityUnknown {
		t.Errorf("ClassifyStatus(nil) = %q, want %q", got, core.AuthorityUnknown)
	}
}

func TestParseModeUnrecognized(t *testing.T) {
	for _, s := range []string{"", "abc", "1000", "-3"} {
		if got := core.ParseMode(s); got != core.ModeUnknown {
			t.Errorf("ParseMode(%q) = %v, want unknown", s, got)
		}
		if got := Classify(core.ParseMode(s)); got != core.AuthorityUnknown {
			t.Errorf("Classify(ParseMode(%q)) = %q, want unknown", s, got)
		}
	}
}
