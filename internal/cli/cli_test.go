package cli

import (
	"errors"
	"testing"
	"time"

	lerrors "github.com/tessro/linkctl/internal/errors"
)

func TestParsePosition(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"90", 90 * time.Second, false},
		{"1:30", 90 * time.Second, false},
		{"01:05", 65 * time.Second, false},
		{"1:02:03", time.Hour + 2*time.Minute + 3*time.Second, false},
		{"0", 0, false},
		{"1:60", 0, true},
		{"-5", 0, true},
		{"abc", 0, true},
		{"1:2:3:4", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParsePosition(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePosition(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePosition(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0:00"},
		{65 * time.Second, "1:05"},
		{time.Hour + 5*time.Second, "1:00:05"},
		{-time.Second, "0:00"},
	}

	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatProgress(t *testing.T) {
	if got := FormatProgress(0, 0, 4); got != "────" {
		t.Errorf("FormatProgress(no duration) = %q", got)
	}
	if got := FormatProgress(time.Minute, 2*time.Minute, 4); got != "━━──" {
		t.Errorf("FormatProgress(half) = %q", got)
	}
}

func TestParseOnOff(t *testing.T) {
	for _, in := range []string{"on", "ON", "true", "1"} {
		if got, err := parseOnOff(in); err != nil || !got {
			t.Errorf("parseOnOff(%q) = %v, %v, want true", in, got, err)
		}
	}
	for _, in := range []string{"off", "no", "0"} {
		if got, err := parseOnOff(in); err != nil || got {
			t.Errorf("parseOnOff(%q) = %v, %v, want false", in, got, err)
		}
	}
	if _, err := parseOnOff("maybe"); err == nil {
		t.Error("parseOnOff(maybe) error = nil")
	}
}

func TestErrorFor(t *testing.T) {
	kitchen := lerrors.Transport("get status", "kitchen", errors.New("timeout"))
	den := lerrors.Transport("get status", "den", errors.New("refused"))

	if got := errorFor([]error{den, kitchen}, "kitchen"); got != kitchen {
		t.Errorf("errorFor(kitchen) = %v, want %v", got, kitchen)
	}
	if got := errorFor([]error{den}, "kitchen"); got != nil {
		t.Errorf("errorFor(missing) = %v, want nil", got)
	}
}
