package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"unsupported", Unsupported("shuffle", "cloud"), KindUnsupported},
		{"not found", NotFound("set source", "HDMI"), KindNotFound},
		{"device not found", fmt.Errorf("lookup: %w", ErrDeviceNotFound), KindNotFound},
		{"stale", Stale("play", ""), KindStale},
		{"transport", Transport("getPlayerStatus", "kitchen", errors.New("dial tcp: refused")), KindTransport},
		{"timeout", ErrTimeout, KindTransport},
		{"other", errors.New("boom"), KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Kind(tt.err); got != tt.want {
				t.Errorf("Kind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTransportNil(t *testing.T) {
	if err := Transport("op", "dev", nil); err != nil {
		t.Errorf("Transport(nil) = %v, want nil", err)
	}
}

func TestTransportUnwraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := Transport("setPlayerCmd", "den", cause)
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
	if !errors.Is(err, ErrTransport) {
		t.Error("errors.Is(err, ErrTransport) = false, want true")
	}
	if got := err.Error(); got != "den setPlayerCmd: connection reset" {
		t.Errorf("Error() = %q", got)
	}
}

func TestFormat(t *testing.T) {
	if got := Format(nil); got != "" {
		t.Errorf("Format(nil) = %q, want empty", got)
	}

	got := Format(WithSuggestion(errors.New("bad"), "try again"))
	if !strings.Contains(got, "Suggestion: try again") {
		t.Errorf("Format() = %q, want suggestion", got)
	}

	got = Format(Unsupported("seek", "cloud source"))
	if !strings.Contains(got, "Suggestion:") {
		t.Errorf("Format(unsupported) = %q, want default suggestion", got)
	}

	if got := Format(errors.New("plain")); got != "Error: plain" {
		t.Errorf("Format(plain) = %q", got)
	}
}

func TestPartialResult(t *testing.T) {
	var p PartialResult[[]string]
	p.AddError(nil)
	if p.HasErrors() {
		t.Fatal("HasErrors() = true after AddError(nil)")
	}

	p.AddError(errors.New("first"))
	if got := p.ErrorSummary(); got != "first" {
		t.Errorf("ErrorSummary() = %q, want %q", got, "first")
	}

	p.AddError(errors.New("second"))
	if got := p.ErrorSummary(); !strings.HasPrefix(got, "2 errors occurred") {
		t.Errorf("ErrorSummary() = %q", got)
	}
}
