package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCapabilitiesFor(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		tty  bool
		env  map[string]string
		want TerminalCapabilities
	}{
		"plain terminal": {
			tty:  true,
			want: TerminalCapabilities{IsTTY: true, SupportsColor: true, SupportsUnicode: true, Width: 80},
		},
		"not a terminal": {
			want: TerminalCapabilities{},
		},
		"ci": {
			tty:  true,
			env:  map[string]string{"CI": "true"},
			want: TerminalCapabilities{},
		},
		"no color": {
			tty:  true,
			env:  map[string]string{"NO_COLOR": "1"},
			want: TerminalCapabilities{IsTTY: true, SupportsUnicode: true, Width: 80},
		},
		"ascii": {
			tty:  true,
			env:  map[string]string{"CHANGESET_ASCII": "1"},
			want: TerminalCapabilities{IsTTY: true, SupportsColor: true, Width: 80},
		},
		"dumb terminal": {
			tty:  true,
			env:  map[string]string{"TERM": "dumb"},
			want: TerminalCapabilities{IsTTY: true, Width: 80},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			getenv := func(k string) string { return tt.env[k] }
			assert.Equal(t, tt.want, capabilitiesFor(tt.tty, 80, getenv))
		})
	}
}
