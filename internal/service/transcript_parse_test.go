package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeSpeakerTurns(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "plain turns",
			raw:  "alice: hello\nbob: hi there",
			want: "alice: hello\nbob: hi there",
		},
		{
			name: "continuation lines fold into previous turn",
			raw:  "alice: we decided to\nship on friday\nbob: agreed",
			want: "alice: we decided to ship on friday\nbob: agreed",
		},
		{
			name: "preamble before first turn is dropped",
			raw:  "Meeting notes 2025-03-10\n\nalice: let's begin",
			want: "alice: let's begin",
		},
		{
			name: "surrounding whitespace trimmed",
			raw:  "  alice:   spaced out  \n\n  bob:  me too ",
			want: "alice: spaced out\nbob: me too",
		},
		{
			name: "nothing parseable",
			raw:  "just a wall of text\nwith no speakers anywhere",
			want: "",
		},
		{
			name: "empty input",
			raw:  "",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, normalizeSpeakerTurns(tt.raw))
		})
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("alice: hello")
	b := Fingerprint("alice: hello")
	c := Fingerprint("alice: goodbye")

	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
	require.Len(t, a, 16)
}
