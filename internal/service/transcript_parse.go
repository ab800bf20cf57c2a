package service

import (
	"regexp"
	"strings"
)

var speakerLineRe = regexp.MustCompile(`^([^:\n]{1,64}):\s*(.+)$`)

// normalizeSpeakerTurns reduces raw transcript text to canonical
// "speaker: utterance" lines. Continuation lines are folded into the
// preceding turn; leading text before the first recognizable turn is
// dropped. Returns "" when nothing parseable remains.
func normalizeSpeakerTurns(raw string) string {
	var turns []string
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if m := speakerLineRe.FindStringSubmatch(trimmed); m != nil {
			speaker := strings.TrimSpace(m[1])
			utterance := strings.TrimSpace(m[2])
			turns = append(turns, speaker+": "+utterance)
			continue
		}
		if len(turns) > 0 {
			turns[len(turns)-1] += " " + trimmed
		}
	}
	return strings.Join(turns, "\n")
}
