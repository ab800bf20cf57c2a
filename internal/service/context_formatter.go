package service

import (
	"fmt"
	"strings"

	"github.com/recapd/recapd/internal/model"
)

// NoContextSentinel is the fixed string handed to the generation step when
// retrieval produced nothing usable.
const NoContextSentinel = "No relevant meeting content was found."

// FormatContext renders fused hits into one text blob with explicit source
// boundaries. Hits are grouped by meeting date (several transcripts on the
// same day are one logical meeting) preserving first-seen date order, and
// date headings use a delimiter distinct from the in-group separator so
// consumers can split sections reliably.
func FormatContext(hits []model.SearchHit) string {
	if len(hits) == 0 {
		return NoContextSentinel
	}

	var dates []string
	grouped := make(map[string][]model.SearchHit)
	for _, hit := range hits {
		if _, ok := grouped[hit.MeetingDate]; !ok {
			dates = append(dates, hit.MeetingDate)
		}
		grouped[hit.MeetingDate] = append(grouped[hit.MeetingDate], hit)
	}

	var sb strings.Builder
	for i, date := range dates {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "==== Meeting %s ====", date)
		for j, hit := range grouped[date] {
			fmt.Fprintf(&sb, "\n\n[Source %d | relevance %.1f%%]\n%s", j+1, hit.Score*100, hit.Content)
		}
	}
	return sb.String()
}
