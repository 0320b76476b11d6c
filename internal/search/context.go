package search

import (
	"fmt"
	"strings"
)

const truncationMarker = "..."

// BuildContext concatenates records into a prompt context, newest score
// first, within a fixed character budget. A record that would overflow the
// budget is truncated with a marker rather than dropped, so the model
// always sees at least a prefix of everything retrieved up to the cutoff.
func BuildContext(records []Record, budget int) string {
	if budget <= 0 {
		return ""
	}
	var sb strings.Builder
	used := 0
	for i, rec := range records {
		entry := fmt.Sprintf("### %s\n%s", rec.Title, rec.Body)
		if i > 0 {
			entry = "\n\n" + entry
		}
		runes := []rune(entry)
		if used+len(runes) <= budget {
			sb.WriteString(entry)
			used += len(runes)
			continue
		}
		room := budget - used - len(truncationMarker)
		if room > 0 {
			sb.WriteString(string(runes[:room]))
			sb.WriteString(truncationMarker)
			break
		}
		// No room left for even a sliver of this record: trim what is
		// already written so the marker still terminates the context.
		out := []rune(sb.String())
		cut := budget - len(truncationMarker)
		if cut < 0 {
			cut = 0
		}
		if cut > len(out) {
			cut = len(out)
		}
		return string(out[:cut]) + truncationMarker
	}
	return sb.String()
}
