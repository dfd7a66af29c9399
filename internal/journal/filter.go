package journal

import (
	"fmt"
	"sort"
	"strings"
)

// Bounds on synthesis output: recurring patterns only, and never an
// unbounded prompt section.
const (
	maxSignificantTags = 5
	maxNotes           = 3

	// DefaultSignificance is the global fallback occurrence threshold.
	DefaultSignificance = 2

	// MinSignificance and MaxSignificance bound per-class overrides.
	MinSignificance = 1
	MaxSignificance = 5
)

// ClampSignificance forces a configured threshold into the valid range.
func ClampSignificance(n int) int {
	if n < MinSignificance {
		return DefaultSignificance
	}
	if n > MaxSignificance {
		return MaxSignificance
	}
	return n
}

// CountTags tallies tag occurrences across entries.
func CountTags(entries []Entry) map[TagID]int {
	counts := make(map[TagID]int)
	for _, e := range entries {
		for _, id := range e.Tags {
			counts[id]++
		}
	}
	return counts
}

// SignificantTags returns the tags meeting the occurrence threshold, most
// frequent first, catalog order on ties, capped at maxSignificantTags.
func SignificantTags(counts map[TagID]int, threshold int) []TagID {
	var tags []TagID
	for id, n := range counts {
		if n >= threshold {
			tags = append(tags, id)
		}
	}
	sort.Slice(tags, func(i, j int) bool {
		if counts[tags[i]] != counts[tags[j]] {
			return counts[tags[i]] > counts[tags[j]]
		}
		return catalogRank(tags[i]) < catalogRank(tags[j])
	})
	if len(tags) > maxSignificantTags {
		tags = tags[:maxSignificantTags]
	}
	return tags
}

// IsIsolated reports whether every tag on the entry falls below the
// threshold. An entry with no tags is vacuously isolated.
func IsIsolated(e Entry, counts map[TagID]int, threshold int) bool {
	for _, id := range e.Tags {
		if counts[id] >= threshold {
			return false
		}
	}
	return true
}

// Synthesize builds the compact journal summary injected into prompts:
// a significant-tag label line, then up to maxNotes most-recent quoted notes
// drawn only from entries that share at least one significant tag.
// Returns "" when nothing recurring was observed.
func Synthesize(entries []Entry, threshold int) string {
	if len(entries) == 0 {
		return ""
	}

	counts := CountTags(entries)
	significant := SignificantTags(counts, threshold)
	if len(significant) == 0 {
		return ""
	}

	labels := make([]string, 0, len(significant))
	for _, id := range significant {
		if t, ok := LookupTag(id); ok {
			labels = append(labels, t.Label)
		} else {
			labels = append(labels, string(id))
		}
	}

	var sb strings.Builder
	sb.WriteString("Observations: ")
	sb.WriteString(strings.Join(labels, ", "))

	notes := eligibleNotes(entries, counts, threshold)
	if len(notes) > 0 {
		quoted := make([]string, len(notes))
		for i, n := range notes {
			quoted[i] = fmt.Sprintf("%q", n)
		}
		sb.WriteString("\nNotes: ")
		sb.WriteString(strings.Join(quoted, " | "))
	}

	return sb.String()
}

// eligibleNotes returns the non-empty notes of non-isolated entries, most
// recent first, capped at maxNotes. Tagless entries are isolated by
// definition and never surface here.
func eligibleNotes(entries []Entry, counts map[TagID]int, threshold int) []string {
	candidates := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.Note) == "" {
			continue
		}
		if len(e.Tags) == 0 || IsIsolated(e, counts, threshold) {
			continue
		}
		candidates = append(candidates, e)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Date.After(candidates[j].Date)
	})
	if len(candidates) > maxNotes {
		candidates = candidates[:maxNotes]
	}
	notes := make([]string, len(candidates))
	for i, e := range candidates {
		notes[i] = strings.TrimSpace(e.Note)
	}
	return notes
}
