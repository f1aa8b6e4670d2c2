package approval

import (
	"iter"
	"slices"
	"strings"
	"time"
)

// AppendEntry adds one line to an existing log. The existing content is left
// untouched; the new line always goes at the tail.
func AppendEntry(existing string, tag Tag, message string, ts time.Time) string {
	utc := ts.UTC().Truncate(time.Second)
	line := FormatEntry(Entry{Tag: tag, Timestamp: &utc, Message: message})

	switch {
	case existing == "":
		return line
	case strings.HasSuffix(existing, "\n"):
		return existing + line
	default:
		return existing + "\n" + line
	}
}

// Entries yields the entries of log in append order. Blank lines are
// skipped. The sequence can be ranged over any number of times.
func Entries(log string) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		if log == "" {
			return
		}
		n := 0
		for _, raw := range strings.Split(log, "\n") {
			if strings.TrimSpace(raw) == "" {
				continue
			}
			e := ParseLine(raw)
			e.Line = n
			n++
			if !yield(e) {
				return
			}
		}
	}
}

// Decode parses log into entries in append order.
func Decode(log string) []Entry {
	return slices.Collect(Entries(log))
}

// Encode renders entries, in order, as a log.
func Encode(entries []Entry) string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, FormatEntry(e))
	}
	return strings.Join(lines, "\n")
}

// ParseTimeline returns the entries of log with the most recent event first.
// Undated entries are ordered as the oldest. Entries with the same timestamp
// keep their append order.
func ParseTimeline(log string) []Entry {
	entries := Decode(log)
	slices.SortStableFunc(entries, func(a, b Entry) int {
		return b.sortTime().Compare(a.sortTime())
	})
	return entries
}

// Summary is the compact view of a log.
type Summary struct {
	LatestTag       Tag    `json:"latest_tag"`
	LatestMessage   string `json:"latest_message"`
	TotalEntryCount int    `json:"total_entry_count"`
}

// HasHistory reports whether the log contained any entry.
func (s Summary) HasHistory() bool {
	return s.LatestTag != TagNone
}

// Summarize reports the last appended entry and the number of entries. The
// latest entry is the last line of the log, whatever its timestamp says.
func Summarize(log string) Summary {
	var s Summary
	for e := range Entries(log) {
		s.LatestTag = e.Tag
		s.LatestMessage = e.Message
		s.TotalEntryCount++
	}
	return s
}

// HasPendingResubmission reports whether a pending book got there through a
// resubmission.
func HasPendingResubmission(status Status, log string) bool {
	if status != StatusPending {
		return false
	}
	for e := range Entries(log) {
		if e.Tag == TagResubmitted {
			return true
		}
	}
	return false
}
