package approval

import (
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// TimestampLayout is the canonical timestamp inside a bracket token. Values
// are always UTC and the token carries a literal " UTC" suffix.
const TimestampLayout = "2006-01-02 15:04:05"

var (
	timestampPattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}`)
	lineBreaks       = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")
)

// Entry is one audit event.
type Entry struct {
	Tag       Tag        `json:"tag"`
	Timestamp *time.Time `json:"timestamp"`
	Message   string     `json:"message"`

	// Line is the position of the entry among the non-blank lines of the
	// log it was parsed from.
	Line int `json:"line"`
}

// sortTime treats undated entries as the Unix epoch so they sink to the
// oldest position of a timeline.
func (e Entry) sortTime() time.Time {
	if e.Timestamp == nil {
		return time.Unix(0, 0).UTC()
	}
	return *e.Timestamp
}

// FormatEntry renders e as a single log line.
func FormatEntry(e Entry) string {
	tag := e.Tag
	if !tag.Valid() {
		tag = TagNote
	}

	// A message must stay on its own line.
	msg := strings.TrimSpace(lineBreaks.Replace(e.Message))
	if msg == "" {
		msg = tag.DefaultMessage()
	}

	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(string(tag))
	if e.Timestamp != nil {
		b.WriteByte(' ')
		b.WriteString(e.Timestamp.UTC().Format(TimestampLayout))
		b.WriteString(" UTC")
	}
	b.WriteString("] ")
	b.WriteString(msg)
	return b.String()
}

// ParseLine classifies a single non-blank log line.
//
// Tags are searched in priority order; the first "[TAG" found decides the
// classification. The bracket token runs up to the next ']'. Lines with no
// recognised tag become NOTE entries carrying the whole line.
func ParseLine(line string) Entry {
	line = strings.TrimSpace(line)

	for _, tag := range tagPriority {
		start := strings.Index(line, "["+string(tag))
		if start < 0 {
			continue
		}

		entry := Entry{Tag: tag, Message: line}
		end := strings.IndexByte(line[start:], ']')
		if end < 0 {
			// Unterminated token: the tag still counts, the text stays as is.
			return entry
		}
		end += start

		token := line[start : end+1]
		if ts := timestampPattern.FindString(token); ts != "" {
			if t, err := time.ParseInLocation(TimestampLayout, ts, time.UTC); err == nil {
				entry.Timestamp = &t
			}
		}

		entry.Message = strings.TrimSpace(line[:start] + line[end+1:])
		if entry.Message == "" {
			entry.Message = tag.DefaultMessage()
		}
		return entry
	}

	log.Debug().Str("line", line).Msg("approval note line has no recognised tag, treating as note")
	return Entry{Tag: TagNote, Message: line}
}
