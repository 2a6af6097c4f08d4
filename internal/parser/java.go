package parser

import (
	"regexp"
	"strings"
	"time"
)

// javaLineRe matches "YYYY-MM-DD HH:MM:SS[.,]mmm LEVEL [thread] logger - message".
var javaLineRe = regexp.MustCompile(
	`^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}[.,]\d{3})\s+(\w+)\s+\[([^\]]*)\]\s+(\S+)\s+-\s+(.*)$`,
)

// javaStackFrameRe matches a "\s+at " stacktrace continuation line.
var javaStackFrameRe = regexp.MustCompile(`^\s+at\s`)

// javaCausedByRe matches a "Caused by: " continuation line.
var javaCausedByRe = regexp.MustCompile(`^Caused by:\s`)

// javaMoreFramesRe matches a "\t... N more" elided-frames continuation line.
var javaMoreFramesRe = regexp.MustCompile(`^\t\.\.\.\s+\d+\s+more$`)

// JavaRecognizer recognizes the java.util.logging / log4j / logback
// convention and reassembles stack traces spanning continuation lines.
type JavaRecognizer struct{}

func (JavaRecognizer) Name() string { return "java" }

// Score counts record-starts plus the stacktrace continuation lines
// ("at ...", "Caused by: ...", "... N more") that follow a record-start,
// since Extract folds those into the preceding record.
func (JavaRecognizer) Score(sample []string) float64 {
	if len(sample) == 0 {
		return 0
	}
	matched := 0
	seenStart := false
	for _, l := range sample {
		if javaLineRe.MatchString(l) {
			seenStart = true
			matched++
		} else if seenStart && (javaStackFrameRe.MatchString(l) || javaCausedByRe.MatchString(l) || javaMoreFramesRe.MatchString(l)) {
			matched++
		}
	}
	return float64(matched) / float64(len(sample))
}

// Extract reassembles one record per record-start: continuation lines
// are appended to Message separated by LF, and any continuation matching
// a stacktrace-frame shape is additionally captured into fields.stacktrace
// in order, per spec.md §4.2.
func (JavaRecognizer) Extract(lines []string) []Event {
	var events []Event
	var cur *Event
	var msgLines []string
	var stacktrace []string

	flush := func() {
		if cur == nil {
			return
		}
		cur.Message = strings.Join(msgLines, "\n")
		if len(stacktrace) > 0 {
			if cur.Fields == nil {
				cur.Fields = map[string]any{}
			}
			frames := make([]string, len(stacktrace))
			copy(frames, stacktrace)
			cur.Fields["stacktrace"] = frames
		}
		events = append(events, *cur)
		cur = nil
		msgLines = nil
		stacktrace = nil
	}

	for _, line := range lines {
		m := javaLineRe.FindStringSubmatch(line)
		if m != nil {
			flush()

			ts, ok := parseJavaTimestamp(m[1])
			if !ok {
				ts = time.Now().UTC()
			}

			var sevPtr *int
			if sev, ok := Severity(m[2]); ok {
				sevPtr = &sev
			}

			cur = &Event{
				Ts:         ts,
				Sourcetype: "java",
				Severity:   sevPtr,
				Fields: map[string]any{
					"thread": m[3],
					"logger": m[4],
				},
			}
			msgLines = []string{line}
			continue
		}

		if cur == nil {
			// continuation before any record-start: dropped per spec.md §4.2.
			continue
		}

		msgLines = append(msgLines, line)
		if javaStackFrameRe.MatchString(line) || javaCausedByRe.MatchString(line) || javaMoreFramesRe.MatchString(line) {
			stacktrace = append(stacktrace, line)
		}
	}
	flush()

	return events
}

// parseJavaTimestamp accepts both '.' and ',' as the millisecond separator.
func parseJavaTimestamp(s string) (time.Time, bool) {
	normalized := strings.Replace(s, ",", ".", 1)
	t, err := time.Parse("2006-01-02 15:04:05.000", normalized)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// scoreRecordStarts is the shared Score implementation: the fraction of
// sample lines that match a format's record-start predicate.
func scoreRecordStarts(sample []string, isStart func(string) bool) float64 {
	if len(sample) == 0 {
		return 0
	}
	matched := 0
	for _, l := range sample {
		if isStart(l) {
			matched++
		}
	}
	return float64(matched) / float64(len(sample))
}
