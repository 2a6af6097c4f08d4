package parser

import (
	"regexp"
	"time"
)

// rustEnvLoggerRe matches "[YYYY-MM-DDTHH:MM:SSZ LEVEL module] message".
var rustEnvLoggerRe = regexp.MustCompile(
	`^\[(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z)\s+(\w+)\s+(\S+)\]\s?(.*)$`,
)

// rustTracingRe matches "YYYY-MM-DDTHH:MM:SSZ LEVEL module: message".
var rustTracingRe = regexp.MustCompile(
	`^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z)\s+(\w+)\s+(\S+):\s?(.*)$`,
)

// RustRecognizer recognizes env_logger's bracketed form and tracing's
// colon-separated form. Neither reassembles across lines.
type RustRecognizer struct{}

func (RustRecognizer) Name() string { return "rust" }

func (RustRecognizer) Score(sample []string) float64 {
	return scoreRecordStarts(sample, isRustLine)
}

func isRustLine(line string) bool {
	return rustEnvLoggerRe.MatchString(line) || rustTracingRe.MatchString(line)
}

func (RustRecognizer) Extract(lines []string) []Event {
	events := make([]Event, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}

		var m []string
		if m = rustEnvLoggerRe.FindStringSubmatch(line); m == nil {
			m = rustTracingRe.FindStringSubmatch(line)
		}
		if m == nil {
			events = append(events, Event{Ts: time.Now().UTC(), Message: line})
			continue
		}

		ts, err := time.Parse("2006-01-02T15:04:05Z", m[1])
		if err != nil {
			ts = time.Now().UTC()
		} else {
			ts = ts.UTC()
		}

		var sevPtr *int
		if sev, ok := Severity(m[2]); ok {
			sevPtr = &sev
		}

		events = append(events, Event{
			Ts:         ts,
			Sourcetype: "rust",
			Severity:   sevPtr,
			Message:    m[4],
			Fields:     map[string]any{"module": m[3]},
		})
	}
	return events
}
