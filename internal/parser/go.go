package parser

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"
)

// goStdlibRe matches "YYYY/MM/DD HH:MM:SS [LEVEL] caller: message".
var goStdlibRe = regexp.MustCompile(
	`^(\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2})\s+\[(\w+)\]\s+(\S+):\s?(.*)$`,
)

// GoRecognizer recognizes the stdlib `log` package's line layout and
// structured JSON output from zap/logrus-style loggers (keys level and
// msg/message).
type GoRecognizer struct{}

func (GoRecognizer) Name() string { return "go" }

func (GoRecognizer) Score(sample []string) float64 {
	return scoreRecordStarts(sample, isGoLine)
}

func isGoLine(line string) bool {
	if goStdlibRe.MatchString(line) {
		return true
	}
	_, ok := decodeGoJSON(line)
	return ok
}

type goJSONLine struct {
	Level   string  `json:"level"`
	Msg     string  `json:"msg"`
	Message string  `json:"message"`
	Ts      float64 `json:"ts"`
	raw     map[string]any
}

func decodeGoJSON(line string) (goJSONLine, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") {
		return goJSONLine{}, false
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return goJSONLine{}, false
	}
	if _, ok := raw["level"]; !ok {
		return goJSONLine{}, false
	}
	_, hasMsg := raw["msg"]
	_, hasMessage := raw["message"]
	if !hasMsg && !hasMessage {
		return goJSONLine{}, false
	}

	var parsed goJSONLine
	_ = json.Unmarshal([]byte(trimmed), &parsed)
	parsed.raw = raw
	return parsed, true
}

func (GoRecognizer) Extract(lines []string) []Event {
	events := make([]Event, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}

		if m := goStdlibRe.FindStringSubmatch(line); m != nil {
			ts, err := time.ParseInLocation("2006/01/02 15:04:05", m[1], time.Local)
			if err != nil {
				ts = time.Now()
			}

			var sevPtr *int
			if sev, ok := Severity(m[2]); ok {
				sevPtr = &sev
			}

			events = append(events, Event{
				Ts:         ts.UTC(),
				Sourcetype: "go",
				Severity:   sevPtr,
				Message:    m[4],
				Fields:     map[string]any{"caller": m[3]},
			})
			continue
		}

		if parsed, ok := decodeGoJSON(line); ok {
			var sevPtr *int
			if sev, ok := Severity(parsed.Level); ok {
				sevPtr = &sev
			}

			msg := parsed.Msg
			if msg == "" {
				msg = parsed.Message
			}

			ts := time.Now().UTC()
			if parsed.Ts > 0 {
				secs := int64(parsed.Ts)
				nanos := int64((parsed.Ts - float64(secs)) * 1e9)
				ts = time.Unix(secs, nanos).UTC()
			}

			fields := make(map[string]any, len(parsed.raw))
			for k, v := range parsed.raw {
				fields[k] = v
			}

			events = append(events, Event{
				Ts:         ts,
				Sourcetype: "go",
				Severity:   sevPtr,
				Message:    msg,
				Fields:     fields,
			})
			continue
		}

		events = append(events, Event{Ts: time.Now().UTC(), Message: line})
	}
	return events
}
