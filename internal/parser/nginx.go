package parser

import (
	"regexp"
	"strconv"
	"time"
)

// nginxLineRe matches the combined log format's canonical prefix:
// `remote_addr - - [day/mon/YYYY:HH:MM:SS +zzzz] "METHOD path proto" status size`.
var nginxLineRe = regexp.MustCompile(
	`^(\S+) \S+ \S+ \[(\d{2}/\w{3}/\d{4}:\d{2}:\d{2}:\d{2} [+-]\d{4})\]\s+"(\S+)\s+(\S+)\s+(\S+)"\s+(\d+)\s+(\d+)`,
)

// NginxRecognizer recognizes the nginx/Apache combined access log format.
type NginxRecognizer struct{}

func (NginxRecognizer) Name() string { return "nginx" }

func (NginxRecognizer) Score(sample []string) float64 {
	return scoreRecordStarts(sample, nginxLineRe.MatchString)
}

func (NginxRecognizer) Extract(lines []string) []Event {
	events := make([]Event, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}

		m := nginxLineRe.FindStringSubmatch(line)
		if m == nil {
			events = append(events, Event{Ts: time.Now().UTC(), Message: line})
			continue
		}

		ts, err := time.Parse("02/Jan/2006:15:04:05 -0700", m[2])
		if err != nil {
			ts = time.Now().UTC()
		} else {
			ts = ts.UTC()
		}

		status, _ := strconv.Atoi(m[6])
		size, _ := strconv.Atoi(m[7])

		events = append(events, Event{
			Ts:         ts,
			Sourcetype: "nginx",
			Message:    line,
			Fields: map[string]any{
				"remote_addr": m[1],
				"method":      m[3],
				"path":        m[4],
				"status":      status,
				"size":        size,
			},
		})
	}
	return events
}
