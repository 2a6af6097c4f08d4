package parser

import (
	"strings"
	"testing"
)

func TestJavaRecognizer_ScoreAndExtract_WithStacktrace(t *testing.T) {
	input := []string{
		"2024-02-09 22:30:15.123 ERROR [main] com.example.App - Connection failed",
		"java.lang.NullPointerException: Cannot invoke method",
		"    at com.example.Service.process(Service.java:42)",
		"    at com.example.App.main(App.java:15)",
		"2024-02-09 22:30:16.456 INFO [worker-1] com.example.Service - Processing request",
	}

	rec := JavaRecognizer{}
	if score := rec.Score(nonEmptySample(input, sampleSize)); score < autoDetectThreshold {
		t.Fatalf("expected java score >= %.2f, got %.2f", autoDetectThreshold, score)
	}

	events := rec.Extract(input)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	first := events[0]
	if first.Sourcetype != "java" {
		t.Errorf("expected sourcetype java, got %q", first.Sourcetype)
	}
	if first.Severity == nil || *first.Severity != 3 {
		t.Errorf("expected severity 3, got %v", first.Severity)
	}
	if first.Fields["thread"] != "main" {
		t.Errorf("expected thread main, got %v", first.Fields["thread"])
	}
	if first.Fields["logger"] != "com.example.App" {
		t.Errorf("expected logger com.example.App, got %v", first.Fields["logger"])
	}
	stack, ok := first.Fields["stacktrace"].([]string)
	if !ok || len(stack) != 2 {
		t.Fatalf("expected 2 stacktrace frames, got %v", first.Fields["stacktrace"])
	}
	wantLines := 4
	if gotLines := len(strings.Split(first.Message, "\n")); gotLines != wantLines {
		t.Errorf("expected message to join %d lines, got %d", wantLines, gotLines)
	}

	second := events[1]
	if second.Severity == nil || *second.Severity != 6 {
		t.Errorf("expected severity 6, got %v", second.Severity)
	}
	if _, ok := second.Fields["stacktrace"]; ok {
		t.Errorf("expected no stacktrace on second event")
	}
}

func TestRustRecognizer_EnvLogger(t *testing.T) {
	line := "[2024-02-09T14:30:15Z ERROR my_app] Database connection lost"

	rec := RustRecognizer{}
	if score := rec.Score([]string{line}); score != 1 {
		t.Fatalf("expected score 1, got %.2f", score)
	}

	events := rec.Extract([]string{line})
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.Sourcetype != "rust" {
		t.Errorf("expected sourcetype rust, got %q", e.Sourcetype)
	}
	if e.Severity == nil || *e.Severity != 3 {
		t.Errorf("expected severity 3, got %v", e.Severity)
	}
	if e.Fields["module"] != "my_app" {
		t.Errorf("expected module my_app, got %v", e.Fields["module"])
	}
	if e.Message != "Database connection lost" {
		t.Errorf("unexpected message %q", e.Message)
	}
}

func TestGoRecognizer_Stdlib(t *testing.T) {
	line := "2024/02/09 22:30:15 [ERROR] main.go:42: Failed to connect"

	rec := GoRecognizer{}
	events := rec.Extract([]string{line})
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.Severity == nil || *e.Severity != 3 {
		t.Errorf("expected severity 3, got %v", e.Severity)
	}
	if e.Fields["caller"] != "main.go:42" {
		t.Errorf("expected caller main.go:42, got %v", e.Fields["caller"])
	}
	if e.Message != "Failed to connect" {
		t.Errorf("unexpected message %q", e.Message)
	}
}

func TestGoRecognizer_JSON(t *testing.T) {
	line := `{"level":"warn","msg":"disk usage high","pct":91}`

	rec := GoRecognizer{}
	events := rec.Extract([]string{line})
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.Severity == nil || *e.Severity != 4 {
		t.Errorf("expected severity 4, got %v", e.Severity)
	}
	if e.Fields["pct"] != float64(91) {
		t.Errorf("expected raw json field pct retained, got %v", e.Fields["pct"])
	}
}

func TestNginxRecognizer(t *testing.T) {
	line := `192.168.1.100 - - [15/May/2025:12:06:30 +0000] "GET /api/endpoint HTTP/1.1" 200 1024`

	rec := NginxRecognizer{}
	if score := rec.Score([]string{line}); score < 1 {
		t.Fatalf("expected nginx line to score 1, got %.2f", score)
	}

	events := rec.Extract([]string{line})
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.Fields["remote_addr"] != "192.168.1.100" {
		t.Errorf("expected remote_addr 192.168.1.100, got %v", e.Fields["remote_addr"])
	}
	if e.Fields["method"] != "GET" {
		t.Errorf("expected method GET, got %v", e.Fields["method"])
	}
	if e.Fields["status"] != 200 {
		t.Errorf("expected status 200, got %v", e.Fields["status"])
	}
}

func TestRegistry_AutoDetect_PicksHighestScorer(t *testing.T) {
	reg := DefaultRegistry()

	lines := []string{
		"2024-02-09 22:30:15.123 ERROR [main] com.example.App - Connection failed",
		"2024-02-09 22:30:16.456 INFO [worker-1] com.example.Service - Processing request",
	}

	rec, ok := reg.AutoDetect(lines)
	if !ok {
		t.Fatal("expected auto-detect to succeed")
	}
	if rec.Name() != "java" {
		t.Errorf("expected java to win, got %q", rec.Name())
	}
}

func TestRegistry_AutoDetect_FallsBackBelowThreshold(t *testing.T) {
	reg := DefaultRegistry()

	lines := []string{
		"this is not any recognized format",
		"neither is this one",
		"nor this",
	}

	_, ok := reg.AutoDetect(lines)
	if ok {
		t.Error("expected auto-detect to fail below threshold")
	}

	events := RawExtract(lines)
	if len(events) != 3 {
		t.Fatalf("expected 3 raw events, got %d", len(events))
	}
	for _, e := range events {
		if e.Severity != nil {
			t.Errorf("expected unset severity on raw fallback event")
		}
	}
}
