// log/log_test.go
// Copyright(c) 2025-2026 motionplan contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	for _, c := range []struct {
		s   string
		lvl slog.Level
		ok  bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"", slog.LevelInfo, true},
		{"warn", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"chatty", slog.LevelInfo, false},
	} {
		lvl, err := ParseLevel(c.s)
		if (err == nil) != c.ok {
			t.Errorf("%q: unexpected error result %v", c.s, err)
		}
		if lvl != c.lvl {
			t.Errorf("%q: got level %v, expected %v", c.s, lvl, c.lvl)
		}
	}
}

func TestLoggerCallstack(t *testing.T) {
	var buf bytes.Buffer
	lg := NewWithHandler(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	lg.Info("transition", slog.String("to", "ARMING"))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unable to decode log record %q: %v", buf.String(), err)
	}
	if rec["msg"] != "transition" || rec["to"] != "ARMING" {
		t.Errorf("unexpected record %+v", rec)
	}
	cs, ok := rec["callstack"].([]any)
	if !ok || len(cs) == 0 {
		t.Fatalf("missing callstack in %+v", rec)
	}
	if f := cs[0].(map[string]any); !strings.HasSuffix(f["file"].(string), "log_test.go") {
		t.Errorf("expected first frame in log_test.go, got %+v", f)
	}
}

func TestNilLogger(t *testing.T) {
	var lg *Logger
	// None of these should crash.
	lg.Debug("debug")
	lg.Infof("info %d", 1)
	if lg.With("k", "v") != nil {
		t.Errorf("With on nil logger should return nil")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	lg := NewWithHandler(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	lg.Debug("hidden")
	lg.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected debug/info to be filtered, got %q", buf.String())
	}
	lg.Warnf("shown %d", 42)
	if !strings.Contains(buf.String(), "shown 42") {
		t.Errorf("expected warning in output, got %q", buf.String())
	}
}

func TestReportCrash(t *testing.T) {
	var buf bytes.Buffer
	lg := NewWithHandler(slog.NewJSONHandler(&buf, nil))
	lg.LogDir = t.TempDir()

	fn := lg.ReportCrash("boom")
	if fn == "" {
		t.Fatal("no crash report written")
	}
	report, err := os.ReadFile(fn)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(report), "Crashed: boom\n") {
		t.Errorf("unexpected report %q", report)
	}
	if !strings.Contains(buf.String(), "Crashed: boom") {
		t.Errorf("crash not logged: %q", buf.String())
	}

	if fn := NewWithHandler(slog.NewJSONHandler(&buf, nil)).ReportCrash("boom"); fn != "" {
		t.Errorf("report written without a log directory: %s", fn)
	}
}
