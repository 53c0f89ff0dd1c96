package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q): expected %v, got %v", in, want, got)
		}
	}
}

func TestTextLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTextLogger(&buf, "warn")

	logger.Info("page_extracted")
	logger.Warn("page_skipped", "page", 3)

	out := buf.String()
	if strings.Contains(out, "page_extracted") {
		t.Fatalf("expected info record to be filtered, got %q", out)
	}
	if !strings.Contains(out, "page_skipped") || !strings.Contains(out, "page=3") {
		t.Fatalf("expected warn record, got %q", out)
	}
}
