package telemetry

import (
	"bytes"
	"log"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWrapLogger(t *testing.T) {
	t.Run("nil logger", func(t *testing.T) {
		logger := WrapLogger(nil)
		logger.Printf("ignored %d", 42)
	})

	t.Run("forwards to logger", func(t *testing.T) {
		var buf bytes.Buffer
		base := log.New(&buf, "", 0)
		logger := WrapLogger(base)
		logger.Printf("hello %s", "world")
		if got := buf.String(); got != "hello world\n" {
			t.Fatalf("unexpected log output: %q", got)
		}
		if StandardLogger(logger) != base {
			t.Fatalf("expected wrapped logger to expose its standard logger")
		}
	})
}

func TestWrapZap(t *testing.T) {
	core, recorded := observer.New(zap.InfoLevel)
	logger := WrapZap(zap.New(core))

	logger.Printf("team %s lost %d souls", "RED", 2)

	entries := recorded.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if got := entries[0].Message; got != "team RED lost 2 souls" {
		t.Fatalf("unexpected message: %q", got)
	}

	std := StandardLogger(logger)
	if std == nil {
		t.Fatalf("expected zap adapter to expose a standard logger")
	}
	std.Print("fallback line")
	if got := recorded.FilterMessage("fallback line").Len(); got != 1 {
		t.Fatalf("expected fallback line to reach zap, got %d entries", got)
	}
}

func TestLoggerFuncNil(t *testing.T) {
	var fn LoggerFunc
	fn.Printf("ignored")
}
