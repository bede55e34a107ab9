package logging_test

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"thetowers/server/logging"
	"thetowers/server/logging/sinks"
)

func TestRouterForwardsToSinks(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cfg := logging.DefaultConfig()
	cfg.MinSeverity = logging.SeverityInfo
	cfg.Fields = map[string]any{"server": "eu-1"}

	memory := sinks.NewMemory(0)
	router := logging.NewRouter(logging.ClockFunc(func() time.Time { return fixed }), cfg, nil, []logging.NamedSink{{Name: "memory", Sink: memory}})

	ctx := context.Background()
	router.Publish(ctx, logging.Event{Type: "test.info", Tick: 3, Severity: logging.SeverityInfo})
	router.Publish(ctx, logging.Event{Type: "test.debug", Severity: logging.SeverityDebug})
	router.Publish(ctx, logging.Event{Type: "test.extra", Severity: logging.SeverityWarn, Extra: map[string]any{"server": "override"}})
	router.Publish(ctx, logging.Event{})

	if err := router.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}

	events := memory.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events after severity filter, got %d", len(events))
	}
	if !events[0].Time.Equal(fixed) {
		t.Fatalf("expected router clock stamp, got %v", events[0].Time)
	}
	if events[0].Extra["server"] != "eu-1" {
		t.Fatalf("expected static field merged, got %v", events[0].Extra)
	}
	if events[1].Extra["server"] != "override" {
		t.Fatalf("expected event field to win, got %v", events[1].Extra)
	}
	if stats := router.Stats(); stats.EventsTotal != 2 {
		t.Fatalf("expected 2 forwarded events, got %+v", stats)
	}
	if router.Sink("memory") != memory {
		t.Fatalf("expected sink lookup by name")
	}
}

func TestRouterIgnoresPublishAfterClose(t *testing.T) {
	memory := sinks.NewMemory(0)
	router := logging.NewRouter(nil, logging.DefaultConfig(), nil, []logging.NamedSink{{Name: "memory", Sink: memory}})
	ctx := context.Background()

	if err := router.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := router.Close(ctx); err != nil {
		t.Fatalf("second close: %v", err)
	}
	router.Publish(ctx, logging.Event{Type: "late", Severity: logging.SeverityError})
	if len(memory.Events()) != 0 {
		t.Fatalf("expected no events after close")
	}
}

func TestWithFieldsDecoratesPublisher(t *testing.T) {
	var got logging.Event
	base := logging.PublisherFunc(func(_ context.Context, e logging.Event) { got = e })
	pub := logging.WithFields(base, map[string]any{"match": "abc"})

	pub.Publish(context.Background(), logging.Event{Type: "x"})
	if got.Extra["match"] != "abc" {
		t.Fatalf("expected match field, got %v", got.Extra)
	}
}

func TestParseSeverity(t *testing.T) {
	tests := map[string]logging.Severity{
		"debug":   logging.SeverityDebug,
		"":        logging.SeverityInfo,
		"WARNING": logging.SeverityWarn,
		"error":   logging.SeverityError,
	}
	for raw, want := range tests {
		got, err := logging.ParseSeverity(raw)
		if err != nil || got != want {
			t.Fatalf("ParseSeverity(%q): expected %v, got %v (%v)", raw, want, got, err)
		}
	}
	if _, err := logging.ParseSeverity("loud"); err == nil {
		t.Fatalf("expected unknown severity to fail")
	}
}

type blockingSink struct {
	release chan struct{}
}

func (s blockingSink) Write(logging.Event) error {
	<-s.release
	return nil
}

func (blockingSink) Close(context.Context) error { return nil }

func TestRouterCountsSinkBacklogDrops(t *testing.T) {
	slow := blockingSink{release: make(chan struct{})}
	cfg := logging.DefaultConfig()
	cfg.BufferSize = 1
	router := logging.NewRouter(nil, cfg, log.New(io.Discard, "", 0), []logging.NamedSink{{Name: "slow", Sink: slow}})

	ctx := context.Background()
	deadline := time.Now().Add(2 * time.Second)
	for router.Stats().SinkDropped["slow"] == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expected the slow sink to drop events, got %+v", router.Stats())
		}
		router.Publish(ctx, logging.Event{Type: "test.flood", Severity: logging.SeverityInfo})
		time.Sleep(time.Millisecond)
	}

	close(slow.release)
	if err := router.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestConfigValidateSinks(t *testing.T) {
	cfg := logging.DefaultConfig()
	cfg.Sinks = []string{logging.SinkConsole, logging.SinkJSON, logging.SinkZap}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected known sinks to validate, got %v", err)
	}
	if !cfg.Enabled(logging.SinkZap) || cfg.Enabled("memory") {
		t.Fatalf("unexpected Enabled results for %v", cfg.Sinks)
	}
	cfg.Sinks = append(cfg.Sinks, "syslog")
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected unknown sink to fail validation")
	}
}
