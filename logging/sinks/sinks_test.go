package sinks

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"thetowers/server/logging"
)

func sampleEvent() logging.Event {
	return logging.Event{
		Type:     "combat.kill",
		Tick:     42,
		Time:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Actor:    logging.EntityRef{ID: "Y", Kind: logging.EntityKindCombatant},
		Targets:  []logging.EntityRef{{ID: "V", Kind: logging.EntityKindCombatant}},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  map[string]any{"assists": 1},
		Extra:    map[string]any{"match": "abc"},
	}
}

func TestJSONWritesOneRecordPerLine(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSON(&buf, 0)
	if err := sink.Write(sampleEvent()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := sink.Write(sampleEvent()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := sink.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record["severity"] != "info" || record["tick"] != float64(42) {
		t.Fatalf("unexpected record: %v", record)
	}
}

func TestConsoleFormatsEvent(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsole(&buf)
	if err := sink.Write(sampleEvent()); err != nil {
		t.Fatalf("write: %v", err)
	}
	line := buf.String()
	if !strings.Contains(line, "[combat.kill]") || !strings.Contains(line, "tick=42") {
		t.Fatalf("unexpected console line: %q", line)
	}
}

func TestMemoryLimitKeepsNewest(t *testing.T) {
	sink := NewMemory(2)
	for i := 0; i < 3; i++ {
		event := sampleEvent()
		event.Tick = uint64(i)
		sink.Write(event)
	}
	events := sink.Events()
	if len(events) != 2 || events[0].Tick != 1 {
		t.Fatalf("expected the two newest events, got %+v", events)
	}
	if got := len(sink.EventsOfType("combat.kill")); got != 2 {
		t.Fatalf("expected 2 kill events, got %d", got)
	}
	sink.Reset()
	if len(sink.Events()) != 0 {
		t.Fatalf("expected reset to clear events")
	}
}

func TestZapForwardsFieldsAtSeverity(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sink := NewZap(zap.New(core))

	event := sampleEvent()
	event.Severity = logging.SeverityWarn
	if err := sink.Write(event); err != nil {
		t.Fatalf("write: %v", err)
	}

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Message != "combat.kill" || entry.Level != zapcore.WarnLevel {
		t.Fatalf("unexpected entry: %s at %s", entry.Message, entry.Level)
	}
	fields := entry.ContextMap()
	if fields["tick"] != uint64(42) || fields["match"] != "abc" {
		t.Fatalf("unexpected fields: %v", fields)
	}
}
