package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"thetowers/server/internal/combat"
	"thetowers/server/internal/config"
	"thetowers/server/internal/match"
	"thetowers/server/logging"
	loggingCombat "thetowers/server/logging/combat"
	loggingSinks "thetowers/server/logging/sinks"
)

func newRuntime(t *testing.T) (*Runtime, *loggingSinks.Memory, *observer.ObservedLogs) {
	t.Helper()
	cfg := config.Default()
	cfg.Server.TickRate = 200
	cfg.Logging.Sinks = []string{"zap"}
	cfg.Match.Teams = 2
	cfg.Match.StartDelay = 0

	core, logs := observer.New(zap.DebugLevel)
	memory := loggingSinks.NewMemory(0)
	rt, err := New(cfg, Options{
		Zap:   zap.New(core),
		Sinks: []logging.NamedSink{{Name: "memory", Sink: memory}},
	})
	if err != nil {
		t.Fatalf("failed to build runtime: %v", err)
	}
	if err := rt.Start(context.Background()); err != nil {
		t.Fatalf("failed to start runtime: %v", err)
	}
	t.Cleanup(func() { rt.Close(context.Background()) })
	return rt, memory, logs
}

func waitForEvents(t *testing.T, memory *loggingSinks.Memory, eventType logging.EventType, n int) []logging.Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		events := memory.EventsOfType(eventType)
		if len(events) >= n {
			return events
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected %d %s events, got %d", n, eventType, len(events))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRuntimeResolvesKill(t *testing.T) {
	rt, memory, logs := newRuntime(t)
	ctx := context.Background()

	var victim, killer *match.Combatant
	err := rt.Loop.Do(ctx, func() {
		victim, _ = rt.Session.AddCombatant("V", "V")
		killer, _ = rt.Session.AddCombatant("K", "K")
		rt.Session.CreateTeam("RED", match.ColorRed, victim)
		rt.Session.CreateTeam("BLUE", match.ColorBlue, killer)
		rt.Session.Start()
		rt.Session.Begin()
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := rt.Equip(ctx, "K", "netherite_sword"); err != nil {
		t.Fatalf("equip: %v", err)
	}
	if err := rt.Equip(ctx, "missing", "netherite_sword"); err == nil {
		t.Fatalf("expected unknown combatant error")
	}

	for attempt := 0; ; attempt++ {
		if attempt == 200 {
			t.Fatalf("expected the victim to die")
		}
		out, err := rt.Resolve(ctx, combat.Interaction{Kind: combat.KindMelee, Attacker: killer, Victim: victim, Cooldown: 1})
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if out.Result == combat.ResultLethal {
			break
		}
		if out.Result == combat.ResultVoided && out.Reason != combat.VoidInvulnerable {
			t.Fatalf("unexpected void: %s", out.Reason)
		}
		time.Sleep(10 * time.Millisecond)
	}

	kills := waitForEvents(t, memory, loggingCombat.EventKill, 1)
	if kills[0].Extra["match"] != rt.Session.ID() {
		t.Fatalf("expected match id on kill event, got %v", kills[0].Extra)
	}
	deadline := time.Now().Add(2 * time.Second)
	for logs.FilterMessage(string(loggingCombat.EventKill)).Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expected kill forwarded to zap")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRuntimeHandlerServesDiagnostics(t *testing.T) {
	rt, _, _ := newRuntime(t)
	srv := httptest.NewServer(rt.Handler())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/diagnostics")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestRuntimeCloseIsIdempotent(t *testing.T) {
	rt, _, _ := newRuntime(t)
	if err := rt.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := rt.Close(context.Background()); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if rt.Submit(combat.Interaction{}) {
		t.Fatalf("expected submit after close to be rejected")
	}
}

func TestRuntimeCloseWhileDeathsQueued(t *testing.T) {
	rt, _, _ := newRuntime(t)
	ctx := context.Background()

	var victim *match.Combatant
	err := rt.Loop.Do(ctx, func() {
		victim, _ = rt.Session.AddCombatant("V", "V")
		rt.Session.CreateTeam("RED", match.ColorRed, victim)
		rt.Session.Start()
		rt.Session.Begin()
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	for i := 0; i < 200; i++ {
		rt.Loop.Enqueue(func() {
			rt.Session.Death(victim, combat.Killer{})
			rt.Session.Reset()
			rt.Session.Start()
			rt.Session.Begin()
		})
	}
	if err := rt.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
}
