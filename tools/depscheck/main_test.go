package main

import (
	"strings"
	"testing"
)

func TestCheckReportsLayerViolations(t *testing.T) {
	stream := `
{"ImportPath":"thetowers/server/internal/combat","Imports":["context","thetowers/server/internal/equipment","thetowers/server/internal/match"]}
{"ImportPath":"thetowers/server/internal/match","Imports":["thetowers/server/internal/combat","thetowers/server/internal/ledger"]}
{"ImportPath":"thetowers/server/logging/sinks","Imports":["thetowers/server/logging","thetowers/server/internal/telemetry"]}
{"ImportPath":"thetowers/server/internal/app","Imports":["thetowers/server/internal/net"]}
`
	violations, err := check(strings.NewReader(stream), rules)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	want := []string{
		"thetowers/server/internal/combat -> thetowers/server/internal/match",
		"thetowers/server/logging/sinks -> thetowers/server/internal/telemetry",
	}
	if len(violations) != len(want) {
		t.Fatalf("expected %v, got %v", want, violations)
	}
	for i := range want {
		if violations[i] != want[i] {
			t.Fatalf("expected %q, got %q", want[i], violations[i])
		}
	}
}

func TestCheckRejectsMalformedStream(t *testing.T) {
	if _, err := check(strings.NewReader("{"), rules); err == nil {
		t.Fatalf("expected decode error")
	}
}
