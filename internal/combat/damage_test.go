package combat

import (
	"math"
	"testing"
)

func TestEffectiveDamageProperties(t *testing.T) {
	for _, base := range []float64{0, -1, -100} {
		if got := EffectiveDamage(base, 5); got != 0 {
			t.Fatalf("expected 0 for base %v, got %v", base, got)
		}
	}
	for _, base := range []float64{0.5, 1, 7, 20} {
		if got := EffectiveDamage(base, 0); got != base {
			t.Fatalf("expected undefended damage %v, got %v", base, got)
		}
	}
	if got := EffectiveDamage(20, 5); got != 16 {
		t.Fatalf("expected 400/25=16, got %v", got)
	}
	if got := EffectiveDamage(10, -3); got != 10 {
		t.Fatalf("expected negative defense treated as 0, got %v", got)
	}

	prev := math.Inf(1)
	for defense := 0.0; defense <= 40; defense += 0.5 {
		got := EffectiveDamage(8, defense)
		if got >= prev {
			t.Fatalf("expected strictly decreasing damage at defense %v: %v >= %v", defense, got, prev)
		}
		if got <= 0 {
			t.Fatalf("expected positive residual at defense %v, got %v", defense, got)
		}
		prev = got
	}

	if got := EffectiveDamage(math.NaN(), 2); got != 0 {
		t.Fatalf("expected NaN base to deal 0, got %v", got)
	}
}

func TestInvulnerabilityWindow(t *testing.T) {
	v := NewInvulnerability(10)
	v.Mark("V", 5)
	if !v.Active("V", 5) || !v.Active("V", 14) {
		t.Fatalf("expected V protected for ticks 5..14")
	}
	if v.Active("V", 15) {
		t.Fatalf("expected window to close at tick 15")
	}
	v.Prune(15)
	if v.Len() != 0 {
		t.Fatalf("expected prune to forget elapsed window, got %d", v.Len())
	}

	disabled := NewInvulnerability(0)
	disabled.Mark("V", 1)
	if disabled.Active("V", 1) {
		t.Fatalf("expected zero-tick window to never protect")
	}
}
