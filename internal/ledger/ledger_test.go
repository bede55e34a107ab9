package ledger

import (
	"fmt"
	"math"
	"sync"
	"testing"
	"time"
)

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func at(seconds float64) time.Time {
	return epoch.Add(time.Duration(seconds * float64(time.Second)))
}

func TestRecordSumsContributions(t *testing.T) {
	l := New(DefaultTTL)
	l.Record("X", 2, at(0))
	l.Record("X", 3.5, at(1))

	entry, ok := l.Contribution("X")
	if !ok {
		t.Fatalf("expected contribution for X")
	}
	if entry.Damage != 5.5 {
		t.Fatalf("expected damage 5.5, got %v", entry.Damage)
	}
	if !entry.Timestamp.Equal(at(1)) {
		t.Fatalf("expected timestamp refreshed to %v, got %v", at(1), entry.Timestamp)
	}
	if l.Len() != 1 {
		t.Fatalf("expected a single entry, got %d", l.Len())
	}
}

func TestRecordIgnoresNonPositiveAmounts(t *testing.T) {
	l := New(DefaultTTL)
	for _, amount := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		l.Record("X", amount, at(0))
	}
	l.Record("", 4, at(0))
	if l.Len() != 0 {
		t.Fatalf("expected ledger to stay empty, got %d entries", l.Len())
	}
}

func TestSnapshotOrdering(t *testing.T) {
	l := New(DefaultTTL)
	l.Record("charlie", 3, at(0))
	l.Record("bravo", 7, at(0))
	l.Record("alpha", 3, at(0))
	l.Record("delta", 1, at(0))
	l.Record("delta", 6, at(1))

	got := l.Snapshot()
	want := []string{"bravo", "delta", "alpha", "charlie"}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].AttackerID != id {
			t.Fatalf("expected position %d to be %s, got %s (%+v)", i, id, got[i].AttackerID, got)
		}
	}

	again := l.Snapshot()
	for i := range got {
		if got[i] != again[i] {
			t.Fatalf("expected repeated snapshots to match at %d: %+v vs %+v", i, got[i], again[i])
		}
	}

	top, ok := l.Top()
	if !ok || top.AttackerID != "bravo" {
		t.Fatalf("expected bravo on top, got %+v", top)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	l := New(DefaultTTL)
	l.Record("X", 5, at(0))
	snap := l.Snapshot()
	snap[0].Damage = 100

	entry, _ := l.Contribution("X")
	if entry.Damage != 5 {
		t.Fatalf("expected ledger to be unaffected by snapshot mutation, got %v", entry.Damage)
	}
}

func TestScenarioTieAndExpiry(t *testing.T) {
	l := New(10 * time.Second)
	l.Record("X", 5, at(0))
	l.Record("Y", 5, at(2))

	snap := l.Snapshot()
	if len(snap) != 2 || snap[0].AttackerID != "X" || snap[1].AttackerID != "Y" {
		t.Fatalf("expected tie broken by id [X Y], got %+v", snap)
	}

	if removed := l.Sweep(at(11)); removed != 1 {
		t.Fatalf("expected one entry removed, got %d", removed)
	}
	if _, ok := l.Contribution("X"); ok {
		t.Fatalf("expected X to expire")
	}
	if entry, ok := l.Contribution("Y"); !ok || entry.Damage != 5 {
		t.Fatalf("expected Y to remain with 5 damage, got %+v ok=%v", entry, ok)
	}
}

func TestSweepBoundaryIsExclusive(t *testing.T) {
	l := New(10 * time.Second)
	l.Record("X", 1, at(0))

	if removed := l.Sweep(at(10)); removed != 0 {
		t.Fatalf("expected entry at exactly the ttl to be retained, removed %d", removed)
	}
	if removed := l.Sweep(at(10.001)); removed != 1 {
		t.Fatalf("expected entry past the ttl to be removed, removed %d", removed)
	}
}

func TestSweepEmptyLedger(t *testing.T) {
	l := New(DefaultTTL)
	if removed := l.Sweep(at(100)); removed != 0 {
		t.Fatalf("expected nothing removed, got %d", removed)
	}
}

func TestClear(t *testing.T) {
	l := New(DefaultTTL)
	l.Record("X", 1, at(0))
	l.Record("Y", 2, at(0))
	l.Clear()
	if l.Len() != 0 || len(l.Snapshot()) != 0 {
		t.Fatalf("expected cleared ledger to be empty")
	}
	l.Record("X", 4, at(1))
	if entry, _ := l.Contribution("X"); entry.Damage != 4 {
		t.Fatalf("expected fresh contribution after clear, got %v", entry.Damage)
	}
}

func TestConcurrentRecordAndSweep(t *testing.T) {
	l := New(time.Hour)
	const attackers = 8
	const hits = 200

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				l.Sweep(at(1))
				l.Snapshot()
			}
		}
	}()

	for a := 0; a < attackers; a++ {
		id := fmt.Sprintf("attacker-%d", a)
		for i := 0; i < hits; i++ {
			l.Record(id, 1, at(0))
		}
	}
	close(stop)
	wg.Wait()

	snap := l.Snapshot()
	if len(snap) != attackers {
		t.Fatalf("expected %d entries, got %d", attackers, len(snap))
	}
	for _, entry := range snap {
		if entry.Damage != hits {
			t.Fatalf("expected %s to total %d, got %v", entry.AttackerID, hits, entry.Damage)
		}
	}
}
