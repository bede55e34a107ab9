// Package ledger tracks recent damage contributions against a single victim
// so kills and assists can be credited when the victim dies.
package ledger

import (
	"cmp"
	"math"
	"slices"
	"sync"
	"time"
)

// DefaultTTL is how long a contribution stays creditable after its last hit.
const DefaultTTL = 10 * time.Second

// Entry is one attacker's accumulated contribution.
type Entry struct {
	AttackerID string    `json:"attackerId"`
	Damage     float64   `json:"damage"`
	Timestamp  time.Time `json:"timestamp"`
}

// Ledger is safe for concurrent use. Entries are kept ordered by damage
// descending, ties broken by attacker id ascending.
type Ledger struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]*Entry
	ordered []*Entry
}

func New(ttl time.Duration) *Ledger {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Ledger{ttl: ttl, entries: make(map[string]*Entry)}
}

func (l *Ledger) TTL() time.Duration {
	return l.ttl
}

func compareEntries(a, b *Entry) int {
	if c := cmp.Compare(b.Damage, a.Damage); c != 0 {
		return c
	}
	return cmp.Compare(a.AttackerID, b.AttackerID)
}

// Record adds amount to attackerID's total and refreshes its timestamp.
// Non-positive and non-finite amounts are ignored.
func (l *Ledger) Record(attackerID string, amount float64, now time.Time) {
	if attackerID == "" || !(amount > 0) || math.IsInf(amount, 0) {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[attackerID]
	if ok {
		l.removeOrdered(entry)
		entry.Damage += amount
		entry.Timestamp = now
	} else {
		entry = &Entry{AttackerID: attackerID, Damage: amount, Timestamp: now}
		l.entries[attackerID] = entry
	}
	idx, _ := slices.BinarySearchFunc(l.ordered, entry, compareEntries)
	l.ordered = slices.Insert(l.ordered, idx, entry)
}

func (l *Ledger) removeOrdered(entry *Entry) {
	idx, found := slices.BinarySearchFunc(l.ordered, entry, compareEntries)
	if found && l.ordered[idx] == entry {
		l.ordered = slices.Delete(l.ordered, idx, idx+1)
		return
	}
	// Fall back to a scan; the entry key cannot collide but stay correct anyway.
	for i, candidate := range l.ordered {
		if candidate == entry {
			l.ordered = slices.Delete(l.ordered, i, i+1)
			return
		}
	}
}

// Contribution reports the accumulated damage for attackerID.
func (l *Ledger) Contribution(attackerID string) (Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.entries[attackerID]
	if !ok {
		return Entry{}, false
	}
	return *entry, true
}

// Snapshot returns a copy of the entries in ranking order.
func (l *Ledger) Snapshot() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.ordered))
	for i, entry := range l.ordered {
		out[i] = *entry
	}
	return out
}

// Top returns the highest ranked entry.
func (l *Ledger) Top() (Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.ordered) == 0 {
		return Entry{}, false
	}
	return *l.ordered[0], true
}

func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Sweep drops entries whose last hit is strictly older than the TTL and
// reports how many were removed.
func (l *Ledger) Sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	kept := l.ordered[:0]
	for _, entry := range l.ordered {
		if now.Sub(entry.Timestamp) > l.ttl {
			delete(l.entries, entry.AttackerID)
			removed++
			continue
		}
		kept = append(kept, entry)
	}
	clear(l.ordered[len(kept):])
	l.ordered = kept
	return removed
}

func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	clear(l.entries)
	clear(l.ordered)
	l.ordered = l.ordered[:0]
}
