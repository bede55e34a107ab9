package combat

import "sync"

// DefaultInvulnerabilityTicks is how long a victim ignores new hits after
// taking damage.
const DefaultInvulnerabilityTicks = 10

// Invulnerability remembers, per entity, the tick until which incoming hits
// are voided.
type Invulnerability struct {
	mu    sync.Mutex
	ticks uint64
	until map[string]uint64
}

func NewInvulnerability(ticks int) *Invulnerability {
	if ticks < 0 {
		ticks = 0
	}
	return &Invulnerability{ticks: uint64(ticks), until: make(map[string]uint64)}
}

// Active reports whether id is still protected at tick.
func (v *Invulnerability) Active(id string, tick uint64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	until, ok := v.until[id]
	return ok && tick < until
}

// Mark protects id for the configured number of ticks starting at tick.
func (v *Invulnerability) Mark(id string, tick uint64) {
	if v.ticks == 0 {
		return
	}
	v.mu.Lock()
	v.until[id] = tick + v.ticks
	v.mu.Unlock()
}

func (v *Invulnerability) Clear(id string) {
	v.mu.Lock()
	delete(v.until, id)
	v.mu.Unlock()
}

// Prune forgets windows that have elapsed by tick.
func (v *Invulnerability) Prune(tick uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for id, until := range v.until {
		if tick >= until {
			delete(v.until, id)
		}
	}
}

func (v *Invulnerability) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.until)
}
