package match

import (
	"math"
	"time"

	"thetowers/server/internal/equipment"
	"thetowers/server/internal/ledger"
)

// DefaultMaxHealth is a combatant's full health.
const DefaultMaxHealth = 20.0

// Mode is whether a combatant can interact with the arena.
type Mode int

const (
	ModeInteractive Mode = iota
	ModeSpectating
)

func (m Mode) String() string {
	switch m {
	case ModeInteractive:
		return "interactive"
	case ModeSpectating:
		return "spectating"
	}
	return "unknown"
}

// Position is a point in the arena.
type Position struct {
	X float64 `toml:"x" json:"x"`
	Y float64 `toml:"y" json:"y"`
	Z float64 `toml:"z" json:"z"`
}

// Combatant is a player taking part in a match. All fields are owned by the
// game loop except the ledger, which the registry sweeps concurrently.
type Combatant struct {
	session   *Session
	id        string
	name      string
	health    float64
	maxHealth float64
	alive     bool
	mode      Mode
	position  Position
	team      *Team
	stats     Stats
	loadout   equipment.Loadout
	ledger    *ledger.Ledger

	respawnGen uint64
	respawning bool
	removed    bool
}

func (c *Combatant) EntityID() string    { return c.id }
func (c *Combatant) DisplayName() string { return c.name }
func (c *Combatant) Health() float64     { return c.health }
func (c *Combatant) MaxHealth() float64  { return c.maxHealth }
func (c *Combatant) Alive() bool         { return c.alive }
func (c *Combatant) Mode() Mode          { return c.mode }
func (c *Combatant) Position() Position  { return c.position }
func (c *Combatant) Elevation() float64  { return c.position.Y }
func (c *Combatant) Team() *Team         { return c.team }
func (c *Combatant) Stats() *Stats       { return &c.stats }

func (c *Combatant) TeamName() string {
	if c.team == nil {
		return ""
	}
	return c.team.name
}

func (c *Combatant) Loadout() equipment.Loadout {
	return c.loadout
}

func (c *Combatant) SetLoadout(l equipment.Loadout) {
	c.loadout = l
}

// SetHealth clamps health into [0, max]. Non-finite values are ignored.
func (c *Combatant) SetHealth(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	c.health = math.Min(math.Max(v, 0), c.maxHealth)
}

func (c *Combatant) Teleport(p Position) {
	c.position = p
}

// RecordDamage credits attackerID on this combatant's ledger, creating and
// registering the ledger on the first hit.
func (c *Combatant) RecordDamage(attackerID string, amount float64, now time.Time) {
	if c.ledger == nil {
		c.ledger = ledger.New(c.session.cfg.LedgerTTL)
		if err := c.session.deps.Registry.Register(c.ledger); err != nil {
			c.session.deps.Logger.Printf("[match] ledger for %s not registered: %v", c.id, err)
		}
	}
	c.ledger.Record(attackerID, amount, now)
}

// Ledger returns the combatant's ledger, or nil before the first recorded hit.
func (c *Combatant) Ledger() *ledger.Ledger {
	return c.ledger
}

func (c *Combatant) ledgerSnapshot() []ledger.Entry {
	if c.ledger == nil {
		return nil
	}
	return c.ledger.Snapshot()
}

func (c *Combatant) clearLedger() {
	if c.ledger != nil {
		c.ledger.Clear()
	}
}

func (c *Combatant) dispose() {
	if c.ledger != nil {
		c.session.deps.Registry.Unregister(c.ledger)
		c.ledger = nil
	}
	c.removed = true
	c.cancelRespawn()
}

// cancelRespawn abandons any countdown in flight.
func (c *Combatant) cancelRespawn() {
	c.respawnGen++
	c.respawning = false
}

func (c *Combatant) spectate() {
	c.alive = false
	c.mode = ModeSpectating
}

func (c *Combatant) restore() {
	c.alive = true
	c.mode = ModeInteractive
	c.health = c.maxHealth
}
