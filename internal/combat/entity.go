package combat

import (
	"errors"
	"math"
	"time"

	"thetowers/server/internal/equipment"
)

// Entity is anything that can take part in a combat interaction.
type Entity interface {
	EntityID() string
	DisplayName() string
	Health() float64
	SetHealth(float64)
	// Elevation is the vertical position checked against the world floor.
	Elevation() float64
	Loadout() equipment.Loadout
}

// Combatant is a player-controlled entity with a team and a damage ledger.
type Combatant interface {
	Entity
	Alive() bool
	// TeamName is empty when the combatant has no team.
	TeamName() string
	RecordDamage(attackerID string, amount float64, now time.Time)
}

// DamageSource is implemented by hostile creatures that carry their own
// damage value.
type DamageSource interface {
	CreatureDamage() (float64, bool)
}

// Creature is a hostile non-player entity. Creatures are never credited with
// kills and their deaths carry no stats.
type Creature struct {
	ID    string
	Name  string
	HP    float64
	Y     float64
	Equip equipment.Loadout
	// Damage overrides the configured creature damage when HasDamage is set.
	Damage    float64
	HasDamage bool
}

func (c *Creature) EntityID() string           { return c.ID }
func (c *Creature) DisplayName() string        { return c.Name }
func (c *Creature) Health() float64            { return c.HP }
func (c *Creature) SetHealth(v float64)        { c.HP = math.Max(v, 0) }
func (c *Creature) Elevation() float64         { return c.Y }
func (c *Creature) Loadout() equipment.Loadout { return c.Equip }

func (c *Creature) CreatureDamage() (float64, bool) {
	return c.Damage, c.HasDamage
}

// Projectile carries the damage computed when it was launched.
type Projectile struct {
	Shooter  Entity
	Damage   float64
	Critical bool
}

var ErrLaunchCancelled = errors.New("launcher has no projectile damage")

// LaunchProjectile computes the projectile's damage from the launcher's
// projectile damage tag and the draw force. Launchers without the tag cancel
// the shot.
func LaunchProjectile(shooter Entity, launcher *equipment.Item, force float64, critical bool) (*Projectile, error) {
	if launcher == nil || !launcher.HasTag(equipment.TagProjectileDamage) {
		return nil, ErrLaunchCancelled
	}
	if math.IsNaN(force) || math.IsInf(force, 0) || force < 0 {
		force = 0
	}
	return &Projectile{
		Shooter:  shooter,
		Damage:   launcher.Tag(equipment.TagProjectileDamage) * force,
		Critical: critical,
	}, nil
}
