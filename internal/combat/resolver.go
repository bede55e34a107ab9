// Package combat resolves combat interactions into health changes, ledger
// contributions and deaths.
package combat

import (
	"context"
	"math"

	"thetowers/server/logging"
	loggingCombat "thetowers/server/logging/combat"
)

// Kind is the shape of an interaction.
type Kind int

const (
	KindMelee Kind = iota
	KindProjectile
	KindEnvironmental
)

func (k Kind) String() string {
	switch k {
	case KindMelee:
		return "melee"
	case KindProjectile:
		return "projectile"
	case KindEnvironmental:
		return "environmental"
	}
	return "unknown"
}

// NativeEvent is the host's own damage event for an interaction. Voided
// interactions cancel it; claimed interactions zero its damage.
type NativeEvent interface {
	Cancel()
	SetDamage(amount float64)
}

// Interaction describes one incoming hit.
type Interaction struct {
	Kind     Kind
	Attacker Entity
	Victim   Entity
	// Projectile is required for KindProjectile.
	Projectile *Projectile
	Critical   bool
	// Cooldown is the attacker's charge in [0,1]; only melee hits by
	// combatants read it.
	Cooldown float64
	// Damage is the raw amount for environmental hits.
	Damage float64
	Native NativeEvent
}

type Result int

const (
	ResultVoided Result = iota
	ResultApplied
	ResultLethal
)

func (r Result) String() string {
	switch r {
	case ResultVoided:
		return "voided"
	case ResultApplied:
		return "applied"
	case ResultLethal:
		return "lethal"
	}
	return "unknown"
}

// VoidReason explains a voided interaction.
type VoidReason string

const (
	VoidNone         VoidReason = ""
	VoidStage        VoidReason = "stage"
	VoidNoVictim     VoidReason = "no_victim"
	VoidVictimDead   VoidReason = "victim_dead"
	VoidInvulnerable VoidReason = "invulnerable"
	VoidNoShooter    VoidReason = "no_shooter"
	VoidAttackerDead VoidReason = "attacker_dead"
	VoidFriendlyFire VoidReason = "friendly_fire"
	VoidNoDamage     VoidReason = "no_damage"
	VoidUnknownKind  VoidReason = "unknown_kind"
)

// Outcome reports what the resolver did.
type Outcome struct {
	Result    Result
	Reason    VoidReason
	Base      float64
	Defense   float64
	Effective float64
	Health    float64
}

// Killer names who gets credit for a death. Combatant is nil for creatures
// and environmental deaths; Name may still carry a creature's display name.
type Killer struct {
	Combatant Combatant
	Name      string
}

// Match is the part of the match state the resolver consults and drives.
type Match interface {
	CanApplyPvPDamage() bool
	Death(victim Combatant, killer Killer)
}

type TickSource interface {
	Tick() uint64
}

type Config struct {
	FistDamage           float64
	CreatureDamage       float64
	CriticalMultiplier   float64
	InvulnerabilityTicks int
	WorldFloor           float64
}

func DefaultConfig() Config {
	return Config{
		FistDamage:           1,
		CreatureDamage:       1,
		CriticalMultiplier:   1.5,
		InvulnerabilityTicks: DefaultInvulnerabilityTicks,
		WorldFloor:           -127,
	}
}

type Resolver struct {
	cfg       Config
	match     Match
	ticks     TickSource
	clock     logging.Clock
	publisher logging.Publisher
	invuln    *Invulnerability
}

// NewResolver wires a resolver. Resolve must only be called from the game
// loop.
func NewResolver(cfg Config, match Match, ticks TickSource, clock logging.Clock, publisher logging.Publisher) *Resolver {
	if clock == nil {
		clock = logging.SystemClock{}
	}
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	if cfg.CriticalMultiplier <= 0 {
		cfg.CriticalMultiplier = 1
	}
	return &Resolver{
		cfg:       cfg,
		match:     match,
		ticks:     ticks,
		clock:     clock,
		publisher: publisher,
		invuln:    NewInvulnerability(cfg.InvulnerabilityTicks),
	}
}

func (r *Resolver) Invulnerability() *Invulnerability {
	return r.invuln
}

func (r *Resolver) tick() uint64 {
	if r.ticks == nil {
		return 0
	}
	return r.ticks.Tick()
}

// Resolve runs one interaction through the damage pipeline.
func (r *Resolver) Resolve(ctx context.Context, in Interaction) Outcome {
	tick := r.tick()
	victim := in.Victim
	if victim == nil {
		return r.void(ctx, in, tick, VoidNoVictim)
	}
	if r.match != nil && !r.match.CanApplyPvPDamage() {
		return r.void(ctx, in, tick, VoidStage)
	}
	victimCombatant, victimIsCombatant := victim.(Combatant)
	if victimIsCombatant && !victimCombatant.Alive() {
		return r.void(ctx, in, tick, VoidVictimDead)
	}
	if r.invuln.Active(victim.EntityID(), tick) {
		return r.void(ctx, in, tick, VoidInvulnerable)
	}

	attacker := in.Attacker
	critical := in.Critical
	var base float64
	switch in.Kind {
	case KindProjectile:
		if in.Projectile == nil || in.Projectile.Shooter == nil {
			return r.void(ctx, in, tick, VoidNoShooter)
		}
		attacker = in.Projectile.Shooter
		critical = in.Projectile.Critical
		base = in.Projectile.Damage
	case KindMelee:
		if attacker == nil {
			return r.void(ctx, in, tick, VoidNoShooter)
		}
	case KindEnvironmental:
		attacker = nil
		base = in.Damage
	default:
		return r.void(ctx, in, tick, VoidUnknownKind)
	}

	attackerCombatant, attackerIsCombatant := attacker.(Combatant)
	if attackerIsCombatant && !attackerCombatant.Alive() {
		return r.void(ctx, in, tick, VoidAttackerDead)
	}
	if attackerIsCombatant && victimIsCombatant && attackerCombatant.TeamName() == victimCombatant.TeamName() {
		return r.void(ctx, in, tick, VoidFriendlyFire)
	}

	if in.Kind == KindMelee {
		if source, ok := attacker.(DamageSource); ok {
			if value, set := source.CreatureDamage(); set {
				base += value
			} else {
				base += r.cfg.CreatureDamage
			}
		}
		base += attacker.Loadout().WeaponDamage(r.cfg.FistDamage)
	}
	if critical {
		base *= r.cfg.CriticalMultiplier
	}
	if in.Kind == KindMelee && attackerIsCombatant {
		base *= clamp01(in.Cooldown)
	}

	outcome := Outcome{Base: base}
	if in.Kind == KindEnvironmental {
		outcome.Effective = math.Max(base, 0)
	} else {
		outcome.Defense = victim.Loadout().Defense()
		outcome.Effective = EffectiveDamage(base, outcome.Defense)
	}

	belowFloor := victim.Elevation() <= r.cfg.WorldFloor
	if !belowFloor && !(outcome.Effective > 0) {
		return r.void(ctx, in, tick, VoidNoDamage)
	}
	if in.Native != nil {
		in.Native.SetDamage(0)
	}

	health := victim.Health()
	if belowFloor || health-outcome.Effective <= 0 {
		outcome.Result = ResultLethal
		r.publishDamage(ctx, in.Kind, tick, attacker, victim, outcome, critical)
		r.invuln.Clear(victim.EntityID())
		if victimIsCombatant {
			if r.match != nil {
				r.match.Death(victimCombatant, killerFor(attacker, attackerCombatant, attackerIsCombatant))
			}
		} else {
			victim.SetHealth(0)
		}
		outcome.Health = victim.Health()
		return outcome
	}

	outcome.Result = ResultApplied
	outcome.Health = health - outcome.Effective
	victim.SetHealth(outcome.Health)
	if attackerIsCombatant && victimIsCombatant {
		victimCombatant.RecordDamage(attacker.EntityID(), outcome.Effective, r.clock.Now())
	}
	r.invuln.Mark(victim.EntityID(), tick)
	r.publishDamage(ctx, in.Kind, tick, attacker, victim, outcome, critical)
	return outcome
}

func killerFor(attacker Entity, combatant Combatant, isCombatant bool) Killer {
	if isCombatant {
		return Killer{Combatant: combatant, Name: combatant.DisplayName()}
	}
	if attacker != nil {
		return Killer{Name: attacker.DisplayName()}
	}
	return Killer{}
}

func (r *Resolver) void(ctx context.Context, in Interaction, tick uint64, reason VoidReason) Outcome {
	if in.Native != nil {
		in.Native.Cancel()
	}
	loggingCombat.Voided(ctx, r.publisher, tick, entityRef(in.Attacker), entityRef(in.Victim), loggingCombat.VoidedPayload{
		Kind:   in.Kind.String(),
		Reason: string(reason),
	}, nil)
	health := 0.0
	if in.Victim != nil {
		health = in.Victim.Health()
	}
	return Outcome{Result: ResultVoided, Reason: reason, Health: health}
}

func (r *Resolver) publishDamage(ctx context.Context, kind Kind, tick uint64, attacker, victim Entity, outcome Outcome, critical bool) {
	actor := entityRef(attacker)
	if attacker == nil {
		actor = logging.EntityRef{Kind: logging.EntityKindWorld}
	}
	loggingCombat.Damage(ctx, r.publisher, tick, actor, entityRef(victim), loggingCombat.DamagePayload{
		Kind:         kind.String(),
		Base:         outcome.Base,
		Defense:      outcome.Defense,
		Effective:    outcome.Effective,
		TargetHealth: outcome.Health,
		Critical:     critical,
		Lethal:       outcome.Result == ResultLethal,
	}, nil)
}

func entityRef(e Entity) logging.EntityRef {
	if e == nil {
		return logging.EntityRef{}
	}
	kind := logging.EntityKindCreature
	if _, ok := e.(Combatant); ok {
		kind = logging.EntityKindCombatant
	}
	return logging.EntityRef{ID: e.EntityID(), Kind: kind}
}

// EntityRef describes e for structured events.
func EntityRef(e Entity) logging.EntityRef {
	return entityRef(e)
}
