package combat

import (
	"context"

	"thetowers/server/logging"
)

const (
	// EventDamage is emitted when a hit lowers a target's health.
	EventDamage logging.EventType = "combat.damage"
	// EventVoided is emitted when an interaction is rejected before any damage applies.
	EventVoided logging.EventType = "combat.voided"
	// EventKill is emitted when a combatant is credited with a kill.
	EventKill logging.EventType = "combat.kill"
	// EventAssist is emitted once per combatant credited with an assist.
	EventAssist logging.EventType = "combat.assist"
	// EventDeath is emitted for every death, credited or not.
	EventDeath logging.EventType = "combat.death"
	// EventHeartStrike is emitted when a team heart loses health.
	EventHeartStrike logging.EventType = "combat.heart_strike"
)

// DamagePayload captures the numbers behind a single applied hit.
type DamagePayload struct {
	Kind         string  `json:"kind"`
	Base         float64 `json:"base"`
	Defense      float64 `json:"defense"`
	Effective    float64 `json:"effective"`
	TargetHealth float64 `json:"targetHealth"`
	Critical     bool    `json:"critical,omitempty"`
	Lethal       bool    `json:"lethal,omitempty"`
}

// VoidedPayload names why an interaction dealt nothing.
type VoidedPayload struct {
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}

// KillPayload describes a credited kill.
type KillPayload struct {
	Team    string `json:"team,omitempty"`
	Souls   int    `json:"souls"`
	Assists int    `json:"assists"`
}

// AssistPayload records the damage that earned an assist.
type AssistPayload struct {
	Damage float64 `json:"damage"`
}

// DeathPayload describes how a combatant died.
type DeathPayload struct {
	Killer  string `json:"killer,omitempty"`
	Cause   string `json:"cause"`
	Deaths  int    `json:"deaths"`
	Respawn bool   `json:"respawn"`
}

// HeartStrikePayload carries the heart health after a strike.
type HeartStrikePayload struct {
	Amount    int  `json:"amount"`
	Remaining int  `json:"remaining"`
	Destroyed bool `json:"destroyed,omitempty"`
}

func Damage(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, target logging.EntityRef, payload DamagePayload, extra map[string]any) {
	publish(ctx, pub, logging.Event{
		Type:     EventDamage,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityInfo,
		Payload:  payload,
		Extra:    extra,
	})
}

func Voided(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, target logging.EntityRef, payload VoidedPayload, extra map[string]any) {
	publish(ctx, pub, logging.Event{
		Type:     EventVoided,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityDebug,
		Payload:  payload,
		Extra:    extra,
	})
}

func Kill(ctx context.Context, pub logging.Publisher, tick uint64, killer logging.EntityRef, victim logging.EntityRef, payload KillPayload, extra map[string]any) {
	publish(ctx, pub, logging.Event{
		Type:     EventKill,
		Tick:     tick,
		Actor:    killer,
		Targets:  []logging.EntityRef{victim},
		Severity: logging.SeverityInfo,
		Payload:  payload,
		Extra:    extra,
	})
}

func Assist(ctx context.Context, pub logging.Publisher, tick uint64, assister logging.EntityRef, victim logging.EntityRef, payload AssistPayload, extra map[string]any) {
	publish(ctx, pub, logging.Event{
		Type:     EventAssist,
		Tick:     tick,
		Actor:    assister,
		Targets:  []logging.EntityRef{victim},
		Severity: logging.SeverityInfo,
		Payload:  payload,
		Extra:    extra,
	})
}

func Death(ctx context.Context, pub logging.Publisher, tick uint64, victim logging.EntityRef, payload DeathPayload, extra map[string]any) {
	publish(ctx, pub, logging.Event{
		Type:     EventDeath,
		Tick:     tick,
		Actor:    victim,
		Severity: logging.SeverityInfo,
		Payload:  payload,
		Extra:    extra,
	})
}

func HeartStrike(ctx context.Context, pub logging.Publisher, tick uint64, team logging.EntityRef, payload HeartStrikePayload, extra map[string]any) {
	severity := logging.SeverityInfo
	if payload.Destroyed {
		severity = logging.SeverityWarn
	}
	publish(ctx, pub, logging.Event{
		Type:     EventHeartStrike,
		Tick:     tick,
		Actor:    team,
		Severity: severity,
		Payload:  payload,
		Extra:    extra,
	})
}

func publish(ctx context.Context, pub logging.Publisher, event logging.Event) {
	if pub == nil {
		return
	}
	event.Category = logging.CategoryCombat
	pub.Publish(ctx, event)
}
