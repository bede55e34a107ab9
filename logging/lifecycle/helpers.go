package lifecycle

import (
	"context"

	"thetowers/server/logging"
)

const (
	// EventStage is emitted when a match session changes stage.
	EventStage logging.EventType = "lifecycle.stage"
	// EventRespawn is emitted when a dead combatant is restored.
	EventRespawn logging.EventType = "lifecycle.respawn"
	// EventLedgerSweepFailed is emitted when one ledger fails during a sweep.
	EventLedgerSweepFailed logging.EventType = "lifecycle.ledger_sweep_failed"
	// EventTeamDefeated is emitted when a team heart reaches zero.
	EventTeamDefeated logging.EventType = "lifecycle.team_defeated"
)

// StagePayload captures a stage transition.
type StagePayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// RespawnPayload records where a combatant came back.
type RespawnPayload struct {
	Team string  `json:"team"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Z    float64 `json:"z"`
}

// SweepFailedPayload carries the recovered failure text.
type SweepFailedPayload struct {
	Error string `json:"error"`
}

func Stage(ctx context.Context, pub logging.Publisher, tick uint64, session logging.EntityRef, payload StagePayload, extra map[string]any) {
	publish(ctx, pub, logging.Event{
		Type:     EventStage,
		Tick:     tick,
		Actor:    session,
		Severity: logging.SeverityInfo,
		Payload:  payload,
		Extra:    extra,
	})
}

func Respawn(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload RespawnPayload, extra map[string]any) {
	publish(ctx, pub, logging.Event{
		Type:     EventRespawn,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Payload:  payload,
		Extra:    extra,
	})
}

func LedgerSweepFailed(ctx context.Context, pub logging.Publisher, payload SweepFailedPayload, extra map[string]any) {
	publish(ctx, pub, logging.Event{
		Type:     EventLedgerSweepFailed,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Severity: logging.SeverityError,
		Payload:  payload,
		Extra:    extra,
	})
}

func TeamDefeated(ctx context.Context, pub logging.Publisher, tick uint64, team logging.EntityRef, extra map[string]any) {
	publish(ctx, pub, logging.Event{
		Type:     EventTeamDefeated,
		Tick:     tick,
		Actor:    team,
		Severity: logging.SeverityWarn,
		Extra:    extra,
	})
}

func publish(ctx context.Context, pub logging.Publisher, event logging.Event) {
	if pub == nil {
		return
	}
	event.Category = logging.CategoryLifecycle
	pub.Publish(ctx, event)
}
