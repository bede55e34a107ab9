package match

import (
	"context"
	"errors"
	"fmt"

	"thetowers/server/internal/i18n"
	"thetowers/server/logging"
	loggingCombat "thetowers/server/logging/combat"
	loggingLifecycle "thetowers/server/logging/lifecycle"
)

var ErrHeartStrikeRejected = errors.New("heart strike rejected")

// StrikeHeart applies a confirmed strike by attacker on team's heart and
// returns the remaining heart health. Strikes outside combat, by dead or
// teamless combatants, or on the attacker's own heart are rejected.
func (s *Session) StrikeHeart(attacker *Combatant, team *Team, amount int) (int, error) {
	if team == nil {
		return 0, ErrUnknownTeam
	}
	switch {
	case !s.stage.CanApplyPvPDamage():
		return team.heart, fmt.Errorf("%w: combat is closed", ErrHeartStrikeRejected)
	case attacker == nil || !attacker.alive || attacker.team == nil:
		return team.heart, fmt.Errorf("%w: attacker cannot strike", ErrHeartStrikeRejected)
	case attacker.team == team:
		return team.heart, fmt.Errorf("%w: own heart", ErrHeartStrikeRejected)
	case amount <= 0 || team.Defeated():
		return team.heart, nil
	}

	before := team.heart
	remaining := team.DamageHeart(amount)
	attacker.stats.Add(StatHeartDamage, before-remaining)

	ctx := context.Background()
	tick := s.tick()
	teamRef := logging.EntityRef{ID: team.name, Kind: logging.EntityKindTeam}
	loggingCombat.HeartStrike(ctx, s.deps.Publisher, tick, teamRef, loggingCombat.HeartStrikePayload{
		Amount:    before - remaining,
		Remaining: remaining,
		Destroyed: remaining == 0,
	}, map[string]any{"attacker": attacker.id})

	if team.Defeated() && !team.defeatSet {
		team.defeatSet = true
		loggingLifecycle.TeamDefeated(ctx, s.deps.Publisher, tick, teamRef, nil)
		s.deps.Broadcaster.Broadcast(Message{Kind: MessageTeam, Text: s.text(i18n.KeyTeamDefeated, team.DisplayName())})
	}
	return remaining, nil
}
