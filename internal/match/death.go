package match

import (
	"context"
	"time"

	"thetowers/server/internal/combat"
	"thetowers/server/internal/i18n"
	"thetowers/server/logging"
	loggingCombat "thetowers/server/logging/combat"
	loggingLifecycle "thetowers/server/logging/lifecycle"
)

// Death runs the death routine for victim. A combatant killer is credited
// with the kill, every other combatant on the victim's ledger with an assist.
// Without a combatant killer the death is attributed by name only: the
// killer's display name, else the top ledger contributor, else nobody.
func (s *Session) Death(victim combat.Combatant, killer combat.Killer) {
	v, ok := victim.(*Combatant)
	if !ok || v.session != s || v.removed {
		s.deps.Logger.Printf("[match] %s: death for unknown combatant %s ignored", s.id, victim.EntityID())
		return
	}
	if !v.alive {
		return
	}
	ctx := context.Background()
	tick := s.tick()

	v.stats.Inc(StatDeaths)
	v.spectate()

	snapshot := v.ledgerSnapshot()
	killerName := ""
	cause := "unattributed"

	k, _ := killer.Combatant.(*Combatant)
	if k != nil && (k.session != s || k == v) {
		k = nil
	}
	switch {
	case k != nil:
		cause = "combatant"
		killerName = k.name
		assists := 0
		for _, entry := range snapshot {
			if entry.AttackerID == k.id || !(entry.Damage > 0) {
				continue
			}
			assister, ok := s.roster[entry.AttackerID]
			if !ok {
				continue
			}
			assister.stats.Inc(StatAssists)
			assists++
			loggingCombat.Assist(ctx, s.deps.Publisher, tick, ref(assister), ref(v), loggingCombat.AssistPayload{Damage: entry.Damage}, nil)
		}
		k.stats.Inc(StatKills)
		payload := loggingCombat.KillPayload{Assists: assists}
		if k.team != nil {
			k.team.AddSouls(1)
			payload.Team = k.team.name
			payload.Souls = k.team.souls
		}
		loggingCombat.Kill(ctx, s.deps.Publisher, tick, ref(k), ref(v), payload, nil)
	case killer.Name != "":
		cause = "named"
		killerName = killer.Name
	default:
		if len(snapshot) > 0 {
			cause = "ledger"
			killerName = snapshot[0].AttackerID
			if top, ok := s.roster[snapshot[0].AttackerID]; ok {
				killerName = top.name
			}
		}
	}
	v.clearLedger()

	text := s.text(i18n.KeyDied, v.name)
	if killerName != "" {
		text = s.text(i18n.KeyKilledBy, v.name, killerName)
	}
	s.deps.Broadcaster.Broadcast(Message{Kind: MessageDeath, Text: text})

	respawn := v.team != nil && !v.team.Defeated()
	loggingCombat.Death(ctx, s.deps.Publisher, tick, ref(v), loggingCombat.DeathPayload{
		Killer:  killerName,
		Cause:   cause,
		Deaths:  v.stats.Get(StatDeaths),
		Respawn: respawn,
	}, nil)

	if respawn {
		s.scheduleRespawn(v)
	}
}

// scheduleRespawn counts down off the loop and hands the actual respawn back
// to it.
func (s *Session) scheduleRespawn(c *Combatant) {
	c.cancelRespawn()
	gen := c.respawnGen
	id := c.id
	countdown := s.cfg.RespawnCountdown
	interval := s.cfg.RespawnInterval

	c.respawning = s.spawn(func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for remaining := countdown; remaining > 0; remaining-- {
			s.deps.Broadcaster.Notify(id, Message{
				Kind:    MessageCountdown,
				Text:    s.text(i18n.KeyRespawnCountdown, remaining),
				Seconds: remaining,
			})
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
			}
		}
		if !s.deps.Loop.Enqueue(func() { s.completeRespawn(c, gen) }) {
			s.deps.Logger.Printf("[match] %s: respawn of %s dropped", s.id, id)
		}
	})
}

func (s *Session) completeRespawn(c *Combatant, gen uint64) {
	if c.removed || c.respawnGen != gen || c.alive {
		return
	}
	c.respawning = false
	if c.team == nil || c.team.Defeated() {
		return
	}
	c.restore()
	spawn := s.spawnFor(c.team)
	c.Teleport(spawn)
	s.deps.Broadcaster.Notify(c.id, Message{Kind: MessageRespawned, Text: s.text(i18n.KeyRespawned)})
	loggingLifecycle.Respawn(context.Background(), s.deps.Publisher, s.tick(), ref(c), loggingLifecycle.RespawnPayload{
		Team: c.team.name,
		X:    spawn.X,
		Y:    spawn.Y,
		Z:    spawn.Z,
	}, nil)
}

func ref(c *Combatant) logging.EntityRef {
	return logging.EntityRef{ID: c.id, Kind: logging.EntityKindCombatant}
}
