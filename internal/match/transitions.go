package match

import (
	"fmt"
	"time"

	"thetowers/server/internal/i18n"
)

func (s *Session) transition(action string) (Stage, error) {
	to, ok := s.stage.next(action)
	if !ok {
		return s.stage, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, action, s.stage)
	}
	from := s.stage
	s.stage = to
	s.stageGen++
	s.publishStage(from, to)
	return from, nil
}

// Start moves the lobby into the waiting room. Team members are gathered
// there and the match begins by itself once the start delay elapses.
func (s *Session) Start() error {
	if _, err := s.transition("start"); err != nil {
		return err
	}
	seconds := int(s.cfg.StartDelay.Seconds())
	s.deps.Broadcaster.Broadcast(Message{
		Kind:    MessageStage,
		Stage:   s.stage.String(),
		Text:    s.text(i18n.KeyMatchStarting, seconds),
		Seconds: seconds,
	})
	for _, team := range s.teams {
		for _, member := range team.members {
			member.restore()
			member.Teleport(s.cfg.Arena.WaitingRoom)
			s.deps.Broadcaster.Notify(member.id, Message{Kind: MessageTeam, Text: s.text(i18n.KeyPlayingAs, team.DisplayName())})
		}
	}
	if s.cfg.StartDelay > 0 {
		gen := s.stageGen
		s.after(s.cfg.StartDelay, func() {
			if s.stageGen != gen || s.stage != StageWaiting {
				return
			}
			if err := s.Begin(); err != nil {
				s.deps.Logger.Printf("[match] %s: automatic begin failed: %v", s.id, err)
			}
		})
	}
	return nil
}

// Begin opens combat. Every team member is healed and placed on their team
// spawn with an empty ledger.
func (s *Session) Begin() error {
	if _, err := s.transition("begin"); err != nil {
		return err
	}
	s.startedAt = s.deps.Clock.Now()
	for _, team := range s.teams {
		for _, member := range team.members {
			member.cancelRespawn()
			member.restore()
			member.clearLedger()
			member.Teleport(s.spawnFor(team))
		}
	}
	s.deps.Broadcaster.Broadcast(Message{Kind: MessageStage, Stage: s.stage.String(), Text: s.text(i18n.KeyMatchBegan)})
	return nil
}

// Finish closes combat. Pending respawns still complete.
func (s *Session) Finish() error {
	if _, err := s.transition("finish"); err != nil {
		return err
	}
	s.deps.Broadcaster.Broadcast(Message{Kind: MessageStage, Stage: s.stage.String(), Text: s.text(i18n.KeyMatchFinished)})
	return nil
}

// Reset returns to the lobby from any stage. Stats, hearts and souls are
// cleared and pending respawns are abandoned.
func (s *Session) Reset() error {
	if _, err := s.transition("reset"); err != nil {
		return err
	}
	s.startedAt = time.Time{}
	for _, team := range s.teams {
		team.reset()
	}
	for _, c := range s.roster {
		c.cancelRespawn()
		c.stats.Reset()
		c.clearLedger()
		if c.team != nil {
			c.restore()
			c.Teleport(s.cfg.Arena.WaitingRoom)
		}
	}
	s.deps.Broadcaster.Broadcast(Message{Kind: MessageStage, Stage: s.stage.String(), Text: s.text(i18n.KeyMatchReset)})
	return nil
}
