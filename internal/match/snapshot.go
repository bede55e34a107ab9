package match

import "time"

// TeamSnapshot is a read-only view of a team for diagnostics.
type TeamSnapshot struct {
	Name     string   `json:"name"`
	Color    Color    `json:"color"`
	Hex      string   `json:"hex"`
	Heart    int      `json:"heart"`
	Souls    int      `json:"souls"`
	Defeated bool     `json:"defeated"`
	Leader   string   `json:"leader,omitempty"`
	Members  []string `json:"members"`
}

// CombatantSnapshot is a read-only view of a combatant for diagnostics.
type CombatantSnapshot struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Team   string         `json:"team,omitempty"`
	Health float64        `json:"health"`
	Alive  bool           `json:"alive"`
	Mode   string         `json:"mode"`
	Stats  map[string]int `json:"stats"`
	Ratio  float64        `json:"kdRatio"`
	Ledger int            `json:"ledgerEntries"`
}

// Snapshot is a read-only view of the whole session.
type Snapshot struct {
	ID         string              `json:"id"`
	Stage      Stage               `json:"stage"`
	PvP        bool                `json:"pvp"`
	StartedAt  *time.Time          `json:"startedAt,omitempty"`
	Setup      int                 `json:"teamSetup"`
	MaxPerTeam int                 `json:"maxPerTeam"`
	Teams      []TeamSnapshot      `json:"teams"`
	Combatants []CombatantSnapshot `json:"combatants"`
}

// Snapshot captures the session. Call it on the game loop.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		ID:         s.id,
		Stage:      s.stage,
		PvP:        s.stage.CanApplyPvPDamage(),
		Setup:      int(s.cfg.Setup),
		MaxPerTeam: s.MaxPerTeam(),
		Teams:      make([]TeamSnapshot, 0, len(s.teams)),
		Combatants: make([]CombatantSnapshot, 0, len(s.order)),
	}
	if !s.startedAt.IsZero() {
		started := s.startedAt
		snap.StartedAt = &started
	}
	for _, t := range s.teams {
		ts := TeamSnapshot{
			Name:     t.name,
			Color:    t.color,
			Hex:      t.color.Hex(),
			Heart:    t.heart,
			Souls:    t.souls,
			Defeated: t.Defeated(),
			Members:  make([]string, 0, len(t.members)),
		}
		if t.leader != nil {
			ts.Leader = t.leader.id
		}
		for _, m := range t.members {
			ts.Members = append(ts.Members, m.id)
		}
		snap.Teams = append(snap.Teams, ts)
	}
	for _, id := range s.order {
		c := s.roster[id]
		cs := CombatantSnapshot{
			ID:     c.id,
			Name:   c.name,
			Team:   c.TeamName(),
			Health: c.health,
			Alive:  c.alive,
			Mode:   c.mode.String(),
			Stats:  c.stats.Map(),
			Ratio:  c.stats.Ratio(),
		}
		if c.ledger != nil {
			cs.Ledger = c.ledger.Len()
		}
		snap.Combatants = append(snap.Combatants, cs)
	}
	return snap
}
