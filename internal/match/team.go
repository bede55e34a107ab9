package match

import (
	"errors"
	"fmt"
	"slices"
	"unicode"
	"unicode/utf8"
)

const (
	TeamMinNameLength  = 2
	TeamMaxNameLength  = 5
	DefaultHeartHealth = 100
)

var (
	ErrInvalidTeamName = errors.New("invalid team name")
	ErrTeamExists      = errors.New("team already exists")
	ErrTeamFull        = errors.New("team is full")
	ErrTooManyTeams    = errors.New("team setup has no free slot")
	ErrUnknownTeam     = errors.New("unknown team")
)

// ValidTeamName reports whether name is 2 to 5 letters or digits.
func ValidTeamName(name string) bool {
	n := utf8.RuneCountInString(name)
	if n < TeamMinNameLength || n > TeamMaxNameLength {
		return false
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Team is mutated only on the game loop.
type Team struct {
	name      string
	color     Color
	leader    *Combatant
	members   []*Combatant
	heart     int
	maxHeart  int
	souls     int
	defeatSet bool
}

func newTeam(name string, color Color, heart int) (*Team, error) {
	if !ValidTeamName(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTeamName, name)
	}
	if heart <= 0 {
		heart = DefaultHeartHealth
	}
	return &Team{name: name, color: color, heart: heart, maxHeart: heart}, nil
}

func (t *Team) Name() string  { return t.name }
func (t *Team) Color() Color  { return t.color }
func (t *Team) Heart() int    { return t.heart }
func (t *Team) MaxHeart() int { return t.maxHeart }
func (t *Team) Souls() int    { return t.souls }

// DisplayName is the bracketed tag shown before member names.
func (t *Team) DisplayName() string {
	return "[" + t.name + "]"
}

func (t *Team) Leader() *Combatant {
	return t.leader
}

func (t *Team) Members() []*Combatant {
	return slices.Clone(t.members)
}

func (t *Team) Size() int {
	return len(t.members)
}

func (t *Team) HasMember(c *Combatant) bool {
	return slices.Contains(t.members, c)
}

func (t *Team) addMember(c *Combatant) {
	if t.HasMember(c) {
		return
	}
	t.members = append(t.members, c)
	if t.leader == nil {
		t.leader = c
	}
}

func (t *Team) removeMember(c *Combatant) {
	idx := slices.Index(t.members, c)
	if idx < 0 {
		return
	}
	t.members = slices.Delete(t.members, idx, idx+1)
	if t.leader == c {
		t.leader = nil
		if len(t.members) > 0 {
			t.leader = t.members[0]
		}
	}
}

// DamageHeart lowers the heart by amount, never below zero, and returns the
// remaining health. Non-positive amounts are ignored.
func (t *Team) DamageHeart(amount int) int {
	if amount <= 0 {
		return t.heart
	}
	t.heart = max(t.heart-amount, 0)
	return t.heart
}

// Defeated reports whether the heart has been destroyed.
func (t *Team) Defeated() bool {
	return t.heart <= 0
}

func (t *Team) AddSouls(n int) {
	if n <= 0 {
		return
	}
	t.souls += n
}

// RemoveSouls spends souls, flooring the balance at zero.
func (t *Team) RemoveSouls(n int) {
	if n <= 0 {
		return
	}
	t.souls = max(t.souls-n, 0)
}

func (t *Team) reset() {
	t.heart = t.maxHeart
	t.souls = 0
	t.defeatSet = false
}

// TeamSetup is the number of teams a map is built for.
type TeamSetup int

const (
	SetupTwo  TeamSetup = 2
	SetupFour TeamSetup = 4
	SetupSix  TeamSetup = 6
)

func ParseTeamSetup(n int) (TeamSetup, error) {
	switch s := TeamSetup(n); s {
	case SetupTwo, SetupFour, SetupSix:
		return s, nil
	}
	return 0, fmt.Errorf("unsupported team setup %d", n)
}

// MaxPerTeam splits maxPlayers evenly across the setup's teams.
func (s TeamSetup) MaxPerTeam(maxPlayers int) int {
	if s <= 0 {
		return maxPlayers
	}
	return maxPlayers / int(s)
}

// String renders the setup as "NvNvN...".
func (s TeamSetup) String() string {
	switch s {
	case SetupTwo:
		return "2 teams"
	case SetupFour:
		return "4 teams"
	case SetupSix:
		return "6 teams"
	}
	return fmt.Sprintf("TeamSetup(%d)", int(s))
}
