// Package match owns the match lifecycle: stages, teams, combatants, deaths
// and respawns. Session methods must run on the game loop unless noted.
package match

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"thetowers/server/internal/i18n"
	"thetowers/server/internal/ledger"
	"thetowers/server/internal/telemetry"
	"thetowers/server/logging"
	loggingLifecycle "thetowers/server/logging/lifecycle"
)

const (
	DefaultMaxPlayers       = 32
	DefaultStartDelay       = 30 * time.Second
	DefaultRespawnCountdown = 5
	DefaultRespawnInterval  = time.Second
)

var (
	ErrDuplicateCombatant = errors.New("combatant already registered")
	ErrUnknownCombatant   = errors.New("unknown combatant")
	ErrShutdown           = errors.New("session is shut down")
)

// Arena holds the fixed locations a match teleports combatants to.
type Arena struct {
	WaitingRoom Position
	Spawns      map[Color]Position
}

type Config struct {
	HeartHealth      int
	MaxPlayers       int
	Setup            TeamSetup
	StartDelay       time.Duration
	RespawnCountdown int
	RespawnInterval  time.Duration
	MaxHealth        float64
	LedgerTTL        time.Duration
	Arena            Arena
}

func DefaultConfig() Config {
	return Config{
		HeartHealth:      DefaultHeartHealth,
		MaxPlayers:       DefaultMaxPlayers,
		Setup:            SetupFour,
		StartDelay:       DefaultStartDelay,
		RespawnCountdown: DefaultRespawnCountdown,
		RespawnInterval:  DefaultRespawnInterval,
		MaxHealth:        DefaultMaxHealth,
		LedgerTTL:        ledger.DefaultTTL,
	}
}

// Scheduler is the game loop as seen by the session.
type Scheduler interface {
	Enqueue(task func()) bool
	Tick() uint64
}

// Translator renders player facing text.
type Translator interface {
	Text(key i18n.Key, args ...any) string
}

type MessageKind string

const (
	MessageDeath     MessageKind = "death"
	MessageCountdown MessageKind = "respawn_countdown"
	MessageRespawned MessageKind = "respawned"
	MessageStage     MessageKind = "stage"
	MessageTeam      MessageKind = "team"
)

// Message is one line delivered to observers.
type Message struct {
	Kind    MessageKind `json:"kind"`
	Text    string      `json:"text"`
	Seconds int         `json:"seconds,omitempty"`
	Stage   string      `json:"stage,omitempty"`
}

// Broadcaster delivers messages. Implementations must be safe for concurrent
// use; respawn countdowns notify from a timer goroutine.
type Broadcaster interface {
	Broadcast(Message)
	Notify(combatantID string, msg Message)
}

type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(Message)      {}
func (nopBroadcaster) Notify(string, Message) {}

type Deps struct {
	Loop        Scheduler
	Registry    *ledger.Registry
	Broadcaster Broadcaster
	Messages    Translator
	Publisher   logging.Publisher
	Logger      telemetry.Logger
	Clock       logging.Clock
}

// Session is one running match.
type Session struct {
	id   string
	cfg  Config
	deps Deps

	stage     Stage
	startedAt time.Time
	teams     []*Team
	roster    map[string]*Combatant
	order     []string
	stageGen  uint64

	// goMu orders timer goroutine starts against Shutdown.
	goMu   sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSession(cfg Config, deps Deps) (*Session, error) {
	if deps.Loop == nil {
		return nil, errors.New("match session requires a scheduler")
	}
	if deps.Messages == nil {
		tr, err := i18n.New("")
		if err != nil {
			return nil, err
		}
		deps.Messages = tr
	}
	if deps.Registry == nil {
		deps.Registry = ledger.NewRegistry(ledger.RegistryConfig{})
	}
	if deps.Broadcaster == nil {
		deps.Broadcaster = nopBroadcaster{}
	}
	if deps.Publisher == nil {
		deps.Publisher = logging.NopPublisher()
	}
	if deps.Logger == nil {
		deps.Logger = telemetry.LoggerFunc(nil)
	}
	if deps.Clock == nil {
		deps.Clock = logging.SystemClock{}
	}
	if cfg.MaxHealth <= 0 {
		cfg.MaxHealth = DefaultMaxHealth
	}
	if cfg.MaxPlayers <= 0 {
		cfg.MaxPlayers = DefaultMaxPlayers
	}
	if cfg.Setup == 0 {
		cfg.Setup = SetupFour
	}
	if cfg.RespawnInterval <= 0 {
		cfg.RespawnInterval = DefaultRespawnInterval
	}
	if cfg.RespawnCountdown < 0 {
		cfg.RespawnCountdown = 0
	}
	if cfg.LedgerTTL <= 0 {
		cfg.LedgerTTL = ledger.DefaultTTL
	}

	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()
	deps.Publisher = logging.WithFields(deps.Publisher, map[string]any{"match": id})
	return &Session{
		id:     id,
		cfg:    cfg,
		deps:   deps,
		stage:  StageLobby,
		roster: make(map[string]*Combatant),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

func (s *Session) ID() string           { return s.id }
func (s *Session) Stage() Stage         { return s.stage }
func (s *Session) Config() Config       { return s.cfg }
func (s *Session) StartedAt() time.Time { return s.startedAt }

// CanApplyPvPDamage reports whether the current stage allows combat.
func (s *Session) CanApplyPvPDamage() bool {
	return s.stage.CanApplyPvPDamage()
}

func (s *Session) MaxPerTeam() int {
	return s.cfg.Setup.MaxPerTeam(s.cfg.MaxPlayers)
}

func (s *Session) text(key i18n.Key, args ...any) string {
	return s.deps.Messages.Text(key, args...)
}

func (s *Session) tick() uint64 {
	return s.deps.Loop.Tick()
}

// AddCombatant registers a new player. Players start teamless and alive.
func (s *Session) AddCombatant(id, name string) (*Combatant, error) {
	if s.ctx.Err() != nil {
		return nil, ErrShutdown
	}
	if _, exists := s.roster[id]; exists {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateCombatant, id)
	}
	if name == "" {
		name = id
	}
	c := &Combatant{
		session:   s,
		id:        id,
		name:      name,
		health:    s.cfg.MaxHealth,
		maxHealth: s.cfg.MaxHealth,
		alive:     true,
		mode:      ModeInteractive,
	}
	s.roster[id] = c
	s.order = append(s.order, id)
	return c, nil
}

// RemoveCombatant permanently drops a player and unregisters its ledger.
func (s *Session) RemoveCombatant(id string) error {
	c, ok := s.roster[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCombatant, id)
	}
	if c.team != nil {
		c.team.removeMember(c)
		c.team = nil
	}
	c.dispose()
	delete(s.roster, id)
	s.order = slices.DeleteFunc(s.order, func(candidate string) bool { return candidate == id })
	return nil
}

func (s *Session) Combatant(id string) (*Combatant, bool) {
	c, ok := s.roster[id]
	return c, ok
}

// Combatants returns every registered player in join order.
func (s *Session) Combatants() []*Combatant {
	out := make([]*Combatant, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.roster[id])
	}
	return out
}

// Spectators returns players that are currently spectating.
func (s *Session) Spectators() []*Combatant {
	var out []*Combatant
	for _, id := range s.order {
		if c := s.roster[id]; c.mode == ModeSpectating {
			out = append(out, c)
		}
	}
	return out
}

// AddSpectator puts c out of play.
func (s *Session) AddSpectator(c *Combatant) {
	c.spectate()
}

// RemoveSpectator brings c back into play. A combatant waiting out a respawn
// countdown stays out until the countdown completes.
func (s *Session) RemoveSpectator(c *Combatant) {
	if c.respawning {
		return
	}
	c.alive = true
	c.mode = ModeInteractive
}

// CreateTeam founds a team led by leader.
func (s *Session) CreateTeam(name string, color Color, leader *Combatant) (*Team, error) {
	if _, ok := s.TeamByName(name); ok {
		return nil, fmt.Errorf("%w: %q", ErrTeamExists, name)
	}
	if _, ok := s.TeamByColor(color); ok {
		return nil, fmt.Errorf("%w: color %s", ErrTeamExists, color)
	}
	if len(s.teams) >= int(s.cfg.Setup) {
		return nil, ErrTooManyTeams
	}
	team, err := newTeam(name, color, s.cfg.HeartHealth)
	if err != nil {
		return nil, err
	}
	s.teams = append(s.teams, team)
	if leader != nil {
		if err := s.Join(leader, team); err != nil {
			return nil, err
		}
		team.leader = leader
	}
	return team, nil
}

// RemoveTeam disbands team. Its members become teamless spectators.
func (s *Session) RemoveTeam(team *Team) {
	idx := slices.Index(s.teams, team)
	if idx < 0 {
		return
	}
	s.teams = slices.Delete(s.teams, idx, idx+1)
	for _, member := range team.Members() {
		team.removeMember(member)
		member.team = nil
		s.AddSpectator(member)
		s.deps.Broadcaster.Notify(member.id, Message{Kind: MessageTeam, Text: s.text(i18n.KeyTeamRemoved)})
	}
}

// Join moves c into team, leaving any previous team.
func (s *Session) Join(c *Combatant, team *Team) error {
	if !slices.Contains(s.teams, team) {
		return ErrUnknownTeam
	}
	if c.team == team {
		return nil
	}
	if team.Size() >= s.MaxPerTeam() {
		return fmt.Errorf("%w: %s", ErrTeamFull, team.name)
	}
	if c.team != nil {
		c.team.removeMember(c)
	}
	team.addMember(c)
	c.team = team
	s.RemoveSpectator(c)
	return nil
}

// Leave removes c from its team; c becomes a spectator.
func (s *Session) Leave(c *Combatant) {
	if c.team == nil {
		return
	}
	c.team.removeMember(c)
	c.team = nil
	s.AddSpectator(c)
}

func (s *Session) Teams() []*Team {
	return slices.Clone(s.teams)
}

func (s *Session) TeamByName(name string) (*Team, bool) {
	for _, t := range s.teams {
		if t.name == name {
			return t, true
		}
	}
	return nil, false
}

func (s *Session) TeamByColor(color Color) (*Team, bool) {
	for _, t := range s.teams {
		if t.color == color {
			return t, true
		}
	}
	return nil, false
}

func (s *Session) spawnFor(team *Team) Position {
	if team == nil {
		return s.cfg.Arena.WaitingRoom
	}
	if p, ok := s.cfg.Arena.Spawns[team.color]; ok {
		return p
	}
	return s.cfg.Arena.WaitingRoom
}

// Shutdown cancels pending respawns and stage timers and waits for their
// goroutines. Safe to call from any goroutine.
func (s *Session) Shutdown() {
	s.goMu.Lock()
	s.cancel()
	s.goMu.Unlock()
	s.wg.Wait()
}

// spawn runs fn on a tracked goroutine. It reports false once the session is
// shut down.
func (s *Session) spawn(fn func()) bool {
	s.goMu.Lock()
	defer s.goMu.Unlock()
	if s.ctx.Err() != nil {
		return false
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
	return true
}

// after runs task on the loop once d has elapsed, unless the session shuts
// down first.
func (s *Session) after(d time.Duration, task func()) {
	s.spawn(func() {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-s.ctx.Done():
			return
		case <-timer.C:
		}
		if !s.deps.Loop.Enqueue(task) {
			s.deps.Logger.Printf("[match] %s: scheduled task dropped", s.id)
		}
	})
}

func (s *Session) publishStage(from, to Stage) {
	loggingLifecycle.Stage(context.Background(), s.deps.Publisher, s.tick(), logging.EntityRef{ID: s.id, Kind: logging.EntityKindWorld}, loggingLifecycle.StagePayload{
		From: from.String(),
		To:   to.String(),
	}, nil)
}
