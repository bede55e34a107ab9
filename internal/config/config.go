// Package config loads server settings from defaults, an optional TOML file,
// an optional .env file and the process environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"thetowers/server/internal/combat"
	"thetowers/server/internal/ledger"
	"thetowers/server/internal/loop"
	"thetowers/server/internal/match"
	"thetowers/server/logging"
)

type Config struct {
	Server  ServerConfig  `toml:"server" envPrefix:"TOWERS_SERVER_"`
	Combat  CombatConfig  `toml:"combat" envPrefix:"TOWERS_COMBAT_"`
	Ledger  LedgerConfig  `toml:"ledger" envPrefix:"TOWERS_LEDGER_"`
	Respawn RespawnConfig `toml:"respawn" envPrefix:"TOWERS_RESPAWN_"`
	Match   MatchConfig   `toml:"match" envPrefix:"TOWERS_MATCH_"`
	Logging LoggingConfig `toml:"logging" envPrefix:"TOWERS_LOG_"`
	Arena   ArenaConfig   `toml:"arena"`
}

type ServerConfig struct {
	Addr          string `toml:"addr" env:"ADDR"`
	TickRate      int    `toml:"tick_rate" env:"TICK_RATE"`
	QueueCapacity int    `toml:"queue_capacity" env:"QUEUE_CAPACITY"`
	Locale        string `toml:"locale" env:"LOCALE"`
	AdminToken    string `toml:"admin_token" env:"ADMIN_TOKEN"`
	Pprof         bool   `toml:"pprof" env:"PPROF"`
}

type CombatConfig struct {
	FistDamage           float64 `toml:"fist_damage" env:"FIST_DAMAGE"`
	CreatureDamage       float64 `toml:"creature_damage" env:"CREATURE_DAMAGE"`
	CriticalMultiplier   float64 `toml:"critical_multiplier" env:"CRITICAL_MULTIPLIER"`
	InvulnerabilityTicks int     `toml:"invulnerability_ticks" env:"INVULNERABILITY_TICKS"`
	WorldFloor           float64 `toml:"world_floor" env:"WORLD_FLOOR"`
	Catalog              string  `toml:"catalog" env:"CATALOG"` // path to an equipment YAML; empty uses the embedded catalog
}

type LedgerConfig struct {
	TTL           time.Duration `toml:"ttl" env:"TTL"`
	SweepInterval time.Duration `toml:"sweep_interval" env:"SWEEP_INTERVAL"`
}

type RespawnConfig struct {
	Countdown int           `toml:"countdown" env:"COUNTDOWN"`
	Interval  time.Duration `toml:"interval" env:"INTERVAL"`
	MaxHealth float64       `toml:"max_health" env:"MAX_HEALTH"`
}

type MatchConfig struct {
	HeartHealth int           `toml:"heart_health" env:"HEART_HEALTH"`
	MaxPlayers  int           `toml:"max_players" env:"MAX_PLAYERS"`
	Teams       int           `toml:"teams" env:"TEAMS"`
	StartDelay  time.Duration `toml:"start_delay" env:"START_DELAY"`
}

type LoggingConfig struct {
	Sinks       []string      `toml:"sinks" env:"SINKS" envSeparator:","`
	JSONPath    string        `toml:"json_path" env:"JSON_PATH"`
	JSONFlush   time.Duration `toml:"json_flush" env:"JSON_FLUSH"`
	MinSeverity string        `toml:"min_severity" env:"MIN_SEVERITY"`
	BufferSize  int           `toml:"buffer_size" env:"BUFFER_SIZE"`
	Development bool          `toml:"development" env:"DEVELOPMENT"`
}

// ArenaConfig is only read from the file; spawns are keyed by color name.
type ArenaConfig struct {
	WaitingRoom match.Position            `toml:"waiting_room"`
	Spawns      map[string]match.Position `toml:"spawns"`
}

func Default() Config {
	combatDefaults := combat.DefaultConfig()
	matchDefaults := match.DefaultConfig()
	logDefaults := logging.DefaultConfig()
	return Config{
		Server: ServerConfig{
			Addr:          ":8080",
			TickRate:      loop.DefaultTickRate,
			QueueCapacity: loop.DefaultCapacity,
			Locale:        "en",
		},
		Combat: CombatConfig{
			FistDamage:           combatDefaults.FistDamage,
			CreatureDamage:       combatDefaults.CreatureDamage,
			CriticalMultiplier:   combatDefaults.CriticalMultiplier,
			InvulnerabilityTicks: combatDefaults.InvulnerabilityTicks,
			WorldFloor:           combatDefaults.WorldFloor,
		},
		Ledger: LedgerConfig{
			TTL:           ledger.DefaultTTL,
			SweepInterval: ledger.DefaultSweepInterval,
		},
		Respawn: RespawnConfig{
			Countdown: matchDefaults.RespawnCountdown,
			Interval:  matchDefaults.RespawnInterval,
			MaxHealth: matchDefaults.MaxHealth,
		},
		Match: MatchConfig{
			HeartHealth: matchDefaults.HeartHealth,
			MaxPlayers:  matchDefaults.MaxPlayers,
			Teams:       int(matchDefaults.Setup),
			StartDelay:  matchDefaults.StartDelay,
		},
		Logging: LoggingConfig{
			Sinks:       append([]string(nil), logDefaults.Sinks...),
			JSONFlush:   logDefaults.JSON.FlushInterval,
			MinSeverity: logDefaults.MinSeverity.String(),
			BufferSize:  logDefaults.BufferSize,
		},
	}
}

// Load builds a Config. An empty path skips the TOML file; a missing .env
// file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var problems []string
	if c.Server.TickRate <= 0 {
		problems = append(problems, "server.tick_rate must be positive")
	}
	if c.Ledger.TTL <= 0 {
		problems = append(problems, "ledger.ttl must be positive")
	}
	if c.Ledger.SweepInterval <= 0 {
		problems = append(problems, "ledger.sweep_interval must be positive")
	}
	if c.Respawn.Interval <= 0 {
		problems = append(problems, "respawn.interval must be positive")
	}
	if c.Respawn.Countdown < 0 {
		problems = append(problems, "respawn.countdown must not be negative")
	}
	if c.Match.StartDelay < 0 {
		problems = append(problems, "match.start_delay must not be negative")
	}
	if _, err := match.ParseTeamSetup(c.Match.Teams); err != nil {
		problems = append(problems, err.Error())
	}
	if _, err := logging.ParseSeverity(c.Logging.MinSeverity); err != nil {
		problems = append(problems, err.Error())
	}
	if err := (logging.Config{Sinks: c.Logging.Sinks}).Validate(); err != nil {
		problems = append(problems, "logging.sinks: "+err.Error())
	}
	for name := range c.Arena.Spawns {
		if _, err := match.ParseColor(name); err != nil {
			problems = append(problems, fmt.Sprintf("arena.spawns: %v", err))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c Config) ResolverConfig() combat.Config {
	return combat.Config{
		FistDamage:           c.Combat.FistDamage,
		CreatureDamage:       c.Combat.CreatureDamage,
		CriticalMultiplier:   c.Combat.CriticalMultiplier,
		InvulnerabilityTicks: c.Combat.InvulnerabilityTicks,
		WorldFloor:           c.Combat.WorldFloor,
	}
}

// SessionConfig converts the file sections into a session config. Call it on a
// validated Config.
func (c Config) SessionConfig() match.Config {
	setup, _ := match.ParseTeamSetup(c.Match.Teams)
	spawns := make(map[match.Color]match.Position, len(c.Arena.Spawns))
	for name, pos := range c.Arena.Spawns {
		if color, err := match.ParseColor(name); err == nil {
			spawns[color] = pos
		}
	}
	return match.Config{
		HeartHealth:      c.Match.HeartHealth,
		MaxPlayers:       c.Match.MaxPlayers,
		Setup:            setup,
		StartDelay:       c.Match.StartDelay,
		RespawnCountdown: c.Respawn.Countdown,
		RespawnInterval:  c.Respawn.Interval,
		MaxHealth:        c.Respawn.MaxHealth,
		LedgerTTL:        c.Ledger.TTL,
		Arena: match.Arena{
			WaitingRoom: c.Arena.WaitingRoom,
			Spawns:      spawns,
		},
	}
}

func (c Config) RouterConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Sinks = append([]string(nil), c.Logging.Sinks...)
	if c.Logging.BufferSize > 0 {
		cfg.BufferSize = c.Logging.BufferSize
	}
	if sev, err := logging.ParseSeverity(c.Logging.MinSeverity); err == nil {
		cfg.MinSeverity = sev
	}
	cfg.JSON.Path = c.Logging.JSONPath
	if c.Logging.JSONFlush > 0 {
		cfg.JSON.FlushInterval = c.Logging.JSONFlush
	}
	return cfg
}
