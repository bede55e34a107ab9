package match

import "fmt"

// StatKey is one of the per-match counters.
type StatKey int

const (
	StatKills StatKey = iota
	StatDeaths
	StatAssists
	StatHeartDamage
	statCount
)

var StatKeys = [...]StatKey{StatKills, StatDeaths, StatAssists, StatHeartDamage}

func (k StatKey) String() string {
	switch k {
	case StatKills:
		return "kills"
	case StatDeaths:
		return "deaths"
	case StatAssists:
		return "assists"
	case StatHeartDamage:
		return "heart_damage"
	case statCount:
	}
	return fmt.Sprintf("StatKey(%d)", int(k))
}

// Stats holds one counter per StatKey.
type Stats struct {
	values [statCount]int
}

func (s *Stats) Get(k StatKey) int {
	if k < 0 || k >= statCount {
		return 0
	}
	return s.values[k]
}

func (s *Stats) Add(k StatKey, delta int) {
	if k < 0 || k >= statCount {
		return
	}
	s.values[k] += delta
}

func (s *Stats) Inc(k StatKey) {
	s.Add(k, 1)
}

func (s *Stats) Reset() {
	s.values = [statCount]int{}
}

// Ratio is kills per death, treating zero deaths as one.
func (s *Stats) Ratio() float64 {
	deaths := s.values[StatDeaths]
	if deaths == 0 {
		deaths = 1
	}
	return float64(s.values[StatKills]) / float64(deaths)
}

// Map renders the counters keyed by name.
func (s *Stats) Map() map[string]int {
	out := make(map[string]int, len(StatKeys))
	for _, k := range StatKeys {
		out[k.String()] = s.values[k]
	}
	return out
}
