package logging

import (
	"fmt"
	"slices"
	"time"
)

// Sink names the match server knows how to build.
const (
	SinkConsole = "console"
	SinkJSON    = "json"
	SinkZap     = "zap"
)

var knownSinks = []string{SinkConsole, SinkJSON, SinkZap}

// Config controls which sinks receive match events and how the router
// buffers and filters them on the way.
type Config struct {
	Sinks       []string
	BufferSize  int
	MinSeverity Severity
	// Fields are stamped on every event. Fields already on the event win.
	Fields map[string]any
	JSON   JSONConfig
	// DropWarnInterval rate limits the fallback warning about a full queue.
	DropWarnInterval time.Duration
}

type JSONConfig struct {
	Path          string
	FlushInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		Sinks:            []string{SinkConsole},
		BufferSize:       512,
		MinSeverity:      SeverityInfo,
		DropWarnInterval: 5 * time.Second,
		JSON: JSONConfig{
			FlushInterval: 2 * time.Second,
		},
	}
}

// Enabled reports whether the named sink is configured.
func (c Config) Enabled(name string) bool {
	return slices.Contains(c.Sinks, name)
}

// Validate rejects sink names the server cannot build.
func (c Config) Validate() error {
	for _, name := range c.Sinks {
		if !slices.Contains(knownSinks, name) {
			return fmt.Errorf("unknown log sink %q", name)
		}
	}
	return nil
}
