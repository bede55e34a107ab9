// Package i18n holds the player facing strings broadcast during a match.
package i18n

import (
	"fmt"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Key identifies a message in the catalog.
type Key string

const (
	KeyKilledBy         Key = "death.killed_by"
	KeyDied             Key = "death.died"
	KeyRespawnCountdown Key = "respawn.countdown"
	KeyRespawned        Key = "respawn.done"
	KeyMatchStarting    Key = "match.starting"
	KeyPlayingAs        Key = "match.playing_as"
	KeyMatchBegan       Key = "match.began"
	KeyMatchFinished    Key = "match.finished"
	KeyMatchReset       Key = "match.reset"
	KeyTeamRemoved      Key = "team.removed"
	KeyTeamDefeated     Key = "team.defeated"
)

// Polish is the locale the towers minigame originally shipped with.
var Polish = language.Polish

var supported = []language.Tag{language.English, language.Polish}

var matcher = language.NewMatcher(supported)

// Supported lists the locales with a full catalog.
func Supported() []language.Tag {
	return append([]language.Tag(nil), supported...)
}

// Translator renders catalog keys for one locale. It is safe for concurrent
// use.
type Translator struct {
	tag     language.Tag
	mu      sync.Mutex
	printer *message.Printer
}

// New returns a translator for the closest supported locale to raw. Unknown
// or empty locales fall back to English.
func New(raw string) (*Translator, error) {
	tag := language.English
	if raw != "" {
		parsed, err := language.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse locale %q: %w", raw, err)
		}
		_, idx, _ := matcher.Match(parsed)
		tag = supported[idx]
	}
	return &Translator{tag: tag, printer: message.NewPrinter(tag)}, nil
}

func (t *Translator) Locale() language.Tag {
	return t.tag
}

// Text formats key with args.
func (t *Translator) Text(key Key, args ...any) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.printer.Sprintf(string(key), args...)
}
