package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	message.SetString(lang, string(KeyKilledBy), "☠ » %s was killed by %s")
	message.SetString(lang, string(KeyDied), "☠ » %s died")
	message.SetString(lang, string(KeyRespawnCountdown), "Respawning in: %ds")
	message.SetString(lang, string(KeyRespawned), "You respawned!")
	message.SetString(lang, string(KeyMatchStarting), "Starting a new game... The game begins in %d seconds!")
	message.SetString(lang, string(KeyPlayingAs), "You are playing as team %s")
	message.SetString(lang, string(KeyMatchBegan), "The game has begun!")
	message.SetString(lang, string(KeyMatchFinished), "The game is over!")
	message.SetString(lang, string(KeyMatchReset), "The arena has been reset.")
	message.SetString(lang, string(KeyTeamRemoved), "Your team has been removed.")
	message.SetString(lang, string(KeyTeamDefeated), "The heart of team %s has been destroyed!")
}
