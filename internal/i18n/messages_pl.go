package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.Polish

	message.SetString(lang, string(KeyKilledBy), "☠ » %s został zabity przez %s")
	message.SetString(lang, string(KeyDied), "☠ » %s umarł")
	message.SetString(lang, string(KeyRespawnCountdown), "Odrodzisz się za: %ds")
	message.SetString(lang, string(KeyRespawned), "Odrodziłeś się!")
	message.SetString(lang, string(KeyMatchStarting), "Rozpoczynanie nowej gry... Gra rozpocznie się za %d sekund!")
	message.SetString(lang, string(KeyPlayingAs), "Grasz jako drużyna %s")
	message.SetString(lang, string(KeyMatchBegan), "Gra się rozpoczęła!")
	message.SetString(lang, string(KeyMatchFinished), "Koniec gry!")
	message.SetString(lang, string(KeyMatchReset), "Arena została zresetowana.")
	message.SetString(lang, string(KeyTeamRemoved), "Twoja drużyna została usunięta.")
	message.SetString(lang, string(KeyTeamDefeated), "Serce drużyny %s zostało zniszczone!")
}
