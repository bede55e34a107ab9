package match

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidTransition = errors.New("invalid stage transition")

// Stage is the coarse match lifecycle phase.
type Stage int

const (
	StageLobby Stage = iota
	StageWaiting
	StageInProgress
	StageFinished
)

func (s Stage) String() string {
	switch s {
	case StageLobby:
		return "LOBBY"
	case StageWaiting:
		return "WAITING"
	case StageInProgress:
		return "IN_PROGRESS"
	case StageFinished:
		return "FINISHED"
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// CanApplyPvPDamage reports whether combat resolves during s.
func (s Stage) CanApplyPvPDamage() bool {
	switch s {
	case StageInProgress:
		return true
	case StageLobby, StageWaiting, StageFinished:
		return false
	}
	return false
}

// next reports the stage a named transition leads to from s.
func (s Stage) next(action string) (Stage, bool) {
	switch action {
	case "start":
		return StageWaiting, s == StageLobby
	case "begin":
		return StageInProgress, s == StageWaiting
	case "finish":
		return StageFinished, s == StageInProgress
	case "reset":
		return StageLobby, true
	}
	return s, false
}

func ParseStage(raw string) (Stage, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "LOBBY":
		return StageLobby, nil
	case "WAITING":
		return StageWaiting, nil
	case "IN_PROGRESS":
		return StageInProgress, nil
	case "FINISHED":
		return StageFinished, nil
	}
	return StageLobby, fmt.Errorf("unknown stage %q", raw)
}

func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
