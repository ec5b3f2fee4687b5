package recognizer

import "github.com/ayusman/mudra/internal/pointer"

// Status is the state of a recognizer within the current lifecycle.
type Status string

const (
	StatusPossible   Status = "possible"
	StatusStart      Status = "start"
	StatusMove       Status = "move"
	StatusEnd        Status = "end"
	StatusCancelled  Status = "cancel"
	StatusFailed     Status = "failed"
	StatusRecognized Status = "recognized"
)

// IsTerminal reports whether s closes the recognizer's lifecycle. A terminal
// recognizer ignores samples until the next lifecycle starts.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusEnd, StatusCancelled, StatusFailed, StatusRecognized:
		return true
	}
	return false
}

// IsActive reports whether a move-like recognizer is currently tracking its
// gesture. End is a closing notification, not an active state.
func (s Status) IsActive() bool {
	return s == StatusStart || s == StatusMove
}

// flow returns the next status of a move-like recognizer given whether its
// test passed, its previous status and the stage of the current sample.
// Pairs not listed keep the previous status.
func flow(passed bool, prev Status, stage pointer.Stage) Status {
	if passed {
		switch prev {
		case StatusPossible:
			if stage == pointer.StageMove {
				return StatusStart
			}
		case StatusStart, StatusMove:
			switch stage {
			case pointer.StageMove:
				return StatusMove
			case pointer.StageEnd:
				return StatusEnd
			case pointer.StageCancel:
				return StatusCancelled
			}
		}
		return prev
	}

	switch prev {
	case StatusStart:
		switch stage {
		case pointer.StageMove, pointer.StageEnd:
			return StatusFailed
		case pointer.StageCancel:
			return StatusCancelled
		}
	case StatusMove:
		switch stage {
		case pointer.StageStart, pointer.StageMove, pointer.StageEnd:
			return StatusFailed
		case pointer.StageCancel:
			return StatusCancelled
		}
	}
	return prev
}
