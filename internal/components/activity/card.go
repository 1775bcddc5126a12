package activity

import "errors"

var ErrIllegalTransition = errors.New("illegal card transition")

// CardState is the lifecycle of a rendered activity card.
type CardState int

const (
	CardViewing CardState = iota
	CardEditing
	CardRemoved
)

// CardEvent is a user action on a card.
type CardEvent int

const (
	EventEdit CardEvent = iota
	EventSave
	EventCancel
	EventDelete
)

func (s CardState) String() string {
	switch s {
	case CardViewing:
		return "viewing"
	case CardEditing:
		return "editing"
	case CardRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Transition returns the state reached when ev completes with outcome err.
// A failed save stays in editing so the edit buffers survive, and a failed delete stays in viewing.
// Pairs not listed, such as deleting while editing, return ErrIllegalTransition and leave the state as is.
func (s CardState) Transition(ev CardEvent, err error) (CardState, error) {
	switch {
	case s == CardViewing && ev == EventEdit:
		return CardEditing, nil
	case s == CardEditing && ev == EventSave:
		if err != nil {
			return CardEditing, nil
		}
		return CardViewing, nil
	case s == CardEditing && ev == EventCancel:
		return CardViewing, nil
	case s == CardViewing && ev == EventDelete:
		if err != nil {
			return CardViewing, nil
		}
		return CardRemoved, nil
	default:
		return s, ErrIllegalTransition
	}
}
