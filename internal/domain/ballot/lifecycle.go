package ballot

type Action string

const (
	ActionOpen    Action = "open"
	ActionClose   Action = "close"
	ActionPublish Action = "publish"
	ActionDelete  Action = "delete"
	ActionEdit    Action = "edit"
	ActionVote    Action = "vote"
)

// next lists the only legal forward transition for each action.
var next = map[Action]struct{ from, to Status }{
	ActionOpen:    {from: StatusDraft, to: StatusOpen},
	ActionClose:   {from: StatusOpen, to: StatusClosed},
	ActionPublish: {from: StatusClosed, to: StatusPublished},
}

// Target returns the status an action moves a ballot into from its
// required source status.
func Target(a Action) (from, to Status, ok bool) {
	t, ok := next[a]
	return t.from, t.to, ok
}

// Allows reports whether the action may be performed in status s.
func (s Status) Allows(a Action) bool {
	switch a {
	case ActionEdit, ActionDelete:
		return s == StatusDraft
	case ActionVote:
		return s == StatusOpen
	}
	t, ok := next[a]
	return ok && t.from == s
}

// StateError builds the error returned when a is not allowed in current.
func StateError(a Action, current Status) error {
	return &InvalidStateError{Action: string(a), Current: current}
}
