package agenda

// Mode is the agenda's interaction state. Only one form, confirmation or
// drag gesture can be active at a time.
type Mode int

const (
	ModeIdle Mode = iota
	ModeCreating
	ModeEditing
	ModeConfirmingDelete
	ModeDragging
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeCreating:
		return "creating"
	case ModeEditing:
		return "editing"
	case ModeConfirmingDelete:
		return "confirming_delete"
	case ModeDragging:
		return "dragging"
	default:
		return "unknown"
	}
}

// LoadStatus tracks the initial fetch of the user's events.
type LoadStatus int

const (
	LoadPending LoadStatus = iota
	LoadReady
	LoadFailed
)

func (s LoadStatus) String() string {
	switch s {
	case LoadPending:
		return "pending"
	case LoadReady:
		return "ready"
	case LoadFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DropResult describes what a Drop did.
type DropResult int

const (
	// DropIgnored: the target was not a valid slot, or the event vanished.
	DropIgnored DropResult = iota
	// DropUnchanged: the event was dropped on the slot it already occupies.
	DropUnchanged
	// DropRejected: a previous change to the same event is still in flight.
	DropRejected
	// DropCommitted: the store confirmed the move.
	DropCommitted
	// DropRolledBack: the store refused the move and the prior record was restored.
	DropRolledBack
)

func (r DropResult) String() string {
	switch r {
	case DropIgnored:
		return "ignored"
	case DropUnchanged:
		return "unchanged"
	case DropRejected:
		return "rejected"
	case DropCommitted:
		return "committed"
	case DropRolledBack:
		return "rolled_back"
	default:
		return "unknown"
	}
}
