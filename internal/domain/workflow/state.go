package workflow

// State represents a submission lifecycle state
type State string

const (
	StateDraft    State = "DRAFT"
	StatePending  State = "PENDING"
	StateApproved State = "APPROVED"
	StateDenied   State = "DENIED"
)

var validStates = map[State]bool{
	StateDraft:    true,
	StatePending:  true,
	StateApproved: true,
	StateDenied:   true,
}

// Decided states carry a recorded approval decision. Whether they are
// terminal is a policy of the surrounding application; the machine itself
// configures no transitions out of them.
var decidedStates = map[State]bool{
	StateApproved: true,
	StateDenied:   true,
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid lifecycle state
func (s State) IsValid() bool {
	return validStates[s]
}

// IsDecided returns true if an approval decision has been recorded
func (s State) IsDecided() bool {
	return decidedStates[s]
}
