package workflow

// NewSubmissionMachine builds the standard submission lifecycle machine:
// DRAFT moves to PENDING on submit, PENDING may be recalled to DRAFT, and a
// recorded decision moves PENDING to APPROVED or DENIED. Reopening a decided
// submission is deliberately not configured here; that policy belongs to the
// surrounding application.
func NewSubmissionMachine(initial State) StateMachine {
	return NewBuilder().
		Permit(StateDraft, TriggerSubmit, StatePending).
		Permit(StatePending, TriggerRecall, StateDraft).
		Permit(StatePending, TriggerApprove, StateApproved).
		Permit(StatePending, TriggerDeny, StateDenied).
		Build(initial)
}
