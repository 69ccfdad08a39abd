package workflow

// Trigger represents an event that can cause a lifecycle transition
type Trigger string

const (
	TriggerSubmit  Trigger = "SUBMIT"
	TriggerRecall  Trigger = "RECALL"
	TriggerApprove Trigger = "APPROVE"
	TriggerDeny    Trigger = "DENY"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
