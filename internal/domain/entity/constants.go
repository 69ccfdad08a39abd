package entity

// Status constants for FormSubmission
const (
	StatusDraft    = "DRAFT"
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusDenied   = "DENIED"
)

// Decision constants for FormApproval
const (
	ApprovalApproved = "APPROVED"
	ApprovalDenied   = "DENIED"
)
