package entity

import "time"

// FormApproval is a decision record attached to a submission.
type FormApproval struct {
	ID               string    `json:"id"`
	FormSubmissionID string    `json:"formSubmissionId"`
	SignedBy         string    `json:"signedBy,omitempty"`
	Signature        string    `json:"signature,omitempty"`
	Comment          string    `json:"comment,omitempty"`
	Approval         string    `json:"approval"`
	CreatedAt        time.Time `json:"createdAt"`
}
