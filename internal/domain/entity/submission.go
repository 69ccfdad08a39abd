package entity

import "time"

// FormSubmission is one instance of a user's filled-in data for a template.
// Data holds the wire representation: scalars and comma-joined display-name
// strings, keyed by field id. Keys not declared by the template are preserved
// but never validated.
type FormSubmission struct {
	ID             string         `json:"id"`
	FormTemplateID string         `json:"formTemplateId"`
	UserID         string         `json:"userId"`
	Status         string         `json:"status"`
	Data           map[string]any `json:"data"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	SubmittedAt    *time.Time     `json:"submittedAt,omitempty"`
}
