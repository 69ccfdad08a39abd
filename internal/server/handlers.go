package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fieldhq/jobsite-forms/internal/domain/entity"
	"github.com/fieldhq/jobsite-forms/internal/domain/workflow"
	"github.com/fieldhq/jobsite-forms/internal/repository"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	templates   *repository.TemplateRepository
	submissions *repository.SubmissionRepository
	approvals   *repository.ApprovalRepository
	roster      *repository.RosterRepository
	logger      *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	templates *repository.TemplateRepository,
	submissions *repository.SubmissionRepository,
	approvals *repository.ApprovalRepository,
	roster *repository.RosterRepository,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		templates:   templates,
		submissions: submissions,
		approvals:   approvals,
		roster:      roster,
		logger:      logger,
	}
}

// Health reports service liveness
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// GetTemplate returns a form template by id
func (h *Handlers) GetTemplate(c *gin.Context) {
	tmpl, err := h.templates.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, tmpl)
}

// createSubmissionPayload is the create-submission request body
type createSubmissionPayload struct {
	FormData       map[string]any `json:"formData"`
	FormTemplateID string         `json:"formTemplateId"`
	FormType       string         `json:"formType"`
}

// CreateSubmission creates a new DRAFT submission for a template
func (h *Handlers) CreateSubmission(c *gin.Context) {
	var payload createSubmissionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	templateID := c.Param("id")
	if payload.FormTemplateID != "" && payload.FormTemplateID != templateID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "template id mismatch"})
		return
	}

	if _, err := h.templates.GetByID(c.Request.Context(), templateID); err != nil {
		h.renderError(c, err)
		return
	}

	data := payload.FormData
	if data == nil {
		data = map[string]any{}
	}

	sub := &entity.FormSubmission{
		ID:             uuid.NewString(),
		FormTemplateID: templateID,
		UserID:         c.GetHeader("X-User-ID"),
		Status:         entity.StatusDraft,
		Data:           data,
	}
	if err := h.submissions.Create(c.Request.Context(), sub); err != nil {
		h.renderError(c, err)
		return
	}

	created, err := h.submissions.GetByID(c.Request.Context(), sub.ID)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetSubmission returns a submission by id
func (h *Handlers) GetSubmission(c *gin.Context) {
	sub, err := h.submissions.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// updateSubmissionPayload accepts both update shapes: the draft path carries
// "data", the submit/autosave path carries "formData" and optionally the
// submission markers.
type updateSubmissionPayload struct {
	Data               map[string]any `json:"data"`
	FormData           map[string]any `json:"formData"`
	FormTemplateID     string         `json:"formTemplateId"`
	SubmissionID       string         `json:"submissionId"`
	SubmittedAt        *time.Time     `json:"submittedAt"`
	IsApprovalRequired *bool          `json:"isApprovalRequired"`
}

// UpdateSubmission updates a submission's data and, when the payload marks a
// submit, drives the lifecycle transition. The submission timestamp recorded
// is always the server clock.
func (h *Handlers) UpdateSubmission(c *gin.Context) {
	var payload updateSubmissionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	id := c.Param("id")
	ctx := c.Request.Context()

	sub, err := h.submissions.GetByID(ctx, id)
	if err != nil {
		h.renderError(c, err)
		return
	}

	data := payload.FormData
	if data == nil {
		data = payload.Data
	}
	if data != nil {
		if err := h.submissions.UpdateData(ctx, id, data); err != nil {
			h.renderError(c, err)
			return
		}
	}

	if payload.SubmittedAt != nil {
		if err := h.submit(ctx, sub, payload.IsApprovalRequired); err != nil {
			h.renderError(c, err)
			return
		}
	}

	updated, err := h.submissions.GetByID(ctx, id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// submit fires the lifecycle transitions for a submit request. When the
// caller states no approval is required, the submission moves straight on to
// APPROVED; that policy belongs to the caller, not the engine.
func (h *Handlers) submit(ctx context.Context, sub *entity.FormSubmission, isApprovalRequired *bool) error {
	machine := workflow.NewSubmissionMachine(workflow.State(sub.Status))
	if err := machine.Fire(ctx, workflow.TriggerSubmit); err != nil {
		return err
	}
	if isApprovalRequired != nil && !*isApprovalRequired {
		if err := machine.Fire(ctx, workflow.TriggerApprove); err != nil {
			return err
		}
	}

	if err := h.submissions.SetSubmitted(ctx, sub.ID, time.Now().UTC()); err != nil {
		return err
	}
	return h.submissions.UpdateStatus(ctx, sub.ID, machine.State().String())
}

// DeleteSubmission removes a submission
func (h *Handlers) DeleteSubmission(c *gin.Context) {
	if err := h.submissions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// GetApproval returns an approval record by id
func (h *Handlers) GetApproval(c *gin.Context) {
	approval, err := h.approvals.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, approval)
}

// createApprovalPayload is the create-approval request body
type createApprovalPayload struct {
	FormSubmissionID string `json:"formSubmissionId"`
	SignedBy         string `json:"signedBy"`
	Signature        string `json:"signature"`
	Comment          string `json:"comment"`
	Approval         string `json:"approval"`
}

// CreateApproval records an approval decision and moves the submission to
// its decided status
func (h *Handlers) CreateApproval(c *gin.Context) {
	var payload createApprovalPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if payload.FormSubmissionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "formSubmissionId is required"})
		return
	}

	var trigger workflow.Trigger
	switch payload.Approval {
	case entity.ApprovalApproved:
		trigger = workflow.TriggerApprove
	case entity.ApprovalDenied:
		trigger = workflow.TriggerDeny
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "approval must be APPROVED or DENIED"})
		return
	}

	ctx := c.Request.Context()
	sub, err := h.submissions.GetByID(ctx, payload.FormSubmissionID)
	if err != nil {
		h.renderError(c, err)
		return
	}

	machine := workflow.NewSubmissionMachine(workflow.State(sub.Status))
	if err := machine.Fire(ctx, trigger); err != nil {
		h.renderError(c, err)
		return
	}

	approval := &entity.FormApproval{
		ID:               uuid.NewString(),
		FormSubmissionID: payload.FormSubmissionID,
		SignedBy:         payload.SignedBy,
		Signature:        payload.Signature,
		Comment:          payload.Comment,
		Approval:         payload.Approval,
	}
	if err := h.approvals.Create(ctx, approval); err != nil {
		h.renderError(c, err)
		return
	}
	if err := h.submissions.UpdateStatus(ctx, sub.ID, machine.State().String()); err != nil {
		h.renderError(c, err)
		return
	}

	created, err := h.approvals.GetByID(ctx, approval.ID)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetRoster returns the roster and asset catalogs
func (h *Handlers) GetRoster(c *gin.Context) {
	lookups, err := h.roster.GetLookups(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, lookups)
}

// renderError maps domain errors onto HTTP statuses
func (h *Handlers) renderError(c *gin.Context, err error) {
	switch {
	case entity.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, workflow.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
