// Package engine orchestrates the lifecycle of one open form submission:
// load, edit, debounced auto-save, submit, draft save, delete and approval.
// A Manager owns the canonical value map and the last-persisted snapshot for
// exactly one submission; it is not shared across editors.
package engine

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fieldhq/jobsite-forms/internal/api"
	"github.com/fieldhq/jobsite-forms/internal/domain/entity"
	"github.com/fieldhq/jobsite-forms/internal/form"
)

// Config holds Manager tuning knobs.
type Config struct {
	// AutoSaveEnabled turns the debounced background save on or off.
	AutoSaveEnabled bool

	// AutoSaveDebounce is the quiet period after the last edit before an
	// auto-save fires.
	AutoSaveDebounce time.Duration

	// SaveTimeout bounds each background save request.
	SaveTimeout time.Duration
}

// DefaultConfig returns the standard Manager configuration.
func DefaultConfig() Config {
	return Config{
		AutoSaveEnabled:  true,
		AutoSaveDebounce: 2 * time.Second,
		SaveTimeout:      10 * time.Second,
	}
}

// Dependencies bundles the persistence collaborators and lookup catalogs a
// Manager needs.
type Dependencies struct {
	Templates   api.TemplateAPI
	Submissions api.SubmissionAPI
	Approvals   api.ApprovalAPI
	Lookups     entity.Lookups
}

// LoadOptions selects what Load fetches beyond the template.
type LoadOptions struct {
	SubmissionID string
	ApprovalID   string
}

// Manager owns canonical state for one open submission.
type Manager struct {
	templates   api.TemplateAPI
	submissions api.SubmissionAPI
	approvals   api.ApprovalAPI
	lookups     entity.Lookups
	cfg         Config
	logger      *zap.Logger
	timer       *saveTimer

	mu         sync.Mutex
	template   *entity.FormTemplate
	submission *entity.FormSubmission
	approval   *entity.FormApproval
	values     map[string]entity.Value
	snapshot   map[string]entity.Value
	loading    bool
	lastErr    error
	closed     bool

	// saveSeq numbers issued auto-save requests; only the response carrying
	// the newest sequence may advance the snapshot.
	saveSeq uint64
}

// NewManager creates a Manager. Call Close when the editing context goes
// away so the pending debounce timer is released.
func NewManager(deps Dependencies, cfg Config, logger *zap.Logger) *Manager {
	if cfg.AutoSaveDebounce == 0 {
		cfg.AutoSaveDebounce = DefaultConfig().AutoSaveDebounce
	}
	if cfg.SaveTimeout == 0 {
		cfg.SaveTimeout = DefaultConfig().SaveTimeout
	}
	return &Manager{
		templates:   deps.Templates,
		submissions: deps.Submissions,
		approvals:   deps.Approvals,
		lookups:     deps.Lookups,
		cfg:         cfg,
		logger:      logger,
		timer:       newSaveTimer(),
		values:      make(map[string]entity.Value),
	}
}

// Load fetches the template and, when requested, the submission and approval
// record. The template is a hard dependency: its failure populates the error
// state and propagates. A submission-load failure is logged and swallowed so
// loading still completes; an approval-load failure propagates.
func (m *Manager) Load(ctx context.Context, templateID string, opts LoadOptions) error {
	m.mu.Lock()
	m.loading = true
	m.lastErr = nil
	m.mu.Unlock()

	tmpl, err := m.templates.GetTemplate(ctx, templateID)
	if err != nil {
		m.finishLoad(err)
		return fmt.Errorf("load template %s: %w", templateID, err)
	}

	m.mu.Lock()
	m.template = tmpl
	m.mu.Unlock()

	if opts.SubmissionID != "" {
		sub, err := m.submissions.GetSubmission(ctx, opts.SubmissionID)
		if err != nil {
			// Swallowed: the user starts from an empty form instead of a
			// blocking error. Kept visible to telemetry.
			m.logger.Warn("Failed to load submission, continuing with empty form",
				zap.String("submission_id", opts.SubmissionID),
				zap.Error(err))
		} else {
			values := form.NormalizeForDisplay(tmpl, sub.Data, m.lookups)
			m.mu.Lock()
			m.submission = sub
			m.values = values
			m.snapshot = cloneValues(values)
			m.mu.Unlock()
		}
	}

	if opts.ApprovalID != "" {
		approval, err := m.approvals.GetApproval(ctx, opts.ApprovalID)
		if err != nil {
			m.finishLoad(err)
			return fmt.Errorf("load approval %s: %w", opts.ApprovalID, err)
		}
		m.mu.Lock()
		m.approval = approval
		m.mu.Unlock()
	}

	m.finishLoad(nil)
	return nil
}

func (m *Manager) finishLoad(err error) {
	m.mu.Lock()
	m.loading = false
	m.lastErr = err
	m.mu.Unlock()
}

// UpdateValue merges one canonical value into the open submission and re-arms
// the auto-save debounce. Field validation runs for diagnostics only; a
// failing value is still stored.
func (m *Manager) UpdateValue(fieldID string, v entity.Value) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.values[fieldID] = v
	tmpl := m.template
	m.mu.Unlock()

	if tmpl != nil {
		if err := form.ValidateFieldValue(tmpl, fieldID, v); err != nil {
			m.logger.Debug("Field value failed validation",
				zap.String("field_id", fieldID),
				zap.Error(err))
		}
	}

	if m.cfg.AutoSaveEnabled {
		m.timer.Arm(m.cfg.AutoSaveDebounce, m.autoSave)
	}
}

// autoSave runs on the debounce timer goroutine. It never surfaces failures;
// a stale response is not allowed to overwrite the snapshot for newer data.
func (m *Manager) autoSave() {
	m.mu.Lock()
	if m.closed || m.template == nil || m.submission == nil {
		m.mu.Unlock()
		return
	}
	if reflect.DeepEqual(m.values, m.snapshot) {
		m.mu.Unlock()
		return
	}
	m.saveSeq++
	seq := m.saveSeq
	candidate := cloneValues(m.values)
	submissionID := m.submission.ID
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.SaveTimeout)
	defer cancel()

	_, err := m.submissions.UpdateSubmission(ctx, api.UpdateSubmissionRequest{
		FormData:     form.DenormalizeForStorage(candidate),
		SubmissionID: submissionID,
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.logger.Warn("Auto-save failed",
			zap.String("submission_id", submissionID),
			zap.Uint64("seq", seq),
			zap.Error(err))
		return
	}
	if m.closed || seq != m.saveSeq {
		// A newer save was issued while this one was in flight, or the
		// editing context is gone. Drop the late response.
		return
	}
	m.snapshot = candidate
}

// Submit validates and pushes the submission toward its next status. The
// signature gate runs before the structural validation and before any
// network call.
func (m *Manager) Submit(ctx context.Context, override map[string]entity.Value) (*entity.FormSubmission, error) {
	m.mu.Lock()
	tmpl := m.template
	sub := m.submission
	values := m.values
	if override != nil {
		values = override
	}
	values = cloneValues(values)
	m.mu.Unlock()

	if tmpl == nil {
		return nil, fmt.Errorf("submit form: no template loaded")
	}
	if sub == nil {
		return nil, fmt.Errorf("submit form: %w", entity.ErrNoSubmission)
	}

	if tmpl.IsSignatureRequired {
		sigField, ok := tmpl.SignatureField()
		if !ok || !entity.Truthy(values[sigField.ID]) {
			return nil, &entity.ValidationError{Signature: true}
		}
	}

	if result := form.ValidateStructure(tmpl, values); !result.Valid {
		return nil, &entity.ValidationError{FieldErrors: result.Errors}
	}

	now := time.Now().UTC()
	approvalRequired := tmpl.IsApprovalRequired
	resp, err := m.submissions.UpdateSubmission(ctx, api.UpdateSubmissionRequest{
		FormData:           form.DenormalizeForStorage(values),
		SubmissionID:       sub.ID,
		SubmittedAt:        &now,
		IsApprovalRequired: &approvalRequired,
	})
	if err != nil {
		return nil, fmt.Errorf("submit form: %w", err)
	}

	// The server is authoritative post-submit.
	m.adopt(resp)
	return resp, nil
}

// SaveDraft persists the current values, creating the submission on first
// save and updating it afterwards.
func (m *Manager) SaveDraft(ctx context.Context, override map[string]entity.Value) (*entity.FormSubmission, error) {
	m.mu.Lock()
	tmpl := m.template
	sub := m.submission
	values := m.values
	if override != nil {
		values = override
	}
	values = cloneValues(values)
	m.mu.Unlock()

	if tmpl == nil {
		return nil, fmt.Errorf("save draft: no template loaded")
	}

	payload := form.DenormalizeForStorage(values)

	var (
		resp *entity.FormSubmission
		err  error
	)
	if sub == nil {
		resp, err = m.submissions.CreateSubmission(ctx, api.CreateSubmissionRequest{
			FormData:       payload,
			FormTemplateID: tmpl.ID,
			FormType:       tmpl.FormType,
		})
	} else {
		resp, err = m.submissions.UpdateDraft(ctx, api.UpdateDraftRequest{
			Data:           payload,
			FormTemplateID: tmpl.ID,
			SubmissionID:   sub.ID,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}

	m.adopt(resp)
	return resp, nil
}

// Delete removes the persisted submission and clears local canonical state.
func (m *Manager) Delete(ctx context.Context) error {
	m.mu.Lock()
	sub := m.submission
	m.mu.Unlock()

	if sub == nil {
		return entity.ErrNoSubmission
	}
	if err := m.submissions.DeleteSubmission(ctx, sub.ID); err != nil {
		return fmt.Errorf("delete submission %s: %w", sub.ID, err)
	}

	m.mu.Lock()
	m.submission = nil
	m.values = make(map[string]entity.Value)
	m.snapshot = nil
	m.mu.Unlock()
	return nil
}

// Close cancels the pending debounce timer and invalidates in-flight
// auto-save responses. The Manager must not be used afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.timer.Stop()
}

// adopt replaces local state with a server-echoed submission, re-normalizing
// its data and refreshing the last-persisted snapshot.
func (m *Manager) adopt(sub *entity.FormSubmission) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submission = sub
	if m.template != nil {
		m.values = form.NormalizeForDisplay(m.template, sub.Data, m.lookups)
	}
	m.snapshot = cloneValues(m.values)
}

// Template returns the loaded template, or nil.
func (m *Manager) Template() *entity.FormTemplate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.template
}

// Submission returns the loaded submission, or nil.
func (m *Manager) Submission() *entity.FormSubmission {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.submission
}

// Approval returns the loaded approval record, or nil.
func (m *Manager) Approval() *entity.FormApproval {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.approval
}

// Values returns a copy of the current canonical values.
func (m *Manager) Values() map[string]entity.Value {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneValues(m.values)
}

// Value returns the current canonical value for one field.
func (m *Manager) Value(fieldID string) (entity.Value, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[fieldID]
	return v, ok
}

// Loading reports whether a Load call is in progress.
func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// Err returns the user-visible load error, if any.
func (m *Manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// cloneValues copies a canonical value map. List variants are copied so a
// snapshot cannot alias live edit state.
func cloneValues(in map[string]entity.Value) map[string]entity.Value {
	if in == nil {
		return nil
	}
	out := make(map[string]entity.Value, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v entity.Value) entity.Value {
	switch t := v.(type) {
	case entity.ReferenceList:
		return append(entity.ReferenceList{}, t...)
	case entity.AssetReferenceList:
		return append(entity.AssetReferenceList{}, t...)
	case entity.StringList:
		return append(entity.StringList{}, t...)
	default:
		return v
	}
}
