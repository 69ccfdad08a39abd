package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fieldhq/jobsite-forms/internal/domain/entity"
	"github.com/fieldhq/jobsite-forms/internal/repository"
	"github.com/fieldhq/jobsite-forms/pkg/database"
)

type testEnv struct {
	router      http.Handler
	templates   *repository.TemplateRepository
	submissions *repository.SubmissionRepository
	roster      *repository.RosterRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()

	db, err := database.New(database.Config{
		Path:         filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.NewMigrator(db, logger).Run(repository.MigrationsFS))

	templates := repository.NewTemplateRepository(db.DB, logger)
	submissions := repository.NewSubmissionRepository(db.DB, logger)
	approvals := repository.NewApprovalRepository(db.DB, logger)
	roster := repository.NewRosterRepository(db.DB, logger)

	srv := NewServer(DefaultConfig(), templates, submissions, approvals, roster, logger)
	return &testEnv{
		router:      srv.Router(),
		templates:   templates,
		submissions: submissions,
		roster:      roster,
	}
}

func (e *testEnv) request(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func seedTemplate(t *testing.T, env *testEnv) *entity.FormTemplate {
	t.Helper()
	tmpl := &entity.FormTemplate{
		ID:       "t1",
		Name:     "Daily Report",
		FormType: "DAILY_REPORT",
		Groupings: []entity.FormGrouping{
			{ID: "g1", Order: 1, Fields: []entity.FormField{
				{ID: "notes", Type: entity.FieldTypeText, Label: "Notes", Required: true},
				{ID: "crew", Type: entity.FieldTypeSearchPerson, Label: "Crew", Multiple: true},
			}},
		},
	}
	require.NoError(t, env.templates.Create(context.Background(), tmpl))
	return tmpl
}

func TestHandlers_Health(t *testing.T) {
	env := newTestEnv(t)
	rec := env.request(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlers_GetTemplate(t *testing.T) {
	env := newTestEnv(t)
	seedTemplate(t, env)

	rec := env.request(t, http.MethodGet, "/api/v1/templates/t1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tmpl := decode[entity.FormTemplate](t, rec)
	assert.Equal(t, "Daily Report", tmpl.Name)
	require.Len(t, tmpl.Groupings, 1)
	assert.Len(t, tmpl.Groupings[0].Fields, 2)

	rec = env.request(t, http.MethodGet, "/api/v1/templates/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlers_SubmissionLifecycle(t *testing.T) {
	env := newTestEnv(t)
	seedTemplate(t, env)

	// Create a draft
	rec := env.request(t, http.MethodPost, "/api/v1/templates/t1/submissions", map[string]any{
		"formData":       map[string]any{"notes": "first pass"},
		"formTemplateId": "t1",
		"formType":       "DAILY_REPORT",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	sub := decode[entity.FormSubmission](t, rec)
	assert.NotEmpty(t, sub.ID)
	assert.Equal(t, entity.StatusDraft, sub.Status)
	assert.Nil(t, sub.SubmittedAt)

	// Auto-save path: formData only, no submit marker
	rec = env.request(t, http.MethodPut, "/api/v1/submissions/"+sub.ID, map[string]any{
		"formData":     map[string]any{"notes": "second pass"},
		"submissionId": sub.ID,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	saved := decode[entity.FormSubmission](t, rec)
	assert.Equal(t, entity.StatusDraft, saved.Status)
	assert.Equal(t, "second pass", saved.Data["notes"])
	assert.Nil(t, saved.SubmittedAt)

	// Draft path uses the "data" shape
	rec = env.request(t, http.MethodPut, "/api/v1/submissions/"+sub.ID, map[string]any{
		"data":           map[string]any{"notes": "third pass"},
		"formTemplateId": "t1",
		"submissionId":   sub.ID,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "third pass", decode[entity.FormSubmission](t, rec).Data["notes"])

	// Submit with approval required: DRAFT -> PENDING, server stamps the time
	clientTime := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	rec = env.request(t, http.MethodPut, "/api/v1/submissions/"+sub.ID, map[string]any{
		"formData":           map[string]any{"notes": "final"},
		"submissionId":       sub.ID,
		"submittedAt":        clientTime,
		"isApprovalRequired": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	submitted := decode[entity.FormSubmission](t, rec)
	assert.Equal(t, entity.StatusPending, submitted.Status)
	require.NotNil(t, submitted.SubmittedAt)
	assert.NotEqual(t, clientTime, *submitted.SubmittedAt, "client clock must not be trusted")
	assert.WithinDuration(t, time.Now().UTC(), *submitted.SubmittedAt, time.Minute)

	// Approve it: PENDING -> APPROVED
	rec = env.request(t, http.MethodPost, "/api/v1/approvals", map[string]any{
		"formSubmissionId": sub.ID,
		"signedBy":         "supervisor-1",
		"signature":        "data:image/png;base64,abc",
		"comment":          "ok",
		"approval":         entity.ApprovalApproved,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	approval := decode[entity.FormApproval](t, rec)
	assert.Equal(t, sub.ID, approval.FormSubmissionID)
	assert.Equal(t, entity.ApprovalApproved, approval.Approval)

	rec = env.request(t, http.MethodGet, "/api/v1/submissions/"+sub.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, entity.StatusApproved, decode[entity.FormSubmission](t, rec).Status)

	// The approval record is retrievable by id
	rec = env.request(t, http.MethodGet, "/api/v1/approvals/"+approval.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "supervisor-1", decode[entity.FormApproval](t, rec).SignedBy)
}

func TestHandlers_SubmitWithoutApprovalGoesStraightToApproved(t *testing.T) {
	env := newTestEnv(t)
	seedTemplate(t, env)

	rec := env.request(t, http.MethodPost, "/api/v1/templates/t1/submissions", map[string]any{
		"formData": map[string]any{"notes": "x"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	sub := decode[entity.FormSubmission](t, rec)

	rec = env.request(t, http.MethodPut, "/api/v1/submissions/"+sub.ID, map[string]any{
		"formData":           map[string]any{"notes": "x"},
		"submissionId":       sub.ID,
		"submittedAt":        time.Now().UTC(),
		"isApprovalRequired": false,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, entity.StatusApproved, decode[entity.FormSubmission](t, rec).Status)
}

func TestHandlers_DenySubmission(t *testing.T) {
	env := newTestEnv(t)
	seedTemplate(t, env)

	rec := env.request(t, http.MethodPost, "/api/v1/templates/t1/submissions", map[string]any{})
	require.Equal(t, http.StatusCreated, rec.Code)
	sub := decode[entity.FormSubmission](t, rec)

	rec = env.request(t, http.MethodPut, "/api/v1/submissions/"+sub.ID, map[string]any{
		"formData":           map[string]any{"notes": "x"},
		"submissionId":       sub.ID,
		"submittedAt":        time.Now().UTC(),
		"isApprovalRequired": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.request(t, http.MethodPost, "/api/v1/approvals", map[string]any{
		"formSubmissionId": sub.ID,
		"signedBy":         "supervisor-1",
		"approval":         entity.ApprovalDenied,
		"comment":          "hours missing",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.request(t, http.MethodGet, "/api/v1/submissions/"+sub.ID, nil)
	assert.Equal(t, entity.StatusDenied, decode[entity.FormSubmission](t, rec).Status)
}

func TestHandlers_InvalidTransitionConflicts(t *testing.T) {
	env := newTestEnv(t)
	seedTemplate(t, env)

	rec := env.request(t, http.MethodPost, "/api/v1/templates/t1/submissions", map[string]any{})
	require.Equal(t, http.StatusCreated, rec.Code)
	sub := decode[entity.FormSubmission](t, rec)

	// Approving a DRAFT is not a permitted transition
	rec = env.request(t, http.MethodPost, "/api/v1/approvals", map[string]any{
		"formSubmissionId": sub.ID,
		"approval":         entity.ApprovalApproved,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Double-submit conflicts too
	rec = env.request(t, http.MethodPut, "/api/v1/submissions/"+sub.ID, map[string]any{
		"submittedAt":  time.Now().UTC(),
		"submissionId": sub.ID,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.request(t, http.MethodPut, "/api/v1/submissions/"+sub.ID, map[string]any{
		"submittedAt":  time.Now().UTC(),
		"submissionId": sub.ID,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandlers_CreateSubmissionValidation(t *testing.T) {
	env := newTestEnv(t)
	seedTemplate(t, env)

	t.Run("unknown template", func(t *testing.T) {
		rec := env.request(t, http.MethodPost, "/api/v1/templates/nope/submissions", map[string]any{})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("template id mismatch", func(t *testing.T) {
		rec := env.request(t, http.MethodPost, "/api/v1/templates/t1/submissions", map[string]any{
			"formTemplateId": "other",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandlers_DeleteSubmission(t *testing.T) {
	env := newTestEnv(t)
	seedTemplate(t, env)

	rec := env.request(t, http.MethodPost, "/api/v1/templates/t1/submissions", map[string]any{})
	require.Equal(t, http.StatusCreated, rec.Code)
	sub := decode[entity.FormSubmission](t, rec)

	rec = env.request(t, http.MethodDelete, "/api/v1/submissions/"+sub.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.request(t, http.MethodGet, "/api/v1/submissions/"+sub.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.request(t, http.MethodDelete, "/api/v1/submissions/"+sub.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlers_GetRoster(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.roster.Upsert(ctx, repository.CategoryPerson, entity.Option{ID: "p1", Name: "Alice Smith"}))
	require.NoError(t, env.roster.Upsert(ctx, repository.CategoryEquipment, entity.Option{ID: "e1", Name: "Excavator 3"}))
	require.NoError(t, env.roster.Upsert(ctx, repository.CategoryJobsite, entity.Option{ID: "j1", Name: "North Yard"}))
	require.NoError(t, env.roster.Upsert(ctx, repository.CategoryCostCode, entity.Option{ID: "c1", Name: "CC-100"}))

	rec := env.request(t, http.MethodGet, "/api/v1/roster", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	lookups := decode[entity.Lookups](t, rec)
	require.Len(t, lookups.Personnel, 1)
	assert.Equal(t, "Alice Smith", lookups.Personnel[0].Name)
	assert.Len(t, lookups.Equipment, 1)
	assert.Len(t, lookups.Jobsites, 1)
	assert.Len(t, lookups.CostCodes, 1)
}
