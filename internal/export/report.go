// Package export renders submissions for one template into a spreadsheet
// report: one column per declared field, one row per submission, with wire
// (denormalized) values in the cells.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/fieldhq/jobsite-forms/internal/domain/entity"
	"github.com/fieldhq/jobsite-forms/internal/form"
)

// ReportWriter generates XLSX reports of form submissions
type ReportWriter struct {
	lookups entity.Lookups
	logger  *zap.Logger
}

// NewReportWriter creates a new report writer
func NewReportWriter(lookups entity.Lookups, logger *zap.Logger) *ReportWriter {
	return &ReportWriter{
		lookups: lookups,
		logger:  logger,
	}
}

// Write renders the submissions into a new workbook. Submission data is
// normalized against the template and rendered back so relational values
// appear as display names.
func (w *ReportWriter) Write(tmpl *entity.FormTemplate, submissions []*entity.FormSubmission) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	fields := declaredFields(tmpl)

	headers := []any{"Submission ID", "Status", "Submitted At"}
	for _, field := range fields {
		label := field.Label
		if label == "" {
			label = field.ID
		}
		headers = append(headers, label)
	}
	if err := w.setRow(f, sheet, 1, headers); err != nil {
		return nil, err
	}

	for i, sub := range submissions {
		values := form.NormalizeForDisplay(tmpl, sub.Data, w.lookups)
		wire := form.DenormalizeForStorage(values)

		submittedAt := ""
		if sub.SubmittedAt != nil {
			submittedAt = sub.SubmittedAt.Format("2006-01-02 15:04")
		}

		row := []any{sub.ID, sub.Status, submittedAt}
		for _, field := range fields {
			row = append(row, wire[field.ID])
		}
		if err := w.setRow(f, sheet, i+2, row); err != nil {
			return nil, err
		}
	}

	w.logger.Info("Report generated",
		zap.String("template_id", tmpl.ID),
		zap.Int("submissions", len(submissions)))
	return f, nil
}

// WriteFile renders the report and saves it to disk
func (w *ReportWriter) WriteFile(tmpl *entity.FormTemplate, submissions []*entity.FormSubmission, path string) error {
	f, err := w.Write(tmpl, submissions)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

func (w *ReportWriter) setRow(f *excelize.File, sheet string, rowNum int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("failed to build cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowNum, err)
	}
	return nil
}

func declaredFields(tmpl *entity.FormTemplate) []entity.FormField {
	var fields []entity.FormField
	for _, g := range tmpl.Groupings {
		fields = append(fields, g.Fields...)
	}
	return fields
}
