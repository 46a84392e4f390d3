package review

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"billnorm/internal/domain"
)

const (
	fieldsSheet         = "Fields"
	validationsSheet    = "Validations"
	contradictionsSheet = "Contradictions"
)

// WriteWorkbook builds an XLSX review workbook for one document's resolution
// result: a Fields sheet for the resolved values, a Validations sheet for the
// cross-field checks, and a Contradictions sheet. Intended for handoff to a
// human reviewer.
func WriteWorkbook(path, documentID string, result *domain.ResolutionResult) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := writeFieldsSheet(f, documentID, result); err != nil {
		return err
	}
	if err := writeValidationsSheet(f, result); err != nil {
		return err
	}
	if err := writeContradictionsSheet(f, result); err != nil {
		return err
	}

	// The default sheet excelize creates is replaced by Fields.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("removing default sheet: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving review workbook %s: %w", path, err)
	}
	return nil
}

func writeFieldsSheet(f *excelize.File, documentID string, result *domain.ResolutionResult) error {
	if _, err := f.NewSheet(fieldsSheet); err != nil {
		return fmt.Errorf("creating %s sheet: %w", fieldsSheet, err)
	}
	header := []interface{}{"Document ID", "Field", "Value", "Normalized", "Confidence", "Flags", "Explanation", "Alternatives"}
	if err := f.SetSheetRow(fieldsSheet, "A1", &header); err != nil {
		return err
	}

	names := make([]string, 0, len(result.Fields))
	for name := range result.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for i, name := range names {
		fv := result.Fields[name]
		alts := make([]string, 0, len(fv.Alternatives))
		for _, a := range fv.Alternatives {
			alts = append(alts, fmt.Sprintf("%s (%d)", a.ValueRaw, a.Score))
		}
		row := []interface{}{
			documentID, fv.FieldName, fv.Value, fv.Normalized, fv.Confidence,
			strings.Join(fv.Flags, "; "), fv.Explanation, strings.Join(alts, "; "),
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(fieldsSheet, cell, &row); err != nil {
			return err
		}
	}

	summary := []interface{}{"", "overall_confidence", result.OverallConfidence}
	cell := fmt.Sprintf("A%d", len(names)+3)
	return f.SetSheetRow(fieldsSheet, cell, &summary)
}

func writeValidationsSheet(f *excelize.File, result *domain.ResolutionResult) error {
	if _, err := f.NewSheet(validationsSheet); err != nil {
		return fmt.Errorf("creating %s sheet: %w", validationsSheet, err)
	}
	header := []interface{}{"Validation", "Passed", "Penalty", "Message"}
	if err := f.SetSheetRow(validationsSheet, "A1", &header); err != nil {
		return err
	}
	for i, v := range result.CrossFieldValidations {
		row := []interface{}{string(v.ValidationType), v.Passed, v.Penalty, v.Message}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(validationsSheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func writeContradictionsSheet(f *excelize.File, result *domain.ResolutionResult) error {
	if _, err := f.NewSheet(contradictionsSheet); err != nil {
		return fmt.Errorf("creating %s sheet: %w", contradictionsSheet, err)
	}
	header := []interface{}{"Severity", "Fields", "Description"}
	if err := f.SetSheetRow(contradictionsSheet, "A1", &header); err != nil {
		return err
	}
	for i, c := range result.Contradictions {
		row := []interface{}{string(c.Severity), strings.Join(c.Fields, ", "), c.Description}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(contradictionsSheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
