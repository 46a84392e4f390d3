package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"billnorm/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the CSV header row, one row per resolved field.
var columns = []string{
	"Document ID",
	"Field",
	"Value",
	"Normalized",
	"Confidence",
	"Flags",
	"Explanation",
	"Alternatives",
	"Overall Confidence",
	"Contradictions",
}

// Writer wraps csv.Writer for exporting resolution results as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteResult converts one document's resolution result to CSV rows, one per
// resolved field in stable field-name order.
func (w *Writer) WriteResult(documentID string, result *domain.ResolutionResult) error {
	names := make([]string, 0, len(result.Fields))
	for name := range result.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	contradictions := contradictionSummary(result.Contradictions)
	for _, name := range names {
		row := fieldToRow(documentID, result.Fields[name], result.OverallConfidence, contradictions)
		if err := w.csv.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() error {
	w.csv.Flush()
	return w.csv.Error()
}

func fieldToRow(documentID string, fv *domain.FieldValue, overall int, contradictions string) []string {
	alts := make([]string, 0, len(fv.Alternatives))
	for _, a := range fv.Alternatives {
		alts = append(alts, fmt.Sprintf("%s (%d)", a.ValueRaw, a.Score))
	}
	return []string{
		documentID,
		fv.FieldName,
		fv.Value,
		fv.Normalized,
		fmt.Sprintf("%d", fv.Confidence),
		strings.Join(fv.Flags, "; "),
		fv.Explanation,
		strings.Join(alts, "; "),
		fmt.Sprintf("%d", overall),
		contradictions,
	}
}

func contradictionSummary(contradictions []domain.Contradiction) string {
	parts := make([]string, 0, len(contradictions))
	for _, c := range contradictions {
		parts = append(parts, fmt.Sprintf("[%s] %s", c.Severity, c.Description))
	}
	return strings.Join(parts, "; ")
}
