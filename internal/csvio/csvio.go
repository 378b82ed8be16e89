// Package csvio serializes the visible deal list to CSV and parses uploads
// back into pipeline records.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"pipeterm/internal/pipeline"
)

// Header is the fixed export column set. Imports must match it positionally,
// compared case-insensitively per column.
var Header = []string{"Company", "Description", "Value", "Stage", "Priority", "Probability"}

var (
	// ErrNoRows indicates an export was requested for an empty filtered list.
	ErrNoRows = errors.New("nothing to export")
	// ErrHeaderMismatch indicates the uploaded file does not carry the expected header.
	ErrHeaderMismatch = errors.New("csv header does not match the expected columns")
	// ErrNoParsedRows indicates no data row survived parsing.
	ErrNoParsedRows = errors.New("csv contained no importable rows")
)

// ImportMode selects how parsed rows are merged into the existing list.
type ImportMode int

const (
	// ModeAppend prepends imported rows to the existing list.
	ModeAppend ImportMode = iota
	// ModeReplace discards the existing list.
	ModeReplace
)

// ImportResult summarizes a CSV import.
type ImportResult struct {
	Deals   []pipeline.Deal
	Skipped int
	Errors  []string
}

// ExportFilename names a download like the web exporter did.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("export_%d.csv", now.UnixMilli())
}

// Export writes the deal list as CSV. String fields are quoted with internal
// quotes doubled, which encoding/csv does for us.
func Export(w io.Writer, deals []pipeline.Deal) error {
	if len(deals) == 0 {
		return ErrNoRows
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, d := range deals {
		record := []string{
			d.Company,
			d.Description,
			strconv.FormatFloat(d.Value, 'f', -1, 64),
			string(d.Stage),
			string(d.Priority),
			strconv.Itoa(d.Probability),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// Import parses an uploaded CSV. The header must match exactly (positional,
// case-insensitive) or the whole file is rejected. Rows shorter than the
// header are skipped; numeric fields fall back to zero on parse failure.
func Import(r io.Reader, now time.Time) (ImportResult, error) {
	result := ImportResult{}
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return result, fmt.Errorf("read header: %w", err)
	}
	if !headerMatches(header) {
		return result, ErrHeaderMismatch
	}

	stamp := now.UnixMilli()
	today := now.Format("2006-01-02")
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", line, err))
			continue
		}
		if isBlank(record) {
			continue
		}
		if len(record) < len(Header) {
			result.Skipped++
			continue
		}
		deal := pipeline.Deal{
			ID:          fmt.Sprintf("imp-%d-%d", stamp, line),
			Company:     strings.TrimSpace(record[0]),
			Description: strings.TrimSpace(record[1]),
			Value:       parseFloat(record[2]),
			Stage:       importStage(record[3]),
			Priority:    importPriority(record[4]),
			Probability: parseInt(record[5]),
			Assignees:   []pipeline.Assignee{{Name: "Unassigned"}},
			DueDate:     today,
			DaysInStage: 0,
			CreatedBy:   "import",
			CreatedAt:   now,
		}
		result.Deals = append(result.Deals, deal)
	}
	if len(result.Deals) == 0 {
		return result, ErrNoParsedRows
	}
	return result, nil
}

// Merge applies the chosen import mode against the existing list.
func Merge(existing, imported []pipeline.Deal, mode ImportMode) []pipeline.Deal {
	if mode == ModeReplace {
		return imported
	}
	out := make([]pipeline.Deal, 0, len(existing)+len(imported))
	out = append(out, imported...)
	out = append(out, existing...)
	return out
}

func headerMatches(header []string) bool {
	if len(header) != len(Header) {
		return false
	}
	for i, col := range header {
		if !strings.EqualFold(strings.TrimSpace(col), Header[i]) {
			return false
		}
	}
	return true
}

func isBlank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func parseInt(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return v
}

func importStage(s string) pipeline.Stage {
	if stage, ok := pipeline.StageByName(s); ok {
		return stage
	}
	return pipeline.StageLeadGen
}

func importPriority(s string) pipeline.Priority {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return pipeline.PriorityHigh
	case "medium":
		return pipeline.PriorityMedium
	case "low":
		return pipeline.PriorityLow
	}
	return pipeline.PriorityMedium
}
