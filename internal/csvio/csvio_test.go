package csvio

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipeterm/internal/pipeline"
)

var importNow = time.Date(2026, 8, 31, 9, 30, 0, 0, time.UTC)

func TestExport(t *testing.T) {
	t.Run("empty list is rejected", func(t *testing.T) {
		var buf bytes.Buffer
		assert.ErrorIs(t, Export(&buf, nil), ErrNoRows)
		assert.Zero(t, buf.Len(), "no file content produced")
	})

	t.Run("writes header and rows", func(t *testing.T) {
		deals := []pipeline.Deal{
			{Company: "Acme", Description: "Widget deal", Value: 1000, Stage: pipeline.StageProposal, Priority: pipeline.PriorityHigh, Probability: 60},
		}
		var buf bytes.Buffer
		require.NoError(t, Export(&buf, deals))
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 2)
		assert.Equal(t, "Company,Description,Value,Stage,Priority,Probability", lines[0])
		assert.Contains(t, lines[1], "Acme")
		assert.Contains(t, lines[1], "1000")
	})

	t.Run("internal quotes are doubled", func(t *testing.T) {
		deals := []pipeline.Deal{
			{Company: `Bob's "Best" Co`, Stage: pipeline.StageDemo, Priority: pipeline.PriorityLow},
		}
		var buf bytes.Buffer
		require.NoError(t, Export(&buf, deals))
		assert.Contains(t, buf.String(), `"Bob's ""Best"" Co"`)
	})
}

func TestExportFilename(t *testing.T) {
	name := ExportFilename(importNow)
	assert.True(t, strings.HasPrefix(name, "export_"), name)
	assert.True(t, strings.HasSuffix(name, ".csv"), name)
}

func TestImport(t *testing.T) {
	t.Run("round-trips the exported fields", func(t *testing.T) {
		deals := []pipeline.Deal{
			{Company: "Acme", Description: "Widget deal", Value: 1000, Stage: pipeline.StageProposal, Priority: pipeline.PriorityHigh, Probability: 60},
		}
		var buf bytes.Buffer
		require.NoError(t, Export(&buf, deals))

		result, err := Import(&buf, importNow)
		require.NoError(t, err)
		require.Len(t, result.Deals, 1)
		got := result.Deals[0]
		assert.Equal(t, "Acme", got.Company)
		assert.Equal(t, "Widget deal", got.Description)
		assert.Equal(t, 1000.0, got.Value)
		assert.Equal(t, pipeline.StageProposal, got.Stage)
		assert.Equal(t, pipeline.PriorityHigh, got.Priority)
		assert.Equal(t, 60, got.Probability)
		// id, assignee and due date are regenerated by design
		assert.True(t, strings.HasPrefix(got.ID, "imp-"), got.ID)
		require.Len(t, got.Assignees, 1)
		assert.Equal(t, "Unassigned", got.Assignees[0].Name)
		assert.Equal(t, "2026-08-31", got.DueDate)
		assert.Equal(t, 0, got.DaysInStage)
	})

	t.Run("single quoted row in replace mode", func(t *testing.T) {
		input := "Company,Description,Value,Stage,Priority,Probability\n" +
			`"Acme","Widget",1000,Proposal,high,60` + "\n"
		result, err := Import(strings.NewReader(input), importNow)
		require.NoError(t, err)

		merged := Merge([]pipeline.Deal{{ID: "old"}}, result.Deals, ModeReplace)
		require.Len(t, merged, 1)
		assert.Equal(t, "Acme", merged[0].Company)
		assert.Equal(t, 1000.0, merged[0].Value)
		assert.Equal(t, pipeline.StageProposal, merged[0].Stage)
	})

	t.Run("header compare is case-insensitive", func(t *testing.T) {
		input := "company,DESCRIPTION,value,stage,priority,probability\nAcme,,100,Demo,low,10\n"
		result, err := Import(strings.NewReader(input), importNow)
		require.NoError(t, err)
		assert.Len(t, result.Deals, 1)
	})

	t.Run("mismatched header aborts", func(t *testing.T) {
		input := "Company,Description,Value,Stage,Priority\nAcme,,100,Demo,low\n"
		_, err := Import(strings.NewReader(input), importNow)
		assert.ErrorIs(t, err, ErrHeaderMismatch)
	})

	t.Run("short rows are skipped silently", func(t *testing.T) {
		input := "Company,Description,Value,Stage,Priority,Probability\n" +
			"OnlyOneField\n" +
			"Acme,,100,Demo,low,10\n"
		result, err := Import(strings.NewReader(input), importNow)
		require.NoError(t, err)
		assert.Len(t, result.Deals, 1)
		assert.Equal(t, 1, result.Skipped)
	})

	t.Run("zero parsed rows aborts", func(t *testing.T) {
		input := "Company,Description,Value,Stage,Priority,Probability\nshort\n"
		_, err := Import(strings.NewReader(input), importNow)
		assert.ErrorIs(t, err, ErrNoParsedRows)
	})

	t.Run("numeric fields fall back to zero", func(t *testing.T) {
		input := "Company,Description,Value,Stage,Priority,Probability\nAcme,,lots,Demo,low,many\n"
		result, err := Import(strings.NewReader(input), importNow)
		require.NoError(t, err)
		require.Len(t, result.Deals, 1)
		assert.Zero(t, result.Deals[0].Value)
		assert.Zero(t, result.Deals[0].Probability)
	})

	t.Run("unknown stage and priority get defaults", func(t *testing.T) {
		input := "Company,Description,Value,Stage,Priority,Probability\nAcme,,100,Limbo,urgent,10\n"
		result, err := Import(strings.NewReader(input), importNow)
		require.NoError(t, err)
		require.Len(t, result.Deals, 1)
		assert.Equal(t, pipeline.StageLeadGen, result.Deals[0].Stage)
		assert.Equal(t, pipeline.PriorityMedium, result.Deals[0].Priority)
	})
}

func TestMerge_Append(t *testing.T) {
	existing := []pipeline.Deal{{ID: "a"}, {ID: "b"}}
	imported := []pipeline.Deal{{ID: "imp-1"}}
	merged := Merge(existing, imported, ModeAppend)
	require.Len(t, merged, 3)
	assert.Equal(t, "imp-1", merged[0].ID, "imported rows are prepended")
	assert.Equal(t, "a", merged[1].ID)
}
