package pipeline

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDeals() []Deal {
	return []Deal{
		{ID: "1", Company: "Acme", ContactPerson: "Ada Price", Value: 1000, Probability: 60, Stage: StageProposal, Priority: PriorityHigh, Assignees: []Assignee{{Name: "Maya"}}, DueDate: "2026-09-10"},
		{ID: "2", Company: "Globex", ContactPerson: "Hank Scorpio", Value: 5400, Probability: 30, Stage: StageLeadGen, Priority: PriorityLow, Assignees: []Assignee{{Name: "Tom"}}, DueDate: "2026-08-01"},
		{ID: "3", Company: "Initech", ContactPerson: "Bill Lumbergh", Value: 250, Probability: 90, Stage: StageNegotiation, Priority: PriorityMedium, Assignees: []Assignee{{Name: "Maya"}, {Name: "Tom"}}, DueDate: "2026-10-02"},
		{ID: "4", Company: "Stark Industries", ContactPerson: "Pepper Potts", Value: 9800, Probability: 75, Stage: StageClosedWon, Priority: PriorityHigh, Assignees: []Assignee{{Name: "Ana"}}, DueDate: "2026-07-15"},
	}
}

func TestApply_DefaultFiltersAreIdentity(t *testing.T) {
	deals := sampleDeals()
	got := Apply(deals, DefaultFilters(), Sort{})
	require.Len(t, got, len(deals))

	ids := map[string]bool{}
	for _, d := range got {
		ids[d.ID] = true
	}
	for _, d := range deals {
		assert.True(t, ids[d.ID], "deal %s missing from default-filter result", d.ID)
	}
}

func TestApply_TextSearch(t *testing.T) {
	deals := sampleDeals()

	t.Run("matches company case-insensitively", func(t *testing.T) {
		f := DefaultFilters()
		f.Search = "aCmE"
		got := Apply(deals, f, Sort{})
		require.Len(t, got, 1)
		assert.Equal(t, "Acme", got[0].Company)
	})

	t.Run("matches contact person", func(t *testing.T) {
		f := DefaultFilters()
		f.Search = "scorpio"
		got := Apply(deals, f, Sort{})
		require.Len(t, got, 1)
		assert.Equal(t, "Globex", got[0].Company)
	})

	t.Run("matches across the company/contact boundary", func(t *testing.T) {
		f := DefaultFilters()
		f.Search = "acmeada"
		got := Apply(deals, f, Sort{})
		require.Len(t, got, 1)
		assert.Equal(t, "Acme", got[0].Company)
	})

	t.Run("empty search matches everything", func(t *testing.T) {
		f := DefaultFilters()
		f.Search = "   "
		assert.Len(t, Apply(deals, f, Sort{}), len(deals))
	})
}

func TestApply_FieldFilters(t *testing.T) {
	deals := sampleDeals()

	t.Run("assignee", func(t *testing.T) {
		f := DefaultFilters()
		f.Assignee = "Maya"
		got := Apply(deals, f, Sort{})
		require.Len(t, got, 2)
	})

	t.Run("stage", func(t *testing.T) {
		f := DefaultFilters()
		f.Stage = string(StageNegotiation)
		got := Apply(deals, f, Sort{})
		require.Len(t, got, 1)
		assert.Equal(t, "Initech", got[0].Company)
	})

	t.Run("priority", func(t *testing.T) {
		f := DefaultFilters()
		f.Priority = string(PriorityHigh)
		assert.Len(t, Apply(deals, f, Sort{}), 2)
	})

	t.Run("filters combine with AND", func(t *testing.T) {
		f := DefaultFilters()
		f.Assignee = "Maya"
		f.Priority = string(PriorityHigh)
		got := Apply(deals, f, Sort{})
		require.Len(t, got, 1)
		assert.Equal(t, "Acme", got[0].Company)
	})
}

func TestApply_DateRange(t *testing.T) {
	deals := sampleDeals()

	t.Run("inclusive bounds", func(t *testing.T) {
		f := DefaultFilters()
		f.DateFrom = "2026-08-01"
		f.DateTo = "2026-09-10"
		got := Apply(deals, f, Sort{})
		require.Len(t, got, 2)
	})

	t.Run("open lower bound", func(t *testing.T) {
		f := DefaultFilters()
		f.DateTo = "2026-08-01"
		got := Apply(deals, f, Sort{})
		require.Len(t, got, 2) // Globex and Stark
	})

	t.Run("open upper bound", func(t *testing.T) {
		f := DefaultFilters()
		f.DateFrom = "2026-10-01"
		got := Apply(deals, f, Sort{})
		require.Len(t, got, 1)
		assert.Equal(t, "Initech", got[0].Company)
	})
}

func TestApply_SortDirectionsMirror(t *testing.T) {
	deals := sampleDeals() // no ties on value
	asc := Apply(deals, DefaultFilters(), Sort{Key: SortValue})
	desc := Apply(deals, DefaultFilters(), Sort{Key: SortValue, Desc: true})
	require.Len(t, asc, len(desc))
	for i := range asc {
		assert.Equal(t, asc[i].ID, desc[len(desc)-1-i].ID)
	}
}

func TestApply_SortKeys(t *testing.T) {
	deals := sampleDeals()

	t.Run("numeric", func(t *testing.T) {
		got := Apply(deals, DefaultFilters(), Sort{Key: SortProbability})
		probs := make([]int, 0, len(got))
		for _, d := range got {
			probs = append(probs, d.Probability)
		}
		assert.IsNonDecreasing(t, probs)
	})

	t.Run("string", func(t *testing.T) {
		got := Apply(deals, DefaultFilters(), Sort{Key: SortCompany})
		require.NotEmpty(t, got)
		for i := 1; i < len(got); i++ {
			assert.LessOrEqual(t, got[i-1].Company, got[i].Company)
		}
	})

	t.Run("unknown key keeps order", func(t *testing.T) {
		got := Apply(deals, DefaultFilters(), Sort{Key: "bogus"})
		for i, d := range got {
			assert.Equal(t, deals[i].ID, d.ID)
		}
	})
}

func TestApply_EmptyInput(t *testing.T) {
	assert.Empty(t, Apply(nil, DefaultFilters(), Sort{Key: SortValue}))
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	deals := sampleDeals()
	want := fmt.Sprintf("%v", deals)
	Apply(deals, DefaultFilters(), Sort{Key: SortValue, Desc: true})
	assert.Equal(t, want, fmt.Sprintf("%v", deals))
}

func TestAssigneeNames(t *testing.T) {
	names := AssigneeNames(sampleDeals())
	assert.Equal(t, []string{"Ana", "Maya", "Tom"}, names)
}
