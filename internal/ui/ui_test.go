package ui

import (
	"fmt"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/paginator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pipeterm/internal/config"
	"pipeterm/internal/pipeline"
)

func TestResolveMainMenuSelection(t *testing.T) {
	cases := []struct {
		input string
		want  string
		ok    bool
	}{
		{"1", menuBoard, true},
		{"b", menuBoard, true},
		{"kanban", menuBoard, true},
		{"Table", menuTable, true},
		{"new lead", menuNewLead, true},
		{"imp", menuImport, true},
		{"exp", menuExport, true},
		{"q", menuQuit, true},
		{"filt", menuFilters, true},
		{"xyz", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			got, ok := resolveMainMenuSelection(tc.input)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDealByCard(t *testing.T) {
	m := &model{visible: []pipeline.Deal{
		{ID: "a", Company: "Acme"},
		{ID: "b", Company: "Globex"},
	}}

	t.Run("index and hash prefix", func(t *testing.T) {
		deal, ok := m.dealByCard("2")
		require.True(t, ok)
		assert.Equal(t, "Globex", deal.Company)

		deal, ok = m.dealByCard("#1")
		require.True(t, ok)
		assert.Equal(t, "Acme", deal.Company)
	})

	t.Run("out of range", func(t *testing.T) {
		_, ok := m.dealByCard("0")
		assert.False(t, ok)
		_, ok = m.dealByCard("3")
		assert.False(t, ok)
		_, ok = m.dealByCard("two")
		assert.False(t, ok)
	})
}

func TestDescribeFilters(t *testing.T) {
	assert.Equal(t, "none", describeFilters(pipeline.DefaultFilters()))

	f := pipeline.DefaultFilters()
	f.Search = "acme"
	f.Stage = string(pipeline.StageDemo)
	f.DateFrom = "2026-01-01"
	f.DateTo = "2026-03-31"
	got := describeFilters(f)
	assert.Contains(t, got, `search="acme"`)
	assert.Contains(t, got, "stage=Demo")
	assert.Contains(t, got, "due=2026-01-01..2026-03-31")
	assert.NotContains(t, got, "assignee")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "long w…", truncate("long words here", 7))
	// multi-byte runes are never split
	assert.Equal(t, "héll…", truncate("héllo wörld", 5))
}

func TestBuildLead(t *testing.T) {
	t.Run("company", func(t *testing.T) {
		fields := leadFields(pipeline.LeadCompany)
		fields[0].value = "Acme Corp"
		fields[1].value = "Jane Smith"
		fields[4].value = "15000"
		fields[5].value = "hot"
		fields[6].value = "qual"
		fields[9].value = "enterprise, q3"

		lead := buildLead(pipeline.LeadCompany, fields)
		assert.Equal(t, "Acme Corp", lead.Company)
		assert.Equal(t, "Jane Smith", lead.Contact)
		assert.Equal(t, pipeline.RatingHot, lead.Rating)
		assert.Equal(t, pipeline.StageQualification, lead.Stage)
		assert.Equal(t, []string{"enterprise", "q3"}, lead.Tags)
		require.NoError(t, lead.Validate())
	})

	t.Run("individual", func(t *testing.T) {
		fields := leadFields(pipeline.LeadIndividual)
		fields[0].value = "Ada"
		fields[1].value = "Lovelace"
		fields[4].value = "2500"
		fields[5].value = "Warm"

		lead := buildLead(pipeline.LeadIndividual, fields)
		require.NoError(t, lead.Validate())
		deal, err := lead.Deal(time.Now(), "tester")
		require.NoError(t, err)
		assert.Equal(t, "Ada Lovelace", deal.Company)
		assert.Equal(t, pipeline.PriorityMedium, deal.Priority)
	})

	t.Run("bad rating stays unset", func(t *testing.T) {
		fields := leadFields(pipeline.LeadCompany)
		fields[0].value = "Acme"
		fields[4].value = "100"
		fields[5].value = "blazing"

		lead := buildLead(pipeline.LeadCompany, fields)
		assert.Error(t, lead.Validate())
	})
}

func TestRecomputePagerTracksEmptyList(t *testing.T) {
	m := &model{
		cfg:     &config.Store{Config: config.Data{PageSize: 8}},
		log:     zap.NewNop(),
		filters: pipeline.DefaultFilters(),
		page:    1,
		pager:   paginator.New(),
	}
	m.pager.PerPage = 8
	m.grid = newDealTable(8)
	for i := 0; i < 17; i++ {
		m.deals = append(m.deals, pipeline.Deal{ID: fmt.Sprintf("d%d", i), Company: fmt.Sprintf("Co %d", i)})
	}
	m.recompute()
	require.Equal(t, 3, m.pager.TotalPages)

	f := pipeline.DefaultFilters()
	f.Search = "no such company anywhere"
	m.setFilters(f)

	assert.Empty(t, m.visible)
	assert.Equal(t, 1, m.page)
	assert.Equal(t, 1, m.pager.TotalPages)
}

func TestCommandHelpers(t *testing.T) {
	assert.True(t, isExitCommand("exit."))
	assert.True(t, isExitCommand(" QUIT "))
	assert.False(t, isExitCommand("exit please"))
	assert.True(t, isBackCommand("/"))
	assert.True(t, isBackCommand("back"))
	assert.False(t, isBackCommand("backwards"))
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$1500", formatMoney(1500))
	assert.Equal(t, "$0", formatMoney(0))
}

func TestFormatDue(t *testing.T) {
	assert.Equal(t, "Mar 05", formatDue("2026-03-05", time.UTC))
	assert.Equal(t, "not-a-date", formatDue("not-a-date", time.UTC))
}
