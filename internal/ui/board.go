package ui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pipeterm/internal/pipeline"
	"pipeterm/internal/storage"
)

const boardColumnWidth = 24

// BOARD (KANBAN)
func (m *model) updateBoard(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	if focus := m.ensureMenuInput("Command (move N stage, lost N, f=filters, /)", 96); focus != nil {
		cmds = append(cmds, focus)
	}
	var cmd tea.Cmd
	m.menuInput, cmd = m.menuInput.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			value := strings.TrimSpace(m.menuInput.Value())
			m.menuInput.SetValue("")
			if confirmCmd := m.runBoardCommand(value); confirmCmd != nil {
				cmds = append(cmds, confirmCmd)
			}
			return batchCmds(cmds)
		case tea.KeyEsc:
			m.popState()
			if m.state == stateMainMenu {
				if focus := m.setMenuInput("Choose an option", 64); focus != nil {
					cmds = append(cmds, focus)
				}
			}
			return batchCmds(cmds)
		}
	}
	return batchCmds(cmds)
}

func (m *model) runBoardCommand(value string) tea.Cmd {
	switch {
	case value == "":
		return nil
	case isExitCommand(value):
		return m.goHome()
	case isBackCommand(value):
		m.popState()
		if m.state == stateMainMenu {
			return m.setMenuInput("Choose an option", 64)
		}
		return nil
	}

	fields := strings.Fields(value)
	verb := strings.ToLower(fields[0])
	switch verb {
	case "r", "refresh":
		m.resetMessages()
		m.refreshDeals()
		return nil
	case "f", "filter", "filters":
		m.resetMessages()
		m.pushState(stateFilters)
		return m.setMenuInput("search/assignee/stage/priority/due/clear", 96)
	case "t", "table":
		m.resetMessages()
		m.state = stateTable
		return m.setMenuInput("Command (sort key, page N, f=filters, /)", 96)
	case "move":
		if len(fields) < 3 {
			m.errMessage = "Usage: move <card> <stage>"
			return nil
		}
		return m.moveCommand(fields[1], strings.Join(fields[2:], " "))
	case "lost":
		if len(fields) != 2 {
			m.errMessage = "Usage: lost <card>"
			return nil
		}
		return m.markLostCommand(fields[1])
	}
	m.errMessage = "Unknown command"
	return nil
}

func (m *model) dealByCard(ref string) (pipeline.Deal, bool) {
	idx, err := strconv.Atoi(strings.TrimPrefix(ref, "#"))
	if err != nil || idx < 1 || idx > len(m.visible) {
		return pipeline.Deal{}, false
	}
	return m.visible[idx-1], true
}

func (m *model) moveCommand(cardRef, stageRef string) tea.Cmd {
	m.resetMessages()
	deal, ok := m.dealByCard(cardRef)
	if !ok {
		m.errMessage = "No such card"
		return nil
	}
	target, ok := pipeline.StageByName(stageRef)
	if !ok {
		m.errMessage = fmt.Sprintf("Unknown stage %q", stageRef)
		return nil
	}
	if deal.Stage == target {
		m.infoMessage = "Deal is already in that stage"
		return nil
	}
	if pipeline.IsTerminal(deal.Stage) {
		m.errMessage = fmt.Sprintf("'%s' is closed and cannot move", deal.Company)
		return nil
	}
	if target == pipeline.StageClosedWon {
		id, company := deal.ID, deal.Company
		return m.requestConfirm(
			fmt.Sprintf("Mark '%s' as Closed Won?", company),
			func() tea.Cmd {
				m.moveDeal(id, company, pipeline.StageClosedWon)
				return nil
			},
		)
	}
	m.moveDeal(deal.ID, deal.Company, target)
	return nil
}

func (m *model) markLostCommand(cardRef string) tea.Cmd {
	m.resetMessages()
	deal, ok := m.dealByCard(cardRef)
	if !ok {
		m.errMessage = "No such card"
		return nil
	}
	if pipeline.IsTerminal(deal.Stage) {
		m.errMessage = fmt.Sprintf("'%s' is already closed", deal.Company)
		return nil
	}
	id, company := deal.ID, deal.Company
	return m.requestConfirm(
		fmt.Sprintf("Mark '%s' as Closed Lost?", company),
		func() tea.Cmd {
			m.moveDeal(id, company, pipeline.StageClosedLost)
			return nil
		},
	)
}

func (m *model) moveDeal(id, company string, target pipeline.Stage) {
	deals, err := m.store.MoveStage(context.Background(), id, target, m.cfg.Config.Name)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrTerminalStage):
			m.errMessage = fmt.Sprintf("'%s' is closed and cannot move", company)
		case errors.Is(err, storage.ErrNotFound):
			m.errMessage = "Deal no longer exists"
		default:
			m.errMessage = fmt.Sprintf("move deal: %v", err)
		}
		m.applyDeals(deals)
		return
	}
	m.applyDeals(deals)
	m.infoMessage = fmt.Sprintf("'%s' moved to %s", company, target)
}

func (m *model) viewBoard() string {
	lines := []string{m.theme.Title.Render("Pipeline Board")}
	lines = append(lines, m.summaryStrip())
	lines = append(lines, m.theme.Faint.Render("move <card> <stage>  •  lost <card>  •  f=filters  •  t=table  •  r=refresh  •  '/' back"))
	if !m.filters.IsDefault() {
		lines = append(lines, m.theme.Warning.Render("Filters active: "+describeFilters(m.filters)))
	}
	lines = append(lines, "")

	columns := pipeline.GroupByStage(m.visible)
	cardNumbers := make(map[string]int, len(m.visible))
	for i, d := range m.visible {
		cardNumbers[d.ID] = i + 1
	}

	rendered := make([]string, 0, len(pipeline.Stages))
	for _, stage := range pipeline.Stages {
		rendered = append(rendered, m.renderColumn(stage, columns[stage], cardNumbers))
	}
	perRow := m.columnsPerRow()
	for start := 0; start < len(rendered); start += perRow {
		end := start + perRow
		if end > len(rendered) {
			end = len(rendered)
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, rendered[start:end]...))
	}

	if m.infoMessage != "" {
		lines = append(lines, "", m.theme.Success.Render(m.infoMessage))
	}
	if m.errMessage != "" {
		lines = append(lines, "", m.theme.Danger.Render(m.errMessage))
	}
	lines = append(lines, "")
	lines = append(lines, m.theme.Accent.Render("cmd> ")+m.menuInput.View())
	return strings.Join(lines, "\n") + "\n"
}

func (m *model) columnsPerRow() int {
	if m.width <= 0 {
		return 4
	}
	per := m.width / (boardColumnWidth + 4)
	if per < 1 {
		return 1
	}
	return per
}

func (m *model) renderColumn(stage pipeline.Stage, deals []pipeline.Deal, cardNumbers map[string]int) string {
	header := m.theme.StageStyle(stage).Render(fmt.Sprintf("%s (%d)", stage, len(deals)))
	body := []string{header}
	if len(deals) == 0 {
		body = append(body, m.theme.Faint.Render("(empty)"))
	}
	for _, d := range deals {
		marker := m.theme.PriorityStyle(d.Priority).Render("●")
		title := truncate(fmt.Sprintf("%d. %s", cardNumbers[d.ID], d.Company), boardColumnWidth-2)
		body = append(body, marker+" "+m.theme.Primary.Render(title))
		meta := truncate(fmt.Sprintf("%s  %d%%", formatMoney(d.Value), d.Probability), boardColumnWidth-2)
		body = append(body, "  "+m.theme.Secondary.Render(meta))
		if d.DueDate != "" {
			body = append(body, "  "+m.theme.Faint.Render("due "+formatDue(d.DueDate, m.cfg.Location())))
		}
	}
	return m.theme.Column.Width(boardColumnWidth).Render(strings.Join(body, "\n"))
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if max <= 1 || len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

func describeFilters(f pipeline.Filters) string {
	var parts []string
	if strings.TrimSpace(f.Search) != "" {
		parts = append(parts, fmt.Sprintf("search=%q", f.Search))
	}
	if f.Assignee != "" && f.Assignee != pipeline.FilterAll {
		parts = append(parts, "assignee="+f.Assignee)
	}
	if f.Stage != "" && f.Stage != pipeline.FilterAll {
		parts = append(parts, "stage="+f.Stage)
	}
	if f.Priority != "" && f.Priority != pipeline.FilterAll {
		parts = append(parts, "priority="+f.Priority)
	}
	if f.DateFrom != "" || f.DateTo != "" {
		parts = append(parts, fmt.Sprintf("due=%s..%s", f.DateFrom, f.DateTo))
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}
