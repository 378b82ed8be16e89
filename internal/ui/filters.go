package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"pipeterm/internal/pipeline"
)

// FILTERS
func (m *model) updateFilters(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	if focus := m.ensureMenuInput("search/assignee/stage/priority/due/clear", 96); focus != nil {
		cmds = append(cmds, focus)
	}

	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEsc {
		m.popState()
		return batchCmds(cmds)
	}

	var cmd tea.Cmd
	m.menuInput, cmd = m.menuInput.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEnter {
		value := strings.TrimSpace(m.menuInput.Value())
		m.menuInput.SetValue("")
		if next := m.runFilterCommand(value); next != nil {
			cmds = append(cmds, next)
		}
	}
	return batchCmds(cmds)
}

func (m *model) runFilterCommand(value string) tea.Cmd {
	switch {
	case value == "":
		return nil
	case isExitCommand(value):
		return m.goHome()
	case isBackCommand(value):
		m.popState()
		return nil
	}

	fields := strings.Fields(value)
	verb := strings.ToLower(fields[0])
	rest := strings.TrimSpace(strings.TrimPrefix(value, fields[0]))
	f := m.filters

	switch verb {
	case "clear":
		m.resetMessages()
		m.setFilters(pipeline.DefaultFilters())
		m.infoMessage = "Filters cleared"
		return nil
	case "s", "search":
		m.resetMessages()
		f.Search = rest
		m.setFilters(f)
		return nil
	case "assignee", "a":
		m.resetMessages()
		if rest == "" || strings.EqualFold(rest, pipeline.FilterAll) {
			f.Assignee = pipeline.FilterAll
		} else {
			f.Assignee = rest
		}
		m.setFilters(f)
		return nil
	case "stage":
		m.resetMessages()
		if rest == "" || strings.EqualFold(rest, pipeline.FilterAll) {
			f.Stage = pipeline.FilterAll
			m.setFilters(f)
			return nil
		}
		stage, ok := pipeline.StageByName(rest)
		if !ok {
			m.errMessage = fmt.Sprintf("Unknown stage %q", rest)
			return nil
		}
		f.Stage = string(stage)
		m.setFilters(f)
		return nil
	case "priority", "prio":
		m.resetMessages()
		if rest == "" || strings.EqualFold(rest, pipeline.FilterAll) {
			f.Priority = pipeline.FilterAll
			m.setFilters(f)
			return nil
		}
		switch strings.ToLower(rest) {
		case "low", "medium", "high":
			f.Priority = strings.ToLower(rest)
		default:
			m.errMessage = "Priority must be low, medium or high"
			return nil
		}
		m.setFilters(f)
		return nil
	case "due":
		return m.runDueCommand(fields[1:])
	}
	m.errMessage = "Unknown command"
	return nil
}

func (m *model) runDueCommand(args []string) tea.Cmd {
	f := m.filters
	if len(args) == 1 && strings.EqualFold(args[0], "clear") {
		m.resetMessages()
		f.DateFrom = ""
		f.DateTo = ""
		m.setFilters(f)
		return nil
	}
	if len(args) != 2 {
		m.errMessage = "Usage: due <from> <to> (YYYY-MM-DD) or due clear"
		return nil
	}
	for _, arg := range args {
		if _, err := time.Parse("2006-01-02", arg); err != nil {
			m.errMessage = fmt.Sprintf("Bad date %q, want YYYY-MM-DD", arg)
			return nil
		}
	}
	m.resetMessages()
	f.DateFrom = args[0]
	f.DateTo = args[1]
	m.setFilters(f)
	return nil
}

func (m *model) viewFilters() string {
	lines := []string{m.theme.Title.Render("Filters")}
	lines = append(lines, m.theme.Faint.Render("search <text>  •  assignee <name>  •  stage <name>  •  priority <level>  •  due <from> <to>  •  clear  •  '/' back"))
	lines = append(lines, "")
	lines = append(lines, m.theme.Subtitle.Render("Current"))
	lines = append(lines, m.theme.Secondary.Render("  Search:   ")+orDash(m.filters.Search))
	lines = append(lines, m.theme.Secondary.Render("  Assignee: ")+m.filters.Assignee)
	lines = append(lines, m.theme.Secondary.Render("  Stage:    ")+m.filters.Stage)
	lines = append(lines, m.theme.Secondary.Render("  Priority: ")+m.filters.Priority)
	due := "-"
	if m.filters.DateFrom != "" || m.filters.DateTo != "" {
		due = m.filters.DateFrom + " .. " + m.filters.DateTo
	}
	lines = append(lines, m.theme.Secondary.Render("  Due:      ")+due)
	lines = append(lines, "")

	names := pipeline.AssigneeNames(m.deals)
	if len(names) > 0 {
		lines = append(lines, m.theme.Subtitle.Render("Assignees"))
		lines = append(lines, m.theme.Faint.Render("  "+strings.Join(names, ", ")))
	}
	stageNames := make([]string, 0, len(pipeline.Stages))
	for _, s := range pipeline.Stages {
		stageNames = append(stageNames, string(s))
	}
	lines = append(lines, m.theme.Subtitle.Render("Stages"))
	lines = append(lines, m.theme.Faint.Render("  "+strings.Join(stageNames, ", ")))
	lines = append(lines, "")
	lines = append(lines, m.theme.Secondary.Render(fmt.Sprintf("%d of %d deals match", len(m.visible), len(m.deals))))
	if m.infoMessage != "" {
		lines = append(lines, "", m.theme.Success.Render(m.infoMessage))
	}
	if m.errMessage != "" {
		lines = append(lines, "", m.theme.Danger.Render(m.errMessage))
	}
	lines = append(lines, "")
	lines = append(lines, m.theme.Accent.Render("filter> ")+m.menuInput.View())
	return strings.Join(lines, "\n") + "\n"
}

func orDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}
