package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"pipeterm/internal/pipeline"
)

func newDealTable(pageSize int) table.Model {
	columns := []table.Column{
		{Title: "#", Width: 4},
		{Title: "Company", Width: 18},
		{Title: "Contact", Width: 16},
		{Title: "Value", Width: 10},
		{Title: "Stage", Width: 14},
		{Title: "Priority", Width: 8},
		{Title: "Prob", Width: 5},
		{Title: "Due", Width: 10},
		{Title: "Days", Width: 5},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(pageSize+1),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true)
	t.SetStyles(styles)
	return t
}

// syncTable rebuilds the grid rows for the current page.
func (m *model) syncTable() {
	pageDeals := pipeline.Page(m.visible, m.page, m.pageSize())
	rows := make([]table.Row, 0, len(pageDeals))
	offset := (m.page - 1) * m.pageSize()
	for i, d := range pageDeals {
		rows = append(rows, table.Row{
			strconv.Itoa(offset + i + 1),
			d.Company,
			d.ContactPerson,
			formatMoney(d.Value),
			string(d.Stage),
			string(d.Priority),
			fmt.Sprintf("%d%%", d.Probability),
			d.DueDate,
			strconv.Itoa(d.DaysInStage),
		})
	}
	m.grid.SetRows(rows)
}

// TABLE
func (m *model) updateTable(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	if focus := m.ensureMenuInput("Command (sort key, page N, f=filters, /)", 96); focus != nil {
		cmds = append(cmds, focus)
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyUp, tea.KeyDown, tea.KeyPgUp, tea.KeyPgDown:
			// cursor movement belongs to the grid, everything else to the prompt
			var cmd tea.Cmd
			m.grid, cmd = m.grid.Update(msg)
			if cmd != nil {
				cmds = append(cmds, cmd)
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

	var cmd tea.Cmd
	m.menuInput, cmd = m.menuInput.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEnter {
		value := strings.TrimSpace(m.menuInput.Value())
		m.menuInput.SetValue("")
		if next := m.runTableCommand(value); next != nil {
			cmds = append(cmds, next)
		}
	}
	return batchCmds(cmds)
}

func (m *model) runTableCommand(value string) tea.Cmd {
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
	case "b", "board", "kanban":
		m.resetMessages()
		m.state = stateBoard
		return m.setMenuInput("Command (move N stage, lost N, f=filters, /)", 96)
	case "sort":
		if len(fields) != 2 {
			m.errMessage = "Usage: sort <" + strings.Join(pipeline.SortKeys, "|") + ">"
			return nil
		}
		m.toggleSort(strings.ToLower(fields[1]))
		return nil
	case "page":
		if len(fields) != 2 {
			m.errMessage = "Usage: page <number>"
			return nil
		}
		m.gotoPage(fields[1])
		return nil
	case "n", "next":
		m.setPage(m.page + 1)
		return nil
	case "p", "prev":
		m.setPage(m.page - 1)
		return nil
	}
	m.errMessage = "Unknown command"
	return nil
}

// toggleSort mimics the header-click behavior: selecting a new key starts
// descending, selecting it again flips direction.
func (m *model) toggleSort(key string) {
	valid := false
	for _, k := range pipeline.SortKeys {
		if k == key {
			valid = true
			break
		}
	}
	if !valid {
		m.errMessage = fmt.Sprintf("Unknown sort key %q", key)
		return
	}
	m.resetMessages()
	if m.sort.Key == key {
		m.sort.Desc = !m.sort.Desc
	} else {
		m.sort = pipeline.Sort{Key: key, Desc: true}
	}
	m.recompute()
}

func (m *model) gotoPage(ref string) {
	n, err := strconv.Atoi(ref)
	if err != nil {
		m.errMessage = "Page must be a number"
		return
	}
	m.setPage(n)
}

func (m *model) setPage(n int) {
	total := pipeline.TotalPages(len(m.visible), m.pageSize())
	if n < 1 {
		n = 1
	}
	if n > total {
		n = total
	}
	m.resetMessages()
	m.page = n
	m.recompute()
}

func (m *model) viewTable() string {
	total := pipeline.TotalPages(len(m.visible), m.pageSize())
	lines := []string{m.theme.Title.Render("Deals")}
	sortLabel := "none"
	if m.sort.Key != "" {
		dir := "asc"
		if m.sort.Desc {
			dir = "desc"
		}
		sortLabel = m.sort.Key + " " + dir
	}
	lines = append(lines, m.theme.Faint.Render(fmt.Sprintf(
		"sort <key>  •  page <n>  •  n/p  •  f=filters  •  b=board  •  '/' back  —  sorted by %s", sortLabel)))
	if !m.filters.IsDefault() {
		lines = append(lines, m.theme.Warning.Render("Filters active: "+describeFilters(m.filters)))
	}
	lines = append(lines, "")
	lines = append(lines, m.grid.View())
	lines = append(lines, "")
	lines = append(lines, m.pager.View()+"  "+m.theme.Secondary.Render(fmt.Sprintf("Page %d of %d  (%d deals)", m.page, total, len(m.visible))))
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
