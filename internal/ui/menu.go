package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

type menuOption struct {
	id       string
	keywords []string
	synonyms []string
}

const (
	menuBoard    = "board"
	menuTable    = "table"
	menuNewLead  = "new-lead"
	menuFilters  = "filters"
	menuImport   = "import"
	menuExport   = "export"
	menuSettings = "settings"
	menuQuit     = "quit"
)

var mainMenuOptions = []menuOption{
	{
		id:       menuBoard,
		keywords: []string{"board", "kanban"},
		synonyms: []string{"1", "b", "board", "kanban"},
	},
	{
		id:       menuTable,
		keywords: []string{"table", "list"},
		synonyms: []string{"2", "t", "table", "list"},
	},
	{
		id:       menuNewLead,
		keywords: []string{"lead", "new", "add"},
		synonyms: []string{"3", "lead", "new lead", "add lead", "new"},
	},
	{
		id:       menuFilters,
		keywords: []string{"filters", "search"},
		synonyms: []string{"4", "f", "filter", "filters", "search"},
	},
	{
		id:       menuImport,
		keywords: []string{"import"},
		synonyms: []string{"5", "import", "import csv"},
	},
	{
		id:       menuExport,
		keywords: []string{"export"},
		synonyms: []string{"6", "export", "export csv"},
	},
	{
		id:       menuSettings,
		keywords: []string{"settings", "help"},
		synonyms: []string{"7", "settings", "help", "settings & help"},
	},
	{
		id:       menuQuit,
		keywords: []string{"quit", "exit"},
		synonyms: []string{"8", "quit", "exit", "exit.", "q"},
	},
}

func resolveMainMenuSelection(input string) (string, bool) {
	value := strings.TrimSpace(strings.ToLower(input))
	if value == "" {
		return "", false
	}
	// direct matches first
	for _, option := range mainMenuOptions {
		for _, syn := range option.synonyms {
			if value == syn {
				return option.id, true
			}
		}
	}

	matches := make(map[string]struct{})
	for _, option := range mainMenuOptions {
		for _, keyword := range option.keywords {
			if strings.HasPrefix(keyword, value) {
				matches[option.id] = struct{}{}
				break
			}
		}
	}
	if len(matches) == 1 {
		for id := range matches {
			return id, true
		}
	}
	return "", false
}

// MAIN MENU
func (m *model) updateMainMenu(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	if focus := m.ensureMenuInput("Choose an option", 64); focus != nil {
		cmds = append(cmds, focus)
	}

	var cmd tea.Cmd
	m.menuInput, cmd = m.menuInput.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEnter {
		choice := strings.TrimSpace(strings.ToLower(m.menuInput.Value()))
		m.menuInput.SetValue("")
		m.showSplash = false
		action, ok := resolveMainMenuSelection(choice)
		if !ok {
			if choice == "" || choice == "0" {
				return batchCmds(cmds)
			}
			m.errMessage = "Unknown choice"
			return batchCmds(cmds)
		}
		switch action {
		case menuBoard:
			m.resetMessages()
			m.refreshDeals()
			m.pushState(stateBoard)
			if focus := m.setMenuInput("Command (move N stage, lost N, f=filters, /)", 96); focus != nil {
				cmds = append(cmds, focus)
			}
		case menuTable:
			m.resetMessages()
			m.refreshDeals()
			m.pushState(stateTable)
			if focus := m.setMenuInput("Command (sort key, page N, f=filters, /)", 96); focus != nil {
				cmds = append(cmds, focus)
			}
		case menuNewLead:
			m.resetMessages()
			m.leadWizard = newLeadWizard()
			m.pushState(stateLeadWizard)
		case menuFilters:
			m.resetMessages()
			m.pushState(stateFilters)
			if focus := m.setMenuInput("search/assignee/stage/priority/due/clear", 96); focus != nil {
				cmds = append(cmds, focus)
			}
		case menuImport:
			m.resetMessages()
			m.importFlow = newImportFlow()
			m.pushState(stateImportPath)
		case menuExport:
			m.resetMessages()
			m.refreshDeals()
			m.exportFlow = newExportFlow()
			m.pushState(stateExport)
		case menuSettings:
			m.resetMessages()
			m.settings = newSettings()
			m.pushState(stateSettings)
			if focus := m.setMenuInput("1=Name 2=Timezone 3=Page size 4=Debug 5=Back", 64); focus != nil {
				cmds = append(cmds, focus)
			}
		case menuQuit:
			cmds = append(cmds, tea.Quit)
		}
	}

	return batchCmds(cmds)
}

func (m *model) viewMainMenu() string {
	lines := []string{}
	if m.showSplash {
		lines = append(lines, splashBanner)
		lines = append(lines, "")
	}
	lines = append(lines, m.theme.Title.Render("Pipeterm"))
	lines = append(lines, m.theme.Secondary.Render("Sales pipeline, in your terminal"))
	lines = append(lines, m.summaryStrip())
	if m.infoMessage != "" {
		lines = append(lines, m.theme.Success.Render(m.infoMessage))
	}
	if m.errMessage != "" {
		lines = append(lines, m.theme.Danger.Render(m.errMessage))
	}
	menu := []string{
		"1. Board (kanban)",
		"2. Table",
		"3. New lead",
		"4. Filters",
		"5. Import CSV",
		"6. Export CSV",
		"7. Settings & Help",
		"8. Quit",
	}
	lines = append(lines, "")
	for _, item := range menu {
		lines = append(lines, m.theme.Primary.Render(item))
	}
	lines = append(lines, "")
	lines = append(lines, m.theme.Accent.Render("> ")+m.menuInput.View())
	return strings.Join(lines, "\n") + "\n"
}
