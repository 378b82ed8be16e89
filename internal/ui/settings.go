package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type settingsMode int

const (
	settingsViewing settingsMode = iota
	settingsEditingName
	settingsEditingTimezone
	settingsEditingPageSize
)

type settingsModel struct {
	mode  settingsMode
	input textinput.Model
	err   string
}

func newSettings() settingsModel {
	return settingsModel{mode: settingsViewing, input: textinput.New()}
}

// SETTINGS
func (m *model) updateSettings(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	switch m.settings.mode {
	case settingsViewing:
		if focus := m.ensureMenuInput("1=Name 2=Timezone 3=Page size 4=Debug 5=Back", 64); focus != nil {
			cmds = append(cmds, focus)
		}
		var cmd tea.Cmd
		m.menuInput, cmd = m.menuInput.Update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEnter {
			value := strings.TrimSpace(strings.ToLower(m.menuInput.Value()))
			m.menuInput.SetValue("")
			switch value {
			case "1", "name":
				m.settingsEdit(settingsEditingName, m.cfg.Config.Name, &cmds)
			case "2", "timezone":
				m.settingsEdit(settingsEditingTimezone, m.cfg.Config.Timezone, &cmds)
			case "3", "page", "page size", "pagesize":
				m.settingsEdit(settingsEditingPageSize, strconv.Itoa(m.cfg.Config.PageSize), &cmds)
			case "4", "debug":
				m.cfg.Config.Debug = !m.cfg.Config.Debug
				if err := m.cfg.Save(); err != nil {
					m.settings.err = err.Error()
				} else {
					m.settings.err = ""
					m.infoMessage = fmt.Sprintf("Debug logging %s (takes effect on restart)", onOff(m.cfg.Config.Debug))
				}
			case "5", "back", "/":
				m.popState()
				if m.state == stateMainMenu {
					if focus := m.setMenuInput("Choose an option", 64); focus != nil {
						cmds = append(cmds, focus)
					}
				}
			case "exit.", "exit", "quit":
				if focus := m.goHome(); focus != nil {
					cmds = append(cmds, focus)
				}
			default:
				m.settings.err = "Choose 1-5"
			}
		}
	default:
		if !m.settings.input.Focused() {
			if focus := m.settings.input.Focus(); focus != nil {
				cmds = append(cmds, focus)
			}
		}
		var cmd tea.Cmd
		m.settings.input, cmd = m.settings.input.Update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEnter {
			value := strings.TrimSpace(m.settings.input.Value())
			switch {
			case isExitCommand(value):
				m.settings.mode = settingsViewing
				if focus := m.goHome(); focus != nil {
					cmds = append(cmds, focus)
				}
			case isBackCommand(value):
				m.settings.mode = settingsViewing
			default:
				m.applySetting(value)
			}
		}
	}
	return batchCmds(cmds)
}

func (m *model) settingsEdit(mode settingsMode, current string, cmds *[]tea.Cmd) {
	m.settings.mode = mode
	m.settings.input = textinput.New()
	m.settings.input.Prompt = ""
	m.settings.input.CharLimit = 64
	m.settings.input.SetValue(current)
	if focus := m.settings.input.Focus(); focus != nil {
		*cmds = append(*cmds, focus)
	}
}

func (m *model) applySetting(value string) {
	switch m.settings.mode {
	case settingsEditingName:
		if value == "" {
			m.settings.err = "Name cannot be empty"
			return
		}
		m.cfg.Config.Name = value
		m.saveSettings("Name updated")
	case settingsEditingTimezone:
		if value == "" {
			m.settings.err = "Timezone cannot be empty"
			return
		}
		if _, err := time.LoadLocation(value); err != nil {
			m.settings.err = "Invalid timezone"
			return
		}
		m.cfg.Config.Timezone = value
		m.saveSettings("Timezone updated")
	case settingsEditingPageSize:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > 50 {
			m.settings.err = "Page size must be between 1 and 50"
			return
		}
		m.cfg.Config.PageSize = n
		if !m.saveSettings(fmt.Sprintf("Page size set to %d", n)) {
			return
		}
		m.pager.PerPage = n
		m.grid = newDealTable(n)
		m.page = 1
		m.recompute()
	}
}

func (m *model) saveSettings(note string) bool {
	if err := m.cfg.Save(); err != nil {
		m.settings.err = err.Error()
		return false
	}
	m.settings.err = ""
	m.infoMessage = note
	m.settings.mode = settingsViewing
	return true
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func (m *model) viewSettings() string {
	lines := []string{m.theme.Title.Render("Settings & Help")}
	lines = append(lines, m.theme.Faint.Render("'/' goes back, 'exit.' returns home."))
	lines = append(lines, "")
	lines = append(lines, m.theme.Secondary.Render("Name:      "+m.cfg.Config.Name))
	lines = append(lines, m.theme.Secondary.Render("Timezone:  "+m.cfg.Config.Timezone))
	lines = append(lines, m.theme.Secondary.Render(fmt.Sprintf("Page size: %d", m.cfg.Config.PageSize)))
	lines = append(lines, m.theme.Secondary.Render("Debug:     "+onOff(m.cfg.Config.Debug)))
	lines = append(lines, "")
	lines = append(lines, m.theme.Highlight.Render("Shortcuts"))
	lines = append(lines, m.theme.Secondary.Render("/      Back"))
	lines = append(lines, m.theme.Secondary.Render("exit.  Main menu"))
	lines = append(lines, m.theme.Secondary.Render("Ctrl+C Quit"))
	lines = append(lines, "")

	switch m.settings.mode {
	case settingsViewing:
		lines = append(lines, m.theme.Secondary.Render("1. Update name"))
		lines = append(lines, m.theme.Secondary.Render("2. Update timezone"))
		lines = append(lines, m.theme.Secondary.Render("3. Update page size"))
		lines = append(lines, m.theme.Secondary.Render("4. Toggle debug logging"))
		lines = append(lines, m.theme.Faint.Render("5. Back"))
		lines = append(lines, "")
		lines = append(lines, m.theme.Accent.Render("> ")+m.menuInput.View())
	case settingsEditingName:
		lines = append(lines, m.theme.Secondary.Render("Enter new name:"))
		lines = append(lines, m.settings.input.View())
	case settingsEditingTimezone:
		lines = append(lines, m.theme.Secondary.Render("Enter timezone (e.g. America/New_York):"))
		lines = append(lines, m.settings.input.View())
	case settingsEditingPageSize:
		lines = append(lines, m.theme.Secondary.Render("Enter page size (1-50):"))
		lines = append(lines, m.settings.input.View())
	}
	if m.settings.err != "" {
		lines = append(lines, "", m.theme.Danger.Render(m.settings.err))
	}
	if m.infoMessage != "" {
		lines = append(lines, "", m.theme.Success.Render(m.infoMessage))
	}
	return strings.Join(lines, "\n") + "\n"
}
