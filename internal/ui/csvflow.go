package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"pipeterm/internal/csvio"
)

// importFlow carries the parsed rows between the path prompt and the
// append/replace choice.
type importFlow struct {
	input  textinput.Model
	result csvio.ImportResult
	path   string
	err    string
}

func newImportFlow() importFlow {
	input := textinput.New()
	input.Prompt = ""
	input.Placeholder = "Path to CSV file"
	input.CharLimit = 256
	return importFlow{input: input}
}

type exportFlow struct {
	input textinput.Model
	err   string
}

func newExportFlow() exportFlow {
	input := textinput.New()
	input.Prompt = ""
	input.Placeholder = "Output path (empty for default)"
	input.CharLimit = 256
	return exportFlow{input: input}
}

func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// IMPORT
func (m *model) updateImportPath(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.importFlow.input, cmd = m.importFlow.input.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return batchCmds(cmds)
	}

	switch key.Type {
	case tea.KeyEsc:
		m.importFlow = newImportFlow()
		m.popState()
		if m.state == stateMainMenu {
			if focus := m.setMenuInput("Choose an option", 64); focus != nil {
				cmds = append(cmds, focus)
			}
		}
		return batchCmds(cmds)
	case tea.KeyEnter:
		value := strings.TrimSpace(m.importFlow.input.Value())
		switch {
		case isExitCommand(value):
			m.importFlow = newImportFlow()
			if focus := m.goHome(); focus != nil {
				cmds = append(cmds, focus)
			}
			return batchCmds(cmds)
		case isBackCommand(value):
			m.importFlow = newImportFlow()
			m.popState()
			if m.state == stateMainMenu {
				if focus := m.setMenuInput("Choose an option", 64); focus != nil {
					cmds = append(cmds, focus)
				}
			}
			return batchCmds(cmds)
		case value == "":
			m.importFlow.err = "Enter a file path"
			return batchCmds(cmds)
		}
		m.loadImportFile(expandPath(value))
	}
	return batchCmds(cmds)
}

func (m *model) loadImportFile(path string) {
	file, err := os.Open(path)
	if err != nil {
		m.importFlow.err = fmt.Sprintf("Cannot open %s: %v", path, err)
		return
	}
	defer file.Close()

	result, err := csvio.Import(file, time.Now().In(m.cfg.Location()))
	if err != nil {
		switch {
		case errors.Is(err, csvio.ErrHeaderMismatch):
			m.importFlow.err = "Header must be: " + strings.Join(csvio.Header, ",")
		case errors.Is(err, csvio.ErrNoParsedRows):
			m.importFlow.err = "No importable rows found"
		default:
			m.importFlow.err = err.Error()
		}
		return
	}
	m.importFlow.result = result
	m.importFlow.path = path
	m.importFlow.err = ""
	m.importFlow.input.SetValue("")
	m.state = stateImportMode
}

func (m *model) updateImportMode(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.importFlow.input, cmd = m.importFlow.input.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return batchCmds(cmds)
	}

	switch key.Type {
	case tea.KeyEsc:
		m.importFlow = newImportFlow()
		m.popState()
		if m.state == stateMainMenu {
			if focus := m.setMenuInput("Choose an option", 64); focus != nil {
				cmds = append(cmds, focus)
			}
		}
		return batchCmds(cmds)
	case tea.KeyEnter:
		value := strings.ToLower(strings.TrimSpace(m.importFlow.input.Value()))
		m.importFlow.input.SetValue("")
		switch {
		case isExitCommand(value):
			m.importFlow = newImportFlow()
			if focus := m.goHome(); focus != nil {
				cmds = append(cmds, focus)
			}
			return batchCmds(cmds)
		case isBackCommand(value):
			m.state = stateImportPath
			return batchCmds(cmds)
		case value == "append" || value == "a" || value == "1":
			if next := m.applyImport(csvio.ModeAppend); next != nil {
				cmds = append(cmds, next)
			}
			return batchCmds(cmds)
		case value == "replace" || value == "r" || value == "2":
			prompt := fmt.Sprintf("Replace all %d deals with %d imported? (y/n)", len(m.deals), len(m.importFlow.result.Deals))
			if next := m.requestConfirm(prompt, func() tea.Cmd {
				return m.applyImport(csvio.ModeReplace)
			}); next != nil {
				cmds = append(cmds, next)
			}
			return batchCmds(cmds)
		}
		m.importFlow.err = "Type 'append' or 'replace'"
	}
	return batchCmds(cmds)
}

func (m *model) applyImport(mode csvio.ImportMode) tea.Cmd {
	result := m.importFlow.result
	merged := csvio.Merge(m.deals, result.Deals, mode)
	deals, err := m.store.Replace(context.Background(), merged)
	if err != nil {
		m.importFlow.err = err.Error()
		return nil
	}
	m.applyDeals(deals)
	note := fmt.Sprintf("Imported %d deals", len(result.Deals))
	if result.Skipped > 0 {
		note += fmt.Sprintf(" (%d rows skipped)", result.Skipped)
	}
	m.infoMessage = note
	m.log.Info("csv import applied",
		zap.String("path", m.importFlow.path),
		zap.Int("imported", len(result.Deals)),
		zap.Int("skipped", result.Skipped))
	m.importFlow = newImportFlow()
	m.prevStates = nil
	m.state = stateMainMenu
	return m.setMenuInput("Choose an option", 64)
}

func (m *model) viewImportPath() string {
	f := m.importFlow
	lines := []string{
		m.theme.Title.Render("Import Deals"),
		m.theme.Faint.Render("CSV columns: " + strings.Join(csvio.Header, ", ")),
		m.theme.Faint.Render("'/' to go back, 'exit.' to cancel."),
		"",
		m.theme.Primary.Render("File path:"),
		f.input.View(),
	}
	if f.err != "" {
		lines = append(lines, "", m.theme.Danger.Render(f.err))
	}
	return strings.Join(lines, "\n") + "\n"
}

func (m *model) viewImportMode() string {
	f := m.importFlow
	lines := []string{
		m.theme.Title.Render("Import Deals"),
		"",
		m.theme.Secondary.Render(fmt.Sprintf("Parsed %d rows from %s", len(f.result.Deals), f.path)),
	}
	if f.result.Skipped > 0 {
		lines = append(lines, m.theme.Warning.Render(fmt.Sprintf("%d rows skipped:", f.result.Skipped)))
		for _, e := range f.result.Errors {
			lines = append(lines, m.theme.Faint.Render("  "+e))
		}
	}
	lines = append(lines, "",
		m.theme.Primary.Render("append   - add imported deals on top of the current list"),
		m.theme.Primary.Render("replace  - discard the current list"),
		"",
		m.theme.Accent.Render("mode> ")+f.input.View(),
	)
	if f.err != "" {
		lines = append(lines, "", m.theme.Danger.Render(f.err))
	}
	return strings.Join(lines, "\n") + "\n"
}

// EXPORT
func (m *model) updateExport(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.exportFlow.input, cmd = m.exportFlow.input.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return batchCmds(cmds)
	}

	switch key.Type {
	case tea.KeyEsc:
		m.exportFlow = newExportFlow()
		m.popState()
		if m.state == stateMainMenu {
			if focus := m.setMenuInput("Choose an option", 64); focus != nil {
				cmds = append(cmds, focus)
			}
		}
		return batchCmds(cmds)
	case tea.KeyEnter:
		value := strings.TrimSpace(m.exportFlow.input.Value())
		switch {
		case isExitCommand(value):
			m.exportFlow = newExportFlow()
			if focus := m.goHome(); focus != nil {
				cmds = append(cmds, focus)
			}
			return batchCmds(cmds)
		case isBackCommand(value):
			m.exportFlow = newExportFlow()
			m.popState()
			if m.state == stateMainMenu {
				if focus := m.setMenuInput("Choose an option", 64); focus != nil {
					cmds = append(cmds, focus)
				}
			}
			return batchCmds(cmds)
		}
		if next := m.runExport(value); next != nil {
			cmds = append(cmds, next)
		}
	}
	return batchCmds(cmds)
}

func (m *model) defaultExportPath() string {
	name := csvio.ExportFilename(time.Now().In(m.cfg.Location()))
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, name)
}

func (m *model) runExport(path string) tea.Cmd {
	if path == "" {
		path = m.defaultExportPath()
	} else {
		path = expandPath(path)
	}

	// reject before touching the path so a pre-existing file survives
	deals := m.exportTarget()
	if len(deals) == 0 {
		m.exportFlow.err = "No deals match the current filters"
		return nil
	}

	file, err := os.Create(path)
	if err != nil {
		m.exportFlow.err = fmt.Sprintf("Cannot write %s: %v", path, err)
		return nil
	}
	defer file.Close()

	if err := csvio.Export(file, deals); err != nil {
		m.exportFlow.err = err.Error()
		return nil
	}
	m.infoMessage = fmt.Sprintf("Exported %d deals to %s", len(deals), path)
	m.log.Info("csv export written", zap.String("path", path), zap.Int("deals", len(deals)))
	m.exportFlow = newExportFlow()
	m.prevStates = nil
	m.state = stateMainMenu
	return m.setMenuInput("Choose an option", 64)
}

func (m *model) viewExport() string {
	f := m.exportFlow
	lines := []string{
		m.theme.Title.Render("Export Deals"),
		m.theme.Secondary.Render(fmt.Sprintf("%d deals will be exported (current filters apply).", len(m.exportTarget()))),
		m.theme.Faint.Render("Default: " + m.defaultExportPath()),
		m.theme.Faint.Render("'/' to go back, 'exit.' to cancel."),
		"",
		m.theme.Primary.Render("Output path:"),
		f.input.View(),
	}
	if f.err != "" {
		lines = append(lines, "", m.theme.Danger.Render(f.err))
	}
	return strings.Join(lines, "\n") + "\n"
}
