package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"pipeterm/internal/config"
	"pipeterm/internal/pipeline"
	"pipeterm/internal/storage"
	"pipeterm/internal/theme"
)

// Program wraps the Bubble Tea program lifecycle.
type Program struct {
	program *tea.Program
}

// NewProgram constructs a new interactive dashboard session.
func NewProgram(store *storage.Store, cfg *config.Store, log *zap.Logger) *Program {
	m := newModel(store, cfg, log)
	return &Program{program: tea.NewProgram(m)}
}

// Start launches the Bubble Tea program.
func (p *Program) Start() error {
	if p == nil || p.program == nil {
		return fmt.Errorf("nil program")
	}
	return p.program.Start()
}

type viewState int

const (
	stateMainMenu viewState = iota
	stateBoard
	stateTable
	stateFilters
	stateLeadWizard
	stateImportPath
	stateImportMode
	stateExport
	stateSettings
	stateConfirm
)

// pendingAction models a confirmation point: the prompt is shown and the
// accept closure runs only if the user answers yes. This replaces the page's
// blocking confirm() dialogs with an explicit request/response step.
type pendingAction struct {
	prompt string
	accept func() tea.Cmd
}

type model struct {
	state      viewState
	prevStates []viewState
	store      *storage.Store
	cfg        *config.Store
	log        *zap.Logger
	theme      theme.Theme
	width      int
	height     int

	infoMessage string
	errMessage  string
	showSplash  bool

	menuInput textinput.Model

	// canonical list plus the derived view state
	deals   []pipeline.Deal
	filters pipeline.Filters
	sort    pipeline.Sort
	visible []pipeline.Deal
	page    int

	grid  table.Model
	pager paginator.Model

	leadWizard leadWizard
	importFlow importFlow
	exportFlow exportFlow
	settings   settingsModel

	pending      *pendingAction
	confirmInput textinput.Model
}

const splashBanner = `    ____  _            __
   / __ \(_)___  ___  / /____  _________ ___
  / /_/ / / __ \/ _ \/ __/ _ \/ ___/ __ '__ \
 / ____/ / /_/ /  __/ /_/  __/ /  / / / / / /
/_/   /_/ .___/\___/\__/\___/_/  /_/ /_/ /_/
       /_/
`

func newModel(store *storage.Store, cfg *config.Store, log *zap.Logger) *model {
	if log == nil {
		log = zap.NewNop()
	}

	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "Choose an option"
	ti.CharLimit = 64
	ti.Focus()

	confirm := textinput.New()
	confirm.Prompt = ""
	confirm.Placeholder = "y/n"
	confirm.CharLimit = 5

	pager := paginator.New()
	pager.Type = paginator.Dots
	pager.PerPage = cfg.Config.PageSize

	m := model{
		state:        stateMainMenu,
		store:        store,
		cfg:          cfg,
		log:          log,
		theme:        theme.Default(),
		menuInput:    ti,
		confirmInput: confirm,
		filters:      pipeline.DefaultFilters(),
		page:         1,
		pager:        pager,
		showSplash:   true,
	}
	m.grid = newDealTable(cfg.Config.PageSize)
	m.leadWizard = newLeadWizard()
	m.importFlow = newImportFlow()
	m.exportFlow = newExportFlow()
	m.settings = newSettings()
	m.refreshDeals()
	return &m
}

func (m *model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	var cmd tea.Cmd
	switch m.state {
	case stateMainMenu:
		cmd = m.updateMainMenu(msg)
	case stateBoard:
		cmd = m.updateBoard(msg)
	case stateTable:
		cmd = m.updateTable(msg)
	case stateFilters:
		cmd = m.updateFilters(msg)
	case stateLeadWizard:
		cmd = m.updateLeadWizard(msg)
	case stateImportPath:
		cmd = m.updateImportPath(msg)
	case stateImportMode:
		cmd = m.updateImportMode(msg)
	case stateExport:
		cmd = m.updateExport(msg)
	case stateSettings:
		cmd = m.updateSettings(msg)
	case stateConfirm:
		cmd = m.updateConfirm(msg)
	default:
		m.state = stateMainMenu
		cmd = m.updateMainMenu(msg)
	}
	return m, cmd
}

func (m *model) View() string {
	switch m.state {
	case stateMainMenu:
		return m.viewMainMenu()
	case stateBoard:
		return m.viewBoard()
	case stateTable:
		return m.viewTable()
	case stateFilters:
		return m.viewFilters()
	case stateLeadWizard:
		return m.viewLeadWizard()
	case stateImportPath:
		return m.viewImportPath()
	case stateImportMode:
		return m.viewImportMode()
	case stateExport:
		return m.viewExport()
	case stateSettings:
		return m.viewSettings()
	case stateConfirm:
		return m.viewConfirm()
	default:
		return ""
	}
}

// Navigation helpers
func (m *model) pushState(next viewState) {
	m.prevStates = append(m.prevStates, m.state)
	m.state = next
}

func (m *model) popState() {
	if len(m.prevStates) == 0 {
		m.state = stateMainMenu
		return
	}
	idx := len(m.prevStates) - 1
	m.state = m.prevStates[idx]
	m.prevStates = m.prevStates[:idx]
}

func (m *model) goHome() tea.Cmd {
	m.prevStates = nil
	m.state = stateMainMenu
	return m.setMenuInput("Choose an option", 64)
}

func (m *model) resetMessages() {
	m.errMessage = ""
	m.infoMessage = ""
}

func (m *model) setMenuInput(placeholder string, limit int) tea.Cmd {
	input := textinput.New()
	input.Prompt = ""
	input.Placeholder = placeholder
	if limit > 0 {
		input.CharLimit = limit
	}
	cmd := input.Focus()
	m.menuInput = input
	return cmd
}

func (m *model) ensureMenuInput(placeholder string, limit int) tea.Cmd {
	if strings.TrimSpace(m.menuInput.Placeholder) == placeholder {
		if limit <= 0 || m.menuInput.CharLimit == limit {
			if !m.menuInput.Focused() {
				return m.menuInput.Focus()
			}
			return nil
		}
	}
	return m.setMenuInput(placeholder, limit)
}

// refreshDeals re-reads the store and recomputes the derived view.
func (m *model) refreshDeals() {
	m.deals = m.store.Load(context.Background())
	m.recompute()
}

// recompute derives the visible list from the canonical one and keeps the
// table and pager in sync. It runs on every filter, sort or data change.
func (m *model) recompute() {
	m.visible = pipeline.Apply(m.deals, m.filters, m.sort)
	total := pipeline.TotalPages(len(m.visible), m.pageSize())
	if m.page > total {
		m.page = total
	}
	if m.page < 1 {
		m.page = 1
	}
	// SetTotalPages ignores counts below 1, which would leave a stale page
	// count behind when a filter empties the list
	items := len(m.visible)
	if items < 1 {
		items = 1
	}
	m.pager.SetTotalPages(items)
	m.pager.Page = m.page - 1
	m.syncTable()
}

func (m *model) pageSize() int {
	if n := m.cfg.Config.PageSize; n > 0 {
		return n
	}
	return pipeline.DefaultPageSize
}

func (m *model) setFilters(f pipeline.Filters) {
	m.filters = f
	m.page = 1
	m.recompute()
}

// CONFIRMATION
func (m *model) requestConfirm(prompt string, accept func() tea.Cmd) tea.Cmd {
	m.pending = &pendingAction{prompt: prompt, accept: accept}
	m.confirmInput.SetValue("")
	m.pushState(stateConfirm)
	return m.confirmInput.Focus()
}

func (m *model) updateConfirm(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.confirmInput, cmd = m.confirmInput.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			value := strings.ToLower(strings.TrimSpace(m.confirmInput.Value()))
			m.confirmInput.SetValue("")
			switch value {
			case "y", "yes":
				pending := m.pending
				m.pending = nil
				m.popState()
				if pending != nil && pending.accept != nil {
					if accepted := pending.accept(); accepted != nil {
						cmds = append(cmds, accepted)
					}
				}
			case "n", "no", "":
				m.pending = nil
				m.infoMessage = "Cancelled"
				m.popState()
			default:
				m.errMessage = "Please answer y or n"
			}
		case tea.KeyEsc:
			m.pending = nil
			m.infoMessage = "Cancelled"
			m.popState()
		}
	}
	return batchCmds(cmds)
}

func (m *model) viewConfirm() string {
	prompt := "Are you sure?"
	if m.pending != nil {
		prompt = m.pending.prompt
	}
	lines := []string{
		m.theme.Title.Render("Confirm"),
		"",
		m.theme.Warning.Render(prompt),
		"",
		m.theme.Accent.Render("y/n> ") + m.confirmInput.View(),
	}
	if m.errMessage != "" {
		lines = append(lines, "", m.theme.Danger.Render(m.errMessage))
	}
	return strings.Join(lines, "\n") + "\n"
}

// summaryStrip renders the dashboard header shown on the menu and board.
func (m *model) summaryStrip() string {
	s := pipeline.Summarize(m.deals)
	parts := []string{
		fmt.Sprintf("%d deals", s.Total),
		fmt.Sprintf("open %s", formatMoney(s.OpenValue)),
		fmt.Sprintf("weighted %s", formatMoney(s.Weighted)),
		fmt.Sprintf("won %s", formatMoney(s.WonValue)),
	}
	return m.theme.Secondary.Render(strings.Join(parts, "  •  "))
}

func formatMoney(v float64) string {
	return fmt.Sprintf("$%.0f", v)
}

func formatDue(due string, loc *time.Location) string {
	t, err := time.ParseInLocation("2006-01-02", due, loc)
	if err != nil {
		return due
	}
	return t.Format("Jan 02")
}

func batchCmds(cmds []tea.Cmd) tea.Cmd {
	filtered := cmds[:0]
	for _, c := range cmds {
		if c != nil {
			filtered = append(filtered, c)
		}
	}
	switch len(filtered) {
	case 0:
		return nil
	case 1:
		return filtered[0]
	default:
		return tea.Batch(filtered...)
	}
}

// global command helpers
func isExitCommand(value string) bool {
	v := strings.TrimSpace(strings.ToLower(value))
	return v == "exit." || v == "quit"
}

func isBackCommand(value string) bool {
	v := strings.TrimSpace(strings.ToLower(value))
	return v == "/" || v == "back"
}

// applyDeals installs a freshly mutated list returned by the store.
func (m *model) applyDeals(deals []pipeline.Deal) {
	m.deals = deals
	m.recompute()
}

// exportTarget is the list the CSV exporter sees: the filtered, unpaginated
// view in its current order.
func (m *model) exportTarget() []pipeline.Deal {
	return m.visible
}
