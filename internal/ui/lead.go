package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"pipeterm/internal/pipeline"
)

type formField struct {
	label    string
	value    string
	required bool
}

// leadWizard walks through the intake form one field at a time. The field
// list depends on whether the lead is a company or an individual, so the
// wizard starts with a kind prompt before the fields exist.
type leadWizard struct {
	kind   pipeline.LeadKind
	index  int
	fields []formField
	input  textinput.Model
	err    string
}

func newLeadWizard() leadWizard {
	input := textinput.New()
	input.Prompt = ""
	input.Placeholder = "company or individual"
	input.CharLimit = 96
	return leadWizard{input: input}
}

func leadFields(kind pipeline.LeadKind) []formField {
	if kind == pipeline.LeadIndividual {
		return []formField{
			{label: "First name", required: true},
			{label: "Last name"},
			{label: "Phone"},
			{label: "Email"},
			{label: "Budget", required: true},
			{label: "Rating (Hot/Warm/Cold)", required: true},
			{label: "Stage (empty for Lead Gen)"},
			{label: "Assignee"},
			{label: "Due date (YYYY-MM-DD)"},
			{label: "Tags (comma separated)"},
			{label: "Notes"},
		}
	}
	return []formField{
		{label: "Company name", required: true},
		{label: "Contact person"},
		{label: "Phone"},
		{label: "Email"},
		{label: "Budget", required: true},
		{label: "Rating (Hot/Warm/Cold)", required: true},
		{label: "Stage (empty for Lead Gen)"},
		{label: "Assignee"},
		{label: "Due date (YYYY-MM-DD)"},
		{label: "Tags (comma separated)"},
		{label: "Notes"},
	}
}

func buildLead(kind pipeline.LeadKind, fields []formField) pipeline.Lead {
	lead := pipeline.Lead{Kind: kind}
	get := func(i int) string {
		if i < len(fields) {
			return strings.TrimSpace(fields[i].value)
		}
		return ""
	}
	if kind == pipeline.LeadIndividual {
		lead.FirstName = get(0)
		lead.LastName = get(1)
	} else {
		lead.Company = get(0)
		lead.Contact = get(1)
	}
	lead.Phone = get(2)
	lead.Email = get(3)
	lead.Budget = get(4)
	if rating, ok := pipeline.RatingByName(get(5)); ok {
		lead.Rating = rating
	}
	if stage, ok := pipeline.StageByName(get(6)); ok {
		lead.Stage = stage
	}
	lead.Assignee = get(7)
	lead.DueDate = get(8)
	if tags := get(9); tags != "" {
		for _, t := range strings.Split(tags, ",") {
			if t = strings.TrimSpace(t); t != "" {
				lead.Tags = append(lead.Tags, t)
			}
		}
	}
	lead.Notes = get(10)
	return lead
}

// LEAD WIZARD
func (m *model) updateLeadWizard(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.leadWizard.input, cmd = m.leadWizard.input.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return batchCmds(cmds)
	}

	switch key.Type {
	case tea.KeyEsc:
		m.leadWizard = newLeadWizard()
		m.popState()
		if m.state == stateMainMenu {
			if focus := m.setMenuInput("Choose an option", 64); focus != nil {
				cmds = append(cmds, focus)
			}
		}
		return batchCmds(cmds)
	case tea.KeyEnter:
		value := strings.TrimSpace(m.leadWizard.input.Value())
		if isExitCommand(value) {
			m.leadWizard = newLeadWizard()
			if focus := m.goHome(); focus != nil {
				cmds = append(cmds, focus)
			}
			return batchCmds(cmds)
		}
		if isBackCommand(value) {
			if focus := m.leadWizardBack(); focus != nil {
				cmds = append(cmds, focus)
			}
			return batchCmds(cmds)
		}
		if next := m.leadWizardAdvance(value); next != nil {
			cmds = append(cmds, next)
		}
	}
	return batchCmds(cmds)
}

func (m *model) leadWizardBack() tea.Cmd {
	w := &m.leadWizard
	if w.kind == "" {
		m.leadWizard = newLeadWizard()
		m.popState()
		if m.state == stateMainMenu {
			return m.setMenuInput("Choose an option", 64)
		}
		return nil
	}
	if w.index == 0 {
		// back to the kind prompt
		w.kind = ""
		w.fields = nil
		w.input.SetValue("")
		w.input.Placeholder = "company or individual"
		w.err = ""
		return nil
	}
	w.index--
	prev := w.fields[w.index]
	w.input.Placeholder = prev.label
	w.input.SetValue(prev.value)
	w.err = ""
	return nil
}

func (m *model) leadWizardAdvance(value string) tea.Cmd {
	w := &m.leadWizard

	if w.kind == "" {
		switch strings.ToLower(value) {
		case "company", "c", "1":
			w.kind = pipeline.LeadCompany
		case "individual", "i", "2":
			w.kind = pipeline.LeadIndividual
		default:
			w.err = "Type 'company' or 'individual'"
			return nil
		}
		w.fields = leadFields(w.kind)
		w.index = 0
		w.input.SetValue("")
		w.input.Placeholder = w.fields[0].label
		w.err = ""
		return nil
	}

	if w.fields[w.index].required && value == "" {
		w.err = "This field is required"
		return nil
	}
	if strings.HasPrefix(w.fields[w.index].label, "Stage") && value != "" {
		if _, ok := pipeline.StageByName(value); !ok {
			w.err = fmt.Sprintf("Unknown stage %q", value)
			return nil
		}
	}
	w.fields[w.index].value = value
	w.input.SetValue("")
	w.err = ""

	if w.index < len(w.fields)-1 {
		w.index++
		next := w.fields[w.index]
		w.input.Placeholder = next.label
		w.input.SetValue(next.value)
		return nil
	}

	lead := buildLead(w.kind, w.fields)
	deal, err := lead.Deal(time.Now().In(m.cfg.Location()), m.cfg.Config.Name)
	if err != nil {
		w.err = err.Error()
		w.index = 0
		w.input.Placeholder = w.fields[0].label
		w.input.SetValue(w.fields[0].value)
		return nil
	}
	deals, err := m.store.Create(context.Background(), deal)
	if err != nil {
		w.err = err.Error()
		return nil
	}
	m.applyDeals(deals)
	m.infoMessage = fmt.Sprintf("Lead '%s' added to %s", deal.Company, deal.Stage)
	m.leadWizard = newLeadWizard()
	m.popState()
	if m.state == stateMainMenu {
		return m.setMenuInput("Choose an option", 64)
	}
	return nil
}

func (m *model) viewLeadWizard() string {
	w := m.leadWizard
	lines := []string{
		m.theme.Title.Render("New Lead"),
		m.theme.Faint.Render("Enter details. '/' to go back, 'exit.' to cancel."),
		"",
	}
	if w.kind == "" {
		lines = append(lines, m.theme.Primary.Render("Lead type (company/individual):"))
		lines = append(lines, w.input.View())
	} else {
		field := w.fields[w.index]
		lines = append(lines, m.theme.Secondary.Render(fmt.Sprintf("%d/%d", w.index+1, len(w.fields))))
		lines = append(lines, m.theme.Primary.Render(field.label+":"))
		lines = append(lines, w.input.View())
	}
	if w.err != "" {
		lines = append(lines, "", m.theme.Danger.Render(w.err))
	}
	return strings.Join(lines, "\n") + "\n"
}
