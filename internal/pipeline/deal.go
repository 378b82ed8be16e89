package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// Stage is a pipeline phase a deal occupies.
type Stage string

const (
	StageLeadGen       Stage = "Lead Gen"
	StageQualification Stage = "Qualification"
	StageProposal      Stage = "Proposal"
	StageDemo          Stage = "Demo"
	StageNegotiation   Stage = "Negotiation"
	StageClosedWon     Stage = "Closed Won"
	StageClosedLost    Stage = "Closed Lost"
)

// Stages lists every stage in board order.
var Stages = []Stage{
	StageLeadGen,
	StageQualification,
	StageProposal,
	StageDemo,
	StageNegotiation,
	StageClosedWon,
	StageClosedLost,
}

// Priority drives the card indicator only; it has no scheduling effect.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Assignee is an informational owner reference on a deal.
type Assignee struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// Deal is a sales opportunity tracked through the pipeline.
type Deal struct {
	ID            string
	Company       string
	ContactPerson string
	Description   string
	Value         float64
	Probability   int
	Stage         Stage
	Priority      Priority
	Assignees     []Assignee
	DueDate       string // YYYY-MM-DD
	DaysInStage   int
	Comments      int
	Attachments   int
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedBy     string
	UpdatedAt     time.Time
}

// NewID returns a fresh deal identifier.
func NewID() string {
	return uuid.NewString()
}

// IsTerminal reports whether a stage is conventionally final.
func IsTerminal(s Stage) bool {
	return s == StageClosedWon || s == StageClosedLost
}

// StageByName resolves a stage case-insensitively, also accepting the short
// single-word forms typed at the board prompt.
func StageByName(name string) (Stage, bool) {
	needle := normalize(name)
	for _, s := range Stages {
		if normalize(string(s)) == needle {
			return s, true
		}
	}
	switch needle {
	case "lead", "leadgen", "gen":
		return StageLeadGen, true
	case "qual":
		return StageQualification, true
	case "won", "closedwon":
		return StageClosedWon, true
	case "lost", "closedlost":
		return StageClosedLost, true
	}
	return "", false
}

func normalize(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		case r == ' ' || r == '-' || r == '_':
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

// transitions is the allowed-move table. Non-terminal stages may move to any
// other stage in either direction; terminal stages are never departed.
var transitions = buildTransitions()

func buildTransitions() map[Stage]map[Stage]bool {
	table := make(map[Stage]map[Stage]bool, len(Stages))
	for _, from := range Stages {
		next := map[Stage]bool{}
		if !IsTerminal(from) {
			for _, to := range Stages {
				if to != from {
					next[to] = true
				}
			}
		}
		table[from] = next
	}
	return table
}

// CanTransition reports whether a deal may move between the given stages.
// Same-stage moves are not transitions; callers treat them as no-ops.
func CanTransition(from, to Stage) bool {
	next, ok := transitions[from]
	if !ok {
		return false
	}
	return next[to]
}
