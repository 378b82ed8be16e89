package pipeline

import (
	"sort"
	"strings"
	"time"
)

// FilterAll is the sentinel meaning "do not narrow on this field".
const FilterAll = "All"

// Filters narrows the deal list. All checks are AND-combined.
type Filters struct {
	Search   string
	Assignee string
	Stage    string
	Priority string
	DateFrom string // YYYY-MM-DD, empty = unbounded
	DateTo   string // YYYY-MM-DD, empty = unbounded
}

// DefaultFilters matches everything.
func DefaultFilters() Filters {
	return Filters{Assignee: FilterAll, Stage: FilterAll, Priority: FilterAll}
}

// IsDefault reports whether the filters are at the match-everything defaults.
func (f Filters) IsDefault() bool {
	return f == DefaultFilters()
}

// Match reports whether a single deal passes every filter.
func (f Filters) Match(d Deal) bool {
	if text := strings.TrimSpace(f.Search); text != "" {
		haystack := strings.ToLower(d.Company + d.ContactPerson)
		if !strings.Contains(haystack, strings.ToLower(text)) {
			return false
		}
	}
	if f.Assignee != "" && f.Assignee != FilterAll {
		found := false
		for _, a := range d.Assignees {
			if a.Name == f.Assignee {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Stage != "" && f.Stage != FilterAll && string(d.Stage) != f.Stage {
		return false
	}
	if f.Priority != "" && f.Priority != FilterAll && string(d.Priority) != f.Priority {
		return false
	}
	return f.matchDue(d.DueDate)
}

func (f Filters) matchDue(due string) bool {
	if f.DateFrom == "" && f.DateTo == "" {
		return true
	}
	t, err := time.Parse("2006-01-02", strings.TrimSpace(due))
	if err != nil {
		return false
	}
	if f.DateFrom != "" {
		if from, err := time.Parse("2006-01-02", f.DateFrom); err == nil && t.Before(from) {
			return false
		}
	}
	if f.DateTo != "" {
		if to, err := time.Parse("2006-01-02", f.DateTo); err == nil {
			endOfDay := to.Add(24*time.Hour - time.Second)
			if t.After(endOfDay) {
				return false
			}
		}
	}
	return true
}

// Sort keys accepted by Apply. Unknown keys leave the order untouched.
const (
	SortCompany     = "company"
	SortContact     = "contact"
	SortValue       = "value"
	SortStage       = "stage"
	SortPriority    = "priority"
	SortProbability = "probability"
	SortDueDate     = "due"
	SortDaysInStage = "days"
)

// SortKeys lists every accepted sort key in display order.
var SortKeys = []string{
	SortCompany, SortContact, SortValue, SortStage,
	SortPriority, SortProbability, SortDueDate, SortDaysInStage,
}

// Sort is a single-key sort spec.
type Sort struct {
	Key  string
	Desc bool
}

// Apply filters and sorts a deal list without mutating the input.
func Apply(deals []Deal, f Filters, s Sort) []Deal {
	out := make([]Deal, 0, len(deals))
	for _, d := range deals {
		if f.Match(d) {
			out = append(out, d)
		}
	}
	cmp := comparator(s.Key)
	if cmp == nil {
		return out
	}
	sort.Slice(out, func(i, j int) bool {
		if s.Desc {
			return cmp(out[j], out[i])
		}
		return cmp(out[i], out[j])
	})
	return out
}

func comparator(key string) func(a, b Deal) bool {
	switch key {
	case SortCompany:
		return func(a, b Deal) bool { return a.Company < b.Company }
	case SortContact:
		return func(a, b Deal) bool { return a.ContactPerson < b.ContactPerson }
	case SortValue:
		return func(a, b Deal) bool { return a.Value < b.Value }
	case SortStage:
		return func(a, b Deal) bool { return a.Stage < b.Stage }
	case SortPriority:
		return func(a, b Deal) bool { return a.Priority < b.Priority }
	case SortProbability:
		return func(a, b Deal) bool { return a.Probability < b.Probability }
	case SortDueDate:
		return func(a, b Deal) bool { return a.DueDate < b.DueDate }
	case SortDaysInStage:
		return func(a, b Deal) bool { return a.DaysInStage < b.DaysInStage }
	}
	return nil
}

// AssigneeNames collects the distinct assignee names present in a deal list,
// alphabetically, for the filter prompt.
func AssigneeNames(deals []Deal) []string {
	seen := map[string]struct{}{}
	var names []string
	for _, d := range deals {
		for _, a := range d.Assignees {
			if _, ok := seen[a.Name]; ok || a.Name == "" {
				continue
			}
			seen[a.Name] = struct{}{}
			names = append(names, a.Name)
		}
	}
	sort.Strings(names)
	return names
}
