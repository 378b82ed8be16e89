package pipeline

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Rating is the qualitative lead temperature collected on intake.
type Rating string

const (
	RatingHot  Rating = "Hot"
	RatingWarm Rating = "Warm"
	RatingCold Rating = "Cold"
)

// LeadKind distinguishes the mutually exclusive field sets on the form.
type LeadKind string

const (
	LeadCompany    LeadKind = "company"
	LeadIndividual LeadKind = "individual"
)

var ratingPriority = map[Rating]Priority{
	RatingHot:  PriorityHigh,
	RatingWarm: PriorityMedium,
	RatingCold: PriorityLow,
}

var ratingProbability = map[Rating]int{
	RatingHot:  80,
	RatingWarm: 50,
	RatingCold: 20,
}

var (
	phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 ()-]{5,}$`)
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// RatingByName resolves a rating case-insensitively.
func RatingByName(name string) (Rating, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "hot", "h":
		return RatingHot, true
	case "warm", "w":
		return RatingWarm, true
	case "cold", "c":
		return RatingCold, true
	}
	return "", false
}

// Lead holds the intake form values before conversion into a Deal.
type Lead struct {
	Kind       LeadKind
	Company    string // company leads
	FirstName  string // individual leads
	LastName   string
	Contact    string
	Phone      string
	Email      string
	Budget     string
	Stage      Stage
	Rating     Rating
	Tags       []string
	Notes      string
	Assignee   string
	DueDate    string // YYYY-MM-DD, blank allowed
}

// Validate runs the required-field checks and returns the first failure only,
// mirroring how the form surfaces a single error at a time.
func (l Lead) Validate() error {
	switch l.Kind {
	case LeadCompany:
		if strings.TrimSpace(l.Company) == "" {
			return errors.New("company name is required")
		}
	case LeadIndividual:
		if strings.TrimSpace(l.FirstName) == "" && strings.TrimSpace(l.LastName) == "" {
			return errors.New("individual name is required")
		}
	default:
		return errors.New("choose company or individual")
	}
	if l.Phone != "" && !phonePattern.MatchString(strings.TrimSpace(l.Phone)) {
		return errors.New("phone number looks invalid")
	}
	if l.Email != "" && !emailPattern.MatchString(strings.TrimSpace(l.Email)) {
		return errors.New("email address looks invalid")
	}
	budget, err := strconv.ParseFloat(strings.TrimSpace(l.Budget), 64)
	if err != nil || budget <= 0 {
		return errors.New("budget must be a positive number")
	}
	if _, ok := ratingProbability[l.Rating]; !ok {
		return errors.New("rating must be Hot, Warm or Cold")
	}
	return nil
}

// Deal converts a validated lead into a new pipeline record. The rating seeds
// both the priority and the probability estimate.
func (l Lead) Deal(now time.Time, creator string) (Deal, error) {
	if err := l.Validate(); err != nil {
		return Deal{}, fmt.Errorf("invalid lead: %w", err)
	}
	budget, _ := strconv.ParseFloat(strings.TrimSpace(l.Budget), 64)

	company := strings.TrimSpace(l.Company)
	contact := strings.TrimSpace(l.Contact)
	if l.Kind == LeadIndividual {
		name := strings.TrimSpace(strings.TrimSpace(l.FirstName) + " " + strings.TrimSpace(l.LastName))
		if company == "" {
			company = name
		}
		if contact == "" {
			contact = name
		}
	}

	stage := l.Stage
	if stage == "" {
		stage = StageLeadGen
	}
	assignee := strings.TrimSpace(l.Assignee)
	if assignee == "" {
		assignee = creator
	}

	description := strings.TrimSpace(l.Notes)
	if len(l.Tags) > 0 {
		tagLine := "[" + strings.Join(l.Tags, ", ") + "]"
		if description == "" {
			description = tagLine
		} else {
			description = tagLine + " " + description
		}
	}

	return Deal{
		ID:            NewID(),
		Company:       company,
		ContactPerson: contact,
		Description:   description,
		Value:         budget,
		Probability:   ratingProbability[l.Rating],
		Stage:         stage,
		Priority:      ratingPriority[l.Rating],
		Assignees:     []Assignee{{Name: assignee}},
		DueDate:       l.DueDate,
		DaysInStage:   0,
		CreatedBy:     creator,
		CreatedAt:     now,
		UpdatedBy:     creator,
		UpdatedAt:     now,
	}, nil
}
