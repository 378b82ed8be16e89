package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validLead() Lead {
	return Lead{
		Kind:    LeadCompany,
		Company: "Acme",
		Contact: "Ada Price",
		Phone:   "+1 555 010 2030",
		Email:   "ada@acme.test",
		Budget:  "1500",
		Stage:   StageQualification,
		Rating:  RatingWarm,
	}
}

func TestLeadValidate(t *testing.T) {
	t.Run("valid lead passes", func(t *testing.T) {
		assert.NoError(t, validLead().Validate())
	})

	t.Run("company name required", func(t *testing.T) {
		l := validLead()
		l.Company = "  "
		assert.EqualError(t, l.Validate(), "company name is required")
	})

	t.Run("individual name required", func(t *testing.T) {
		l := validLead()
		l.Kind = LeadIndividual
		l.FirstName, l.LastName = "", ""
		assert.EqualError(t, l.Validate(), "individual name is required")
	})

	t.Run("bad phone surfaces first", func(t *testing.T) {
		l := validLead()
		l.Phone = "call me"
		l.Email = "also-broken"
		assert.EqualError(t, l.Validate(), "phone number looks invalid")
	})

	t.Run("blank phone and email are accepted", func(t *testing.T) {
		l := validLead()
		l.Phone = ""
		l.Email = ""
		assert.NoError(t, l.Validate())
	})

	t.Run("bad email", func(t *testing.T) {
		l := validLead()
		l.Email = "not-an-email"
		assert.EqualError(t, l.Validate(), "email address looks invalid")
	})

	t.Run("budget must be positive", func(t *testing.T) {
		for _, budget := range []string{"", "abc", "0", "-10"} {
			l := validLead()
			l.Budget = budget
			assert.EqualError(t, l.Validate(), "budget must be a positive number", "budget %q", budget)
		}
	})
}

func TestLeadDeal(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	t.Run("rating seeds priority and probability", func(t *testing.T) {
		cases := []struct {
			rating      Rating
			priority    Priority
			probability int
		}{
			{RatingHot, PriorityHigh, 80},
			{RatingWarm, PriorityMedium, 50},
			{RatingCold, PriorityLow, 20},
		}
		for _, tc := range cases {
			l := validLead()
			l.Rating = tc.rating
			d, err := l.Deal(now, "maya")
			require.NoError(t, err)
			assert.Equal(t, tc.priority, d.Priority)
			assert.Equal(t, tc.probability, d.Probability)
		}
	})

	t.Run("fresh deal starts its stage clock", func(t *testing.T) {
		d, err := validLead().Deal(now, "maya")
		require.NoError(t, err)
		assert.NotEmpty(t, d.ID)
		assert.Equal(t, 0, d.DaysInStage)
		assert.Equal(t, StageQualification, d.Stage)
		assert.Equal(t, 1500.0, d.Value)
		assert.Equal(t, now, d.CreatedAt)
		assert.Equal(t, "maya", d.CreatedBy)
	})

	t.Run("individual lead uses the person as company and contact", func(t *testing.T) {
		l := validLead()
		l.Kind = LeadIndividual
		l.Company = ""
		l.Contact = ""
		l.FirstName, l.LastName = "Grace", "Hopper"
		d, err := l.Deal(now, "maya")
		require.NoError(t, err)
		assert.Equal(t, "Grace Hopper", d.Company)
		assert.Equal(t, "Grace Hopper", d.ContactPerson)
	})

	t.Run("blank stage defaults to lead gen", func(t *testing.T) {
		l := validLead()
		l.Stage = ""
		d, err := l.Deal(now, "maya")
		require.NoError(t, err)
		assert.Equal(t, StageLeadGen, d.Stage)
	})

	t.Run("tags are folded into the description", func(t *testing.T) {
		l := validLead()
		l.Tags = []string{"inbound", "q3"}
		l.Notes = "met at expo"
		d, err := l.Deal(now, "maya")
		require.NoError(t, err)
		assert.Equal(t, "[inbound, q3] met at expo", d.Description)
	})

	t.Run("invalid lead refuses conversion", func(t *testing.T) {
		l := validLead()
		l.Budget = "nope"
		_, err := l.Deal(now, "maya")
		assert.Error(t, err)
	})
}
