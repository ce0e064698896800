package models

import (
	"time"
)

// Gender values as stored in member_information.gender and the
// preferred_gender columns. NONE is only valid as a preference.
type Gender string

const (
	GenderMan    Gender = "MAN"
	GenderFemale Gender = "FEMALE"
	GenderNone   Gender = "NONE"
)

type Lifestyle string

const (
	LifestyleMorning Lifestyle = "MORNING"
	LifestyleEvening Lifestyle = "EVENING"
)

type Personality string

const (
	PersonalityIntrovert Personality = "INTROVERT"
	PersonalityExtrovert Personality = "EXTROVERT"
)

// Member mirrors a row of member_information: immutable identity plus the
// member's own attributes and their roommate preferences. Preference age
// bounds are always within [19, 34].
type Member struct {
	MemberID  int64     `json:"member_id"`
	Gender    Gender    `json:"gender"`
	BirthDate time.Time `json:"birth_date"`

	// Preferences toward a future roommate.
	PreferredGender      Gender      `json:"preferred_gender"`
	PreferredLifeStyle   Lifestyle   `json:"preferred_life_style"`
	PreferredPersonality Personality `json:"preferred_personality"`
	PossibleSmoking      bool        `json:"possible_smoking"`
	PossibleSnoring      bool        `json:"possible_snoring"`
	HasPetAllowed        bool        `json:"has_pet_allowed"`
	CohabitantCount      int         `json:"cohabitant_count"`
	PreferredAgeMin      int         `json:"preferred_age_min"`
	PreferredAgeMax      int         `json:"preferred_age_max"`

	// The member's own traits, matched against post preferences.
	MyLifestyle   Lifestyle   `json:"my_lifestyle"`
	MyPersonality Personality `json:"my_personality"`
	IsSmoking     bool        `json:"is_smoking"`
	IsSnoring     bool        `json:"is_snoring"`
	HasPet        bool        `json:"has_pet"`

	// Monthly budget, if the member has stated one. Nil means the cost
	// sub-score is skipped and its weight redistributed.
	BudgetMin *int `json:"budget_min,omitempty"`
	BudgetMax *int `json:"budget_max,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// AgeAt returns the member's completed age at the given date.
func (m *Member) AgeAt(now time.Time) int {
	age := now.Year() - m.BirthDate.Year()
	if now.Month() < m.BirthDate.Month() ||
		(now.Month() == m.BirthDate.Month() && now.Day() < m.BirthDate.Day()) {
		age--
	}
	return age
}
