package models

import (
	"time"
)

// RecruitStatus is the lifecycle state of a recruit post. Transitions only
// move forward: RECRUITING -> ON_CONTACT -> RECRUIT_OVER.
type RecruitStatus string

const (
	StatusRecruiting  RecruitStatus = "RECRUITING"
	StatusOnContact   RecruitStatus = "ON_CONTACT"
	StatusRecruitOver RecruitStatus = "RECRUIT_OVER"
)

var statusOrder = map[RecruitStatus]int{
	StatusRecruiting:  0,
	StatusOnContact:   1,
	StatusRecruitOver: 2,
}

// Valid reports whether s is a known lifecycle state.
func (s RecruitStatus) Valid() bool {
	_, ok := statusOrder[s]
	return ok
}

// CanTransitionTo reports whether moving from s to next is a legal forward
// transition. Staying in place or regressing is not.
func (s RecruitStatus) CanTransitionTo(next RecruitStatus) bool {
	from, ok1 := statusOrder[s]
	to, ok2 := statusOrder[next]
	return ok1 && ok2 && to > from
}

// RecruitPost is a roommate-recruiting post in the denormalized
// v_recruiting_posts shape: the post's own fields plus the author's traits,
// so rule scoring needs no extra lookup.
type RecruitPost struct {
	RecruitPostID int64 `json:"recruit_post_id"`
	MemberID      int64 `json:"member_id"`
	RecruitCount  int   `json:"recruit_count"`

	RentCostMin    *int `json:"rent_cost_min,omitempty"`
	RentCostMax    *int `json:"rent_cost_max,omitempty"`
	MonthlyCostMin *int `json:"monthly_cost_min,omitempty"`
	MonthlyCostMax *int `json:"monthly_cost_max,omitempty"`

	PreferredGender      Gender      `json:"preferred_gender"`
	PreferredLifeStyle   Lifestyle   `json:"preferred_life_style"`
	PreferredPersonality Personality `json:"preferred_personality"`
	// Habit tolerances: whether a smoking/snoring/pet-owning roommate is
	// acceptable in this household.
	SmokingAllowed  bool `json:"smoking_allowed"`
	SnoringAllowed  bool `json:"snoring_allowed"`
	PetAllowed      bool `json:"pet_allowed"`
	CohabitantCount int  `json:"cohabitant_count"`
	PreferredAgeMin int  `json:"preferred_age_min"`
	PreferredAgeMax int  `json:"preferred_age_max"`

	HasRoom   bool     `json:"has_room"`
	Address   string   `json:"address,omitempty"`
	Latitude  *float64 `json:"region_latitude,omitempty"`
	Longitude *float64 `json:"region_longitude,omitempty"`

	RecruitStatus RecruitStatus `json:"recruit_status"`

	// Author traits denormalized from member_information.
	AuthorGender      Gender      `json:"author_gender"`
	AuthorBirthDate   time.Time   `json:"author_birth_date"`
	AuthorLifestyle   Lifestyle   `json:"author_lifestyle"`
	AuthorPersonality Personality `json:"author_personality"`
	AuthorIsSmoking   bool        `json:"author_is_smoking"`
	AuthorIsSnoring   bool        `json:"author_is_snoring"`
	AuthorHasPet      bool        `json:"author_has_pet"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// AuthorAgeAt returns the post author's completed age at the given date.
func (p *RecruitPost) AuthorAgeAt(now time.Time) int {
	age := now.Year() - p.AuthorBirthDate.Year()
	if now.Month() < p.AuthorBirthDate.Month() ||
		(now.Month() == p.AuthorBirthDate.Month() && now.Day() < p.AuthorBirthDate.Day()) {
		age--
	}
	return age
}
