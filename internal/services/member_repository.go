package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/teamcobee/roomie/pkg/models"
)

// MemberRepository reads member_information. The core never writes member
// rows; ownership lives with the upstream system.
type MemberRepository struct {
	db     DatabaseQuerier
	logger *logrus.Logger
}

func NewMemberRepository(db DatabaseQuerier, logger *logrus.Logger) *MemberRepository {
	return &MemberRepository{
		db:     db,
		logger: logger,
	}
}

// GetMember loads one member by id, ErrMemberNotFound when absent.
func (r *MemberRepository) GetMember(ctx context.Context, memberID int64) (*models.Member, error) {
	query := `
		SELECT member_id, gender, birth_date,
			COALESCE(preferred_gender, ''), COALESCE(preferred_life_style, ''), COALESCE(preferred_personality, ''),
			possible_smoking, possible_snoring, has_pet_allowed,
			COALESCE(cohabitant_count, 0), COALESCE(preferred_age_min, 0), COALESCE(preferred_age_max, 0),
			COALESCE(my_lifestyle, ''), COALESCE(my_personality, ''),
			is_smoking, is_snoring, has_pet,
			budget_min, budget_max,
			created_at, updated_at
		FROM member_information
		WHERE member_id = $1`

	var m models.Member
	err := r.db.QueryRow(ctx, query, memberID).Scan(
		&m.MemberID, &m.Gender, &m.BirthDate,
		&m.PreferredGender, &m.PreferredLifeStyle, &m.PreferredPersonality,
		&m.PossibleSmoking, &m.PossibleSnoring, &m.HasPetAllowed,
		&m.CohabitantCount, &m.PreferredAgeMin, &m.PreferredAgeMax,
		&m.MyLifestyle, &m.MyPersonality,
		&m.IsSmoking, &m.IsSnoring, &m.HasPet,
		&m.BudgetMin, &m.BudgetMax,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: member %d", ErrMemberNotFound, memberID)
		}
		return nil, fmt.Errorf("%w: member query: %v", ErrStoreUnavailable, err)
	}

	return &m, nil
}

// CountMembers returns the member population size for the stats endpoint.
func (r *MemberRepository) CountMembers(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM member_information`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: member count: %v", ErrStoreUnavailable, err)
	}
	return count, nil
}
