package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"pass-eligibility-api/internal/database"
	"pass-eligibility-api/internal/events"
	"pass-eligibility-api/internal/models"
	"pass-eligibility-api/internal/tracing"
	"pass-eligibility-api/internal/validation"
)

// CreateBeneficiary registers a family member under the profile. The family
// group is always derived, never taken from the request.
func (s *Service) CreateBeneficiary(ctx context.Context, profileID string, req models.BeneficiaryRequest) (models.Beneficiary, error) {
	ctx, span := tracing.StartSpan(ctx, "service.CreateBeneficiary")
	defer span.End()

	now := s.now().UTC()
	attrs, err := validation.ValidateBeneficiary(req, now)
	if err != nil {
		return models.Beneficiary{}, err
	}

	profile, err := s.GetProfile(ctx, profileID)
	if err != nil {
		return models.Beneficiary{}, err
	}

	b := models.Beneficiary{
		ID:        uuid.New().String(),
		ProfileID: profileID,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	attrs.Apply(&b)
	b.FamilyGroup = s.engine().FamilyGroup(b, profile.MaritalStatus)

	if err := s.db.InsertBeneficiary(ctx, b); err != nil {
		return models.Beneficiary{}, err
	}

	s.invalidateBeneficiaries(ctx, profileID)

	s.events.PublishBeneficiary(ctx, events.EventBeneficiaryCreated, b)
	return b, nil
}

// UpdateBeneficiary replaces the caller-editable fields and re-derives the
// family group.
func (s *Service) UpdateBeneficiary(ctx context.Context, profileID, beneficiaryID string, req models.BeneficiaryRequest) (models.Beneficiary, error) {
	ctx, span := tracing.StartSpan(ctx, "service.UpdateBeneficiary")
	defer span.End()

	beneficiaryID, err := validation.ValidateUUID(beneficiaryID, "id")
	if err != nil {
		return models.Beneficiary{}, err
	}

	now := s.now().UTC()
	attrs, err := validation.ValidateBeneficiary(req, now)
	if err != nil {
		return models.Beneficiary{}, err
	}

	profile, err := s.GetProfile(ctx, profileID)
	if err != nil {
		return models.Beneficiary{}, err
	}

	b, err := s.getBeneficiary(ctx, profileID, beneficiaryID)
	if err != nil {
		return models.Beneficiary{}, err
	}

	attrs.Apply(&b)
	b.FamilyGroup = s.engine().FamilyGroup(b, profile.MaritalStatus)
	b.UpdatedAt = now

	if err := s.db.UpdateBeneficiary(ctx, b); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return models.Beneficiary{}, fmt.Errorf("beneficiary %w", ErrNotFound)
		}
		return models.Beneficiary{}, err
	}

	s.invalidateBeneficiaries(ctx, profileID)

	s.events.PublishBeneficiary(ctx, events.EventBeneficiaryUpdated, b)
	return b, nil
}

// DeleteBeneficiary soft-deletes a beneficiary.
func (s *Service) DeleteBeneficiary(ctx context.Context, profileID, beneficiaryID string) error {
	ctx, span := tracing.StartSpan(ctx, "service.DeleteBeneficiary")
	defer span.End()

	beneficiaryID, err := validation.ValidateUUID(beneficiaryID, "id")
	if err != nil {
		return err
	}

	b, err := s.getBeneficiary(ctx, profileID, beneficiaryID)
	if err != nil {
		return err
	}

	if err := s.db.DeactivateBeneficiary(ctx, profileID, beneficiaryID, s.now().UTC()); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("beneficiary %w", ErrNotFound)
		}
		return err
	}

	s.invalidateBeneficiaries(ctx, profileID)

	b.Active = false
	s.events.PublishBeneficiary(ctx, events.EventBeneficiaryDeleted, b)
	return nil
}

// ListBeneficiaries returns the profile's active beneficiaries with their
// family group derived for today.
func (s *Service) ListBeneficiaries(ctx context.Context, profileID string) ([]models.Beneficiary, error) {
	profile, err := s.GetProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}

	beneficiaries, err := s.activeBeneficiaries(ctx, profileID)
	if err != nil {
		return nil, err
	}

	engine := s.engine()
	for i := range beneficiaries {
		beneficiaries[i].FamilyGroup = engine.FamilyGroup(beneficiaries[i], profile.MaritalStatus)
	}
	return beneficiaries, nil
}

func (s *Service) getBeneficiary(ctx context.Context, profileID, beneficiaryID string) (models.Beneficiary, error) {
	b, err := s.db.GetBeneficiary(ctx, profileID, beneficiaryID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return models.Beneficiary{}, fmt.Errorf("beneficiary %w", ErrNotFound)
		}
		return models.Beneficiary{}, err
	}
	return b, nil
}
