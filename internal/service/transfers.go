package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"pass-eligibility-api/internal/database"
	"pass-eligibility-api/internal/models"
	"pass-eligibility-api/internal/tracing"
	"pass-eligibility-api/internal/validation"
	"pass-eligibility-api/pkg/logger"
)

// maxTransfersPerVacationYear caps a titular's active transfers in one
// vacation year.
const maxTransfersPerVacationYear = 3

// CreateTransfer assigns the vacation allowance of a basic-group beneficiary
// to an enabled relative, assimilable or not, for the current vacation year.
// Each origin gives and each destination receives at most one allowance per
// vacation year, and a titular transfers at most three.
func (s *Service) CreateTransfer(ctx context.Context, profileID string, req models.TransferRequest) (models.Transfer, error) {
	ctx, span := tracing.StartSpan(ctx, "service.CreateTransfer")
	defer span.End()

	fromID, toID, err := validation.ValidateTransfer(req)
	if err != nil {
		return models.Transfer{}, err
	}

	profile, err := s.GetProfile(ctx, profileID)
	if err != nil {
		return models.Transfer{}, err
	}

	from, err := s.getBeneficiary(ctx, profileID, fromID)
	if err != nil {
		return models.Transfer{}, err
	}
	to, err := s.getBeneficiary(ctx, profileID, toID)
	if err != nil {
		return models.Transfer{}, err
	}

	engine := s.engine()
	from.FamilyGroup = engine.FamilyGroup(from, profile.MaritalStatus)
	to.FamilyGroup = engine.FamilyGroup(to, profile.MaritalStatus)

	if from.FamilyGroup != models.GroupBasic {
		return models.Transfer{}, fmt.Errorf("%w: only basic family group beneficiaries can transfer their vacation pass", ErrConflict)
	}
	if to.FamilyGroup != models.GroupAssimilable && to.FamilyGroup != models.GroupNonAssimilable {
		return models.Transfer{}, fmt.Errorf("%w: transfers can only be made to %s or %s relatives",
			ErrConflict, models.GroupAssimilable, models.GroupNonAssimilable)
	}

	result := engine.CheckEligibility(profile, from)
	if result.Blocked() {
		return models.Transfer{}, fmt.Errorf("%w: %s", ErrConflict, result.Restrictions[0].Message)
	}
	if !offersPass(result.Offers, models.PassVAC) {
		return models.Transfer{}, fmt.Errorf("%w: the titular does not yet qualify for vacation passes", ErrConflict)
	}

	beneficiaries, err := s.activeBeneficiaries(ctx, profileID)
	if err != nil {
		return models.Transfer{}, err
	}
	for _, b := range beneficiaries {
		if b.Relationship == models.RelationshipNoName {
			return models.Transfer{}, fmt.Errorf("%w: transfers are not allowed while a No Name pass holder is registered", ErrConflict)
		}
	}

	vacationYear := engine.VacationYear()
	if err := s.checkTransferQuota(ctx, profileID, from.ID, to.ID, vacationYear); err != nil {
		return models.Transfer{}, err
	}

	transfer := models.Transfer{
		ID:                uuid.New().String(),
		ProfileID:         profileID,
		FromBeneficiaryID: from.ID,
		ToBeneficiaryID:   to.ID,
		VacationYear:      vacationYear,
		CreatedAt:         s.now().UTC(),
		Active:            true,
	}
	if err := s.db.InsertTransfer(ctx, transfer); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return models.Transfer{}, fmt.Errorf("%w: origin or destination already used in a transfer in %s", ErrConflict, vacationYear)
		}
		return models.Transfer{}, err
	}

	logger.From(ctx).Info("transfer created",
		"transfer_id", transfer.ID,
		"vacation_year", vacationYear,
	)
	s.events.PublishTransferCreated(ctx, transfer)

	return transfer, nil
}

func (s *Service) checkTransferQuota(ctx context.Context, profileID, fromID, toID, vacationYear string) error {
	given, err := s.db.CountTransfersFrom(ctx, fromID, vacationYear)
	if err != nil {
		return err
	}
	if given > 0 {
		return fmt.Errorf("%w: beneficiary already transferred its vacation pass in %s", ErrConflict, vacationYear)
	}

	received, err := s.db.CountTransfersTo(ctx, toID, vacationYear)
	if err != nil {
		return err
	}
	if received > 0 {
		return fmt.Errorf("%w: beneficiary already received a transfer in %s", ErrConflict, vacationYear)
	}

	total, err := s.db.CountProfileTransfers(ctx, profileID, vacationYear)
	if err != nil {
		return err
	}
	if total >= maxTransfersPerVacationYear {
		return fmt.Errorf("%w: at most %d transfers are allowed per vacation year", ErrConflict, maxTransfersPerVacationYear)
	}
	return nil
}

// ListTransfers returns the profile's active transfers.
func (s *Service) ListTransfers(ctx context.Context, profileID string) ([]models.Transfer, error) {
	if _, err := s.GetProfile(ctx, profileID); err != nil {
		return nil, err
	}
	return s.db.ListActiveTransfers(ctx, profileID)
}

func offersPass(offers []models.PassOffer, passType models.PassType) bool {
	for _, o := range offers {
		if o.Type == passType {
			return true
		}
	}
	return false
}
