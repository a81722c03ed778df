package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"pass-eligibility-api/internal/models"
	"pass-eligibility-api/internal/rules"
	"pass-eligibility-api/internal/tracing"
	"pass-eligibility-api/internal/validation"
	"pass-eligibility-api/pkg/logger"
)

// CheckEligibility evaluates one beneficiary of the profile.
func (s *Service) CheckEligibility(ctx context.Context, profileID, beneficiaryID string) (models.BeneficiaryEligibility, error) {
	ctx, span := tracing.StartSpan(ctx, "service.CheckEligibility")
	defer span.End()
	start := time.Now()

	beneficiaryID, err := validation.ValidateUUID(beneficiaryID, "id")
	if err != nil {
		return models.BeneficiaryEligibility{}, err
	}

	profile, err := s.GetProfile(ctx, profileID)
	if err != nil {
		return models.BeneficiaryEligibility{}, err
	}

	b, err := s.getBeneficiary(ctx, profileID, beneficiaryID)
	if err != nil {
		return models.BeneficiaryEligibility{}, err
	}

	result := s.evaluate(ctx, s.engine(), profile, b)
	s.metrics.ObserveEvaluateLatency(time.Since(start))
	span.SetAttributes(attribute.Bool("eligible", result.Result.Eligible))

	return result, nil
}

// CheckAllEligibility evaluates every active beneficiary of the profile
// against a single instant.
func (s *Service) CheckAllEligibility(ctx context.Context, profileID string) (models.ProfileEligibilityResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "service.CheckAllEligibility")
	defer span.End()
	start := time.Now()

	profile, err := s.GetProfile(ctx, profileID)
	if err != nil {
		return models.ProfileEligibilityResponse{}, err
	}

	beneficiaries, err := s.activeBeneficiaries(ctx, profileID)
	if err != nil {
		return models.ProfileEligibilityResponse{}, err
	}

	// pin the clock so every beneficiary sees the same "now"
	now := s.now()
	engine := s.engineWith(func() time.Time { return now })

	response := models.ProfileEligibilityResponse{
		ProfileID:     profileID,
		TenureMonths:  engine.TenureMonths(profile.TenureStart),
		Blackout:      engine.Blackout(),
		Beneficiaries: make([]models.BeneficiaryEligibility, 0, len(beneficiaries)),
	}
	for _, b := range beneficiaries {
		response.Beneficiaries = append(response.Beneficiaries, s.evaluate(ctx, engine, profile, b))
	}

	s.metrics.ObserveEvaluateLatency(time.Since(start))
	span.SetAttributes(attribute.Int("beneficiaries", len(beneficiaries)))

	return response, nil
}

// evaluate re-derives the beneficiary's family group and runs the rules.
func (s *Service) evaluate(ctx context.Context, engine *rules.Engine, profile models.Profile, b models.Beneficiary) models.BeneficiaryEligibility {
	b.FamilyGroup = engine.FamilyGroup(b, profile.MaritalStatus)
	result := engine.CheckEligibility(profile, b)

	passTypes := make([]string, 0, len(result.Offers))
	for _, o := range result.Offers {
		passTypes = append(passTypes, string(o.Type))
	}
	severities := make([]string, 0, len(result.Restrictions))
	for _, r := range result.Restrictions {
		severities = append(severities, string(r.Severity))
	}
	s.metrics.ObserveEligibility(string(b.FamilyGroup), result.Eligible, passTypes, severities)

	logger.From(ctx).Debug("eligibility evaluated",
		"beneficiary_id", b.ID,
		"group", string(b.FamilyGroup),
		"eligible", result.Eligible,
		"offers", len(result.Offers),
	)
	s.events.PublishEligibilityChecked(ctx, profile.ID, b, result)

	return models.BeneficiaryEligibility{Beneficiary: b, Result: result}
}

// AvailablePasses lists the passes a beneficiary of group could obtain
// through the profile today.
func (s *Service) AvailablePasses(ctx context.Context, profileID, group string) ([]models.PassOffer, error) {
	g, err := validation.ValidateFamilyGroup(group)
	if err != nil {
		return nil, err
	}

	profile, err := s.GetProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}

	return s.engine().AvailablePasses(profile, g), nil
}

// NoNameImpact lists the consequences of issuing a No Name ticket.
func (s *Service) NoNameImpact(ctx context.Context, profileID string) ([]models.Warning, error) {
	profile, err := s.GetProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return s.engine().NoNameImpact(profile), nil
}
