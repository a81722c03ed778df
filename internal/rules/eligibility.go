package rules

import (
	"time"

	"pass-eligibility-api/internal/models"
)

// CheckEligibility evaluates a beneficiary against the titular's employment
// situation at now. Offers are always listed, even when a blocking
// restriction makes the beneficiary ineligible.
func CheckEligibility(profile models.Profile, beneficiary models.Beneficiary, now time.Time) models.EligibilityResult {
	return checkEligibility(profile, beneficiary, now, BlackoutAt(now))
}

func checkEligibility(profile models.Profile, beneficiary models.Beneficiary, now time.Time, blackout models.BlackoutStatus) models.EligibilityResult {
	restrictions := []models.Restriction{}
	warnings := []models.Warning{}

	if profile.OnLeave {
		switch profile.LeaveKind {
		case models.LeaveMedical, models.LeaveAccident:
			restrictions = append(restrictions, models.Restriction{
				Severity: models.SeverityBlocking,
				Message:  "No puede viajar durante licencia médica o por accidente de trabajo",
				Detail:   "El personal con licencia médica o accidente de trabajo no puede hacer uso del beneficio",
			})
		case models.LeaveExcedency, models.LeaveUnpaid:
			restrictions = append(restrictions, models.Restriction{
				Severity: models.SeverityBlocking,
				Message:  "No puede emitir ni utilizar pasajes durante licencia por excedencia",
				Detail:   "Las licencias por excedencia o sin goce de sueldo no permiten el uso del beneficio",
			})
		case models.LeavePregnancy:
			warnings = append(warnings, models.Warning{
				Category: models.WarningDocumentation,
				Message:  "Requiere certificado médico para viajar durante licencia por embarazo",
				Affected: []string{beneficiary.ID},
			})
		}
	}

	if !beneficiary.Documentation {
		warnings = append(warnings, models.Warning{
			Category: models.WarningDocumentation,
			Message:  "Debe presentar documentación que avale el parentesco",
			Affected: []string{beneficiary.ID},
		})
	}

	if blackout.InBlackout && blackout.Period != nil {
		warnings = append(warnings, models.Warning{
			Category: models.WarningBlackout,
			Message:  "Período de veda: " + blackout.Period.Name,
			Affected: []string{string(models.ConditionConfirmed)},
		})
	}

	result := models.EligibilityResult{
		Offers:       AvailablePasses(profile, beneficiary.FamilyGroup, now),
		Restrictions: restrictions,
		Warnings:     warnings,
	}
	result.Eligible = !result.Blocked()
	return result
}

// NoNameImpact lists the consequences of issuing a No Name ticket.
func NoNameImpact(profile models.Profile) []models.Warning {
	return []models.Warning{
		{
			Category: models.WarningImpact,
			Message:  "Al usar pasajes No Name, caducan todas las franquicias sin cargo del Grupo Familiar Básico",
			Affected: []string{"grupo_basico"},
		},
		{
			Category: models.WarningImpact,
			Message:  "No se podrán realizar cesiones a familiares habilitados en este período vacacional",
			Affected: []string{"cesiones"},
		},
		{
			Category: models.WarningImpact,
			Message:  "El pasajero No Name debe viajar con el titular en la totalidad de la ruta",
			Affected: []string{string(models.GroupNoName)},
		},
	}
}
