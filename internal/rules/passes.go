package rules

import (
	"time"

	"pass-eligibility-api/internal/models"
)

const (
	percentagePassTenure = 6
	vacationPassTenure   = 12
	regionalTenure       = 24
	internationalTenure  = 36

	fiscalYearStart = "01/07"
	fiscalYearEnd   = "30/06"
)

func allDestinations() []models.Destination {
	return []models.Destination{
		models.DestinationDomestic,
		models.DestinationRegional,
		models.DestinationInternational,
	}
}

// AvailablePasses lists the passes a beneficiary of the given family group
// can obtain through profile, in a fixed order.
func AvailablePasses(profile models.Profile, group models.FamilyGroup, now time.Time) []models.PassOffer {
	tenure := TenureMonths(profile.TenureStart.Time, now)
	passes := []models.PassOffer{}

	if tenure >= percentagePassTenure {
		switch group {
		case models.GroupBasic:
			passes = append(passes, pass10P(), pass50P())
		case models.GroupAssimilable:
			passes = append(passes, pass25P())
		}
	}

	if tenure >= vacationPassTenure && !profile.Retired {
		destinations, required := vacationDestinations(tenure)
		switch group {
		case models.GroupBasic, models.GroupAssimilable:
			passes = append(passes, passVAC(profile.Hierarchical, destinations, required))
		case models.GroupNonAssimilable:
			passes = append(passes, pass25V(destinations, required))
		}
	}

	return passes
}

// vacationDestinations returns the destinations reachable with tenure months
// of service and the highest tenure threshold that was met.
func vacationDestinations(tenure int) ([]models.Destination, int) {
	destinations := []models.Destination{models.DestinationDomestic}
	required := vacationPassTenure
	if tenure >= regionalTenure {
		destinations = append(destinations, models.DestinationRegional)
		required = regionalTenure
	}
	if tenure >= internationalTenure {
		destinations = append(destinations, models.DestinationInternational)
		required = internationalTenure
	}
	return destinations, required
}

func pass10P() models.PassOffer {
	return models.PassOffer{
		Type:                 models.Pass10P,
		Description:          "10% de tarifa, sujeto a espacio",
		Condition:            models.ConditionSpaceAvailable,
		FarePercentage:       10,
		AnnualQuantity:       models.Unlimited,
		ValidFrom:            fiscalYearStart,
		ValidUntil:           fiscalYearEnd,
		ValidityMonths:       12,
		RequiredTenureMonths: percentagePassTenure,
		Destinations:         allDestinations(),
		Groups:               []models.FamilyGroup{models.GroupBasic},
		Restrictions: []string{
			"Después del 5° viaje internacional o 12° cabotaje al mismo destino requiere autorización",
		},
	}
}

func pass50P() models.PassOffer {
	return models.PassOffer{
		Type:                 models.Pass50P,
		Description:          "50% de tarifa, plaza confirmada",
		Condition:            models.ConditionConfirmed,
		FarePercentage:       50,
		AnnualQuantity:       models.Unlimited,
		ValidFrom:            fiscalYearStart,
		ValidUntil:           fiscalYearEnd,
		ValidityMonths:       12,
		RequiredTenureMonths: percentagePassTenure,
		Destinations:         allDestinations(),
		Groups:               []models.FamilyGroup{models.GroupBasic},
		Restrictions: []string{
			"No puede emitirse ni utilizarse en períodos de veda",
			"Pierde condición de plaza confirmada si genera No Show",
		},
	}
}

func pass25P() models.PassOffer {
	return models.PassOffer{
		Type:                 models.Pass25P,
		Description:          "25% de tarifa, sujeto a espacio",
		Condition:            models.ConditionSpaceAvailable,
		FarePercentage:       25,
		AnnualQuantity:       models.Limit(1),
		ValidFrom:            fiscalYearStart,
		ValidUntil:           fiscalYearEnd,
		ValidityMonths:       12,
		RequiredTenureMonths: percentagePassTenure,
		Destinations:         allDestinations(),
		Groups:               []models.FamilyGroup{models.GroupAssimilable},
		Restrictions:         []string{"1 pasaje por persona por año desde el 1 de julio"},
	}
}

func passVAC(hierarchical bool, destinations []models.Destination, required int) models.PassOffer {
	condition := models.ConditionSpaceAvailable
	if hierarchical {
		condition = models.ConditionConfirmed
	}
	return models.PassOffer{
		Type:                 models.PassVAC,
		Description:          "Sin cargo (solo tasas e impuestos)",
		Condition:            condition,
		FarePercentage:       0,
		AnnualQuantity:       models.Limit(1),
		ValidFrom:            fiscalYearStart,
		ValidUntil:           fiscalYearEnd + " (+2 años)",
		ValidityMonths:       24,
		RequiredTenureMonths: required,
		Destinations:         destinations,
		Groups:               []models.FamilyGroup{models.GroupBasic, models.GroupAssimilable},
		Restrictions: []string{
			"Un pasaje por licencia vacacional",
			"Debe iniciar y finalizar en la base del empleado",
			"Máximo 4 tramos incluido el regreso",
		},
	}
}

func pass25V(destinations []models.Destination, required int) models.PassOffer {
	return models.PassOffer{
		Type:                 models.Pass25V,
		Description:          "25% de tarifa, condición según corresponda",
		Condition:            models.ConditionSpaceAvailable,
		FarePercentage:       25,
		AnnualQuantity:       models.Limit(1),
		ValidFrom:            fiscalYearStart,
		ValidUntil:           fiscalYearEnd + " (+1 año)",
		ValidityMonths:       12,
		RequiredTenureMonths: required,
		Destinations:         destinations,
		Groups:               []models.FamilyGroup{models.GroupNonAssimilable},
		Restrictions: []string{
			"Uno por año vacacional por cada cesión",
			"Se rige bajo las mismas condiciones que un pasaje vacacional",
		},
	}
}
