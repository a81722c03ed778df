package models

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// PassType is the code of a travel pass category.
type PassType string

const (
	Pass10P PassType = "10P"
	Pass50P PassType = "50P"
	Pass25P PassType = "25P"
	Pass25V PassType = "25V"
	Pass25A PassType = "25A"
	PassVAC PassType = "VAC"
	PassADC PassType = "ADC"
	PassEXT PassType = "EXT"
)

// Condition is the seat condition a pass travels under.
type Condition string

const (
	ConditionSpaceAvailable Condition = "sujeto_espacio"
	ConditionConfirmed      Condition = "plaza_confirmada"
	ConditionPending        Condition = "pendiente_confirmacion"
)

// Destination is a class of destinations a pass can be used for.
type Destination string

const (
	DestinationDomestic      Destination = "cabotaje"
	DestinationRegional      Destination = "regional"
	DestinationInternational Destination = "internacional"
)

// Quantity is an annual cap: either a number or unlimited.
type Quantity struct {
	Limit     int
	Unlimited bool
}

// Unlimited is the uncapped quantity.
var Unlimited = Quantity{Unlimited: true}

// Limit returns a capped quantity.
func Limit(n int) Quantity {
	return Quantity{Limit: n}
}

const unlimitedLabel = "ilimitado"

func (q Quantity) String() string {
	if q.Unlimited {
		return unlimitedLabel
	}
	return fmt.Sprintf("%d", q.Limit)
}

func (q Quantity) MarshalJSON() ([]byte, error) {
	if q.Unlimited {
		return json.Marshal(unlimitedLabel)
	}
	return json.Marshal(q.Limit)
}

func (q *Quantity) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err == nil {
		if label != unlimitedLabel {
			return fmt.Errorf("invalid quantity %q", label)
		}
		*q = Unlimited
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid quantity: %w", err)
	}
	*q = Limit(n)
	return nil
}

// PassOffer describes one pass a beneficiary can obtain.
type PassOffer struct {
	Type                 PassType      `json:"tipo"`
	Description          string        `json:"descripcion"`
	Condition            Condition     `json:"condicion"`
	FarePercentage       int           `json:"porcentaje_tarifa"`
	AnnualQuantity       Quantity      `json:"cantidad_anual"`
	ValidFrom            string        `json:"vigencia_desde"`
	ValidUntil           string        `json:"vigencia_hasta"`
	ValidityMonths       int           `json:"validez_meses"`
	RequiredTenureMonths int           `json:"requiere_antiguedad"`
	Destinations         []Destination `json:"destinos_permitidos"`
	Groups               []FamilyGroup `json:"grupos_permitidos"`
	Restrictions         []string      `json:"restricciones"`
}

// BlackoutKind classifies a blackout period.
type BlackoutKind string

const (
	BlackoutYearEnd     BlackoutKind = "fin_ano"
	BlackoutHolyWeek    BlackoutKind = "semana_santa"
	BlackoutWinterBreak BlackoutKind = "receso_invierno"
	BlackoutLongWeekend BlackoutKind = "fin_semana_largo"
)

// BlackoutPeriod is a calendar window in which confirmed-seat passes are restricted.
type BlackoutPeriod struct {
	Name        string       `json:"nombre"`
	Description string       `json:"descripcion"`
	Start       Date         `json:"fecha_inicio"`
	End         Date         `json:"fecha_fin"`
	Kind        BlackoutKind `json:"tipo"`
}

// BlackoutStatus reports whether a date falls in a blackout period.
type BlackoutStatus struct {
	InBlackout bool            `json:"en_veda"`
	Period     *BlackoutPeriod `json:"periodo,omitempty"`
}

// Severity of a restriction.
type Severity string

const (
	SeverityBlocking      Severity = "bloqueante"
	SeverityInformational Severity = "informativa"
)

// Restriction prevents (or qualifies) use of the benefit.
type Restriction struct {
	Severity Severity `json:"tipo"`
	Message  string   `json:"mensaje"`
	Detail   string   `json:"detalles,omitempty"`
}

// WarningCategory classifies an advisory warning.
type WarningCategory string

const (
	WarningImpact        WarningCategory = "impacto"
	WarningLimit         WarningCategory = "limite"
	WarningBlackout      WarningCategory = "veda"
	WarningDocumentation WarningCategory = "documentacion"
)

// Warning is advisory and never affects eligibility.
type Warning struct {
	Category WarningCategory `json:"tipo"`
	Message  string          `json:"mensaje"`
	Affected []string        `json:"afectados,omitempty"`
}

// EligibilityResult is the outcome of evaluating one beneficiary.
type EligibilityResult struct {
	Eligible     bool          `json:"elegible"`
	Offers       []PassOffer   `json:"pasajes_disponibles"`
	Restrictions []Restriction `json:"restricciones"`
	Warnings     []Warning     `json:"advertencias"`
}

// Blocked reports whether any blocking restriction is present.
func (r EligibilityResult) Blocked() bool {
	for _, restriction := range r.Restrictions {
		if restriction.Severity == SeverityBlocking {
			return true
		}
	}
	return false
}
