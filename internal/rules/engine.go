// Package rules implements the travel pass eligibility policy. Every function
// is pure; the Engine only adds a clock and optional calendar rules.
package rules

import (
	"time"

	"pass-eligibility-api/internal/models"
)

// Engine evaluates eligibility against its clock.
type Engine struct {
	now      func() time.Time
	holyWeek bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used as "now".
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithHolyWeek adds the Holy Week blackout period.
func WithHolyWeek() Option {
	return func(e *Engine) {
		e.holyWeek = true
	}
}

// NewEngine creates an engine reading the wall clock unless configured otherwise.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now returns the engine's current time.
func (e *Engine) Now() time.Time {
	return e.now()
}

// TenureMonths returns the months of service since start.
func (e *Engine) TenureMonths(start models.Date) int {
	return TenureMonths(start.Time, e.now())
}

// Age returns the current age of someone born on birth.
func (e *Engine) Age(birth models.Date) int {
	return Age(birth.Time, e.now())
}

// Blackout reports the blackout period in effect now.
func (e *Engine) Blackout() models.BlackoutStatus {
	return e.BlackoutAt(e.now())
}

// BlackoutAt reports the blackout period containing date.
func (e *Engine) BlackoutAt(date time.Time) models.BlackoutStatus {
	return blackoutAt(date, e.holyWeek)
}

// FamilyGroup derives the family group of b for a titular with the given
// marital status, using b's current age.
func (e *Engine) FamilyGroup(b models.Beneficiary, status models.MaritalStatus) models.FamilyGroup {
	age := e.Age(b.BirthDate)
	return DetermineFamilyGroup(b.Relationship, status, &age, b.Student)
}

// AvailablePasses lists the passes available to group through profile.
func (e *Engine) AvailablePasses(profile models.Profile, group models.FamilyGroup) []models.PassOffer {
	return AvailablePasses(profile, group, e.now())
}

// CheckEligibility evaluates b against profile now.
func (e *Engine) CheckEligibility(profile models.Profile, b models.Beneficiary) models.EligibilityResult {
	now := e.now()
	return checkEligibility(profile, b, now, e.BlackoutAt(now))
}

// NoNameImpact lists the consequences of issuing a No Name ticket.
func (e *Engine) NoNameImpact(profile models.Profile) []models.Warning {
	return NoNameImpact(profile)
}

// VacationYear returns the current vacation year label.
func (e *Engine) VacationYear() string {
	return VacationYear(e.now())
}
