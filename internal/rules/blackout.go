package rules

import (
	"time"

	"pass-eligibility-api/internal/models"
)

// BlackoutAt reports the blackout period containing date, if any. Only the
// year-end and winter-break periods are computed.
func BlackoutAt(date time.Time) models.BlackoutStatus {
	return blackoutAt(date, false)
}

func blackoutAt(date time.Time, holyWeek bool) models.BlackoutStatus {
	month, day, year := date.Month(), date.Day(), date.Year()

	// 15 Dec - 15 Jan, spanning the year boundary
	if (month == time.December && day >= 15) || (month == time.January && day <= 15) {
		startYear := year
		if month == time.January {
			startYear--
		}
		return inBlackout(models.BlackoutPeriod{
			Name:        "Fin de Año",
			Description: "Período de veda de fin de año",
			Start:       models.NewDate(startYear, time.December, 15),
			End:         models.NewDate(startYear+1, time.January, 15),
			Kind:        models.BlackoutYearEnd,
		})
	}

	if holyWeek {
		if period, ok := holyWeekPeriod(date); ok {
			return inBlackout(period)
		}
	}

	if month == time.July && day >= 15 {
		return inBlackout(models.BlackoutPeriod{
			Name:        "Receso de Invierno",
			Description: "Período de veda de receso escolar de invierno",
			Start:       models.NewDate(year, time.July, 15),
			End:         models.NewDate(year, time.July, 31),
			Kind:        models.BlackoutWinterBreak,
		})
	}

	return models.BlackoutStatus{}
}

func inBlackout(period models.BlackoutPeriod) models.BlackoutStatus {
	return models.BlackoutStatus{InBlackout: true, Period: &period}
}

// holyWeekPeriod covers six days before Holy Thursday through two days after
// Easter Sunday, both ends inclusive.
func holyWeekPeriod(date time.Time) (models.BlackoutPeriod, bool) {
	easter := EasterSunday(date.Year())
	start := easter.AddDate(0, 0, -3-6)
	end := easter.AddDate(0, 0, 2)

	day := models.DateOf(date).Time
	if day.Before(start) || day.After(end) {
		return models.BlackoutPeriod{}, false
	}
	return models.BlackoutPeriod{
		Name:        "Semana Santa",
		Description: "Período de veda de Semana Santa",
		Start:       models.DateOf(start),
		End:         models.DateOf(end),
		Kind:        models.BlackoutHolyWeek,
	}, true
}

// EasterSunday returns the Gregorian Easter Sunday of year (anonymous
// Gregorian algorithm).
func EasterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
