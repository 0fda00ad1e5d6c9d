package recommend

import "healthhelper/internal/models"

// Tagged is any recommendation row carrying a risk-factor set.
type Tagged interface {
	Tags() models.RiskFactors
}

// Applies reports whether row is relevant to the profile.
//
// A nil row or a row without tags never applies. A row tagged "all" always
// applies. Otherwise the row applies when one of its tags is among the
// profile's derived risk factors.
func Applies(row Tagged, profile models.Profile) bool {
	if row == nil {
		return false
	}
	tags := row.Tags()
	if len(tags) == 0 {
		return false
	}
	if tags.Has(models.TagAll) {
		return true
	}
	return intersects(tags, profile.RiskFactors())
}

func intersects(tags, user models.RiskFactors) bool {
	for _, t := range user {
		if tags.Has(t) {
			return true
		}
	}
	return false
}

// keep returns the rows that apply to the profile, in source order.
func keep[T any, P interface {
	*T
	Tagged
}](rows []T, profile models.Profile) []T {
	out := make([]T, 0, len(rows))
	for i := range rows {
		if Applies(P(&rows[i]), profile) {
			out = append(out, rows[i])
		}
	}
	return out
}

// FilterScreenings returns the screenings that apply to the profile, in source order.
func FilterScreenings(rows []models.Screening, profile models.Profile) []models.Screening {
	return keep(rows, profile)
}

// FilterFitness returns the activities that apply to the profile, in source order.
func FilterFitness(rows []models.FitnessActivity, profile models.Profile) []models.FitnessActivity {
	return keep(rows, profile)
}
