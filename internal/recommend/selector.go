package recommend

import "healthhelper/internal/models"

// AgeGroupFor maps an age to its screening bracket. Ages under 18 have none.
func AgeGroupFor(age int) models.AgeGroup {
	switch {
	case age >= 18 && age <= 39:
		return models.AgeGroup18To39
	case age >= 40 && age <= 49:
		return models.AgeGroup40To49
	case age >= 50 && age <= 64:
		return models.AgeGroup50To64
	case age >= 65:
		return models.AgeGroup65Plus
	}
	return models.AgeGroupUnknown
}

// audienceFor returns the gender bucket to add, or false when the
// profile's gender has no targeted rows.
func audienceFor(gender string) (models.Audience, bool) {
	switch gender {
	case models.GenderFemale:
		return models.AudienceFemale, true
	case models.GenderMale:
		return models.AudienceMale, true
	}
	return "", false
}

// Select computes the screenings and fitness activities for a profile.
//
// Screenings are the applicable base rows, then the bracket's general rows,
// then the bracket's rows for the profile's gender. Fitness activities are the
// applicable all-ages rows, then the bracket's rows. Each segment keeps source
// order; segments are concatenated without sorting or deduplication.
func Select(profile models.Profile, ds models.Dataset, ix AgeIndex) models.Selection {
	group := AgeGroupFor(profile.Age)

	screenings := FilterScreenings(ds.Base, profile)
	if group != models.AgeGroupUnknown {
		screenings = append(screenings, FilterScreenings(ix.Bucket(group, models.AudienceAll), profile)...)
		if audience, ok := audienceFor(profile.Gender); ok {
			screenings = append(screenings, FilterScreenings(ix.Bucket(group, audience), profile)...)
		}
	}

	var allAges, bracket []models.FitnessActivity
	for _, f := range ds.Fitness {
		switch {
		case f.AgeGroup == models.AgeGroupAll:
			allAges = append(allAges, f)
		case group != models.AgeGroupUnknown && f.AgeGroup == group:
			bracket = append(bracket, f)
		}
	}
	fitness := append(FilterFitness(allAges, profile), FilterFitness(bracket, profile)...)

	return models.Selection{
		Profile:    profile,
		AgeGroup:   group,
		Screenings: screenings,
		Fitness:    fitness,
	}
}
