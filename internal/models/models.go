package models

import "strings"

// Risk factor tags. TagAll marks a row that applies to everyone.
const (
	TagAll          = "all"
	TagSmoker       = "smoker"
	TagHeavyDrinker = "heavyDrinker"
	TagSedentary    = "sedentary"
)

// RiskFactorSeparator joins multi-valued riskFactors cells.
const RiskFactorSeparator = ", "

// AgeGroup is one of the four screening brackets, or "all" on fitness rows.
type AgeGroup string

const (
	AgeGroupAll     AgeGroup = "all"
	AgeGroup18To39  AgeGroup = "18-39"
	AgeGroup40To49  AgeGroup = "40-49"
	AgeGroup50To64  AgeGroup = "50-64"
	AgeGroup65Plus  AgeGroup = "65+"
	AgeGroupUnknown AgeGroup = ""
)

// Brackets lists the age brackets in ascending order.
var Brackets = []AgeGroup{AgeGroup18To39, AgeGroup40To49, AgeGroup50To64, AgeGroup65Plus}

// Audience is the gender-targeting dimension of an age-specific row.
type Audience string

const (
	AudienceAll    Audience = "all"
	AudienceFemale Audience = "female"
	AudienceMale   Audience = "male"
)

// Audiences lists every valid audience in bucket order.
var Audiences = []Audience{AudienceAll, AudienceFemale, AudienceMale}

// Valid reports whether a is exactly one of all, female or male.
func (a Audience) Valid() bool {
	switch a {
	case AudienceAll, AudienceFemale, AudienceMale:
		return true
	}
	return false
}

// RiskFactors is the set of tags a row targets, kept in source order.
// A nil set means the row carries no tags at all and never applies.
type RiskFactors []string

// ParseRiskFactors splits a riskFactors cell. An empty cell means {all}.
func ParseRiskFactors(cell string) RiskFactors {
	if strings.TrimSpace(cell) == "" {
		return RiskFactors{TagAll}
	}
	return RiskFactors(strings.Split(cell, RiskFactorSeparator))
}

// Has reports whether tag is in the set.
func (rf RiskFactors) Has(tag string) bool {
	for _, t := range rf {
		if t == tag {
			return true
		}
	}
	return false
}

func (rf RiskFactors) String() string {
	return strings.Join(rf, RiskFactorSeparator)
}

// Screening is a row of the base or age-specific table.
type Screening struct {
	Test        string      `json:"test"`
	Frequency   string      `json:"frequency"`
	Notes       string      `json:"notes"`
	RiskFactors RiskFactors `json:"riskFactors"`
}

// Tags implements recommend.Tagged.
func (s *Screening) Tags() RiskFactors {
	if s == nil {
		return nil
	}
	return s.RiskFactors
}

// FitnessActivity is a row of the physical fitness table.
type FitnessActivity struct {
	ActivityType string      `json:"activityType"`
	Frequency    string      `json:"frequency"`
	Duration     string      `json:"duration"`
	Intensity    string      `json:"intensity"`
	Notes        string      `json:"notes"`
	AgeGroup     AgeGroup    `json:"ageGroup"`
	RiskFactors  RiskFactors `json:"riskFactors"`
}

// Tags implements recommend.Tagged.
func (f *FitnessActivity) Tags() RiskFactors {
	if f == nil {
		return nil
	}
	return f.RiskFactors
}

// AgeSpecificRow is a raw row of the age-specific table, before indexing.
type AgeSpecificRow struct {
	AgeGroup    AgeGroup
	Gender      Audience
	Test        string
	Frequency   string
	Notes       string
	// RiskFactors is the raw cell, parsed when the row is indexed.
	RiskFactors string
	// Line is the 1-based source line, 0 when unknown.
	Line int
}

// Screening converts the raw row to the indexed form.
func (r AgeSpecificRow) Screening() Screening {
	return Screening{Test: r.Test, Frequency: r.Frequency, Notes: r.Notes, RiskFactors: ParseRiskFactors(r.RiskFactors)}
}

// Profile field values as offered by the questionnaire.
const (
	GenderFemale = "female"
	GenderMale   = "male"
	GenderOther  = "other"

	SmokingYes = "yes"
	SmokingNo  = "no"

	AlcoholNone     = "none"
	AlcoholLight    = "light"
	AlcoholModerate = "moderate"
	AlcoholHeavy    = "heavy"

	ActivitySedentary = "sedentary"
	ActivityLight     = "light"
	ActivityModerate  = "moderate"
	ActivityActive    = "active"
)

// Profile is the questionnaire answers of one submission. Empty strings mean unset.
type Profile struct {
	Age                int    `json:"age"`
	Gender             string `json:"gender,omitempty"`
	SmokingStatus      string `json:"smokingStatus,omitempty"`
	AlcoholConsumption string `json:"alcoholConsumption,omitempty"`
	PhysicalActivity   string `json:"physicalActivity,omitempty"`
}

// RiskFactors derives the tags this profile matches. Recomputed on every call.
func (p Profile) RiskFactors() RiskFactors {
	var rf RiskFactors
	if p.SmokingStatus == SmokingYes {
		rf = append(rf, TagSmoker)
	}
	if p.AlcoholConsumption == AlcoholHeavy {
		rf = append(rf, TagHeavyDrinker)
	}
	if p.PhysicalActivity == ActivitySedentary {
		rf = append(rf, TagSedentary)
	}
	return rf
}

// Dataset is the three reference tables as loaded from one source.
type Dataset struct {
	Source      string
	Base        []Screening
	AgeSpecific []AgeSpecificRow
	Fitness     []FitnessActivity
}

// Selection is the outcome of one submission.
type Selection struct {
	ID         string            `json:"id"`
	Profile    Profile           `json:"profile"`
	AgeGroup   AgeGroup          `json:"ageGroup,omitempty"`
	Screenings []Screening       `json:"screenings"`
	Fitness    []FitnessActivity `json:"fitness"`
}
