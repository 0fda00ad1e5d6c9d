package recommend

import (
	"fmt"
	"healthhelper/internal/models"
	"strings"
)

// AgeIndex groups age-specific screenings by bracket, then by audience.
// Source order is kept inside every bucket.
type AgeIndex map[models.AgeGroup]map[models.Audience][]models.Screening

// Bucket returns the screenings for a bracket and audience.
// A missing bracket or audience yields an empty slice.
func (ix AgeIndex) Bucket(group models.AgeGroup, audience models.Audience) []models.Screening {
	if rows, ok := ix[group][audience]; ok {
		return rows
	}
	return []models.Screening{}
}

// Size returns the number of indexed rows.
func (ix AgeIndex) Size() int {
	n := 0
	for _, byAudience := range ix {
		for _, rows := range byAudience {
			n += len(rows)
		}
	}
	return n
}

// IntegrityProblem describes one age-specific row that could not be indexed.
type IntegrityProblem struct {
	Line     int
	AgeGroup models.AgeGroup
	Gender   models.Audience
	Test     string
}

func (p IntegrityProblem) String() string {
	loc := "row"
	if p.Line > 0 {
		loc = fmt.Sprintf("line %d", p.Line)
	}
	return fmt.Sprintf("%s: test %q (%s) has unknown gender %q", loc, p.Test, p.AgeGroup, p.Gender)
}

// IntegrityError lists the rows BuildIndex left out.
type IntegrityError struct {
	Problems []IntegrityProblem
}

func (e *IntegrityError) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.String()
	}
	return fmt.Sprintf("age-specific table: %d row(s) not indexed: %s", len(e.Problems), strings.Join(parts, "; "))
}

// BuildIndex groups raw age-specific rows by bracket and audience.
//
// Every bracket seen in the input gets all three audience buckets. Rows whose
// gender is not exactly all, female or male are left out and reported through
// an *IntegrityError; the returned index is complete for every other row.
func BuildIndex(rows []models.AgeSpecificRow) (AgeIndex, error) {
	ix := make(AgeIndex)
	var problems []IntegrityProblem

	for _, row := range rows {
		byAudience, ok := ix[row.AgeGroup]
		if !ok {
			byAudience = make(map[models.Audience][]models.Screening, len(models.Audiences))
			for _, a := range models.Audiences {
				byAudience[a] = []models.Screening{}
			}
			ix[row.AgeGroup] = byAudience
		}

		if !row.Gender.Valid() {
			problems = append(problems, IntegrityProblem{
				Line: row.Line, AgeGroup: row.AgeGroup, Gender: row.Gender, Test: row.Test,
			})
			continue
		}
		byAudience[row.Gender] = append(byAudience[row.Gender], row.Screening())
	}

	if len(problems) > 0 {
		return ix, &IntegrityError{Problems: problems}
	}
	return ix, nil
}
