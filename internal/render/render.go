// Package render formats selections for the terminal.
package render

import (
	"encoding/json"
	"fmt"
	"healthhelper/internal/models"
	"healthhelper/internal/recommend"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
)

const (
	Title           = "Health Helper"
	Subtitle        = "Personalized Health Screening Recommendations"
	PlanHeading     = "Your Personalized Health Plan"
	ScreeningsTitle = "Recommended Health Screenings"
	FitnessTitle    = "Recommended Physical Activity"
	RemindersTitle  = "Important Reminders:"
	GuidelinesNote  = "Note: These are general guidelines. Please consult with healthcare providers for personalized advice."
	FooterNote      = "Health and fitness recommendation data is maintained for easy updates and management."
	LastUpdated     = "Last updated: March 11, 2025"
)

var Reminders = []string{
	"These recommendations are based on general guidelines from health organizations.",
	"Your personal health history may require different screenings or frequencies.",
	"Always consult with your healthcare provider for personalized advice.",
	"Some screenings may start earlier if you have family history or risk factors.",
	"Start any new exercise program gradually, especially if you've been inactive.",
}

// Field is one labelled line of the profile summary.
type Field struct {
	Label string
	Value string
}

// ProfileFields lists the answered questions, age first. Unset answers are left out.
func ProfileFields(p models.Profile) []Field {
	out := []Field{{"Age", fmt.Sprint(p.Age)}}
	if p.Gender != "" {
		out = append(out, Field{"Gender", p.Gender})
	}
	if p.SmokingStatus != "" {
		smoking := "Non-smoker"
		if p.SmokingStatus == models.SmokingYes {
			smoking = "Current or recent smoker"
		}
		out = append(out, Field{"Smoking Status", smoking})
	}
	if p.AlcoholConsumption != "" {
		out = append(out, Field{"Alcohol Consumption", p.AlcoholConsumption})
	}
	if p.PhysicalActivity != "" {
		out = append(out, Field{"Physical Activity", p.PhysicalActivity})
	}
	return out
}

// Plan is a selection ready for display, with age-dependent frequencies resolved.
type Plan struct {
	ID         string                   `json:"id"`
	Profile    models.Profile           `json:"profile"`
	AgeGroup   models.AgeGroup          `json:"ageGroup,omitempty"`
	Screenings []models.Screening       `json:"screenings"`
	Fitness    []models.FitnessActivity `json:"fitness"`
}

// View resolves the selection for display. The selection is not modified.
func View(sel models.Selection) Plan {
	screenings := make([]models.Screening, len(sel.Screenings))
	for i, s := range sel.Screenings {
		s.Frequency = recommend.DisplayFrequency(s.Frequency, sel.Profile.Age)
		screenings[i] = s
	}
	fitness := sel.Fitness
	if fitness == nil {
		fitness = []models.FitnessActivity{}
	}
	return Plan{
		ID:         sel.ID,
		Profile:    sel.Profile,
		AgeGroup:   sel.AgeGroup,
		Screenings: screenings,
		Fitness:    fitness,
	}
}

// Text writes the plan as aligned tables.
func Text(w io.Writer, sel models.Selection) error {
	plan := View(sel)
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n%s\n\n", PlanHeading, strings.Repeat("=", len(PlanHeading)))
	for _, f := range ProfileFields(plan.Profile) {
		fmt.Fprintf(&b, "%s: %s\n", f.Label, f.Value)
	}
	fmt.Fprintf(&b, "\n%s\n\n", GuidelinesNote)

	heading(&b, ScreeningsTitle)
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Screening/Test\tFrequency\tNotes")
	for _, s := range plan.Screenings {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Test, s.Frequency, s.Notes)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(plan.Fitness) > 0 {
		b.WriteString("\n")
		heading(&b, FitnessTitle)
		tw = tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "Activity Type\tFrequency\tDuration\tIntensity\tNotes")
		for _, f := range plan.Fitness {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", f.ActivityType, f.Frequency, f.Duration, f.Intensity, f.Notes)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintf(&b, "\n%s\n", RemindersTitle)
	for _, r := range Reminders {
		fmt.Fprintf(&b, "  - %s\n", r)
	}
	fmt.Fprintf(&b, "\n%s\n%s\n", FooterNote, LastUpdated)

	_, err := io.WriteString(w, b.String())
	return err
}

func heading(b *strings.Builder, title string) {
	fmt.Fprintf(b, "%s\n%s\n", title, strings.Repeat("-", len(title)))
}

// JSON writes the plan as indented JSON.
func JSON(w io.Writer, sel models.Selection) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(View(sel))
}

// Summary describes loaded reference data: its source, table sizes,
// index buckets and any rows left out.
func Summary(w io.Writer, ds models.Dataset, ix recommend.AgeIndex, problems []recommend.IntegrityProblem) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Source: %s\n\n", ds.Source)

	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Table\tRows")
	fmt.Fprintf(tw, "base\t%d\n", len(ds.Base))
	fmt.Fprintf(tw, "age-specific\t%d\n", len(ds.AgeSpecific))
	fmt.Fprintf(tw, "fitness\t%d\n", len(ds.Fitness))
	if err := tw.Flush(); err != nil {
		return err
	}

	groups := make([]string, 0, len(ix))
	for g := range ix {
		groups = append(groups, string(g))
	}
	sort.Strings(groups)

	b.WriteString("\n")
	tw = tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Age group\tall\tfemale\tmale")
	for _, g := range groups {
		ag := models.AgeGroup(g)
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", g,
			len(ix.Bucket(ag, models.AudienceAll)),
			len(ix.Bucket(ag, models.AudienceFemale)),
			len(ix.Bucket(ag, models.AudienceMale)))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(problems) > 0 {
		fmt.Fprintf(&b, "\nSkipped rows (%d):\n", len(problems))
		for _, p := range problems {
			fmt.Fprintf(&b, "  - %s\n", p)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
