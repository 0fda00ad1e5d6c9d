package recommend

import (
	"context"
	"errors"
	"healthhelper/internal/datasource"
	"healthhelper/internal/models"
	"reflect"
	"testing"
)

func sampleData(t *testing.T) (models.Dataset, AgeIndex) {
	t.Helper()
	ds, err := datasource.NewLoader(datasource.EmbeddedSource{}).Load(context.Background())
	if err != nil {
		t.Fatalf("load sample: %v", err)
	}
	ix, err := BuildIndex(ds.AgeSpecific)
	if err != nil {
		t.Fatalf("index sample: %v", err)
	}
	return ds, ix
}

func tests(rows []models.Screening) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Test
	}
	return out
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

var allProfiles = func() []models.Profile {
	var out []models.Profile
	for _, s := range []string{"", models.SmokingYes, models.SmokingNo} {
		for _, a := range []string{"", models.AlcoholNone, models.AlcoholLight, models.AlcoholModerate, models.AlcoholHeavy} {
			for _, pa := range []string{"", models.ActivitySedentary, models.ActivityLight, models.ActivityModerate, models.ActivityActive} {
				out = append(out, models.Profile{Age: 30, SmokingStatus: s, AlcoholConsumption: a, PhysicalActivity: pa})
			}
		}
	}
	return out
}()

func TestApplies_AllTagAlwaysApplies(t *testing.T) {
	row := &models.Screening{Test: "Dental exam", RiskFactors: models.RiskFactors{models.TagAll}}
	for _, p := range allProfiles {
		if !Applies(row, p) {
			t.Errorf("row tagged all should apply to %+v", p)
		}
	}
}

func TestApplies_SmokerTagOnlyForSmokers(t *testing.T) {
	row := &models.Screening{Test: "Lung function tests", RiskFactors: models.RiskFactors{models.TagSmoker}}
	for _, p := range allProfiles {
		want := p.SmokingStatus == models.SmokingYes
		if got := Applies(row, p); got != want {
			t.Errorf("Applies(smoker row, %+v) = %v, want %v", p, got, want)
		}
	}
}

func TestApplies_MultiTagIntersects(t *testing.T) {
	row := &models.FitnessActivity{ActivityType: "Supervised cardio", RiskFactors: models.ParseRiskFactors("smoker, heavyDrinker, sedentary")}
	if Applies(row, models.Profile{Age: 50}) {
		t.Error("no risk factors should not match")
	}
	if !Applies(row, models.Profile{Age: 50, AlcoholConsumption: models.AlcoholHeavy}) {
		t.Error("heavy drinker should match")
	}
	if !Applies(row, models.Profile{Age: 50, PhysicalActivity: models.ActivitySedentary}) {
		t.Error("sedentary should match")
	}
	if Applies(row, models.Profile{Age: 50, AlcoholConsumption: models.AlcoholModerate, PhysicalActivity: models.ActivityLight}) {
		t.Error("moderate drinker with light activity should not match")
	}
}

func TestApplies_FailsClosed(t *testing.T) {
	smoker := models.Profile{Age: 30, SmokingStatus: models.SmokingYes}
	if Applies(nil, smoker) {
		t.Error("nil row should not apply")
	}
	var missing *models.Screening
	if Applies(missing, smoker) {
		t.Error("nil *Screening should not apply")
	}
	if Applies(&models.Screening{Test: "untagged"}, smoker) {
		t.Error("row without a tag set should not apply")
	}
	if Applies(&models.Screening{Test: "typo", RiskFactors: models.RiskFactors{"smokers"}}, smoker) {
		t.Error("unknown tags never match")
	}
}

func TestApplies_Deterministic(t *testing.T) {
	row := &models.Screening{RiskFactors: models.ParseRiskFactors("smoker, heavyDrinker")}
	p := models.Profile{Age: 45, AlcoholConsumption: models.AlcoholHeavy}
	first := Applies(row, p)
	for i := 0; i < 10; i++ {
		if Applies(row, p) != first {
			t.Fatal("Applies is not deterministic")
		}
	}
}

func TestAgeGroupFor_Boundaries(t *testing.T) {
	cases := map[int]models.AgeGroup{
		17:  models.AgeGroupUnknown,
		18:  models.AgeGroup18To39,
		39:  models.AgeGroup18To39,
		40:  models.AgeGroup40To49,
		49:  models.AgeGroup40To49,
		50:  models.AgeGroup50To64,
		64:  models.AgeGroup50To64,
		65:  models.AgeGroup65Plus,
		104: models.AgeGroup65Plus,
		0:   models.AgeGroupUnknown,
	}
	for age, want := range cases {
		if got := AgeGroupFor(age); got != want {
			t.Errorf("AgeGroupFor(%d) = %q, want %q", age, got, want)
		}
	}
}

func TestEyeExamFrequency(t *testing.T) {
	if got := EyeExamFrequency(39); got != "Every 2-3 years" {
		t.Errorf("age 39: %q", got)
	}
	if got := EyeExamFrequency(40); got != "Yearly" {
		t.Errorf("age 40: %q", got)
	}
	if got := DisplayFrequency(EyeExamSentinel, 25); got != "Every 2-3 years" {
		t.Errorf("sentinel at 25: %q", got)
	}
	if got := DisplayFrequency("Every 6 months", 25); got != "Every 6 months" {
		t.Errorf("plain frequency changed: %q", got)
	}
}

func TestBuildIndex_BucketsAndOrder(t *testing.T) {
	rows := []models.AgeSpecificRow{
		{AgeGroup: "40-49", Gender: "all", Test: "Diabetes screening"},
		{AgeGroup: "40-49", Gender: "female", Test: "Pap smear"},
		{AgeGroup: "40-49", Gender: "female", Test: "Mammogram", RiskFactors: ""},
		{AgeGroup: "40-49", Gender: "male", Test: "Prostate cancer discussion"},
		{AgeGroup: "65+", Gender: "all", Test: "Hearing test", RiskFactors: "heavyDrinker, sedentary"},
	}
	ix, err := BuildIndex(rows)
	if err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}
	if got := tests(ix.Bucket("40-49", models.AudienceFemale)); !reflect.DeepEqual(got, []string{"Pap smear", "Mammogram"}) {
		t.Errorf("40-49/female = %v", got)
	}
	if got := ix.Bucket("65+", models.AudienceFemale); got == nil || len(got) != 0 {
		t.Errorf("65+/female = %#v, want empty non-nil", got)
	}
	if got := ix.Bucket("50-64", models.AudienceAll); got == nil || len(got) != 0 {
		t.Errorf("missing bracket = %#v, want empty", got)
	}
	if rf := ix.Bucket("40-49", models.AudienceFemale)[1].RiskFactors; !reflect.DeepEqual(rf, models.RiskFactors{models.TagAll}) {
		t.Errorf("empty riskFactors = %v, want [all]", rf)
	}
	if rf := ix.Bucket("65+", models.AudienceAll)[0].RiskFactors; !reflect.DeepEqual(rf, models.RiskFactors{"heavyDrinker", "sedentary"}) {
		t.Errorf("split riskFactors = %v", rf)
	}
	if ix.Size() != len(rows) {
		t.Errorf("Size = %d, want %d", ix.Size(), len(rows))
	}
}

func TestBuildIndex_KeepsDuplicates(t *testing.T) {
	row := models.AgeSpecificRow{AgeGroup: "18-39", Gender: "all", Test: "HPV vaccine"}
	ix, err := BuildIndex([]models.AgeSpecificRow{row, row})
	if err != nil {
		t.Fatal(err)
	}
	if n := len(ix.Bucket("18-39", models.AudienceAll)); n != 2 {
		t.Errorf("duplicates = %d, want 2", n)
	}
}

func TestBuildIndex_Idempotent(t *testing.T) {
	ds, _ := sampleData(t)
	a, errA := BuildIndex(ds.AgeSpecific)
	b, errB := BuildIndex(ds.AgeSpecific)
	if errA != nil || errB != nil {
		t.Fatalf("errors: %v / %v", errA, errB)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("rebuilding from the same rows gave a different index")
	}
}

func TestBuildIndex_UnknownGenderReported(t *testing.T) {
	rows := []models.AgeSpecificRow{
		{AgeGroup: "50-64", Gender: "all", Test: "Shingles vaccine", Line: 2},
		{AgeGroup: "50-64", Gender: "Female", Test: "Mammogram", Line: 3},
		{AgeGroup: "18-39", Gender: "", Test: "Pap smear", Line: 4},
	}
	ix, err := BuildIndex(rows)
	var ie *IntegrityError
	if !errors.As(err, &ie) {
		t.Fatalf("err = %v, want *IntegrityError", err)
	}
	if len(ie.Problems) != 2 || ie.Problems[0].Line != 3 || ie.Problems[1].Line != 4 {
		t.Errorf("problems = %+v", ie.Problems)
	}
	if ix.Size() != 1 {
		t.Errorf("indexed rows = %d, want 1", ix.Size())
	}
	if _, ok := ix["18-39"]; !ok {
		t.Error("bracket of a rejected row should still exist")
	}
}

func TestSelect_FemaleSmoker45(t *testing.T) {
	ds, ix := sampleData(t)
	p := models.Profile{Age: 45, Gender: "female", SmokingStatus: "yes", AlcoholConsumption: "none", PhysicalActivity: "active"}
	sel := Select(p, ds, ix)

	if sel.AgeGroup != models.AgeGroup40To49 {
		t.Errorf("age group = %q", sel.AgeGroup)
	}
	names := tests(sel.Screenings)
	for _, want := range []string{"Liver function tests", "Lung function tests", "Diabetes screening", "Lung cancer screening", "Mammogram", "Pap smear"} {
		if !contains(names, want) {
			t.Errorf("missing %q in %v", want, names)
		}
	}
	for _, unwanted := range []string{"Nutrition counseling", "Exercise consultation", "Prostate cancer discussion"} {
		if contains(names, unwanted) {
			t.Errorf("unexpected %q", unwanted)
		}
	}
	if len(sel.Screenings) != 17 {
		t.Errorf("screenings = %d, want 17: %v", len(sel.Screenings), names)
	}

	// base, then age-general, then age-female
	idx := func(name string) int {
		for i, n := range names {
			if n == name {
				return i
			}
		}
		return -1
	}
	if !(idx("Heart health assessment") < idx("Diabetes screening") && idx("Cardiac stress test") < idx("Pap smear")) {
		t.Errorf("segments out of order: %v", names)
	}

	if len(sel.Fitness) != 7 {
		t.Errorf("fitness = %d, want 7", len(sel.Fitness))
	}
	if sel.Fitness[0].AgeGroup != models.AgeGroupAll || sel.Fitness[len(sel.Fitness)-1].AgeGroup != models.AgeGroup40To49 {
		t.Errorf("fitness should list all-ages rows first, got %+v", sel.Fitness)
	}
}

func TestSelect_Under18GetsBaseOnly(t *testing.T) {
	ds, ix := sampleData(t)
	p := models.Profile{Age: 17, Gender: "male"}
	sel := Select(p, ds, ix)

	want := tests(FilterScreenings(ds.Base, p))
	if got := tests(sel.Screenings); !reflect.DeepEqual(got, want) {
		t.Errorf("screenings = %v, want base rows %v", got, want)
	}
	if sel.AgeGroup != models.AgeGroupUnknown {
		t.Errorf("age group = %q, want none", sel.AgeGroup)
	}
	for _, f := range sel.Fitness {
		if f.AgeGroup != models.AgeGroupAll {
			t.Errorf("bracket fitness row for age 17: %+v", f)
		}
	}
}

func TestSelect_OtherGenderGetsNoGenderRows(t *testing.T) {
	ds, ix := sampleData(t)
	sel := Select(models.Profile{Age: 55, Gender: "other"}, ds, ix)
	names := tests(sel.Screenings)
	for _, n := range []string{"Mammogram", "Prostate cancer screening", "Bone density screening"} {
		if contains(names, n) {
			t.Errorf("gender-specific %q for gender other", n)
		}
	}
	if !contains(names, "Colorectal cancer screening") {
		t.Error("general 50-64 rows missing")
	}
}

func TestSelect_Deterministic(t *testing.T) {
	ds, ix := sampleData(t)
	p := models.Profile{Age: 67, Gender: "male", AlcoholConsumption: "heavy", PhysicalActivity: "sedentary"}
	a := Select(p, ds, ix)
	for i := 0; i < 5; i++ {
		if b := Select(p, ds, ix); !reflect.DeepEqual(a, b) {
			t.Fatal("Select is not deterministic")
		}
	}
}

func TestSelect_FitnessDoubleListedAppearsTwice(t *testing.T) {
	ds := models.Dataset{Fitness: []models.FitnessActivity{
		{ActivityType: "Walking", AgeGroup: "all", RiskFactors: models.RiskFactors{"all"}},
		{ActivityType: "Walking", AgeGroup: "18-39", RiskFactors: models.RiskFactors{"all"}},
		{ActivityType: "Chair yoga", AgeGroup: "65+", RiskFactors: models.RiskFactors{"all"}},
	}}
	sel := Select(models.Profile{Age: 25}, ds, AgeIndex{})
	if len(sel.Fitness) != 2 || sel.Fitness[0].ActivityType != "Walking" || sel.Fitness[1].ActivityType != "Walking" {
		t.Errorf("fitness = %+v, want Walking twice", sel.Fitness)
	}
	if len(sel.Screenings) != 0 {
		t.Errorf("screenings = %+v, want none", sel.Screenings)
	}
}
