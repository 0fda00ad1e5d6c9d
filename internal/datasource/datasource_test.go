package datasource

import (
	"context"
	"errors"
	"healthhelper/internal/models"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

const testBase = "test,frequency,notes,riskFactors\nAnnual physical exam,Yearly,General health assessment,all\nLung function tests,Yearly,Spirometry,smoker\n"
const testAge = "ageGroup,gender,test,frequency,notes,riskFactors\n40-49,female,Mammogram,Discuss with doctor,Based on personal risk factors,all\n"
const testFitness = "activityType,frequency,duration,intensity,notes,ageGroup,riskFactors\nAerobic activity,5 days,30 minutes,Moderate,Walk,all,all\n"

func writeTables(t *testing.T, dir string) {
	t.Helper()
	for name, body := range map[string]string{BaseFile: testBase, AgeSpecificFile: testAge, FitnessFile: testFitness} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestEmbeddedSource_Complete(t *testing.T) {
	tables, err := EmbeddedSource{}.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	ds, err := Decode("embedded", tables)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(ds.Base) != 12 {
		t.Errorf("base rows = %d, want 12", len(ds.Base))
	}
	if len(ds.AgeSpecific) != 43 {
		t.Errorf("age-specific rows = %d, want 43", len(ds.AgeSpecific))
	}
	if len(ds.Fitness) == 0 {
		t.Error("embedded dataset must include a fitness table")
	}
	for _, r := range ds.AgeSpecific {
		if !r.Gender.Valid() {
			t.Errorf("line %d: invalid gender %q in sample data", r.Line, r.Gender)
		}
	}
	liver := ds.Base[7]
	if liver.Test != "Liver function tests" {
		t.Fatalf("base[7] = %q", liver.Test)
	}
	if len(liver.RiskFactors) != 2 || !liver.RiskFactors.Has(models.TagSmoker) || !liver.RiskFactors.Has(models.TagHeavyDrinker) {
		t.Errorf("liver risk factors = %v", liver.RiskFactors)
	}
}

func TestDecodeCSV_MissingRiskFactorsDefaultsToAll(t *testing.T) {
	d, err := decodeCSV([]byte("test,frequency,notes\nDental exam,Every 6 months,\n"))
	if err != nil {
		t.Fatal(err)
	}
	rows, err := screenings(d)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d", len(rows))
	}
	if len(rows[0].RiskFactors) != 1 || rows[0].RiskFactors[0] != models.TagAll {
		t.Errorf("risk factors = %v, want [all]", rows[0].RiskFactors)
	}
	if rows[0].Notes != "" {
		t.Errorf("notes = %q, want empty", rows[0].Notes)
	}
}

func TestDecodeCSV_SkipsEmptyLinesAndTracksLines(t *testing.T) {
	d, err := decodeCSV([]byte(testAge + "\n\n50-64,male,Prostate cancer screening,Discuss with doctor,Based on risk factors,\n"))
	if err != nil {
		t.Fatal(err)
	}
	rows, err := ageSpecificRows(d)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Line != 2 || rows[1].Line != 5 {
		t.Errorf("lines = %d,%d, want 2,5", rows[0].Line, rows[1].Line)
	}
}

func TestDecode_MissingColumnFails(t *testing.T) {
	tables := Tables{
		Base:        Table{Name: BaseFile, Data: []byte("name,frequency\nX,Yearly\n")},
		AgeSpecific: Table{Name: AgeSpecificFile, Data: []byte(testAge)},
		Fitness:     Table{Name: FitnessFile, Data: []byte(testFitness)},
	}
	if _, err := Decode("x", tables); !errors.Is(err, errMissingColumn) {
		t.Errorf("err = %v, want missing column", err)
	}
}

func TestDecodeHTMLTable_PublishedSheet(t *testing.T) {
	page := `<!DOCTYPE html><html><body><div><table class="waffle">
<thead><tr><th></th><th>A</th><th>B</th><th>C</th><th>D</th></tr></thead>
<tbody>
<tr><th>1</th><td>test</td><td>frequency</td><td>notes</td><td>riskFactors</td></tr>
<tr><th>2</th><td>Lung function tests</td><td>Yearly</td><td>Spirometry and<br>breathing tests</td><td>smoker</td></tr>
<tr><th>3</th><td></td><td></td><td></td><td></td></tr>
<tr><th>4</th><td>Dental exam</td><td>Every 6 months</td><td>Preventive</td><td></td></tr>
</tbody></table></div></body></html>`
	d, err := decodeTable(Table{Name: BaseFile, ContentType: "text/html; charset=utf-8", Data: []byte(page)})
	if err != nil {
		t.Fatal(err)
	}
	rows, err := screenings(d)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Test != "Lung function tests" || rows[0].Notes != "Spirometry and breathing tests" {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if !rows[0].RiskFactors.Has(models.TagSmoker) {
		t.Errorf("row 0 risk factors = %v", rows[0].RiskFactors)
	}
	if !rows[1].RiskFactors.Has(models.TagAll) {
		t.Errorf("row 1 risk factors = %v, want all", rows[1].RiskFactors)
	}
}

func TestDecodeHTMLTable_NoTable(t *testing.T) {
	_, err := decodeTable(Table{Data: []byte("<html><body><p>moved</p></body></html>")})
	if !errors.Is(err, errEmptyTable) {
		t.Errorf("err = %v, want empty table", err)
	}
}

func newTableServer(t *testing.T, failPath string, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		if r.URL.Path == failPath {
			http.Error(w, "gone", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		switch r.URL.Path {
		case "/base.csv":
			w.Write([]byte(testBase))
		case "/age.csv":
			w.Write([]byte(testAge))
		case "/fitness.csv":
			w.Write([]byte(testFitness))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPSource_Fetch(t *testing.T) {
	srv := newTableServer(t, "", nil)
	src := NewHTTPSource(srv.URL+"/base.csv", srv.URL+"/age.csv", srv.URL+"/fitness.csv", 0)
	tables, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	ds, err := Decode(src.Name(), tables)
	if err != nil {
		t.Fatal(err)
	}
	if len(ds.Base) != 2 || len(ds.AgeSpecific) != 1 || len(ds.Fitness) != 1 {
		t.Errorf("counts = %d/%d/%d", len(ds.Base), len(ds.AgeSpecific), len(ds.Fitness))
	}
}

func TestHTTPSource_NotFoundIsNotRetried(t *testing.T) {
	var hits int32
	srv := newTableServer(t, "/fitness.csv", &hits)
	src := NewHTTPSource(srv.URL+"/base.csv", srv.URL+"/age.csv", srv.URL+"/fitness.csv", 0)
	src.Retries = 3
	src.Backoff = 0

	_, err := src.Fetch(context.Background())
	var se *statusError
	if !errors.As(err, &se) || se.code != http.StatusNotFound {
		t.Fatalf("err = %v, want 404 status error", err)
	}
	if !strings.Contains(err.Error(), "fitness") {
		t.Errorf("error should name the fitness table: %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Errorf("requests = %d, want 3 (no retry on 404)", got)
	}
}

func TestHTTPSource_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(testBase))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, srv.URL, srv.URL, 0)
	src.Retries = 1
	src.Backoff = 0
	if _, err := src.fetchTable(context.Background(), BaseFile, srv.URL); err != nil {
		t.Fatalf("fetchTable: %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestLoader_FallsBackInOrder(t *testing.T) {
	srv := newTableServer(t, "/age.csv", nil)
	remote := NewHTTPSource(srv.URL+"/base.csv", srv.URL+"/age.csv", srv.URL+"/fitness.csv", 0)
	remote.Backoff = 0

	dir := t.TempDir()
	writeTables(t, dir)

	ds, err := NewLoader(remote, &DirSource{Dir: dir}, EmbeddedSource{}).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.Source != "local" {
		t.Errorf("source = %q, want local", ds.Source)
	}
	if len(ds.Base) != 2 {
		t.Errorf("base rows = %d, want 2 (never a mix of sources)", len(ds.Base))
	}
}

func TestLoader_IncompleteDirFallsBackToEmbedded(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, BaseFile), []byte(testBase), 0o644); err != nil {
		t.Fatal(err)
	}
	ds, err := NewLoader(&DirSource{Dir: dir}, EmbeddedSource{}).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.Source != "embedded" {
		t.Errorf("source = %q, want embedded", ds.Source)
	}
	if len(ds.Base) != 12 {
		t.Errorf("base rows = %d, want the full sample", len(ds.Base))
	}
}

func TestLoader_CheckRejectsSource(t *testing.T) {
	dir := t.TempDir()
	writeTables(t, dir)
	l := NewLoader(&DirSource{Dir: dir}, EmbeddedSource{})
	l.Check = func(ds models.Dataset) error {
		if ds.Source == "local" {
			return errors.New("bad rows")
		}
		return nil
	}
	ds, err := l.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if ds.Source != "embedded" {
		t.Errorf("source = %q, want embedded", ds.Source)
	}
}

func TestLoader_AllFail(t *testing.T) {
	_, err := NewLoader(&DirSource{Dir: filepath.Join(t.TempDir(), "missing")}, &DirSource{}).Load(context.Background())
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err should wrap the source failure: %v", err)
	}
}

func TestLoader_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLoader(EmbeddedSource{}).Load(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestHTTPSource_OversizedTableFallsBack(t *testing.T) {
	var hits int32
	big := strings.Repeat("Annual physical exam,Yearly,General health assessment,all\n", (3*1024*1024)/58)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "text/csv")
		switch r.URL.Path {
		case "/base.csv":
			w.Write([]byte("test,frequency,notes,riskFactors\n" + big + "LAST ROW,Yearly,,all\n"))
		case "/age.csv":
			w.Write([]byte(testAge))
		default:
			w.Write([]byte(testFitness))
		}
	}))
	defer srv.Close()

	remote := NewHTTPSource(srv.URL+"/base.csv", srv.URL+"/age.csv", srv.URL+"/fitness.csv", 0)
	remote.Retries = 2
	remote.Backoff = 0

	if _, err := remote.Fetch(context.Background()); !errors.Is(err, errTableTooLarge) {
		t.Fatalf("Fetch err = %v, want errTableTooLarge", err)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("requests = %d, want 1 (oversized table is not retried)", got)
	}

	ds, err := NewLoader(remote, EmbeddedSource{}).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.Source != "embedded" {
		t.Errorf("source = %q, want embedded", ds.Source)
	}
	if len(ds.Base) != 12 {
		t.Errorf("base rows = %d, want the full sample", len(ds.Base))
	}
}
