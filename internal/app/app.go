package app

import (
	"context"
	"errors"
	"fmt"
	"healthhelper/internal/config"
	"healthhelper/internal/datasource"
	"healthhelper/internal/logger"
	"healthhelper/internal/models"
	"healthhelper/internal/recommend"
	sentryutil "healthhelper/internal/sentry"
	"healthhelper/internal/validation"
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// LoadErrorMessage is the only text shown to the user when no data source works.
const LoadErrorMessage = "Failed to load health recommendations. Please try again later."

var (
	// ErrUnavailable means the reference data could not be loaded; submissions are refused.
	ErrUnavailable = errors.New("health recommendations unavailable")
	// ErrNotReady means Load has not completed yet.
	ErrNotReady = errors.New("health recommendations not loaded yet")
	// ErrShowingResults means Submit was called on the results screen.
	ErrShowingResults = errors.New("results are shown, go back to edit the form")
)

// State is the screen the user is on.
type State int

const (
	StateForm State = iota
	StateResults
)

func (s State) String() string {
	if s == StateResults {
		return "results"
	}
	return "form"
}

// Status is the progress of the reference data load.
type Status int

const (
	StatusLoading Status = iota
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	}
	return "loading"
}

// App holds the loaded reference data and the questionnaire state.
type App struct {
	cfg      config.Config
	loader   *datasource.Loader
	loadOnce sync.Once

	mu       sync.Mutex
	status   Status
	loadErr  error
	data     models.Dataset
	index    recommend.AgeIndex
	problems []recommend.IntegrityProblem

	state   State
	form    validation.FormInput
	results *models.Selection
}

// Sources returns the data sources configured by cfg, in fallback order.
func Sources(cfg config.Config) []datasource.Source {
	remote := datasource.NewHTTPSource(cfg.BaseRecsURL, cfg.AgeRecsURL, cfg.FitnessRecsURL, cfg.HTTPTimeout)
	remote.UserAgent = cfg.UserAgent
	remote.Retries = cfg.HTTPRetries
	return []datasource.Source{
		remote,
		&datasource.DirSource{Dir: cfg.DataDir},
		datasource.EmbeddedSource{},
	}
}

// New creates an app over the sources configured by cfg.
func New(cfg config.Config) *App {
	return NewWithSources(cfg, Sources(cfg)...)
}

// NewWithSources creates an app over explicit sources.
func NewWithSources(cfg config.Config, sources ...datasource.Source) *App {
	return &App{cfg: cfg, loader: datasource.NewLoader(sources...)}
}

// Load retrieves and indexes the reference data. It runs once; later and
// concurrent calls wait for the first and return its outcome. The app lock is
// not held while sources are fetched, so Status reports StatusLoading meanwhile.
func (a *App) Load(ctx context.Context) error {
	a.loadOnce.Do(func() { a.load(ctx) })

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loadErr
}

func (a *App) load(ctx context.Context) {
	var (
		index    recommend.AgeIndex
		problems []recommend.IntegrityProblem
	)
	a.loader.Check = func(ds models.Dataset) error {
		ix, err := recommend.BuildIndex(ds.AgeSpecific)
		var ie *recommend.IntegrityError
		if err != nil && !errors.As(err, &ie) {
			return err
		}
		if ie != nil && a.cfg.StrictData {
			return fmt.Errorf("strict data: %w", ie)
		}
		index = ix
		problems = nil
		if ie != nil {
			problems = ie.Problems
			a.reportProblems(ds.Source, ie)
		}
		return nil
	}

	ds, err := a.loader.Load(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		logger.Error("app: reference data unavailable", map[string]interface{}{"error": err.Error()})
		sentryutil.CaptureError(err, map[string]string{"component": "datasource"})
		a.status = StatusFailed
		a.loadErr = fmt.Errorf("%w: %w", ErrUnavailable, err)
		return
	}

	a.data = ds
	a.index = index
	a.problems = problems
	a.status = StatusReady
	logger.Info("app: ready", map[string]interface{}{
		"source": ds.Source, "indexed": index.Size(), "skipped": len(problems),
	})
}

func (a *App) reportProblems(source string, ie *recommend.IntegrityError) {
	for _, p := range ie.Problems {
		logger.Warn("app: age-specific row skipped", map[string]interface{}{
			"source": source, "line": p.Line, "age_group": string(p.AgeGroup),
			"gender": string(p.Gender), "test": p.Test,
		})
	}
	sentryutil.CaptureMessage(
		fmt.Sprintf("age-specific table has %d row(s) with unknown gender", len(ie.Problems)),
		sentryutil.LevelWarning(),
		map[string]string{"source": source, "skipped": strconv.Itoa(len(ie.Problems))},
	)
}

// Status returns the load status.
func (a *App) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// State returns the current screen.
func (a *App) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Dataset returns the loaded reference data.
func (a *App) Dataset() models.Dataset {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.data
}

// Index returns the age-specific index built from the loaded data.
func (a *App) Index() recommend.AgeIndex {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.index
}

// Problems returns the age-specific rows left out of the index.
func (a *App) Problems() []recommend.IntegrityProblem {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.problems
}

// Form returns the last submitted answers, kept across Back.
func (a *App) Form() validation.FormInput {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.form
}

// Submit validates the answers and computes a fresh selection, moving the
// app to the results screen. An empty age keeps the form open.
func (a *App) Submit(in validation.FormInput) (models.Selection, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.status {
	case StatusLoading:
		return models.Selection{}, ErrNotReady
	case StatusFailed:
		return models.Selection{}, ErrUnavailable
	}
	if a.state == StateResults {
		return models.Selection{}, ErrShowingResults
	}

	a.form = in.Normalize()
	profile, err := validation.ParseProfile(in)
	if err != nil {
		return models.Selection{}, err
	}

	sel := recommend.Select(profile, a.data, a.index)
	sel.ID = uuid.NewString()
	a.results = &sel
	a.state = StateResults

	logger.Info("app: recommendations computed", map[string]interface{}{
		"id": sel.ID, "age_group": string(sel.AgeGroup),
		"screenings": len(sel.Screenings), "fitness": len(sel.Fitness),
	})
	return sel, nil
}

// Results returns the selection on screen, if any.
func (a *App) Results() (models.Selection, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.results == nil {
		return models.Selection{}, false
	}
	return *a.results, true
}

// Back returns to the form and discards the results.
func (a *App) Back() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.results = nil
	a.state = StateForm
}
