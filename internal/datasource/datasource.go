package datasource

import (
	"context"
	"errors"
	"fmt"
	"healthhelper/internal/logger"
	"healthhelper/internal/models"
)

// File names of the three reference tables.
const (
	BaseFile        = "base-recs.csv"
	AgeSpecificFile = "age-specific-recs.csv"
	FitnessFile     = "physical-fitness-recs.csv"
)

// ErrNoData is returned when no source produced a complete dataset.
var ErrNoData = errors.New("no reference data source succeeded")

// Table is one raw reference table as retrieved from a source.
type Table struct {
	Name        string
	ContentType string
	Data        []byte
}

// Tables holds the three raw tables of one source.
type Tables struct {
	Base        Table
	AgeSpecific Table
	Fitness     Table
}

// Source is a place the reference tables can be loaded from.
// Fetch must return all three tables or an error; never a partial set.
type Source interface {
	Name() string
	Enabled() bool
	Fetch(ctx context.Context) (Tables, error)
}

// Loader tries its sources in order until one yields a complete dataset.
type Loader struct {
	sources []Source
	// Check, when set, runs on every decoded dataset; an error rejects the
	// source and the next one is tried.
	Check func(models.Dataset) error
}

// NewLoader returns a loader walking sources in the given order.
func NewLoader(sources ...Source) *Loader {
	return &Loader{sources: sources}
}

// Sources returns the configured sources in order.
func (l *Loader) Sources() []Source {
	return l.sources
}

// Load returns the dataset of the first source that fully succeeds.
func (l *Loader) Load(ctx context.Context) (models.Dataset, error) {
	var errs []error
	for _, src := range l.sources {
		if !src.Enabled() {
			logger.Debug("datasource: skipped", map[string]interface{}{"source": src.Name()})
			continue
		}
		if err := ctx.Err(); err != nil {
			return models.Dataset{}, err
		}

		ds, err := l.try(ctx, src)
		if err != nil {
			logger.Warn("datasource: failed, trying next", map[string]interface{}{
				"source": src.Name(), "error": err.Error(),
			})
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
			continue
		}
		logger.Info("datasource: loaded", map[string]interface{}{
			"source":       src.Name(),
			"base":         len(ds.Base),
			"age_specific": len(ds.AgeSpecific),
			"fitness":      len(ds.Fitness),
		})
		return ds, nil
	}
	if len(errs) == 0 {
		return models.Dataset{}, fmt.Errorf("%w: no source enabled", ErrNoData)
	}
	return models.Dataset{}, fmt.Errorf("%w: %w", ErrNoData, errors.Join(errs...))
}

func (l *Loader) try(ctx context.Context, src Source) (ds models.Dataset, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	logger.Debug("datasource: fetching", map[string]interface{}{"source": src.Name()})
	tables, err := src.Fetch(ctx)
	if err != nil {
		return models.Dataset{}, err
	}
	ds, err = Decode(src.Name(), tables)
	if err != nil {
		return models.Dataset{}, err
	}
	if l.Check != nil {
		if err := l.Check(ds); err != nil {
			return models.Dataset{}, err
		}
	}
	return ds, nil
}
