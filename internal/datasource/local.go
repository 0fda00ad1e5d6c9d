package datasource

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DirSource reads the three tables from a directory on disk.
type DirSource struct {
	Dir string
}

func (s *DirSource) Name() string { return "local" }

func (s *DirSource) Enabled() bool { return s.Dir != "" }

func (s *DirSource) Fetch(ctx context.Context) (Tables, error) {
	return readTables(os.DirFS(s.Dir), ".")
}

//go:embed sample/*.csv
var sampleFS embed.FS

// EmbeddedSource is the built-in sample dataset. It is always complete.
type EmbeddedSource struct{}

func (EmbeddedSource) Name() string { return "embedded" }

func (EmbeddedSource) Enabled() bool { return true }

func (EmbeddedSource) Fetch(ctx context.Context) (Tables, error) {
	return readTables(sampleFS, "sample")
}

func readTables(fsys fs.FS, dir string) (Tables, error) {
	var (
		t   Tables
		err error
	)
	if t.Base, err = readTable(fsys, dir, BaseFile); err != nil {
		return Tables{}, err
	}
	if t.AgeSpecific, err = readTable(fsys, dir, AgeSpecificFile); err != nil {
		return Tables{}, err
	}
	if t.Fitness, err = readTable(fsys, dir, FitnessFile); err != nil {
		return Tables{}, err
	}
	return t, nil
}

func readTable(fsys fs.FS, dir, name string) (Table, error) {
	data, err := fs.ReadFile(fsys, filepath.ToSlash(filepath.Join(dir, name)))
	if err != nil {
		return Table{}, fmt.Errorf("read %s: %w", name, err)
	}
	return Table{Name: name, ContentType: "text/csv", Data: data}, nil
}
