package fastq

import (
	"context"
	"os"
	"path/filepath"
)

// StubTransformer is a canned Transformer for tests. It writes an empty
// filtered file and returns fixed metrics.
type StubTransformer struct {
	MetricsRaw      Metrics
	MetricsFiltered Metrics
	Err             error
}

func (s *StubTransformer) Transform(_ context.Context, _, outDir string) (*Result, error) {
	if s.Err != nil {
		return nil, s.Err
	}

	path := filepath.Join(outDir, FilteredFileName)
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		return nil, err
	}

	return &Result{
		FilteredPath:    path,
		MetricsRaw:      s.MetricsRaw,
		MetricsFiltered: s.MetricsFiltered,
	}, nil
}
