// Package fastq implements the filtering and statistics stage of the
// processing pipeline: raw fastq in, filtered fastq plus two metric sets out.
package fastq

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// FilteredFileName is the deterministic name of the filtered output file.
const FilteredFileName = "filtered.fastq.gz"

// maxLineBytes bounds a single fastq line; long-read platforms produce
// sequences in the megabase range.
const maxLineBytes = 64 * 1024 * 1024

// Thresholds are the declarative filter bounds. Max values of zero mean
// unbounded.
type Thresholds struct {
	MinLen        int
	MaxLen        int
	MinError      float64
	MaxError      float64
	MinSoftmasked int
	MaxSoftmasked int
	MinAmbiguous  int
	MaxAmbiguous  int
}

// Result is the output of one transform run.
type Result struct {
	FilteredPath    string
	MetricsRaw      Metrics
	MetricsFiltered Metrics
}

// Transformer turns a raw fastq file into a filtered file plus metrics.
// Implementations are synchronous and CPU-bound.
type Transformer interface {
	Transform(ctx context.Context, inputPath, outDir string) (*Result, error)
}

// Filter is the default Transformer.
type Filter struct {
	thresholds Thresholds
	logger     *slog.Logger
}

// NewFilter creates a Filter with the given thresholds
func NewFilter(thresholds Thresholds, logger *slog.Logger) *Filter {
	return &Filter{
		thresholds: thresholds,
		logger:     logger,
	}
}

// read is one parsed fastq record.
type read struct {
	header   string
	sequence string
	quality  string
	errorSum float64 // sum of per-base error probabilities
	softmask int     // lowercase bases
	ambig    int     // N bases
}

// meanError is the average per-base error probability of the read.
func (r *read) meanError() float64 {
	if len(r.sequence) == 0 {
		return 0
	}
	return r.errorSum / float64(len(r.sequence))
}

// Transform streams the input file once, accumulating raw metrics for every
// read and writing reads that pass the thresholds to outDir/filtered.fastq.gz,
// accumulating filtered metrics for those.
func (f *Filter) Transform(_ context.Context, inputPath, outDir string) (*Result, error) {
	in, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open fastq %q: %w", inputPath, err)
	}
	defer in.Close()

	var reader io.Reader = in
	if strings.HasSuffix(inputPath, ".gz") {
		gz, err := gzip.NewReader(in)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip fastq %q: %w", inputPath, err)
		}
		defer gz.Close()
		reader = gz
	}

	filteredPath := filepath.Join(outDir, FilteredFileName)
	out, err := os.Create(filteredPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create %q: %w", filteredPath, err)
	}
	defer out.Close()

	gzOut := gzip.NewWriter(out)
	writer := bufio.NewWriter(gzOut)

	var raw, filtered accumulator

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	for {
		r, err := nextRead(scanner)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %q: %w", inputPath, err)
		}
		if r == nil {
			break
		}

		raw.add(r)

		if !f.pass(r) {
			continue
		}

		filtered.add(r)
		fmt.Fprintf(writer, "%s\n%s\n+\n%s\n", r.header, r.sequence, r.quality)
	}

	if err := writer.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush filtered fastq: %w", err)
	}
	if err := gzOut.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish filtered fastq: %w", err)
	}
	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("failed to close filtered fastq: %w", err)
	}

	result := &Result{
		FilteredPath:    filteredPath,
		MetricsRaw:      raw.metrics(),
		MetricsFiltered: filtered.metrics(),
	}

	f.logger.Info("Fastq transform complete",
		slog.String("input", inputPath),
		slog.Int("reads_raw", result.MetricsRaw.NumReads),
		slog.Int("reads_filtered", result.MetricsFiltered.NumReads),
	)

	return result, nil
}

// pass applies the declarative thresholds to one read.
func (f *Filter) pass(r *read) bool {
	t := f.thresholds

	length := len(r.sequence)
	if length < t.MinLen {
		return false
	}
	if t.MaxLen > 0 && length > t.MaxLen {
		return false
	}

	meanErr := r.meanError()
	if meanErr < t.MinError {
		return false
	}
	if t.MaxError > 0 && meanErr > t.MaxError {
		return false
	}

	if r.softmask < t.MinSoftmasked {
		return false
	}
	if t.MaxSoftmasked > 0 && r.softmask > t.MaxSoftmasked {
		return false
	}

	if r.ambig < t.MinAmbiguous {
		return false
	}
	if t.MaxAmbiguous > 0 && r.ambig > t.MaxAmbiguous {
		return false
	}

	return true
}

// nextRead parses the next four-line fastq record, returning nil at EOF.
func nextRead(scanner *bufio.Scanner) (*read, error) {
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, nil
	}

	header := scanner.Text()
	if !strings.HasPrefix(header, "@") {
		return nil, fmt.Errorf("record header %q does not start with '@'", header)
	}

	lines := make([]string, 3)
	for i := range lines {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("truncated record %q", header)
		}
		lines[i] = scanner.Text()
	}

	sequence, plus, quality := lines[0], lines[1], lines[2]
	if !strings.HasPrefix(plus, "+") {
		return nil, fmt.Errorf("record %q separator line missing '+'", header)
	}
	if len(quality) != len(sequence) {
		return nil, fmt.Errorf("record %q quality length %d != sequence length %d",
			header, len(quality), len(sequence))
	}

	r := &read{
		header:   header,
		sequence: sequence,
		quality:  quality,
	}

	for i := 0; i < len(sequence); i++ {
		switch sequence[i] {
		case 'a', 'c', 'g', 't':
			r.softmask++
		case 'N', 'n':
			r.ambig++
		}

		// Phred+33 encoded quality.
		q := float64(quality[i]) - 33
		r.errorSum += math.Pow(10, -q/10)
	}

	return r, nil
}
