package fastq

import (
	"compress/gzip"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Three reads: one clean, one short and low quality, one with soft-masked
// and ambiguous bases. Quality 'I' is Phred 40, '#' is Phred 2.
const testFastq = "@read1\n" +
	"ACGTACGTAC\n" +
	"+\n" +
	"IIIIIIIIII\n" +
	"@read2\n" +
	"ACGT\n" +
	"+\n" +
	"####\n" +
	"@read3\n" +
	"acgtNACGTN\n" +
	"+\n" +
	"IIIIIIIIII\n"

func writeFastq(t *testing.T, dir, name, content string, gzipped bool) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	if gzipped {
		gz := gzip.NewWriter(f)
		_, err = gz.Write([]byte(content))
		require.NoError(t, err)
		require.NoError(t, gz.Close())
	} else {
		_, err = f.WriteString(content)
		require.NoError(t, err)
	}

	return path
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFilter_Transform_RawMetrics(t *testing.T) {
	dir := t.TempDir()
	input := writeFastq(t, dir, "input.fastq", testFastq, false)

	filter := NewFilter(Thresholds{}, testLogger())
	result, err := filter.Transform(context.Background(), input, dir)
	require.NoError(t, err)

	raw := result.MetricsRaw
	assert.Equal(t, 3, raw.NumReads)
	assert.Equal(t, 24, raw.NumBases)
	assert.Equal(t, 8, raw.MeanLen)
	assert.Equal(t, []int{4, 10, 10}, raw.Shortest)
	assert.Equal(t, []int{10, 10, 4}, raw.Longest)

	// 20 bases at Phred 40, 4 bases at Phred 2.
	wantMeanError := (20*1e-4 + 4*0.63095734448) / 24
	assert.InDelta(t, wantMeanError, raw.MeanError, 1e-6)
	assert.Equal(t, 10, raw.MeanPhred)

	// No thresholds set: every read passes.
	assert.Equal(t, raw.NumReads, result.MetricsFiltered.NumReads)
}

func TestFilter_Transform_Thresholds(t *testing.T) {
	dir := t.TempDir()
	input := writeFastq(t, dir, "input.fastq", testFastq, false)

	filter := NewFilter(Thresholds{
		MinLen:       5,
		MaxError:     0.05,
		MaxAmbiguous: 1,
	}, testLogger())

	result, err := filter.Transform(context.Background(), input, dir)
	require.NoError(t, err)

	// read2 fails length and error rate, read3 fails ambiguous bases.
	assert.Equal(t, 3, result.MetricsRaw.NumReads)
	assert.Equal(t, 1, result.MetricsFiltered.NumReads)
	assert.Equal(t, 10, result.MetricsFiltered.NumBases)

	// The filtered file holds exactly the surviving read.
	f, err := os.Open(result.FilteredPath)
	require.NoError(t, err)
	defer f.Close()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)

	content, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Equal(t, "@read1\nACGTACGTAC\n+\nIIIIIIIIII\n", string(content))
}

func TestFilter_Transform_GzipInput(t *testing.T) {
	dir := t.TempDir()
	input := writeFastq(t, dir, "input.fastq.gz", testFastq, true)

	filter := NewFilter(Thresholds{}, testLogger())
	result, err := filter.Transform(context.Background(), input, dir)
	require.NoError(t, err)

	assert.Equal(t, 3, result.MetricsRaw.NumReads)
	assert.FileExists(t, result.FilteredPath)
}

func TestFilter_Transform_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "header missing at sign",
			content: "read1\nACGT\n+\nIIII\n",
		},
		{
			name:    "truncated record",
			content: "@read1\nACGT\n",
		},
		{
			name:    "quality length mismatch",
			content: "@read1\nACGT\n+\nII\n",
		},
		{
			name:    "separator missing plus",
			content: "@read1\nACGT\nX\nIIII\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			input := writeFastq(t, dir, "bad.fastq", tt.content, false)

			filter := NewFilter(Thresholds{}, testLogger())
			_, err := filter.Transform(context.Background(), input, dir)
			require.Error(t, err)
		})
	}
}

func TestFilter_Transform_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	input := writeFastq(t, dir, "empty.fastq", "", false)

	filter := NewFilter(Thresholds{}, testLogger())
	result, err := filter.Transform(context.Background(), input, dir)
	require.NoError(t, err)

	assert.Equal(t, 0, result.MetricsRaw.NumReads)
	assert.Nil(t, result.MetricsRaw.Shortest)
	assert.Nil(t, result.MetricsRaw.Longest)
	assert.FileExists(t, result.FilteredPath)
}
