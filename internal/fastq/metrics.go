package fastq

import (
	"math"
	"slices"
)

// numExtremes is how many shortest/longest read lengths are reported.
const numExtremes = 5

// Metrics summarizes one fastq file.
type Metrics struct {
	NumReads  int     `json:"num_reads"`
	NumBases  int     `json:"num_bases"`
	MeanError float64 `json:"mean_error"`
	MeanPhred int     `json:"mean_phred"`
	MeanLen   int     `json:"mean_len"`
	Shortest  []int   `json:"shortest,omitempty"`
	Longest   []int   `json:"longest,omitempty"`
}

// accumulator builds Metrics incrementally over reads.
type accumulator struct {
	numReads int
	numBases int
	errorSum float64 // sum of per-base error probabilities
	lengths  []int
}

func (a *accumulator) add(r *read) {
	a.numReads++
	a.numBases += len(r.sequence)
	a.errorSum += r.errorSum
	a.lengths = append(a.lengths, len(r.sequence))
}

func (a *accumulator) metrics() Metrics {
	m := Metrics{
		NumReads: a.numReads,
		NumBases: a.numBases,
	}

	if a.numBases > 0 {
		m.MeanError = a.errorSum / float64(a.numBases)
	}
	if m.MeanError > 0 {
		m.MeanPhred = int(math.Round(-10 * math.Log10(m.MeanError)))
	}
	if a.numReads > 0 {
		m.MeanLen = a.numBases / a.numReads

		sorted := slices.Clone(a.lengths)
		slices.Sort(sorted)

		n := min(numExtremes, len(sorted))
		m.Shortest = slices.Clone(sorted[:n])

		longest := slices.Clone(sorted[len(sorted)-n:])
		slices.Reverse(longest)
		m.Longest = longest
	}

	return m
}
