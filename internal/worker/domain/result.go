package domain

import "github.com/OscarAspelin95/dx-go/internal/fastq"

// ResultRecord is everything persisted for one completed processing pass.
type ResultRecord struct {
	SampleID        string
	ResultURL       string
	RuntimeSeconds  int64
	MetricsRaw      fastq.Metrics
	MetricsFiltered fastq.Metrics
}
