// Package pipeline holds the wire schema and record lifecycle vocabulary
// shared by the intake producer and the processing worker.
package pipeline

import (
	"encoding/json"
	"fmt"
)

// Record lifecycle statuses
const (
	StatusCreated = "created"
	StatusPending = "pending"
	StatusDone    = "done"
	StatusError   = "error"
)

// Supported analysis pipelines
const (
	PipelineWgsSingleIsolate   = "wgs_single_isolate"
	PipelineWgsMetagenome      = "wgs_metagenome"
	PipelineAmpliconMetagenome = "amplicon_metagenome"
)

// ValidPipeline reports whether name is a supported pipeline.
func ValidPipeline(name string) bool {
	switch name {
	case PipelineWgsSingleIsolate, PipelineWgsMetagenome, PipelineAmpliconMetagenome:
		return true
	}
	return false
}

// JobMessage is the durable stream payload describing one unit of work.
// Immutable once published; delivery metadata (sequence, redelivery count)
// belongs to the broker, not to this schema.
type JobMessage struct {
	URL           string `json:"url"`
	FastqSampleID string `json:"fastq_sample_id"`
}

// Encode serializes the message for publishing.
func (m *JobMessage) Encode() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode job message: %w", err)
	}
	return data, nil
}

// DecodeJobMessage parses a stream payload. Messages missing either field
// are rejected; they can never be processed.
func DecodeJobMessage(data []byte) (*JobMessage, error) {
	var msg JobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode job message: %w", err)
	}

	if msg.URL == "" || msg.FastqSampleID == "" {
		return nil, fmt.Errorf("job message missing url or fastq_sample_id")
	}

	return &msg, nil
}
