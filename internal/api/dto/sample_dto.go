package dto

import "encoding/json"

type UploadResponse struct {
	SampleID string `json:"sample_id"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	URL      string `json:"url"`
	Pipeline string `json:"pipeline"`
}

type ListSamplesRequest struct {
	Status   string `form:"status"`
	Pipeline string `form:"pipeline"`
	PageSize int    `form:"page_size"`
	Cursor   string `form:"cursor"`
}

type ListSamplesResponse struct {
	Samples    []SampleDTO `json:"samples"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

type SampleDTO struct {
	SampleID  string `json:"sample_id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	URL       string `json:"url"`
	Pipeline  string `json:"pipeline"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type PreprocessDTO struct {
	PreprocessID    string          `json:"preprocess_id"`
	Status          string          `json:"status"`
	URL             string          `json:"url"`
	RuntimeSeconds  int64           `json:"runtime_seconds"`
	MetricsRaw      json.RawMessage `json:"metrics_raw"`
	MetricsFiltered json.RawMessage `json:"metrics_filtered"`
	CreatedAt       string          `json:"created_at"`
}

type GetSampleResponse struct {
	Sample SampleDTO      `json:"sample"`
	Result *PreprocessDTO `json:"result,omitempty"`
}
