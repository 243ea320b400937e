package model

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

type Sample struct {
	SampleID  string    `db:"sample_id"`
	Name      string    `db:"name"`
	Status    string    `db:"status"`
	URL       string    `db:"url"`
	Pipeline  string    `db:"pipeline"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type Preprocess struct {
	PreprocessID    string         `db:"preprocess_id"`
	Status          string         `db:"status"`
	URL             string         `db:"url"`
	RuntimeSeconds  int64          `db:"runtime_seconds"`
	MetricsRaw      types.JSONText `db:"metrics_raw"`
	MetricsFiltered types.JSONText `db:"metrics_filtered"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}
