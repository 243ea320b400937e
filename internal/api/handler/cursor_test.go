package handler

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OscarAspelin95/dx-go/internal/api/storage"
)

func TestSampleCursor_RoundTrip(t *testing.T) {
	original := &storage.SampleCursor{
		CreatedAt: time.Date(2025, 6, 1, 12, 30, 0, 123456789, time.UTC),
		SampleID:  "b5d2e0a4-3f2d-4c0a-9c7c-0a1b2c3d4e5f",
	}

	encoded, err := EncodeSampleCursor(original)
	require.NoError(t, err)
	require.NotEmpty(t, encoded)

	decoded, err := DecodeSampleCursor(encoded)
	require.NoError(t, err)
	require.NotNil(t, decoded)

	assert.True(t, original.CreatedAt.Equal(decoded.CreatedAt))
	assert.Equal(t, original.SampleID, decoded.SampleID)
}

func TestDecodeSampleCursor_Empty(t *testing.T) {
	cursor, err := DecodeSampleCursor("")
	require.NoError(t, err)
	assert.Nil(t, cursor)
}

func TestDecodeSampleCursor_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		cursor string
	}{
		{
			name:   "not base64",
			cursor: "%%%not-base64%%%",
		},
		{
			name:   "missing separator",
			cursor: base64.StdEncoding.EncodeToString([]byte("1748780000000000000")),
		},
		{
			name:   "non-numeric timestamp",
			cursor: base64.StdEncoding.EncodeToString([]byte("abc|sample-1")),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cursor, err := DecodeSampleCursor(tt.cursor)
			require.Error(t, err)
			assert.Nil(t, cursor)
		})
	}
}
