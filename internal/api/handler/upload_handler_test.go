package handler

import (
	"bytes"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OscarAspelin95/dx-go/internal/config"
)

// uploadFixture wires just enough of the handler to exercise the request
// validation paths, which must all reject before any client is touched.
func uploadFixture(maxUploadBytes int64) *gin.Engine {
	gin.SetMode(gin.TestMode)

	h := &SampleHandler{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		intake: config.IntakeConfig{
			Bucket:         "my-bucket",
			MaxUploadBytes: maxUploadBytes,
		},
	}

	r := gin.New()
	r.POST("/api/v1/upload", h.Upload)
	return r
}

func multipartBody(t *testing.T, pipelineName, fileName string, fileSize int) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	require.NoError(t, w.WriteField("pipeline", pipelineName))

	if fileName != "" {
		fw, err := w.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = fw.Write(bytes.Repeat([]byte("A"), fileSize))
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestSampleHandler_Upload_TooLarge(t *testing.T) {
	r := uploadFixture(1024)

	// A valid pipeline field must not mask the size violation: the body
	// blows the limit mid-parse, and the response has to say so.
	body, contentType := multipartBody(t, "amplicon_metagenome", "reads.fastq", 4096)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "exceeds 1024 bytes")
	assert.NotContains(t, rec.Body.String(), "pipeline")
}

func TestSampleHandler_Upload_InvalidPipeline(t *testing.T) {
	r := uploadFixture(1 << 20)

	body, contentType := multipartBody(t, "bogus_pipeline", "reads.fastq", 16)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "pipeline must be one of")
}

func TestSampleHandler_Upload_MissingFile(t *testing.T) {
	r := uploadFixture(1 << 20)

	body, contentType := multipartBody(t, "amplicon_metagenome", "", 0)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "file field is required")
}
