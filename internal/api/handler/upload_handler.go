package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/OscarAspelin95/dx-go/internal/api/dto"
	"github.com/OscarAspelin95/dx-go/internal/api/model"
	"github.com/OscarAspelin95/dx-go/internal/pipeline"
	"github.com/OscarAspelin95/dx-go/shared/natsjs"
)

// Upload handles POST /api/v1/upload
// Accepts a multipart fastq upload, stores it, creates the sample record
// and publishes the processing job. Nothing is published unless the
// artifact and the record both exist.
func (h *SampleHandler) Upload(c *gin.Context) {
	// Bound the body before the multipart form is parsed.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.intake.MaxUploadBytes)

	// Reading the file field drives the multipart parse. An oversized body
	// surfaces here, so it must be classified before any other form value
	// is interpreted; an aborted parse leaves those values empty.
	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.logger.Error("Upload too large",
				slog.Int64("limit_bytes", h.intake.MaxUploadBytes),
			)
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": fmt.Sprintf("upload exceeds %d bytes", h.intake.MaxUploadBytes),
			})
			return
		}
		h.logger.Error("Missing file field", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "file field is required",
		})
		return
	}

	pipelineName := c.PostForm("pipeline")
	if !pipeline.ValidPipeline(pipelineName) {
		h.logger.Error("Invalid pipeline", slog.String("pipeline", pipelineName))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "pipeline must be one of wgs_single_isolate, wgs_metagenome, amplicon_metagenome",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("Failed to open uploaded file", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to read uploaded file",
		})
		return
	}
	defer file.Close()

	name := filepath.Base(fileHeader.Filename)
	key := fmt.Sprintf("%s/%s", uuid.New().String(), name)

	h.logger.Info("Upload received",
		slog.String("name", name),
		slog.String("pipeline", pipelineName),
		slog.Int64("size", fileHeader.Size),
	)

	url, err := h.objectStore.Upload(c.Request.Context(), h.intake.Bucket, key, file, fileHeader.Size)
	if err != nil {
		h.logger.Error("Failed to store upload", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to store file",
		})
		return
	}

	now := time.Now()
	sample := model.Sample{
		SampleID:  uuid.New().String(),
		Name:      name,
		Status:    pipeline.StatusCreated,
		URL:       url,
		Pipeline:  pipelineName,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.storage.CreateSample(c.Request.Context(), &sample); err != nil {
		h.logger.Error("Failed to create sample", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create sample",
		})
		return
	}

	msg := pipeline.JobMessage{
		URL:           url,
		FastqSampleID: sample.SampleID,
	}

	data, err := msg.Encode()
	if err != nil {
		h.logger.Error("Failed to encode job message", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to queue sample",
		})
		return
	}

	// Publish blocks until the broker confirms the message is stored. The
	// sample stays in status created if this fails; no job is queued.
	spec := natsjs.SpecFor(natsjs.StreamTypeFileUpload)
	if err := h.natsClient.Publish(c.Request.Context(), spec.PublishSubject, data); err != nil {
		h.logger.Error("Failed to publish job message",
			slog.String("sample_id", sample.SampleID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to queue sample",
		})
		return
	}

	h.logger.Info("Sample queued",
		slog.String("sample_id", sample.SampleID),
		slog.String("url", url),
	)

	c.JSON(http.StatusOK, dto.UploadResponse{
		SampleID: sample.SampleID,
		Name:     sample.Name,
		Status:   sample.Status,
		URL:      sample.URL,
		Pipeline: sample.Pipeline,
	})
}
