package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/OscarAspelin95/dx-go/internal/api/domain"
	"github.com/OscarAspelin95/dx-go/internal/api/dto"
	"github.com/OscarAspelin95/dx-go/internal/api/model"
	"github.com/OscarAspelin95/dx-go/internal/api/storage"
)

// GetSample handles GET /api/v1/samples/:sample_id
// Returns the sample and, when processing has completed, its latest result
func (h *SampleHandler) GetSample(c *gin.Context) {
	sampleID := c.Param("sample_id")

	if _, err := uuid.Parse(sampleID); err != nil {
		h.logger.Error("Invalid sample_id format",
			slog.String("sample_id", sampleID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "sample_id must be a valid UUID",
		})
		return
	}

	sample, err := h.storage.GetSampleByID(c.Request.Context(), sampleID)
	if err != nil {
		if errors.Is(err, domain.ErrSampleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "sample not found",
			})
			return
		}
		h.logger.Error("Failed to get sample", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get sample",
		})
		return
	}

	preprocess, err := h.storage.GetLatestPreprocess(c.Request.Context(), sampleID)
	if err != nil {
		h.logger.Error("Failed to get sample result", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get sample result",
		})
		return
	}

	response := dto.GetSampleResponse{
		Sample: toSampleDTO(sample),
	}

	if preprocess != nil {
		response.Result = &dto.PreprocessDTO{
			PreprocessID:    preprocess.PreprocessID,
			Status:          preprocess.Status,
			URL:             preprocess.URL,
			RuntimeSeconds:  preprocess.RuntimeSeconds,
			MetricsRaw:      json.RawMessage(preprocess.MetricsRaw),
			MetricsFiltered: json.RawMessage(preprocess.MetricsFiltered),
			CreatedAt:       preprocess.CreatedAt.Format(time.RFC3339),
		}
	}

	c.JSON(http.StatusOK, response)
}

// ListSamples handles GET /api/v1/samples
// Lists samples with optional filtering and cursor pagination
func (h *SampleHandler) ListSamples(c *gin.Context) {
	var req dto.ListSamplesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Error("Invalid query parameters", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = 20
	}

	if req.PageSize > 100 {
		req.PageSize = 100
	}

	cursor, err := DecodeSampleCursor(req.Cursor)
	if err != nil {
		h.logger.Error("Invalid cursor", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid cursor",
		})
		return
	}

	filter := storage.SampleFilter{
		Status:   req.Status,
		Pipeline: req.Pipeline,
		PageSize: req.PageSize,
		Cursor:   cursor,
	}

	samples, err := h.storage.ListSamples(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list samples", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list samples",
		})
		return
	}

	hasMore := len(samples) > req.PageSize
	if hasMore {
		samples = samples[:req.PageSize]
	}

	sampleResponse := make([]dto.SampleDTO, len(samples))
	for i, sample := range samples {
		sampleResponse[i] = toSampleDTO(&sample)
	}

	var nextCursor string
	if hasMore {
		lastSample := samples[len(samples)-1]
		cursorObj := storage.SampleCursor{
			CreatedAt: lastSample.CreatedAt,
			SampleID:  lastSample.SampleID,
		}
		nextCursor, err = EncodeSampleCursor(&cursorObj)
		if err != nil {
			h.logger.Error("Failed to encode next cursor", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to encode next cursor",
			})
			return
		}
	}

	c.JSON(http.StatusOK, dto.ListSamplesResponse{
		Samples:    sampleResponse,
		NextCursor: nextCursor,
	})
}

func toSampleDTO(sample *model.Sample) dto.SampleDTO {
	return dto.SampleDTO{
		SampleID:  sample.SampleID,
		Name:      sample.Name,
		Status:    sample.Status,
		URL:       sample.URL,
		Pipeline:  sample.Pipeline,
		CreatedAt: sample.CreatedAt.Format(time.RFC3339),
		UpdatedAt: sample.UpdatedAt.Format(time.RFC3339),
	}
}
