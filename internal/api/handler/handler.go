package handler

import (
	"log/slog"

	"github.com/OscarAspelin95/dx-go/internal/api/storage"
	"github.com/OscarAspelin95/dx-go/internal/config"
	"github.com/OscarAspelin95/dx-go/shared/natsjs"
	"github.com/OscarAspelin95/dx-go/shared/objectstore"
	"github.com/OscarAspelin95/dx-go/shared/postgresql"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger      *slog.Logger
	DBClient    *postgresql.Client
	NATSClient  *natsjs.Client
	ObjectStore *objectstore.Client
	Config      *config.Config
}

// SampleHandler handles sample-related HTTP requests
type SampleHandler struct {
	logger      *slog.Logger
	storage     *storage.Storage
	natsClient  *natsjs.Client
	objectStore *objectstore.Client
	intake      config.IntakeConfig
}

// NewSampleHandler creates a new SampleHandler instance
func NewSampleHandler(deps *Dependencies) *SampleHandler {
	return &SampleHandler{
		logger:      deps.Logger,
		storage:     storage.NewStorage(deps.DBClient),
		natsClient:  deps.NATSClient,
		objectStore: deps.ObjectStore,
		intake:      deps.Config.Intake,
	}
}
