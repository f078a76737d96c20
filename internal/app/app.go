// -----------------------------------------------------------------------
// App - dependency wiring: storage, services, handlers
// -----------------------------------------------------------------------

package app

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/confero/internal/common"
	"github.com/ternarybob/confero/internal/handlers"
	"github.com/ternarybob/confero/internal/interfaces"
	"github.com/ternarybob/confero/internal/services/classifier"
	"github.com/ternarybob/confero/internal/services/extractor"
	"github.com/ternarybob/confero/internal/services/normalizer"
	"github.com/ternarybob/confero/internal/services/pdfextract"
	"github.com/ternarybob/confero/internal/services/pipeline"
	"github.com/ternarybob/confero/internal/services/profiles"
	"github.com/ternarybob/confero/internal/services/results"
	"github.com/ternarybob/confero/internal/storage/badger"
	"github.com/ternarybob/confero/internal/storage/files"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager
	FileStorage    interfaces.FileStorage

	// Pipeline services
	PDFExtractService interfaces.PDFExtractService
	ClassifierService interfaces.ClassifierService
	ExtractorRegistry *extractor.Registry
	NormalizerService interfaces.NormalizerService
	ResultsService    interfaces.ResultsService
	ProfileService    interfaces.ProfileService
	PipelineService   interfaces.PipelineService

	// HTTP handlers
	APIHandler     *handlers.APIHandler
	ExtractHandler *handlers.ExtractHandler
	JobHandler     *handlers.JobHandler
	UploadHandler  *handlers.UploadHandler
}

// New creates and wires the application.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	storageManager, err := badger.NewManager(logger, &config.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	fileStorage, err := files.NewStore(config.Storage.Filesystem.Uploads, logger)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	profileService, err := profiles.NewService(storageManager.ProfileStorage(), config.Profiles.Dir, logger)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize profiles: %w", err)
	}

	pdfService := pdfextract.NewService(&config.Extraction, logger)
	classifierService := classifier.NewService(
		storageManager.JobStorage(),
		storageManager.ArtifactStorage(),
		profileService,
		logger,
	)
	extractorRegistry := extractor.NewRegistry(logger)
	normalizerService := normalizer.NewService(logger)
	resultsService := results.NewService(logger)

	pipelineService := pipeline.NewService(
		storageManager,
		fileStorage,
		pdfService,
		classifierService,
		extractorRegistry,
		normalizerService,
		resultsService,
		profileService,
		&config.Pipeline,
		logger,
	)

	app := &App{
		Config:         config,
		Logger:         logger,
		StorageManager: storageManager,
		FileStorage:    fileStorage,

		PDFExtractService: pdfService,
		ClassifierService: classifierService,
		ExtractorRegistry: extractorRegistry,
		NormalizerService: normalizerService,
		ResultsService:    resultsService,
		ProfileService:    profileService,
		PipelineService:   pipelineService,

		APIHandler:     handlers.NewAPIHandler(),
		ExtractHandler: handlers.NewExtractHandler(pdfService, logger),
		JobHandler:     handlers.NewJobHandler(storageManager, pipelineService, logger),
		UploadHandler:  handlers.NewUploadHandler(storageManager, fileStorage, config.Extraction.MaxPDFBytes, logger),
	}

	logger.Info().
		Str("badger_path", config.Storage.Badger.Path).
		Str("uploads_dir", config.Storage.Filesystem.Uploads).
		Msg("Application initialized")

	return app, nil
}

// Close releases application resources.
func (a *App) Close() error {
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("Failed to close storage")
			return err
		}
	}
	return nil
}
