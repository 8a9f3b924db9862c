package config

import (
	"pdf-extract-viewer/internal/domain"
	"pdf-extract-viewer/internal/extraction"
	"pdf-extract-viewer/internal/reconcile"
	"pdf-extract-viewer/internal/repository"
	"pdf-extract-viewer/internal/service"
	"pdf-extract-viewer/pkg/logger"
)

// Container holds all application dependencies
type Container struct {
	Config             domain.Config
	Logger             domain.Logger
	SupabaseClient     domain.SupabaseClient
	DocumentRepository domain.DocumentRepository
	BlobStore          domain.BlobStore
	Rasterizer         domain.PageRasterizer
	ExtractionClient   domain.ExtractionClient
	Hub                *reconcile.Hub
	Tasks              domain.TaskTracker
	DocumentService    domain.DocumentService
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	config := NewConfig()
	appLogger := logger.NewLogger(config.GetLogLevel())

	// Initialize Supabase client
	supabaseClient := repository.NewSupabaseClient(config, appLogger)
	if err := supabaseClient.Initialize(); err != nil {
		appLogger.Warn("Supabase client not initialized; record store unavailable", "error", err)
	}

	documentRepo := repository.NewSupabaseDocumentRepository(supabaseClient, appLogger)
	blobStore := service.NewStorageService(config.GetSupabaseURL(), config.GetSupabaseKey(), config.GetStorageBucket())
	rasterizer := service.NewFitzRasterizer(config.GetRasterScale(), appLogger)
	extractionClient := extraction.NewClient(config, appLogger)
	hub := reconcile.NewHub()
	tasks := service.NewTracker()

	documentService := service.NewDocumentService(
		documentRepo,
		blobStore,
		rasterizer,
		extractionClient,
		hub,
		tasks,
		config,
		appLogger,
	)

	return &Container{
		Config:             config,
		Logger:             appLogger,
		SupabaseClient:     supabaseClient,
		DocumentRepository: documentRepo,
		BlobStore:          blobStore,
		Rasterizer:         rasterizer,
		ExtractionClient:   extractionClient,
		Hub:                hub,
		Tasks:              tasks,
		DocumentService:    documentService,
	}
}

// GetConfig returns the configuration instance
func (c *Container) GetConfig() domain.Config {
	return c.Config
}

// GetLogger returns the logger instance
func (c *Container) GetLogger() domain.Logger {
	return c.Logger
}

// GetSupabaseClient returns the Supabase client instance
func (c *Container) GetSupabaseClient() domain.SupabaseClient {
	return c.SupabaseClient
}

// GetDocumentService returns the document service instance
func (c *Container) GetDocumentService() domain.DocumentService {
	return c.DocumentService
}
