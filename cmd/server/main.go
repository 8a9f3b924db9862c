package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"pdf-extract-viewer/internal/config"
	"pdf-extract-viewer/internal/handler"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}
	// Wiring
	container := config.NewContainer()

	// Handlers
	documentHandler := handler.NewDocumentHandler(
		container.DocumentService,
		container.Hub,
		container.Config,
		container.Logger,
	)

	authMiddleware := handler.NewAuthMiddleware(
		container.SupabaseClient,
		container.Logger,
	)

	// Router
	router := handler.NewRouter(
		documentHandler,
		authMiddleware.Middleware,
	)

	// start server
	server := &http.Server{
		Addr:    ":" + container.Config.GetServerPort(),
		Handler: router,
	}

	// Run server
	go func() {
		container.Logger.Info("Server listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			container.Logger.Error("Server failed to start", err)
			os.Exit(1)
		}
	}()
	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	container.Logger.Info("Shutting down server...")
	_ = server.Close()

	// Let in-flight extraction tasks resolve onto their records before exit.
	container.Tasks.Wait()

	container.Logger.Info("Server exited")
}
