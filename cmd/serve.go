package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/voxnote/snippets-api/api"
	"github.com/voxnote/snippets-api/api/types"
	"github.com/voxnote/snippets-api/internal/database"
	"github.com/voxnote/snippets-api/internal/models"
	"github.com/voxnote/snippets-api/internal/services/credentials"
	"github.com/voxnote/snippets-api/internal/services/export"
	"github.com/voxnote/snippets-api/internal/services/pipeline"
	"github.com/voxnote/snippets-api/internal/services/providers"
	"github.com/voxnote/snippets-api/internal/services/readwise"
	"github.com/voxnote/snippets-api/internal/services/snippets"
	"github.com/voxnote/snippets-api/internal/services/sources"
	"github.com/voxnote/snippets-api/pkg/config"
	"github.com/voxnote/snippets-api/pkg/download"
	"github.com/voxnote/snippets-api/pkg/ffmpeg"
	"github.com/voxnote/snippets-api/pkg/transcribe"
)

var (
	serverHost string
	serverPort int
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server and pipeline workers",
	Long: `Start the Snippets API server with the configured settings.

The server accepts snippet requests over HTTP while a background worker
pool drains the queue: downloading source audio, clipping the requested
window, and transcribing it. The Readwise importer runs alongside when
users have tokens configured.

Example:
  snippets-api serve
  snippets-api serve --port 9090
  snippets-api serve --host 0.0.0.0 --port 8080`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host (overrides config)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (overrides config)")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.GetConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if serverHost == "" {
		serverHost = cfg.Server.Host
	}
	if serverPort == 0 {
		serverPort = cfg.Server.Port
	}

	db, err := database.Initialize(cfg.Database.Path, cfg.Database.Verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Media tooling
	ff := ffmpeg.New(cfg.Media.FFmpegPath, cfg.Media.FFprobePath, cfg.Media.FFmpegTimeout)
	if err := ff.ValidateBinaries(); err != nil {
		log.Printf("[ERROR] Media tools unavailable, clipping will fail: %v", err)
	}

	transcriber := transcribe.New(transcribe.Options{
		BinaryPath: cfg.Transcription.WhisperPath,
		ModelPath:  cfg.Transcription.ModelPath,
		Language:   cfg.Transcription.Language,
		Threads:    cfg.Transcription.Threads,
		Timeout:    cfg.Transcription.Timeout,
	})
	if err := transcriber.ValidateBinary(); err != nil {
		log.Printf("[ERROR] Transcription unavailable: %v", err)
	}

	downloadOptions := download.DefaultOptions()
	downloader := download.NewDownloader(downloadOptions)

	if err := download.CleanupOldDirs(cfg.Storage.TempDir, cfg.Storage.MaxTempAge); err != nil {
		log.Printf("[ERROR] Failed to clean temp storage: %v", err)
	}

	// Provider adapters
	credentialStore := credentials.NewFileStore(cfg.Storage.CredentialsDir)
	registry := providers.NewRegistry(map[models.SourceProvider]providers.Adapter{
		models.ProviderYouTube: providers.NewYouTubeAdapter(cfg.Media.YtdlpPath, cfg.Media.YtdlpTimeout),
		models.ProviderPodcast: providers.NewPodcastAdapter(downloader, downloadOptions.Timeout),
		models.ProviderAudible: providers.NewAudibleAdapter(credentialStore, cfg.Storage.AudibleLibraryDir, ff),
		models.ProviderDirect:  providers.NewDirectAdapter(downloader),
	})

	// Stores and domain services
	snippetRepo := snippets.NewRepository(db.DB)
	snippetService := snippets.NewService(snippetRepo, cfg.Snippets.DoneWindow)
	sourceService := sources.NewService(sources.NewRepository(db.DB))
	exportService := export.NewService(db.DB, sourceService, snippetRepo)

	// Pipeline workers
	processor := pipeline.NewProcessor(snippetService, sourceService, registry, ff, transcriber, cfg.Storage.TempDir)
	pool := pipeline.NewWorkerPool(snippetService, processor, cfg.Pipeline.Workers, cfg.Pipeline.MaxInFlight, cfg.Pipeline.PollInterval)

	// Highlight importer
	importer := readwise.NewImporter(
		db.DB,
		readwise.NewClient(cfg.Readwise.BaseURL, cfg.Readwise.Timeout),
		snippetService,
		sourceService,
		cfg.Readwise.SyncInterval,
		cfg.Snippets.DefaultDuration,
	)

	// HTTP server
	server := api.NewServer(fmt.Sprintf("%s:%d", serverHost, serverPort))
	server.SetDependencies(&types.Dependencies{
		DB:              db,
		SnippetService:  snippetService,
		SourceService:   sourceService,
		ExportService:   exportService,
		DefaultDuration: cfg.Snippets.DefaultDuration,
	})
	if err := server.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := pool.Start(ctx); err != nil {
		return fmt.Errorf("failed to start worker pool: %w", err)
	}
	importer.Start(ctx)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			serverErr <- fmt.Errorf("server error: %w", err)
		}
	}()

	log.Printf("Snippets API listening on %s:%d", serverHost, serverPort)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("Shutting down...")
	case err := <-serverErr:
		log.Printf("[ERROR] %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[ERROR] Server forced to shutdown: %v", err)
	}

	importer.Stop()
	pool.Stop()

	log.Println("Server gracefully stopped")
	return nil
}
