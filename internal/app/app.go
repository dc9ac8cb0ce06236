package app

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"docai/features/category"
	"docai/features/document"
	"docai/features/search"
	"docai/internal/adapter/extract"
	"docai/internal/adapter/gemini"
	wstore "docai/internal/adapter/weaviate"
	"docai/internal/answer"
	"docai/internal/config"
	"docai/internal/ingest"
	"docai/internal/middleware"
	"docai/internal/retrieval"
	"docai/internal/text"
	"docai/internal/worker"
)

type EventPublisher interface {
	Publish(topic string, body []byte) error
}

type App struct {
	Handler         http.Handler
	IngestConsumer  *worker.IngestConsumer
	DocumentService *document.Service
	embedder        *gemini.Embedder
	chat            *gemini.Chat
}

func New(ctx context.Context, cfg *config.Config, db *sql.DB, store *wstore.Store, pub EventPublisher) (*App, error) {
	modelTimeout := time.Duration(cfg.ModelTimeoutSeconds) * time.Second

	// Adapters: Gemini
	embedder, err := gemini.NewEmbedder(ctx, cfg.GeminiAPIKey, cfg.EmbeddingModel, cfg.EmbeddingDimension)
	if err != nil {
		return nil, err
	}
	chat, err := gemini.NewChat(ctx, cfg.GeminiAPIKey, cfg.ChatModel)
	if err != nil {
		embedder.Close()
		return nil, err
	}

	// Ingestion pipeline
	splitter := text.NewSentenceSplitter(cfg.MaxChunkSize)
	pipeline := ingest.NewPipeline(extract.New(), splitter, embedder, store, pub, cfg.IngestionConcurrency, modelTimeout)

	// Feature: Category
	categoryRepo := category.NewPostgresRepo(db)
	categoryService := category.NewService(categoryRepo)
	categoryHandler := category.NewHandler(categoryService)

	// Feature: Document
	documentRepo := document.NewPostgresRepo(db)
	documentService := document.NewService(documentRepo, categoryService, pipeline, store, pub, cfg.UploadDir)
	documentHandler := document.NewHandler(documentService, cfg.MaxUploadSizeMB)

	// Feature: Search
	queryLogger, err := retrieval.NewFileQueryLogger(cfg.QueryLogPath)
	if err != nil {
		slog.Warn("failed to create query logger, falling back to stdout", "error", err)
		queryLogger = retrieval.NewQueryLogger(os.Stdout)
	}

	retrievalService := retrieval.NewService(embedder, store, queryLogger)
	synthesizer := answer.NewSynthesizer(chat, modelTimeout)
	disambiguator := answer.NewDisambiguator(chat, 30*time.Second)
	searchService := search.NewService(retrievalService, synthesizer, disambiguator, categoryService, documentService, cfg.DefaultTopK)
	searchHandler := search.NewHandler(searchService)

	// Middleware: CORS
	enableCORS := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	// Routes
	mux := http.NewServeMux()

	mux.Handle("GET /api/categories", middleware.CorrelationID(enableCORS(categoryHandler.List)))
	mux.Handle("POST /api/categories", middleware.CorrelationID(enableCORS(categoryHandler.Create)))
	mux.Handle("GET /api/categories/{id}", middleware.CorrelationID(enableCORS(categoryHandler.Get)))
	mux.Handle("PUT /api/categories/{id}", middleware.CorrelationID(enableCORS(categoryHandler.Update)))
	mux.Handle("DELETE /api/categories/{id}", middleware.CorrelationID(enableCORS(categoryHandler.Delete)))

	mux.Handle("POST /api/documents/upload", middleware.CorrelationID(enableCORS(documentHandler.Upload)))
	mux.Handle("POST /api/documents/upload-multiple", middleware.CorrelationID(enableCORS(documentHandler.UploadMultiple)))
	mux.Handle("GET /api/documents/category/{categoryId}", middleware.CorrelationID(enableCORS(documentHandler.ListByCategory)))
	mux.Handle("GET /api/documents/{id}/info", middleware.CorrelationID(enableCORS(documentHandler.Info)))
	mux.Handle("GET /api/documents/{id}/download", middleware.CorrelationID(enableCORS(documentHandler.Download)))
	mux.Handle("DELETE /api/documents/{id}", middleware.CorrelationID(enableCORS(documentHandler.Delete)))
	mux.Handle("POST /api/documents/{id}/resync", middleware.CorrelationID(enableCORS(documentHandler.Resync)))

	mux.Handle("POST /api/search/category/{id}/answer", middleware.CorrelationID(enableCORS(searchHandler.AnswerInCategory)))
	mux.Handle("POST /api/search/category/{id}/answer/stream", middleware.CorrelationID(enableCORS(searchHandler.StreamAnswerInCategory)))
	mux.Handle("POST /api/search/document/{id}/answer", middleware.CorrelationID(enableCORS(searchHandler.AnswerInDocument)))
	mux.Handle("POST /api/search/document/{id}/answer/stream", middleware.CorrelationID(enableCORS(searchHandler.StreamAnswerInDocument)))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	ingestConsumer := worker.NewIngestConsumer(documentRepo, categoryService, store, pipeline)

	return &App{
		Handler:         mux,
		IngestConsumer:  ingestConsumer,
		DocumentService: documentService,
		embedder:        embedder,
		chat:            chat,
	}, nil
}

func (a *App) Run(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(port),
		Handler: a.Handler,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) Close() {
	if a.embedder != nil {
		a.embedder.Close()
	}
	if a.chat != nil {
		a.chat.Close()
	}
}
