package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/velasqa/manualsearch/internal/config"
	"github.com/velasqa/manualsearch/internal/core"
	db "github.com/velasqa/manualsearch/internal/core/database"
	"github.com/velasqa/manualsearch/internal/core/index"
	"github.com/velasqa/manualsearch/internal/core/ingestion_engine"
	"github.com/velasqa/manualsearch/internal/core/llm"
	"github.com/velasqa/manualsearch/internal/core/objectclient"
	"github.com/velasqa/manualsearch/internal/core/parser"
	"github.com/velasqa/manualsearch/internal/core/search"
)

// App owns every long-lived component: clients, the background processor and
// the HTTP server.
type App struct {
	DBClient     core.DbClient
	ObjectClient core.ObjectClient
	IndexClient  core.IndexClient
	Processor    *ingestion_engine.DocumentProcessor
	SearchSvc    *search.Service
	Server       *Server
	Logger       *slog.Logger
}

func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	logger.Info("database initialized and ready")

	objClient, err := objectclient.NewS3Client(appCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("object storage: %w", err)
	}
	logger.Info("object storage client initialized")

	idxClient, err := index.NewClient(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	if err := idxClient.EnsureIndex(appCtx); err != nil {
		return nil, fmt.Errorf("ensure index: %w", err)
	}
	logger.Info("search index ready", "index", cfg.IndexName)

	summarizer, err := llm.NewGeminiSummarizer(appCtx, cfg.AIAPIKey, cfg.GenModel)
	if err != nil {
		return nil, fmt.Errorf("summarizer: %w", err)
	}

	pageParser, err := parser.NewADEClient(cfg.ParserURL, cfg.ParserAPIKey)
	if err != nil {
		return nil, fmt.Errorf("parser client: %w", err)
	}

	processor := ingestion_engine.NewDocumentProcessor(
		dbClient, objClient, idxClient, pageParser, summarizer,
		ingestion_engine.ProcessorConfig{
			Bucket:      cfg.BucketName,
			MaxPDFPages: cfg.MaxPDFPages,
			TmpDir:      cfg.PDFTmpDir,
		},
		logger,
	)

	boosts := search.NewBoostCache(dbClient, search.DefaultBoostTTL)
	searchSvc := search.NewService(idxClient, boosts, logger)

	server := NewServer(cfg, dbClient, objClient, idxClient, processor, searchSvc, logger)

	return &App{
		DBClient:     dbClient,
		ObjectClient: objClient,
		IndexClient:  idxClient,
		Processor:    processor,
		SearchSvc:    searchSvc,
		Server:       server,
		Logger:       logger,
	}, nil
}

func (a *App) Close() {
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
