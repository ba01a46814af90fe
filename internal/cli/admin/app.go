package admin

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/docrag/internal/config"
	"github.com/cloo-solutions/docrag/internal/database"
	"github.com/cloo-solutions/docrag/internal/domain"
	"github.com/cloo-solutions/docrag/internal/embedding"
	"github.com/cloo-solutions/docrag/internal/extract"
	"github.com/cloo-solutions/docrag/internal/llm"
	"github.com/cloo-solutions/docrag/internal/repository"
	"github.com/cloo-solutions/docrag/internal/service"
	"github.com/cloo-solutions/docrag/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// app holds the wired pipeline shared by the server and one-shot commands.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	pool   *pgxpool.Pool
	redis  *redis.Client

	width       *domain.EmbeddingWidth
	embedder    *embedding.Client
	dimension   *service.DimensionAdapter
	reindexJobs *repository.ReindexJobRepository

	documents *service.DocumentService
	ingest    *service.IngestService
	rag       *service.RAGService
	pages     *service.PageService
	reindexer *service.EmbeddingService
}

// newApp connects to the database and optional backends and wires every
// service. The caller must call close.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	if err := extract.SetLicense(cfg.UnidocLicenseKey); err != nil {
		logger.Warn("unidoc license rejected, extraction may be limited", zap.Error(err))
	}

	pool, err := database.NewPool(ctx, database.Config{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, pool: pool}

	a.width = domain.NewEmbeddingWidth(cfg.EmbeddingDim)
	docRepo := repository.NewDocumentRepository(pool, a.width)
	chunkRepo := repository.NewChunkRepository(pool, a.width)
	pageRepo := repository.NewPageRepository(pool, a.width)
	schemaRepo := repository.NewSchemaRepository(pool)
	a.reindexJobs = repository.NewReindexJobRepository(pool)

	if current, err := schemaRepo.EmbeddingWidth(ctx); err != nil {
		logger.Warn("could not read embedding column width", zap.Error(err))
	} else if current != cfg.EmbeddingDim {
		logger.Warn("embedding columns differ from configured width",
			zap.Int("column_width", current),
			zap.Int("configured_width", cfg.EmbeddingDim),
		)
	}

	opts := []embedding.Option{embedding.WithLogger(logger)}
	if cfg.HasRedis() {
		client, err := embedding.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			a.close()
			return nil, err
		}
		a.redis = client
		opts = append(opts, embedding.WithCache(embedding.NewRedisCache(client, cfg.EmbeddingModelName(), cfg.EmbedCacheTTL)))
		logger.Info("embedding cache enabled")
	}
	a.embedder = embedding.NewClient(newEmbeddingAPI(cfg), a.width, opts...)

	a.dimension = service.NewDimensionAdapter(a.width, schemaRepo, a.reindexJobs, logger)

	var sources service.SourceStore
	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			a.close()
			return nil, fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		logger.Info("source bucket ready", zap.String("bucket", cfg.S3Bucket))
		sources = s3Client
	}

	if !cfg.HasOpenAI() && cfg.GenerationBaseURL == "" {
		logger.Warn("no DOCRAG_OPENAI_API_KEY or generation base URL set, answer generation will fail")
	}
	generator := llm.NewGenerator(llm.Config{
		APIKey:      cfg.OpenAIAPIKey,
		BaseURL:     cfg.GenerationBaseURL,
		Model:       cfg.GenerationModel,
		Temperature: cfg.GenerationTemp,
	})
	extractor := extract.Extractor{}

	chunkCfg := service.ChunkConfig{MaxChars: cfg.ChunkSize, Overlap: cfg.ChunkOverlap}
	a.documents = service.NewDocumentService(docRepo, sources, logger)
	a.ingest = service.NewIngestService(repository.NewTxRunner(pool, a.width), extractor, a.embedder,
		a.dimension, sources, chunkCfg, cfg.EmbedConcurrency, logger)
	a.rag = service.NewRAGService(a.embedder, chunkRepo, docRepo, generator, sources, extractor, logger)
	a.pages = service.NewPageService(pageRepo, a.embedder, a.embedder, a.dimension, generator, logger)
	a.reindexer = service.NewEmbeddingService(
		service.NewBatchEmbedder(a.embedder, cfg.EmbedConcurrency, logger), chunkRepo, docRepo)

	return a, nil
}

func (a *app) close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	a.pool.Close()
}

func newEmbeddingAPI(cfg *config.Config) embedding.EmbeddingAPI {
	if cfg.EmbeddingProvider == config.ProviderOpenAI {
		return embedding.NewOpenAIAdapter(embedding.OpenAIConfig{
			APIKey:     cfg.OpenAIAPIKey,
			Model:      cfg.EmbeddingModelName(),
			Dimensions: cfg.EmbeddingReqDim,
		})
	}
	return embedding.NewHTTPAdapter(embedding.HTTPConfig{
		URL:               cfg.EmbeddingURL,
		Model:             cfg.EmbeddingModelName(),
		APIKey:            cfg.EmbeddingAPIKey,
		Format:            cfg.EmbeddingFormat,
		Timeout:           cfg.EmbeddingTimeout,
		RequestsPerSecond: cfg.EmbeddingRate,
		Burst:             cfg.EmbeddingBurst,
	})
}
