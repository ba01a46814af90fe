package embedding

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloo-solutions/docrag/internal/domain"
	"github.com/cloo-solutions/docrag/internal/logging"
	"github.com/cloo-solutions/docrag/internal/metrics"
	"go.uber.org/zap"
)

// HealthcheckText is embedded once at startup to probe the provider.
const HealthcheckText = "healthcheck"

// EmbeddingAPI defines the interface for embedding generation
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, text string) ([]float32, error)
}

// Cache stores raw provider vectors keyed by input text.
type Cache interface {
	Get(ctx context.Context, text string) ([]float32, bool, error)
	Set(ctx context.Context, text string, vec []float32) error
}

// Client validates input and output around an embedding provider.
type Client struct {
	api    EmbeddingAPI
	width  *domain.EmbeddingWidth
	cache  Cache
	logger *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithCache puts a vector cache in front of the provider.
func WithCache(cache Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client that checks vectors against width.
func NewClient(api EmbeddingAPI, width *domain.EmbeddingWidth, opts ...Option) *Client {
	if width == nil {
		width = domain.NewEmbeddingWidth(domain.DefaultEmbeddingWidth)
	}
	c := &Client{
		api:   api,
		width: width,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.OrNop(c.logger)
	return c
}

// Width returns the width vectors are currently checked against.
func (c *Client) Width() int {
	return c.width.Get()
}

// GenerateEmbedding embeds text and rejects vectors whose length differs
// from the configured width.
func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	vec, err := c.EmbedObserved(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := c.width.Check(vec); err != nil {
		metrics.EmbeddingRequests.WithLabelValues("dimension").Inc()
		return nil, err
	}
	return vec, nil
}

// EmbedObserved embeds text without the width check so the caller can
// observe the provider's native width.
func (c *Client) EmbedObserved(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		metrics.EmbeddingRequests.WithLabelValues("empty_input").Inc()
		return nil, domain.ErrEmptyInput
	}

	if c.cache != nil {
		vec, ok, err := c.cache.Get(ctx, text)
		switch {
		case err != nil:
			metrics.EmbeddingCacheLookups.WithLabelValues("error").Inc()
			c.logger.Warn("embedding cache lookup failed", zap.Error(err))
		case ok:
			metrics.EmbeddingCacheLookups.WithLabelValues("hit").Inc()
			return vec, nil
		default:
			metrics.EmbeddingCacheLookups.WithLabelValues("miss").Inc()
		}
	}

	start := time.Now()
	vec, err := c.api.CreateEmbeddings(ctx, text)
	metrics.EmbeddingDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			metrics.EmbeddingRequests.WithLabelValues("cancelled").Inc()
			return nil, ctxErr
		}
		metrics.EmbeddingRequests.WithLabelValues("upstream").Inc()
		return nil, domain.NewUpstreamError("failed to create embedding", err)
	}
	if len(vec) == 0 {
		metrics.EmbeddingRequests.WithLabelValues("upstream").Inc()
		return nil, domain.NewUpstreamError("no embedding returned by model", nil)
	}
	metrics.EmbeddingRequests.WithLabelValues("success").Inc()

	if c.cache != nil {
		if err := c.cache.Set(ctx, text, vec); err != nil {
			c.logger.Warn("embedding cache store failed", zap.Error(err))
		}
	}
	return vec, nil
}

// Verify embeds a fixed probe text and checks its width.
func (c *Client) Verify(ctx context.Context) error {
	vec, err := c.GenerateEmbedding(ctx, HealthcheckText)
	if err != nil {
		return errors.Join(errors.New("embedding model not healthy"), err)
	}
	c.logger.Info("embedding model healthy", zap.Int("dim", len(vec)))
	return nil
}
