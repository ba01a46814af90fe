package repository

import (
	"context"

	"github.com/cloo-solutions/docrag/internal/domain"
	"github.com/cloo-solutions/docrag/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TxRunner implements service.TxRunner on a pgx pool.
type TxRunner struct {
	pool  *pgxpool.Pool
	width *domain.EmbeddingWidth
}

func NewTxRunner(pool *pgxpool.Pool, width *domain.EmbeddingWidth) *TxRunner {
	return &TxRunner{pool: pool, width: width}
}

// WithTx commits when fn returns nil and rolls back on error or panic.
func (r *TxRunner) WithTx(ctx context.Context, fn func(repos service.TxRepositories) error) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(txRepos{
			documents: NewDocumentRepositoryWithTx(tx, r.width),
			chunks:    NewChunkRepositoryWithTx(tx, r.width),
		})
	})
}

type txRepos struct {
	documents *DocumentRepository
	chunks    *ChunkRepository
}

func (r txRepos) Documents() service.DocumentRepositoryInterface { return r.documents }

func (r txRepos) Chunks() service.ChunkRepositoryInterface { return r.chunks }
