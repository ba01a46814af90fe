package service

import "context"

// TxRepositories exposes the repositories bound to one transaction.
type TxRepositories interface {
	Documents() DocumentRepositoryInterface
	Chunks() ChunkRepositoryInterface
}

// TxRunner runs fn inside a transaction that commits only if fn succeeds.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(repos TxRepositories) error) error
}
