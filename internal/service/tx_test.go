package service

import "context"

// testTxRunner hands fn the mocks directly and records that a transaction
// was requested.
type testTxRunner struct {
	repos  *testTxRepos
	called bool
}

func (t *testTxRunner) WithTx(ctx context.Context, fn func(repos TxRepositories) error) error {
	t.called = true
	return fn(t.repos)
}

type testTxRepos struct {
	documents DocumentRepositoryInterface
	chunks    ChunkRepositoryInterface
}

func (t *testTxRepos) Documents() DocumentRepositoryInterface { return t.documents }

func (t *testTxRepos) Chunks() ChunkRepositoryInterface { return t.chunks }
