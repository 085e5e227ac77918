package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager executes a function inside a database transaction,
// passing the underlying handle via `tx`.
//
// Use-case interfaces stay clean of storage types; repository methods that
// accept a Tx detect a live transaction (implementation-side) and run
// SELECT ... FOR UPDATE / use tx-bound Exec as needed. Repositories MUST
// gracefully accept a nil Tx (non-transactional path).
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
