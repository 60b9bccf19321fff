package dbconn

import (
	"context"
	"database/sql"
	"sync"

	"github.com/jas88/fansigo/fansiconfig"
	"github.com/jas88/fansigo/fansierr"
)

// ManagedConnection wraps a *sql.DB (or a *sql.Tx-bound session) with
// scoped-acquisition disposal semantics: Dispose closes only an unpooled
// connection that owns its *sql.DB; a connection drawn from a pool or bound
// to a transaction is never closed by it.
type ManagedConnection struct {
	db             *sql.DB
	managedTx      *ManagedTransaction
	closeOnDispose bool
	server         *Server
}

// DB returns the underlying *sql.DB for use with database/sql query helpers.
func (c *ManagedConnection) DB() *sql.DB { return c.db }

// Server returns the Server this connection was acquired from.
func (c *ManagedConnection) Server() *Server { return c.server }

// InTransaction reports whether this connection is bound to an open
// managed transaction.
func (c *ManagedConnection) InTransaction() bool { return c.managedTx != nil }

// Transaction returns the bound ManagedTransaction, or nil if this
// connection is not transaction-scoped.
func (c *ManagedConnection) Transaction() *ManagedTransaction { return c.managedTx }

// BeginTransaction starts a new ManagedTransaction on this connection. The
// returned transaction's ManagedConnection clone is non-owning: disposing
// it never closes the underlying *sql.DB.
func (c *ManagedConnection) BeginTransaction(ctx context.Context) (*ManagedTransaction, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	mt := &ManagedTransaction{tx: tx, state: TransactionActive}
	mt.conn = c.Clone()
	mt.conn.managedTx = mt
	return mt, nil
}

// Clone returns a shallow, non-owning copy: disposing the clone never
// closes the shared *sql.DB. Used when handing a connection to a nested
// operation that must not control its lifetime.
func (c *ManagedConnection) Clone() *ManagedConnection {
	return &ManagedConnection{
		db:             c.db,
		managedTx:      c.managedTx,
		closeOnDispose: false,
		server:         c.server,
	}
}

// HasDanglingTransaction probes whether the underlying session has an open
// transaction this ManagedConnection does not itself own. Used as a
// pre-dispose guard.
func (c *ManagedConnection) HasDanglingTransaction(ctx context.Context) (bool, error) {
	if c.managedTx != nil {
		return false, nil
	}
	return hasDanglingTransaction(ctx, c.server, c.db)
}

// Dispose closes the underlying *sql.DB only if this ManagedConnection
// owns it (close_on_dispose); pooled connections are returned to the pool
// implicitly by simply not being closed. A non-owning connection is first
// probed with HasDanglingTransaction, and a dangling transaction is
// reported as a warning through the server's Logger.
func (c *ManagedConnection) Dispose() error {
	if c.db == nil {
		return nil
	}
	if !c.closeOnDispose {
		if c.server != nil {
			ctx, cancel := context.WithTimeout(context.Background(), DefaultPingTimeout)
			defer cancel()
			if dangling, err := c.HasDanglingTransaction(ctx); err == nil && dangling {
				fansiconfig.LogOrDiscard(c.server.Logger, "dbconn: disposing a connection with a dangling transaction")
			}
		}
		return nil
	}
	return c.db.Close()
}

// TransactionState is the lifecycle of a ManagedTransaction: Active,
// then terminally Committed or RolledBack.
type TransactionState int

const (
	TransactionActive TransactionState = iota
	TransactionCommitted
	TransactionRolledBack
)

// ManagedTransaction wraps a *sql.Tx with idempotent commit/rollback: a
// second call to either CommitAndClose or AbandonAndClose after the
// transaction has already reached a terminal state is a no-op rather than
// an error, matching the Tx wrapper idiom grounded on
// nikola-chen-corm's engine-tx.go.
type ManagedTransaction struct {
	mu    sync.Mutex
	tx    *sql.Tx
	conn  *ManagedConnection
	state TransactionState
}

// Tx returns the underlying *sql.Tx.
func (t *ManagedTransaction) Tx() *sql.Tx { return t.tx }

// Connection returns the non-owning ManagedConnection bound to this
// transaction.
func (t *ManagedTransaction) Connection() *ManagedConnection { return t.conn }

// State reports the current lifecycle state.
func (t *ManagedTransaction) State() TransactionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// CommitAndClose commits the transaction. Calling it again after a
// terminal state has already been reached is a no-op.
func (t *ManagedTransaction) CommitAndClose() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != TransactionActive {
		return nil
	}
	err := t.tx.Commit()
	t.state = TransactionCommitted
	return err
}

// AbandonAndClose rolls the transaction back. Calling it again after a
// terminal state has already been reached is a no-op.
func (t *ManagedTransaction) AbandonAndClose() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != TransactionActive {
		return nil
	}
	err := t.tx.Rollback()
	t.state = TransactionRolledBack
	return err
}

// RequireActive returns fansierr.ErrDanglingTransaction-free nil when the
// transaction is still active, or an error naming its terminal state
// otherwise. Used to guard operations that must run inside an open
// transaction.
func (t *ManagedTransaction) RequireActive() error {
	if t.State() != TransactionActive {
		return fansierr.NotSupported("operation requires an active transaction, but it has already reached a terminal state")
	}
	return nil
}
