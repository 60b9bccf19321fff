// Package dbconn implements the connection pool and managed
// connection/transaction wrappers: thread-affine connection reuse with a
// dialect-aware switching strategy, dangling-transaction detection, and a
// Tx wrapper with idempotent commit/rollback.
package dbconn

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/jas88/fansigo/fansiconfig"
	"github.com/jas88/fansigo/fansierr"
	"github.com/jas88/fansigo/typesystem"
)

const (
	DefaultMaxOpenConns    = 25
	DefaultMaxIdleConns    = 5
	DefaultConnMaxLifetime = 5 * time.Minute
	DefaultPingTimeout     = 5 * time.Second
)

// Affinity is a caller-held token standing in for a thread identity. Go has
// no addressable thread-local storage, so a thread-local pool is expressed
// as an explicit handle instead: a long-lived worker goroutine holds one
// Affinity value and passes it to every Acquire call it makes, keying its
// own slice of the pool on that handle rather than on goroutine identity
// (which Go does not expose).
type Affinity uint64

// NewAffinity returns a fresh, process-unique Affinity handle.
func NewAffinity() Affinity {
	return Affinity(nextAffinity.Add(1))
}

// Server owns a connection-string builder and an engine identity tag. It
// is created cheaply and outlives any connection drawn from it.
type Server struct {
	Engine           typesystem.Engine
	DriverName       string
	ConnectionString ConnectionString
	Config           *fansiconfig.Config
	Logger           fansiconfig.Logger
	Opener           func(driverName, dataSourceName string) (*sql.DB, error)
}

func NewServer(engine typesystem.Engine, driverName string, cs ConnectionString) *Server {
	return &Server{
		Engine:           engine,
		DriverName:       driverName,
		ConnectionString: cs,
		Config:           fansiconfig.Default,
		Opener:           sql.Open,
	}
}

// connectionString builds the connection string s.Opener is given for
// database, applying the engine's configured enforced keywords on top of
// whatever the caller already set.
func (s *Server) connectionString(database string) ConnectionString {
	cs := s.ConnectionString.WithDatabase(database)
	if s.Config != nil {
		cs = cs.WithEnforcedKeywords(s.Config.EnforcedKeywords(string(s.Engine)))
	}
	return cs
}

func (s *Server) open(dataSourceName string) (*sql.DB, error) {
	opener := s.Opener
	if opener == nil {
		opener = sql.Open
	}
	db, err := opener(s.DriverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)
	return db, nil
}

// poolingMode is the per-engine reuse strategy.
type poolingMode int

const (
	serverLevelPool poolingMode = iota // MsSql, MySql: USE/ChangeDatabase
	databaseLevelPool                  // PostgreSql: full connection string is the key
	noPool                              // Oracle: rely on the driver's native pool
)

func poolingModeFor(engine typesystem.Engine) poolingMode {
	switch engine {
	case typesystem.MsSql, typesystem.MySql:
		return serverLevelPool
	case typesystem.PostgreSql:
		return databaseLevelPool
	case typesystem.Oracle:
		return noPool
	default:
		return databaseLevelPool
	}
}

// entry is one cached *sql.DB plus the database it is currently switched
// to (only meaningful under serverLevelPool).
type entry struct {
	db        *sql.DB
	currentDB string
}

// Pool is the thread-affine connection cache. Each Affinity has its own
// map; a single mutex guards both the map of maps and every per-affinity
// map's reads and writes.
type Pool struct {
	mu         sync.Mutex
	byAffinity map[Affinity]map[string]*entry
}

func NewPool() *Pool {
	return &Pool{byAffinity: make(map[Affinity]map[string]*entry)}
}

func (p *Pool) tableFor(aff Affinity) map[string]*entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.byAffinity[aff]
	if !ok {
		t = make(map[string]*entry)
		p.byAffinity[aff] = t
	}
	return t
}

// Acquire returns a managed connection for server, reusing a pooled
// connection under aff when possible. If tx is non-nil, a fresh non-pooled
// connection bound to that transaction is always returned.
func (p *Pool) Acquire(ctx context.Context, aff Affinity, server *Server, tx *ManagedTransaction, database string) (*ManagedConnection, error) {
	if tx != nil {
		return &ManagedConnection{
			db:              tx.conn.db,
			managedTx:       tx,
			closeOnDispose:  false,
			server:          server,
		}, nil
	}

	switch poolingModeFor(server.Engine) {
	case noPool:
		return p.acquireUnpooled(ctx, server, database)
	case databaseLevelPool:
		return p.acquirePooled(ctx, aff, server, server.connectionString(database).String(), database, false)
	default: // serverLevelPool
		key := server.connectionString("").WithoutDatabase().String()
		return p.acquirePooled(ctx, aff, server, key, database, true)
	}
}

func (p *Pool) acquireUnpooled(ctx context.Context, server *Server, database string) (*ManagedConnection, error) {
	cs := server.connectionString(database)
	db, err := server.open(cs.String())
	if err != nil {
		return nil, fmt.Errorf("dbconn: opening unpooled connection: %w", err)
	}
	return &ManagedConnection{db: db, closeOnDispose: true, server: server}, nil
}

func (p *Pool) acquirePooled(ctx context.Context, aff Affinity, server *Server, key, database string, switchable bool) (*ManagedConnection, error) {
	table := p.tableFor(aff)

	p.mu.Lock()
	e, ok := table[key]
	p.mu.Unlock()

	if ok {
		if err := p.validate(ctx, server, e); err == nil {
			if switchable && database != "" && e.currentDB != database {
				if err := switchDatabase(ctx, server, e.db, database); err != nil {
					p.evict(aff, key, server)
				} else {
					e.currentDB = database
					return &ManagedConnection{db: e.db, closeOnDispose: false, server: server}, nil
				}
			} else {
				return &ManagedConnection{db: e.db, closeOnDispose: false, server: server}, nil
			}
		} else {
			p.evict(aff, key, server)
		}
	}

	initialDB := database
	if switchable {
		initialDB = systemDatabaseFor(server.Engine)
	}
	db, err := server.open(server.connectionString(initialDB).String())
	if err != nil {
		return nil, fmt.Errorf("dbconn: opening pooled connection: %w", err)
	}

	if switchable && database != "" && database != initialDB {
		if err := switchDatabase(ctx, server, db, database); err != nil {
			db.Close()
			return nil, fmt.Errorf("dbconn: switching to database %q: %w", database, err)
		}
	}

	newEntry := &entry{db: db, currentDB: database}
	p.mu.Lock()
	table[key] = newEntry
	p.mu.Unlock()

	return &ManagedConnection{db: db, closeOnDispose: false, server: server}, nil
}

// validate runs the pre-reuse checks: open, no attached transaction
// (checked by the caller holding no *sql.Tx on the cached entry), alive
// probe, and no dangling transaction.
func (p *Pool) validate(ctx context.Context, server *Server, e *entry) error {
	vctx, cancel := context.WithTimeout(ctx, DefaultPingTimeout)
	defer cancel()
	if err := e.db.PingContext(vctx); err != nil {
		return fansierr.ErrNoConnection
	}
	if dangling, err := hasDanglingTransaction(vctx, server, e.db); err == nil && dangling {
		return fansierr.ErrDanglingTransaction
	}
	return nil
}

func (p *Pool) evict(aff Affinity, key string, server *Server) {
	table := p.tableFor(aff)
	p.mu.Lock()
	e, ok := table[key]
	if ok {
		delete(table, key)
	}
	p.mu.Unlock()
	if ok {
		if err := e.db.Close(); err != nil {
			fansiconfig.LogOrDiscard(server.Logger, "dbconn: error disposing evicted connection: %v", err)
		}
	}
}

// ClearAffinity disposes every connection cached under aff.
func (p *Pool) ClearAffinity(aff Affinity, server *Server) {
	p.mu.Lock()
	table, ok := p.byAffinity[aff]
	delete(p.byAffinity, aff)
	p.mu.Unlock()
	if !ok {
		return
	}
	for _, e := range table {
		if err := e.db.Close(); err != nil {
			fansiconfig.LogOrDiscard(server.Logger, "dbconn: error disposing connection during shutdown: %v", err)
		}
	}
}

// ClearAll disposes every connection cached under every affinity.
func (p *Pool) ClearAll(server *Server) {
	p.mu.Lock()
	all := p.byAffinity
	p.byAffinity = make(map[Affinity]map[string]*entry)
	p.mu.Unlock()
	for _, table := range all {
		for _, e := range table {
			if err := e.db.Close(); err != nil {
				fansiconfig.LogOrDiscard(server.Logger, "dbconn: error disposing connection during shutdown: %v", err)
			}
		}
	}
}

func systemDatabaseFor(engine typesystem.Engine) string {
	switch engine {
	case typesystem.MsSql:
		return "master"
	case typesystem.MySql:
		return "mysql"
	default:
		return ""
	}
}

func switchDatabase(ctx context.Context, server *Server, db *sql.DB, database string) error {
	switch server.Engine {
	case typesystem.MsSql:
		_, err := db.ExecContext(ctx, fmt.Sprintf("USE %s", database))
		return err
	case typesystem.MySql:
		conn, err := db.Conn(ctx)
		if err != nil {
			return err
		}
		defer conn.Close()
		return conn.Raw(func(driverConn any) error {
			type databaseChanger interface{ ChangeDatabase(string) error }
			if changer, ok := driverConn.(databaseChanger); ok {
				return changer.ChangeDatabase(database)
			}
			_, err := db.ExecContext(ctx, fmt.Sprintf("USE %s", database))
			return err
		})
	default:
		return fansierr.NotSupported(fmt.Sprintf("%s does not support switching the current database on an open session", server.Engine))
	}
}

// hasDanglingTransaction implements the MsSql-specific @@TRANCOUNT probe,
// the one precise detector available; other engines are best-effort and
// report false.
func hasDanglingTransaction(ctx context.Context, server *Server, db *sql.DB) (bool, error) {
	if server.Engine != typesystem.MsSql {
		return false, nil
	}
	var count int
	if err := db.QueryRowContext(ctx, "SELECT @@TRANCOUNT").Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
