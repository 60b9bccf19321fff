// Package discovery implements schema discovery over an existing database:
// listing/creating/dropping databases and tables, reading column and
// relationship metadata, and probing liveness. Every operation runs
// against a dbconn.ManagedConnection rather than a bare *sql.DB.
package discovery

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jas88/fansigo/dbconn"
	"github.com/jas88/fansigo/fansiconfig"
	"github.com/jas88/fansigo/fansierr"
	"github.com/jas88/fansigo/typesystem"
)

// Server is a discovery-capable handle on a dbconn.Server: every method
// here opens (or reuses, via the pool) a ManagedConnection for the
// duration of the call.
type Server struct {
	Pool     *dbconn.Pool
	Affinity dbconn.Affinity
	Backing  *dbconn.Server
	Metadata Metadata
}

func NewServer(pool *dbconn.Pool, aff dbconn.Affinity, backing *dbconn.Server) *Server {
	return &Server{
		Pool:     pool,
		Affinity: aff,
		Backing:  backing,
		Metadata: MetadataFor(backing.Engine),
	}
}

// Database describes one catalog-level database as reported by the
// engine's own metadata views.
type Database struct {
	Name string
}

// Table describes one base table.
type Table struct {
	Schema string
	Name   string
}

// QualifiedName returns "schema.name", or just "name" when the engine has
// no schema concept (SQLite).
func (t Table) QualifiedName() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// Column describes one table column as discovered from the engine's
// metadata views, already translated to the portable logical type via
// typesystem.Translator.
type Column struct {
	Name          string
	LogicalType   typesystem.TypeRequest
	Nullable      bool
	DefaultValue  sql.NullString
	OrdinalPos    int
	IsPrimaryKey  bool
}

// Relationship describes one foreign key constraint.
type Relationship struct {
	ConstraintName   string
	FromTable        Table
	FromColumn       string
	ToTable          Table
	ToColumn         string
}

func (s *Server) conn(ctx context.Context, database string) (*dbconn.ManagedConnection, error) {
	return s.Pool.Acquire(ctx, s.Affinity, s.Backing, nil, database)
}

// RespondsWithinTime reports whether the server answers a trivial query
// before timeout elapses.
func (s *Server) RespondsWithinTime(ctx context.Context, timeout time.Duration) bool {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	c, err := s.conn(cctx, "")
	if err != nil {
		return false
	}
	defer c.Dispose()
	return c.DB().PingContext(cctx) == nil
}

// GetVersion returns the engine's self-reported version string.
func (s *Server) GetVersion(ctx context.Context) (string, error) {
	c, err := s.conn(ctx, "")
	if err != nil {
		return "", err
	}
	defer c.Dispose()
	var version string
	if err := c.DB().QueryRowContext(ctx, s.Metadata.Database.Version).Scan(&version); err != nil {
		return "", fmt.Errorf("discovery: reading version: %w", err)
	}
	return version, nil
}

// ListDatabases returns every user-visible database. An engine whose
// Metadata has no ListDatabases query (SQLite, Oracle) reports a single
// synthetic "main" entry without querying.
func (s *Server) ListDatabases(ctx context.Context) ([]Database, error) {
	if s.Metadata.ListDatabases == "" {
		return []Database{{Name: "main"}}, nil
	}
	c, err := s.conn(ctx, "")
	if err != nil {
		return nil, err
	}
	defer c.Dispose()

	rows, err := c.DB().QueryContext(ctx, s.Metadata.ListDatabases)
	if err != nil {
		return nil, fmt.Errorf("discovery: listing databases: %w", err)
	}
	defer rows.Close()

	var out []Database
	for rows.Next() {
		var d Database
		if err := rows.Scan(&d.Name); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ExpectDatabase returns an error unless database exists.
func (s *Server) ExpectDatabase(ctx context.Context, database string) error {
	dbs, err := s.ListDatabases(ctx)
	if err != nil {
		return err
	}
	for _, d := range dbs {
		if d.Name == database {
			return nil
		}
	}
	return fansierr.ImplementationNotFound(fmt.Sprintf("database %q", database))
}

// DatabaseExists reports whether database exists without erroring when it
// does not.
func (s *Server) DatabaseExists(ctx context.Context, database string) (bool, error) {
	dbs, err := s.ListDatabases(ctx)
	if err != nil {
		return false, err
	}
	for _, d := range dbs {
		if d.Name == database {
			return true, nil
		}
	}
	return false, nil
}

// CreateDatabase issues CREATE DATABASE against the server's default
// (schema-less) connection, bounded by the configurable create-database
// timeout rather than the caller's own command timeout.
func (s *Server) CreateDatabase(ctx context.Context, database string, syn DDLSyntax) error {
	c, err := s.conn(ctx, "")
	if err != nil {
		return err
	}
	defer c.Dispose()

	cctx, cancel := context.WithTimeout(ctx, s.createDatabaseTimeout())
	defer cancel()
	_, err = c.DB().ExecContext(cctx, syn.CreateDatabase(database))
	if err != nil && cctx.Err() != nil {
		return fmt.Errorf("discovery: creating database %q: %w: %w", database, cctx.Err(), err)
	}
	return err
}

func (s *Server) createDatabaseTimeout() time.Duration {
	if s.Backing != nil && s.Backing.Config != nil {
		return s.Backing.Config.CreateDatabaseTimeout()
	}
	return fansiconfig.Default.CreateDatabaseTimeout()
}

// DropDatabase issues DROP DATABASE.
func (s *Server) DropDatabase(ctx context.Context, database string, syn DDLSyntax) error {
	c, err := s.conn(ctx, "")
	if err != nil {
		return err
	}
	defer c.Dispose()
	_, err = c.DB().ExecContext(ctx, syn.DropDatabase(database))
	return err
}

// DDLSyntax is the minimal per-engine phrasing discovery needs for the
// handful of DDL statements it issues directly (CREATE/DROP DATABASE);
// everything else is built from Metadata SQL templates.
type DDLSyntax interface {
	CreateDatabase(name string) string
	DropDatabase(name string) string
}
