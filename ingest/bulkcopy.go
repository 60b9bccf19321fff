package ingest

import (
	"context"
	"fmt"
	"strings"

	mssql "github.com/denisenkom/go-mssqldb"
	"github.com/jas88/fansigo/dbconn"
	"github.com/jas88/fansigo/discovery"
	"github.com/jas88/fansigo/syntax"
	"github.com/jas88/fansigo/typesystem"
	"github.com/lib/pq"
)

// defaultMySqlBatchRows is how many rows one multi-row INSERT batches
// together for MySql, which has no native bulk-load hook over
// database/sql.
const defaultMySqlBatchRows = 500

// BulkCopy wraps whichever native bulk-load strategy the active dialect
// selects.
type BulkCopy struct {
	Conn      *dbconn.ManagedConnection
	Engine    typesystem.Engine
	Table     string
	Schema    string
	Columns   []string
	Helper    syntax.Helper
	BatchSize int
}

// NewBulkCopy builds a BulkCopy bound to an already-acquired managed
// connection; disposal of the connection is the caller's responsibility
// exactly as with any other dbconn.ManagedConnection use.
func NewBulkCopy(conn *dbconn.ManagedConnection, engine typesystem.Engine, schema, table string, columns []string, helper syntax.Helper) *BulkCopy {
	return &BulkCopy{Conn: conn, Engine: engine, Table: table, Schema: schema, Columns: columns, Helper: helper}
}

// BeginBulkInsert builds a BulkCopy targeting table over conn, deriving
// schema/table/engine from the discovered table handle so callers don't
// re-spell them.
func BeginBulkInsert(conn *dbconn.ManagedConnection, engine typesystem.Engine, table discovery.Table, columns []string, helper syntax.Helper) *BulkCopy {
	return NewBulkCopy(conn, engine, table.Schema, table.Name, columns, helper)
}

func (b *BulkCopy) qualifiedTable() string {
	if b.Schema == "" {
		return b.Helper.Wrap(b.Table)
	}
	return b.Helper.Wrap(b.Schema) + "." + b.Helper.Wrap(b.Table)
}

// Upload hands rows to the engine's native bulk-load mechanism and
// returns the number of rows loaded. Failure partway through leaves the
// destination table in whatever state the engine's own bulk API leaves it
// in; the validation pass (ValidateBatch) is expected to have already run
// so this step should not itself fail on well-formed input.
func (b *BulkCopy) Upload(ctx context.Context, rows []Row) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	switch b.Engine {
	case typesystem.MsSql:
		return b.uploadMsSql(ctx, rows)
	case typesystem.PostgreSql:
		return b.uploadPostgres(ctx, rows)
	case typesystem.MySql:
		return b.uploadMySqlBatched(ctx, rows)
	case typesystem.Oracle:
		return b.uploadOracleArrayBind(ctx, rows)
	case typesystem.Sqlite:
		return b.uploadSqliteTransaction(ctx, rows)
	default:
		return 0, fmt.Errorf("ingest: unsupported engine %q", b.Engine)
	}
}

// uploadMsSql uses go-mssqldb's bulk-insert statement (mssql.CopyIn),
// which streams rows through TDS bulk-copy protocol instead of one INSERT
// per row.
func (b *BulkCopy) uploadMsSql(ctx context.Context, rows []Row) (int64, error) {
	stmt, err := b.Conn.DB().PrepareContext(ctx, mssql.CopyIn(b.qualifiedTable(), mssql.BulkOptions{}, b.Columns...))
	if err != nil {
		return 0, fmt.Errorf("ingest: prepare bulk copy: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, []any(row)...); err != nil {
			return 0, fmt.Errorf("ingest: bulk copy row: %w", err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		return 0, fmt.Errorf("ingest: bulk copy flush: %w", err)
	}
	return int64(len(rows)), nil
}

// uploadPostgres uses lib/pq's COPY FROM STDIN support (pq.CopyIn), run
// inside its own transaction per pq's documented usage.
func (b *BulkCopy) uploadPostgres(ctx context.Context, rows []Row) (int64, error) {
	tx, err := b.Conn.DB().BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("ingest: begin copy transaction: %w", err)
	}
	var copyStmt string
	if b.Schema != "" {
		copyStmt = pq.CopyInSchema(b.Schema, b.Table, b.Columns...)
	} else {
		copyStmt = pq.CopyIn(b.Table, b.Columns...)
	}
	stmt, err := tx.PrepareContext(ctx, copyStmt)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("ingest: prepare copy: %w", err)
	}
	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, []any(row)...); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return 0, fmt.Errorf("ingest: copy row: %w", err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		_ = tx.Rollback()
		return 0, fmt.Errorf("ingest: copy flush: %w", err)
	}
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("ingest: copy close: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("ingest: copy commit: %w", err)
	}
	return int64(len(rows)), nil
}

// uploadMySqlBatched builds multi-row INSERT ... VALUES (...), (...)
// statements: go-sql-driver/mysql has no bulk-load hook over database/sql,
// so batching rows into one statement is the native strategy.
func (b *BulkCopy) uploadMySqlBatched(ctx context.Context, rows []Row) (int64, error) {
	batchSize := b.BatchSize
	if batchSize <= 0 {
		batchSize = defaultMySqlBatchRows
	}

	wrapped := make([]string, len(b.Columns))
	for i, c := range b.Columns {
		wrapped[i] = b.Helper.Wrap(c)
	}
	columnList := strings.Join(wrapped, ", ")

	var total int64
	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]

		rowPlaceholders := make([]string, len(batch))
		args := make([]any, 0, len(batch)*len(b.Columns))
		for i, row := range batch {
			ph := make([]string, len(b.Columns))
			for j := range b.Columns {
				ph[j] = "?"
				args = append(args, row[j])
			}
			rowPlaceholders[i] = "(" + strings.Join(ph, ", ") + ")"
		}
		query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", b.qualifiedTable(), columnList, strings.Join(rowPlaceholders, ", "))
		result, err := b.Conn.DB().ExecContext(ctx, query, args...)
		if err != nil {
			return total, fmt.Errorf("ingest: batch insert: %w", err)
		}
		n, err := result.RowsAffected()
		if err == nil {
			total += n
		} else {
			total += int64(len(batch))
		}
	}
	return total, nil
}

// uploadOracleArrayBind binds each column as a slice parameter in a single
// statement execution, the array-DML form godror exposes for batched
// inserts without one round-trip per row.
func (b *BulkCopy) uploadOracleArrayBind(ctx context.Context, rows []Row) (int64, error) {
	wrapped := make([]string, len(b.Columns))
	binds := make([]string, len(b.Columns))
	for i, c := range b.Columns {
		wrapped[i] = b.Helper.Wrap(c)
		binds[i] = b.Helper.Placeholder(i + 1)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", b.qualifiedTable(), strings.Join(wrapped, ", "), strings.Join(binds, ", "))

	columns := make([][]any, len(b.Columns))
	for j := range b.Columns {
		columns[j] = make([]any, len(rows))
		for i, row := range rows {
			columns[j][i] = row[j]
		}
	}
	args := make([]any, len(columns))
	for i, col := range columns {
		args[i] = col
	}

	_, err := b.Conn.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("ingest: array bind insert: %w", err)
	}
	return int64(len(rows)), nil
}

// uploadSqliteTransaction issues one INSERT per row inside a single
// transaction: SQLite has no separate bulk-load API, but batching every
// row into one commit is materially faster than auto-committing per row.
func (b *BulkCopy) uploadSqliteTransaction(ctx context.Context, rows []Row) (int64, error) {
	tx, err := b.Conn.DB().BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("ingest: begin insert transaction: %w", err)
	}

	wrapped := make([]string, len(b.Columns))
	binds := make([]string, len(b.Columns))
	for i, c := range b.Columns {
		wrapped[i] = b.Helper.Wrap(c)
		binds[i] = "?"
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", b.qualifiedTable(), strings.Join(wrapped, ", "), strings.Join(binds, ", "))

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("ingest: prepare insert: %w", err)
	}
	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, []any(row)...); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return 0, fmt.Errorf("ingest: insert row: %w", err)
		}
	}
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("ingest: insert commit: %w", err)
	}
	return int64(len(rows)), nil
}
