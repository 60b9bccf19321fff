package discovery

import (
	"context"
	"fmt"
	"strings"

	"github.com/jas88/fansigo/fansierr"
	"github.com/jas88/fansigo/syntax"
)

// TableExists reports whether table exists in database.
func (s *Server) TableExists(ctx context.Context, database string, table Table, helper syntax.Helper) (bool, error) {
	c, err := s.conn(ctx, database)
	if err != nil {
		return false, err
	}
	defer c.Dispose()

	query := fmt.Sprintf(s.Metadata.Table.TableExists, helper.Placeholder(1), helper.Placeholder(2))
	args := []any{table.Schema, table.Name}
	if s.Backing.Engine == "Sqlite" {
		// SQLite has no schemas: its template binds the table name only.
		query = fmt.Sprintf(s.Metadata.Table.TableExists, helper.Placeholder(1))
		args = []any{table.Name}
	}
	var count int
	if err := c.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("discovery: checking table existence: %w", err)
	}
	return count > 0, nil
}

// ExpectTable returns an error unless table exists.
func (s *Server) ExpectTable(ctx context.Context, database string, table Table, helper syntax.Helper) error {
	exists, err := s.TableExists(ctx, database, table, helper)
	if err != nil {
		return err
	}
	if !exists {
		return fansierr.ImplementationNotFound(fmt.Sprintf("table %q", table.QualifiedName()))
	}
	return nil
}

// DiscoverTables lists every base table in database, optionally restricted
// by schema and/or a LIKE name pattern.
func (s *Server) DiscoverTables(ctx context.Context, database, schema, namePattern string, helper syntax.Helper) ([]Table, error) {
	c, err := s.conn(ctx, database)
	if err != nil {
		return nil, err
	}
	defer c.Dispose()

	query := s.Metadata.Table.ListTables
	var args []any
	n := 1
	if schema != "" && s.Metadata.Table.SchemaFilter != "" {
		query += fmt.Sprintf(s.Metadata.Table.SchemaFilter, helper.Placeholder(n))
		args = append(args, schema)
		n++
	}
	if namePattern != "" {
		query += fmt.Sprintf(s.Metadata.Table.NameFilter, helper.Placeholder(n))
		args = append(args, namePattern)
		n++
	}
	query += s.Metadata.Table.OrderBy

	rows, err := c.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("discovery: listing tables: %w", err)
	}
	defer rows.Close()

	var out []Table
	for rows.Next() {
		var t Table
		if err := rows.Scan(&t.Schema, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Server) Engine() string { return string(s.Backing.Engine) }

// GetRowCount returns the number of rows in table.
func (s *Server) GetRowCount(ctx context.Context, database string, table Table, helper syntax.Helper) (int64, error) {
	c, err := s.conn(ctx, database)
	if err != nil {
		return 0, err
	}
	defer c.Dispose()

	qualified := qualify(helper, table)
	var count int64
	query := fmt.Sprintf(s.Metadata.Table.RowCount, qualified)
	if err := c.DB().QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("discovery: counting rows in %s: %w", qualified, err)
	}
	return count, nil
}

// IsEmpty reports whether table has zero rows.
func (s *Server) IsEmpty(ctx context.Context, database string, table Table, helper syntax.Helper) (bool, error) {
	n, err := s.GetRowCount(ctx, database, table, helper)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// DropTable drops table, rendering its qualified name with helper.
func (s *Server) DropTable(ctx context.Context, database string, table Table, helper syntax.Helper) error {
	c, err := s.conn(ctx, database)
	if err != nil {
		return err
	}
	defer c.Dispose()
	_, err = c.DB().ExecContext(ctx, fmt.Sprintf("DROP TABLE %s", qualify(helper, table)))
	return err
}

// TruncateTable empties table without dropping it.
func (s *Server) TruncateTable(ctx context.Context, database string, table Table, helper syntax.Helper) error {
	c, err := s.conn(ctx, database)
	if err != nil {
		return err
	}
	defer c.Dispose()
	_, err = c.DB().ExecContext(ctx, fmt.Sprintf(s.Metadata.Table.Truncate, qualify(helper, table)))
	return err
}

// AddColumn issues ALTER TABLE ... ADD COLUMN.
func (s *Server) AddColumn(ctx context.Context, database string, table Table, column, sqlType string, helper syntax.Helper) error {
	c, err := s.conn(ctx, database)
	if err != nil {
		return err
	}
	defer c.Dispose()
	stmt := fmt.Sprintf("ALTER TABLE %s ADD %s %s", qualify(helper, table), helper.Wrap(column), sqlType)
	if _, err := c.DB().ExecContext(ctx, stmt); err != nil {
		return fansierr.NewAlterFailed(stmt, err)
	}
	return nil
}

// DropColumn issues ALTER TABLE ... DROP COLUMN.
func (s *Server) DropColumn(ctx context.Context, database string, table Table, column string, helper syntax.Helper) error {
	c, err := s.conn(ctx, database)
	if err != nil {
		return err
	}
	defer c.Dispose()
	stmt := fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", qualify(helper, table), helper.Wrap(column))
	if _, err := c.DB().ExecContext(ctx, stmt); err != nil {
		return fansierr.NewAlterFailed(stmt, err)
	}
	return nil
}

// CreateIndex issues CREATE [UNIQUE] INDEX.
func (s *Server) CreateIndex(ctx context.Context, database string, table Table, indexName string, columns []string, unique bool, helper syntax.Helper) error {
	c, err := s.conn(ctx, database)
	if err != nil {
		return err
	}
	defer c.Dispose()

	wrapped := make([]string, len(columns))
	for i, col := range columns {
		wrapped[i] = helper.Wrap(col)
	}
	uniqueKw := ""
	if unique {
		uniqueKw = "UNIQUE "
	}
	stmt := fmt.Sprintf("CREATE %sINDEX %s ON %s (%s)", uniqueKw, helper.Wrap(indexName), qualify(helper, table), strings.Join(wrapped, ", "))
	_, err = c.DB().ExecContext(ctx, stmt)
	return err
}

// DropIndex issues DROP INDEX.
func (s *Server) DropIndex(ctx context.Context, database string, table Table, indexName string, helper syntax.Helper) error {
	c, err := s.conn(ctx, database)
	if err != nil {
		return err
	}
	defer c.Dispose()

	var stmt string
	switch s.Backing.Engine {
	case "MySql":
		stmt = fmt.Sprintf("DROP INDEX %s ON %s", helper.Wrap(indexName), qualify(helper, table))
	default:
		stmt = fmt.Sprintf("DROP INDEX %s", helper.Wrap(indexName))
	}
	_, err = c.DB().ExecContext(ctx, stmt)
	return err
}

// CreatePrimaryKey adds a primary key constraint over columns.
func (s *Server) CreatePrimaryKey(ctx context.Context, database string, table Table, constraintName string, columns []string, helper syntax.Helper) error {
	c, err := s.conn(ctx, database)
	if err != nil {
		return err
	}
	defer c.Dispose()

	wrapped := make([]string, len(columns))
	for i, col := range columns {
		wrapped[i] = helper.Wrap(col)
	}
	stmt := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s PRIMARY KEY (%s)", qualify(helper, table), helper.Wrap(constraintName), strings.Join(wrapped, ", "))
	_, err = c.DB().ExecContext(ctx, stmt)
	return err
}

// AddForeignKey adds a foreign key constraint.
func (s *Server) AddForeignKey(ctx context.Context, database string, rel Relationship, helper syntax.Helper) error {
	c, err := s.conn(ctx, database)
	if err != nil {
		return err
	}
	defer c.Dispose()

	stmt := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		qualify(helper, rel.FromTable), helper.Wrap(rel.ConstraintName), helper.Wrap(rel.FromColumn),
		qualify(helper, rel.ToTable), helper.Wrap(rel.ToColumn))
	_, err = c.DB().ExecContext(ctx, stmt)
	return err
}

func qualify(helper syntax.Helper, table Table) string {
	if table.Schema == "" {
		return helper.Wrap(table.Name)
	}
	return helper.Wrap(table.Schema) + "." + helper.Wrap(table.Name)
}
