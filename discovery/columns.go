package discovery

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jas88/fansigo/syntax"
	"github.com/jas88/fansigo/typesystem"
	"golang.org/x/sync/errgroup"
)

// DiscoverColumns reads a table's columns, translating each engine-native
// type string to a portable typesystem.TypeRequest via translator.
func (s *Server) DiscoverColumns(ctx context.Context, database string, table Table, translator typesystem.Translator, helper syntax.Helper) ([]Column, error) {
	c, err := s.conn(ctx, database)
	if err != nil {
		return nil, err
	}
	defer c.Dispose()

	if s.Backing.Engine == typesystem.Sqlite {
		return s.discoverSqliteColumns(ctx, c.DB(), table, translator)
	}

	query := fmt.Sprintf(s.Metadata.Table.GetColumns, helper.Placeholder(1), helper.Placeholder(2))
	rows, err := c.DB().QueryContext(ctx, query, table.Schema, table.Name)
	if err != nil {
		return nil, fmt.Errorf("discovery: reading columns of %s: %w", table.QualifiedName(), err)
	}
	defer rows.Close()

	var out []Column
	for rows.Next() {
		var (
			name, dataType, nullable string
			def                      sql.NullString
			charLen, precision, scale sql.NullInt64
			ordinal                  int
		)
		if err := rows.Scan(&name, &dataType, &nullable, &def, &charLen, &precision, &scale, &ordinal); err != nil {
			return nil, err
		}
		sqlType := dataType
		if charLen.Valid {
			sqlType = fmt.Sprintf("%s(%d)", dataType, charLen.Int64)
		} else if precision.Valid {
			sqlType = fmt.Sprintf("%s(%d,%d)", dataType, precision.Int64, scale.Int64)
		}
		col := Column{
			Name:         name,
			Nullable:     nullable == "YES" || nullable == "Y",
			DefaultValue: def,
			OrdinalPos:   ordinal,
		}
		if translator != nil {
			if req, ok := translator.TypeRequestFor(sqlType); ok {
				col.LogicalType = req
			}
		}
		out = append(out, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	pk, err := s.primaryKeyColumns(ctx, c.DB(), table, helper)
	if err != nil {
		return nil, err
	}
	for i := range out {
		if _, ok := pk[out[i].Name]; ok {
			out[i].IsPrimaryKey = true
		}
	}
	return out, nil
}

// discoverSqliteColumns uses PRAGMA table_info, whose row shape differs
// entirely from the INFORMATION_SCHEMA-style engines.
func (s *Server) discoverSqliteColumns(ctx context.Context, db *sql.DB, table Table, translator typesystem.Translator) ([]Column, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(s.Metadata.Table.GetColumns, table.Name))
	if err != nil {
		return nil, fmt.Errorf("discovery: reading columns of %s: %w", table.Name, err)
	}
	defer rows.Close()

	var out []Column
	for rows.Next() {
		var (
			cid      int
			name     string
			typeDecl string
			notNull  int
			dflt     sql.NullString
			pk       int
		)
		if err := rows.Scan(&cid, &name, &typeDecl, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		col := Column{
			Name:         name,
			Nullable:     notNull == 0,
			DefaultValue: dflt,
			OrdinalPos:   cid + 1,
			IsPrimaryKey: pk > 0,
		}
		if translator != nil {
			if req, ok := translator.TypeRequestFor(typeDecl); ok {
				col.LogicalType = req
			}
		}
		out = append(out, col)
	}
	return out, rows.Err()
}

func (s *Server) primaryKeyColumns(ctx context.Context, db *sql.DB, table Table, helper syntax.Helper) (map[string]struct{}, error) {
	if s.Backing.Engine == typesystem.Sqlite {
		return s.sqlitePrimaryKeyColumns(ctx, db, table)
	}

	query := fmt.Sprintf(s.Metadata.Table.GetPrimaryKey, helper.Placeholder(1), helper.Placeholder(2))
	rows, err := db.QueryContext(ctx, query, table.Schema, table.Name)
	if err != nil {
		return nil, fmt.Errorf("discovery: reading primary key of %s: %w", table.QualifiedName(), err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, err
		}
		out[col] = struct{}{}
	}
	return out, rows.Err()
}

func (s *Server) sqlitePrimaryKeyColumns(ctx context.Context, db *sql.DB, table Table) (map[string]struct{}, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(s.Metadata.Table.GetPrimaryKey, table.Name))
	if err != nil {
		return nil, fmt.Errorf("discovery: reading primary key of %s: %w", table.Name, err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var (
			cid      int
			name     string
			typeDecl string
			notNull  int
			dflt     sql.NullString
			pk       int
		)
		if err := rows.Scan(&cid, &name, &typeDecl, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		if pk > 0 {
			out[name] = struct{}{}
		}
	}
	return out, rows.Err()
}

// HasPrimaryKey reports whether table declares at least one primary key
// column.
func (s *Server) HasPrimaryKey(ctx context.Context, database string, table Table, helper syntax.Helper) (bool, error) {
	c, err := s.conn(ctx, database)
	if err != nil {
		return false, err
	}
	defer c.Dispose()
	pk, err := s.primaryKeyColumns(ctx, c.DB(), table, helper)
	if err != nil {
		return false, err
	}
	return len(pk) > 0, nil
}

// DiscoverRelationships reads every foreign key defined on table.
func (s *Server) DiscoverRelationships(ctx context.Context, database string, table Table, helper syntax.Helper) ([]Relationship, error) {
	c, err := s.conn(ctx, database)
	if err != nil {
		return nil, err
	}
	defer c.Dispose()

	var query string
	var args []any
	if s.Backing.Engine == typesystem.Sqlite {
		query = fmt.Sprintf(s.Metadata.Table.GetForeignKeys, table.Name)
	} else if s.Backing.Engine == typesystem.MsSql {
		query = fmt.Sprintf(s.Metadata.Table.GetForeignKeys, helper.Placeholder(1))
		args = []any{table.Name}
	} else {
		query = fmt.Sprintf(s.Metadata.Table.GetForeignKeys, helper.Placeholder(1), helper.Placeholder(2))
		args = []any{table.Schema, table.Name}
	}

	rows, err := c.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("discovery: reading foreign keys of %s: %w", table.QualifiedName(), err)
	}
	defer rows.Close()

	var out []Relationship
	for rows.Next() {
		var r Relationship
		var fromTable, toTable string
		if err := rows.Scan(&r.ConstraintName, &fromTable, &r.FromColumn, &toTable, &r.ToColumn); err != nil {
			return nil, err
		}
		r.FromTable = Table{Schema: table.Schema, Name: fromTable}
		r.ToTable = Table{Schema: table.Schema, Name: toTable}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DiscoverTablesConcurrently discovers columns for every table in tables
// concurrently, bounded by concurrency goroutines, returning results
// indexed the same way as the input slice.
func (s *Server) DiscoverTablesConcurrently(ctx context.Context, database string, tables []Table, translator typesystem.Translator, helper syntax.Helper, concurrency int) ([][]Column, error) {
	results := make([][]Column, len(tables))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, table := range tables {
		i, table := i, table
		g.Go(func() error {
			cols, err := s.DiscoverColumns(gctx, database, table, translator, helper)
			if err != nil {
				return fmt.Errorf("discovering columns for %s: %w", table.QualifiedName(), err)
			}
			results[i] = cols
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
