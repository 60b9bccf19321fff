// Package ddl implements cross-dialect DDL scripting and the relationship
// topological sort used to order table drops. Statement assembly is
// string-template based, driven by typesystem.Translator for column type
// spellings and syntax.Helper for identifier quoting.
package ddl

import (
	"context"
	"fmt"
	"strings"

	"github.com/jas88/fansigo/dbconn"
	"github.com/jas88/fansigo/discovery"
	"github.com/jas88/fansigo/fansierr"
	"github.com/jas88/fansigo/syntax"
	"github.com/jas88/fansigo/typesystem"
)

// ColumnDefinition is the input to ScriptTableCreation: a column name plus
// the portable logical type request typesystem.Translator renders.
type ColumnDefinition struct {
	Name     string
	Type     typesystem.TypeRequest
	Nullable bool
}

// ScriptTableCreation renders a CREATE TABLE statement for table, one line
// per column, trailing a PRIMARY KEY clause when primaryKey is non-empty.
func ScriptTableCreation(table discovery.Table, columns []ColumnDefinition, primaryKey []string, helper syntax.Helper, translator typesystem.Translator) (string, error) {
	var lines []string
	for _, col := range columns {
		sqlType, err := translator.SQLTypeFor(col.Type)
		if err != nil {
			return "", fmt.Errorf("ddl: column %q: %w", col.Name, err)
		}
		nullability := "NOT NULL"
		if col.Nullable {
			nullability = "NULL"
		}
		lines = append(lines, fmt.Sprintf("%s %s %s", helper.Wrap(col.Name), sqlType, nullability))
	}
	if len(primaryKey) > 0 {
		wrapped := make([]string, len(primaryKey))
		for i, col := range primaryKey {
			wrapped[i] = helper.Wrap(col)
		}
		lines = append(lines, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(wrapped, ", ")))
	}

	qualified := helper.Wrap(table.Name)
	if table.Schema != "" {
		qualified = helper.Wrap(table.Schema) + "." + qualified
	}
	return fmt.Sprintf("CREATE TABLE %s (\n\t%s\n)", qualified, strings.Join(lines, ",\n\t")), nil
}

// CreateTable scripts table via ScriptTableCreation and executes it over
// conn, returning the table handle on success.
func CreateTable(ctx context.Context, conn *dbconn.ManagedConnection, table discovery.Table, columns []ColumnDefinition, primaryKey []string, helper syntax.Helper, translator typesystem.Translator) (discovery.Table, error) {
	stmt, err := ScriptTableCreation(table, columns, primaryKey, helper, translator)
	if err != nil {
		return discovery.Table{}, err
	}
	if _, err := conn.DB().ExecContext(ctx, stmt); err != nil {
		return discovery.Table{}, fansierr.NewAlterFailed(stmt, err)
	}
	return table, nil
}

// UpdateFromJoin renders an update-from-join statement in the dialect's
// own phrasing: MsSql/PostgreSql use UPDATE target SET ... FROM source
// WHERE joinCondition; MySql uses UPDATE target JOIN source ... SET ...;
// Oracle and SQLite have no FROM-JOIN update form and instead use a
// correlated subquery per set expression.
func UpdateFromJoin(engine typesystem.Engine, target, source, joinCondition string, setExprs map[string]string, helper syntax.Helper) (string, error) {
	var sets []string
	for col, expr := range setExprs {
		sets = append(sets, fmt.Sprintf("%s = %s", helper.Wrap(col), expr))
	}
	switch engine {
	case typesystem.MsSql, typesystem.PostgreSql:
		return fmt.Sprintf("UPDATE %s SET %s FROM %s WHERE %s", target, strings.Join(sets, ", "), source, joinCondition), nil
	case typesystem.MySql:
		return fmt.Sprintf("UPDATE %s JOIN %s ON %s SET %s", target, source, joinCondition, strings.Join(sets, ", ")), nil
	case typesystem.Oracle, typesystem.Sqlite:
		var correlated []string
		for col, expr := range setExprs {
			correlated = append(correlated, fmt.Sprintf("%s = (SELECT %s FROM %s WHERE %s)", helper.Wrap(col), expr, source, joinCondition))
		}
		return fmt.Sprintf("UPDATE %s SET %s WHERE EXISTS (SELECT 1 FROM %s WHERE %s)",
			target, strings.Join(correlated, ", "), source, joinCondition), nil
	default:
		return "", fansierr.NotSupported(fmt.Sprintf("UPDATE-FROM-JOIN not implemented for engine %q", engine))
	}
}

// TopologicalSort orders tables so that every table referenced by a
// foreign key (the parent) appears before the table that owns the
// constraint (the child) — the order CREATE TABLE statements can run in
// directly. Reverse the slice for a safe DROP TABLE order. Returns
// fansierr.ErrCircularDependency if the relationships contain a cycle.
func TopologicalSort(tables []discovery.Table, relationships []discovery.Relationship) ([]discovery.Table, error) {
	dependents := make(map[string][]string) // parent -> children that reference it
	inDegree := make(map[string]int)        // unresolved parent count per child
	index := make(map[string]discovery.Table)

	key := func(t discovery.Table) string { return t.QualifiedName() }

	for _, t := range tables {
		k := key(t)
		index[k] = t
		if _, ok := inDegree[k]; !ok {
			inDegree[k] = 0
		}
	}
	for _, r := range relationships {
		child, parent := key(r.FromTable), key(r.ToTable)
		if child == parent {
			continue
		}
		dependents[parent] = append(dependents[parent], child)
		inDegree[child]++
	}

	var ready []string
	for k, deg := range inDegree {
		if deg == 0 {
			ready = append(ready, k)
		}
	}

	var order []string
	visited := make(map[string]bool)
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		if visited[n] {
			continue
		}
		visited[n] = true
		order = append(order, n)
		for _, dep := range dependents[n] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(order) != len(tables) {
		var remaining []string
		for k := range inDegree {
			if !visited[k] {
				remaining = append(remaining, k)
			}
		}
		return nil, fansierr.CircularDependency(remaining)
	}

	out := make([]discovery.Table, len(order))
	for i, k := range order {
		out[i] = index[k]
	}
	return out, nil
}
