package ddl

import (
	"context"
	"database/sql"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jas88/fansigo/dbconn"
	"github.com/jas88/fansigo/discovery"
	"github.com/jas88/fansigo/syntax"
	"github.com/jas88/fansigo/typesystem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptTableCreationPostgres(t *testing.T) {
	columns := []ColumnDefinition{
		{Name: "id", Type: typesystem.TypeRequest{DataType: typesystem.Int32}},
		{Name: "name", Type: typesystem.TypeRequest{DataType: typesystem.String}.WithWidth(50), Nullable: true},
	}
	sql, err := ScriptTableCreation(
		discovery.Table{Schema: "app", Name: "orders"},
		columns, []string{"id"},
		syntax.NewPostgreSqlHelper(), typesystem.NewPostgreSqlTranslator(),
	)
	require.NoError(t, err)
	assert.Contains(t, sql, `CREATE TABLE "app"."orders"`)
	assert.Contains(t, sql, `"id" integer NOT NULL`)
	assert.Contains(t, sql, `PRIMARY KEY ("id")`)
}

func TestCreateTableExecutesScriptedStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	server := dbconn.NewServer(typesystem.Oracle, "mock", dbconn.NewConnectionString("database"))
	server.Opener = func(driverName, dataSourceName string) (*sql.DB, error) { return db, nil }
	pool := dbconn.NewPool()
	conn, err := pool.Acquire(context.Background(), dbconn.NewAffinity(), server, nil, "app")
	require.NoError(t, err)

	mock.ExpectExec(`CREATE TABLE`).WillReturnResult(sqlmock.NewResult(0, 0))

	table := discovery.Table{Name: "orders"}
	columns := []ColumnDefinition{{Name: "id", Type: typesystem.TypeRequest{DataType: typesystem.Int32}}}
	created, err := CreateTable(context.Background(), conn, table, columns, []string{"id"}, syntax.NewSqliteHelper(), typesystem.NewSqliteTranslator())
	require.NoError(t, err)
	assert.Equal(t, table, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateFromJoinMySqlUsesJoinSet(t *testing.T) {
	sql, err := UpdateFromJoin(typesystem.MySql, "orders", "prices", "orders.id = prices.order_id",
		map[string]string{"total": "prices.total"}, syntax.NewMySqlHelper())
	require.NoError(t, err)
	assert.Contains(t, sql, "UPDATE orders JOIN prices ON orders.id = prices.order_id SET")
}

func TestUpdateFromJoinOracleUsesCorrelatedSubquery(t *testing.T) {
	sql, err := UpdateFromJoin(typesystem.Oracle, "orders", "prices", "orders.id = prices.order_id",
		map[string]string{"total": "prices.total"}, syntax.NewOracleHelper())
	require.NoError(t, err)
	assert.Contains(t, sql, "SELECT prices.total FROM prices")
}

func TestTopologicalSortOrdersParentBeforeChild(t *testing.T) {
	customers := discovery.Table{Name: "customers"}
	orders := discovery.Table{Name: "orders"}
	rels := []discovery.Relationship{
		{FromTable: orders, ToTable: customers},
	}
	sorted, err := TopologicalSort([]discovery.Table{orders, customers}, rels)
	require.NoError(t, err)
	require.Len(t, sorted, 2)
	assert.Equal(t, "customers", sorted[0].Name)
	assert.Equal(t, "orders", sorted[1].Name)
}

func TestTopologicalSortDetectsCycle(t *testing.T) {
	a := discovery.Table{Name: "a"}
	b := discovery.Table{Name: "b"}
	rels := []discovery.Relationship{
		{FromTable: a, ToTable: b},
		{FromTable: b, ToTable: a},
	}
	_, err := TopologicalSort([]discovery.Table{a, b}, rels)
	assert.Error(t, err)
}
