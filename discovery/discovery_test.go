package discovery

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jas88/fansigo/dbconn"
	"github.com/jas88/fansigo/fansiconfig"
	"github.com/jas88/fansigo/syntax"
	"github.com/jas88/fansigo/typesystem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDDLSyntax struct{}

func (stubDDLSyntax) CreateDatabase(name string) string { return fmt.Sprintf("CREATE DATABASE %s", name) }
func (stubDDLSyntax) DropDatabase(name string) string    { return fmt.Sprintf("DROP DATABASE %s", name) }

func mockDiscoveryServer(t *testing.T, engine typesystem.Engine) (*Server, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	backing := dbconn.NewServer(engine, "mock", dbconn.NewConnectionString("database"))
	backing.Opener = func(driverName, dataSourceName string) (*sql.DB, error) { return db, nil }

	pool := dbconn.NewPool()
	aff := dbconn.NewAffinity()
	return NewServer(pool, aff, backing), mock
}

func TestGetVersion(t *testing.T) {
	s, mock := mockDiscoveryServer(t, typesystem.PostgreSql)
	mock.ExpectQuery("SELECT version").WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("PostgreSQL 16.0"))

	version, err := s.GetVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "PostgreSQL 16.0", version)
}

func TestListDatabasesSqliteReportsMain(t *testing.T) {
	s, _ := mockDiscoveryServer(t, typesystem.Sqlite)
	dbs, err := s.ListDatabases(context.Background())
	require.NoError(t, err)
	require.Len(t, dbs, 1)
	assert.Equal(t, "main", dbs[0].Name)
}

func TestCreateDatabaseUsesConfiguredTimeout(t *testing.T) {
	s, mock := mockDiscoveryServer(t, typesystem.PostgreSql)
	s.Backing.Config = fansiconfig.New()
	s.Backing.Config.SetCreateDatabaseTimeout(40 * time.Millisecond)

	mock.ExpectExec("CREATE DATABASE app").WillDelayFor(100 * time.Millisecond).WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.CreateDatabase(context.Background(), "app", stubDDLSyntax{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExpectDatabaseNotFound(t *testing.T) {
	s, mock := mockDiscoveryServer(t, typesystem.PostgreSql)
	mock.ExpectQuery("SELECT datname").WillReturnRows(sqlmock.NewRows([]string{"datname"}).AddRow("other"))

	err := s.ExpectDatabase(context.Background(), "app")
	assert.Error(t, err)
}

func TestTableExists(t *testing.T) {
	s, mock := mockDiscoveryServer(t, typesystem.MySql)
	mock.ExpectExec("USE app").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT COUNT").WithArgs("app", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	exists, err := s.TableExists(context.Background(), "app", Table{Schema: "app", Name: "orders"}, syntax.NewMySqlHelper())
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDiscoverTablesAppliesFilters(t *testing.T) {
	s, mock := mockDiscoveryServer(t, typesystem.PostgreSql)
	mock.ExpectQuery("SELECT table_schema, table_name").WithArgs("app", "ord%").
		WillReturnRows(sqlmock.NewRows([]string{"table_schema", "table_name"}).
			AddRow("app", "orders").AddRow("app", "order_items"))

	tables, err := s.DiscoverTables(context.Background(), "app", "app", "ord%", syntax.NewPostgreSqlHelper())
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, "app.orders", tables[0].QualifiedName())
}

func TestGetRowCountAndIsEmpty(t *testing.T) {
	s, mock := mockDiscoveryServer(t, typesystem.PostgreSql)
	helper := syntax.NewPostgreSqlHelper()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "app"."orders"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	empty, err := s.IsEmpty(context.Background(), "app", Table{Schema: "app", Name: "orders"}, helper)
	require.NoError(t, err)
	assert.True(t, empty)
}

func TestDiscoverColumnsTranslatesLogicalType(t *testing.T) {
	s, mock := mockDiscoveryServer(t, typesystem.PostgreSql)
	mock.ExpectQuery("SELECT column_name").WithArgs("app", "orders").
		WillReturnRows(sqlmock.NewRows([]string{
			"column_name", "data_type", "is_nullable", "column_default",
			"character_maximum_length", "numeric_precision", "numeric_scale", "ordinal_position",
		}).AddRow("id", "integer", "NO", nil, nil, nil, nil, 1))
	mock.ExpectQuery("SELECT ku.column_name").WithArgs("app", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}).AddRow("id"))

	cols, err := s.DiscoverColumns(context.Background(), "app", Table{Schema: "app", Name: "orders"}, typesystem.NewPostgreSqlTranslator(), syntax.NewPostgreSqlHelper())
	require.NoError(t, err)
	require.Len(t, cols, 1)
	assert.Equal(t, typesystem.Int32, cols[0].LogicalType.DataType)
	assert.True(t, cols[0].IsPrimaryKey)
}

func TestDiscoverTablesConcurrently(t *testing.T) {
	s, mock := mockDiscoveryServer(t, typesystem.PostgreSql)
	mock.MatchExpectationsInOrder(false)
	colsRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{
			"column_name", "data_type", "is_nullable", "column_default",
			"character_maximum_length", "numeric_precision", "numeric_scale", "ordinal_position",
		}).AddRow("id", "integer", "NO", nil, nil, nil, nil, 1)
	}
	mock.ExpectQuery("SELECT column_name").WillReturnRows(colsRows())
	mock.ExpectQuery("SELECT ku.column_name").WillReturnRows(sqlmock.NewRows([]string{"column_name"}))
	mock.ExpectQuery("SELECT column_name").WillReturnRows(colsRows())
	mock.ExpectQuery("SELECT ku.column_name").WillReturnRows(sqlmock.NewRows([]string{"column_name"}))

	tables := []Table{{Schema: "app", Name: "orders"}, {Schema: "app", Name: "items"}}
	results, err := s.DiscoverTablesConcurrently(context.Background(), "app", tables, typesystem.NewPostgreSqlTranslator(), syntax.NewPostgreSqlHelper(), 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Len(t, results[0], 1)
	assert.Len(t, results[1], 1)
}
