package dbconn

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jas88/fansigo/fansiconfig"
	"github.com/jas88/fansigo/typesystem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mockServer(t *testing.T, engine typesystem.Engine) (*Server, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	server := NewServer(engine, "mock", NewConnectionString("database"))
	server.Opener = func(driverName, dataSourceName string) (*sql.DB, error) {
		return db, nil
	}
	return server, mock
}

func TestAcquireUnpooledOracle(t *testing.T) {
	server, mock := mockServer(t, typesystem.Oracle)
	pool := NewPool()
	aff := NewAffinity()

	conn, err := pool.Acquire(context.Background(), aff, server, nil, "orcl")
	require.NoError(t, err)
	assert.NotNil(t, conn.DB())
	assert.False(t, conn.InTransaction())

	mock.ExpectClose()
	require.NoError(t, conn.Dispose())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcquirePooledReusesConnection(t *testing.T) {
	server, mock := mockServer(t, typesystem.PostgreSql)
	pool := NewPool()
	aff := NewAffinity()

	first, err := pool.Acquire(context.Background(), aff, server, nil, "app")
	require.NoError(t, err)
	assert.False(t, first.closeOnDispose)

	mock.ExpectPing()
	second, err := pool.Acquire(context.Background(), aff, server, nil, "app")
	require.NoError(t, err)
	assert.Same(t, first.DB(), second.DB())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcquireServerLevelSwitchesDatabase(t *testing.T) {
	server, mock := mockServer(t, typesystem.MsSql)
	pool := NewPool()
	aff := NewAffinity()

	mock.ExpectExec("USE app").WillReturnResult(sqlmock.NewResult(0, 0))
	conn, err := pool.Acquire(context.Background(), aff, server, nil, "app")
	require.NoError(t, err)
	assert.NotNil(t, conn)

	mock.ExpectPing()
	mock.ExpectQuery("SELECT @@TRANCOUNT").WillReturnRows(sqlmock.NewRows([]string{"c"}).AddRow(0))
	mock.ExpectExec("USE other").WillReturnResult(sqlmock.NewResult(0, 0))
	second, err := pool.Acquire(context.Background(), aff, server, nil, "other")
	require.NoError(t, err)
	assert.Same(t, conn.DB(), second.DB())
}

func TestClearAffinityDisposesConnections(t *testing.T) {
	server, mock := mockServer(t, typesystem.PostgreSql)
	pool := NewPool()
	aff := NewAffinity()

	_, err := pool.Acquire(context.Background(), aff, server, nil, "app")
	require.NoError(t, err)

	mock.ExpectClose()
	pool.ClearAffinity(aff, server)

	table := pool.tableFor(aff)
	assert.Empty(t, table)
}

func TestManagedTransactionCommitIsIdempotent(t *testing.T) {
	server, mock := mockServer(t, typesystem.PostgreSql)
	pool := NewPool()
	aff := NewAffinity()

	conn, err := pool.Acquire(context.Background(), aff, server, nil, "app")
	require.NoError(t, err)

	mock.ExpectBegin()
	tx, err := conn.BeginTransaction(context.Background())
	require.NoError(t, err)
	assert.Equal(t, TransactionActive, tx.State())

	mock.ExpectCommit()
	require.NoError(t, tx.CommitAndClose())
	assert.Equal(t, TransactionCommitted, tx.State())

	require.NoError(t, tx.CommitAndClose())
	assert.Equal(t, TransactionCommitted, tx.State())
}

func TestManagedTransactionAbandonIsIdempotent(t *testing.T) {
	server, mock := mockServer(t, typesystem.PostgreSql)
	pool := NewPool()
	aff := NewAffinity()

	conn, err := pool.Acquire(context.Background(), aff, server, nil, "app")
	require.NoError(t, err)

	mock.ExpectBegin()
	tx, err := conn.BeginTransaction(context.Background())
	require.NoError(t, err)

	mock.ExpectRollback()
	require.NoError(t, tx.AbandonAndClose())
	require.NoError(t, tx.AbandonAndClose())
	assert.Equal(t, TransactionRolledBack, tx.State())
	assert.Error(t, tx.RequireActive())
}

func TestAcquireWithTransactionReturnsNonOwningConnection(t *testing.T) {
	server, mock := mockServer(t, typesystem.PostgreSql)
	pool := NewPool()
	aff := NewAffinity()

	conn, err := pool.Acquire(context.Background(), aff, server, nil, "app")
	require.NoError(t, err)

	mock.ExpectBegin()
	tx, err := conn.BeginTransaction(context.Background())
	require.NoError(t, err)

	bound, err := pool.Acquire(context.Background(), aff, server, tx, "app")
	require.NoError(t, err)
	assert.False(t, bound.closeOnDispose)
	assert.Same(t, tx, bound.Transaction())
	assert.NoError(t, bound.Dispose())
}

func TestAcquireUnpooledAppliesEnforcedKeywords(t *testing.T) {
	server := NewServer(typesystem.Oracle, "mock", NewConnectionString("database"))
	server.Config = fansiconfig.New()
	server.Config.SetEnforcedKeywords(string(typesystem.Oracle), []fansiconfig.EnforcedKeyword{
		{Key: "pooled", Value: "false", Priority: 1},
	})

	var gotDSN string
	server.Opener = func(driverName, dataSourceName string) (*sql.DB, error) {
		gotDSN = dataSourceName
		db, mock, err := sqlmock.New()
		if err != nil {
			return nil, err
		}
		mock.ExpectClose()
		return db, nil
	}

	pool := NewPool()
	conn, err := pool.Acquire(context.Background(), NewAffinity(), server, nil, "orcl")
	require.NoError(t, err)
	require.NoError(t, conn.Dispose())
	assert.Contains(t, gotDSN, "pooled=false")
}

func TestAcquirePooledAppliesEnforcedKeywords(t *testing.T) {
	server := NewServer(typesystem.PostgreSql, "mock", NewConnectionString("database"))
	server.Config = fansiconfig.New()
	server.Config.SetEnforcedKeywords(string(typesystem.PostgreSql), []fansiconfig.EnforcedKeyword{
		{Key: "sslmode", Value: "disable", Priority: 1},
	})

	var gotDSN string
	server.Opener = func(driverName, dataSourceName string) (*sql.DB, error) {
		gotDSN = dataSourceName
		db, _, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		return db, err
	}

	pool := NewPool()
	conn, err := pool.Acquire(context.Background(), NewAffinity(), server, nil, "app")
	require.NoError(t, err)
	require.NoError(t, conn.Dispose())
	assert.Contains(t, gotDSN, "sslmode=disable")
}

func TestConnectionStringWithDatabaseRoundTrip(t *testing.T) {
	cs := NewConnectionString("database").With("server", "db1").WithDatabase("app")
	assert.Equal(t, "app", cs.Database())
	assert.Equal(t, "server=db1;database=app", cs.String())

	without := cs.WithoutDatabase()
	assert.Empty(t, without.Database())
	assert.Equal(t, "server=db1", without.String())
}

func TestConnectionStringWithEnforcedKeywordsOverridesByPriority(t *testing.T) {
	cs := NewConnectionString("database").With("timeout", "5")
	cs = cs.WithEnforcedKeywords([]EnforcedKeyword{
		{Key: "timeout", Value: "30", Priority: 2},
		{Key: "timeout", Value: "10", Priority: 1},
	})
	assert.Equal(t, "timeout=30", cs.String())
}
