package ingest

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jas88/fansigo/dbconn"
	"github.com/jas88/fansigo/discovery"
	"github.com/jas88/fansigo/syntax"
	"github.com/jas88/fansigo/typesystem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func destColumns() []DestinationColumn {
	return []DestinationColumn{
		{Name: "id", LogicalType: typesystem.TypeRequest{DataType: typesystem.Int32}},
		{Name: "name", LogicalType: typesystem.TypeRequest{DataType: typesystem.String}.WithWidth(10), Nullable: true},
		{Name: "amount", LogicalType: typesystem.TypeRequest{DataType: typesystem.Decimal}.WithDecimal(typesystem.DecimalSize{DigitsBeforePoint: 3, DigitsAfterPoint: 2})},
	}
}

func TestBuildRulesMatchesByNameCaseInsensitively(t *testing.T) {
	rules, err := BuildRules([]string{"ID", "Name", "Amount"}, destColumns(), false)
	require.NoError(t, err)
	require.Len(t, rules, 3)
	assert.Equal(t, 0, rules[0].SourceOrdinal)
	assert.True(t, rules[2].isDecimal)
}

func TestBuildRulesFailsOnUnmatchedColumn(t *testing.T) {
	_, err := BuildRules([]string{"id"}, destColumns(), false)
	assert.Error(t, err)
}

func TestBuildRulesTolerantSkipsMissing(t *testing.T) {
	rules, err := BuildRules([]string{"id"}, destColumns(), true)
	require.NoError(t, err)
	assert.Len(t, rules, 1)
}

func TestValidateBatchCoercesBlankStringToNull(t *testing.T) {
	rules := []ColumnRule{NewColumnRule("name", 0, 1, typesystem.TypeRequest{DataType: typesystem.String}.WithWidth(10), true)}
	rows := []Row{{""}}
	require.NoError(t, ValidateBatch(rows, rules))
	assert.Nil(t, rows[0][0])
}

func TestValidateBatchRejectsNullWhenNotNullable(t *testing.T) {
	rules := []ColumnRule{NewColumnRule("name", 0, 1, typesystem.TypeRequest{DataType: typesystem.String}.WithWidth(10), false)}
	rows := []Row{{""}}
	err := ValidateBatch(rows, rules)
	assert.Error(t, err)
}

func TestValidateBatchRejectsStringTooLong(t *testing.T) {
	rules := []ColumnRule{NewColumnRule("name", 0, 1, typesystem.TypeRequest{DataType: typesystem.String}.WithWidth(3), true)}
	rows := []Row{{"abcdef"}}
	err := ValidateBatch(rows, rules)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds max length")
}

func TestValidateBatchRejectsIntegerOutOfRange(t *testing.T) {
	rules := []ColumnRule{NewColumnRule("age", 0, 1, typesystem.TypeRequest{DataType: typesystem.Byte}, true)}
	rows := []Row{{300}}
	err := ValidateBatch(rows, rules)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside range")
}

func TestValidateBatchRejectsDecimalOverPrecision(t *testing.T) {
	rules := []ColumnRule{NewColumnRule("amount", 0, 1,
		typesystem.TypeRequest{DataType: typesystem.Decimal}.WithDecimal(typesystem.DecimalSize{DigitsBeforePoint: 3, DigitsAfterPoint: 2}), true)}
	rows := []Row{{"1234.50"}}
	err := ValidateBatch(rows, rules)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "precision bound")
}

func TestValidateBatchRejectsDecimalOverScale(t *testing.T) {
	rules := []ColumnRule{NewColumnRule("amount", 0, 1,
		typesystem.TypeRequest{DataType: typesystem.Decimal}.WithDecimal(typesystem.DecimalSize{DigitsBeforePoint: 3, DigitsAfterPoint: 2}), true)}
	rows := []Row{{"1.2345"}}
	err := ValidateBatch(rows, rules)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds scale")
}

func TestValidateBatchAcceptsWellFormedRow(t *testing.T) {
	rules, err := BuildRules([]string{"id", "name", "amount"}, destColumns(), false)
	require.NoError(t, err)
	rows := []Row{{1, "alice", "12.34"}}
	assert.NoError(t, ValidateBatch(rows, rules))
}

func TestSniffDayOrderDetectsDayFirstFromOutOfRangeMonth(t *testing.T) {
	order := SniffDayOrder([]string{"01/02/2024", "25/12/2024"})
	assert.Equal(t, DayFirst, order)
}

func TestSniffDayOrderDefaultsMonthFirst(t *testing.T) {
	order := SniffDayOrder([]string{"01/02/2024", "03/04/2024"})
	assert.Equal(t, MonthFirst, order)
}

func TestParseDateTimeHonorsDayOrder(t *testing.T) {
	parsed, err := ParseDateTime("25/12/2024", DayFirst)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.December, 25, 0, 0, 0, 0, time.UTC), parsed)
}

func TestConvertProblematicColumnsRewritesInPlace(t *testing.T) {
	rows := []Row{{"10.500"}, {"20.250"}}
	err := ConvertProblematicColumns(rows, []ConvertColumn{{SourceOrdinal: 0, LogicalType: typesystem.Decimal}})
	require.NoError(t, err)
	for _, row := range rows {
		_, ok := row[0].(interface{ String() string })
		assert.True(t, ok)
	}
}

func TestConvertProblematicColumnsFailsOnUnparseableValue(t *testing.T) {
	rows := []Row{{"not-a-date"}}
	err := ConvertProblematicColumns(rows, []ConvertColumn{{SourceOrdinal: 0, LogicalType: typesystem.DateTime}})
	assert.Error(t, err)
}

// mockBulkConn hands back a ManagedConnection over a sqlmock database.
// It always acquires through Oracle's unpooled path (a bare open, no USE
// switch, no ping) so the mock's expectation queue only ever needs to
// cover the bulk-load statements under test, regardless of which engine's
// BulkCopy strategy is being exercised.
func mockBulkConn(t *testing.T) (*dbconn.ManagedConnection, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	server := dbconn.NewServer(typesystem.Oracle, "mock", dbconn.NewConnectionString("database"))
	server.Opener = func(driverName, dataSourceName string) (*sql.DB, error) { return db, nil }

	pool := dbconn.NewPool()
	aff := dbconn.NewAffinity()
	conn, err := pool.Acquire(context.Background(), aff, server, nil, "app")
	require.NoError(t, err)
	return conn, mock
}

func TestUploadMySqlBatchesMultiRowInsert(t *testing.T) {
	conn, mock := mockBulkConn(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `orders` (`id`, `name`) VALUES (?, ?), (?, ?)")).
		WillReturnResult(sqlmock.NewResult(0, 2))

	bc := NewBulkCopy(conn, typesystem.MySql, "", "orders", []string{"id", "name"}, syntax.NewMySqlHelper())
	n, err := bc.Upload(context.Background(), []Row{{1, "a"}, {2, "b"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUploadSqliteRunsInsideSingleTransaction(t *testing.T) {
	conn, mock := mockBulkConn(t)
	mock.ExpectBegin()
	mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO "orders" ("id", "name") VALUES (?, ?)`))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "orders" ("id", "name") VALUES (?, ?)`)).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "orders" ("id", "name") VALUES (?, ?)`)).WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	bc := NewBulkCopy(conn, typesystem.Sqlite, "", "orders", []string{"id", "name"}, syntax.NewSqliteHelper())
	n, err := bc.Upload(context.Background(), []Row{{1, "a"}, {2, "b"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBeginBulkInsertDerivesSchemaAndTableFromDiscoveryTable(t *testing.T) {
	conn, mock := mockBulkConn(t)
	mock.ExpectBegin()
	mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO "app"."orders" ("id") VALUES (?)`))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "app"."orders" ("id") VALUES (?)`)).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	table := discovery.Table{Schema: "app", Name: "orders"}
	bc := BeginBulkInsert(conn, typesystem.Sqlite, table, []string{"id"}, syntax.NewSqliteHelper())
	n, err := bc.Upload(context.Background(), []Row{{1}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUploadEmptyBatchIsNoop(t *testing.T) {
	conn, mock := mockBulkConn(t)
	bc := NewBulkCopy(conn, typesystem.Sqlite, "", "orders", []string{"id"}, syntax.NewSqliteHelper())
	n, err := bc.Upload(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
