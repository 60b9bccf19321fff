package aggregate

import (
	"testing"
	"time"

	"github.com/jas88/fansigo/fansierr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestBucketCountDaily(t *testing.T) {
	axis := QueryAxis{StartDate: date("2001-01-01"), EndDate: date("2001-01-05"), Increment: Day}
	assert.Equal(t, 5, axis.BucketCount())
}

func TestBasicAggregateNoAxisNoPivot(t *testing.T) {
	c := NewLineCollection().
		Add(Select, "COUNT(*) AS total").
		Add(From, "orders").
		Add(GroupBy, "customer_id")

	s := NewMsSqlSynthesizer()
	sql, err := s.Synthesize(c)
	require.NoError(t, err)
	assert.Contains(t, sql, "SELECT COUNT(*) AS total")
	assert.Contains(t, sql, "FROM orders")
	assert.Contains(t, sql, "GROUP BY customer_id")
}

func TestAxisAggregateIncludesCalendarCTE(t *testing.T) {
	c := NewLineCollection().
		Add(Select, "COUNT(*) AS agg_count").
		Add(QueryTimeColumn, "order_date").
		Add(From, "orders").
		WithAxis(QueryAxis{StartDate: date("2001-01-01"), EndDate: date("2001-01-05"), Increment: Day})

	for _, s := range []Synthesizer{
		NewMsSqlSynthesizer(), NewMySqlSynthesizer(), NewPostgreSqlSynthesizer(),
		NewOracleSynthesizer(), NewSqliteSynthesizer(),
	} {
		sql, err := s.Synthesize(c)
		require.NoErrorf(t, err, "%s", s.Engine())
		assert.Containsf(t, sql, "calendar", "%s", s.Engine())
	}
}

func TestPostgresPivotNotSupported(t *testing.T) {
	c := NewLineCollection().
		Add(Select, "COUNT(*) AS agg_count").
		Add(From, "orders").
		AddRole(Select, Pivot, "region")

	s := NewPostgreSqlSynthesizer()
	_, err := s.Synthesize(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported")
}

func TestOracleWrapsAvgInRound(t *testing.T) {
	s := NewOracleSynthesizer()
	assert.Equal(t, "ROUND(AVG(price), 10)", s.WrapAggregateFunction("AVG(price)"))
	assert.Equal(t, "COUNT(*)", s.WrapAggregateFunction("COUNT(*)"))
}

func TestMsSqlPivotWithoutDiscoveredValuesFails(t *testing.T) {
	c := NewLineCollection().
		Add(Select, "COUNT(*) AS agg_count").
		Add(From, "orders").
		AddRole(Select, Pivot, "region")

	s := NewMsSqlSynthesizer()
	_, err := s.Synthesize(c)
	require.Error(t, err)
	assert.ErrorIs(t, err, fansierr.ErrPivotValuesRequired)
}

func TestMsSqlNativePivotEnumeratesDiscoveredValues(t *testing.T) {
	c := NewLineCollection().
		Add(Select, "COUNT(*) AS agg_count").
		Add(From, "orders").
		AddRole(Select, Pivot, "region").
		WithPivotValues([]string{"RegionA", "RegionB"})

	s := NewMsSqlSynthesizer()
	sql, err := s.Synthesize(c)
	require.NoError(t, err)
	assert.Contains(t, sql, "PIVOT")
	assert.Contains(t, sql, "IN ([RegionA],[RegionB])")
}

func TestMySqlCasePivotEmitsOneColumnPerDiscoveredValue(t *testing.T) {
	c := NewLineCollection().
		Add(Select, "COUNT(*) AS agg_count").
		Add(From, "orders").
		AddRole(Select, Pivot, "region").
		WithPivotValues([]string{"RegionA", "RegionB", "RegionC"})

	s := NewMySqlSynthesizer()
	sql, err := s.Synthesize(c)
	require.NoError(t, err)
	assert.Contains(t, sql, "CASE WHEN region = 'RegionA' THEN COUNT(*) ELSE NULL END AS RegionA")
	assert.Contains(t, sql, "CASE WHEN region = 'RegionB' THEN COUNT(*) ELSE NULL END AS RegionB")
	assert.Contains(t, sql, "CASE WHEN region = 'RegionC' THEN COUNT(*) ELSE NULL END AS RegionC")
}

func TestPivotDiscoveryQueryRequiresPivotColumn(t *testing.T) {
	c := NewLineCollection().Add(Select, "COUNT(*) AS agg_count").Add(From, "orders")
	_, err := PivotDiscoveryQuery(c)
	require.Error(t, err)
}

func TestPivotDiscoveryQuerySelectsDistinctPivotColumn(t *testing.T) {
	c := NewLineCollection().
		Add(Select, "COUNT(*) AS agg_count").
		Add(From, "orders").
		AddRole(Select, Pivot, "region")

	sql, err := PivotDiscoveryQuery(c)
	require.NoError(t, err)
	assert.Contains(t, sql, "SELECT DISTINCT region")
	assert.Contains(t, sql, "FROM orders")
}
