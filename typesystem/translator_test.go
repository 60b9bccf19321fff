package typesystem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allTranslators() map[Engine]Translator {
	return map[Engine]Translator{
		MsSql:      NewMsSqlTranslator(),
		MySql:      NewMySqlTranslator(),
		PostgreSql: NewPostgreSqlTranslator(),
		Oracle:     NewOracleTranslator(),
		Sqlite:     NewSqliteTranslator(),
	}
}

func width(n int) *int { return &n }

// sqliteCoercion names the DataType each requested DataType comes back as
// after a round trip through SQLite's storage affinity model.
var sqliteCoercion = map[DataType]DataType{
	Bool:      Bool,
	Byte:      Int64,
	Int16:     Int64,
	Int32:     Int64,
	Int64:     Int64,
	Float32:   Float64,
	Float64:   Float64,
	Guid:      String,
	DateTime:  String,
	ByteArray: ByteArray,
	String:    String,
}

func TestRoundTripBasicTypes(t *testing.T) {
	requests := []TypeRequest{
		{DataType: Bool},
		{DataType: Int32},
		{DataType: Int64},
		{DataType: Float64},
		{DataType: Guid},
		{DataType: DateTime},
		{DataType: ByteArray},
		{DataType: String, Width: width(50)},
	}

	for engine, tr := range allTranslators() {
		for _, req := range requests {
			sql, err := tr.SQLTypeFor(req)
			require.NoErrorf(t, err, "%s: SQLTypeFor(%v)", engine, req)
			got, ok := tr.TypeRequestFor(sql)
			require.Truef(t, ok, "%s: TypeRequestFor(%q) unmatched", engine, sql)

			want := req.DataType
			if engine == Sqlite {
				want = sqliteCoercion[req.DataType]
			}
			assert.Equalf(t, want, got.DataType, "%s: %s round-trip", engine, sql)
		}
	}
}

func TestOracleDecimalIntRoundTrip(t *testing.T) {
	tr := NewOracleTranslator()

	sql, err := tr.SQLTypeFor(TypeRequest{DataType: Int32})
	require.NoError(t, err)
	assert.Equal(t, "number(10)", sql)

	// Both the bare single-argument spelling this translator now emits
	// and the older ",0" spelling some catalogs report must round-trip.
	got, ok := tr.TypeRequestFor("number(10)")
	require.True(t, ok)
	assert.Equal(t, Int32, got.DataType)

	got, ok = tr.TypeRequestFor("number(10,0)")
	require.True(t, ok)
	assert.Equal(t, Int32, got.DataType)

	got, ok = tr.TypeRequestFor("number")
	require.True(t, ok)
	assert.Equal(t, Decimal, got.DataType)
	require.NotNil(t, got.Decimal)
	assert.Equal(t, 38, got.Decimal.Precision())
	assert.Equal(t, 0, got.Decimal.Scale())

	// ALL_TAB_COLUMNS reports an unconstrained NUMBER column as
	// NUMBER(38) with a null scale; this must back-translate to decimal,
	// not int, even though 38 has no comma.
	got, ok = tr.TypeRequestFor("number(38)")
	require.True(t, ok)
	assert.Equal(t, Decimal, got.DataType)
	require.NotNil(t, got.Decimal)
	assert.Equal(t, 38, got.Decimal.Precision())
	assert.Equal(t, 0, got.Decimal.Scale())
}

func TestMsSqlUnboundedThresholdBoundary(t *testing.T) {
	tr := NewMsSqlTranslator()

	atThreshold, err := tr.SQLTypeFor(TypeRequest{DataType: String, Width: width(mssqlMaxAsciiWidth)})
	require.NoError(t, err)
	assert.Equal(t, "varchar(8000)", atThreshold)

	overThreshold, err := tr.SQLTypeFor(TypeRequest{DataType: String, Width: width(mssqlMaxAsciiWidth + 1)})
	require.NoError(t, err)
	assert.Equal(t, "varchar(max)", overThreshold)
}

func TestSqliteAffinityCollapse(t *testing.T) {
	tr := NewSqliteTranslator()

	for _, dt := range []DataType{Byte, Int16, Int32, Int64} {
		sql, err := tr.SQLTypeFor(TypeRequest{DataType: dt})
		require.NoError(t, err)
		assert.Equal(t, "integer", sql)
	}

	boolSQL, err := tr.SQLTypeFor(TypeRequest{DataType: Bool})
	require.NoError(t, err)
	assert.Equal(t, "boolean", boolSQL)

	decSQL, err := tr.SQLTypeFor(TypeRequest{DataType: Decimal})
	require.NoError(t, err)
	assert.Equal(t, "text", decSQL)
}

func TestGuesserWidensFromBoolToString(t *testing.T) {
	tr := NewMsSqlTranslator()
	g := tr.GuesserFor(TypeRequest{DataType: Bool})

	g.Feed("true")
	assert.Equal(t, Bool, g.Current().DataType)

	g.Feed("hello")
	assert.Equal(t, String, g.Current().DataType)
}

func TestGuesserWidensIntegerRange(t *testing.T) {
	tr := NewMsSqlTranslator()
	g := tr.GuesserFor(TypeRequest{DataType: Byte})

	g.Feed("100")
	assert.Equal(t, Byte, g.Current().DataType)

	g.Feed("40000")
	assert.Equal(t, Int32, g.Current().DataType)
}

func TestGuesserDecimalWidensScale(t *testing.T) {
	tr := NewMsSqlTranslator()
	g := tr.GuesserFor(TypeRequest{DataType: Decimal, Decimal: &DecimalSize{DigitsBeforePoint: 1, DigitsAfterPoint: 1}})

	g.Feed("12.345")
	require.NotNil(t, g.Current().Decimal)
	assert.Equal(t, 2, g.Current().Decimal.DigitsBeforePoint)
	assert.Equal(t, 3, g.Current().Decimal.DigitsAfterPoint)
}

func TestTypeNotMappedUnknownSqlType(t *testing.T) {
	tr := NewMsSqlTranslator()
	_, ok := tr.TypeRequestFor("not_a_real_type")
	assert.False(t, ok)
}
