package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allHelpers() map[string]Helper {
	return map[string]Helper{
		"MsSql":      NewMsSqlHelper(),
		"MySql":      NewMySqlHelper(),
		"PostgreSql": NewPostgreSqlHelper(),
		"Oracle":     NewOracleHelper(),
		"Sqlite":     NewSqliteHelper(),
	}
}

func TestWrapIsIdempotent(t *testing.T) {
	for name, h := range allHelpers() {
		wrapped := h.EnsureWrapped("orders")
		assert.Equalf(t, wrapped, h.EnsureWrapped(wrapped), "%s: EnsureWrapped not idempotent", name)
	}
}

func TestRuntimeNameUnwrapsIdentifier(t *testing.T) {
	for name, h := range allHelpers() {
		wrapped := h.EnsureWrapped("orders")
		got := h.RuntimeName(wrapped)
		if name == "Oracle" {
			assert.Equal(t, "ORDERS", got, name)
			continue
		}
		assert.Equalf(t, "orders", got, "%s: runtime_name(wrap(x)) != x", name)
	}
}

func TestMySqlBacktickDoubling(t *testing.T) {
	h := NewMySqlHelper()
	wrapped := h.Wrap("a`b")
	assert.Equal(t, "`a``b`", wrapped)
	assert.Equal(t, "a`b", h.RuntimeName(wrapped))
}

func TestSqliteFullyQualifiedOmitsDatabase(t *testing.T) {
	h := NewSqliteHelper()
	got := h.EnsureFullyQualified("somedb", "", "orders", "id")
	assert.Equal(t, `"orders"."id"`, got)
}

func TestSplitLineFindsAlias(t *testing.T) {
	h := NewMsSqlHelper()
	sql, alias, ok := h.SplitLine("COUNT(*) AS total")
	require.True(t, ok)
	assert.Equal(t, "COUNT(*)", sql)
	assert.Equal(t, "total", alias)
}

func TestSplitLineIgnoresAliasInsideParens(t *testing.T) {
	h := NewMsSqlHelper()
	_, _, ok := h.SplitLine("func(x as y)")
	assert.False(t, ok)
}

func TestSqliteMD5NotSupported(t *testing.T) {
	h := NewSqliteHelper()
	_, err := h.ScalarFunctionName(MD5, "'fish'")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MD5")
}
