package dbconn

import (
	"sort"
	"strings"
	"sync/atomic"
)

var nextAffinity atomic.Uint64

// ConnectionString is an opaque key/value bag with dialect-specific key
// names for server, database, user, password, timeout. Callers never
// string-format connection strings directly; the dialect's builder is
// the canonical construction point.
type ConnectionString struct {
	values map[string]string
	dbKey  string
	order  []string
}

// NewConnectionString builds a connection string keyed by dbKey for the
// "database" field (dialects disagree on the literal key name: "database"
// for most, "initial catalog" would be an MsSql alias but go-mssqldb
// accepts "database" too).
func NewConnectionString(dbKey string) ConnectionString {
	return ConnectionString{values: make(map[string]string), dbKey: dbKey}
}

func (c ConnectionString) With(key, value string) ConnectionString {
	out := c.clone()
	if _, exists := out.values[key]; !exists {
		out.order = append(out.order, key)
	}
	out.values[key] = value
	return out
}

func (c ConnectionString) WithDatabase(database string) ConnectionString {
	if database == "" {
		return c
	}
	return c.With(c.dbKey, database)
}

func (c ConnectionString) WithoutDatabase() ConnectionString {
	out := c.clone()
	delete(out.values, c.dbKey)
	filtered := out.order[:0:0]
	for _, k := range out.order {
		if k != c.dbKey {
			filtered = append(filtered, k)
		}
	}
	out.order = filtered
	return out
}

func (c ConnectionString) Database() string { return c.values[c.dbKey] }

func (c ConnectionString) clone() ConnectionString {
	values := make(map[string]string, len(c.values))
	for k, v := range c.values {
		values[k] = v
	}
	order := make([]string, len(c.order))
	copy(order, c.order)
	return ConnectionString{values: values, dbKey: c.dbKey, order: order}
}

// WithEnforcedKeywords applies the dialect's priority-ordered "enforced
// keywords" list, later priorities overriding earlier ones for the same
// key.
func (c ConnectionString) WithEnforcedKeywords(keywords []EnforcedKeyword) ConnectionString {
	out := c
	sorted := make([]EnforcedKeyword, len(keywords))
	copy(sorted, keywords)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Priority < sorted[j].Priority })
	for _, kw := range sorted {
		out = out.With(kw.Key, kw.Value)
	}
	return out
}

// EnforcedKeyword mirrors fansiconfig.EnforcedKeyword to avoid an import
// cycle (fansiconfig is process-wide config; dbconn only needs the shape).
type EnforcedKeyword struct {
	Key      string
	Value    string
	Priority int
}

// String renders the connection string in "key=value;key=value" form, the
// format every supported driver accepts.
func (c ConnectionString) String() string {
	var sb strings.Builder
	for i, k := range c.order {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(c.values[k])
	}
	return sb.String()
}
