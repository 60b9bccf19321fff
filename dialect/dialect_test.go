package dialect

import (
	"testing"

	"github.com/jas88/fansigo/typesystem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllFiveEnginesSelfRegister(t *testing.T) {
	for _, engine := range []typesystem.Engine{
		typesystem.MsSql, typesystem.MySql, typesystem.PostgreSql, typesystem.Oracle, typesystem.Sqlite,
	} {
		b, err := Default.Get(engine)
		require.NoErrorf(t, err, "%s", engine)
		assert.Equal(t, engine, b.Engine)
		assert.NotNil(t, b.Translator)
		assert.NotNil(t, b.Syntax)
		assert.NotNil(t, b.Aggregate)
	}
}

func TestGetUnregisteredEngineFails(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get(typesystem.MsSql)
	assert.Error(t, err)
}

func TestRegisterSameBundleTwiceIsNoop(t *testing.T) {
	r := NewRegistry()
	b := Bundle{Engine: typesystem.MsSql, DriverName: "sqlserver"}
	require.NoError(t, r.Register(b))
	require.NoError(t, r.Register(b))
}

func TestRegisterConflictingDriverFails(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Bundle{Engine: typesystem.MsSql, DriverName: "sqlserver"}))
	err := r.Register(Bundle{Engine: typesystem.MsSql, DriverName: "other"})
	assert.Error(t, err)
}
