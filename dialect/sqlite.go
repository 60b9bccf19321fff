package dialect

import (
	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" database/sql driver

	"github.com/jas88/fansigo/aggregate"
	"github.com/jas88/fansigo/discovery"
	"github.com/jas88/fansigo/syntax"
	"github.com/jas88/fansigo/typesystem"
)

func init() {
	if err := Default.Register(Bundle{
		Engine:     typesystem.Sqlite,
		DriverName: "sqlite3",
		Translator: typesystem.NewSqliteTranslator(),
		Syntax:     syntax.NewSqliteHelper(),
		Aggregate:  aggregate.NewSqliteSynthesizer(),
		Metadata:   discovery.MetadataFor(typesystem.Sqlite),
	}); err != nil {
		panic(err)
	}
}
