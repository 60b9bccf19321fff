package dialect

import (
	_ "github.com/denisenkom/go-mssqldb" // registers the "sqlserver" database/sql driver

	"github.com/jas88/fansigo/aggregate"
	"github.com/jas88/fansigo/discovery"
	"github.com/jas88/fansigo/syntax"
	"github.com/jas88/fansigo/typesystem"
)

func init() {
	if err := Default.Register(Bundle{
		Engine:     typesystem.MsSql,
		DriverName: "sqlserver",
		Translator: typesystem.NewMsSqlTranslator(),
		Syntax:     syntax.NewMsSqlHelper(),
		Aggregate:  aggregate.NewMsSqlSynthesizer(),
		Metadata:   discovery.MetadataFor(typesystem.MsSql),
	}); err != nil {
		panic(err)
	}
}
