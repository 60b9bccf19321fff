package dialect

import (
	_ "github.com/go-sql-driver/mysql" // registers the "mysql" database/sql driver

	"github.com/jas88/fansigo/aggregate"
	"github.com/jas88/fansigo/discovery"
	"github.com/jas88/fansigo/syntax"
	"github.com/jas88/fansigo/typesystem"
)

func init() {
	if err := Default.Register(Bundle{
		Engine:     typesystem.MySql,
		DriverName: "mysql",
		Translator: typesystem.NewMySqlTranslator(),
		Syntax:     syntax.NewMySqlHelper(),
		Aggregate:  aggregate.NewMySqlSynthesizer(),
		Metadata:   discovery.MetadataFor(typesystem.MySql),
	}); err != nil {
		panic(err)
	}
}
