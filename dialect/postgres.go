package dialect

import (
	_ "github.com/lib/pq" // registers the "postgres" database/sql driver

	"github.com/jas88/fansigo/aggregate"
	"github.com/jas88/fansigo/discovery"
	"github.com/jas88/fansigo/syntax"
	"github.com/jas88/fansigo/typesystem"
)

func init() {
	if err := Default.Register(Bundle{
		Engine:     typesystem.PostgreSql,
		DriverName: "postgres",
		Translator: typesystem.NewPostgreSqlTranslator(),
		Syntax:     syntax.NewPostgreSqlHelper(),
		Aggregate:  aggregate.NewPostgreSqlSynthesizer(),
		Metadata:   discovery.MetadataFor(typesystem.PostgreSql),
	}); err != nil {
		panic(err)
	}
}
