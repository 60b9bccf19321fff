package dialect

import (
	_ "github.com/godror/godror" // registers the "godror" database/sql driver

	"github.com/jas88/fansigo/aggregate"
	"github.com/jas88/fansigo/discovery"
	"github.com/jas88/fansigo/syntax"
	"github.com/jas88/fansigo/typesystem"
)

func init() {
	if err := Default.Register(Bundle{
		Engine:     typesystem.Oracle,
		DriverName: "godror",
		Translator: typesystem.NewOracleTranslator(),
		Syntax:     syntax.NewOracleHelper(),
		Aggregate:  aggregate.NewOracleSynthesizer(),
		Metadata:   discovery.MetadataFor(typesystem.Oracle),
	}); err != nil {
		panic(err)
	}
}
