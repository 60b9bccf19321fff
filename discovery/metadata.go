package discovery

import "github.com/jas88/fansigo/typesystem"

// Metadata bundles the engine-specific catalog queries discovery needs:
// one struct per concern, with templates parameterized using the engine's
// own placeholder spelling.
type Metadata struct {
	Engine        typesystem.Engine
	ListDatabases string // empty for SQLite and Oracle, which have no query here
	Database      DatabaseMetadata
	Table         TableMetadata
}

type DatabaseMetadata struct {
	Version string
}

// TableMetadata holds the parameterized queries for table/column/key
// discovery. %s placeholders are filled with the engine's own bind-marker
// spelling by the caller before execution, except where noted: SQLite's
// PRAGMA templates take the table name itself.
type TableMetadata struct {
	ListTables     string
	SchemaFilter   string
	NameFilter     string
	OrderBy        string
	TableExists    string
	GetColumns     string
	GetPrimaryKey  string
	GetForeignKeys string
	RowCount       string // %s is the qualified table name
	Truncate       string // %s is the qualified table name
}

var registry = map[typesystem.Engine]Metadata{
	typesystem.MsSql: {
		Engine: typesystem.MsSql,
		ListDatabases: `SELECT name FROM sys.databases WHERE database_id > 4 ORDER BY name`,
		Database: DatabaseMetadata{Version: `SELECT @@VERSION`},
		Table: TableMetadata{
			ListTables: `SELECT TABLE_SCHEMA, TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_TYPE = 'BASE TABLE'`,
			SchemaFilter: ` AND TABLE_SCHEMA = %s`,
			NameFilter:   ` AND TABLE_NAME LIKE %s`,
			OrderBy:      ` ORDER BY TABLE_SCHEMA, TABLE_NAME`,
			TableExists:  `SELECT COUNT(*) FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = %s AND TABLE_NAME = %s`,
			GetColumns: `SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE, COLUMN_DEFAULT,
				CHARACTER_MAXIMUM_LENGTH, NUMERIC_PRECISION, NUMERIC_SCALE, ORDINAL_POSITION
				FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_SCHEMA = %s AND TABLE_NAME = %s ORDER BY ORDINAL_POSITION`,
			GetPrimaryKey: `SELECT ku.COLUMN_NAME FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
				JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE ku ON tc.CONSTRAINT_NAME = ku.CONSTRAINT_NAME
				WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY' AND tc.TABLE_SCHEMA = %s AND tc.TABLE_NAME = %s
				ORDER BY ku.ORDINAL_POSITION`,
			GetForeignKeys: `SELECT fk.name, tp.name, cp.name, tr.name, cr.name
				FROM sys.foreign_keys fk
				JOIN sys.foreign_key_columns fkc ON fkc.constraint_object_id = fk.object_id
				JOIN sys.tables tp ON tp.object_id = fkc.parent_object_id
				JOIN sys.columns cp ON cp.object_id = fkc.parent_object_id AND cp.column_id = fkc.parent_column_id
				JOIN sys.tables tr ON tr.object_id = fkc.referenced_object_id
				JOIN sys.columns cr ON cr.object_id = fkc.referenced_object_id AND cr.column_id = fkc.referenced_column_id
				WHERE tp.name = %s`,
			RowCount: `SELECT COUNT(*) FROM %s`,
			Truncate: `TRUNCATE TABLE %s`,
		},
	},
	typesystem.MySql: {
		Engine: typesystem.MySql,
		ListDatabases: `SELECT SCHEMA_NAME FROM INFORMATION_SCHEMA.SCHEMATA
			WHERE SCHEMA_NAME NOT IN ('mysql','information_schema','performance_schema','sys') ORDER BY SCHEMA_NAME`,
		Database: DatabaseMetadata{Version: `SELECT VERSION()`},
		Table: TableMetadata{
			ListTables: `SELECT TABLE_SCHEMA, TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_TYPE = 'BASE TABLE'
				AND TABLE_SCHEMA NOT IN ('mysql','information_schema','performance_schema','sys')`,
			SchemaFilter: ` AND TABLE_SCHEMA = %s`,
			NameFilter:   ` AND TABLE_NAME LIKE %s`,
			OrderBy:      ` ORDER BY TABLE_SCHEMA, TABLE_NAME`,
			TableExists:  `SELECT COUNT(*) FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = %s AND TABLE_NAME = %s`,
			GetColumns: `SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE, COLUMN_DEFAULT,
				CHARACTER_MAXIMUM_LENGTH, NUMERIC_PRECISION, NUMERIC_SCALE, ORDINAL_POSITION
				FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_SCHEMA = %s AND TABLE_NAME = %s ORDER BY ORDINAL_POSITION`,
			GetPrimaryKey: `SELECT ku.COLUMN_NAME FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
				JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE ku ON tc.CONSTRAINT_NAME = ku.CONSTRAINT_NAME
					AND tc.TABLE_SCHEMA = ku.TABLE_SCHEMA AND tc.TABLE_NAME = ku.TABLE_NAME
				WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY' AND tc.TABLE_SCHEMA = %s AND tc.TABLE_NAME = %s
				ORDER BY ku.ORDINAL_POSITION`,
			GetForeignKeys: `SELECT rc.CONSTRAINT_NAME, ku.TABLE_NAME, ku.COLUMN_NAME, ku.REFERENCED_TABLE_NAME, ku.REFERENCED_COLUMN_NAME
				FROM INFORMATION_SCHEMA.KEY_COLUMN_USAGE ku
				JOIN INFORMATION_SCHEMA.REFERENTIAL_CONSTRAINTS rc ON rc.CONSTRAINT_NAME = ku.CONSTRAINT_NAME
				WHERE ku.TABLE_SCHEMA = %s AND ku.TABLE_NAME = %s AND ku.REFERENCED_TABLE_NAME IS NOT NULL`,
			RowCount: `SELECT COUNT(*) FROM %s`,
			Truncate: `TRUNCATE TABLE %s`,
		},
	},
	typesystem.PostgreSql: {
		Engine: typesystem.PostgreSql,
		ListDatabases: `SELECT datname FROM pg_database WHERE datistemplate = false ORDER BY datname`,
		Database: DatabaseMetadata{Version: `SELECT version()`},
		Table: TableMetadata{
			ListTables: `SELECT table_schema, table_name FROM information_schema.tables WHERE table_type = 'BASE TABLE'
				AND table_schema NOT IN ('pg_catalog','information_schema')`,
			SchemaFilter: ` AND table_schema = %s`,
			NameFilter:   ` AND table_name ILIKE %s`,
			OrderBy:      ` ORDER BY table_schema, table_name`,
			TableExists:  `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = %s AND table_name = %s`,
			GetColumns: `SELECT column_name, data_type, is_nullable, column_default,
				character_maximum_length, numeric_precision, numeric_scale, ordinal_position
				FROM information_schema.columns WHERE table_schema = %s AND table_name = %s ORDER BY ordinal_position`,
			GetPrimaryKey: `SELECT ku.column_name FROM information_schema.table_constraints tc
				JOIN information_schema.key_column_usage ku ON tc.constraint_name = ku.constraint_name
				WHERE tc.constraint_type = 'PRIMARY KEY' AND tc.table_schema = %s AND tc.table_name = %s
				ORDER BY ku.ordinal_position`,
			GetForeignKeys: `SELECT tc.constraint_name, tc.table_name, kcu.column_name, ccu.table_name, ccu.column_name
				FROM information_schema.table_constraints tc
				JOIN information_schema.key_column_usage kcu ON tc.constraint_name = kcu.constraint_name
				JOIN information_schema.constraint_column_usage ccu ON ccu.constraint_name = tc.constraint_name
				WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_schema = %s AND tc.table_name = %s`,
			RowCount: `SELECT COUNT(*) FROM %s`,
			Truncate: `TRUNCATE TABLE %s`,
		},
	},
	typesystem.Oracle: {
		Engine: typesystem.Oracle,
		ListDatabases: ``, // Oracle's unit of catalog is the schema/owner; ListDatabases reports the synthetic "main" entry
		Database: DatabaseMetadata{Version: `SELECT banner FROM v$version WHERE ROWNUM = 1`},
		Table: TableMetadata{
			ListTables: `SELECT owner, table_name FROM all_tables WHERE 1 = 1`,
			SchemaFilter: ` AND owner = %s`,
			NameFilter:   ` AND table_name LIKE %s`,
			OrderBy:      ` ORDER BY owner, table_name`,
			TableExists:  `SELECT COUNT(*) FROM all_tables WHERE owner = %s AND table_name = %s`,
			GetColumns: `SELECT column_name, data_type, nullable, data_default,
				char_length, data_precision, data_scale, column_id
				FROM all_tab_columns WHERE owner = %s AND table_name = %s ORDER BY column_id`,
			GetPrimaryKey: `SELECT acc.column_name FROM all_constraints ac
				JOIN all_cons_columns acc ON ac.constraint_name = acc.constraint_name AND ac.owner = acc.owner
				WHERE ac.constraint_type = 'P' AND ac.owner = %s AND ac.table_name = %s ORDER BY acc.position`,
			GetForeignKeys: `SELECT ac.constraint_name, ac.table_name, acc.column_name, rac.table_name, racc.column_name
				FROM all_constraints ac
				JOIN all_cons_columns acc ON ac.constraint_name = acc.constraint_name AND ac.owner = acc.owner
				JOIN all_constraints rac ON ac.r_constraint_name = rac.constraint_name AND ac.r_owner = rac.owner
				JOIN all_cons_columns racc ON rac.constraint_name = racc.constraint_name AND rac.owner = racc.owner
				WHERE ac.constraint_type = 'R' AND ac.owner = %s AND ac.table_name = %s`,
			RowCount: `SELECT COUNT(*) FROM %s`,
			Truncate: `TRUNCATE TABLE %s`,
		},
	},
	typesystem.Sqlite: {
		Engine:        typesystem.Sqlite,
		ListDatabases: ``,
		Database:      DatabaseMetadata{Version: `SELECT sqlite_version()`},
		Table: TableMetadata{
			ListTables:   `SELECT '', name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`,
			SchemaFilter: ``,
			NameFilter:   ` AND name LIKE %s`,
			OrderBy:      ` ORDER BY name`,
			TableExists:  `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = %s`,
			GetColumns:   `PRAGMA table_info(%s)`,
			GetPrimaryKey: `PRAGMA table_info(%s)`,
			GetForeignKeys: `PRAGMA foreign_key_list(%s)`,
			RowCount:       `SELECT COUNT(*) FROM %s`,
			Truncate:       `DELETE FROM %s`,
		},
	},
}

// MetadataFor returns the catalog-query bundle for engine.
func MetadataFor(engine typesystem.Engine) Metadata {
	return registry[engine]
}
