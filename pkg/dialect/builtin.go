package dialect

// SQLite is the default dialect.
var SQLite = NewDialect("sqlite").Build()

// DuckDB backs auto-increment keys with sequences and reads ids through RETURNING.
var DuckDB = NewDialect("duckdb").
	LimitStyle(LimitOffset).
	ColumnType(TypeNumeric, "BOOLEAN").
	Sequences().
	Returning().
	Build()

// Postgres uses $n placeholders and identity columns.
var Postgres = NewDialect("postgres").
	PlaceholderStyle(PlaceholderDollar).
	LimitStyle(LimitOffset).
	ColumnType(TypeNumeric, "BOOLEAN").
	AutoIncrement("%s INTEGER GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY").
	Returning().
	Build()

// MySQL needs bounded key types and has no DEFAULT VALUES form.
var MySQL = NewDialect("mysql").
	ColumnType(TypeNumeric, "BOOLEAN").
	KeyType(TypeText, "VARCHAR(255)").
	AutoIncrement("%s INTEGER PRIMARY KEY AUTO_INCREMENT").
	EmptyInsert("INSERT INTO %s () VALUES ()").
	Build()

func init() {
	for _, d := range []*Dialect{SQLite, DuckDB, Postgres, MySQL} {
		Register(d)
	}
}
