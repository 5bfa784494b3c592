package archive

import "fmt"

// Dialect abstracts the SQL syntax differences between the two supported
// archive databases.
type Dialect interface {
	// DriverName returns the driver name for sql.Open().
	DriverName() string

	// Placeholder returns the parameter placeholder for the given
	// 1-indexed position. SQLite ignores the position ("?"), PostgreSQL
	// numbers them ("$1", "$2", ...).
	Placeholder(position int) string

	// AutoIncrementPK returns the column definition for an
	// auto-incrementing integer primary key.
	AutoIncrementPK() string

	// InitStatements returns statements run once after opening the
	// connection, before migration.
	InitStatements() []string
}

// DialectType identifies the archive database dialect.
type DialectType string

const (
	DialectSQLite   DialectType = "sqlite"
	DialectPostgres DialectType = "postgres"
)

// NewDialect creates the Dialect for the given type. Unknown types fall
// back to SQLite, the default driver.
func NewDialect(dialectType DialectType) Dialect {
	switch dialectType {
	case DialectPostgres:
		return &postgresDialect{}
	default:
		return &sqliteDialect{}
	}
}

// sqliteDialect implements Dialect for modernc.org/sqlite.
type sqliteDialect struct{}

func (d *sqliteDialect) DriverName() string { return "sqlite" }

func (d *sqliteDialect) Placeholder(int) string { return "?" }

func (d *sqliteDialect) AutoIncrementPK() string {
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

func (d *sqliteDialect) InitStatements() []string {
	return []string{
		// WAL lets the archiver write while a reader tails the database.
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
}

// postgresDialect implements Dialect for lib/pq.
type postgresDialect struct{}

func (d *postgresDialect) DriverName() string { return "postgres" }

func (d *postgresDialect) Placeholder(position int) string {
	return fmt.Sprintf("$%d", position)
}

func (d *postgresDialect) AutoIncrementPK() string {
	return "BIGSERIAL PRIMARY KEY"
}

func (d *postgresDialect) InitStatements() []string { return nil }
