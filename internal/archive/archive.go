// Package archive persists delivered chat lines to SQLite or PostgreSQL.
//
// The archive stores each line exactly as it came off the wire, terminator
// stripped, alongside a best-effort channel hint and the receive time. It
// does no protocol parsing of its own.
package archive

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/lawnchairsociety/tmi/internal/logger"
)

// Entry is one archived chat line.
type Entry struct {
	ID         int64
	Channel    string
	Line       string
	ReceivedAt time.Time
}

// Archive wraps the database connection and insert/query operations.
type Archive struct {
	db      *sql.DB
	dialect Dialect
}

// Open opens (creating if needed) the archive database for the given
// dialect and DSN, and runs the schema migration.
func Open(dialectType DialectType, dsn string) (*Archive, error) {
	dialect := NewDialect(dialectType)

	if dialectType == DialectSQLite {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create archive directory: %w", err)
			}
		}
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive database: %w", err)
	}

	for _, stmt := range dialect.InitStatements() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize archive database: %w", err)
		}
	}

	a := &Archive{db: db, dialect: dialect}
	if err := a.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate archive schema: %w", err)
	}

	logger.Info("archive opened", "driver", dialect.DriverName())
	return a, nil
}

// Close closes the database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}

// migrate creates the messages table if it does not exist.
func (a *Archive) migrate() error {
	schema := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS messages (
		id %s,
		channel TEXT NOT NULL DEFAULT '',
		line TEXT NOT NULL,
		received_at TIMESTAMP NOT NULL
	)`, a.dialect.AutoIncrementPK())
	if _, err := a.db.Exec(schema); err != nil {
		return err
	}

	index := `CREATE INDEX IF NOT EXISTS idx_messages_channel ON messages(channel)`
	_, err := a.db.Exec(index)
	return err
}

// Record stores one delivered line. channel may be empty when the caller
// could not attribute the line to a channel.
func (a *Archive) Record(channel, line string, receivedAt time.Time) error {
	query := fmt.Sprintf(
		"INSERT INTO messages (channel, line, received_at) VALUES (%s, %s, %s)",
		a.dialect.Placeholder(1), a.dialect.Placeholder(2), a.dialect.Placeholder(3),
	)
	if _, err := a.db.Exec(query, channel, line, receivedAt.UTC()); err != nil {
		return fmt.Errorf("failed to record line: %w", err)
	}
	return nil
}

// Recent returns up to limit entries for the channel, newest first. An
// empty channel matches every entry.
func (a *Archive) Recent(channel string, limit int) ([]Entry, error) {
	var query string
	var args []any
	if channel == "" {
		query = fmt.Sprintf(
			"SELECT id, channel, line, received_at FROM messages ORDER BY id DESC LIMIT %s",
			a.dialect.Placeholder(1),
		)
		args = []any{limit}
	} else {
		query = fmt.Sprintf(
			"SELECT id, channel, line, received_at FROM messages WHERE channel = %s ORDER BY id DESC LIMIT %s",
			a.dialect.Placeholder(1), a.dialect.Placeholder(2),
		)
		args = []any{channel, limit}
	}

	rows, err := a.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query archive: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Channel, &e.Line, &e.ReceivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan archive row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the total number of archived lines.
func (a *Archive) Count() (int64, error) {
	var count int64
	err := a.db.QueryRow("SELECT COUNT(*) FROM messages").Scan(&count)
	return count, err
}
