package sqliteutil

import (
	"database/sql"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

func isRemote(path string) bool {
	return strings.HasPrefix(path, "libsql://") ||
		strings.HasPrefix(path, "wss://") ||
		strings.HasPrefix(path, "https://")
}

// OpenDB opens the database at `path` and applies `schema` to it.
// Remote libsql urls go through the libsql driver, everything else is
// treated as a local sqlite file. Re-applying a schema to an existing
// database is fine, "already exists" errors are ignored.
func OpenDB(schema, path string) (*sql.DB, error) {
	var db *sql.DB
	var err error

	if isRemote(path) {
		db, err = sql.Open("libsql", path)
		if err != nil {
			return nil, err
		}
	} else {
		db, err = sql.Open("sqlite", path)
		if err != nil {
			return nil, err
		}
		// see this stackoverflow post for information on why the following
		// lines exist: https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
		db.SetMaxOpenConns(1)
		_, err = db.Exec("PRAGMA journal_mode=WAL")
		if err != nil {
			db.Close()
			return nil, err
		}
	}

	_, err = db.Exec(schema)
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		db.Close()
		return nil, err
	}
	return db, nil
}
