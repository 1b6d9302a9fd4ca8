package db

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/billmal071/booksearch/internal/config"
	_ "modernc.org/sqlite"
)

var database *sql.DB

const schema = `
CREATE TABLE IF NOT EXISTS search_history (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    query        TEXT NOT NULL,
    result_count INTEGER NOT NULL DEFAULT 0,
    status_code  INTEGER NOT NULL DEFAULT 0,
    created_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_search_history_query ON search_history(query);
CREATE INDEX IF NOT EXISTS idx_search_history_created ON search_history(created_at);
`

// Init opens the database at the configured location
func Init() error {
	return InitAt(config.GetDBPath())
}

// InitAt opens the database at dbPath and creates the schema
func InitAt(dbPath string) error {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}

	// Create schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return err
	}

	database = db
	return nil
}

// DB returns the database connection
func DB() *sql.DB {
	return database
}

// Close closes the database connection
func Close() error {
	if database != nil {
		err := database.Close()
		database = nil
		return err
	}
	return nil
}
