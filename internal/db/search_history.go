package db

import (
	"errors"
	"time"
)

// ErrNotInitialized is returned when the database has not been opened
var ErrNotInitialized = errors.New("database not initialized")

// SearchHistory represents a saved search query. Only the query and the
// shape of its outcome are kept, never the books themselves.
type SearchHistory struct {
	ID          int64
	Query       string
	ResultCount int
	StatusCode  int
	CreatedAt   time.Time
}

// AddSearchHistory adds a search to history
func AddSearchHistory(query string, resultCount, statusCode int) error {
	if database == nil {
		return ErrNotInitialized
	}

	_, err := database.Exec(`
		INSERT INTO search_history (query, result_count, status_code, created_at)
		VALUES (?, ?, ?, ?)`,
		query, resultCount, statusCode, time.Now().UTC(),
	)
	return err
}

// GetSearchHistory retrieves recent search history
func GetSearchHistory(limit int) ([]*SearchHistory, error) {
	if limit <= 0 {
		limit = 20
	}
	return querySearchHistory(`
		SELECT id, query, result_count, status_code, created_at
		FROM search_history
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
}

// GetUniqueSearchHistory retrieves unique recent searches (no duplicates)
func GetUniqueSearchHistory(limit int) ([]*SearchHistory, error) {
	if limit <= 0 {
		limit = 20
	}
	return querySearchHistory(`
		SELECT id, query, result_count, status_code, created_at
		FROM search_history
		WHERE id IN (
			SELECT MAX(id) FROM search_history GROUP BY query
		)
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
}

func querySearchHistory(query string, args ...interface{}) ([]*SearchHistory, error) {
	if database == nil {
		return nil, ErrNotInitialized
	}

	rows, err := database.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []*SearchHistory
	for rows.Next() {
		h := &SearchHistory{}
		if err := rows.Scan(&h.ID, &h.Query, &h.ResultCount, &h.StatusCode, &h.CreatedAt); err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

// ClearSearchHistory removes all search history
func ClearSearchHistory() error {
	if database == nil {
		return ErrNotInitialized
	}
	_, err := database.Exec(`DELETE FROM search_history`)
	return err
}

// DeleteSearchHistoryOlderThan removes history older than the given duration
func DeleteSearchHistoryOlderThan(d time.Duration) (int64, error) {
	if database == nil {
		return 0, ErrNotInitialized
	}
	cutoff := time.Now().UTC().Add(-d)
	res, err := database.Exec(`DELETE FROM search_history WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
