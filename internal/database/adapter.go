// Package database provides database connection and adapter management.
package database

import (
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// DBAdapter provides database-specific query adaptations. Repositories write
// queries in PostgreSQL form ($N placeholders, RETURNING); the adapter maps
// them onto the active driver.
type DBAdapter interface {
	// InsertWithReturning handles INSERT ... RETURNING id for the active
	// driver, falling back to LastInsertId where RETURNING is unsupported.
	InsertWithReturning(db *sql.DB, query string, args ...interface{}) (int64, error)

	// InsertWithReturningTx is InsertWithReturning within a transaction.
	InsertWithReturningTx(tx *sql.Tx, query string, args ...interface{}) (int64, error)

	// Exec executes a query with PostgreSQL-style $N placeholders.
	Exec(db *sql.DB, query string, args ...interface{}) (sql.Result, error)

	// ExecTx executes a query within a transaction.
	ExecTx(tx *sql.Tx, query string, args ...interface{}) (sql.Result, error)

	// Query executes a query and returns rows.
	Query(db *sql.DB, query string, args ...interface{}) (*sql.Rows, error)

	// QueryTx executes a query within a transaction and returns rows.
	QueryTx(tx *sql.Tx, query string, args ...interface{}) (*sql.Rows, error)

	// QueryRow executes a query expected to return at most one row.
	QueryRow(db *sql.DB, query string, args ...interface{}) *sql.Row

	// QueryRowTx is QueryRow within a transaction.
	QueryRowTx(tx *sql.Tx, query string, args ...interface{}) *sql.Row

	// CaseInsensitiveLike returns the case-insensitive LIKE expression.
	CaseInsensitiveLike(column, pattern string) string
}

// PostgreSQLAdapter implements DBAdapter for PostgreSQL.
type PostgreSQLAdapter struct{}

func (p *PostgreSQLAdapter) InsertWithReturning(db *sql.DB, query string, args ...interface{}) (int64, error) {
	var id int64
	err := db.QueryRow(query, args...).Scan(&id)
	return id, err
}

func (p *PostgreSQLAdapter) InsertWithReturningTx(tx *sql.Tx, query string, args ...interface{}) (int64, error) {
	var id int64
	err := tx.QueryRow(query, args...).Scan(&id)
	return id, err
}

func (p *PostgreSQLAdapter) Exec(db *sql.DB, query string, args ...interface{}) (sql.Result, error) {
	return db.Exec(query, args...)
}

func (p *PostgreSQLAdapter) ExecTx(tx *sql.Tx, query string, args ...interface{}) (sql.Result, error) {
	return tx.Exec(query, args...)
}

func (p *PostgreSQLAdapter) Query(db *sql.DB, query string, args ...interface{}) (*sql.Rows, error) {
	return db.Query(query, args...)
}

func (p *PostgreSQLAdapter) QueryTx(tx *sql.Tx, query string, args ...interface{}) (*sql.Rows, error) {
	return tx.Query(query, args...)
}

func (p *PostgreSQLAdapter) QueryRow(db *sql.DB, query string, args ...interface{}) *sql.Row {
	return db.QueryRow(query, args...)
}

func (p *PostgreSQLAdapter) QueryRowTx(tx *sql.Tx, query string, args ...interface{}) *sql.Row {
	return tx.QueryRow(query, args...)
}

func (p *PostgreSQLAdapter) CaseInsensitiveLike(column, pattern string) string {
	return fmt.Sprintf("%s ILIKE %s", column, pattern)
}

// MarkerAdapter implements DBAdapter for drivers that take ? markers and
// report inserted ids through LastInsertId (MySQL, SQLite).
type MarkerAdapter struct{}

func (m *MarkerAdapter) InsertWithReturning(db *sql.DB, query string, args ...interface{}) (int64, error) {
	query, expandedArgs := prepareMarkerQuery(query, args)
	result, err := db.Exec(query, expandedArgs...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (m *MarkerAdapter) InsertWithReturningTx(tx *sql.Tx, query string, args ...interface{}) (int64, error) {
	query, expandedArgs := prepareMarkerQuery(query, args)
	result, err := tx.Exec(query, expandedArgs...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (m *MarkerAdapter) Exec(db *sql.DB, query string, args ...interface{}) (sql.Result, error) {
	expandedArgs := remapArgsForRepeatedPlaceholders(query, args)
	return db.Exec(ConvertPlaceholders(query), expandedArgs...)
}

func (m *MarkerAdapter) ExecTx(tx *sql.Tx, query string, args ...interface{}) (sql.Result, error) {
	expandedArgs := remapArgsForRepeatedPlaceholders(query, args)
	return tx.Exec(ConvertPlaceholders(query), expandedArgs...)
}

func (m *MarkerAdapter) Query(db *sql.DB, query string, args ...interface{}) (*sql.Rows, error) {
	expandedArgs := remapArgsForRepeatedPlaceholders(query, args)
	return db.Query(ConvertPlaceholders(query), expandedArgs...)
}

func (m *MarkerAdapter) QueryTx(tx *sql.Tx, query string, args ...interface{}) (*sql.Rows, error) {
	expandedArgs := remapArgsForRepeatedPlaceholders(query, args)
	return tx.Query(ConvertPlaceholders(query), expandedArgs...)
}

func (m *MarkerAdapter) QueryRow(db *sql.DB, query string, args ...interface{}) *sql.Row {
	expandedArgs := remapArgsForRepeatedPlaceholders(query, args)
	return db.QueryRow(ConvertPlaceholders(query), expandedArgs...)
}

func (m *MarkerAdapter) QueryRowTx(tx *sql.Tx, query string, args ...interface{}) *sql.Row {
	expandedArgs := remapArgsForRepeatedPlaceholders(query, args)
	return tx.QueryRow(ConvertPlaceholders(query), expandedArgs...)
}

func (m *MarkerAdapter) CaseInsensitiveLike(column, pattern string) string {
	return fmt.Sprintf("LOWER(%s) LIKE LOWER(%s)", column, pattern)
}

var markerPlaceholderPattern = regexp.MustCompile(`\$(\d+)`)

// removeReturningClause strips a trailing RETURNING clause.
func removeReturningClause(query string) string {
	if idx := strings.Index(strings.ToUpper(query), "RETURNING"); idx != -1 {
		query = strings.TrimSpace(query[:idx])
	}
	return query
}

// prepareMarkerQuery expands args for repeated placeholders, converts $N to ?
// and strips RETURNING for LastInsertId drivers.
func prepareMarkerQuery(query string, args []interface{}) (string, []interface{}) {
	matches := markerPlaceholderPattern.FindAllStringSubmatch(query, -1)
	if len(matches) == 0 {
		return removeReturningClause(query), args
	}
	expandedArgs := remapArgsForRepeatedPlaceholders(query, args)
	converted := markerPlaceholderPattern.ReplaceAllString(query, "?")
	return removeReturningClause(converted), expandedArgs
}

// remapArgsForRepeatedPlaceholders expands args for queries with repeated or
// out-of-order $N placeholders. PostgreSQL shares one arg across repeats;
// ? markers need one arg per occurrence in textual order.
func remapArgsForRepeatedPlaceholders(query string, args []interface{}) []interface{} {
	matches := markerPlaceholderPattern.FindAllStringSubmatch(query, -1)
	if len(matches) == 0 {
		return args
	}

	expanded := make([]interface{}, 0, len(matches))
	for _, match := range matches {
		idx, err := strconv.Atoi(match[1])
		if err != nil || idx < 1 || idx > len(args) {
			return args
		}
		expanded = append(expanded, args[idx-1])
	}

	return expanded
}

// Global adapter instance protected for concurrent access.
var (
	adapterMu sync.RWMutex
	dbAdapter DBAdapter
)

// GetAdapter returns the adapter for the configured driver.
func GetAdapter() DBAdapter {
	adapterMu.RLock()
	if dbAdapter != nil {
		defer adapterMu.RUnlock()
		return dbAdapter
	}
	adapterMu.RUnlock()

	adapterMu.Lock()
	defer adapterMu.Unlock()
	if dbAdapter == nil {
		if IsPostgreSQL() {
			dbAdapter = &PostgreSQLAdapter{}
		} else {
			dbAdapter = &MarkerAdapter{}
		}
	}
	return dbAdapter
}

// SetAdapter overrides the global adapter, primarily for tests.
func SetAdapter(adapter DBAdapter) {
	adapterMu.Lock()
	dbAdapter = adapter
	adapterMu.Unlock()
}

// ResetAdapterForTest clears the cached adapter so tests can rebuild state.
func ResetAdapterForTest() {
	adapterMu.Lock()
	dbAdapter = nil
	adapterMu.Unlock()
}
