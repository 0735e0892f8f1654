package database

import (
	"os"
	"regexp"
	"strings"
	"sync"
)

var (
	driverMu     sync.RWMutex
	activeDriver string
)

// SetDriver records the driver name Open connected with so placeholder
// conversion and adapter selection follow the live connection instead of
// the environment. Open calls this; tests may too.
func SetDriver(name string) {
	driverMu.Lock()
	activeDriver = strings.ToLower(name)
	driverMu.Unlock()
}

// GetDBDriver returns the active database driver name.
func GetDBDriver() string {
	driverMu.RLock()
	driver := activeDriver
	driverMu.RUnlock()
	if driver != "" {
		return driver
	}

	// In test mode, prefer TEST_ prefixed environment variables
	driver = os.Getenv("TEST_DB_DRIVER")
	if driver == "" {
		driver = os.Getenv("DB_DRIVER")
	}
	if driver == "" {
		driver = "postgres"
	}
	return strings.ToLower(driver)
}

// IsMySQL returns true if using MySQL/MariaDB
func IsMySQL() bool {
	driver := GetDBDriver()
	return driver == "mysql" || driver == "mariadb"
}

// IsPostgreSQL returns true if using PostgreSQL
func IsPostgreSQL() bool {
	return GetDBDriver() == "postgres"
}

// IsSQLite returns true if using SQLite
func IsSQLite() bool {
	driver := GetDBDriver()
	return driver == "sqlite" || driver == "sqlite3"
}

var placeholderPattern = regexp.MustCompile(`\$\d+`)

// ConvertPlaceholders converts PostgreSQL placeholders ($1, $2) to ? markers
// for drivers that need them. Queries are written in PostgreSQL form
// throughout the repositories and converted here.
func ConvertPlaceholders(query string) string {
	if IsPostgreSQL() {
		return query
	}

	placeholders := placeholderPattern.FindAllString(query, -1)
	result := query
	for _, placeholder := range placeholders {
		result = strings.Replace(result, placeholder, "?", 1)
	}

	// ILIKE is PostgreSQL-only. MySQL LIKE is case-insensitive under the
	// default collations; SQLite LIKE is case-insensitive for ASCII.
	result = strings.ReplaceAll(result, " ILIKE ", " LIKE ")
	result = strings.ReplaceAll(result, " ilike ", " LIKE ")

	return result
}
