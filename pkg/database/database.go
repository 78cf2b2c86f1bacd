package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know by name.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

type Config struct {
	Driver string
	// DSN is used as-is for sqlite (file path or URI). For postgres it overrides the
	// discrete connection fields when set.
	DSN      string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	// SnapshotConns sizes the read-only SQLite pool opened by NewSnapshotDB.
	SnapshotConns   int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

func (c *Config) dataSourceName() string {
	if c.Driver == DriverPostgres {
		if c.DSN != "" {
			return c.DSN
		}
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
	}
	return c.DSN
}

// NewDB opens and pings the configured datastore. SQLite is pinned to a single
// connection so writers serialise instead of failing with SQLITE_BUSY.
func NewDB(cfg *Config) (*sqlx.DB, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverSQLite
	}
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Connect(driver, cfg.dataSourceName())
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
		if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
			db.Close()
			return nil, fmt.Errorf("set busy timeout: %w", err)
		}
		if !isMemoryDSN(cfg.DSN) {
			// WAL lets snapshot readers run alongside the writer.
			if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
				db.Close()
				return nil, fmt.Errorf("enable wal: %w", err)
			}
		}
		return db, nil
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	return db, nil
}

// NewSnapshotDB opens a read-only pool over a file-backed SQLite database for
// WithSnapshot, so long analytics reads never hold the single writer connection.
// It returns nil when the datastore needs no separate pool: postgres already runs
// readers concurrently, and an in-memory database cannot be shared this way.
func NewSnapshotDB(cfg *Config) (*sqlx.DB, error) {
	if cfg.Driver == DriverPostgres || isMemoryDSN(cfg.DSN) {
		return nil, nil
	}

	db, err := sqlx.Connect(DriverSQLite, snapshotDSN(cfg.DSN))
	if err != nil {
		return nil, fmt.Errorf("connect sqlite snapshot pool: %w", err)
	}
	conns := cfg.SnapshotConns
	if conns <= 0 {
		conns = 4
	}
	db.SetMaxOpenConns(conns)
	db.SetMaxIdleConns(conns)
	return db, nil
}

func isMemoryDSN(dsn string) bool {
	return dsn == "" || strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// snapshotDSN applies the reader pragmas on every pooled connection.
func snapshotDSN(dsn string) string {
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=busy_timeout(5000)&_pragma=query_only(1)"
}
