package postgresql

import (
	"database/sql"
	"sync"
	"time"

	_ "github.com/lib/pq"

	"github.com/eventhive/eh-registration/config"
	"github.com/eventhive/eh-registration/pkg/applogger"
)

var (
	db   *sql.DB
	once sync.Once
)

// GetDatabase returns the shared connection pool.
func GetDatabase() *sql.DB {
	once.Do(func() {
		c := config.Get()
		logger := applogger.GetLogrus()

		conn, err := sql.Open("postgres", c.Postgres.DSN)
		if err != nil {
			logger.WithError(err).Fatal("unable to open postgresql connection")
		}

		conn.SetMaxOpenConns(c.Postgres.MaxOpenConns)
		conn.SetMaxIdleConns(c.Postgres.MaxIdleConns)
		conn.SetConnMaxLifetime(30 * time.Minute)

		db = conn
	})

	return db
}
