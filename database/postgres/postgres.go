package postgres

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"golang.org/x/net/context"
)

const schema = `
	CREATE TABLE IF NOT EXISTS emotion_samples (
		id             VARCHAR(26) PRIMARY KEY,
		session_id     VARCHAR(64) NOT NULL,
		user_id        VARCHAR(64) NOT NULL,
		round_number   INTEGER NOT NULL DEFAULT 0,
		emotion        VARCHAR(16) NOT NULL,
		confidence     DOUBLE PRECISION NOT NULL,
		difficulty     VARCHAR(8) NOT NULL DEFAULT 'easy',
		word           VARCHAR(64),
		time_taken_ms  BIGINT,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	ALTER TABLE emotion_samples
		ADD COLUMN IF NOT EXISTS difficulty VARCHAR(8) NOT NULL DEFAULT 'easy';
	CREATE INDEX IF NOT EXISTS idx_emotion_samples_session
		ON emotion_samples (session_id, created_at);
`

// Enabled reports whether a database is configured for this process.
func Enabled() bool {
	return os.Getenv("DB_HOST") != ""
}

// FormatDSN builds a lib/pq connection string from DB_HOST, DB_PORT,
// DB_USER, DB_PASSWORD, DB_NAME and DB_SSLMODE.
func FormatDSN() string {
	port := os.Getenv("DB_PORT")
	if port == "" {
		port = "5432"
	}
	sslMode := os.Getenv("DB_SSLMODE")
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		os.Getenv("DB_HOST"),
		port,
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		sslMode,
	)
}

func New() (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	maxOpen, _ := strconv.Atoi(os.Getenv("DB_MAX_OPEN_CONNS"))
	if maxOpen <= 0 {
		maxOpen = 25
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen / 2)
	db.SetConnMaxLifetime(30 * time.Minute)

	if os.Getenv("DB_AUTO_MIGRATE") == "true" {
		if err := Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}

	return db, nil
}

// Migrate creates the emotion_samples table when it does not exist.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate emotion_samples: %w", err)
	}
	return nil
}
