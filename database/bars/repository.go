// Package bars reads 1-minute price bars for the scanner. It deliberately
// keeps a raw database/sql path instead of GORM: bar reads are the hot
// loop of every scan and fetch hundreds of thousands of rows.
package bars

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"divergence-radar/detector"
)

// DB wraps the raw bar-store connection
type DB struct {
	conn *sql.DB
}

// Config holds database configuration
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// NewConnection creates a new database connection
func NewConnection(cfg Config) (*DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName,
	)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Bar reads are bursty: one connection per scan worker plus headroom.
	conn.SetMaxOpenConns(50)
	conn.SetMaxIdleConns(25)
	conn.SetConnMaxLifetime(5 * time.Minute)
	conn.SetConnMaxIdleTime(2 * time.Minute)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ Bar store connection established")

	return &DB{conn: conn}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.conn != nil {
		log.Println("📡 Closing bar store connection...")
		return db.conn.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (db *DB) Ping() error {
	return db.conn.Ping()
}

// FetchMinuteBars loads all 1-minute bars for a symbol since a cutoff,
// oldest first.
func (db *DB) FetchMinuteBars(ctx context.Context, symbol string, since time.Time) ([]detector.MinuteBar, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT EXTRACT(EPOCH FROM bar_time)::bigint, open, high, low, close, volume
		FROM minute_bars
		WHERE symbol = $1 AND bar_time >= $2
		ORDER BY bar_time ASC
	`, symbol, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query minute bars for %s: %w", symbol, err)
	}
	defer rows.Close()

	var bars []detector.MinuteBar
	for rows.Next() {
		var b detector.MinuteBar
		if err := rows.Scan(&b.Time, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan minute bar for %s: %w", symbol, err)
		}
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("minute bar iteration failed for %s: %w", symbol, err)
	}
	return bars, nil
}

// ActiveSymbols lists symbols with at least one bar since the cutoff.
func (db *DB) ActiveSymbols(ctx context.Context, since time.Time) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT DISTINCT symbol FROM minute_bars
		WHERE bar_time >= $1
		ORDER BY symbol ASC
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list active symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, s)
	}
	return symbols, rows.Err()
}
