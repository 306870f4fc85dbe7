// Package mysql looks up descriptive tags for a stream_id from a
// relational store (SPEC_FULL §6.7): a thin database/sql wrapper over
// github.com/go-sql-driver/mysql executing one indexed lookup query. The
// app's dispatch step consults it once per finalized group and merges its
// tags into each event before the sinks render line-protocol output; it
// never participates in detection.
package mysql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

// Config configures the MySQL connection.
type Config struct {
	DSN string `mapstructure:"mysqlDSN"`
}

// Enricher looks up stream tags by stream_id.
type Enricher interface {
	Tags(ctx context.Context, streamID string) (map[string]string, error)
}

const lookupQuery = `SELECT tag_key, tag_value FROM stream_tags WHERE stream_id = ?`

// DB is the database/sql-backed Enricher.
type DB struct {
	conn *sql.DB
}

// Open connects to MySQL using cfg.DSN. An empty DSN disables enrichment
// (Tags returns an empty map) so the rest of the pipeline can run without a
// configured database.
func Open(cfg Config) (*DB, error) {
	if cfg.DSN == "" {
		return &DB{}, nil
	}
	conn, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("enrichment/mysql: open: %w", err)
	}
	return &DB{conn: conn}, nil
}

func (d *DB) Tags(ctx context.Context, streamID string) (map[string]string, error) {
	if d.conn == nil {
		return map[string]string{}, nil
	}
	rows, err := d.conn.QueryContext(ctx, lookupQuery, streamID)
	if err != nil {
		return nil, fmt.Errorf("enrichment/mysql: query %s: %w", streamID, err)
	}
	defer rows.Close()

	tags := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("enrichment/mysql: scan: %w", err)
		}
		tags[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("enrichment/mysql: rows: %w", err)
	}
	return tags, nil
}

func (d *DB) Close() error {
	if d.conn == nil {
		return nil
	}
	return d.conn.Close()
}
