package storage

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"song-scraper/models"
)

// SQLStore keeps published batches and the label watchlist in PostgreSQL or
// SQLite, picked by driver name.
type SQLStore struct {
	db     *sql.DB
	driver string
}

// NewSQLStore opens the database, waits for it to answer and runs the schema
// migration. driver is "postgres" or "sqlite3".
func NewSQLStore(driver, dsn string) (*SQLStore, error) {
	switch driver {
	case "postgres", "sqlite3":
	default:
		return nil, fmt.Errorf("store: unsupported driver %q", driver)
	}

	if driver == "sqlite3" && !strings.HasPrefix(dsn, ":memory:") && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("store: create database dir: %w", err)
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", driver, err)
	}
	if driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	}

	attempts := 1
	if driver == "postgres" {
		attempts = 10
	}
	for i := 0; i < attempts; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping failed after retries: %w", err)
	}

	s := &SQLStore{db: db, driver: driver}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return s, nil
}

func (s *SQLStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS published_songs (
			batch_label   TEXT      NOT NULL,
			batch_date    TIMESTAMP NOT NULL,
			song_uuid     TEXT      NOT NULL,
			song_name     TEXT      NOT NULL DEFAULT '',
			url           TEXT      NOT NULL DEFAULT '',
			main_artist   TEXT      NOT NULL DEFAULT '',
			root_genres   TEXT      NOT NULL DEFAULT '',
			today_streams DOUBLE PRECISION,
			total_streams DOUBLE PRECISION,
			week_to_week  DOUBLE PRECISION,
			PRIMARY KEY (batch_label, song_uuid)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_published_songs_uuid ON published_songs(song_uuid)`,
		`CREATE TABLE IF NOT EXISTS label_watchlist (
			song_uuid        TEXT      PRIMARY KEY,
			date_added       TIMESTAMP NOT NULL,
			song_name        TEXT      NOT NULL DEFAULT '',
			url              TEXT      NOT NULL DEFAULT '',
			labels           TEXT      NOT NULL DEFAULT '',
			main_artist      TEXT      NOT NULL DEFAULT '',
			today_streams    DOUBLE PRECISION,
			total_streams    DOUBLE PRECISION,
			tiktok_followers DOUBLE PRECISION
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// rebind rewrites ? placeholders as $n for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SaveBatch records every row of batch under its label. Re-saving the same
// batch is a no-op.
func (s *SQLStore) SaveBatch(ctx context.Context, batch models.QualifiedBatch) error {
	if len(batch.Rows) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.rebind(`
		INSERT INTO published_songs
			(batch_label, batch_date, song_uuid, song_name, url, main_artist, root_genres,
			 today_streams, total_streams, week_to_week)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (batch_label, song_uuid) DO NOTHING`))
	if err != nil {
		return fmt.Errorf("store: prepare batch insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range batch.Rows {
		if _, err := stmt.ExecContext(ctx,
			batch.Label, batch.Date.UTC(), r.SongUUID, r.SongName, r.URL, r.MainArtist,
			strings.Join(r.RootGenres, ", "),
			nullable(r.TodayStreams), nullable(r.TotalStreams), nullable(r.WeekToWeekPercentIncrease),
		); err != nil {
			return fmt.Errorf("store: insert %s: %w", r.SongUUID, err)
		}
	}
	return tx.Commit()
}

// SeenUUIDs returns every song uuid that has ever been published.
func (s *SQLStore) SeenUUIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT song_uuid FROM published_songs`)
	if err != nil {
		return nil, fmt.Errorf("store: seen uuids: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: scan uuid: %w", err)
		}
		seen[id] = struct{}{}
	}
	return seen, rows.Err()
}

// FetchBatch loads the rows published under label, ordered as stored.
func (s *SQLStore) FetchBatch(ctx context.Context, label string) ([]models.FeatureRow, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT song_uuid, song_name, url, main_artist, root_genres,
			today_streams, total_streams, week_to_week
		FROM published_songs
		WHERE batch_label = ?
		ORDER BY today_streams DESC`), label)
	if err != nil {
		return nil, fmt.Errorf("store: fetch batch %s: %w", label, err)
	}
	defer rows.Close()

	var out []models.FeatureRow
	for rows.Next() {
		var r models.FeatureRow
		var genres string
		var today, total, wow sql.NullFloat64
		if err := rows.Scan(&r.SongUUID, &r.SongName, &r.URL, &r.MainArtist, &genres, &today, &total, &wow); err != nil {
			return nil, fmt.Errorf("store: scan published row: %w", err)
		}
		r.Metrics = models.UndefinedMetrics()
		r.TodayStreams = fromNullable(today)
		r.TotalStreams = fromNullable(total)
		r.WeekToWeekPercentIncrease = fromNullable(wow)
		if genres != "" {
			r.RootGenres = strings.Split(genres, ", ")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AppendWatchlist inserts rows whose uuid is not yet on the watchlist and
// returns those rows.
func (s *SQLStore) AppendWatchlist(ctx context.Context, rows []models.FeatureRow) ([]models.FeatureRow, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.rebind(`
		INSERT INTO label_watchlist
			(song_uuid, date_added, song_name, url, labels, main_artist,
			 today_streams, total_streams, tiktok_followers)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (song_uuid) DO NOTHING`))
	if err != nil {
		return nil, fmt.Errorf("store: prepare watchlist insert: %w", err)
	}
	defer stmt.Close()

	var added []models.FeatureRow
	for _, r := range rows {
		date := r.DateAddedToWatchlist.Time
		if !r.DateAddedToWatchlist.Valid {
			date = time.Now()
		}
		var tiktok any
		if r.TikTokFollowers.Valid {
			tiktok = nullable(r.TikTokFollowers.Float64)
		}
		res, err := stmt.ExecContext(ctx,
			r.SongUUID, date.UTC(), r.SongName, r.URL, strings.Join(r.Labels, ", "), r.MainArtist,
			nullable(r.TodayStreams), nullable(r.TotalStreams), tiktok,
		)
		if err != nil {
			return nil, fmt.Errorf("store: insert watchlist %s: %w", r.SongUUID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			added = append(added, r)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: commit watchlist: %w", err)
	}
	return added, nil
}

// WatchlistUUIDs returns the uuids currently on the watchlist.
func (s *SQLStore) WatchlistUUIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT song_uuid FROM label_watchlist`)
	if err != nil {
		return nil, fmt.Errorf("store: watchlist uuids: %w", err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: scan watchlist uuid: %w", err)
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// nullable maps NaN to SQL NULL.
func nullable(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

func fromNullable(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
