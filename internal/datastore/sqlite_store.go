package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aleister1102/releasewatch/internal/common"
	"github.com/aleister1102/releasewatch/internal/models"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps snapshots in a local SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewSQLiteStore opens (creating if needed) the database at path and ensures
// the schema exists.
func NewSQLiteStore(path string, logger zerolog.Logger) (*SQLiteStore, error) {
	logger = logger.With().Str("module", "SQLiteStore").Logger()
	logger.Info().Str("db_path", path).Msg("Initializing snapshot database")

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sql.Open failed for %s: %w", path, err)
	}
	// A single connection serializes writers on the same file.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db, logger: logger}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS scan_results (
		record_type TEXT NOT NULL,
		scan_date TEXT NOT NULL,
		files TEXT NOT NULL,
		PRIMARY KEY (record_type, scan_date)
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		s.logger.Error().Err(err).Msg("Failed to initialize schema")
		return err
	}
	s.logger.Debug().Msg("Schema initialized (scan_results table ensured)")
	return nil
}

// Append implements SnapshotStore.
func (s *SQLiteStore) Append(ctx context.Context, snapshot models.Snapshot) error {
	files, err := encodeFiles(snapshot.Files)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO scan_results (record_type, scan_date, files) VALUES (?, ?, ?) ON CONFLICT(record_type, scan_date) DO NOTHING`,
		RecordTypeScanResult, snapshot.ScanDate, files)
	if err != nil {
		return common.WrapErrorf(err, "failed to insert snapshot %s", snapshot.ScanDate)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrDuplicateScan
	}

	s.logger.Info().Str("scan_date", snapshot.ScanDate).Int("files", len(snapshot.Files)).Msg("Snapshot saved")
	return nil
}

// Latest implements SnapshotStore.
func (s *SQLiteStore) Latest(ctx context.Context) (models.Snapshot, error) {
	snapshots, err := s.List(ctx, 1)
	if err != nil {
		return models.Snapshot{}, err
	}
	if len(snapshots) == 0 {
		s.logger.Info().Msg("No previous snapshot found")
		return models.Snapshot{}, nil
	}
	return snapshots[0], nil
}

// List implements SnapshotStore.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]models.Snapshot, error) {
	query := `SELECT scan_date, files FROM scan_results WHERE record_type = ? ORDER BY scan_date DESC`
	args := []interface{}{RecordTypeScanResult}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, common.WrapError(err, "failed to query snapshots")
	}
	defer rows.Close()

	var snapshots []models.Snapshot
	for rows.Next() {
		var scanDate, filesJSON string
		if err := rows.Scan(&scanDate, &filesJSON); err != nil {
			return nil, common.WrapError(err, "failed to scan snapshot row")
		}
		files, err := decodeFiles(filesJSON)
		if err != nil {
			return nil, common.WrapErrorf(err, "snapshot %s", scanDate)
		}
		snapshots = append(snapshots, models.Snapshot{ScanDate: scanDate, Files: files})
	}
	return snapshots, rows.Err()
}

// PruneBefore implements SnapshotStore.
func (s *SQLiteStore) PruneBefore(ctx context.Context, cutoff time.Time) (int, error) {
	scanDates, err := s.scanDatesBefore(ctx, models.FormatScanDate(cutoff))
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, batch := range chunk(scanDates, PruneBatchSize) {
		n, err := s.deleteBatch(ctx, batch)
		deleted += n
		if err != nil {
			return deleted, err
		}
	}

	s.logger.Info().Int("deleted", deleted).Str("cutoff", models.FormatScanDate(cutoff)).Msg("Pruned old snapshots")
	return deleted, nil
}

func (s *SQLiteStore) scanDatesBefore(ctx context.Context, cutoffKey string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT scan_date FROM scan_results WHERE record_type = ? AND scan_date < ? ORDER BY scan_date`,
		RecordTypeScanResult, cutoffKey)
	if err != nil {
		return nil, common.WrapError(err, "failed to query old snapshots")
	}
	defer rows.Close()

	var scanDates []string
	for rows.Next() {
		var scanDate string
		if err := rows.Scan(&scanDate); err != nil {
			return nil, err
		}
		scanDates = append(scanDates, scanDate)
	}
	return scanDates, rows.Err()
}

func (s *SQLiteStore) deleteBatch(ctx context.Context, scanDates []string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, common.WrapError(err, "failed to begin prune transaction")
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(scanDates)), ",")
	args := make([]interface{}, 0, len(scanDates)+1)
	args = append(args, RecordTypeScanResult)
	for _, d := range scanDates {
		args = append(args, d)
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM scan_results WHERE record_type = ? AND scan_date IN (`+placeholders+`)`, args...)
	if err != nil {
		_ = tx.Rollback()
		return 0, common.WrapError(err, "failed to delete snapshot batch")
	}
	if err := tx.Commit(); err != nil {
		return 0, common.WrapError(err, "failed to commit prune transaction")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return len(scanDates), nil
	}
	return int(affected), nil
}

// Close implements SnapshotStore.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	if errors.Is(err, sql.ErrConnDone) {
		return nil
	}
	return err
}
