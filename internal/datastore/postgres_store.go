package datastore

import (
	"context"
	"errors"
	"time"

	"github.com/aleister1102/releasewatch/internal/common"
	"github.com/aleister1102/releasewatch/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// PostgresStore keeps snapshots in a PostgreSQL table.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgresStore connects to dsn and ensures the schema exists.
func NewPostgresStore(ctx context.Context, dsn string, logger zerolog.Logger) (*PostgresStore, error) {
	logger = logger.With().Str("module", "PostgresStore").Logger()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, common.WrapError(err, "failed to create postgres pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, common.WrapError(err, "failed to connect to postgres")
	}

	store := &PostgresStore{pool: pool, logger: logger}
	if err := store.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Info().Msg("Postgres snapshot store ready")
	return store, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS scan_results (
			record_type TEXT NOT NULL,
			scan_date   TEXT NOT NULL,
			files       JSONB NOT NULL,
			PRIMARY KEY (record_type, scan_date)
		)`)
	if err != nil {
		return common.WrapError(err, "failed to initialize schema")
	}
	return nil
}

// Append implements SnapshotStore.
func (s *PostgresStore) Append(ctx context.Context, snapshot models.Snapshot) error {
	files, err := encodeFiles(snapshot.Files)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO scan_results (record_type, scan_date, files) VALUES ($1, $2, $3::jsonb) ON CONFLICT (record_type, scan_date) DO NOTHING`,
		RecordTypeScanResult, snapshot.ScanDate, files)
	if err != nil {
		return common.WrapErrorf(err, "failed to insert snapshot %s", snapshot.ScanDate)
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicateScan
	}

	s.logger.Info().Str("scan_date", snapshot.ScanDate).Int("files", len(snapshot.Files)).Msg("Snapshot saved")
	return nil
}

// Latest implements SnapshotStore.
func (s *PostgresStore) Latest(ctx context.Context) (models.Snapshot, error) {
	var scanDate, filesJSON string
	err := s.pool.QueryRow(ctx,
		`SELECT scan_date, files::text FROM scan_results WHERE record_type = $1 ORDER BY scan_date DESC LIMIT 1`,
		RecordTypeScanResult).Scan(&scanDate, &filesJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		s.logger.Info().Msg("No previous snapshot found")
		return models.Snapshot{}, nil
	}
	if err != nil {
		return models.Snapshot{}, common.WrapError(err, "failed to query latest snapshot")
	}

	files, err := decodeFiles(filesJSON)
	if err != nil {
		return models.Snapshot{}, err
	}
	return models.Snapshot{ScanDate: scanDate, Files: files}, nil
}

// List implements SnapshotStore.
func (s *PostgresStore) List(ctx context.Context, limit int) ([]models.Snapshot, error) {
	query := `SELECT scan_date, files::text FROM scan_results WHERE record_type = $1 ORDER BY scan_date DESC`
	args := []any{RecordTypeScanResult}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
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
func (s *PostgresStore) PruneBefore(ctx context.Context, cutoff time.Time) (int, error) {
	cutoffKey := models.FormatScanDate(cutoff)

	rows, err := s.pool.Query(ctx,
		`SELECT scan_date FROM scan_results WHERE record_type = $1 AND scan_date < $2 ORDER BY scan_date`,
		RecordTypeScanResult, cutoffKey)
	if err != nil {
		return 0, common.WrapError(err, "failed to query old snapshots")
	}
	scanDates, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return 0, common.WrapError(err, "failed to read old snapshots")
	}

	deleted := 0
	for _, batch := range chunk(scanDates, PruneBatchSize) {
		tag, err := s.pool.Exec(ctx,
			`DELETE FROM scan_results WHERE record_type = $1 AND scan_date = ANY($2)`,
			RecordTypeScanResult, batch)
		if err != nil {
			return deleted, common.WrapError(err, "failed to delete snapshot batch")
		}
		deleted += int(tag.RowsAffected())
	}

	s.logger.Info().Int("deleted", deleted).Str("cutoff", cutoffKey).Msg("Pruned old snapshots")
	return deleted, nil
}

// Close implements SnapshotStore.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
