package datastore

import (
	"context"
	"fmt"

	"github.com/aleister1102/releasewatch/internal/common"
	"github.com/aleister1102/releasewatch/internal/config"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/rs/zerolog"
)

// NewSnapshotStore opens the backend selected in cfg.StorageConfig, wrapped
// with an archiver when an archive directory is configured.
func NewSnapshotStore(ctx context.Context, cfg *config.GlobalConfig, logger zerolog.Logger) (SnapshotStore, error) {
	var (
		store SnapshotStore
		err   error
	)

	storage := cfg.StorageConfig
	switch storage.Backend {
	case config.StoreBackendSQLite:
		store, err = NewSQLiteStore(storage.SQLitePath, logger)
	case config.StoreBackendPostgres:
		store, err = NewPostgresStore(ctx, storage.PostgresDSN, logger)
	case config.StoreBackendDynamoDB:
		awsCfg, loadErr := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if loadErr != nil {
			return nil, common.WrapError(loadErr, "failed to load AWS configuration")
		}
		store, err = NewDynamoDBStore(ctx, dynamodb.NewFromConfig(awsCfg), storage.TableName, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", storage.Backend)
	}
	if err != nil {
		return nil, common.WrapErrorf(err, "failed to open %s snapshot store", storage.Backend)
	}

	if storage.ArchiveDir != "" {
		store = NewArchivingStore(store, storage.ArchiveDir, logger)
	}
	return store, nil
}
