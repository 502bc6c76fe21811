package config

// StorageConfig defines configuration for the snapshot store
type StorageConfig struct {
	Backend       string `json:"backend,omitempty" yaml:"backend,omitempty" validate:"required,oneof=sqlite dynamodb postgres"`
	SQLitePath    string `json:"sqlite_path,omitempty" yaml:"sqlite_path,omitempty"`
	TableName     string `json:"table_name,omitempty" yaml:"table_name,omitempty"`
	PostgresDSN   string `json:"postgres_dsn,omitempty" yaml:"postgres_dsn,omitempty"`
	ArchiveDir    string `json:"archive_dir,omitempty" yaml:"archive_dir,omitempty"`
	RetentionDays int    `json:"retention_days,omitempty" yaml:"retention_days,omitempty" validate:"min=1"`
}

// NewDefaultStorageConfig creates default storage configuration
func NewDefaultStorageConfig() StorageConfig {
	return StorageConfig{
		Backend:       DefaultStorageBackend,
		SQLitePath:    DefaultStorageSQLitePath,
		TableName:     DefaultStorageTableName,
		RetentionDays: DefaultStorageRetentionDays,
	}
}
