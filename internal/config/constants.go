package config

const (
	// Source Defaults
	DefaultSourceURL             = "https://sourceforge.net/projects/xiaomi-eu-multilang-miui-roms/files/xiaomi.eu/Xiaomi.eu-app/"
	DefaultSourceRender          = RenderStatic
	DefaultSourceUserAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultSourceRequestTimeout  = 30
	DefaultSourceHeadlessWaitSec = 5

	// Storage Defaults
	DefaultStorageBackend       = StoreBackendSQLite
	DefaultStorageSQLitePath    = "database/releasewatch.db"
	DefaultStorageTableName     = "xiaomi_eu_files"
	DefaultStorageRetentionDays = 30

	// Notification Defaults
	DefaultNotificationBackend     = NotifierBackendSES
	DefaultNotificationDigestDay   = "saturday"
	DefaultNotificationHTTPTimeout = 20

	// AWS Defaults
	DefaultAWSRegion = "ap-southeast-2"

	// Log Defaults
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultLogFile       = ""
	DefaultMaxLogSizeMB  = 100
	DefaultMaxLogBackups = 3

	// Metrics Defaults
	DefaultMetricsJobName = "releasewatch"
)

// Source render modes
const (
	RenderStatic   = "static"
	RenderHeadless = "headless"
)

// Snapshot store backends
const (
	StoreBackendSQLite   = "sqlite"
	StoreBackendDynamoDB = "dynamodb"
	StoreBackendPostgres = "postgres"
)

// Notifier backends
const (
	NotifierBackendSES     = "ses"
	NotifierBackendDiscord = "discord"
)
