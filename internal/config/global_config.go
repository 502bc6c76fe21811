package config

// GlobalConfig contains all configuration sections for the application.
// It is populated once at startup by LoadGlobalConfig and passed down
// explicitly; nothing reads the environment after that.
type GlobalConfig struct {
	AWSRegion          string             `json:"aws_region,omitempty" yaml:"aws_region,omitempty"`
	SourceConfig       SourceConfig       `json:"source_config,omitempty" yaml:"source_config,omitempty"`
	StorageConfig      StorageConfig      `json:"storage_config,omitempty" yaml:"storage_config,omitempty"`
	NotificationConfig NotificationConfig `json:"notification_config,omitempty" yaml:"notification_config,omitempty"`
	LogConfig          LogConfig          `json:"log_config,omitempty" yaml:"log_config,omitempty"`
	MetricsConfig      MetricsConfig      `json:"metrics_config,omitempty" yaml:"metrics_config,omitempty"`
}

// NewDefaultGlobalConfig creates a new GlobalConfig with default values
func NewDefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		AWSRegion:          DefaultAWSRegion,
		SourceConfig:       NewDefaultSourceConfig(),
		StorageConfig:      NewDefaultStorageConfig(),
		NotificationConfig: NewDefaultNotificationConfig(),
		LogConfig:          NewDefaultLogConfig(),
		MetricsConfig:      NewDefaultMetricsConfig(),
	}
}
