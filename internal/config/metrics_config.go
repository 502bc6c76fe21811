package config

// MetricsConfig defines where run metrics are pushed. An empty
// PushgatewayURL disables pushing.
type MetricsConfig struct {
	PushgatewayURL string `json:"pushgateway_url,omitempty" yaml:"pushgateway_url,omitempty" validate:"omitempty,url"`
	JobName        string `json:"job_name,omitempty" yaml:"job_name,omitempty"`
}

// NewDefaultMetricsConfig creates default metrics configuration
func NewDefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		JobName: DefaultMetricsJobName,
	}
}
