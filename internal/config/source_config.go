package config

// SourceConfig defines where and how the file listing is scraped
type SourceConfig struct {
	URL                string `json:"url,omitempty" yaml:"url,omitempty" validate:"required,url"`
	Render             string `json:"render,omitempty" yaml:"render,omitempty" validate:"omitempty,oneof=static headless"`
	UserAgent          string `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	RequestTimeoutSecs int    `json:"request_timeout_secs,omitempty" yaml:"request_timeout_secs,omitempty" validate:"min=0"`
	EnableHTTP2        bool   `json:"enable_http2" yaml:"enable_http2"`
	InsecureSkipVerify bool   `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
	ChromePath         string `json:"chrome_path,omitempty" yaml:"chrome_path,omitempty"`
	HeadlessWaitSecs   int    `json:"headless_wait_secs,omitempty" yaml:"headless_wait_secs,omitempty" validate:"min=0"`
}

// NewDefaultSourceConfig creates default source configuration
func NewDefaultSourceConfig() SourceConfig {
	return SourceConfig{
		URL:                DefaultSourceURL,
		Render:             DefaultSourceRender,
		UserAgent:          DefaultSourceUserAgent,
		RequestTimeoutSecs: DefaultSourceRequestTimeout,
		EnableHTTP2:        true,
		HeadlessWaitSecs:   DefaultSourceHeadlessWaitSec,
	}
}
