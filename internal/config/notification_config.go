package config

// NotificationConfig defines configuration for notifications
type NotificationConfig struct {
	Backend                   string   `json:"backend,omitempty" yaml:"backend,omitempty" validate:"required,oneof=ses discord"`
	SenderEmail               string   `json:"sender_email,omitempty" yaml:"sender_email,omitempty" validate:"omitempty,email"`
	NewFileRecipientEmails    []string `json:"new_file_recipient_emails,omitempty" yaml:"new_file_recipient_emails,omitempty" validate:"dive,email"`
	LogRecipientEmails        []string `json:"log_recipient_emails,omitempty" yaml:"log_recipient_emails,omitempty" validate:"dive,email"`
	DigestWeekday             string   `json:"digest_weekday,omitempty" yaml:"digest_weekday,omitempty" validate:"weekday"`
	DiscordNewFilesWebhookURL string   `json:"discord_new_files_webhook_url,omitempty" yaml:"discord_new_files_webhook_url,omitempty" validate:"omitempty,url"`
	DiscordLogWebhookURL      string   `json:"discord_log_webhook_url,omitempty" yaml:"discord_log_webhook_url,omitempty" validate:"omitempty,url"`
	HTTPTimeoutSecs           int      `json:"http_timeout_secs,omitempty" yaml:"http_timeout_secs,omitempty" validate:"min=0"`
}

// NewDefaultNotificationConfig creates default notification configuration
func NewDefaultNotificationConfig() NotificationConfig {
	return NotificationConfig{
		Backend:                DefaultNotificationBackend,
		NewFileRecipientEmails: []string{},
		LogRecipientEmails:     []string{},
		DigestWeekday:          DefaultNotificationDigestDay,
		HTTPTimeoutSecs:        DefaultNotificationHTTPTimeout,
	}
}
