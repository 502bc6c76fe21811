package config

import (
	"strings"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

type envBinding struct {
	key   string
	apply func(cfg *GlobalConfig, value string)
}

// envBindings maps recognized environment keys onto config fields. The
// unprefixed keys are the ones the deployment has always used.
var envBindings = []envBinding{
	{"URL", func(c *GlobalConfig, v string) { c.SourceConfig.URL = v }},
	{"SOURCE_RENDER", func(c *GlobalConfig, v string) { c.SourceConfig.Render = strings.ToLower(v) }},
	{"TABLE_NAME", func(c *GlobalConfig, v string) { c.StorageConfig.TableName = v }},
	{"STORE_BACKEND", func(c *GlobalConfig, v string) { c.StorageConfig.Backend = strings.ToLower(v) }},
	{"SQLITE_PATH", func(c *GlobalConfig, v string) { c.StorageConfig.SQLitePath = v }},
	{"POSTGRES_DSN", func(c *GlobalConfig, v string) { c.StorageConfig.PostgresDSN = v }},
	{"ARCHIVE_DIR", func(c *GlobalConfig, v string) { c.StorageConfig.ArchiveDir = v }},
	{"NOTIFIER_BACKEND", func(c *GlobalConfig, v string) { c.NotificationConfig.Backend = strings.ToLower(v) }},
	{"SENDER_EMAIL", func(c *GlobalConfig, v string) { c.NotificationConfig.SenderEmail = strings.TrimSpace(v) }},
	{"NEW_FILE_RECIPIENT_EMAILS", func(c *GlobalConfig, v string) { c.NotificationConfig.NewFileRecipientEmails = SplitList(v) }},
	{"LOG_RECIPIENT_EMAILS", func(c *GlobalConfig, v string) { c.NotificationConfig.LogRecipientEmails = SplitList(v) }},
	{"DIGEST_WEEKDAY", func(c *GlobalConfig, v string) { c.NotificationConfig.DigestWeekday = strings.ToLower(v) }},
	{"DISCORD_NEW_FILES_WEBHOOK_URL", func(c *GlobalConfig, v string) { c.NotificationConfig.DiscordNewFilesWebhookURL = v }},
	{"DISCORD_LOG_WEBHOOK_URL", func(c *GlobalConfig, v string) { c.NotificationConfig.DiscordLogWebhookURL = v }},
	{"AWS_REGION", func(c *GlobalConfig, v string) { c.AWSRegion = v }},
	{"PUSHGATEWAY_URL", func(c *GlobalConfig, v string) { c.MetricsConfig.PushgatewayURL = v }},
	{"LOG_LEVEL", func(c *GlobalConfig, v string) { c.LogConfig.LogLevel = strings.ToLower(v) }},
	{"LOG_FORMAT", func(c *GlobalConfig, v string) { c.LogConfig.LogFormat = strings.ToLower(v) }},
	{"LOG_FILE", func(c *GlobalConfig, v string) { c.LogConfig.LogFile = v }},
}

// ApplyEnv overlays every recognized key found by lookup onto cfg. Keys that
// are unset or blank leave the existing value alone.
func ApplyEnv(cfg *GlobalConfig, lookup LookupFunc) {
	for _, b := range envBindings {
		value, ok := lookup(b.key)
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		b.apply(cfg, value)
	}
}

// SplitList splits a comma-separated list, trimming whitespace and dropping
// empty entries. Order is preserved.
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
