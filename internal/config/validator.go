package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aleister1102/releasewatch/internal/common"
	"github.com/go-playground/validator/v10"
)

// AnyWeekday disables the digest weekday gate.
const AnyWeekday = "any"

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseDigestWeekday parses a digest_weekday value. An empty value or "any"
// returns anyDay=true.
func ParseDigestWeekday(s string) (day time.Weekday, anyDay bool, err error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == AnyWeekday {
		return time.Sunday, true, nil
	}
	day, ok := weekdays[s]
	if !ok {
		return time.Sunday, false, fmt.Errorf("unknown weekday %q", s)
	}
	return day, false, nil
}

// newValidator returns a validator with the project's custom tags registered.
func newValidator() *validator.Validate {
	validate := validator.New()

	_ = validate.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "", "debug", "info", "warn", "error", "fatal", "panic":
			return true
		default:
			return false
		}
	})

	_ = validate.RegisterValidation("logformat", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "", "console", "text", "json":
			return true
		default:
			return false
		}
	})

	_ = validate.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		_, _, err := ParseDigestWeekday(fl.Field().String())
		return err == nil
	})

	return validate
}

// ValidateConfig performs validation on the GlobalConfig structure: struct
// tags first, then the requirements that depend on the selected backends.
func ValidateConfig(cfg *GlobalConfig) error {
	if cfg == nil {
		return common.NewValidationError("config", nil, "configuration is nil")
	}

	if err := newValidator().Struct(cfg); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) {
			messages := make([]string, 0, len(errs))
			for _, e := range errs {
				msg := fmt.Sprintf("Validation failed for '%s': rule '%s'", e.Namespace(), e.Tag())
				if e.Param() != "" {
					msg += fmt.Sprintf(" (expected: %s)", e.Param())
				}
				if e.Value() != nil && e.Value() != "" {
					msg += fmt.Sprintf(", actual: '%v'", e.Value())
				}
				messages = append(messages, msg)
			}
			return fmt.Errorf("configuration validation failed:\n  %s", strings.Join(messages, "\n  "))
		}
		return fmt.Errorf("configuration validation error: %w", err)
	}

	return validateBackends(cfg)
}

func validateBackends(cfg *GlobalConfig) error {
	var collected []error

	storage := cfg.StorageConfig
	switch storage.Backend {
	case StoreBackendSQLite:
		if storage.SQLitePath == "" {
			collected = append(collected, common.NewValidationError("storage_config.sqlite_path", storage.SQLitePath, "required for the sqlite backend"))
		}
	case StoreBackendDynamoDB:
		if storage.TableName == "" {
			collected = append(collected, common.NewValidationError("storage_config.table_name", storage.TableName, "required for the dynamodb backend"))
		}
		if cfg.AWSRegion == "" {
			collected = append(collected, common.NewValidationError("aws_region", cfg.AWSRegion, "required for the dynamodb backend"))
		}
	case StoreBackendPostgres:
		if storage.PostgresDSN == "" {
			collected = append(collected, common.NewValidationError("storage_config.postgres_dsn", "", "required for the postgres backend"))
		}
	}

	notification := cfg.NotificationConfig
	switch notification.Backend {
	case NotifierBackendSES:
		if notification.SenderEmail == "" {
			collected = append(collected, common.NewValidationError("notification_config.sender_email", "", "required for the ses backend"))
		}
		if len(notification.NewFileRecipientEmails) == 0 {
			collected = append(collected, common.NewValidationError("notification_config.new_file_recipient_emails", "", "at least one recipient is required for the ses backend"))
		}
		if len(notification.LogRecipientEmails) == 0 {
			collected = append(collected, common.NewValidationError("notification_config.log_recipient_emails", "", "at least one recipient is required for the ses backend"))
		}
		if cfg.AWSRegion == "" {
			collected = append(collected, common.NewValidationError("aws_region", cfg.AWSRegion, "required for the ses backend"))
		}
	case NotifierBackendDiscord:
		if notification.DiscordNewFilesWebhookURL == "" {
			collected = append(collected, common.NewValidationError("notification_config.discord_new_files_webhook_url", "", "required for the discord backend"))
		}
	}

	return common.CombineErrors(collected)
}
