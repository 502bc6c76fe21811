package notifier

import (
	"context"
	"fmt"

	"github.com/aleister1102/releasewatch/internal/common"
	"github.com/aleister1102/releasewatch/internal/config"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/rs/zerolog"
)

// NewNotifier builds the backend selected in cfg.NotificationConfig.
func NewNotifier(ctx context.Context, cfg *config.GlobalConfig, logSource LogSource, logger zerolog.Logger) (Notifier, error) {
	nc := cfg.NotificationConfig
	schedule, err := NewDigestSchedule(nc.DigestWeekday, nil)
	if err != nil {
		return nil, err
	}

	switch nc.Backend {
	case config.NotifierBackendSES:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, common.WrapError(err, "failed to load AWS configuration")
		}
		return NewSESNotifier(ctx, ses.NewFromConfig(awsCfg), nc, cfg.SourceConfig.URL, logSource, schedule, logger), nil
	case config.NotifierBackendDiscord:
		return NewDiscordNotifier(nc, cfg.SourceConfig.URL, logSource, schedule, nil, logger), nil
	default:
		return nil, fmt.Errorf("unknown notifier backend %q", nc.Backend)
	}
}
