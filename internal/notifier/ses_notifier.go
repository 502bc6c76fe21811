package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aleister1102/releasewatch/internal/config"
	"github.com/aleister1102/releasewatch/internal/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

var addressValidator = validator.New()

// SESAPI is the subset of the SES client used by SESNotifier.
type SESAPI interface {
	GetIdentityVerificationAttributes(ctx context.Context, params *ses.GetIdentityVerificationAttributesInput, optFns ...func(*ses.Options)) (*ses.GetIdentityVerificationAttributesOutput, error)
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESNotifier sends HTML email through Amazon SES.
type SESNotifier struct {
	client            SESAPI
	sender            string
	newFileRecipients []string
	logRecipients     []string
	sourceURL         string
	logSource         LogSource
	schedule          DigestSchedule
	logger            zerolog.Logger
	now               func() time.Time

	senderOK         bool
	newRecipientsOK  bool
	logRecipientsOK  bool
	ineligibleReason string
}

// NewSESNotifier checks that the sender and every recipient are verified
// identities. Failed checks are logged and turn later sends into no-ops.
func NewSESNotifier(ctx context.Context, client SESAPI, cfg config.NotificationConfig, sourceURL string, logSource LogSource, schedule DigestSchedule, logger zerolog.Logger) *SESNotifier {
	n := &SESNotifier{
		client:            client,
		sender:            cfg.SenderEmail,
		newFileRecipients: cfg.NewFileRecipientEmails,
		logRecipients:     cfg.LogRecipientEmails,
		sourceURL:         sourceURL,
		logSource:         logSource,
		schedule:          schedule,
		logger:            logger.With().Str("module", "SESNotifier").Logger(),
		now:               time.Now,
	}

	statuses, err := n.verificationStatuses(ctx)
	if err != nil {
		n.logger.Error().Err(err).Msg("Failed to check SES identity verification")
		n.ineligibleReason = "identity verification check failed: " + err.Error()
		return n
	}

	n.senderOK = n.checkAddresses("sender", []string{n.sender}, statuses)
	n.newRecipientsOK = n.checkAddresses("new file recipient", n.newFileRecipients, statuses)
	n.logRecipientsOK = n.checkAddresses("log recipient", n.logRecipients, statuses)
	return n
}

func (n *SESNotifier) verificationStatuses(ctx context.Context) (map[string]types.IdentityVerificationAttributes, error) {
	identities := uniqueAddresses(append(append([]string{n.sender}, n.newFileRecipients...), n.logRecipients...))
	if len(identities) == 0 {
		return map[string]types.IdentityVerificationAttributes{}, nil
	}

	out, err := n.client.GetIdentityVerificationAttributes(ctx, &ses.GetIdentityVerificationAttributesInput{Identities: identities})
	if err != nil {
		return nil, err
	}
	return out.VerificationAttributes, nil
}

func (n *SESNotifier) checkAddresses(role string, addresses []string, statuses map[string]types.IdentityVerificationAttributes) bool {
	if len(addresses) == 0 {
		n.logger.Error().Str("role", role).Msg("No email address configured")
		return false
	}

	for _, addr := range addresses {
		if err := addressValidator.Var(addr, "required,email"); err != nil {
			n.logger.Error().Str("role", role).Str("email", addr).Msg("Email address is malformed")
			return false
		}
		attrs, ok := statuses[addr]
		if !ok || attrs.VerificationStatus != types.VerificationStatusSuccess {
			n.logger.Error().Str("role", role).Str("email", addr).Str("status", string(attrs.VerificationStatus)).Msg("Email address is not verified in SES")
			return false
		}
	}
	return true
}

// SendNewFiles implements Notifier.
func (n *SESNotifier) SendNewFiles(ctx context.Context, files []models.FileRecord) models.NotificationOutcome {
	if reason := n.eligibility(n.newRecipientsOK); reason != "" {
		n.logger.Error().Str("reason", reason).Msg("New files email not sent")
		return models.FailedOutcome(reason)
	}

	body, err := renderNewFiles(files, n.sourceURL, n.now())
	if err != nil {
		return models.FailedOutcome(err.Error())
	}
	return n.send(ctx, "new files", n.newFileRecipients, NewFilesSubject, body)
}

// SendLogDigest implements Notifier.
func (n *SESNotifier) SendLogDigest(ctx context.Context) models.NotificationOutcome {
	if !n.schedule.Due() {
		n.logger.Info().Str("digest_weekday", n.schedule.String()).Msg("Log digest not due today, skipping")
		return models.SkippedOutcome("digest not due")
	}
	if reason := n.eligibility(n.logRecipientsOK); reason != "" {
		n.logger.Error().Str("reason", reason).Msg("Log digest email not sent")
		return models.FailedOutcome(reason)
	}

	body, err := renderLogDigest(logText(n.logSource), n.now())
	if err != nil {
		return models.FailedOutcome(err.Error())
	}
	return n.send(ctx, "logs", n.logRecipients, digestSubject(n.logSource), body)
}

func (n *SESNotifier) eligibility(recipientsOK bool) string {
	switch {
	case n.ineligibleReason != "":
		return n.ineligibleReason
	case !n.senderOK || !recipientsOK:
		return "sender or recipient verify failed"
	}
	return ""
}

func (n *SESNotifier) send(ctx context.Context, kind string, recipients []string, subject, body string) models.NotificationOutcome {
	out, err := n.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(n.sender),
		Destination: &types.Destination{ToAddresses: recipients},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
			},
		},
	})
	if err != nil {
		n.logger.Error().Err(err).Str("type", kind).Msg("Email send failed")
		return models.FailedOutcome(fmt.Sprintf("%s email send failed: %v", kind, err))
	}

	n.logger.Info().Str("type", kind).Str("message_id", aws.ToString(out.MessageId)).Int("recipients", len(recipients)).Msg("Email sent")
	return models.SentOutcome(aws.ToString(out.MessageId))
}

func uniqueAddresses(addresses []string) []string {
	seen := make(map[string]struct{}, len(addresses))
	result := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		result = append(result, addr)
	}
	return result
}
