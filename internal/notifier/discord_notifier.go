package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/aleister1102/releasewatch/internal/common"
	"github.com/aleister1102/releasewatch/internal/config"
	"github.com/aleister1102/releasewatch/internal/models"
	"github.com/rs/zerolog"
)

const (
	DiscordUsername   = "releasewatch"
	SuccessEmbedColor = 0x5CB85C
	InfoEmbedColor    = 0x5BC0DE

	maxDiscordFileSize = 8 * 1024 * 1024
)

// DiscordNotifier posts notifications to Discord webhooks.
type DiscordNotifier struct {
	httpClient       *http.Client
	newFilesWebhook  string
	logWebhook       string
	sourceURL        string
	logSource        LogSource
	schedule         DigestSchedule
	logger           zerolog.Logger
	now              func() time.Time
	ineligibleReason string
}

// NewDiscordNotifier validates the webhook URLs once. The log webhook falls
// back to the new-files webhook when unset.
func NewDiscordNotifier(cfg config.NotificationConfig, sourceURL string, logSource LogSource, schedule DigestSchedule, httpClient *http.Client, logger zerolog.Logger) *DiscordNotifier {
	moduleLogger := logger.With().Str("module", "DiscordNotifier").Logger()

	if httpClient == nil {
		timeout := cfg.HTTPTimeoutSecs
		if timeout <= 0 {
			timeout = config.DefaultNotificationHTTPTimeout
		}
		httpClient = &http.Client{Timeout: time.Duration(timeout) * time.Second}
	}

	logWebhook := cfg.DiscordLogWebhookURL
	if logWebhook == "" {
		logWebhook = cfg.DiscordNewFilesWebhookURL
	}

	n := &DiscordNotifier{
		httpClient:      httpClient,
		newFilesWebhook: cfg.DiscordNewFilesWebhookURL,
		logWebhook:      logWebhook,
		sourceURL:       sourceURL,
		logSource:       logSource,
		schedule:        schedule,
		logger:          moduleLogger,
		now:             time.Now,
	}

	for _, webhook := range []string{n.newFilesWebhook, n.logWebhook} {
		if err := validateWebhookURL(webhook); err != nil {
			moduleLogger.Error().Err(err).Msg("Discord webhook is not usable, notifications disabled")
			n.ineligibleReason = err.Error()
			break
		}
	}
	return n
}

func validateWebhookURL(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return common.WrapError(err, "invalid Discord webhook URL")
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return common.NewValidationError("discord_webhook_url", raw, "webhook URL must be an absolute http(s) URL")
	}
	return nil
}

// SendNewFiles implements Notifier.
func (n *DiscordNotifier) SendNewFiles(ctx context.Context, files []models.FileRecord) models.NotificationOutcome {
	if n.ineligibleReason != "" {
		return models.FailedOutcome(n.ineligibleReason)
	}

	builder := NewDiscordEmbedBuilder().
		WithTitle(NewFilesSubject).
		WithURL(n.sourceURL).
		WithDescription(fmt.Sprintf("%d new file(s) found", len(files))).
		WithColor(SuccessEmbedColor).
		WithTimestamp(n.now()).
		WithFooter("releasewatch")

	for i, f := range files {
		if i == maxEmbedFields-1 && len(files) > maxEmbedFields {
			builder.AddField("More files", fmt.Sprintf("and %d more", len(files)-i), false)
			break
		}
		builder.AddField(f.Filename, fmt.Sprintf("[download](%s)\nupdate date: %s", f.URL, f.Date), false)
	}

	payload := models.DiscordMessagePayload{
		Username: DiscordUsername,
		Embeds:   []models.DiscordEmbed{builder.Build()},
	}
	if err := n.sendPayload(ctx, n.newFilesWebhook, payload, "", nil); err != nil {
		return models.FailedOutcome(err.Error())
	}
	return models.SentOutcome("discord")
}

// SendLogDigest implements Notifier.
func (n *DiscordNotifier) SendLogDigest(ctx context.Context) models.NotificationOutcome {
	if !n.schedule.Due() {
		n.logger.Info().Str("digest_weekday", n.schedule.String()).Msg("Log digest not due today, skipping")
		return models.SkippedOutcome("digest not due")
	}
	if n.ineligibleReason != "" {
		return models.FailedOutcome(n.ineligibleReason)
	}

	now := n.now()
	text := logText(n.logSource)
	if len(text) > maxDiscordFileSize {
		text = text[len(text)-maxDiscordFileSize:]
	}

	payload := models.DiscordMessagePayload{
		Username: DiscordUsername,
		Embeds: []models.DiscordEmbed{
			NewDiscordEmbedBuilder().
				WithTitle(digestSubject(n.logSource)).
				WithDescription("Full run log attached.").
				WithColor(InfoEmbedColor).
				WithTimestamp(now).
				Build(),
		},
	}

	fileName := fmt.Sprintf("releasewatch-%s.log", now.Format("2006-01-02"))
	if err := n.sendPayload(ctx, n.logWebhook, payload, fileName, []byte(text)); err != nil {
		return models.FailedOutcome(err.Error())
	}
	return models.SentOutcome("discord")
}

// sendPayload posts payload as multipart form data, attaching the file when
// fileName is set.
func (n *DiscordNotifier) sendPayload(ctx context.Context, webhookURL string, payload models.DiscordMessagePayload, fileName string, fileData []byte) error {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal discord payload: %w", err)
	}
	if err := writer.WriteField("payload_json", string(payloadJSON)); err != nil {
		return fmt.Errorf("failed to write payload_json to multipart: %w", err)
	}

	if fileName != "" {
		part, err := writer.CreateFormFile("file[0]", fileName)
		if err != nil {
			return fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := part.Write(fileData); err != nil {
			return fmt.Errorf("failed to copy file data to form: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, body)
	if err != nil {
		return fmt.Errorf("failed to create discord request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := n.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		n.logger.Error().Err(err).Str("webhook", redactWebhook(webhookURL)).Msg("Failed to send Discord notification")
		return common.NewNetworkError(redactWebhook(webhookURL), "discord webhook request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		n.logger.Error().Int("status_code", resp.StatusCode).Str("response_body", string(respBody)).Msg("Discord notification failed")
		return common.NewHTTPErrorWithURL(resp.StatusCode, string(respBody), redactWebhook(webhookURL))
	}

	n.logger.Info().Int("status_code", resp.StatusCode).Msg("Discord notification sent")
	return nil
}

// redactWebhook drops the token path segment from log output.
func redactWebhook(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
