package notifier

import (
	"time"

	"github.com/aleister1102/releasewatch/internal/models"
)

// Discord embed limits.
const (
	maxEmbedFields      = 25
	maxEmbedTitle       = 256
	maxEmbedFieldName   = 256
	maxEmbedFieldValue  = 1024
	maxEmbedDescription = 4096
)

// DiscordEmbedBuilder helps in constructing models.DiscordEmbed objects.
type DiscordEmbedBuilder struct {
	embed models.DiscordEmbed
}

// NewDiscordEmbedBuilder creates a new instance of DiscordEmbedBuilder.
func NewDiscordEmbedBuilder() *DiscordEmbedBuilder {
	return &DiscordEmbedBuilder{}
}

// WithTitle sets the title, truncated to Discord's limit.
func (b *DiscordEmbedBuilder) WithTitle(title string) *DiscordEmbedBuilder {
	b.embed.Title = truncate(title, maxEmbedTitle)
	return b
}

// WithDescription sets the description, truncated to Discord's limit.
func (b *DiscordEmbedBuilder) WithDescription(description string) *DiscordEmbedBuilder {
	b.embed.Description = truncate(description, maxEmbedDescription)
	return b
}

// WithURL sets the URL for the DiscordEmbed.
func (b *DiscordEmbedBuilder) WithURL(url string) *DiscordEmbedBuilder {
	b.embed.URL = url
	return b
}

// WithTimestamp sets the timestamp in ISO8601.
func (b *DiscordEmbedBuilder) WithTimestamp(timestamp time.Time) *DiscordEmbedBuilder {
	b.embed.Timestamp = timestamp.Format(time.RFC3339)
	return b
}

// WithColor sets the Color for the DiscordEmbed.
func (b *DiscordEmbedBuilder) WithColor(color int) *DiscordEmbedBuilder {
	b.embed.Color = color
	return b
}

// WithFooter sets the Footer for the DiscordEmbed.
func (b *DiscordEmbedBuilder) WithFooter(text string) *DiscordEmbedBuilder {
	b.embed.Footer = &models.DiscordEmbedFooter{Text: text}
	return b
}

// AddField appends a field. Fields past Discord's limit are dropped.
func (b *DiscordEmbedBuilder) AddField(name string, value string, inline bool) *DiscordEmbedBuilder {
	if len(b.embed.Fields) >= maxEmbedFields {
		return b
	}
	b.embed.Fields = append(b.embed.Fields, models.DiscordEmbedField{
		Name:   truncate(name, maxEmbedFieldName),
		Value:  truncate(value, maxEmbedFieldValue),
		Inline: inline,
	})
	return b
}

// Build returns the constructed models.DiscordEmbed object.
func (b *DiscordEmbedBuilder) Build() models.DiscordEmbed {
	return b.embed
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}
