package notifier

import (
	"context"
	"strings"
	"time"

	"github.com/aleister1102/releasewatch/internal/config"
	"github.com/aleister1102/releasewatch/internal/models"
)

const (
	// NewFilesSubject is the subject of new-file notifications.
	NewFilesSubject = "New files detected"
	// DigestSubjectPrefix precedes the last log message in digest subjects.
	DigestSubjectPrefix = "Run log - "
	// GeneratedAtLayout formats the generation timestamp in message bodies.
	GeneratedAtLayout = "2006-01-02 15:04:05"
)

// Notifier delivers new-file notices and the run-log digest. Sends never
// return errors; the outcome carries the failure reason.
type Notifier interface {
	SendNewFiles(ctx context.Context, files []models.FileRecord) models.NotificationOutcome
	SendLogDigest(ctx context.Context) models.NotificationOutcome
}

// LogSource exposes the log captured during the current run.
type LogSource interface {
	String() string
	LastMessage() string
}

// DigestSchedule decides whether the log digest is due on a given run.
type DigestSchedule struct {
	day    time.Weekday
	anyDay bool
	now    func() time.Time
}

// NewDigestSchedule parses a weekday name or "any". A nil now uses time.Now.
func NewDigestSchedule(weekday string, now func() time.Time) (DigestSchedule, error) {
	day, anyDay, err := config.ParseDigestWeekday(weekday)
	if err != nil {
		return DigestSchedule{}, err
	}
	if now == nil {
		now = time.Now
	}
	return DigestSchedule{day: day, anyDay: anyDay, now: now}, nil
}

// Due reports whether the digest should be sent now, in local time.
func (s DigestSchedule) Due() bool {
	if s.anyDay {
		return true
	}
	return s.now().Weekday() == s.day
}

// String names the configured day.
func (s DigestSchedule) String() string {
	if s.anyDay {
		return config.AnyWeekday
	}
	return strings.ToLower(s.day.String())
}

func digestSubject(source LogSource) string {
	last := ""
	if source != nil {
		last = source.LastMessage()
	}
	if last == "" {
		last = "no log messages"
	}
	return DigestSubjectPrefix + last
}

func logText(source LogSource) string {
	if source == nil {
		return ""
	}
	return source.String()
}
