package models

// NotificationOutcome is the result of one send attempt. It is never
// persisted; callers only log it.
type NotificationOutcome struct {
	Sent    bool
	Skipped bool
	Reason  string
}

// OK reports whether the attempt counts as a success. A send skipped by a
// schedule gate is a success.
func (o NotificationOutcome) OK() bool {
	return o.Sent || o.Skipped
}

// SentOutcome builds a successful outcome.
func SentOutcome(reason string) NotificationOutcome {
	return NotificationOutcome{Sent: true, Reason: reason}
}

// SkippedOutcome builds an outcome for a send that was intentionally not made.
func SkippedOutcome(reason string) NotificationOutcome {
	return NotificationOutcome{Skipped: true, Reason: reason}
}

// FailedOutcome builds a failed outcome.
func FailedOutcome(reason string) NotificationOutcome {
	return NotificationOutcome{Reason: reason}
}
