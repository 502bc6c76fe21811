package service

import (
	"time"

	"github.com/aleister1102/releasewatch/internal/models"
)

// ErrorKind classifies how a detection cycle ended.
type ErrorKind string

const (
	ErrorKindNone     ErrorKind = "none"
	ErrorKindFetch    ErrorKind = "fetch"
	ErrorKindStore    ErrorKind = "store"
	ErrorKindNotify   ErrorKind = "notify"
	ErrorKindInternal ErrorKind = "internal"
)

func (k ErrorKind) String() string {
	return string(k)
}

// CycleResult describes one detection cycle. Err is nil only when Kind is
// ErrorKindNone.
type CycleResult struct {
	RunID    string
	Kind     ErrorKind
	Err      error
	Fetched  int
	NewFiles []models.FileRecord
	Removed  []models.FileRecord
	Snapshot models.Snapshot
	Duration time.Duration
}

// OK reports whether the cycle completed without failure.
func (r CycleResult) OK() bool {
	return r.Kind == ErrorKindNone
}
