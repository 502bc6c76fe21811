package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// LogBuffer captures the log output of one process invocation so it can be
// mailed as the run-log digest. It is created by the entry point, attached
// to the logger with LoggerBuilder.WithLogBuffer and handed to the notifier;
// nothing about it is global.
type LogBuffer struct {
	mu          sync.Mutex
	text        bytes.Buffer
	console     zerolog.ConsoleWriter
	lastMessage string
	events      int
}

// NewLogBuffer creates an empty buffer. Events are stored rendered as plain
// console text.
func NewLogBuffer() *LogBuffer {
	lb := &LogBuffer{}
	lb.console = zerolog.ConsoleWriter{Out: &lb.text, NoColor: true, TimeFormat: TimeFormat}
	return lb
}

// Write receives one JSON-encoded zerolog event.
func (lb *LogBuffer) Write(p []byte) (int, error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	var evt map[string]interface{}
	if err := json.Unmarshal(p, &evt); err == nil {
		if msg, ok := evt[zerolog.MessageFieldName].(string); ok && msg != "" {
			lb.lastMessage = msg
		}
	}
	lb.events++

	if _, err := lb.console.Write(p); err != nil {
		// Keep the raw line rather than losing it.
		lb.text.Write(p)
	}
	return len(p), nil
}

// String returns the captured log text.
func (lb *LogBuffer) String() string {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.text.String()
}

// LastMessage returns the message of the most recent event that had one.
func (lb *LogBuffer) LastMessage() string {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return strings.TrimSpace(lb.lastMessage)
}

// Events returns the number of captured events.
func (lb *LogBuffer) Events() int {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.events
}
