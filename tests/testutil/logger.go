package testutil

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/systmms/gsmconfig/internal/logging"
)

// TestLogger is a *logging.Logger writing to an in-memory buffer, so tests
// can check what was logged and that secret values were redacted.
//
//	logger := NewTestLogger(t, true)
//	provider := secretconfig.NewKeyValueProvider(secretconfig.KeyValueOptions{Logger: logger})
//	...
//	logger.AssertRedacted(t, "hunter2")
type TestLogger struct {
	*logging.Logger
	buf *syncBuffer
}

// NewTestLogger creates a logger without colour. debug enables Debug output.
func NewTestLogger(t *testing.T, debug bool) *TestLogger {
	t.Helper()
	buf := &syncBuffer{}
	return &TestLogger{
		Logger: logging.NewWithWriter(buf, debug, true),
		buf:    buf,
	}
}

// Output returns everything logged so far.
func (l *TestLogger) Output() string {
	return l.buf.String()
}

// Lines returns the non-empty logged lines.
func (l *TestLogger) Lines() []string {
	var lines []string
	for _, line := range strings.Split(l.Output(), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// AssertContains asserts that the log output contains substr.
func (l *TestLogger) AssertContains(t *testing.T, substr string) {
	t.Helper()
	assert.Contains(t, l.Output(), substr, "Expected log output to contain %q", substr)
}

// AssertRedacted asserts that secretValue never reached the log and that a
// redaction marker did.
func (l *TestLogger) AssertRedacted(t *testing.T, secretValue string) {
	t.Helper()
	AssertSecretRedacted(t, l.Output(), secretValue)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
