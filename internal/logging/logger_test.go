package logging_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/systmms/gsmconfig/internal/logging"
)

func TestSecretRedaction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{name: "secret is redacted", input: "my-secret-password"},
		{name: "empty secret is still redacted", input: ""},
		{name: "json payload is redacted", input: `{"Email":{"Host":"smtp.example.com"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := logging.Secret(tt.input)
			assert.Equal(t, "[REDACTED]", s.String())
			assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", s))
			assert.Equal(t, "[REDACTED]", fmt.Sprintf("%#v", s))
		})
	}
}

func TestLoggerWritesRedactedValues(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, true, true)

	value := "super-secret-password-12345"
	logger.Info("set key %s = %s", "Email:Host", logging.Secret(value))
	logger.Debug("payload %s", logging.Secret(value))

	out := buf.String()
	assert.Contains(t, out, "✓ set key Email:Host = [REDACTED]")
	assert.Contains(t, out, "[DEBUG] payload [REDACTED]")
	assert.NotContains(t, out, value)
}

func TestLoggerDebugMode(t *testing.T) {
	t.Parallel()

	var quiet, loud bytes.Buffer
	logging.NewWithWriter(&quiet, false, true).Debug("hidden %d", 1)
	logging.NewWithWriter(&loud, true, true).Debug("shown %d", 2)

	assert.Empty(t, quiet.String())
	assert.Equal(t, "[DEBUG] shown 2\n", loud.String())
}

func TestLoggerLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		log    func(l *logging.Logger)
		plain  string
		colour string
	}{
		{"info", func(l *logging.Logger) { l.Info("loaded %d keys", 3) }, "✓ loaded 3 keys\n", "\033[32m✓\033[0m loaded 3 keys\n"},
		{"warn", func(l *logging.Logger) { l.Warn("skipped %s", "app__x") }, "⚠ skipped app__x\n", "\033[33m⚠\033[0m skipped app__x\n"},
		{"error", func(l *logging.Logger) { l.Error("failed") }, "✗ failed\n", "\033[31m✗\033[0m failed\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var plain, colour bytes.Buffer
			tt.log(logging.NewWithWriter(&plain, false, true))
			tt.log(logging.NewWithWriter(&colour, false, false))
			assert.Equal(t, tt.plain, plain.String())
			assert.Equal(t, tt.colour, colour.String())
		})
	}
}

func TestRedactFunction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		secrets  []string
		expected string
	}{
		{
			name:     "single secret redacted",
			input:    "The password is secret123",
			secrets:  []string{"secret123"},
			expected: "The password is [REDACTED]",
		},
		{
			name:     "multiple secrets redacted",
			input:    "host smtp.internal user admin password secret123",
			secrets:  []string{"admin", "secret123"},
			expected: "host smtp.internal user [REDACTED] password [REDACTED]",
		},
		{
			name:     "empty secret ignored",
			input:    "This has no secrets",
			secrets:  []string{""},
			expected: "This has no secrets",
		},
		{
			name:     "short secret ignored",
			input:    "Port: 25",
			secrets:  []string{"25"},
			expected: "Port: 25",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, logging.Redact(tt.input, tt.secrets))
		})
	}
}
