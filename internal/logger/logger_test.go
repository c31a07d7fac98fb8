package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logpkg "github.com/maxviazov/catalog-service/internal/logger"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		config      *logpkg.LoggerConfig
		expectError bool
		level       zerolog.Level
	}{
		{
			name:   "production defaults",
			config: &logpkg.LoggerConfig{Env: "prod", Level: "info"},
			level:  zerolog.InfoLevel,
		},
		{
			name:        "wrong env",
			config:      &logpkg.LoggerConfig{Env: "wrong-env", Level: "debug"},
			expectError: true,
		},
		{
			name:        "wrong level",
			config:      &logpkg.LoggerConfig{Env: "prod", Level: "loud"},
			expectError: true,
		},
		{
			name:   "staging warn",
			config: &logpkg.LoggerConfig{Env: "staging", Level: "warn", TimeFormat: "unix"},
			level:  zerolog.WarnLevel,
		},
		{
			name:   "dev info console",
			config: &logpkg.LoggerConfig{Env: "dev", Level: "info", Output: &bytes.Buffer{}},
			level:  zerolog.InfoLevel,
		},
		{
			name:   "prod with extra fields",
			config: &logpkg.LoggerConfig{Env: "prod", Level: "error", Fields: map[string]interface{}{"k": "v"}},
			level:  zerolog.ErrorLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := logpkg.New(tt.config)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.level, zerolog.GlobalLevel())
		})
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func TestNew_JSONRecordCarriesServiceFields(t *testing.T) {
	var buf bytes.Buffer
	l, err := logpkg.New(&logpkg.LoggerConfig{
		Env:            "prod",
		Level:          "info",
		ServiceVersion: "9.9.9",
		Stacktrace:     false,
		Output:         &buf,
	})
	require.NoError(t, err)

	l.Info().Str("component", "test").Msg("hello")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "catalog-service", rec["service"])
	assert.Equal(t, "9.9.9", rec["version"])
	assert.Equal(t, "prod", rec["env"])
	assert.Equal(t, "hello", rec["message"])
	assert.Contains(t, rec, "ts")
}
