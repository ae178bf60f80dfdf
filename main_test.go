package main

import (
	"testing"

	"github.com/kendall-kelly/shg-marketplace-api/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		goEnv     string
		logLevel  string
		wantLevel zapcore.Level
	}{
		{name: "development debug", goEnv: "development", logLevel: "debug", wantLevel: zapcore.DebugLevel},
		{name: "production warn", goEnv: "production", logLevel: "warn", wantLevel: zapcore.WarnLevel},
		{name: "unknown level falls back to info", goEnv: "test", logLevel: "chatty", wantLevel: zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := newLogger(&config.Config{GoEnv: tt.goEnv, LogLevel: tt.logLevel})
			require.NoError(t, err)

			assert.True(t, logger.Core().Enabled(tt.wantLevel))
			if tt.wantLevel > zapcore.DebugLevel {
				assert.False(t, logger.Core().Enabled(tt.wantLevel-1))
			}
		})
	}
}
