package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ersonp/folio/internal/infrastructure/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    zapcore.Level
		wantErr bool
	}{
		{input: "debug", want: zap.DebugLevel},
		{input: "INFO", want: zap.InfoLevel},
		{input: "", want: zap.WarnLevel},
		{input: "warning", want: zap.WarnLevel},
		{input: " error ", want: zap.ErrorLevel},
		{input: "verbose", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LogConfig
		wantErr string
	}{
		{name: "defaults", cfg: config.LogConfig{}},
		{name: "json", cfg: config.LogConfig{Level: "debug", Format: "json"}},
		{name: "bad level", cfg: config.LogConfig{Level: "loud"}, wantErr: "unknown log level"},
		{name: "bad format", cfg: config.LogConfig{Format: "xml"}, wantErr: "unknown log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestNew_LevelIsApplied(t *testing.T) {
	logger, err := New(config.LogConfig{Level: "error"})
	require.NoError(t, err)

	assert.False(t, logger.Core().Enabled(zap.WarnLevel))
	assert.True(t, logger.Core().Enabled(zap.ErrorLevel))
}
