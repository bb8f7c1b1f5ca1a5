package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cleared-dev/ledgerlens/internal/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.LogConfig
		debugOn   bool
		warnOn    bool
		wantError bool
	}{
		{"defaults", config.LogConfig{}, false, true, false},
		{"json debug", config.LogConfig{Level: "debug", Format: "json"}, true, true, false},
		{"console error", config.LogConfig{Level: "error", Format: "console"}, false, false, false},
		{"bad level", config.LogConfig{Level: "loud"}, false, false, true},
		{"bad format", config.LogConfig{Format: "xml"}, false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.debugOn, logger.Core().Enabled(zap.DebugLevel))
			assert.Equal(t, tt.warnOn, logger.Core().Enabled(zap.WarnLevel))
		})
	}
}
