package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNew_Level(t *testing.T) {
	assert.True(t, New("debug").Desugar().Core().Enabled(zap.DebugLevel))
	assert.False(t, New("").Desugar().Core().Enabled(zap.DebugLevel))
	assert.True(t, New("warn").Desugar().Core().Enabled(zap.InfoLevel))
}
