package obslog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew_DefaultIsInfoLevel(t *testing.T) {
	log, err := New(Config{})
	require.NoError(t, err)
	defer log.Sync()

	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
}

func TestNew_VerboseEnablesDebug(t *testing.T) {
	log, err := New(Config{Verbose: true})
	require.NoError(t, err)
	defer log.Sync()

	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestNoop_DiscardsEverything(t *testing.T) {
	log := Noop()
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
}
