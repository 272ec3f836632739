package badger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func Test_nonceStoreLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := newNonceStoreLogger(zap.New(core))

	l.Infof("Replaying file id: %d\n", 3)
	l.Warningf("disk %s\n", "full")
	l.Errorf("compaction failed")

	entries := logs.All()
	require.Len(t, entries, 3)

	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "Replaying file id: 3", entries[0].Message)
	assert.Equal(t, "badger", entries[0].LoggerName)

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "disk full", entries[1].Message)

	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
}
