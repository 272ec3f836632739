package badger

import (
	"strings"

	badgerdb "github.com/dgraph-io/badger/v3"
	"go.uber.org/zap"
)

// nonceStoreLogger routes badger's printf-style output into a named zap logger.
// Badger is chatty at info, so that level is demoted to debug.
type nonceStoreLogger struct {
	sugar *zap.SugaredLogger
}

var _ badgerdb.Logger = (*nonceStoreLogger)(nil)

func newNonceStoreLogger(logger *zap.Logger) *nonceStoreLogger {
	return &nonceStoreLogger{
		sugar: logger.Named("badger").WithOptions(zap.AddCallerSkip(1)).Sugar(),
	}
}

// badger terminates most messages with a newline
func trimNewline(format string) string {
	return strings.TrimRight(format, "\n")
}

func (b *nonceStoreLogger) Errorf(format string, args ...interface{}) {
	b.sugar.Errorf(trimNewline(format), args...)
}

func (b *nonceStoreLogger) Warningf(format string, args ...interface{}) {
	b.sugar.Warnf(trimNewline(format), args...)
}

func (b *nonceStoreLogger) Infof(format string, args ...interface{}) {
	b.sugar.Debugf(trimNewline(format), args...)
}

func (b *nonceStoreLogger) Debugf(format string, args ...interface{}) {
	b.sugar.Debugf(trimNewline(format), args...)
}
