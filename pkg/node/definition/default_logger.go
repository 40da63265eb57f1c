// Package definition holds the default, swappable implementations the
// runtime falls back to when the caller does not provide its own: the
// logger today, mirroring the teacher's split between an interface
// (types.Logger) and a default implementation (definition.*).
package definition

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/jabolina/maelnode/pkg/node/types"
)

// LogrusLogger is the default types.Logger, backed by logrus instead of the
// teacher's hand-rolled wrapper around the standard log package. It always
// writes to stderr so the JSON output stream is never polluted.
type LogrusLogger struct {
	entry *logrus.Entry
}

// NewLogrusLogger builds a LogrusLogger tagged with the given node id.
func NewLogrusLogger(nodeID string) *LogrusLogger {
	base := logrus.New()
	base.SetOutput(os.Stderr)
	base.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return &LogrusLogger{entry: base.WithField("node", nodeID)}
}

// ToggleDebug flips the underlying logger's level between Info and Debug.
func (l *LogrusLogger) ToggleDebug(enabled bool) {
	if enabled {
		l.entry.Logger.SetLevel(logrus.DebugLevel)
	} else {
		l.entry.Logger.SetLevel(logrus.InfoLevel)
	}
}

func (l *LogrusLogger) Info(args ...interface{})                 { l.entry.Info(args...) }
func (l *LogrusLogger) Infof(format string, args ...interface{}) { l.entry.Infof(format, args...) }
func (l *LogrusLogger) Warn(args ...interface{})                 { l.entry.Warn(args...) }
func (l *LogrusLogger) Warnf(format string, args ...interface{}) { l.entry.Warnf(format, args...) }
func (l *LogrusLogger) Error(args ...interface{})                { l.entry.Error(args...) }
func (l *LogrusLogger) Errorf(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}
func (l *LogrusLogger) Debug(args ...interface{})                 { l.entry.Debug(args...) }
func (l *LogrusLogger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *LogrusLogger) Fatal(args ...interface{})                 { l.entry.Fatal(args...) }
func (l *LogrusLogger) Fatalf(format string, args ...interface{}) {
	l.entry.Fatalf(format, args...)
}

var _ types.Logger = (*LogrusLogger)(nil)
