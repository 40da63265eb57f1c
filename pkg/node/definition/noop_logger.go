package definition

import "github.com/jabolina/maelnode/pkg/node/types"

// NoopLogger discards everything. Used by tests that want to assert on
// behavior without log noise.
type NoopLogger struct{}

func (NoopLogger) Info(...interface{})           {}
func (NoopLogger) Infof(string, ...interface{})  {}
func (NoopLogger) Warn(...interface{})           {}
func (NoopLogger) Warnf(string, ...interface{})  {}
func (NoopLogger) Error(...interface{})          {}
func (NoopLogger) Errorf(string, ...interface{}) {}
func (NoopLogger) Debug(...interface{})          {}
func (NoopLogger) Debugf(string, ...interface{}) {}
func (NoopLogger) Fatal(...interface{})          {}
func (NoopLogger) Fatalf(string, ...interface{}) {}

var _ types.Logger = NoopLogger{}
