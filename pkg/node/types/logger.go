package types

// Logger is the diagnostic sink every core component and workload handler
// is given. Implementations must write to a stream other than the node's
// JSON stdout (the runtime never puts log lines on the wire).
type Logger interface {
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})
}
