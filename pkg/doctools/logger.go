package doctools

// Logger receives transport diagnostics.
type Logger interface {
	ErrorObj(msg, key string, obj interface{})
	DebugObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) ErrorObj(string, string, interface{}) {}
func (noopLogger) DebugObj(string, string, interface{}) {}

func ensureLogger(log Logger) Logger {
	if log == nil {
		return noopLogger{}
	}
	return log
}
