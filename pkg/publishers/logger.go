package publishers

// Logger is the part of the application logger sinks write to.
type Logger interface {
	DebugObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

type discardLogger struct{}

func (discardLogger) DebugObj(string, string, interface{}) {}
func (discardLogger) ErrorObj(string, string, interface{}) {}

func orDiscard(log Logger) Logger {
	if log == nil {
		return discardLogger{}
	}
	return log
}
