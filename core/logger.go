package core

// Logger is the app-wide leveled logger.
// args may contain errors, key-value maps or a session identity; implementations
// decide what to do with each.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
