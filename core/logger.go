package core

// Logger is implemented by any telemetry service the app reports to.
// Implementations may inspect args for well-known types (errors, principals)
// and must be safe for concurrent use.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
