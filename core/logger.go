package core

// UserID identifies the signed-in user in log arguments.
type UserID string

// Logger is the application logger.
// expected args: error, map[string]interface{}, UserID
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
