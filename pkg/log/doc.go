// Package log provides the logging abstraction used by appcommands components.
//
// Components depend only on the Logger interface. A zerolog adapter is used by
// the CLI and a no-op logger is the default for library use and tests.
//
// # Usage
//
//	logger, err := log.NewZerologAdapter(os.Stderr, "info")
//	if err != nil {
//	    return err
//	}
//	logger.Info("lifespan startup complete", log.Duration("elapsed", d))
//
// Implement Logger to route messages into an existing logging setup:
//
//	type MyLogger struct { ... }
//
//	func (l *MyLogger) Debug(msg string, fields ...log.Field) { ... }
//	func (l *MyLogger) Info(msg string, fields ...log.Field) { ... }
//	func (l *MyLogger) Warn(msg string, fields ...log.Field) { ... }
//	func (l *MyLogger) Error(msg string, fields ...log.Field) { ... }
package log
