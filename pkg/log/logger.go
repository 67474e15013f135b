package log

import "time"

// Logger is the structured logger every component writes to. Messages are
// short and constant; variable data goes into fields.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field is one key/value attached to a record.
type Field struct {
	Key   string
	Value interface{}
}

func String(key, value string) Field { return Field{Key: key, Value: value} }

func Int(key string, value int) Field { return Field{Key: key, Value: value} }

func Bool(key string, value bool) Field { return Field{Key: key, Value: value} }

func Duration(key string, value time.Duration) Field { return Field{Key: key, Value: value} }

// Any attaches a value of arbitrary type; adapters may serialize it by reflection.
func Any(key string, value interface{}) Field { return Field{Key: key, Value: value} }

// Err attaches err under the "error" key.
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}

// Command tags a record with the name of the running command.
func Command(name string) Field {
	return Field{Key: "command", Value: name}
}
