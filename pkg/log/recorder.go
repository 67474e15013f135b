package log

import (
	"fmt"
	"sync"
)

// Record is a single message captured by a Recorder.
type Record struct {
	Level  string
	Msg    string
	Fields []Field
}

// Field returns the value of the named field and whether it was present.
func (r Record) Field(key string) (interface{}, bool) {
	for _, f := range r.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

func (r Record) String() string {
	return fmt.Sprintf("[%s] %s", r.Level, r.Msg)
}

// Recorder implements Logger by keeping every record in memory.
// It is safe for concurrent use and intended for tests.
type Recorder struct {
	mu      sync.Mutex
	records []Record
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Debug(msg string, fields ...Field) { r.add("DEBUG", msg, fields) }
func (r *Recorder) Info(msg string, fields ...Field)  { r.add("INFO", msg, fields) }
func (r *Recorder) Warn(msg string, fields ...Field)  { r.add("WARN", msg, fields) }
func (r *Recorder) Error(msg string, fields ...Field) { r.add("ERROR", msg, fields) }

func (r *Recorder) add(level, msg string, fields []Field) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, Record{Level: level, Msg: msg, Fields: append([]Field(nil), fields...)})
}

// Records returns a copy of the captured records.
func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Record(nil), r.records...)
}

// ByLevel returns the captured records with the given level.
func (r *Recorder) ByLevel(level string) []Record {
	var out []Record
	for _, rec := range r.Records() {
		if rec.Level == level {
			out = append(out, rec)
		}
	}
	return out
}

var (
	_ Logger = (*Recorder)(nil)
	_ Logger = NoopLogger{}
	_ Logger = (*ZerologAdapter)(nil)
)
