// internal/events/listeners.go
package events

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// LoggingListener writes every event to a zap logger. Exceptions are logged at
// warn level, everything else at debug.
type LoggingListener struct {
	logger *zap.Logger
}

// NewLoggingListener creates a LoggingListener.
func NewLoggingListener(logger *zap.Logger) *LoggingListener {
	return &LoggingListener{logger: logger.Named("events")}
}

// EventOccurred implements Listener.
func (l *LoggingListener) EventOccurred(e Event) {
	fields := []zap.Field{
		zap.String("type", string(e.Type())),
		zap.String("id", e.ID()),
	}
	if ex, ok := e.(*ExceptionEvent); ok {
		l.logger.Warn(e.Message(), append(fields, zap.Error(ex.Err))...)
		return
	}
	l.logger.Debug(e.Message(), fields...)
}

// record is the JSON line shape written by Recorder.
type record struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      Type      `json:"type"`
	Subject   string    `json:"subject,omitempty"`
	Message   string    `json:"message"`
	Before    *string   `json:"before,omitempty"`
	After     *string   `json:"after,omitempty"`
	Requested *string   `json:"requested,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Recorder writes each event as one JSON document per line.
type Recorder struct {
	mu     sync.Mutex
	w      io.Writer
	logger *zap.Logger
	count  int
}

// NewRecorder creates a Recorder writing to w.
func NewRecorder(w io.Writer, logger *zap.Logger) *Recorder {
	return &Recorder{w: w, logger: logger.Named("event_recorder")}
}

// EventOccurred implements Listener. Write failures are logged, not returned,
// since firing events must never fail an action.
func (r *Recorder) EventOccurred(e Event) {
	line, err := json.Marshal(toRecord(e))
	if err != nil {
		r.logger.Error("Failed to encode event.", zap.String("id", e.ID()), zap.Error(err))
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.w.Write(append(line, '\n')); err != nil {
		r.logger.Error("Failed to write event.", zap.String("id", e.ID()), zap.Error(err))
		return
	}
	r.count++
}

// Count returns the number of events written so far.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

func toRecord(e Event) record {
	rec := record{
		ID:        e.ID(),
		Timestamp: e.Timestamp(),
		Type:      e.Type(),
		Message:   e.Message(),
	}
	if s := e.Subject(); s != nil {
		rec.Subject = s.Identity()
	}

	switch ev := e.(type) {
	case *ExceptionEvent:
		if ev.Err != nil {
			rec.Error = ev.Err.Error()
		}
	case *ValueSetEvent:
		rec.Before, rec.After, rec.Requested = &ev.Before, &ev.After, &ev.Requested
	case *ValueClearedEvent:
		rec.Before, rec.After = &ev.Before, &ev.After
	case *TextAppendedEvent:
		rec.Before, rec.After, rec.Requested = &ev.Before, &ev.After, &ev.Appended
	}
	return rec
}

// DecodeRecords reads the JSON lines produced by a Recorder.
func DecodeRecords(r io.Reader) ([]map[string]any, error) {
	dec := json.NewDecoder(r)
	var out []map[string]any
	for {
		var m map[string]any
		if err := dec.Decode(&m); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return out, fmt.Errorf("failed to decode event record %d: %w", len(out)+1, err)
		}
		out = append(out, m)
	}
}
