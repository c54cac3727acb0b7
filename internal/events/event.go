// internal/events/event.go
package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type identifies the kind of an event. Listeners and the recorder use it to
// route or label events without type switches.
type Type string

const (
	TypeException    Type = "exception"
	TypeTextSet      Type = "textSet"
	TypeTextAppended Type = "textAppended"
	TypeTextCleared  Type = "textCleared"
	TypeColorSet     Type = "colorSet"
	TypeColorCleared Type = "colorCleared"
	TypeEmailSet     Type = "emailSet"
	TypeEmailCleared Type = "emailCleared"
	TypeRangeSet     Type = "rangeSet"
	TypeRangeCleared Type = "rangeCleared"
	TypeURLSet       Type = "urlSet"
	TypeURLCleared   Type = "urlCleared"
)

// Subject is anything an event can be about. Page objects satisfy it through
// their selector based identity.
type Subject interface {
	Identity() string
}

// Event is the common contract of everything fired through a Bus.
type Event interface {
	ID() string
	Timestamp() time.Time
	Type() Type
	Subject() Subject
	Message() string
}

// Base carries the envelope data shared by all events.
type Base struct {
	EventID string
	Time    time.Time
	Source  Subject
}

func newBase(subject Subject) Base {
	return Base{
		EventID: uuid.New().String(),
		Time:    time.Now().UTC(),
		Source:  subject,
	}
}

func (b Base) ID() string           { return b.EventID }
func (b Base) Timestamp() time.Time { return b.Time }
func (b Base) Subject() Subject     { return b.Source }

// SubjectName renders the subject for messages, tolerating a nil subject.
func (b Base) SubjectName() string {
	if b.Source == nil {
		return "<unknown>"
	}
	return b.Source.Identity()
}

// ExceptionEvent is fired whenever an action against a page object ends in a
// terminal failure.
type ExceptionEvent struct {
	Base
	Err error
}

// NewExceptionEvent creates an ExceptionEvent for the given subject and failure.
func NewExceptionEvent(subject Subject, err error) *ExceptionEvent {
	return &ExceptionEvent{Base: newBase(subject), Err: err}
}

func (e *ExceptionEvent) Type() Type { return TypeException }

func (e *ExceptionEvent) Message() string {
	return fmt.Sprintf("exception while acting on %s: %v", e.SubjectName(), e.Err)
}
