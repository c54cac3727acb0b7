// internal/events/field_events.go
package events

import "fmt"

// Field names the kind of form field a change event originates from.
type Field string

const (
	FieldText  Field = "text"
	FieldColor Field = "color"
	FieldEmail Field = "email"
	FieldRange Field = "range"
	FieldURL   Field = "url"
)

var setTypes = map[Field]Type{
	FieldText:  TypeTextSet,
	FieldColor: TypeColorSet,
	FieldEmail: TypeEmailSet,
	FieldRange: TypeRangeSet,
	FieldURL:   TypeURLSet,
}

var clearedTypes = map[Field]Type{
	FieldText:  TypeTextCleared,
	FieldColor: TypeColorCleared,
	FieldEmail: TypeEmailCleared,
	FieldRange: TypeRangeCleared,
	FieldURL:   TypeURLCleared,
}

// ValueSetEvent occurs whenever the value of a field is replaced. It keeps the
// value before and after the change as well as the value that was requested,
// which may differ from After when the browser normalizes the input.
type ValueSetEvent struct {
	Base
	Field     Field
	Before    string
	After     string
	Requested string
}

// NewValueSetEvent creates a ValueSetEvent.
func NewValueSetEvent(subject Subject, field Field, before, after, requested string) *ValueSetEvent {
	return &ValueSetEvent{
		Base:      newBase(subject),
		Field:     field,
		Before:    before,
		After:     after,
		Requested: requested,
	}
}

func (e *ValueSetEvent) Type() Type { return setTypes[e.Field] }

func (e *ValueSetEvent) Message() string {
	return fmt.Sprintf("changed %s of %s from '%s' to '%s' by trying to set it to '%s'",
		e.Field, e.SubjectName(), e.Before, e.After, e.Requested)
}

// ValueClearedEvent occurs whenever a field is cleared or reset to its default.
type ValueClearedEvent struct {
	Base
	Field  Field
	Before string
	After  string
}

// NewValueClearedEvent creates a ValueClearedEvent.
func NewValueClearedEvent(subject Subject, field Field, before, after string) *ValueClearedEvent {
	return &ValueClearedEvent{
		Base:   newBase(subject),
		Field:  field,
		Before: before,
		After:  after,
	}
}

func (e *ValueClearedEvent) Type() Type { return clearedTypes[e.Field] }

func (e *ValueClearedEvent) Message() string {
	return fmt.Sprintf("changed %s of %s from '%s' to '%s' by clearing it",
		e.Field, e.SubjectName(), e.Before, e.After)
}

// TextAppendedEvent occurs whenever text is appended to a text field.
type TextAppendedEvent struct {
	Base
	Before   string
	After    string
	Appended string
}

// NewTextAppendedEvent creates a TextAppendedEvent.
func NewTextAppendedEvent(subject Subject, before, after, appended string) *TextAppendedEvent {
	return &TextAppendedEvent{
		Base:     newBase(subject),
		Before:   before,
		After:    after,
		Appended: appended,
	}
}

func (e *TextAppendedEvent) Type() Type { return TypeTextAppended }

func (e *TextAppendedEvent) Message() string {
	return fmt.Sprintf("changed text of %s from '%s' to '%s' by appending '%s'",
		e.SubjectName(), e.Before, e.After, e.Appended)
}
