package editor

import "github.com/hpungsan/kb/internal/topic"

// Event is a user action on the form.
type Event interface {
	isEvent()
}

// FieldChanged sets one field of the active draft.
type FieldChanged struct {
	Field Field
	Value string
}

// EditRequested starts revising a listed topic.
type EditRequested struct {
	Topic topic.Topic
}

// Submitted records that the form's mutation succeeded.
type Submitted struct{}

// EditAbandoned leaves Revise without saving.
type EditAbandoned struct{}

func (FieldChanged) isEvent()  {}
func (EditRequested) isEvent() {}
func (Submitted) isEvent()     {}
func (EditAbandoned) isEvent() {}

// Reduce returns the form that results from applying ev to f.
// Only the active draft is ever modified; a suspended compose draft is carried untouched.
func Reduce(f Form, ev Event) Form {
	switch f := f.(type) {
	case Compose:
		switch ev := ev.(type) {
		case FieldChanged:
			return Compose{Draft: f.Draft.With(ev.Field, ev.Value)}
		case EditRequested:
			return Revise{ID: ev.Topic.ID, Draft: DraftOf(ev.Topic), Suspended: f.Draft}
		case Submitted:
			return Compose{}
		case EditAbandoned:
			return f
		}
	case Revise:
		switch ev := ev.(type) {
		case FieldChanged:
			f.Draft = f.Draft.With(ev.Field, ev.Value)
			return f
		case EditRequested:
			return Revise{ID: ev.Topic.ID, Draft: DraftOf(ev.Topic), Suspended: f.Suspended}
		case Submitted, EditAbandoned:
			return Compose{Draft: f.Suspended}
		}
	case nil:
		return Reduce(NewForm(), ev)
	}
	return f
}
