// Package editor is the Topic List Editor shared by every kb front end: the
// collection mirror, the compose/revise form, and the remote operations that
// mutate the store and then refresh the mirror.
package editor

import "github.com/hpungsan/kb/internal/topic"

// Field names a draft field.
type Field string

const (
	FieldTitle   Field = "title"
	FieldContent Field = "content"
	FieldTags    Field = "tags"
)

// Fields lists the draft fields in form order.
var Fields = []Field{FieldTitle, FieldContent, FieldTags}

// Draft is the editable, client-only copy of a topic. Tags are free text.
type Draft struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Tags    string `json:"tags"`
}

// DraftOf captures a topic as a draft, joining its tags into editable text.
func DraftOf(t topic.Topic) Draft {
	return Draft{
		Title:   t.Title,
		Content: t.Content,
		Tags:    topic.JoinTags(t.Tags),
	}
}

// Topic normalizes the draft into a record carrying id (empty for new topics).
func (d Draft) Topic(id topic.ID) topic.Topic {
	return topic.Topic{
		ID:      id,
		Title:   d.Title,
		Content: d.Content,
		Tags:    topic.SplitTags(d.Tags),
	}
}

// Get returns the value of field f.
func (d Draft) Get(f Field) string {
	switch f {
	case FieldTitle:
		return d.Title
	case FieldContent:
		return d.Content
	case FieldTags:
		return d.Tags
	}
	return ""
}

// With returns a copy of d with field f set to v. Unknown fields leave d unchanged.
func (d Draft) With(f Field, v string) Draft {
	switch f {
	case FieldTitle:
		d.Title = v
	case FieldContent:
		d.Content = v
	case FieldTags:
		d.Tags = v
	}
	return d
}

// Form is the state of the single editing form: exactly one of Compose or Revise.
type Form interface {
	// Active returns the draft the form fields are bound to.
	Active() Draft
	isForm()
}

// Compose is the form creating a new topic.
type Compose struct {
	Draft Draft
}

// Revise is the form editing an existing topic. Suspended holds the compose
// draft that was in progress when editing began; it comes back on leaving Revise.
type Revise struct {
	ID        topic.ID
	Draft     Draft
	Suspended Draft
}

func (c Compose) Active() Draft { return c.Draft }
func (r Revise) Active() Draft  { return r.Draft }

func (Compose) isForm() {}
func (Revise) isForm()  {}

// NewForm returns the initial form: Compose with an empty draft.
func NewForm() Form {
	return Compose{}
}

// Editing reports the topic being revised, if any.
func Editing(f Form) (topic.ID, bool) {
	if r, ok := f.(Revise); ok {
		return r.ID, true
	}
	return "", false
}

// SubmitLabel is the caption of the form's submit action.
func SubmitLabel(f Form) string {
	if _, ok := f.(Revise); ok {
		return "Update Topic"
	}
	return "Add Topic"
}
