package editor

import (
	"context"

	"github.com/hpungsan/kb/internal/topic"
)

// Store is the remote topic store as seen by the editor.
type Store interface {
	List(ctx context.Context) ([]topic.Topic, error)
	Get(ctx context.Context, id topic.ID) (*topic.Topic, error)
	Create(ctx context.Context, t topic.Topic) (*topic.Topic, error)
	Update(ctx context.Context, id topic.ID, t topic.Topic) (*topic.Topic, error)
	Delete(ctx context.Context, id topic.ID) error
}

// Op is one remote operation.
type Op interface {
	// Name is a short verb used in notices and logs.
	Name() string
	isOp()
}

// Load fetches the whole collection.
type Load struct{}

// Create stores a new topic.
type Create struct {
	Topic topic.Topic
}

// Update replaces the topic addressed by ID.
type Update struct {
	ID    topic.ID
	Topic topic.Topic
}

// Delete removes the topic addressed by ID.
type Delete struct {
	ID topic.ID
}

func (Load) Name() string   { return "load" }
func (Create) Name() string { return "create" }
func (Update) Name() string { return "update" }
func (Delete) Name() string { return "delete" }

func (Load) isOp()   {}
func (Create) isOp() {}
func (Update) isOp() {}
func (Delete) isOp() {}

// SubmitOp returns the mutation a submit of f performs, with tags normalized.
func SubmitOp(f Form) Op {
	switch f := f.(type) {
	case Revise:
		return Update{ID: f.ID, Topic: f.Draft.Topic(f.ID)}
	case Compose:
		return Create{Topic: f.Draft.Topic("")}
	}
	return Create{Topic: Draft{}.Topic("")}
}

// Outcome is a settled operation together with the refresh that followed it.
type Outcome struct {
	Op  Op
	Err error

	// Saved is the record the store returned for a successful create or update.
	Saved *topic.Topic

	// Topics is the refreshed collection; nil when the refresh failed.
	Topics     []topic.Topic
	RefreshErr error
}

// Mutation reports whether the outcome belongs to a store-changing operation.
func (o Outcome) Mutation() bool {
	_, load := o.Op.(Load)
	return !load
}

// Run performs op and then refreshes the collection, whether or not op succeeded.
// For Load, the operation and the refresh are the same single fetch.
func Run(ctx context.Context, store Store, op Op) Outcome {
	out := Outcome{Op: op}

	switch op := op.(type) {
	case Load:
		out.Topics, out.RefreshErr = store.List(ctx)
		out.Err = out.RefreshErr
		if out.Err != nil {
			out.Topics = nil
		}
		return out
	case Create:
		out.Saved, out.Err = store.Create(ctx, op.Topic)
	case Update:
		out.Saved, out.Err = store.Update(ctx, op.ID, op.Topic)
	case Delete:
		out.Err = store.Delete(ctx, op.ID)
	}

	out.Topics, out.RefreshErr = store.List(ctx)
	if out.RefreshErr != nil {
		out.Topics = nil
	}
	return out
}
