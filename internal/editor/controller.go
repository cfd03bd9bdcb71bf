package editor

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/hpungsan/kb/internal/errors"
	"github.com/hpungsan/kb/internal/topic"
)

// Controller is a Session shared by concurrent callers (HTTP handlers, CLI commands).
// State is guarded by a mutex that is never held across store calls, so readers
// always see a whole snapshot while operations overlap freely.
type Controller struct {
	mu      sync.Mutex
	session *Session
	store   Store
	log     zerolog.Logger
}

// NewController creates a controller in Compose mode. Call Load to fill the mirror.
func NewController(store Store, log zerolog.Logger) *Controller {
	return &Controller{
		session: NewSession(),
		store:   store,
		log:     log,
	}
}

// Store returns the underlying store (read-only operations such as Get).
func (c *Controller) Store() Store {
	return c.store
}

// Load replaces the mirror with the store's current collection.
// On failure the previous snapshot is kept and a notice is raised.
func (c *Controller) Load(ctx context.Context) error {
	o := c.run(ctx, Load{}, c.begin(Load{}))
	return o.Err
}

// Submit sends the active draft (create in Compose, update in Revise) and refreshes.
// It returns the stored record and the mutation error; a refresh failure is
// reported through Notice only.
func (c *Controller) Submit(ctx context.Context) (*topic.Topic, error) {
	c.mu.Lock()
	op, t := c.session.Submit()
	c.mu.Unlock()

	o := c.run(ctx, op, t)
	return o.Saved, o.Err
}

// Delete removes a topic and refreshes, whatever the delete's result.
func (c *Controller) Delete(ctx context.Context, id topic.ID) error {
	if id == "" {
		return errors.NewInvalidRequest("topic id is required")
	}
	op := Delete{ID: id}
	o := c.run(ctx, op, c.begin(op))
	return o.Err
}

// Change sets one field of the active draft.
func (c *Controller) Change(field Field, value string) Form {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Dispatch(FieldChanged{Field: field, Value: value})
}

// Edit starts revising t.
func (c *Controller) Edit(t topic.Topic) Form {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Dispatch(EditRequested{Topic: t})
}

// EditByID starts revising the mirrored topic with the given id.
func (c *Controller) EditByID(id topic.ID) (Form, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.session.Find(id)
	if !ok {
		return c.session.Form(), errors.NewNotFound(id.String())
	}
	return c.session.Dispatch(EditRequested{Topic: t}), nil
}

// Abandon leaves Revise without saving, restoring the suspended compose draft.
func (c *Controller) Abandon() Form {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Dispatch(EditAbandoned{})
}

// Form returns the current form.
func (c *Controller) Form() Form {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Form()
}

// Topics returns the current snapshot of the mirror.
func (c *Controller) Topics() []topic.Topic {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Topics()
}

// Rows returns the rendered list for the current snapshot.
func (c *Controller) Rows() []Row {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Rows()
}

// Loaded reports whether the mirror has been fetched at least once.
func (c *Controller) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Loaded()
}

// Notice returns the latest failure notice, or nil.
func (c *Controller) Notice() *Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Notice()
}

// ClearNotice dismisses the current notice.
func (c *Controller) ClearNotice() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.ClearNotice()
}

func (c *Controller) begin(op Op) Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Begin(op)
}

// run performs op with the lock released, then settles it under the lock.
func (c *Controller) run(ctx context.Context, op Op, t Ticket) Outcome {
	o := Run(ctx, c.store, op)

	if o.Err != nil {
		c.log.Warn().Err(o.Err).Str("op", op.Name()).Msg("topic operation failed")
	} else if o.RefreshErr != nil {
		c.log.Warn().Err(o.RefreshErr).Str("op", op.Name()).Msg("refresh after operation failed")
	} else {
		c.log.Debug().Str("op", op.Name()).Int("topics", len(o.Topics)).Msg("topic operation settled")
	}

	c.mu.Lock()
	c.session.Settle(t, o)
	c.mu.Unlock()
	return o
}
