package editor

import (
	"fmt"
	"time"

	"github.com/hpungsan/kb/internal/errors"
	"github.com/hpungsan/kb/internal/topic"
)

// Notice is a user-visible, non-fatal report of a failed operation.
type Notice struct {
	Op      string           `json:"op"`
	Code    errors.ErrorCode `json:"code"`
	Message string           `json:"message"`
	At      time.Time        `json:"at"`
}

// Text renders the notice for display.
func (n Notice) Text() string {
	return fmt.Sprintf("%s failed: %s", n.Op, n.Message)
}

// Ticket identifies an operation in flight. It remembers which form mode was
// current when the operation began.
type Ticket struct {
	Op  Op
	gen uint64
}

// Session is the editor state owned by a single event loop: the form, the
// collection mirror, and the latest notice. It performs no I/O and is not safe
// for concurrent use; Controller adds locking for shared front ends.
type Session struct {
	form   Form
	topics []topic.Topic
	loaded bool
	notice *Notice

	// gen counts mode transitions (entering, leaving, or switching Revise).
	gen uint64
	now func() time.Time
}

// NewSession returns a session in Compose mode with an empty, not yet loaded mirror.
func NewSession() *Session {
	return &Session{
		form:   NewForm(),
		topics: []topic.Topic{},
		now:    time.Now,
	}
}

// Form returns the current form.
func (s *Session) Form() Form {
	return s.form
}

// Topics returns a copy of the mirrored collection, in store order.
func (s *Session) Topics() []topic.Topic {
	return append([]topic.Topic{}, s.topics...)
}

// Loaded reports whether at least one fetch has succeeded.
func (s *Session) Loaded() bool {
	return s.loaded
}

// Notice returns the latest failure notice, or nil.
func (s *Session) Notice() *Notice {
	if s.notice == nil {
		return nil
	}
	n := *s.notice
	return &n
}

// ClearNotice dismisses the current notice.
func (s *Session) ClearNotice() {
	s.notice = nil
}

// Find looks up a mirrored topic by id.
func (s *Session) Find(id topic.ID) (topic.Topic, bool) {
	for _, t := range s.topics {
		if t.ID == id {
			return t, true
		}
	}
	return topic.Topic{}, false
}

// Dispatch applies ev to the form and returns the new form.
func (s *Session) Dispatch(ev Event) Form {
	if _, field := ev.(FieldChanged); !field {
		s.gen++
	}
	s.form = Reduce(s.form, ev)
	return s.form
}

// Begin records the start of op.
func (s *Session) Begin(op Op) Ticket {
	return Ticket{Op: op, gen: s.gen}
}

// Submit returns the mutation for the current form and its ticket.
func (s *Session) Submit() (Op, Ticket) {
	op := SubmitOp(s.form)
	return op, s.Begin(op)
}

// Settle applies a finished operation:
//   - a successful refresh replaces the mirror whole; a failed one keeps the previous snapshot
//   - a successful submit returns the form to Compose unless the mode changed since Begin;
//     a successful create empties the compose draft either way
//   - any failure leaves the draft intact and raises a notice
func (s *Session) Settle(t Ticket, o Outcome) {
	failed := false

	if o.Mutation() && o.Err != nil {
		s.raise(o.Op.Name(), o.Err)
		failed = true
	}

	if o.Err == nil {
		switch o.Op.(type) {
		case Create, Update:
			if t.gen == s.gen {
				s.Dispatch(Submitted{})
			} else if _, ok := o.Op.(Create); ok {
				s.clearComposeDraft()
			}
		}
	}

	if o.RefreshErr != nil {
		if !failed {
			s.raise(Load{}.Name(), o.RefreshErr)
		}
		failed = true
	} else if o.Topics != nil {
		s.topics = append([]topic.Topic{}, o.Topics...)
		s.loaded = true
	}

	if !failed {
		s.notice = nil
	}
}

// clearComposeDraft empties the new-topic draft without changing mode.
func (s *Session) clearComposeDraft() {
	switch f := s.form.(type) {
	case Compose:
		s.form = Compose{}
	case Revise:
		f.Suspended = Draft{}
		s.form = f
	}
}

func (s *Session) raise(op string, err error) {
	kbErr := errors.As(err)
	s.notice = &Notice{
		Op:      op,
		Code:    kbErr.Code,
		Message: kbErr.Message,
		At:      s.now(),
	}
}

// Rows renders the mirror for display.
func (s *Session) Rows() []Row {
	return Rows(s.topics)
}
