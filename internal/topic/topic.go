package topic

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Topic is a knowledge-base record as exchanged with the topic store.
type Topic struct {
	// ID is assigned by the store; empty for a topic not yet created
	ID ID `json:"id,omitempty"`

	Title   string `json:"title"`
	Content string `json:"content"`

	// Tags is an ordered list of tag tokens (always a JSON array on the wire)
	Tags []string `json:"tags"`
}

// MarshalJSON emits an empty tag list as [] rather than null.
func (t Topic) MarshalJSON() ([]byte, error) {
	type wire Topic
	w := wire(t)
	if w.Tags == nil {
		w.Tags = []string{}
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes a missing or null tag list as an empty list.
func (t *Topic) UnmarshalJSON(data []byte) error {
	type wire Topic
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Tags == nil {
		w.Tags = []string{}
	}
	*t = Topic(w)
	return nil
}

// ID is an opaque topic identifier.
// The store may issue numbers or strings; ID keeps whichever form it received
// and emits it back the same way.
type ID string

// String returns the identifier as text (suitable for URL paths).
func (id ID) String() string {
	return string(id)
}

// MarshalJSON writes numeric identifiers as JSON numbers and everything else as strings.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.numeric() {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON accepts a JSON number or a JSON string.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("topic id must be a number or string: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) numeric() bool {
	if id == "" {
		return false
	}
	n, err := strconv.ParseInt(string(id), 10, 64)
	return err == nil && strconv.FormatInt(n, 10) == string(id)
}
