package editor

import "github.com/hpungsan/kb/internal/topic"

// Row is one rendered line of the topic list.
type Row struct {
	ID      topic.ID `json:"id"`
	Title   string   `json:"title"`
	Preview string   `json:"preview"`
	Tags    string   `json:"tags"`
}

// Secondary is the row's second line: preview and tags.
func (r Row) Secondary() string {
	return r.Preview + " | Tags: " + r.Tags
}

// Rows renders topics in the order given; no sorting is applied.
func Rows(topics []topic.Topic) []Row {
	rows := make([]Row, len(topics))
	for i, t := range topics {
		rows[i] = Row{
			ID:      t.ID,
			Title:   t.Title,
			Preview: topic.Preview(t.Content),
			Tags:    topic.JoinTags(t.Tags),
		}
	}
	return rows
}
