package editor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hpungsan/kb/internal/topic"
)

func TestRows(t *testing.T) {
	long := strings.Repeat("a", 150)
	rows := Rows([]topic.Topic{
		{ID: "2", Title: "Second", Content: "short", Tags: []string{"x", "y"}},
		{ID: "1", Title: "First", Content: long, Tags: []string{}},
	})

	assert.Equal(t, []Row{
		{ID: "2", Title: "Second", Preview: "short...", Tags: "x, y"},
		{ID: "1", Title: "First", Preview: strings.Repeat("a", 100) + "...", Tags: ""},
	}, rows)
}

func TestRow_Secondary(t *testing.T) {
	r := Row{Preview: "short...", Tags: "x, y"}
	assert.Equal(t, "short... | Tags: x, y", r.Secondary())
}

func TestRows_Empty(t *testing.T) {
	assert.Empty(t, Rows(nil))
}
