package topic

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTags(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"single tag", "foo", []string{"foo"}},
		{"two tags", "p, q", []string{"p", "q"}},
		{"surrounding spaces", " a, b ,c", []string{"a", "b", "c"}},
		{"trailing comma keeps empty tag", " a, b ,c,", []string{"a", "b", "c", ""}},
		{"leading comma keeps empty tag", ",a", []string{"", "a"}},
		{"consecutive commas", "a,,b", []string{"a", "", "b"}},
		{"empty string", "", []string{""}},
		{"whitespace only", "   ", []string{""}},
		{"order preserved", "z,y,x", []string{"z", "y", "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitTags(tt.input))
		})
	}
}

func TestJoinTags(t *testing.T) {
	assert.Equal(t, "x, y", JoinTags([]string{"x", "y"}))
	assert.Equal(t, "", JoinTags(nil))
	assert.Equal(t, "a, ", JoinTags([]string{"a", ""}))
}

func TestJoinThenSplit(t *testing.T) {
	tags := []string{"x", "y", "causal graphs"}
	assert.Equal(t, tags, SplitTags(JoinTags(tags)))
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"empty content", "", "..."},
		{"short content still gets marker", "hello", "hello..."},
		{"exactly limit", strings.Repeat("a", 100), strings.Repeat("a", 100) + "..."},
		{"over limit is cut", strings.Repeat("a", 100) + "bcd", strings.Repeat("a", 100) + "..."},
		{"multi-byte characters", strings.Repeat("é", 150), strings.Repeat("é", 100) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Preview(tt.content))
		})
	}
}

func TestTopicJSON_NumericID(t *testing.T) {
	var tp Topic
	require.NoError(t, json.Unmarshal([]byte(`{"id":7,"title":"A","content":"B","tags":["x","y"]}`), &tp))

	assert.Equal(t, ID("7"), tp.ID)
	assert.Equal(t, []string{"x", "y"}, tp.Tags)

	out, err := json.Marshal(tp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":7,"title":"A","content":"B","tags":["x","y"]}`, string(out))
}

func TestTopicJSON_StringID(t *testing.T) {
	var tp Topic
	require.NoError(t, json.Unmarshal([]byte(`{"id":"01HZX","title":"A","content":"","tags":[]}`), &tp))
	assert.Equal(t, ID("01HZX"), tp.ID)

	out, err := json.Marshal(tp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"01HZX","title":"A","content":"","tags":[]}`, string(out))
}

func TestTopicJSON_LeadingZeroStaysString(t *testing.T) {
	out, err := json.Marshal(Topic{ID: "007", Title: "t"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"007","title":"t","content":"","tags":[]}`, string(out))
}

func TestTopicJSON_NewTopicOmitsID(t *testing.T) {
	out, err := json.Marshal(Topic{Title: "X", Content: "Y", Tags: []string{"p", "q"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"X","content":"Y","tags":["p","q"]}`, string(out))
}

func TestTopicJSON_NullTags(t *testing.T) {
	var tp Topic
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"title":"A","content":"B","tags":null}`), &tp))
	assert.NotNil(t, tp.Tags)
	assert.Empty(t, tp.Tags)
}

func TestID_RejectsObjects(t *testing.T) {
	var id ID
	assert.Error(t, json.Unmarshal([]byte(`{"x":1}`), &id))
}
