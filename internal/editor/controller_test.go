package editor_test

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/kb/internal/editor"
	"github.com/hpungsan/kb/internal/errors"
	"github.com/hpungsan/kb/internal/remote"
	"github.com/hpungsan/kb/internal/storetest"
	"github.com/hpungsan/kb/internal/topic"
)

func newController(t *testing.T, seed ...topic.Topic) (*editor.Controller, *storetest.Store) {
	t.Helper()
	store := storetest.New(t, seed...)
	client, err := remote.New(store.URL())
	require.NoError(t, err)
	return editor.NewController(client, zerolog.Nop()), store
}

func TestController_Load(t *testing.T) {
	c, store := newController(t,
		topic.Topic{Title: "DAGs", Content: "Directed acyclic graphs", Tags: []string{"graphs"}},
	)
	require.False(t, c.Loaded())

	require.NoError(t, c.Load(context.Background()))
	assert.True(t, c.Loaded())
	assert.Equal(t, []editor.Row{
		{ID: "1", Title: "DAGs", Preview: "Directed acyclic graphs...", Tags: "graphs"},
	}, c.Rows())
	assert.Equal(t, []string{"GET /topics"}, store.Calls())
}

func TestController_ComposeSubmit(t *testing.T) {
	c, store := newController(t)
	ctx := context.Background()
	require.NoError(t, c.Load(ctx))
	store.Reset()

	c.Change(editor.FieldTitle, "X")
	c.Change(editor.FieldContent, "Y")
	c.Change(editor.FieldTags, "p, q")
	saved, err := c.Submit(ctx)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, topic.ID("1"), saved.ID)

	reqs := store.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "POST /topics", reqs[0].Method+" "+reqs[0].Path)
	assert.Equal(t, map[string]any{
		"title":   "X",
		"content": "Y",
		"tags":    []any{"p", "q"},
	}, reqs[0].Body)
	assert.Equal(t, "GET /topics", reqs[1].Method+" "+reqs[1].Path)

	assert.Equal(t, editor.Compose{}, c.Form())
	require.Len(t, c.Topics(), 1)
	assert.Equal(t, "X", c.Topics()[0].Title)
	assert.Nil(t, c.Notice())
}

func TestController_EditPopulatesDraft(t *testing.T) {
	c, _ := newController(t, topic.Topic{ID: "7", Title: "A", Content: "B", Tags: []string{"x", "y"}})
	require.NoError(t, c.Load(context.Background()))

	f, err := c.EditByID("7")
	require.NoError(t, err)

	r, ok := f.(editor.Revise)
	require.True(t, ok)
	assert.Equal(t, topic.ID("7"), r.ID)
	assert.Equal(t, editor.Draft{Title: "A", Content: "B", Tags: "x, y"}, r.Draft)
	assert.Equal(t, "Update Topic", editor.SubmitLabel(f))
}

func TestController_EditByIDUnknown(t *testing.T) {
	c, _ := newController(t)
	require.NoError(t, c.Load(context.Background()))

	f, err := c.EditByID("42")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	assert.Equal(t, editor.Compose{}, f)
}

func TestController_ReviseSubmit(t *testing.T) {
	c, store := newController(t, topic.Topic{ID: "7", Title: "A", Content: "B", Tags: []string{"x", "y"}})
	ctx := context.Background()
	require.NoError(t, c.Load(ctx))

	_, err := c.EditByID("7")
	require.NoError(t, err)
	c.Change(editor.FieldTitle, "A2")
	store.Reset()

	_, err = c.Submit(ctx)
	require.NoError(t, err)

	reqs := store.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "PUT /topics/7", reqs[0].Method+" "+reqs[0].Path)
	assert.Equal(t, map[string]any{
		"id":      float64(7),
		"title":   "A2",
		"content": "B",
		"tags":    []any{"x", "y"},
	}, reqs[0].Body)
	assert.Equal(t, "GET /topics", reqs[1].Method+" "+reqs[1].Path)

	assert.Equal(t, editor.Compose{}, c.Form())
	assert.Equal(t, "A2", c.Topics()[0].Title)
}

func TestController_Abandon(t *testing.T) {
	c, _ := newController(t, topic.Topic{ID: "7", Title: "A"})
	require.NoError(t, c.Load(context.Background()))

	c.Change(editor.FieldTitle, "pending")
	_, err := c.EditByID("7")
	require.NoError(t, err)

	assert.Equal(t, editor.Compose{Draft: editor.Draft{Title: "pending"}}, c.Abandon())
}

func TestController_DeleteRefreshes(t *testing.T) {
	c, store := newController(t,
		topic.Topic{ID: "7", Title: "A"},
		topic.Topic{ID: "8", Title: "B"},
	)
	ctx := context.Background()
	require.NoError(t, c.Load(ctx))
	store.Reset()

	require.NoError(t, c.Delete(ctx, "7"))
	assert.Equal(t, []string{"DELETE /topics/7", "GET /topics"}, store.Calls())
	require.Len(t, c.Topics(), 1)
	assert.Equal(t, topic.ID("8"), c.Topics()[0].ID)
}

func TestController_DeleteFailureStillRefreshes(t *testing.T) {
	c, store := newController(t, topic.Topic{ID: "7", Title: "A"})
	ctx := context.Background()
	require.NoError(t, c.Load(ctx))
	store.Fail(http.MethodDelete, "/topics/7", http.StatusInternalServerError)
	store.Reset()

	err := c.Delete(ctx, "7")
	assert.True(t, errors.Is(err, errors.ErrRemote))
	assert.Equal(t, []string{"DELETE /topics/7", "GET /topics"}, store.Calls())
	assert.Len(t, c.Topics(), 1)

	n := c.Notice()
	require.NotNil(t, n)
	assert.Equal(t, "delete", n.Op)
}

func TestController_DeleteMissingStillRefreshes(t *testing.T) {
	c, store := newController(t)
	ctx := context.Background()

	err := c.Delete(ctx, "99")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	assert.Equal(t, []string{"DELETE /topics/99", "GET /topics"}, store.Calls())
	assert.True(t, c.Loaded())
}

func TestController_DeleteRequiresID(t *testing.T) {
	c, store := newController(t)
	err := c.Delete(context.Background(), "")
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
	assert.Empty(t, store.Calls())
}

func TestController_FailedSubmitKeepsDraft(t *testing.T) {
	c, store := newController(t)
	ctx := context.Background()
	store.Fail(http.MethodPost, "/topics", http.StatusBadRequest)

	c.Change(editor.FieldTitle, "X")
	saved, err := c.Submit(ctx)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
	assert.Nil(t, saved)

	assert.Equal(t, editor.Compose{Draft: editor.Draft{Title: "X"}}, c.Form())
	assert.Equal(t, []string{"POST /topics", "GET /topics"}, store.Calls())
	require.NotNil(t, c.Notice())

	store.Heal()
	_, err = c.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, editor.Compose{}, c.Form())
	assert.Nil(t, c.Notice())
}

func TestController_FailedLoadKeepsSnapshot(t *testing.T) {
	c, store := newController(t, topic.Topic{ID: "7", Title: "A"})
	ctx := context.Background()
	require.NoError(t, c.Load(ctx))

	store.Fail(http.MethodGet, "/topics", http.StatusBadGateway)
	assert.Error(t, c.Load(ctx))
	assert.Len(t, c.Topics(), 1)
	require.NotNil(t, c.Notice())

	c.ClearNotice()
	assert.Nil(t, c.Notice())
}

func TestController_ConcurrentUse(t *testing.T) {
	c, store := newController(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Load(ctx)
			_ = c.Rows()
			c.Change(editor.FieldContent, "typing")
		}()
	}
	wg.Wait()

	assert.True(t, c.Loaded())
	assert.Len(t, store.Calls(), 8)
}
