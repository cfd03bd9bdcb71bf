package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/kb/internal/errors"
	"github.com/hpungsan/kb/internal/storetest"
	"github.com/hpungsan/kb/internal/topic"
)

func newClient(t *testing.T, store *storetest.Store) *Client {
	t.Helper()
	c, err := New(store.URL())
	require.NoError(t, err)
	return c
}

func TestNew_InvalidURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:5000", "/api", "://bad"} {
		_, err := New(raw)
		assert.True(t, errors.Is(err, errors.ErrInvalidRequest), "New(%q) err = %v", raw, err)
	}
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	c, err := New("http://localhost:5000/api/")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000/api", c.BaseURL())
}

func TestList(t *testing.T) {
	store := storetest.New(t,
		topic.Topic{Title: "DAGs", Content: "Directed acyclic graphs", Tags: []string{"graphs"}},
		topic.Topic{Title: "IV", Content: "Instrumental variables", Tags: []string{"iv", "econometrics"}},
	)
	c := newClient(t, store)

	topics, err := c.List(context.Background())
	require.NoError(t, err)
	require.Len(t, topics, 2)
	assert.Equal(t, topic.ID("1"), topics[0].ID)
	assert.Equal(t, "DAGs", topics[0].Title)
	assert.Equal(t, []string{"iv", "econometrics"}, topics[1].Tags)

	assert.Equal(t, []string{"GET /topics"}, store.Calls())
}

func TestList_EmptyCollection(t *testing.T) {
	c := newClient(t, storetest.New(t))

	topics, err := c.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, topics)
	assert.Empty(t, topics)
}

func TestCreate_SendsRecordWithoutID(t *testing.T) {
	store := storetest.New(t)
	c := newClient(t, store)

	created, err := c.Create(context.Background(), topic.Topic{
		ID:      "99",
		Title:   "X",
		Content: "Y",
		Tags:    []string{"p", "q"},
	})
	require.NoError(t, err)
	assert.Equal(t, topic.ID("1"), created.ID)

	reqs := store.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "/topics", reqs[0].Path)
	assert.Equal(t, map[string]any{
		"title":   "X",
		"content": "Y",
		"tags":    []any{"p", "q"},
	}, reqs[0].Body)
	assert.Equal(t, "application/json", reqs[0].Header.Get("Content-Type"))
}

func TestUpdate_AddressedByID(t *testing.T) {
	store := storetest.New(t, topic.Topic{ID: "7", Title: "A", Content: "B", Tags: []string{"x", "y"}})
	c := newClient(t, store)

	updated, err := c.Update(context.Background(), "7", topic.Topic{Title: "A2", Content: "B", Tags: []string{"x", "y"}})
	require.NoError(t, err)
	assert.Equal(t, "A2", updated.Title)

	reqs := store.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "PUT /topics/7", reqs[0].Method+" "+reqs[0].Path)
	assert.Equal(t, map[string]any{
		"id":      float64(7),
		"title":   "A2",
		"content": "B",
		"tags":    []any{"x", "y"},
	}, reqs[0].Body)
}

func TestUpdate_RequiresID(t *testing.T) {
	c := newClient(t, storetest.New(t))
	_, err := c.Update(context.Background(), "", topic.Topic{})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestGet(t *testing.T) {
	store := storetest.New(t, topic.Topic{ID: "3", Title: "Backdoor", Content: "criterion"})
	c := newClient(t, store)

	got, err := c.Get(context.Background(), "3")
	require.NoError(t, err)
	assert.Equal(t, "Backdoor", got.Title)
	assert.Equal(t, []string{}, got.Tags)
}

func TestGet_NotFound(t *testing.T) {
	c := newClient(t, storetest.New(t))

	_, err := c.Get(context.Background(), "42")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	assert.Equal(t, "42", errors.As(err).Details["id"])
}

func TestDelete(t *testing.T) {
	store := storetest.New(t, topic.Topic{ID: "7", Title: "A"})
	c := newClient(t, store)

	require.NoError(t, c.Delete(context.Background(), "7"))
	assert.Empty(t, store.Topics())
	assert.Equal(t, []string{"DELETE /topics/7"}, store.Calls())
}

func TestDelete_RemoteFailure(t *testing.T) {
	store := storetest.New(t, topic.Topic{ID: "7", Title: "A"})
	store.Fail(http.MethodDelete, "/topics/7", http.StatusInternalServerError)
	c := newClient(t, store)

	err := c.Delete(context.Background(), "7")
	require.Error(t, err)
	kbErr := errors.As(err)
	assert.Equal(t, errors.ErrRemote, kbErr.Code)
	assert.Equal(t, http.StatusInternalServerError, kbErr.Status)
	assert.Len(t, store.Topics(), 1)
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		code   errors.ErrorCode
	}{
		{http.StatusBadRequest, errors.ErrInvalidRequest},
		{http.StatusNotFound, errors.ErrRemote},
		{http.StatusConflict, errors.ErrConflict},
		{http.StatusBadGateway, errors.ErrRemote},
		{http.StatusUnauthorized, errors.ErrRemote},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			store := storetest.New(t)
			store.Fail(http.MethodGet, "/topics", tt.status)
			c := newClient(t, store)

			_, err := c.List(context.Background())
			assert.True(t, errors.Is(err, tt.code), "err = %v", err)
		})
	}
}

func TestList_WrongBaseURL(t *testing.T) {
	store := storetest.New(t)
	c, err := New(store.Server.URL + "/wrong")
	require.NoError(t, err)

	_, err = c.List(context.Background())
	require.Error(t, err)
	kbErr := errors.As(err)
	assert.Equal(t, errors.ErrRemote, kbErr.Code)
	assert.Equal(t, http.StatusBadGateway, kbErr.Status)
	assert.Contains(t, kbErr.Message, store.Server.URL+"/wrong/topics")
	assert.Contains(t, kbErr.Message, "base URL")
	assert.Equal(t, http.StatusNotFound, kbErr.Details["store_status"])
}

func TestUnreachableStore(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(url + "/api")
	require.NoError(t, err)

	_, err = c.List(context.Background())
	assert.True(t, errors.Is(err, errors.ErrUnavailable), "err = %v", err)
}

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	_, err = c.List(context.Background())
	assert.True(t, errors.Is(err, errors.ErrUnavailable), "err = %v", err)
}

func TestMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"not": "a list"`))
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL)
	require.NoError(t, err)

	_, err = c.List(context.Background())
	assert.True(t, errors.Is(err, errors.ErrInternal), "err = %v", err)
}

func TestRequestIDHeader(t *testing.T) {
	store := storetest.New(t)
	c := newClient(t, store)

	_, err := c.List(context.Background())
	require.NoError(t, err)
	_, err = c.List(context.Background())
	require.NoError(t, err)

	reqs := store.Requests()
	require.Len(t, reqs, 2)
	first := reqs[0].Header.Get(RequestIDHeader)
	second := reqs[1].Header.Get(RequestIDHeader)

	_, err = ulid.ParseStrict(first)
	require.NoError(t, err, "request id %q is not a ULID", first)
	assert.NotEqual(t, first, second)
	assert.Equal(t, "application/json", reqs[0].Header.Get("Accept"))
}
