// Package storetest provides an in-memory fake of the topic store's REST interface for tests.
package storetest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/hpungsan/kb/internal/topic"
)

// Request is one request observed by the fake store.
type Request struct {
	Method string
	Path   string
	Body   map[string]any // decoded JSON body, nil when there was none
	Header http.Header
}

// Store is a fake topic store. Identifiers are sequential integers, like the
// original SQL-backed store. Safe for concurrent use.
type Store struct {
	Server *httptest.Server

	mu       sync.Mutex
	topics   []topic.Topic
	nextID   int
	requests []Request
	failures map[string]int // "METHOD /path" -> status
}

// New starts a fake store and registers its shutdown with t.Cleanup.
func New(t testing.TB, seed ...topic.Topic) *Store {
	t.Helper()

	s := &Store{nextID: 1, failures: map[string]int{}}
	for _, tp := range seed {
		s.add(tp)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/topics", s.handleList)
	mux.HandleFunc("POST /api/topics", s.handleCreate)
	mux.HandleFunc("GET /api/topics/{id}", s.handleGet)
	mux.HandleFunc("PUT /api/topics/{id}", s.handleUpdate)
	mux.HandleFunc("DELETE /api/topics/{id}", s.handleDelete)

	s.Server = httptest.NewServer(s.record(mux))
	t.Cleanup(s.Server.Close)
	return s
}

// URL returns the base URL clients should be configured with.
func (s *Store) URL() string {
	return s.Server.URL + "/api"
}

// Fail makes every request matching method and path (relative to the base URL,
// e.g. "/topics/7") answer with status until Heal is called.
func (s *Store) Fail(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = status
}

// Heal clears all injected failures.
func (s *Store) Heal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = map[string]int{}
}

// Topics returns a copy of the stored topics.
func (s *Store) Topics() []topic.Topic {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]topic.Topic(nil), s.topics...)
}

// Requests returns every request received so far, in arrival order.
func (s *Store) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Calls returns "METHOD /path" for every request received, paths relative to the base URL.
func (s *Store) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	calls := make([]string, len(s.requests))
	for i, r := range s.requests {
		calls[i] = r.Method + " " + r.Path
	}
	return calls
}

// Reset forgets recorded requests.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

func (s *Store) add(tp topic.Topic) topic.Topic {
	if tp.ID == "" {
		tp.ID = topic.ID(strconv.Itoa(s.nextID))
		s.nextID++
	} else if n, err := strconv.Atoi(tp.ID.String()); err == nil && n >= s.nextID {
		s.nextID = n + 1
	}
	if tp.Tags == nil {
		tp.Tags = []string{}
	}
	s.topics = append(s.topics, tp)
	return tp
}

func (s *Store) indexOf(id string) int {
	for i, tp := range s.topics {
		if tp.ID.String() == id {
			return i
		}
	}
	return -1
}

// record logs the request and applies injected failures before routing.
func (s *Store) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if len(path) >= 4 && path[:4] == "/api" {
			path = path[4:]
		}

		raw, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(raw))

		var body map[string]any
		if len(bytes.TrimSpace(raw)) > 0 {
			_ = json.Unmarshal(raw, &body)
		}

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   path,
			Body:   body,
			Header: r.Header.Clone(),
		})
		status, fail := s.failures[r.Method+" "+path]
		s.mu.Unlock()

		if fail {
			http.Error(w, http.StatusText(status), status)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Store) handleList(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	topics := append([]topic.Topic{}, s.topics...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, topics)
}

func (s *Store) handleCreate(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeTopic(w, r)
	if !ok {
		return
	}
	in.ID = ""

	s.mu.Lock()
	created := s.add(in)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, created)
}

func (s *Store) handleGet(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	i := s.indexOf(r.PathValue("id"))
	var tp topic.Topic
	if i >= 0 {
		tp = s.topics[i]
	}
	s.mu.Unlock()

	if i < 0 {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, tp)
}

func (s *Store) handleUpdate(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeTopic(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	i := s.indexOf(r.PathValue("id"))
	if i < 0 {
		s.mu.Unlock()
		http.NotFound(w, r)
		return
	}
	in.ID = s.topics[i].ID
	if in.Tags == nil {
		in.Tags = []string{}
	}
	s.topics[i] = in
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, in)
}

func (s *Store) handleDelete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	i := s.indexOf(r.PathValue("id"))
	if i >= 0 {
		s.topics = append(s.topics[:i], s.topics[i+1:]...)
	}
	s.mu.Unlock()

	if i < 0 {
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeTopic(w http.ResponseWriter, r *http.Request) (topic.Topic, bool) {
	var tp topic.Topic
	if err := json.NewDecoder(r.Body).Decode(&tp); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return tp, false
	}
	return tp, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
