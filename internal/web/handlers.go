package web

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hpungsan/kb/internal/editor"
	"github.com/hpungsan/kb/internal/errors"
	"github.com/hpungsan/kb/internal/topic"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	ctrl     *editor.Controller
	log      zerolog.Logger
	renderer *Renderer
}

// HandleList handles GET /topics: the form, the notice, and the list.
// The collection is fetched on first view and whenever ?reload=1 is given.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	if !h.ctrl.Loaded() || parseBoolParam(r, "reload") {
		// A failed load surfaces as the page's notice.
		_ = h.ctrl.Load(r.Context())
	}

	state := h.state()
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, state)
		return
	}

	h.renderer.renderPage(w, r, "topics", TopicsPageData{
		PageData: PageData{
			Title:   "Topics",
			Version: h.renderer.version,
		},
		State: state,
	})
}

// HandleSubmit handles POST /topics: posted fields become field edits, then the
// active draft is created or updated and the collection refreshed.
func (h *Handlers) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	for _, f := range editor.Fields {
		if values, ok := r.PostForm[string(f)]; ok && len(values) > 0 {
			h.ctrl.Change(f, values[0])
		}
	}

	_, err := h.ctrl.Submit(r.Context())
	if wantsJSON(r) {
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		renderJSON(w, http.StatusOK, h.state())
		return
	}

	// Failures are shown as the notice on the list page.
	redirectToList(w, r)
}

// HandleEdit handles POST /topics/{id}/edit: the form switches to revising that topic.
func (h *Handlers) HandleEdit(w http.ResponseWriter, r *http.Request) {
	id := topic.ID(r.PathValue("id"))
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("topic id is required"))
		return
	}

	if _, err := h.ctrl.EditByID(id); err != nil {
		// The mirror may predate the topic; ask the store directly.
		t, getErr := h.ctrl.Store().Get(r.Context(), id)
		if getErr != nil {
			h.renderer.renderError(w, r, getErr)
			return
		}
		h.ctrl.Edit(*t)
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, h.state())
		return
	}
	redirectToList(w, r)
}

// HandleCancel handles POST /topics/cancel: revising is abandoned without saving.
func (h *Handlers) HandleCancel(w http.ResponseWriter, r *http.Request) {
	h.ctrl.Abandon()

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, h.state())
		return
	}
	redirectToList(w, r)
}

// HandleDelete handles POST /topics/{id}/delete and DELETE /topics/{id}.
// The collection is refreshed whatever the delete's result.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := topic.ID(r.PathValue("id"))
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("topic id is required"))
		return
	}

	err := h.ctrl.Delete(r.Context(), id)

	if wantsJSON(r) {
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		renderJSON(w, http.StatusOK, map[string]any{
			"deleted": true,
			"id":      id,
		})
		return
	}

	redirectToList(w, r)
}

// HandleDetail handles GET /topics/{id}: one topic with its content rendered as Markdown.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id := topic.ID(r.PathValue("id"))
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("topic id is required"))
		return
	}

	t, err := h.ctrl.Store().Get(r.Context(), id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, t)
		return
	}

	h.renderer.renderPage(w, r, "detail", DetailPageData{
		PageData: PageData{
			Title:   displayTitle(t),
			Version: h.renderer.version,
		},
		Topic:        t,
		RenderedHTML: renderMarkdown(t.Content),
	})
}

// state snapshots the controller for rendering.
func (h *Handlers) state() EditorState {
	form := h.ctrl.Form()
	id, editing := editor.Editing(form)
	return EditorState{
		Editing:     editing,
		EditID:      id,
		Draft:       form.Active(),
		SubmitLabel: editor.SubmitLabel(form),
		Notice:      h.ctrl.Notice(),
		Loaded:      h.ctrl.Loaded(),
		Rows:        h.ctrl.Rows(),
	}
}

// redirectToList finishes a form post: HX-Redirect for htmx, otherwise 303 See Other.
func redirectToList(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/topics")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/topics", http.StatusSeeOther)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1"
}

// displayTitle returns the topic title, or its id when the title is blank.
func displayTitle(t *topic.Topic) string {
	if strings.TrimSpace(t.Title) != "" {
		return t.Title
	}
	return "Topic " + t.ID.String()
}
