package web

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/hpungsan/dexteam/internal/errors"
	"github.com/hpungsan/dexteam/internal/session"
)

// maxBodyBytes caps request bodies on the API routes.
const maxBodyBytes = 1 << 20

// Handlers contains HTTP route handlers for the web UI and JSON API.
type Handlers struct {
	ctrl     *session.Controller
	renderer *Renderer
	logger   *zap.Logger
}

// searchRequest is the body of PUT/POST /api/search.
type searchRequest struct {
	Text *string `json:"text"`
}

// HandleIndex handles GET /, the team builder page.
func (h *Handlers) HandleIndex(w http.ResponseWriter, r *http.Request) {
	state := h.ctrl.State()
	h.renderer.renderPage(w, "index", IndexPageData{
		PageData: PageData{
			Title:   "Pokémon Team Builder",
			Version: h.renderer.version,
		},
		State:    state,
		CardHTML: h.renderer.renderCard(state.Selected),
	})
}

// HandleState handles GET /api/state.
func (h *Handlers) HandleState(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, h.ctrl.State())
}

// HandleSetSearch handles PUT /api/search by replacing the search text.
func (h *Handlers) HandleSetSearch(w http.ResponseWriter, r *http.Request) {
	text, err := h.readSearchText(w, r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if text == nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("text is required"))
		return
	}
	h.ctrl.SetSearchText(*text)
	h.respond(w, r, nil)
}

// HandleSubmitSearch handles POST /api/search. It submits the search text,
// optionally replacing it first.
func (h *Handlers) HandleSubmitSearch(w http.ResponseWriter, r *http.Request) {
	text, err := h.readSearchText(w, r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if text != nil {
		h.ctrl.SetSearchText(*text)
	}
	_, err = h.ctrl.SubmitSearch(r.Context())
	h.respond(w, r, err)
}

// HandleRandom handles POST /api/random.
func (h *Handlers) HandleRandom(w http.ResponseWriter, r *http.Request) {
	_, err := h.ctrl.FetchRandom(r.Context())
	h.respond(w, r, err)
}

// HandleAdd handles POST /api/team by adding the last fetched Pokémon.
func (h *Handlers) HandleAdd(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.ctrl.AddToTeam())
}

// HandleRemove handles DELETE /api/team/{id} and the form fallback
// POST /api/team/{id}/remove.
func (h *Handlers) HandleRemove(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.ctrl.RemoveFromTeam(id)
	h.respond(w, r, nil)
}

// HandleSelect handles POST /api/team/{id}/select by showing a team member.
func (h *Handlers) HandleSelect(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if _, err := h.ctrl.SelectMember(id); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.respond(w, r, nil)
}

// respond finishes an action. Form posts redirect back to the page, where
// any failure is already shown in the error slot. API clients get the
// error, or the new state on success.
func (h *Handlers) respond(w http.ResponseWriter, r *http.Request, err error) {
	if isForm(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, h.ctrl.State())
}

// readSearchText extracts the optional "text" field from a form or JSON
// body. Returns nil if the field is absent.
func (h *Handlers) readSearchText(w http.ResponseWriter, r *http.Request) (*string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if isForm(r) {
		if err := r.ParseForm(); err != nil {
			return nil, errors.NewInvalidRequest("invalid form body")
		}
		if _, ok := r.PostForm["text"]; !ok {
			return nil, nil
		}
		text := r.PostForm.Get("text")
		return &text, nil
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, errors.NewInvalidRequest("invalid JSON body: " + err.Error())
	}
	return req.Text, nil
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int, error) {
	raw := r.PathValue("id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, errors.NewInvalidRequest("invalid Pokémon id: " + strconv.Quote(raw))
	}
	return id, nil
}
