package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/engine"
	"github.com/ayusman/mudra/internal/recognizer"
	"github.com/ayusman/mudra/internal/store"
)

// RecognizerHandler handles HTTP requests for recognizer profiles. Changes
// are persisted to the store and applied to the running engine.
type RecognizerHandler struct {
	store  *store.Store
	engine *engine.Engine
}

// NewRecognizerHandler creates a new RecognizerHandler. The engine may be
// nil, in which case only the stored profiles change.
func NewRecognizerHandler(s *store.Store, e *engine.Engine) *RecognizerHandler {
	return &RecognizerHandler{store: s, engine: e}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *RecognizerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/recognizers or /api/recognizers/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/recognizers")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type recognizerResponse struct {
	ID        string             `json:"id"`
	Profile   recognizer.Profile `json:"profile"`
	Status    recognizer.Status  `json:"status,omitempty"`
	CreatedAt string             `json:"created_at"`
	UpdatedAt string             `json:"updated_at"`
}

type listRecognizersResponse struct {
	Recognizers []recognizerResponse `json:"recognizers"`
	Active      []engine.State       `json:"active"`
}

func (h *RecognizerHandler) statuses() map[string]recognizer.Status {
	out := make(map[string]recognizer.Status)
	if h.engine == nil {
		return out
	}
	for _, st := range h.engine.States() {
		out[st.Name] = st.Status
	}
	return out
}

func toRecognizerResponse(p *store.Profile, statuses map[string]recognizer.Status) recognizerResponse {
	return recognizerResponse{
		ID:        p.ID,
		Profile:   p.Profile,
		Status:    statuses[p.Name],
		CreatedAt: p.CreatedAt.Format(timeFormat),
		UpdatedAt: p.UpdatedAt.Format(timeFormat),
	}
}

// apply registers the recognizer built from p on the engine, replacing a
// recognizer of the same name, and drops the recognizer previously known as
// oldName.
func (h *RecognizerHandler) apply(oldName string, p recognizer.Profile) error {
	if h.engine == nil {
		return nil
	}
	r, err := recognizer.FromProfile(p)
	if err != nil {
		return err
	}
	if oldName != "" && oldName != p.Name {
		h.engine.Unregister(oldName)
	}
	h.engine.Replace(r)
	return nil
}

// list handles GET /api/recognizers and returns the stored profiles along
// with the recognizers the engine is running.
func (h *RecognizerHandler) list(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.store.Profiles().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list recognizers")
		return
	}

	statuses := h.statuses()
	response := listRecognizersResponse{
		Recognizers: make([]recognizerResponse, 0, len(profiles)),
		Active:      []engine.State{},
	}
	for _, p := range profiles {
		response.Recognizers = append(response.Recognizers, toRecognizerResponse(p, statuses))
	}
	if h.engine != nil {
		response.Active = h.engine.States()
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/recognizers/{id}.
func (h *RecognizerHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.store.Profiles().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Recognizer not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get recognizer")
		return
	}

	writeJSON(w, http.StatusOK, toRecognizerResponse(p, h.statuses()))
}

// create handles POST /api/recognizers. The body is a recognizer profile.
func (h *RecognizerHandler) create(w http.ResponseWriter, r *http.Request) {
	var req recognizer.Profile
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Family == "" {
		writeError(w, http.StatusBadRequest, "family is required")
		return
	}
	if req.Name == "" {
		req.Name = string(req.Family)
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.store.Profiles().GetByName(req.Name); err == nil {
		writeError(w, http.StatusConflict, "Recognizer name already exists")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "Failed to check existing recognizer")
		return
	}

	p := &store.Profile{ID: uuid.New().String(), Profile: req}
	if err := h.store.Profiles().Create(p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create recognizer")
		return
	}
	if err := h.apply("", p.Profile); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to register recognizer")
		return
	}

	writeJSON(w, http.StatusCreated, toRecognizerResponse(p, h.statuses()))
}

// update handles PUT /api/recognizers/{id}. Fields absent from the body
// keep their stored values.
func (h *RecognizerHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.store.Profiles().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Recognizer not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get recognizer")
		return
	}

	oldName := p.Name
	if err := json.NewDecoder(r.Body).Decode(&p.Profile); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if p.Name == "" {
		p.Name = string(p.Family)
	}
	if err := p.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if p.Name != oldName {
		if _, err := h.store.Profiles().GetByName(p.Name); err == nil {
			writeError(w, http.StatusConflict, "Recognizer name already exists")
			return
		}
	}

	if err := h.store.Profiles().Update(p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update recognizer")
		return
	}
	if err := h.apply(oldName, p.Profile); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to register recognizer")
		return
	}

	writeJSON(w, http.StatusOK, toRecognizerResponse(p, h.statuses()))
}

// delete handles DELETE /api/recognizers/{id} and stops the recognizer.
func (h *RecognizerHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.store.Profiles().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Recognizer not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get recognizer")
		return
	}

	if err := h.store.Profiles().Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete recognizer")
		return
	}
	if h.engine != nil {
		h.engine.Unregister(p.Name)
	}

	w.WriteHeader(http.StatusNoContent)
}
