package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stemgraph/stemgraph/internal/graphstore"
	"github.com/stemgraph/stemgraph/internal/models"
	"github.com/stemgraph/stemgraph/internal/moduleservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *moduleservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *moduleservice.Service) *Handler {
	return &Handler{svc: svc}
}

// Graph handles GET /api/graph. It serves the cached snapshot and never
// touches the backing store.
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	snap := h.svc.Graph(r.Context())
	if snap == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("graph cache not loaded"))
		return
	}
	resp := GraphResponse{Nodes: snap.Nodes, Edges: snap.Edges}
	if resp.Nodes == nil {
		resp.Nodes = []models.Node{}
	}
	if resp.Edges == nil {
		resp.Edges = []models.Edge{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetModule handles GET /api/modules/{identifier}. The identifier may be an
// internal id, a UUID, or a name.
func (h *Handler) GetModule(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")
	node, err := h.svc.GetModule(r.Context(), identifier)
	if err != nil {
		writeError(w, "get module", err)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

// CreateModule handles POST /api/modules (write-protected).
func (h *Handler) CreateModule(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CreateModuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	node, err := h.svc.CreateModule(r.Context(), graphstore.NewNode{
		Name:        req.Name,
		UUID:        req.UUID,
		RepoDomain:  req.RepoDomain,
		Description: req.Description,
		BuildsOn:    req.BuildsOn,
	})
	if err != nil {
		writeError(w, "create module", err)
		return
	}
	writeJSON(w, http.StatusCreated, node)
}

// BuildsOn handles GET /api/modules/{identifier}/builds-on.
func (h *Handler) BuildsOn(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")
	res, err := h.svc.BuildsOn(r.Context(), identifier)
	if err != nil {
		writeError(w, "builds-on", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// BuildsOnTree handles GET /api/modules/{identifier}/builds-on/tree.
func (h *Handler) BuildsOnTree(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")
	res, err := h.svc.BuildsOnTree(r.Context(), identifier)
	if err != nil {
		writeError(w, "builds-on tree", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Health returns a liveness handler that also probes the backing store.
func Health(svc *moduleservice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{Status: "ok", Store: "reachable"}
		code := http.StatusOK
		if err := svc.Health(r.Context()); err != nil {
			resp.Store = "unreachable"
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, resp)
	}
}
