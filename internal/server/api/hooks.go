package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/wavein/internal/plugin"
	"github.com/ayusman/wavein/internal/store"
)

// HookHandler manages bindings from events to plugin actions.
type HookHandler struct {
	store   *store.Store
	plugins *plugin.Manager
}

// NewHookHandler creates a HookHandler. When plugins is non-nil, new hooks
// must name a discovered plugin and one of its actions.
func NewHookHandler(s *store.Store, plugins *plugin.Manager) *HookHandler {
	return &HookHandler{store: s, plugins: plugins}
}

type createHookRequest struct {
	Event      string          `json:"event"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config"`
	Enabled    *bool           `json:"enabled"`
}

type updateHookRequest struct {
	Enabled *bool `json:"enabled"`
}

type hookResponse struct {
	ID         string          `json:"id"`
	Event      string          `json:"event"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config"`
	Enabled    bool            `json:"enabled"`
	CreatedAt  string          `json:"created_at"`
}

type listHooksResponse struct {
	Hooks []hookResponse `json:"hooks"`
}

type pluginResponse struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Actions     []string `json:"actions"`
	Events      []string `json:"events"`
}

type listPluginsResponse struct {
	Plugins []pluginResponse `json:"plugins"`
}

var hookEvents = []string{plugin.EventAttendanceMarked, plugin.EventEnrollmentCompleted}

func toHookResponse(h *store.Hook) hookResponse {
	config := h.Config
	if config == nil {
		config = json.RawMessage("{}")
	}
	return hookResponse{
		ID:         h.ID,
		Event:      h.Event,
		PluginName: h.PluginName,
		ActionName: h.ActionName,
		Config:     config,
		Enabled:    h.Enabled,
		CreatedAt:  formatTime(h.CreatedAt),
	}
}

// List handles GET /api/hooks.
func (h *HookHandler) List(w http.ResponseWriter, r *http.Request) {
	hooks, err := h.store.Hooks().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list hooks")
		return
	}

	resp := listHooksResponse{Hooks: make([]hookResponse, 0, len(hooks))}
	for _, hk := range hooks {
		resp.Hooks = append(resp.Hooks, toHookResponse(hk))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /api/hooks.
func (h *HookHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createHookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if !slices.Contains(hookEvents, req.Event) {
		writeError(w, http.StatusBadRequest, "Unknown event")
		return
	}
	if req.PluginName == "" || req.ActionName == "" {
		writeError(w, http.StatusBadRequest, "plugin_name and action_name are required")
		return
	}
	if h.plugins != nil {
		p, err := h.plugins.Get(req.PluginName)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Unknown plugin")
			return
		}
		if !slices.Contains(p.Manifest.Actions, req.ActionName) {
			writeError(w, http.StatusBadRequest, "Plugin has no such action")
			return
		}
	}

	hook := &store.Hook{
		Event:      req.Event,
		PluginName: req.PluginName,
		ActionName: req.ActionName,
		Config:     req.Config,
		Enabled:    req.Enabled == nil || *req.Enabled,
	}
	if err := h.store.Hooks().Create(hook); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create hook")
		return
	}
	writeJSON(w, http.StatusCreated, toHookResponse(hook))
}

// Update handles PUT /api/hooks/{id}; only enabled can change.
func (h *HookHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateHookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Enabled == nil {
		writeError(w, http.StatusBadRequest, "enabled is required")
		return
	}

	if err := h.store.Hooks().SetEnabled(id, *req.Enabled); err != nil {
		h.storeError(w, err, "Failed to update hook")
		return
	}
	hook, err := h.store.Hooks().GetByID(id)
	if err != nil {
		h.storeError(w, err, "Failed to get hook")
		return
	}
	writeJSON(w, http.StatusOK, toHookResponse(hook))
}

// Delete handles DELETE /api/hooks/{id}.
func (h *HookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Hooks().Delete(chi.URLParam(r, "id")); err != nil {
		h.storeError(w, err, "Failed to delete hook")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Plugins handles GET /api/plugins.
func (h *HookHandler) Plugins(w http.ResponseWriter, r *http.Request) {
	resp := listPluginsResponse{Plugins: []pluginResponse{}}
	if h.plugins != nil {
		for _, p := range h.plugins.List() {
			resp.Plugins = append(resp.Plugins, pluginResponse{
				Name:        p.Manifest.Name,
				Version:     p.Manifest.Version,
				Description: p.Manifest.Description,
				Actions:     p.Manifest.Actions,
				Events:      p.Manifest.Events,
			})
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HookHandler) storeError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Hook not found")
		return
	}
	writeError(w, http.StatusInternalServerError, msg)
}
