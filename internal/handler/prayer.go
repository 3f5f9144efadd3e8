package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gracebay/prayerwall/internal/auth"
	"github.com/gracebay/prayerwall/internal/model"
	"github.com/gracebay/prayerwall/internal/store"
	"github.com/gracebay/prayerwall/internal/websocket"
)

type PrayerHandler struct {
	prayerStore *store.PrayerStore
	hub         *websocket.Hub
	logger      *slog.Logger
}

func NewPrayerHandler(ps *store.PrayerStore, hub *websocket.Hub, logger *slog.Logger) *PrayerHandler {
	return &PrayerHandler{prayerStore: ps, hub: hub, logger: logger}
}

func (h *PrayerHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type prayerRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Create submits a new prayer request. It lands in "pending" until an
// administrator approves it.
func (h *PrayerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req prayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}

	var submittedBy *int64
	if uid := auth.UserID(r.Context()); uid != 0 {
		submittedBy = &uid
	}

	prayer, err := h.prayerStore.Create(req.Title, req.Body, submittedBy)
	if err != nil {
		h.logger.Error("create prayer", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create prayer"})
		return
	}

	h.broadcast(websocket.NewMessage("prayer", "created", prayer.ID, nil))

	writeJSON(w, http.StatusCreated, prayer)
}

func (h *PrayerHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")

	var prayers []model.Prayer
	var err error
	if status != "" {
		prayers, err = h.prayerStore.ListByStatus(status)
	} else {
		prayers, err = h.prayerStore.List()
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list prayers"})
		return
	}
	if prayers == nil {
		prayers = []model.Prayer{}
	}
	writeJSON(w, http.StatusOK, prayers)
}

func (h *PrayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	prayer, err := h.prayerStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get prayer"})
		return
	}
	if prayer == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "prayer not found"})
		return
	}
	writeJSON(w, http.StatusOK, prayer)
}

func (h *PrayerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.prayerStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get prayer"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "prayer not found"})
		return
	}

	// Only the submitter or an admin may edit.
	ac, _ := auth.FromContext(r.Context())
	if !ac.Admin && (existing.SubmittedBy == nil || *existing.SubmittedBy != ac.UserID) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "not your prayer"})
		return
	}

	var req prayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}

	prayer, err := h.prayerStore.Update(id, req.Title, req.Body)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update prayer"})
		return
	}

	h.broadcast(websocket.NewMessage("prayer", "updated", id, nil))

	writeJSON(w, http.StatusOK, prayer)
}

// SetStatus returns a handler for the admin moderation actions: approve,
// deny, answer, archive. The status transition is what the timeline
// later reads back as an answered/archived event.
func (h *PrayerHandler) SetStatus(action, status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
			return
		}

		existing, err := h.prayerStore.GetByID(id)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get prayer"})
			return
		}
		if existing == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "prayer not found"})
			return
		}

		prayer, err := h.prayerStore.SetStatus(id, status)
		if err != nil {
			h.logger.Error("set prayer status", "action", action, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to " + action + " prayer"})
			return
		}

		h.broadcast(websocket.NewMessage("prayer", action, id, nil))

		writeJSON(w, http.StatusOK, prayer)
	}
}

type prayerUpdateRequest struct {
	Body string `json:"body"`
}

// AddUpdate posts a follow-up on a prayer. This is the activity that
// resets the reminder countdown.
func (h *PrayerHandler) AddUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.prayerStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get prayer"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "prayer not found"})
		return
	}

	var req prayerUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Body = strings.TrimSpace(req.Body)
	if req.Body == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "body is required"})
		return
	}

	var createdBy *int64
	if uid := auth.UserID(r.Context()); uid != 0 {
		createdBy = &uid
	}

	update, err := h.prayerStore.AddUpdate(id, req.Body, createdBy)
	if err != nil {
		h.logger.Error("add prayer update", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to add update"})
		return
	}

	h.broadcast(websocket.NewMessage("prayer_update", "created", id, nil))

	writeJSON(w, http.StatusCreated, update)
}

func (h *PrayerHandler) ListUpdates(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	updates, err := h.prayerStore.ListUpdates(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list updates"})
		return
	}
	if updates == nil {
		updates = []model.PrayerUpdate{}
	}
	writeJSON(w, http.StatusOK, updates)
}

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
