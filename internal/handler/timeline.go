package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gracebay/prayerwall/internal/timeline"
)

type TimelineHandler struct {
	service *timeline.Service
	logger  *slog.Logger
}

func NewTimelineHandler(svc *timeline.Service, logger *slog.Logger) *TimelineHandler {
	return &TimelineHandler{service: svc, logger: logger}
}

type timelineResponse struct {
	Month         string         `json:"month"`
	Today         timeline.Date  `json:"today"`
	CanGoPrevious bool           `json:"can_go_previous"`
	CanGoNext     bool           `json:"can_go_next"`
	Days          []timeline.Day `json:"days"`
}

func (h *TimelineHandler) respond(w http.ResponseWriter, state *timeline.State) {
	days := state.Days()
	if days == nil {
		days = []timeline.Day{}
	}
	writeJSON(w, http.StatusOK, timelineResponse{
		Month:         state.CurrentMonth.YearMonth(),
		Today:         state.Today,
		CanGoPrevious: state.CanGoPrevious(),
		CanGoNext:     state.CanGoNext(),
		Days:          days,
	})
}

// Get recomputes the timeline and returns the viewed month's day groups.
// An optional ?month=YYYY-MM query jumps the view (clamped to the
// navigable range).
func (h *TimelineHandler) Get(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	state := h.service.Recompute(now)

	if monthStr := r.URL.Query().Get("month"); monthStr != "" {
		month, err := timeline.ParseMonth(monthStr)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "month must be YYYY-MM"})
			return
		}
		h.service.TimelineForMonth(month, now)
		state = h.service.State(now)
	}

	h.respond(w, state)
}

// Previous steps the view back one month. No-op at the lower bound.
func (h *TimelineHandler) Previous(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	h.service.Recompute(now)
	h.respond(w, h.service.PreviousMonth(now))
}

// Next steps the view forward one month. No-op at the upper bound.
func (h *TimelineHandler) Next(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	h.service.Recompute(now)
	h.respond(w, h.service.NextMonth(now))
}

// Settings returns the interval summary displayed above the timeline.
func (h *TimelineHandler) Settings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.SettingsSummary())
}
