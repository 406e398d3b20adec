package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/clinicpulse/services/kpi-service/internal/kpi"
	"github.com/md-rashed-zaman/clinicpulse/services/kpi-service/internal/model"
)

// ScheduleStore looks up the stored schedule for an exact date string.
// Absence is a normal outcome, reported through the bool, never an error.
type ScheduleStore interface {
	GetByDate(ctx context.Context, date string) (model.Schedule, bool, error)
}

type KPIHandler struct {
	store  ScheduleStore
	logger *slog.Logger
	now    func() time.Time
}

func NewKPIHandler(store ScheduleStore, logger *slog.Logger) *KPIHandler {
	return &KPIHandler{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Register mounts all ten metric endpoints under prefix.
func (h *KPIHandler) Register(mux *http.ServeMux, prefix string) {
	prefix = strings.TrimSuffix(prefix, "/")
	mux.HandleFunc(prefix+"/completed-volumes", h.CompletedVolumes)
	mux.HandleFunc(prefix+"/add-ons", h.AddOns)
	mux.HandleFunc(prefix+"/wait-time", h.WaitTime)
	mux.HandleFunc(prefix+"/appointments-per-nurse", h.AppointmentsPerNurse)
	mux.HandleFunc(prefix+"/nursing-overtime", h.NursingOvertime)
	mux.HandleFunc(prefix+"/appointments-per-chair", h.AppointmentsPerChair)
	mux.HandleFunc(prefix+"/linked-appointments", h.LinkedAppointments)
	mux.HandleFunc(prefix+"/same-day-cancellations", h.SameDayCancellations)
	mux.HandleFunc(prefix+"/no-shows", h.NoShows)
	mux.HandleFunc(prefix+"/staff-lunch-breaks", h.StaffLunchBreaks)
}

func (h *KPIHandler) CompletedVolumes(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "completedVolumes", func(s model.Schedule) any { return kpi.CompletedVolumes(s) })
}

func (h *KPIHandler) AddOns(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "addOns", func(s model.Schedule) any { return kpi.AddOns(s) })
}

func (h *KPIHandler) WaitTime(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "avgWaitTime", func(s model.Schedule) any { return kpi.AvgWaitTime(s) })
}

func (h *KPIHandler) AppointmentsPerNurse(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "avgAppointmentsPerNurse", func(s model.Schedule) any { return kpi.AvgAppointmentsPerNurse(s) })
}

func (h *KPIHandler) NursingOvertime(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "avgNursingOvertime", func(s model.Schedule) any { return kpi.AvgNursingOvertime(s) })
}

func (h *KPIHandler) AppointmentsPerChair(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "avgAppointmentsPerChair", func(s model.Schedule) any { return kpi.AvgAppointmentsPerChair(s) })
}

func (h *KPIHandler) LinkedAppointments(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "linkedAppointments", func(s model.Schedule) any { return kpi.LinkedAppointments(s) })
}

func (h *KPIHandler) SameDayCancellations(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "sameDayCancellation", func(s model.Schedule) any { return kpi.SameDayCancellations(s) })
}

func (h *KPIHandler) NoShows(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "noShows", func(s model.Schedule) any { return kpi.NoShows(s) })
}

func (h *KPIHandler) StaffLunchBreaks(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "nursesCount", func(s model.Schedule) any { return kpi.CompliantLunchBreaks(s) })
}

// serve runs the shared request flow: resolve the date, one store lookup,
// then either the computed metric, a zero-default 404, or a generic 500.
func (h *KPIHandler) serve(w http.ResponseWriter, r *http.Request, field string, compute func(model.Schedule) any) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	date := h.resolveDate(r)
	schedule, found, err := h.store.GetByDate(r.Context(), date)
	if err != nil {
		h.logger.Error("schedule lookup failed", "err", err, "date", date, "metric", field)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"message": "Internal Server Error",
		})
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"message": "No schedule found for the date: " + date,
			field:     0,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"date": date,
		field:  compute(schedule),
	})
}

// resolveDate returns the caller's date verbatim, or today's UTC calendar
// date. Caller-supplied dates are not validated: a malformed one simply
// matches no stored schedule and lands on the not-found path.
func (h *KPIHandler) resolveDate(r *http.Request) string {
	if d := strings.TrimSpace(r.URL.Query().Get("date")); d != "" {
		return d
	}
	return h.now().UTC().Format(model.DateLayout)
}

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
