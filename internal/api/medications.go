package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"medication-refill-tracker/internal/models"
	"medication-refill-tracker/internal/reminders"
	"medication-refill-tracker/internal/tracker"
	"medication-refill-tracker/internal/utils"
)

type medicationHandler struct {
	tr  *tracker.Tracker
	loc *time.Location
	now func() time.Time
}

func newMedicationHandler(deps *Deps) *medicationHandler {
	h := &medicationHandler{tr: deps.Tracker, loc: deps.Loc, now: deps.Now}
	if h.loc == nil {
		h.loc = time.Local
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

func (h *medicationHandler) clock() time.Time { return h.now().In(h.loc) }

// patchRequest is MedicationPatch with the expiry as a calendar date.
type patchRequest struct {
	Name            *string  `json:"name"`
	Dosage          *string  `json:"dosage"`
	Schedule        []string `json:"schedule"`
	Stock           *int     `json:"stock"`
	RefillThreshold *int     `json:"refill_threshold"`
	ExpiresOn       *string  `json:"expires_on"`
	ImageURL        *string  `json:"image_url"`
}

type stockRequest struct {
	Stock *int `json:"stock"`
}

func (h *medicationHandler) List(w http.ResponseWriter, r *http.Request) {
	f, ok := models.ParseFilter(r.URL.Query().Get("filter"))
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown filter")
		return
	}
	writeJSON(w, http.StatusOK, h.tr.Views(f, h.clock()))
}

func (h *medicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	m, err := h.tr.Get(chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reminders.Views([]models.Medication{m}, h.clock())[0])
}

func (h *medicationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input models.MedicationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	created, err := h.tr.Add(r.Context(), input)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *medicationHandler) Replace(w http.ResponseWriter, r *http.Request) {
	var input models.MedicationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.tr.Edit(r.Context(), chi.URLParam(r, "id"), input); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "medication updated"})
}

func (h *medicationHandler) Patch(w http.ResponseWriter, r *http.Request) {
	var req patchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	patch := models.MedicationPatch{
		Name:            req.Name,
		Dosage:          req.Dosage,
		Schedule:        req.Schedule,
		Stock:           req.Stock,
		RefillThreshold: req.RefillThreshold,
		ImageURL:        req.ImageURL,
	}
	if req.ExpiresOn != nil {
		exp, err := utils.ParseDate(*req.ExpiresOn)
		if err != nil {
			writeError(w, http.StatusBadRequest, "expires_on must be YYYY-MM-DD")
			return
		}
		patch.ExpiresOn = &exp
	}
	if err := h.tr.Patch(r.Context(), chi.URLParam(r, "id"), patch); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "medication updated"})
}

func (h *medicationHandler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	var req stockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Stock == nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.tr.UpdateStock(r.Context(), chi.URLParam(r, "id"), *req.Stock); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "stock updated"})
}

func (h *medicationHandler) MarkTaken(w http.ResponseWriter, r *http.Request) {
	if err := h.tr.MarkTaken(r.Context(), chi.URLParam(r, "id"), h.clock()); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "marked as taken"})
}

func (h *medicationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.tr.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "medication deleted"})
}

// ---------- derived state ---------------------------------------------------

func (h *medicationHandler) Dashboard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.tr.Dashboard(h.clock()))
}

func (h *medicationHandler) Reminders(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.tr.Reminders(h.clock()))
}

func (h *medicationHandler) Upcoming(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.tr.Upcoming(h.clock()))
}

func (h *medicationHandler) Summary(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(h.tr.Summary(h.clock())))
}

func (h *medicationHandler) Banner(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.tr.Banner(h.clock()))
}

func (h *medicationHandler) DismissBanner(w http.ResponseWriter, _ *http.Request) {
	h.tr.DismissBanner()
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "banner dismissed"})
}
