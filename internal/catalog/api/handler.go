package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"ms-flights/internal/catalog"
	"ms-flights/internal/errs"
	"ms-flights/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Catalog *catalog.CatalogService
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, errs.ErrUnresolvableLocation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func (h *Handler) CreateFlight(w http.ResponseWriter, r *http.Request) {
	var spec catalog.FlightSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	detail, err := h.Catalog.Create(r.Context(), spec)
	if err != nil {
		writeJSON(w, statusForError(err), utils.ErrorResponse("Could not create flight", err.Error()))
		return
	}

	writeJSON(w, http.StatusCreated, utils.SuccessResponse("Flight created", detail))
}

func (h *Handler) GetFlight(w http.ResponseWriter, r *http.Request) {
	flightID := chi.URLParam(r, "flightId")

	detail, err := h.Catalog.Get(r.Context(), flightID)
	if err != nil {
		writeJSON(w, statusForError(err), utils.ErrorResponse("Could not load flight", err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Flight details", detail))
}

func (h *Handler) UpdateFlight(w http.ResponseWriter, r *http.Request) {
	flightID := chi.URLParam(r, "flightId")

	var patch catalog.FlightPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	detail, err := h.Catalog.Update(r.Context(), flightID, patch)
	if err != nil {
		writeJSON(w, statusForError(err), utils.ErrorResponse("Could not update flight", err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Flight updated", detail))
}

func (h *Handler) DeleteFlight(w http.ResponseWriter, r *http.Request) {
	flightID := chi.URLParam(r, "flightId")

	if err := h.Catalog.Delete(r.Context(), flightID); err != nil {
		writeJSON(w, statusForError(err), utils.ErrorResponse("Could not delete flight", err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Flight deleted", nil))
}

func (h *Handler) ListFlights(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := catalog.ListFilter{
		DepartureCity: query.Get("departureCity"),
		ArrivalCity:   query.Get("arrivalCity"),
		StartDate:     query.Get("startDate"),
		EndDate:       query.Get("endDate"),
	}

	details, err := h.Catalog.List(r.Context(), filter)
	if err != nil {
		writeJSON(w, statusForError(err), utils.ErrorResponse("Could not list flights", err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Flights listed", details))
}
