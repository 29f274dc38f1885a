package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"ms-flights/internal/auth"
	"ms-flights/internal/booking"
	"ms-flights/internal/errs"
	"ms-flights/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	OrderService *booking.OrderService
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrConflict), errors.Is(err, errs.ErrInsufficientSeats):
		return http.StatusConflict
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrInvalidState):
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

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req booking.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}
	req.UserID = auth.UserID(r.Context())

	order, err := h.OrderService.CreateOrder(r.Context(), req)
	if err != nil {
		writeJSON(w, statusForError(err), utils.ErrorResponse("Could not place order", err.Error()))
		return
	}

	writeJSON(w, http.StatusCreated, utils.SuccessResponse("Order placed", order))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	order, err := h.OrderService.GetOrder(r.Context(), orderID)
	if err != nil {
		writeJSON(w, statusForError(err), utils.ErrorResponse("Could not load order", err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Order details", order))
}

func (h *Handler) ListUserOrders(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	orders, err := h.OrderService.ListOrdersForUser(r.Context(), userID)
	if err != nil {
		writeJSON(w, statusForError(err), utils.ErrorResponse("Could not list orders", err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Orders listed", orders))
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	userID := auth.UserID(r.Context())

	order, err := h.OrderService.CancelOrder(r.Context(), orderID, userID)
	if err != nil {
		writeJSON(w, statusForError(err), utils.ErrorResponse("Could not cancel order", err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Order cancelled", order))
}

func (h *Handler) PayOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	userID := auth.UserID(r.Context())

	var body struct {
		Method string `json:"method"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	order, err := h.OrderService.PayOrder(r.Context(), orderID, userID, body.Method)
	if err != nil {
		writeJSON(w, statusForError(err), utils.ErrorResponse("Could not pay order", err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Order paid", order))
}

func (h *Handler) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	userID := auth.UserID(r.Context())

	order, err := h.OrderService.CompleteOrder(r.Context(), orderID, userID)
	if err != nil {
		writeJSON(w, statusForError(err), utils.ErrorResponse("Could not complete order", err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Order completed", order))
}

func (h *Handler) ConfirmationQR(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	userID := auth.UserID(r.Context())

	png, err := h.OrderService.ConfirmationQR(r.Context(), orderID, userID)
	if err != nil {
		writeJSON(w, statusForError(err), utils.ErrorResponse("Could not render confirmation", err.Error()))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
