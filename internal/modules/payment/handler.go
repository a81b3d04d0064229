package payment

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/serviohq/servio-backend/internal/apperr"
	"github.com/serviohq/servio-backend/internal/modules/auth"
)

// Handler exposes payment HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/payments", func(r chi.Router) {
		r.Post("/", h.processPayment)
		r.Get("/{id}", h.getPayment)
		r.Post("/{id}/refund", h.refundPayment)
		r.Get("/order/{order_id}", h.listByOrder)
		r.Get("/order/{order_id}/total", h.totalPaid)
	})
}

func (h *Handler) processPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, errBody("missing identity"))
		return
	}
	var req ProcessPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, errBody(err.Error()))
		return
	}
	p, err := h.service.ProcessPayment(r.Context(), id.VenueID, req)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusCreated, p)
}

func (h *Handler) getPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, errBody("missing identity"))
		return
	}
	p, err := h.service.GetPayment(r.Context(), id.VenueID, chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, p)
}

func (h *Handler) refundPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, errBody("missing identity"))
		return
	}
	var req RefundPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, errBody(err.Error()))
		return
	}
	p, err := h.service.RefundPayment(r.Context(), id.VenueID, chi.URLParam(r, "id"), id.UserID, req)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, p)
}

func (h *Handler) listByOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, errBody("missing identity"))
		return
	}
	payments, err := h.service.GetPaymentsByOrder(r.Context(), id.VenueID, chi.URLParam(r, "order_id"))
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, payments)
}

func (h *Handler) totalPaid(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, errBody("missing identity"))
		return
	}
	orderID := chi.URLParam(r, "order_id")
	total, err := h.service.GetTotalPaidAmount(r.Context(), id.VenueID, orderID)
	if err != nil {
		respondErr(w, err)
		return
	}
	fullyPaid, err := h.service.IsOrderFullyPaid(r.Context(), id.VenueID, orderID)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{
		"order_id":   orderID,
		"total_paid": total,
		"fully_paid": fullyPaid,
	})
}

// ── response helpers ──────────────────────────────────────────────────────────

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func errBody(msg string) map[string]string { return map[string]string{"error": msg} }

func respondErr(w http.ResponseWriter, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		respond(w, http.StatusNotFound, errBody(err.Error()))
	case apperr.KindInvalidOperation, apperr.KindConflict:
		respond(w, http.StatusConflict, errBody(err.Error()))
	case apperr.KindValidation:
		respond(w, http.StatusBadRequest, errBody(err.Error()))
	default:
		respond(w, http.StatusInternalServerError, errBody(err.Error()))
	}
}
