package order

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/serviohq/servio-backend/internal/apperr"
	"github.com/serviohq/servio-backend/internal/modules/auth"
)

// Handler exposes order HTTP endpoints. The venue and server ids come from
// the authenticated identity, never from the request body.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Post("/", h.createOrder)
		r.Get("/", h.listOpenOrders)
		r.Get("/{id}", h.getOrder)
		r.Get("/{id}/items", h.getOrderItems)
		r.Post("/{id}/items", h.addItem)
		r.Patch("/{id}/items/{item_id}", h.updateItem)
		r.Delete("/{id}/items/{item_id}", h.removeItem)
		r.Post("/{id}/discount", h.applyDiscount)
		r.Post("/{id}/send", h.sendToKitchen)
		r.Post("/{id}/complete", h.completeOrder)
		r.Post("/{id}/void", h.voidOrder)
		r.Post("/{id}/cancel", h.cancelOrder)
	})
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, errBody("missing identity"))
		return
	}
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, errBody(err.Error()))
		return
	}
	o, err := h.service.CreateOrder(r.Context(), id.VenueID, id.UserID, req)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusCreated, o)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, errBody("missing identity"))
		return
	}
	o, err := h.service.GetOrder(r.Context(), id.VenueID, chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) getOrderItems(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, errBody("missing identity"))
		return
	}
	items, err := h.service.GetOrderItems(r.Context(), id.VenueID, chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, items)
}

func (h *Handler) listOpenOrders(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, errBody("missing identity"))
		return
	}
	orders, err := h.service.ListOpenOrders(r.Context(), id.VenueID)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, orders)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, errBody("missing identity"))
		return
	}
	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, errBody(err.Error()))
		return
	}
	o, err := h.service.AddItem(r.Context(), id.VenueID, chi.URLParam(r, "id"), req)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, errBody("missing identity"))
		return
	}
	var req UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, errBody(err.Error()))
		return
	}
	o, err := h.service.UpdateItem(r.Context(), id.VenueID, chi.URLParam(r, "id"), chi.URLParam(r, "item_id"), req)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, errBody("missing identity"))
		return
	}
	o, err := h.service.RemoveItem(r.Context(), id.VenueID, chi.URLParam(r, "id"), chi.URLParam(r, "item_id"))
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) applyDiscount(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, errBody("missing identity"))
		return
	}
	var req ApplyDiscountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, errBody(err.Error()))
		return
	}
	o, err := h.service.ApplyDiscount(r.Context(), id.VenueID, chi.URLParam(r, "id"), req.Amount)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) sendToKitchen(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.SendToKitchen)
}

func (h *Handler) completeOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.CompleteOrder)
}

func (h *Handler) voidOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.VoidOrder)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.CancelOrder)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, venueID, orderID string) (*Order, error)) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, errBody("missing identity"))
		return
	}
	o, err := op(r.Context(), id.VenueID, chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, o)
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
