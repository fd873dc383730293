package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
)

type APIResponse struct {
	Success bool   `json:"success"`
	Outcome string `json:"outcome"`
	Message string `json:"message"`
}

type AddCartItemRequest struct {
	ProductID int64 `json:"product_id"`
	VariantID int64 `json:"variant_id"`
}

// UpdateCartItemRequest accepts the quantity as a JSON number or string; it is
// parsed the same way as the HTML form field.
type UpdateCartItemRequest struct {
	Quantity json.RawMessage `json:"quantity"`
}

type CartItemResponse struct {
	Key       string       `json:"key"`
	ProductID int64        `json:"product_id"`
	VariantID int64        `json:"variant_id"`
	Name      string       `json:"name"`
	PhotoURL  *string      `json:"photo_url"`
	Price     domain.Money `json:"price"`
	Quantity  int          `json:"quantity"`
	Variant   string       `json:"variant"`
	Ukuran    string       `json:"ukuran"`
	MaxStock  int          `json:"max_stock"`
	LineTotal domain.Money `json:"line_total"`
}

type CartResponse struct {
	Items         []CartItemResponse `json:"items"`
	TotalQuantity int                `json:"total_quantity"`
	Subtotal      domain.Money       `json:"subtotal"`
	Tax           domain.Money       `json:"tax"`
	Discount      domain.Money       `json:"discount"`
	Total         domain.Money       `json:"total"`
}

type AddCartItemResponse struct {
	APIResponse
	Item *CartItemResponse `json:"item,omitempty"`
}

type OrderResponse struct {
	ID           string       `json:"id"`
	CustomerName string       `json:"customer_name"`
	Email        string       `json:"email"`
	Status       string       `json:"status"`
	Total        domain.Money `json:"total"`
	CreatedAt    time.Time    `json:"created_at"`
}

func (h *HTTPHandler) APIGetCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.carts.Reconcile(r.Context(), VisitorID(r.Context()))
	if err != nil {
		h.apiError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(view))
}

func (h *HTTPHandler) APIAddCartItem(w http.ResponseWriter, r *http.Request) {
	var req AddCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIResponse{
			Outcome: service.OutcomeInvalidInput.String(),
			Message: "invalid request body",
		})
		return
	}

	item, err := h.carts.Add(r.Context(), VisitorID(r.Context()), req.ProductID, req.VariantID)
	if err != nil {
		h.apiError(w, r, err)
		return
	}

	resp := toCartItemResponse(item)
	writeJSON(w, http.StatusOK, AddCartItemResponse{
		APIResponse: APIResponse{
			Success: true,
			Outcome: service.OutcomeSuccess.String(),
			Message: addFlash(service.OutcomeSuccess).Message,
		},
		Item: &resp,
	})
}

func (h *HTTPHandler) APIUpdateCartItem(w http.ResponseWriter, r *http.Request) {
	key, err := service.ParseItemKey(chi.URLParam(r, "itemKey"))
	if err != nil {
		h.apiError(w, r, err)
		return
	}

	var req UpdateCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIResponse{
			Outcome: service.OutcomeInvalidInput.String(),
			Message: "invalid request body",
		})
		return
	}

	raw := strings.Trim(string(req.Quantity), `"`)
	if err := h.carts.UpdateQuantity(r.Context(), VisitorID(r.Context()), key, raw); err != nil {
		h.apiError(w, r, err)
		return
	}
	h.APIGetCart(w, r)
}

func (h *HTTPHandler) APIRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	key, err := service.ParseItemKey(chi.URLParam(r, "itemKey"))
	if err != nil {
		h.apiError(w, r, err)
		return
	}

	if err := h.carts.Remove(r.Context(), VisitorID(r.Context()), key); err != nil {
		h.apiError(w, r, err)
		return
	}
	h.APIGetCart(w, r)
}

func (h *HTTPHandler) APIGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.Get(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		h.apiError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, OrderResponse{
		ID:           order.ID,
		CustomerName: order.CustomerName,
		Email:        order.Email,
		Status:       string(order.Status),
		Total:        order.Total,
		CreatedAt:    order.CreatedAt,
	})
}

// apiError writes the outcome of a failed call. Infrastructure errors are
// logged and reported without detail.
func (h *HTTPHandler) apiError(w http.ResponseWriter, r *http.Request, err error) {
	outcome := service.OutcomeOf(err)
	message := err.Error()

	if outcome == service.OutcomeFailure {
		h.logger.Error("api request failed", zapRequestFields(r, err)...)
		message = "internal error"
	} else {
		h.logOutcome(r, "api request", outcome)
		if errors.Is(err, service.ErrOrderNotFound) {
			message = orderNotFoundFlash(chi.URLParam(r, "orderID")).Message
		}
	}

	writeJSON(w, httpStatus(outcome), APIResponse{
		Outcome: outcome.String(),
		Message: message,
	})
}

func toCartResponse(view *service.CartView) CartResponse {
	lines := view.Lines()
	items := make([]CartItemResponse, 0, len(lines))
	for _, item := range lines {
		items = append(items, toCartItemResponse(item))
	}

	return CartResponse{
		Items:         items,
		TotalQuantity: view.Cart.TotalQuantity(),
		Subtotal:      view.Subtotal,
		Tax:           view.Tax,
		Discount:      view.Discount,
		Total:         view.Total,
	}
}

func toCartItemResponse(item domain.LineItem) CartItemResponse {
	return CartItemResponse{
		Key:       item.Key().String(),
		ProductID: item.ProductID,
		VariantID: item.VariantID,
		Name:      item.Name,
		PhotoURL:  item.PhotoURL,
		Price:     item.Price,
		Quantity:  item.Quantity,
		Variant:   item.Variant,
		Ukuran:    item.Ukuran,
		MaxStock:  item.MaxStock,
		LineTotal: item.LineTotal(),
	}
}
