// Package handler содержит HTTP-обработчики API сервиса фудкорта.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/foodcourt-system/internal/cart"
	"github.com/mmeshcher/foodcourt-system/internal/middleware"
	"github.com/mmeshcher/foodcourt-system/internal/model"
	"github.com/mmeshcher/foodcourt-system/internal/repository"
	"github.com/mmeshcher/foodcourt-system/internal/service"
	"github.com/mmeshcher/foodcourt-system/internal/stock"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	RegisterUser(ctx context.Context, login, password, name, email, phone string) (int64, error)
	AuthenticateUser(ctx context.Context, login, password string) (int64, error)
	AddToCart(ctx context.Context, userID, roomID int64, menuName, size string, quantity int64) error
	UpdateCartQuantity(ctx context.Context, userID int64, key string, quantity int64) error
	RemoveFromCart(ctx context.Context, userID int64, key string) error
	QuoteCart(ctx context.Context, userID int64, selectedKeys []string) (*service.CartView, error)
	ApplyVoucher(ctx context.Context, userID, roomID int64, title string) error
	RemoveVoucher(ctx context.Context, userID, roomID int64) error
	SetSpecialDiscount(ctx context.Context, userID int64, key string, on bool) error
	ClaimVoucher(ctx context.Context, userID int64, title string) error
	ListVouchers(ctx context.Context, stallID int64) ([]model.Voucher, error)
	CreateVoucher(ctx context.Context, ownerID int64, v *model.Voucher) (int64, error)
	Checkout(ctx context.Context, userID int64, selectedKeys []string) (*model.Order, error)
	GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error)
	CreateStall(ctx context.Context, ownerID int64, name string) (int64, error)
	GetStall(ctx context.Context, id int64) (*model.Stall, error)
	ListStalls(ctx context.Context) ([]model.Stall, error)
	UpdateStallInventory(ctx context.Context, ownerID int64, stall *model.Stall) error
	StockRecords(ctx context.Context, ownerID, stallID int64) ([]stock.Record, error)
}

// Handler реализует HTTP-обработчики API сервиса фудкорта.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
	metricsHandler http.Handler
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware, metricsHandler http.Handler) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
		metricsHandler: metricsHandler,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type registerRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// Register обрабатывает регистрацию нового пользователя.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Login == "" || req.Password == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	userID, err := h.service.RegisterUser(r.Context(), req.Login, req.Password, req.Name, req.Email, req.Phone)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUserExists):
			http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
		case errors.Is(err, service.ErrInvalidPhone):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			h.logger.Error("register user error", zap.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	h.authMiddleware.SetAuthCookie(w, userID)
	w.WriteHeader(http.StatusOK)
}

type credentialsRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Login выполняет аутентификацию пользователя и установку cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Login == "" || req.Password == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	userID, err := h.service.AuthenticateUser(r.Context(), req.Login, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) || errors.Is(err, service.ErrInvalidCredentials) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		h.logger.Error("login user error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.authMiddleware.SetAuthCookie(w, userID)
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return 0, false
	}
	return userID, true
}

type cartItemResponse struct {
	Key       string  `json:"key"`
	RoomID    int64   `json:"room_id"`
	MenuName  string  `json:"menuName"`
	Size      string  `json:"size"`
	MenuPrice float64 `json:"menuPrice"`
	Quantity  int64   `json:"quantity"`
	MenuImage string  `json:"menuImage,omitempty"`
	Special   bool    `json:"special"`
}

type stallQuoteResponse struct {
	RoomID   int64   `json:"room_id"`
	Subtotal float64 `json:"subtotal"`
	Discount float64 `json:"discount"`
	Total    float64 `json:"total"`
	Label    string  `json:"label,omitempty"`
}

type quoteResponse struct {
	Stalls   []stallQuoteResponse `json:"stalls"`
	Base     float64              `json:"base"`
	Discount float64              `json:"discount"`
	Total    float64              `json:"total"`
}

type cartResponse struct {
	Items     []cartItemResponse            `json:"items"`
	Discounts map[int64]model.StallDiscount `json:"discounts"`
	Quote     quoteResponse                 `json:"quote"`
	Notices   []string                      `json:"notices,omitempty"`
}

func toCartResponse(view *service.CartView) cartResponse {
	resp := cartResponse{
		Items:     make([]cartItemResponse, 0, len(view.Items)),
		Discounts: view.Discounts,
		Notices:   view.Notices,
	}
	for _, it := range view.Items {
		resp.Items = append(resp.Items, cartItemResponse{
			Key:       it.Key(),
			RoomID:    it.RoomID,
			MenuName:  it.MenuName,
			Size:      it.Size,
			MenuPrice: float64(it.MenuPrice) / 100,
			Quantity:  it.Quantity,
			MenuImage: it.MenuImage,
			Special:   it.Special,
		})
	}
	resp.Quote.Stalls = make([]stallQuoteResponse, 0, len(view.Quote.Stalls))
	for _, sq := range view.Quote.Stalls {
		resp.Quote.Stalls = append(resp.Quote.Stalls, stallQuoteResponse{
			RoomID:   sq.RoomID,
			Subtotal: float64(sq.Subtotal) / 100,
			Discount: float64(sq.Discount) / 100,
			Total:    float64(sq.Total) / 100,
			Label:    sq.Label,
		})
	}
	resp.Quote.Base = float64(view.Quote.Base) / 100
	resp.Quote.Discount = float64(view.Quote.Discount) / 100
	resp.Quote.Total = float64(view.Quote.Total) / 100
	return resp
}

// GetCart возвращает корзину с расчётом по всем позициям.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	view, err := h.service.QuoteCart(r.Context(), userID, nil)
	if err != nil {
		h.logger.Error("get cart error", zap.Error(err), zap.Int64("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toCartResponse(view))
}

type quoteRequest struct {
	Selected []string `json:"selected"`
}

// QuoteCart возвращает расчёт корзины по выбранным позициям.
func (h *Handler) QuoteCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	view, err := h.service.QuoteCart(r.Context(), userID, req.Selected)
	if err != nil {
		h.logger.Error("quote cart error", zap.Error(err), zap.Int64("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toCartResponse(view))
}

type addItemRequest struct {
	RoomID   int64  `json:"room_id"`
	MenuName string `json:"menuName"`
	Size     string `json:"size"`
	Quantity int64  `json:"quantity"`
}

// AddCartItem добавляет позицию в корзину.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	err := h.service.AddToCart(r.Context(), userID, req.RoomID, req.MenuName, req.Size, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrStallNotFound), errors.Is(err, service.ErrMenuItemUnknown):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			h.logger.Error("add cart item error", zap.Error(err), zap.Int64("userID", userID))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
}

type updateItemRequest struct {
	Key      string `json:"key"`
	Quantity int64  `json:"quantity"`
}

// UpdateCartItem выставляет количество позиции корзины.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.UpdateCartQuantity(r.Context(), userID, req.Key, req.Quantity); err != nil {
		h.cartItemError(w, err, userID)
		return
	}

	w.WriteHeader(http.StatusOK)
}

type removeItemRequest struct {
	Key string `json:"key"`
}

// RemoveCartItem убирает позицию из корзины.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req removeItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.RemoveFromCart(r.Context(), userID, req.Key); err != nil {
		h.cartItemError(w, err, userID)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) cartItemError(w http.ResponseWriter, err error, userID int64) {
	switch {
	case errors.Is(err, cart.ErrItemNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, cart.ErrBadQuantity):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		h.logger.Error("cart item error", zap.Error(err), zap.Int64("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

type applyVoucherRequest struct {
	RoomID int64  `json:"room_id"`
	Title  string `json:"title"`
}

// ApplyVoucher применяет ваучер к ларьку в корзине.
func (h *Handler) ApplyVoucher(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req applyVoucherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	err := h.service.ApplyVoucher(r.Context(), userID, req.RoomID, req.Title)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrVoucherNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, service.ErrVoucherWrongStall),
			errors.Is(err, service.ErrVoucherInactive),
			errors.Is(err, service.ErrVoucherNotClaimed),
			errors.Is(err, service.ErrVoucherMinimum):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			h.logger.Error("apply voucher error", zap.Error(err), zap.Int64("userID", userID))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
}

type removeVoucherRequest struct {
	RoomID int64 `json:"room_id"`
}

// RemoveVoucher снимает ваучер с ларька в корзине.
func (h *Handler) RemoveVoucher(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req removeVoucherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.RemoveVoucher(r.Context(), userID, req.RoomID); err != nil {
		h.logger.Error("remove voucher error", zap.Error(err), zap.Int64("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

type specialRequest struct {
	Key     string `json:"key"`
	Enabled bool   `json:"enabled"`
}

// SetSpecialDiscount включает или выключает специальную скидку позиции.
func (h *Handler) SetSpecialDiscount(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req specialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	err := h.service.SetSpecialDiscount(r.Context(), userID, req.Key, req.Enabled)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotEligible), errors.Is(err, cart.ErrVoucherApplied):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		case errors.Is(err, cart.ErrItemNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			h.logger.Error("set special discount error", zap.Error(err), zap.Int64("userID", userID))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
}

type claimVoucherRequest struct {
	Title string `json:"title"`
}

// ClaimVoucher резервирует ваучер за текущим пользователем.
func (h *Handler) ClaimVoucher(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req claimVoucherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	err := h.service.ClaimVoucher(r.Context(), userID, req.Title)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrVoucherNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, repository.ErrVoucherClaimed),
			errors.Is(err, repository.ErrVoucherExhausted),
			errors.Is(err, repository.ErrVoucherExpired):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			h.logger.Error("claim voucher error", zap.Error(err), zap.Int64("userID", userID))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
}

type checkoutRequest struct {
	Selected []string `json:"selected"`
}

type orderResponse struct {
	ID        string            `json:"id"`
	Status    []string          `json:"status"`
	Items     []model.OrderItem `json:"items"`
	Total     model.OrderTotal  `json:"total"`
	Promos    []string          `json:"promos"`
	CreatedAt string            `json:"created_at"`
}

func toOrderResponse(o *model.Order) orderResponse {
	resp := orderResponse{
		ID:        o.ID,
		Status:    o.Status,
		Total:     o.Total,
		Promos:    o.Promos,
		CreatedAt: o.CreatedAt.Format(time.RFC3339),
	}
	for _, raw := range o.Items {
		var it model.OrderItem
		if err := json.Unmarshal([]byte(raw), &it); err != nil {
			continue
		}
		resp.Items = append(resp.Items, it)
	}
	return resp
}

type checkoutResult struct {
	Success bool           `json:"success"`
	OrderID string         `json:"orderId,omitempty"`
	Order   *orderResponse `json:"order,omitempty"`
	Message string         `json:"message,omitempty"`
}

// Checkout оформляет заказ по выбранным позициям корзины.
// Любой отказ возвращается структурированным результатом с коротким
// человекочитаемым сообщением.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req checkoutRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, checkoutResult{Success: false, Message: "Invalid request"})
			return
		}
	}

	order, err := h.service.Checkout(r.Context(), userID, req.Selected)
	if err != nil {
		h.writeCheckoutError(w, err, userID)
		return
	}

	resp := toOrderResponse(order)
	writeJSON(w, http.StatusOK, checkoutResult{
		Success: true,
		OrderID: order.ID,
		Order:   &resp,
	})
}

func (h *Handler) writeCheckoutError(w http.ResponseWriter, err error, userID int64) {
	switch {
	case errors.Is(err, service.ErrEmptyCart):
		writeJSON(w, http.StatusBadRequest, checkoutResult{Success: false, Message: "Cart is empty"})
	case errors.Is(err, stock.ErrInsufficientStock),
		errors.Is(err, stock.ErrUnknownMenuItem):
		writeJSON(w, http.StatusConflict, checkoutResult{Success: false, Message: err.Error()})
	case errors.Is(err, service.ErrVoucherMinimum),
		errors.Is(err, service.ErrVoucherInactive),
		errors.Is(err, service.ErrVoucherNotClaimed),
		errors.Is(err, repository.ErrVoucherNotFound):
		writeJSON(w, http.StatusUnprocessableEntity, checkoutResult{Success: false, Message: err.Error()})
	case errors.Is(err, repository.ErrUserNotFound):
		writeJSON(w, http.StatusUnauthorized, checkoutResult{Success: false, Message: "Unauthorized"})
	default:
		h.logger.Error("checkout error", zap.Error(err), zap.Int64("userID", userID))
		writeJSON(w, http.StatusInternalServerError, checkoutResult{Success: false, Message: "Checkout failed, please try again"})
	}
}

// GetOrders возвращает заказы текущего пользователя.
func (h *Handler) GetOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	orders, err := h.service.GetOrdersByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("get orders error", zap.Error(err), zap.Int64("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if len(orders) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for i := range orders {
		resp = append(resp, toOrderResponse(&orders[i]))
	}

	writeJSON(w, http.StatusOK, resp)
}

func stallIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "stallID"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
