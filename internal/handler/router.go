package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/mmeshcher/foodcourt-system/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса фудкорта.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Post("/api/user/register", h.Register)
	r.Post("/api/user/login", h.Login)

	r.Get("/api/stalls", h.ListStalls)
	r.Get("/api/stalls/{stallID}", h.GetStall)
	r.Get("/api/stalls/{stallID}/vouchers", h.ListVouchers)

	r.Group(func(r chi.Router) {
		r.Use(h.authMiddleware.Middleware)

		r.Get("/api/cart", h.GetCart)
		r.Post("/api/cart/quote", h.QuoteCart)
		r.Post("/api/cart/items", h.AddCartItem)
		r.Put("/api/cart/items", h.UpdateCartItem)
		r.Delete("/api/cart/items", h.RemoveCartItem)
		r.Post("/api/cart/voucher", h.ApplyVoucher)
		r.Delete("/api/cart/voucher", h.RemoveVoucher)
		r.Post("/api/cart/special", h.SetSpecialDiscount)

		r.Post("/api/vouchers/claim", h.ClaimVoucher)
		r.Post("/api/vouchers", h.CreateVoucher)

		r.Post("/api/checkout", h.Checkout)
		r.Get("/api/orders", h.GetOrders)

		r.Post("/api/stalls", h.CreateStall)
		r.Put("/api/stalls/{stallID}/inventory", h.UpdateInventory)
		r.Get("/api/stalls/{stallID}/stocks", h.GetStocks)
	})

	if h.metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", h.metricsHandler)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
