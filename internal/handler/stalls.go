package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/foodcourt-system/internal/model"
	"github.com/mmeshcher/foodcourt-system/internal/repository"
	"github.com/mmeshcher/foodcourt-system/internal/stock"
)

type menuItemResponse struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int64   `json:"quantity"`
}

type stallResponse struct {
	ID   int64              `json:"id"`
	Name string             `json:"name"`
	Menu []menuItemResponse `json:"menu"`
}

func toStallResponse(s *model.Stall) stallResponse {
	resp := stallResponse{
		ID:   s.ID,
		Name: s.Name,
		Menu: make([]menuItemResponse, 0, len(s.MenuNames)),
	}
	for i, name := range s.MenuNames {
		item := menuItemResponse{Name: name}
		if i < len(s.MenuPrices) {
			item.Price = float64(s.MenuPrices[i]) / 100
		}
		if i < len(s.MenuQuantities) {
			item.Quantity = s.MenuQuantities[i]
		}
		resp.Menu = append(resp.Menu, item)
	}
	return resp
}

// ListStalls возвращает все ларьки с меню.
func (h *Handler) ListStalls(w http.ResponseWriter, r *http.Request) {
	stalls, err := h.service.ListStalls(r.Context())
	if err != nil {
		h.logger.Error("list stalls error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := make([]stallResponse, 0, len(stalls))
	for i := range stalls {
		resp = append(resp, toStallResponse(&stalls[i]))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetStall возвращает один ларёк с меню.
func (h *Handler) GetStall(w http.ResponseWriter, r *http.Request) {
	stallID, ok := stallIDParam(w, r)
	if !ok {
		return
	}

	stall, err := h.service.GetStall(r.Context(), stallID)
	if err != nil {
		if errors.Is(err, repository.ErrStallNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("get stall error", zap.Error(err), zap.Int64("stallID", stallID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toStallResponse(stall))
}

type createStallRequest struct {
	Name string `json:"name"`
}

// CreateStall создаёт ларёк для текущего пользователя.
func (h *Handler) CreateStall(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req createStallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	id, err := h.service.CreateStall(r.Context(), userID, req.Name)
	if err != nil {
		h.logger.Error("create stall error", zap.Error(err), zap.Int64("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

type inventoryMenuItem struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int64   `json:"quantity"`
}

type updateInventoryRequest struct {
	Menu   []inventoryMenuItem `json:"menu"`
	Stocks []string            `json:"stocks"`
}

// UpdateInventory заменяет меню и записи склада ларька.
func (h *Handler) UpdateInventory(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	stallID, ok := stallIDParam(w, r)
	if !ok {
		return
	}

	var req updateInventoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	stall := &model.Stall{ID: stallID}
	for _, m := range req.Menu {
		stall.MenuNames = append(stall.MenuNames, m.Name)
		stall.MenuPrices = append(stall.MenuPrices, int64(m.Price*100+0.5))
		stall.MenuQuantities = append(stall.MenuQuantities, m.Quantity)
	}
	stall.Stocks = req.Stocks

	err := h.service.UpdateStallInventory(r.Context(), userID, stall)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrStallNotFound):
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		case errors.Is(err, repository.ErrNotStallOwner):
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		case errors.Is(err, stock.ErrMalformedRecord):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			h.logger.Error("update inventory error", zap.Error(err), zap.Int64("stallID", stallID))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
}

type stockRecordResponse struct {
	Group       string   `json:"group"`
	Ingredient  string   `json:"ingredient"`
	LinkedMenus []string `json:"linkedMenus,omitempty"`
	Amount      float64  `json:"amount"`
	Unit        string   `json:"unit"`
	BatchDate   string   `json:"batchDate"`
	ExpiryDate  string   `json:"expiryDate"`
}

// GetStocks возвращает распакованные записи склада ларька его владельцу.
func (h *Handler) GetStocks(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	stallID, ok := stallIDParam(w, r)
	if !ok {
		return
	}

	records, err := h.service.StockRecords(r.Context(), userID, stallID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrStallNotFound):
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		case errors.Is(err, repository.ErrNotStallOwner):
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		default:
			h.logger.Error("get stocks error", zap.Error(err), zap.Int64("stallID", stallID))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	resp := make([]stockRecordResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, stockRecordResponse{
			Group:       rec.Group,
			Ingredient:  rec.Ingredient,
			LinkedMenus: rec.LinkedMenus,
			Amount:      rec.Amount,
			Unit:        rec.Unit,
			BatchDate:   rec.BatchDate,
			ExpiryDate:  rec.ExpiryDate,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

type voucherResponse struct {
	Title     string  `json:"title"`
	Discount  int     `json:"discount"`
	MinOrders float64 `json:"min_orders"`
	Quantity  int     `json:"quantity"`
	Claimed   int     `json:"claimed"`
	ValidTo   string  `json:"valid_to"`
}

// ListVouchers возвращает ваучеры ларька.
func (h *Handler) ListVouchers(w http.ResponseWriter, r *http.Request) {
	stallID, ok := stallIDParam(w, r)
	if !ok {
		return
	}

	vouchers, err := h.service.ListVouchers(r.Context(), stallID)
	if err != nil {
		h.logger.Error("list vouchers error", zap.Error(err), zap.Int64("stallID", stallID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := make([]voucherResponse, 0, len(vouchers))
	for _, v := range vouchers {
		resp = append(resp, voucherResponse{
			Title:     v.Title,
			Discount:  v.Discount,
			MinOrders: float64(v.MinOrders) / 100,
			Quantity:  v.Quantity,
			Claimed:   len(v.ClaimedUsers),
			ValidTo:   v.ValidTo.Format("2006-01-02"),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

type createVoucherRequest struct {
	StallID   int64   `json:"stall_id"`
	Title     string  `json:"title"`
	Discount  int     `json:"discount"`
	MinOrders float64 `json:"min_orders"`
	Quantity  int     `json:"quantity"`
	ValidTo   string  `json:"valid_to"`
}

// CreateVoucher создаёт ваучер от имени владельца ларька.
func (h *Handler) CreateVoucher(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req createVoucherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	validTo, err := time.Parse("2006-01-02", req.ValidTo)
	if err != nil {
		http.Error(w, "valid_to must be a YYYY-MM-DD date", http.StatusUnprocessableEntity)
		return
	}

	id, err := h.service.CreateVoucher(r.Context(), userID, &model.Voucher{
		StallID:   req.StallID,
		Title:     req.Title,
		Discount:  req.Discount,
		MinOrders: int64(req.MinOrders*100 + 0.5),
		Quantity:  req.Quantity,
		ValidTo:   validTo,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrStallNotFound):
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		case errors.Is(err, repository.ErrNotStallOwner):
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		case errors.Is(err, repository.ErrVoucherExists):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}
