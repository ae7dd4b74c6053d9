package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/foodcourt-system/internal/model"
	"github.com/mmeshcher/foodcourt-system/internal/pricing"
	"github.com/mmeshcher/foodcourt-system/internal/repository"
	"github.com/mmeshcher/foodcourt-system/internal/stock"
)

// CartView — расчёт корзины для показа: позиции, применённые скидки,
// итоги и уведомления об автоматически снятых ваучерах.
type CartView struct {
	Items     []model.CartItem
	Discounts map[int64]model.StallDiscount
	Quote     pricing.Quote
	Notices   []string
}

// selectionSet строит множество выбранных ключей. Пустой список означает
// «выбрано всё».
func selectionSet(items []model.CartItem, selectedKeys []string) map[string]bool {
	selected := make(map[string]bool, len(items))
	if len(selectedKeys) == 0 {
		pricing.SelectAllItems(items, selected, true)
		return selected
	}
	for _, k := range selectedKeys {
		selected[k] = true
	}
	return selected
}

// activeVouchers строит карту активных ваучеров по применённым скидкам
// корзины, проверяя каждый документ заживую. Недействительные привязки
// снимаются с корзины, о чём возвращается уведомление.
func (s *Service) activeVouchers(ctx context.Context, userID int64, discounts map[int64]model.StallDiscount) (map[int64]pricing.VoucherInfo, []string, error) {
	vouchers := make(map[int64]pricing.VoucherInfo, len(discounts))
	var notices []string

	for roomID, d := range discounts {
		v, err := s.repo.GetVoucherByTitle(ctx, d.Voucher)
		if err != nil {
			if errors.Is(err, repository.ErrVoucherNotFound) {
				if err := s.carts.RemoveVoucher(ctx, userID, roomID); err != nil {
					return nil, nil, err
				}
				delete(discounts, roomID)
				notices = append(notices, fmt.Sprintf("Voucher %q is no longer available and was removed", d.Voucher))
				continue
			}
			return nil, nil, err
		}
		if !v.Active(time.Now()) || !v.ClaimedBy(userID) {
			if err := s.carts.RemoveVoucher(ctx, userID, roomID); err != nil {
				return nil, nil, err
			}
			delete(discounts, roomID)
			notices = append(notices, fmt.Sprintf("Voucher %q is no longer active and was removed", d.Voucher))
			continue
		}
		vouchers[roomID] = pricing.VoucherInfo{
			Title:     v.Title,
			Percent:   v.Discount,
			MinOrders: v.MinOrders,
		}
	}
	return vouchers, notices, nil
}

// QuoteCart считает корзину по выбранным позициям. Попутно выполняется
// проверка порогов: ваучер, чей минимум больше не выполняется, снимается
// с ларька и возвращается в хранилище как непогашенный.
func (s *Service) QuoteCart(ctx context.Context, userID int64, selectedKeys []string) (*CartView, error) {
	items, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	discounts, err := s.carts.Discounts(ctx, userID)
	if err != nil {
		return nil, err
	}

	selected := selectionSet(items, selectedKeys)

	vouchers, notices, err := s.activeVouchers(ctx, userID, discounts)
	if err != nil {
		return nil, err
	}

	for _, viol := range pricing.MinimumViolations(items, selected, vouchers) {
		if err := s.repo.UnredeemVoucher(ctx, viol.Title, userID); err != nil {
			return nil, err
		}
		if err := s.carts.RemoveVoucher(ctx, userID, viol.RoomID); err != nil {
			return nil, err
		}
		delete(vouchers, viol.RoomID)
		delete(discounts, viol.RoomID)
		s.metrics.VouchersRevoked.Inc()
		notices = append(notices, fmt.Sprintf(
			"Voucher %q removed: minimum order of %.2f not met", viol.Title, float64(viol.MinOrders)/100))
	}

	return &CartView{
		Items:     items,
		Discounts: discounts,
		Quote:     pricing.Compute(items, selected, vouchers),
		Notices:   notices,
	}, nil
}

// Checkout оформляет заказ по выбранным позициям корзины. Скидки
// пересчитываются на сервере по живым документам ваучеров; суммы от
// клиента не принимаются. Списание склада, погашение ваучеров и запись
// заказа выполняются одной транзакцией.
func (s *Service) Checkout(ctx context.Context, userID int64, selectedKeys []string) (*model.Order, error) {
	start := time.Now()

	order, err := s.checkout(ctx, userID, selectedKeys)
	if err != nil {
		s.metrics.CheckoutFailures.Inc()
		if errors.Is(err, stock.ErrInsufficientStock) {
			s.metrics.InsufficientStock.Inc()
		}
		return nil, err
	}

	s.metrics.Checkouts.Inc()
	s.metrics.CheckoutLatencySec.Observe(time.Since(start).Seconds())
	return order, nil
}

func (s *Service) checkout(ctx context.Context, userID int64, selectedKeys []string) (*model.Order, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	items, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	selected := selectionSet(items, selectedKeys)

	var selectedItems []model.CartItem
	for _, it := range items {
		if selected[it.Key()] {
			selectedItems = append(selectedItems, it)
		}
	}
	if len(selectedItems) == 0 {
		return nil, ErrEmptyCart
	}

	discounts, err := s.carts.Discounts(ctx, userID)
	if err != nil {
		return nil, err
	}

	inSelection := make(map[int64]bool)
	for _, it := range selectedItems {
		inSelection[it.RoomID] = true
	}

	// Ваучеры проверяются по живым документам: просроченный, чужой или
	// неполученный ваучер блокирует оформление.
	vouchers := make(map[int64]pricing.VoucherInfo)
	var voucherTitles []string
	for roomID, d := range discounts {
		if !inSelection[roomID] {
			continue
		}
		v, err := s.repo.GetVoucherByTitle(ctx, d.Voucher)
		if err != nil {
			return nil, err
		}
		if !v.Active(time.Now()) {
			return nil, fmt.Errorf("%w: %s", ErrVoucherInactive, v.Title)
		}
		if !v.ClaimedBy(userID) {
			return nil, fmt.Errorf("%w: %s", ErrVoucherNotClaimed, v.Title)
		}
		vouchers[roomID] = pricing.VoucherInfo{
			Title:     v.Title,
			Percent:   v.Discount,
			MinOrders: v.MinOrders,
		}
		voucherTitles = append(voucherTitles, v.Title)
	}

	if viols := pricing.MinimumViolations(items, selected, vouchers); len(viols) > 0 {
		v := viols[0]
		return nil, fmt.Errorf("%w: %q requires a minimum order of %.2f",
			ErrVoucherMinimum, v.Title, float64(v.MinOrders)/100)
	}

	quote := pricing.Compute(items, selected, vouchers)

	itemQuotes := make(map[string]pricing.ItemQuote, len(quote.Items))
	for _, iq := range quote.Items {
		itemQuotes[iq.Key] = iq
	}

	order := &model.Order{
		ID:     uuid.NewString(),
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Phone:  user.Phone,
		Status: []string{model.OrderStatusPlaced},
		Total: model.OrderTotal{
			Base:     quote.Base,
			Discount: quote.Discount,
			Final:    quote.Total,
		},
		CreatedAt: time.Now(),
	}

	for _, it := range selectedItems {
		snapshot := model.OrderItem{
			RoomID:         it.RoomID,
			MenuName:       it.MenuName,
			Size:           it.Size,
			MenuPrice:      float64(it.MenuPrice) / 100,
			Quantity:       it.Quantity,
			DiscountAmount: float64(itemQuotes[it.Key()].Discount) / 100,
		}
		data, err := json.Marshal(snapshot)
		if err != nil {
			return nil, fmt.Errorf("marshal order item: %w", err)
		}
		order.Items = append(order.Items, string(data))
	}

	for _, sq := range quote.Stalls {
		if sq.Label != "" {
			order.Promos = append(order.Promos, fmt.Sprintf("Stall %d: %s", sq.RoomID, sq.Label))
		}
	}

	deductions := stock.GroupByStall(selectedItems)

	if err := s.repo.CreateOrder(ctx, order, deductions, voucherTitles); err != nil {
		return nil, err
	}

	if err := s.carts.Clear(ctx, userID); err != nil {
		// Заказ уже оформлен; оставшаяся корзина не повод возвращать ошибку.
		s.logger.Warn("clear cart after checkout failed", zap.Int64("userID", userID), zap.Error(err))
	}

	if s.resync != nil {
		for stallID := range deductions {
			if err := s.resync.Recompute(ctx, stallID); err != nil {
				s.metrics.ResyncFailures.Inc()
				s.markPendingResync(stallID)
				s.logger.Warn("availability resync failed",
					zap.Int64("stallID", stallID), zap.Error(err))
			}
		}
	}

	return order, nil
}
