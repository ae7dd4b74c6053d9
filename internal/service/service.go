// Package service реализует бизнес-логику сервиса фудкорта.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/foodcourt-system/internal/metrics"
	"github.com/mmeshcher/foodcourt-system/internal/model"
	"github.com/mmeshcher/foodcourt-system/internal/repository"
	"github.com/mmeshcher/foodcourt-system/internal/stock"
	"github.com/mmeshcher/foodcourt-system/internal/validation"
)

// ErrEmptyCart возвращается при оформлении пустой корзины или пустого выбора.
var (
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidPhone возвращается при регистрации с некорректным номером телефона.
	ErrInvalidPhone = errors.New("invalid phone number")
	// ErrInvalidCredentials возвращается при неверной паре логин/пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMenuItemUnknown возвращается, если блюда нет в меню ларька.
	ErrMenuItemUnknown = errors.New("menu item not found")
	// ErrNotEligible возвращается при включении специальной скидки без
	// подтверждённого документа PWD/senior.
	ErrNotEligible = errors.New("special discount requires an approved PWD/senior record")
	// ErrVoucherNotClaimed возвращается при применении неполученного ваучера.
	ErrVoucherNotClaimed = errors.New("voucher not claimed by user")
	// ErrVoucherInactive возвращается при применении просроченного ваучера.
	ErrVoucherInactive = errors.New("voucher is no longer active")
	// ErrVoucherWrongStall возвращается, если ваучер выпущен другим ларьком.
	ErrVoucherWrongStall = errors.New("voucher belongs to another stall")
	// ErrVoucherMinimum возвращается, когда сумма по ларьку ниже порога ваучера.
	ErrVoucherMinimum = errors.New("voucher minimum order not met")
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	CreateUser(ctx context.Context, u *model.User) (int64, error)
	GetUserByLogin(ctx context.Context, login string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	CreateStall(ctx context.Context, ownerID int64, name string) (int64, error)
	GetStall(ctx context.Context, id int64) (*model.Stall, error)
	ListStalls(ctx context.Context) ([]model.Stall, error)
	UpdateStallInventory(ctx context.Context, ownerID int64, s *model.Stall) error
	CreateVoucher(ctx context.Context, v *model.Voucher) (int64, error)
	GetVoucherByTitle(ctx context.Context, title string) (*model.Voucher, error)
	ListVouchersByStall(ctx context.Context, stallID int64) ([]model.Voucher, error)
	ClaimVoucher(ctx context.Context, title string, userID int64) error
	UnredeemVoucher(ctx context.Context, title string, userID int64) error
	CreateOrder(ctx context.Context, order *model.Order, deductions map[int64]map[string]int64, voucherTitles []string) error
	GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error)
	AppendOrderStatus(ctx context.Context, orderID, status string) error
}

// CartStore описывает контракт хранилища корзин.
type CartStore interface {
	Get(ctx context.Context, userID int64) ([]model.CartItem, error)
	Add(ctx context.Context, userID int64, item model.CartItem) error
	UpdateQuantity(ctx context.Context, userID int64, key string, quantity int64) error
	Remove(ctx context.Context, userID int64, key string) error
	Clear(ctx context.Context, userID int64) error
	Discounts(ctx context.Context, userID int64) (map[int64]model.StallDiscount, error)
	ApplyVoucher(ctx context.Context, userID, roomID int64, title string) error
	RemoveVoucher(ctx context.Context, userID, roomID int64) error
	SetSpecial(ctx context.Context, userID int64, key string, on bool) error
}

// Resyncer описывает контракт системы пересчёта доступности меню.
type Resyncer interface {
	Recompute(ctx context.Context, stallID int64) error
}

// Service содержит бизнес-логику сервиса фудкорта.
type Service struct {
	repo    Repository
	carts   CartStore
	resync  Resyncer
	logger  *zap.Logger
	metrics *metrics.Registry

	mu            sync.Mutex
	pendingResync map[int64]struct{}
}

// NewService создаёт сервис с указанными хранилищами и клиентом пересчёта
// доступности. resync может быть nil, если внешняя система не настроена.
func NewService(repo Repository, carts CartStore, resync Resyncer, logger *zap.Logger, reg *metrics.Registry) *Service {
	return &Service{
		repo:          repo,
		carts:         carts,
		resync:        resync,
		logger:        logger,
		metrics:       reg,
		pendingResync: make(map[int64]struct{}),
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// RegisterUser регистрирует нового пользователя.
func (s *Service) RegisterUser(ctx context.Context, login, password, name, email, phone string) (int64, error) {
	if !validation.IsValidPhone(phone) {
		return 0, ErrInvalidPhone
	}

	u := &model.User{
		Login:        login,
		PasswordHash: hashPassword(login, password),
		Name:         name,
		Email:        email,
		Phone:        phone,
	}

	id, err := s.repo.CreateUser(ctx, u)
	if err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return 0, repository.ErrUserExists
		}
		return 0, err
	}
	return id, nil
}

// AuthenticateUser проверяет логин и пароль пользователя и возвращает его идентификатор.
func (s *Service) AuthenticateUser(ctx context.Context, login, password string) (int64, error) {
	u, err := s.repo.GetUserByLogin(ctx, login)
	if err != nil {
		return 0, err
	}

	hashed := hashPassword(login, password)
	if hex.EncodeToString(hashed) != hex.EncodeToString(u.PasswordHash) {
		return 0, ErrInvalidCredentials
	}

	return u.ID, nil
}

func hashPassword(login, password string) []byte {
	sum := sha256.Sum256([]byte(login + ":" + password))
	return sum[:]
}

// AddToCart добавляет блюдо в корзину. Цена берётся из меню ларька,
// а не из запроса клиента.
func (s *Service) AddToCart(ctx context.Context, userID, roomID int64, menuName, size string, quantity int64) error {
	stall, err := s.repo.GetStall(ctx, roomID)
	if err != nil {
		return err
	}

	idx := stall.MenuIndex(menuName)
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrMenuItemUnknown, menuName)
	}

	if size == "" {
		size = model.OneSize
	}

	return s.carts.Add(ctx, userID, model.CartItem{
		RoomID:    roomID,
		MenuName:  menuName,
		Size:      size,
		MenuPrice: stall.MenuPrices[idx],
		Quantity:  quantity,
	})
}

// UpdateCartQuantity выставляет количество позиции корзины.
func (s *Service) UpdateCartQuantity(ctx context.Context, userID int64, key string, quantity int64) error {
	return s.carts.UpdateQuantity(ctx, userID, key, quantity)
}

// RemoveFromCart убирает позицию из корзины.
func (s *Service) RemoveFromCart(ctx context.Context, userID int64, key string) error {
	return s.carts.Remove(ctx, userID, key)
}

// ApplyVoucher применяет полученный пользователем ваучер к ларьку.
// Флаги специальной скидки на позициях ларька при этом снимаются.
func (s *Service) ApplyVoucher(ctx context.Context, userID, roomID int64, title string) error {
	v, err := s.repo.GetVoucherByTitle(ctx, title)
	if err != nil {
		return err
	}
	if v.StallID != roomID {
		return ErrVoucherWrongStall
	}
	if !v.Active(time.Now()) {
		return fmt.Errorf("%w: %s", ErrVoucherInactive, title)
	}
	if !v.ClaimedBy(userID) {
		return fmt.Errorf("%w: %s", ErrVoucherNotClaimed, title)
	}

	items, err := s.carts.Get(ctx, userID)
	if err != nil {
		return err
	}
	var subtotal int64
	for _, it := range items {
		if it.RoomID == roomID {
			subtotal += it.MenuPrice * it.Quantity
		}
	}
	if subtotal < v.MinOrders {
		return fmt.Errorf("%w: %q requires a minimum order of %.2f", ErrVoucherMinimum, title, float64(v.MinOrders)/100)
	}

	return s.carts.ApplyVoucher(ctx, userID, roomID, title)
}

// RemoveVoucher снимает ваучер с ларька в корзине пользователя.
func (s *Service) RemoveVoucher(ctx context.Context, userID, roomID int64) error {
	return s.carts.RemoveVoucher(ctx, userID, roomID)
}

// SetSpecialDiscount включает или выключает специальную скидку позиции.
// Включение доступно только пользователям с подтверждённым правом и
// отклоняется, если на ларёк уже применён ваучер.
func (s *Service) SetSpecialDiscount(ctx context.Context, userID int64, key string, on bool) error {
	if on {
		u, err := s.repo.GetUserByID(ctx, userID)
		if err != nil {
			return err
		}
		if !u.SpecialDiscount {
			return ErrNotEligible
		}
	}
	return s.carts.SetSpecial(ctx, userID, key, on)
}

// ClaimVoucher резервирует ваучер за пользователем.
func (s *Service) ClaimVoucher(ctx context.Context, userID int64, title string) error {
	return s.repo.ClaimVoucher(ctx, title, userID)
}

// ListVouchers возвращает ваучеры ларька.
func (s *Service) ListVouchers(ctx context.Context, stallID int64) ([]model.Voucher, error) {
	return s.repo.ListVouchersByStall(ctx, stallID)
}

// CreateVoucher создаёт ваучер от имени владельца ларька.
func (s *Service) CreateVoucher(ctx context.Context, ownerID int64, v *model.Voucher) (int64, error) {
	if v.Discount < 0 || v.Discount > 100 {
		return 0, errors.New("discount must be between 0 and 100")
	}
	if v.Quantity < 1 {
		return 0, errors.New("quantity must be at least 1")
	}
	if v.MinOrders < 0 {
		return 0, errors.New("minimum order must not be negative")
	}

	stall, err := s.repo.GetStall(ctx, v.StallID)
	if err != nil {
		return 0, err
	}
	if stall.OwnerID != ownerID {
		return 0, repository.ErrNotStallOwner
	}

	return s.repo.CreateVoucher(ctx, v)
}

// CreateStall создаёт ларёк для владельца.
func (s *Service) CreateStall(ctx context.Context, ownerID int64, name string) (int64, error) {
	if name == "" {
		return 0, errors.New("stall name must not be empty")
	}
	return s.repo.CreateStall(ctx, ownerID, name)
}

// GetStall возвращает ларёк.
func (s *Service) GetStall(ctx context.Context, id int64) (*model.Stall, error) {
	return s.repo.GetStall(ctx, id)
}

// ListStalls возвращает все ларьки.
func (s *Service) ListStalls(ctx context.Context) ([]model.Stall, error) {
	return s.repo.ListStalls(ctx)
}

// UpdateStallInventory заменяет меню и склад ларька от имени владельца.
// Массивы меню должны совпадать по длине, каждая запись склада — разбираться кодеком.
func (s *Service) UpdateStallInventory(ctx context.Context, ownerID int64, stall *model.Stall) error {
	if len(stall.MenuNames) != len(stall.MenuPrices) || len(stall.MenuNames) != len(stall.MenuQuantities) {
		return errors.New("menu arrays must have equal length")
	}
	for _, q := range stall.MenuQuantities {
		if q < 0 {
			return errors.New("menu quantity must not be negative")
		}
	}
	for _, rec := range stall.Stocks {
		if _, err := stock.Decode(rec); err != nil {
			return fmt.Errorf("stock record %q: %w", rec, err)
		}
	}
	return s.repo.UpdateStallInventory(ctx, ownerID, stall)
}

// StockRecords возвращает распакованные записи склада ларька его владельцу.
func (s *Service) StockRecords(ctx context.Context, ownerID, stallID int64) ([]stock.Record, error) {
	stall, err := s.repo.GetStall(ctx, stallID)
	if err != nil {
		return nil, err
	}
	if stall.OwnerID != ownerID {
		return nil, repository.ErrNotStallOwner
	}
	return stock.DecodeAll(stall.Stocks), nil
}

// GetOrdersByUser возвращает заказы пользователя.
func (s *Service) GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	return s.repo.GetOrdersByUser(ctx, userID)
}

// markPendingResync запоминает ларёк, пересчёт которого не удался.
func (s *Service) markPendingResync(stallID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingResync[stallID] = struct{}{}
}

// StartResyncRetries запускает фоновый процесс повторного пересчёта
// доступности для ларьков, чей пересчёт после заказа не удался.
func (s *Service) StartResyncRetries(ctx context.Context) {
	if s.resync == nil {
		return
	}

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.retryPendingResyncs(ctx)
			}
		}
	}()
}

func (s *Service) retryPendingResyncs(ctx context.Context) {
	s.mu.Lock()
	pending := make([]int64, 0, len(s.pendingResync))
	for id := range s.pendingResync {
		pending = append(pending, id)
	}
	s.mu.Unlock()

	for _, stallID := range pending {
		if err := s.resync.Recompute(ctx, stallID); err != nil {
			s.logger.Warn("availability resync retry failed",
				zap.Int64("stallID", stallID), zap.Error(err))
			continue
		}
		s.mu.Lock()
		delete(s.pendingResync, stallID)
		s.mu.Unlock()
	}
}
