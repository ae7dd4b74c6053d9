// Package model содержит доменные сущности сервиса фудкорта.
package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// User представляет зарегистрированного покупателя или владельца ларька.
type User struct {
	ID           int64
	Login        string
	PasswordHash []byte
	Name         string
	Email        string
	Phone        string
	// SpecialDiscount выставляется после подтверждения документа PWD/senior.
	SpecialDiscount bool
	CreatedAt       time.Time
}

// OneSize — вариант по умолчанию для позиций меню без размеров.
const OneSize = "One-size"

// CartItem — одна позиция корзины. Цена хранится в сентаво.
type CartItem struct {
	RoomID    int64  `json:"room_id"`
	MenuName  string `json:"menuName"`
	Size      string `json:"size"`
	MenuPrice int64  `json:"menuPrice"`
	Quantity  int64  `json:"quantity"`
	MenuImage string `json:"menuImage,omitempty"`
	// Special — флаг специальной скидки 20%, взаимоисключим с ваучером ларька.
	Special bool `json:"special,omitempty"`
}

// Key возвращает ключ дедупликации позиции: (ларёк, блюдо, размер).
func (c CartItem) Key() string {
	size := c.Size
	if size == "" {
		size = OneSize
	}
	return fmt.Sprintf("%d|%s|%s", c.RoomID, c.MenuName, size)
}

// StallDiscount — применённый к ларьку ваучер.
type StallDiscount struct {
	Voucher string `json:"voucher"`
}

// Voucher описывает процентный ваучер ларька с порогом и лимитом выдачи.
type Voucher struct {
	ID           int64
	StallID      int64
	Title        string
	Discount     int
	MinOrders    int64
	Quantity     int
	ClaimedUsers []int64
	Redeemed     []int64
	ValidTo      time.Time
	CreatedAt    time.Time
}

// Active сообщает, действует ли ваучер: конец дня valid_to ещё не прошёл.
func (v *Voucher) Active(now time.Time) bool {
	endOfDay := time.Date(v.ValidTo.Year(), v.ValidTo.Month(), v.ValidTo.Day(), 23, 59, 59, 0, v.ValidTo.Location())
	return !now.After(endOfDay)
}

// ClaimedBy сообщает, получал ли пользователь этот ваучер.
func (v *Voucher) ClaimedBy(userID int64) bool {
	for _, id := range v.ClaimedUsers {
		if id == userID {
			return true
		}
	}
	return false
}

// Stall описывает ларёк: параллельные массивы меню и упакованные записи склада.
// Индекс i в MenuNames/MenuPrices/MenuQuantities описывает одну позицию меню.
type Stall struct {
	ID             int64
	OwnerID        int64
	Name           string
	MenuNames      []string
	MenuPrices     []int64
	MenuQuantities []int64
	Stocks         []string
	CreatedAt      time.Time
}

// MenuIndex возвращает индекс позиции меню по имени, -1 если не найдена.
func (s *Stall) MenuIndex(name string) int {
	for i, n := range s.MenuNames {
		if n == name {
			return i
		}
	}
	return -1
}

// OrderStatusPlaced — начальный статус заказа.
const (
	OrderStatusPlaced    = "order-placed"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusCompleted = "completed"
)

// OrderTotal хранит итог заказа в сентаво. Во внешнем представлении
// сериализуется позиционным массивом [base, -discount, final] в песо —
// этот формат читают отчёты по уже сохранённым заказам.
type OrderTotal struct {
	Base     int64
	Discount int64
	Final    int64
}

// MarshalJSON кодирует итог в совместимый трёхэлементный массив.
func (t OrderTotal) MarshalJSON() ([]byte, error) {
	arr := [3]float64{
		float64(t.Base) / 100,
		-float64(t.Discount) / 100,
		float64(t.Final) / 100,
	}
	return json.Marshal(arr)
}

// UnmarshalJSON читает трёхэлементный массив обратно в структуру.
func (t *OrderTotal) UnmarshalJSON(data []byte) error {
	var arr [3]float64
	if err := json.Unmarshal(data, &arr); err != nil {
		return fmt.Errorf("order total: %w", err)
	}
	t.Base = int64(arr[0]*100 + 0.5)
	t.Discount = int64(-arr[1]*100 + 0.5)
	t.Final = int64(arr[2]*100 + 0.5)
	return nil
}

// OrderItem — снимок позиции корзины, попадающий в заказ.
// Денежные поля в песо: снимки хранятся JSON-строками в документе заказа.
type OrderItem struct {
	RoomID         int64   `json:"room_id"`
	MenuName       string  `json:"menuName"`
	Size           string  `json:"size"`
	MenuPrice      float64 `json:"menuPrice"`
	Quantity       int64   `json:"quantity"`
	DiscountAmount float64 `json:"discountAmount"`
}

// Order — сохранённый заказ с денормализованными данными покупателя.
type Order struct {
	ID        string
	UserID    int64
	Name      string
	Email     string
	Phone     string
	Status    []string
	Items     []string
	Total     OrderTotal
	Promos    []string
	CreatedAt time.Time
}
