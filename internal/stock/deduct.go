package stock

import (
	"errors"
	"fmt"

	"github.com/mmeshcher/foodcourt-system/internal/model"
)

// ErrUnknownMenuItem возвращается, если списываемой позиции нет в меню ларька.
var (
	ErrUnknownMenuItem = errors.New("unknown menu item")
	// ErrInsufficientStock возвращается, если заказано больше, чем осталось.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// GroupByStall группирует купленные позиции по ларькам и именам блюд.
// Строки корзины с одним блюдом разных размеров складываются в одно списание.
func GroupByStall(items []model.CartItem) map[int64]map[string]int64 {
	byStall := make(map[int64]map[string]int64)
	for _, it := range items {
		m := byStall[it.RoomID]
		if m == nil {
			m = make(map[string]int64)
			byStall[it.RoomID] = m
		}
		m[it.MenuName] += it.Quantity
	}
	return byStall
}

// DeductMenu проверяет и применяет списание к параллельным массивам меню ларька.
// Сначала проверяются все позиции, и только потом применяются изменения:
// при неизвестном блюде или нехватке остатка массив возвращается нетронутым.
func DeductMenu(names []string, quantities []int64, used map[string]int64) ([]int64, error) {
	index := make(map[string]int, len(names))
	for i, n := range names {
		index[n] = i
	}

	for name, qty := range used {
		i, ok := index[name]
		if !ok || i >= len(quantities) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMenuItem, name)
		}
		if quantities[i] < qty {
			return nil, fmt.Errorf("%w: %q has %d, requested %d", ErrInsufficientStock, name, quantities[i], qty)
		}
	}

	res := make([]int64, len(quantities))
	copy(res, quantities)
	for name, qty := range used {
		res[index[name]] -= qty
	}
	return res, nil
}

// DeductRecords списывает количество ингредиентов, привязанных к проданным блюдам.
// Несвязанные записи проходят без изменений, некорректные — тоже (молча).
// Количество не опускается ниже нуля.
func DeductRecords(records []string, used map[string]int64) []string {
	res := make([]string, len(records))
	for i, s := range records {
		rec, err := Decode(s)
		if err != nil {
			res[i] = s
			continue
		}

		var deducted int64
		for name, qty := range used {
			if rec.Linked(name) {
				deducted += qty
			}
		}
		if deducted == 0 {
			res[i] = s
			continue
		}

		rec.Amount -= float64(deducted)
		if rec.Amount < 0 {
			rec.Amount = 0
		}
		res[i] = Encode(rec)
	}
	return res
}
