package cart

import "github.com/mmeshcher/foodcourt-system/internal/model"

// mergeItem добавляет позицию в снимок корзины. При совпадении ключа
// (ларёк, блюдо, размер) количество складывается, иначе позиция добавляется.
func mergeItem(items []model.CartItem, item model.CartItem) []model.CartItem {
	if item.Size == "" {
		item.Size = model.OneSize
	}
	for i, it := range items {
		if it.Key() == item.Key() {
			res := make([]model.CartItem, len(items))
			copy(res, items)
			res[i].Quantity += item.Quantity
			return res
		}
	}
	res := make([]model.CartItem, 0, len(items)+1)
	res = append(res, items...)
	res = append(res, item)
	return res
}

// setQuantity выставляет количество позиции по ключу.
// Возвращает false, если позиции нет в корзине.
func setQuantity(items []model.CartItem, key string, quantity int64) ([]model.CartItem, bool) {
	for i, it := range items {
		if it.Key() == key {
			res := make([]model.CartItem, len(items))
			copy(res, items)
			res[i].Quantity = quantity
			return res, true
		}
	}
	return items, false
}

// removeItem убирает позицию по ключу. Возвращает false, если её не было.
func removeItem(items []model.CartItem, key string) ([]model.CartItem, bool) {
	for i, it := range items {
		if it.Key() == key {
			res := make([]model.CartItem, 0, len(items)-1)
			res = append(res, items[:i]...)
			res = append(res, items[i+1:]...)
			return res, true
		}
	}
	return items, false
}

// setSpecial выставляет флаг специальной скидки позиции по ключу.
func setSpecial(items []model.CartItem, key string, on bool) ([]model.CartItem, bool) {
	for i, it := range items {
		if it.Key() == key {
			res := make([]model.CartItem, len(items))
			copy(res, items)
			res[i].Special = on
			return res, true
		}
	}
	return items, false
}

// clearSpecials снимает флаги специальной скидки со всех позиций ларька.
// Вызывается при применении ваучера: скидки взаимоисключимы.
func clearSpecials(items []model.CartItem, roomID int64) []model.CartItem {
	res := make([]model.CartItem, len(items))
	copy(res, items)
	for i := range res {
		if res[i].RoomID == roomID {
			res[i].Special = false
		}
	}
	return res
}
