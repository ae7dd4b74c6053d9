package pricing

import "github.com/mmeshcher/foodcourt-system/internal/model"

// SelectState — состояние чекбокса «выбрать всё»: ничего, часть или всё.
type SelectState int

const (
	SelectNone SelectState = iota
	SelectSome
	SelectAll
)

// StallState возвращает состояние выбора позиций одного ларька.
func StallState(items []model.CartItem, selected map[string]bool, roomID int64) SelectState {
	total, picked := 0, 0
	for _, it := range items {
		if it.RoomID != roomID {
			continue
		}
		total++
		if selected[it.Key()] {
			picked++
		}
	}
	switch {
	case total == 0 || picked == 0:
		return SelectNone
	case picked == total:
		return SelectAll
	default:
		return SelectSome
	}
}

// PageState возвращает состояние общего чекбокса по всей корзине.
func PageState(items []model.CartItem, selected map[string]bool) SelectState {
	total, picked := 0, 0
	for _, it := range items {
		total++
		if selected[it.Key()] {
			picked++
		}
	}
	switch {
	case total == 0 || picked == 0:
		return SelectNone
	case picked == total:
		return SelectAll
	default:
		return SelectSome
	}
}

// SelectStall атомарно выбирает или снимает выбор со всех позиций ларька.
func SelectStall(items []model.CartItem, selected map[string]bool, roomID int64, on bool) {
	for _, it := range items {
		if it.RoomID != roomID {
			continue
		}
		if on {
			selected[it.Key()] = true
		} else {
			delete(selected, it.Key())
		}
	}
}

// SelectAllItems выбирает или снимает выбор со всех позиций корзины.
func SelectAllItems(items []model.CartItem, selected map[string]bool, on bool) {
	for _, it := range items {
		if on {
			selected[it.Key()] = true
		} else {
			delete(selected, it.Key())
		}
	}
}
