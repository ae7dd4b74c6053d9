package cart

import (
	"testing"

	"github.com/mmeshcher/foodcourt-system/internal/model"
)

func TestMergeItem(t *testing.T) {
	items := []model.CartItem{
		{RoomID: 1, MenuName: "Fried Rice", Size: "Regular", Quantity: 1},
	}

	// Совпадающий ключ складывает количество.
	got := mergeItem(items, model.CartItem{RoomID: 1, MenuName: "Fried Rice", Size: "Regular", Quantity: 2})
	if len(got) != 1 || got[0].Quantity != 3 {
		t.Fatalf("merged = %+v, want quantity 3", got)
	}

	// Тот же товар другого размера — отдельная позиция.
	got = mergeItem(items, model.CartItem{RoomID: 1, MenuName: "Fried Rice", Size: "Large", Quantity: 1})
	if len(got) != 2 {
		t.Fatalf("items = %+v, want 2 positions", got)
	}

	// Исходный снимок не изменяется.
	if items[0].Quantity != 1 {
		t.Fatalf("source mutated: %+v", items)
	}
}

func TestMergeItemDefaultsSize(t *testing.T) {
	got := mergeItem(nil, model.CartItem{RoomID: 1, MenuName: "Lumpia", Quantity: 1})
	if got[0].Size != model.OneSize {
		t.Fatalf("size = %q, want %q", got[0].Size, model.OneSize)
	}

	// Пустой размер и явный One-size считаются одной позицией.
	got = mergeItem(got, model.CartItem{RoomID: 1, MenuName: "Lumpia", Size: model.OneSize, Quantity: 2})
	if len(got) != 1 || got[0].Quantity != 3 {
		t.Fatalf("merged = %+v, want single position with quantity 3", got)
	}
}

func TestSetQuantity(t *testing.T) {
	items := []model.CartItem{
		{RoomID: 1, MenuName: "Fried Rice", Size: "Regular", Quantity: 1},
	}

	got, ok := setQuantity(items, items[0].Key(), 5)
	if !ok || got[0].Quantity != 5 {
		t.Fatalf("setQuantity = %+v, ok=%v", got, ok)
	}

	_, ok = setQuantity(items, "1|Sisig|Regular", 5)
	if ok {
		t.Fatal("setQuantity found missing key")
	}
}

func TestRemoveItem(t *testing.T) {
	items := []model.CartItem{
		{RoomID: 1, MenuName: "Fried Rice", Size: "Regular", Quantity: 1},
		{RoomID: 1, MenuName: "Lumpia", Size: model.OneSize, Quantity: 2},
	}

	got, ok := removeItem(items, items[0].Key())
	if !ok || len(got) != 1 || got[0].MenuName != "Lumpia" {
		t.Fatalf("removeItem = %+v, ok=%v", got, ok)
	}

	_, ok = removeItem(items, "9|Nothing|One-size")
	if ok {
		t.Fatal("removeItem found missing key")
	}
}

func TestClearSpecials(t *testing.T) {
	items := []model.CartItem{
		{RoomID: 1, MenuName: "Fried Rice", Special: true},
		{RoomID: 1, MenuName: "Lumpia", Special: true},
		{RoomID: 2, MenuName: "Halo-halo", Special: true},
	}

	got := clearSpecials(items, 1)

	if got[0].Special || got[1].Special {
		t.Fatalf("stall 1 specials not cleared: %+v", got)
	}
	// Флаги другого ларька сохраняются.
	if !got[2].Special {
		t.Fatalf("stall 2 special cleared: %+v", got)
	}
}

func TestSetSpecial(t *testing.T) {
	items := []model.CartItem{
		{RoomID: 1, MenuName: "Fried Rice", Size: model.OneSize},
	}

	got, ok := setSpecial(items, items[0].Key(), true)
	if !ok || !got[0].Special {
		t.Fatalf("setSpecial = %+v, ok=%v", got, ok)
	}
	if items[0].Special {
		t.Fatalf("source mutated: %+v", items)
	}
}
