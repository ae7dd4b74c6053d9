package stock

import (
	"errors"
	"testing"

	"github.com/mmeshcher/foodcourt-system/internal/model"
)

func TestGroupByStall(t *testing.T) {
	items := []model.CartItem{
		{RoomID: 1, MenuName: "Fried Rice", Size: "Regular", Quantity: 2},
		{RoomID: 1, MenuName: "Fried Rice", Size: "Large", Quantity: 1},
		{RoomID: 1, MenuName: "Lumpia", Quantity: 3},
		{RoomID: 2, MenuName: "Halo-halo", Quantity: 1},
	}

	got := GroupByStall(items)

	if len(got) != 2 {
		t.Fatalf("stalls = %d, want 2", len(got))
	}
	// Разные размеры одного блюда складываются в одно списание.
	if got[1]["Fried Rice"] != 3 {
		t.Fatalf("fried rice = %d, want 3", got[1]["Fried Rice"])
	}
	if got[1]["Lumpia"] != 3 {
		t.Fatalf("lumpia = %d, want 3", got[1]["Lumpia"])
	}
	if got[2]["Halo-halo"] != 1 {
		t.Fatalf("halo-halo = %d, want 1", got[2]["Halo-halo"])
	}
}

func TestDeductMenu(t *testing.T) {
	names := []string{"Fried Rice", "Lumpia", "Halo-halo"}
	quantities := []int64{10, 3, 5}

	got, err := DeductMenu(names, quantities, map[string]int64{
		"Fried Rice": 4,
		"Lumpia":     3,
	})
	if err != nil {
		t.Fatalf("DeductMenu error: %v", err)
	}

	want := []int64{6, 0, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("quantities = %v, want %v", got, want)
		}
	}

	// Исходный массив не изменяется.
	if quantities[0] != 10 {
		t.Fatalf("source quantities mutated: %v", quantities)
	}
}

func TestDeductMenuUnknownItem(t *testing.T) {
	names := []string{"Fried Rice"}
	quantities := []int64{10}

	_, err := DeductMenu(names, quantities, map[string]int64{"Sisig": 1})
	if !errors.Is(err, ErrUnknownMenuItem) {
		t.Fatalf("error = %v, want ErrUnknownMenuItem", err)
	}
}

func TestDeductMenuInsufficientLeavesAllUntouched(t *testing.T) {
	names := []string{"Fried Rice", "Lumpia"}
	quantities := []int64{10, 3}

	// Lumpia не хватает — списание не должно применяться ни к одной позиции,
	// даже если Fried Rice в достатке.
	_, err := DeductMenu(names, quantities, map[string]int64{
		"Fried Rice": 1,
		"Lumpia":     5,
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("error = %v, want ErrInsufficientStock", err)
	}
	if quantities[0] != 10 || quantities[1] != 3 {
		t.Fatalf("quantities mutated on failure: %v", quantities)
	}
}

func TestDeductRecords(t *testing.T) {
	records := []string{
		"Sauces|Soy Sauce::Fried Rice,Noodles|10.00 L|2024-01-01|no expiration",
		"Dry Goods|Rice|25.50 kg|2024-02-10|2025-02-10",
		"garbage record",
	}

	got := DeductRecords(records, map[string]int64{
		"Fried Rice": 2,
		"Noodles":    3,
	})

	// Запись связана с обоими блюдами: 10 − 2 − 3 = 5.
	if got[0] != "Sauces|Soy Sauce::Fried Rice,Noodles|5.00 L|2024-01-01|no expiration" {
		t.Fatalf("deducted record = %q", got[0])
	}
	// Несвязанная и некорректная записи проходят без изменений.
	if got[1] != records[1] {
		t.Fatalf("unlinked record changed: %q", got[1])
	}
	if got[2] != records[2] {
		t.Fatalf("malformed record changed: %q", got[2])
	}
}

func TestDeductRecordsClampsToZero(t *testing.T) {
	records := []string{
		"Sauces|Soy Sauce::Fried Rice|2.50 L|2024-01-01|no expiration",
	}

	got := DeductRecords(records, map[string]int64{"Fried Rice": 10})

	if got[0] != "Sauces|Soy Sauce::Fried Rice|0.00 L|2024-01-01|no expiration" {
		t.Fatalf("record = %q, want amount clamped to 0.00", got[0])
	}
}
