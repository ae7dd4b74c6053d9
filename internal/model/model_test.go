package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestOrderTotalMarshalJSON(t *testing.T) {
	total := OrderTotal{Base: 20000, Discount: 2000, Final: 18000}

	data, err := json.Marshal(total)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "[200,-20,180]" {
		t.Fatalf("json = %s, want [200,-20,180]", data)
	}
}

func TestOrderTotalUnmarshalJSON(t *testing.T) {
	var total OrderTotal
	if err := json.Unmarshal([]byte("[200,-20,180]"), &total); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := OrderTotal{Base: 20000, Discount: 2000, Final: 18000}
	if total != want {
		t.Fatalf("total = %+v, want %+v", total, want)
	}
}

func TestOrderTotalRoundTrip(t *testing.T) {
	// Дробные сентаво: 123.45 песо должны пережить цикл без потерь.
	src := OrderTotal{Base: 12345, Discount: 617, Final: 11728}

	data, err := json.Marshal(src)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got OrderTotal
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != src {
		t.Fatalf("round trip = %+v, want %+v", got, src)
	}
}

func TestCartItemKey(t *testing.T) {
	tests := []struct {
		name string
		item CartItem
		want string
	}{
		{
			name: "explicit size",
			item: CartItem{RoomID: 1, MenuName: "Fried Rice", Size: "Large"},
			want: "1|Fried Rice|Large",
		},
		{
			name: "empty size defaults",
			item: CartItem{RoomID: 2, MenuName: "Lumpia"},
			want: "2|Lumpia|One-size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.item.Key(); got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVoucherActive(t *testing.T) {
	validTo := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	v := Voucher{ValidTo: validTo}

	// Ваучер действует до конца дня valid_to включительно.
	if !v.Active(time.Date(2024, 6, 15, 23, 0, 0, 0, time.UTC)) {
		t.Fatal("voucher inactive on its last day")
	}
	if v.Active(time.Date(2024, 6, 16, 0, 0, 1, 0, time.UTC)) {
		t.Fatal("voucher active after expiry")
	}
}

func TestVoucherClaimedBy(t *testing.T) {
	v := Voucher{ClaimedUsers: []int64{3, 7}}

	if !v.ClaimedBy(7) {
		t.Fatal("ClaimedBy(7) = false")
	}
	if v.ClaimedBy(8) {
		t.Fatal("ClaimedBy(8) = true")
	}
}

func TestStallMenuIndex(t *testing.T) {
	s := Stall{MenuNames: []string{"Fried Rice", "Lumpia"}}

	if got := s.MenuIndex("Lumpia"); got != 1 {
		t.Fatalf("MenuIndex = %d, want 1", got)
	}
	if got := s.MenuIndex("Sisig"); got != -1 {
		t.Fatalf("MenuIndex = %d, want -1", got)
	}
}
