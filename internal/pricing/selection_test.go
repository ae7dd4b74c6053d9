package pricing

import (
	"testing"

	"github.com/mmeshcher/foodcourt-system/internal/model"
)

func TestStallState(t *testing.T) {
	items := []model.CartItem{
		{RoomID: 1, MenuName: "A"},
		{RoomID: 1, MenuName: "B"},
		{RoomID: 2, MenuName: "C"},
	}

	tests := []struct {
		name     string
		selected map[string]bool
		roomID   int64
		want     SelectState
	}{
		{
			name:     "none selected",
			selected: map[string]bool{},
			roomID:   1,
			want:     SelectNone,
		},
		{
			name:     "partial",
			selected: map[string]bool{items[0].Key(): true},
			roomID:   1,
			want:     SelectSome,
		},
		{
			name:     "all of stall",
			selected: map[string]bool{items[0].Key(): true, items[1].Key(): true},
			roomID:   1,
			want:     SelectAll,
		},
		{
			name:     "empty stall",
			selected: map[string]bool{items[0].Key(): true},
			roomID:   9,
			want:     SelectNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StallState(items, tt.selected, tt.roomID); got != tt.want {
				t.Errorf("StallState() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSelectStall(t *testing.T) {
	items := []model.CartItem{
		{RoomID: 1, MenuName: "A"},
		{RoomID: 1, MenuName: "B"},
		{RoomID: 2, MenuName: "C"},
	}
	selected := map[string]bool{items[2].Key(): true}

	SelectStall(items, selected, 1, true)

	if StallState(items, selected, 1) != SelectAll {
		t.Fatalf("stall 1 not fully selected: %v", selected)
	}
	if PageState(items, selected) != SelectAll {
		t.Fatalf("page state = %v, want SelectAll", PageState(items, selected))
	}

	SelectStall(items, selected, 1, false)

	if StallState(items, selected, 1) != SelectNone {
		t.Fatalf("stall 1 still selected: %v", selected)
	}
	// Выбор другого ларька не затрагивается.
	if !selected[items[2].Key()] {
		t.Fatal("stall 2 selection lost")
	}
}

func TestSelectAllItems(t *testing.T) {
	items := []model.CartItem{
		{RoomID: 1, MenuName: "A"},
		{RoomID: 2, MenuName: "C"},
	}
	selected := map[string]bool{}

	SelectAllItems(items, selected, true)
	if PageState(items, selected) != SelectAll {
		t.Fatalf("page state = %v, want SelectAll", PageState(items, selected))
	}

	SelectAllItems(items, selected, false)
	if PageState(items, selected) != SelectNone {
		t.Fatalf("page state = %v, want SelectNone", PageState(items, selected))
	}
}
