package stock

import (
	"errors"
	"testing"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Record
	}{
		{
			name: "linked menus and no expiration",
			in:   "Sauces|Soy Sauce::Fried Rice,Noodles|10.00 L|2024-01-01|no expiration",
			want: Record{
				Group:       "Sauces",
				Ingredient:  "Soy Sauce",
				LinkedMenus: []string{"Fried Rice", "Noodles"},
				Amount:      10,
				Unit:        "L",
				BatchDate:   "2024-01-01",
				ExpiryDate:  NoExpiration,
			},
		},
		{
			name: "no linked menus",
			in:   "Dry Goods|Rice|25.50 kg|2024-02-10|2025-02-10",
			want: Record{
				Group:      "Dry Goods",
				Ingredient: "Rice",
				Amount:     25.5,
				Unit:       "kg",
				BatchDate:  "2024-02-10",
				ExpiryDate: "2025-02-10",
			},
		},
		{
			name: "unparseable amount defaults to zero",
			in:   "Misc|Salt|much g|no expiration|no expiration",
			want: Record{
				Group:      "Misc",
				Ingredient: "Salt",
				Amount:     0,
				Unit:       "g",
				BatchDate:  NoExpiration,
				ExpiryDate: NoExpiration,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.in)
			if err != nil {
				t.Fatalf("Decode(%q) error: %v", tt.in, err)
			}
			if got.Group != tt.want.Group || got.Ingredient != tt.want.Ingredient ||
				got.Amount != tt.want.Amount || got.Unit != tt.want.Unit ||
				got.BatchDate != tt.want.BatchDate || got.ExpiryDate != tt.want.ExpiryDate {
				t.Fatalf("Decode(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
			if len(got.LinkedMenus) != len(tt.want.LinkedMenus) {
				t.Fatalf("linked menus = %v, want %v", got.LinkedMenus, tt.want.LinkedMenus)
			}
			for i := range got.LinkedMenus {
				if got.LinkedMenus[i] != tt.want.LinkedMenus[i] {
					t.Fatalf("linked menus = %v, want %v", got.LinkedMenus, tt.want.LinkedMenus)
				}
			}
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []string{
		"",
		"only one field",
		"a|b|c|d",
		"a|b|c|d|e|f",
	}

	for _, in := range tests {
		if _, err := Decode(in); !errors.Is(err, ErrMalformedRecord) {
			t.Fatalf("Decode(%q) error = %v, want ErrMalformedRecord", in, err)
		}
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	tests := []string{
		"Sauces|Soy Sauce::Fried Rice,Noodles|10.00 L|2024-01-01|no expiration",
		"Dry Goods|Rice|25.50 kg|2024-02-10|2025-02-10",
		"Frozen|Lumpia Wrapper::Lumpia|100.00 pcs|no expiration|no expiration",
	}

	for _, in := range tests {
		rec, err := Decode(in)
		if err != nil {
			t.Fatalf("Decode(%q) error: %v", in, err)
		}
		if out := Encode(rec); out != in {
			t.Fatalf("Encode(Decode(%q)) = %q", in, out)
		}
	}
}

func TestEncodeOmitsEmptyLinkedSuffix(t *testing.T) {
	rec := Record{
		Group:      "Dry Goods",
		Ingredient: "Rice",
		Amount:     3,
		Unit:       "kg",
		BatchDate:  "2024-02-10",
		ExpiryDate: NoExpiration,
	}

	got := Encode(rec)
	want := "Dry Goods|Rice|3.00 kg|2024-02-10|no expiration"
	if got != want {
		t.Fatalf("Encode = %q, want %q", got, want)
	}
}

func TestHasExpiry(t *testing.T) {
	with := Record{ExpiryDate: "2025-01-01"}
	without := Record{ExpiryDate: NoExpiration}

	if !with.HasExpiry() {
		t.Fatalf("expected record with date to have expiry")
	}
	if without.HasExpiry() {
		t.Fatalf("expected no-expiration record to have no expiry")
	}
}

func TestDecodeAllSkipsMalformed(t *testing.T) {
	records := []string{
		"Dry Goods|Rice|25.50 kg|2024-02-10|2025-02-10",
		"garbage",
		"Sauces|Soy Sauce::Fried Rice|10.00 L|2024-01-01|no expiration",
	}

	got := DecodeAll(records)
	if len(got) != 2 {
		t.Fatalf("DecodeAll returned %d records, want 2", len(got))
	}
	if got[0].Ingredient != "Rice" || got[1].Ingredient != "Soy Sauce" {
		t.Fatalf("unexpected records: %+v", got)
	}
}
