// Package stock реализует кодек упакованных записей склада и логику списания.
//
// Запись хранится в хранилище плоской строкой вида
//
//	группа|ингредиент::связанные,блюда|количество единица|дата партии|срок годности
//
// Суффикс «::блюда» опускается целиком, если связанных позиций меню нет.
// Вместо дат допускается строка "no expiration". Формат воспроизводится
// байт-в-байт: по этим строкам работают уже сохранённые данные.
package stock

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// NoExpiration — сентинел вместо даты партии или срока годности.
const NoExpiration = "no expiration"

const (
	fieldCount   = 5
	linkedSep    = "::"
	linkedCSVSep = ","
)

// ErrMalformedRecord возвращается при неверном числе полей записи.
var ErrMalformedRecord = errors.New("malformed stock record")

// Record — распакованная запись склада по одному ингредиенту.
type Record struct {
	Group       string
	Ingredient  string
	LinkedMenus []string
	Amount      float64
	Unit        string
	BatchDate   string
	ExpiryDate  string
}

// HasExpiry сообщает, задан ли у записи срок годности.
func (r Record) HasExpiry() bool {
	return r.ExpiryDate != "" && r.ExpiryDate != NoExpiration
}

// Linked сообщает, привязана ли запись к указанной позиции меню.
func (r Record) Linked(menuName string) bool {
	for _, m := range r.LinkedMenus {
		if m == menuName {
			return true
		}
	}
	return false
}

// Decode разбирает упакованную строку записи склада.
func Decode(s string) (Record, error) {
	fields := strings.Split(s, "|")
	if len(fields) != fieldCount {
		return Record{}, fmt.Errorf("%w: %d fields", ErrMalformedRecord, len(fields))
	}

	var rec Record
	rec.Group = fields[0]

	name, csv, found := strings.Cut(fields[1], linkedSep)
	rec.Ingredient = name
	if found && csv != "" {
		rec.LinkedMenus = strings.Split(csv, linkedCSVSep)
	}

	amountStr, unit, _ := strings.Cut(fields[2], " ")
	amount, err := strconv.ParseFloat(amountStr, 64)
	if err != nil {
		amount = 0
	}
	rec.Amount = amount
	rec.Unit = unit

	rec.BatchDate = fields[3]
	rec.ExpiryDate = fields[4]

	return rec, nil
}

// Encode собирает запись обратно в упакованную строку.
// Количество всегда форматируется с двумя знаками после запятой.
func Encode(r Record) string {
	name := r.Ingredient
	if len(r.LinkedMenus) > 0 {
		name += linkedSep + strings.Join(r.LinkedMenus, linkedCSVSep)
	}
	return fmt.Sprintf("%s|%s|%.2f %s|%s|%s", r.Group, name, r.Amount, r.Unit, r.BatchDate, r.ExpiryDate)
}

// DecodeAll разбирает массив записей, пропуская некорректные.
func DecodeAll(records []string) []Record {
	res := make([]Record, 0, len(records))
	for _, s := range records {
		rec, err := Decode(s)
		if err != nil {
			continue
		}
		res = append(res, rec)
	}
	return res
}
