// Package pricing считает стоимость корзины: скидки по позициям, итоги по
// ларькам и общий итог. Все суммы в сентаво; проценты целые. Та же
// арифметика применяется при показе корзины и при оформлении заказа —
// расхождение означало бы, что покупатель видит одну сумму, а платит другую.
package pricing

import (
	"fmt"

	"github.com/mmeshcher/foodcourt-system/internal/model"
)

// SpecialPercent — фиксированный процент специальной скидки PWD/senior.
const SpecialPercent = 20

// VoucherInfo — данные ваучера, нужные для расчёта: процент и порог заказа.
type VoucherInfo struct {
	Title     string
	Percent   int
	MinOrders int64
}

// ItemQuote — расчёт по одной позиции корзины.
type ItemQuote struct {
	Key      string
	RoomID   int64
	Base     int64
	Discount int64
	Final    int64
}

// StallQuote — итог по одному ларьку: сумма, скидка и её описание.
type StallQuote struct {
	RoomID   int64
	Subtotal int64
	Discount int64
	Total    int64
	Label    string
}

// Quote — полный расчёт корзины по выбранным позициям.
type Quote struct {
	Items    []ItemQuote
	Stalls   []StallQuote
	Base     int64
	Discount int64
	Total    int64
}

// discountPercent возвращает активный процент скидки позиции:
// ваучер ларька, иначе специальная скидка, иначе ноль.
func discountPercent(it model.CartItem, voucher *VoucherInfo) int {
	if voucher != nil {
		return voucher.Percent
	}
	if it.Special {
		return SpecialPercent
	}
	return 0
}

// itemDiscount считает скидку позиции: base*percent/100 с усечением.
func itemDiscount(base int64, percent int) int64 {
	return base * int64(percent) / 100
}

// Compute считает расчёт корзины. Невыбранные позиции не дают вклада.
// vouchers — активные ваучеры по ларькам; позиции ларька с ваучером
// считаются по нему независимо от флагов специальной скидки.
func Compute(items []model.CartItem, selected map[string]bool, vouchers map[int64]VoucherInfo) Quote {
	var q Quote
	stallIdx := make(map[int64]int)

	for _, it := range items {
		key := it.Key()
		if !selected[key] {
			continue
		}

		i, ok := stallIdx[it.RoomID]
		if !ok {
			i = len(q.Stalls)
			stallIdx[it.RoomID] = i
			q.Stalls = append(q.Stalls, StallQuote{RoomID: it.RoomID})
		}

		var voucher *VoucherInfo
		if v, ok := vouchers[it.RoomID]; ok {
			voucher = &v
		}

		base := it.MenuPrice * it.Quantity
		pct := discountPercent(it, voucher)
		disc := itemDiscount(base, pct)

		q.Items = append(q.Items, ItemQuote{
			Key:      key,
			RoomID:   it.RoomID,
			Base:     base,
			Discount: disc,
			Final:    base - disc,
		})

		q.Stalls[i].Subtotal += base
		q.Stalls[i].Discount += disc
		q.Stalls[i].Total = q.Stalls[i].Subtotal - q.Stalls[i].Discount

		if voucher != nil {
			q.Stalls[i].Label = fmt.Sprintf("%s (%d%% off)", voucher.Title, voucher.Percent)
		} else if it.Special && q.Stalls[i].Label == "" {
			q.Stalls[i].Label = fmt.Sprintf("Special discount (%d%% off)", SpecialPercent)
		}
	}

	for _, s := range q.Stalls {
		q.Base += s.Subtotal
		q.Discount += s.Discount
		q.Total += s.Total
	}
	return q
}

// Violation описывает ваучер, порог которого больше не выполняется.
type Violation struct {
	RoomID    int64
	Title     string
	MinOrders int64
	Subtotal  int64
}

// MinimumViolations возвращает ларьки, где выбранная сумма без скидки упала
// ниже порога активного ваучера. Такие ваучеры подлежат автоматическому снятию.
func MinimumViolations(items []model.CartItem, selected map[string]bool, vouchers map[int64]VoucherInfo) []Violation {
	subtotals := make(map[int64]int64)
	for _, it := range items {
		if !selected[it.Key()] {
			continue
		}
		subtotals[it.RoomID] += it.MenuPrice * it.Quantity
	}

	var res []Violation
	for roomID, v := range vouchers {
		if subtotals[roomID] < v.MinOrders {
			res = append(res, Violation{
				RoomID:    roomID,
				Title:     v.Title,
				MinOrders: v.MinOrders,
				Subtotal:  subtotals[roomID],
			})
		}
	}
	return res
}
