package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/foodcourt-system/internal/model"
	"github.com/mmeshcher/foodcourt-system/internal/stock"
)

// CreateOrder сохраняет заказ, списывает склад и гасит ваучеры одной
// транзакцией: либо всё применяется, либо ничего. Строки затронутых
// ларьков блокируются FOR UPDATE, поэтому два одновременных заказа не
// могут пройти проверку остатка по одним и тем же данным.
func (r *PostgresRepository) CreateOrder(ctx context.Context, order *model.Order, deductions map[int64]map[string]int64, voucherTitles []string) error {
	return r.withRetry(ctx, func(ctx context.Context) error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		// Ларьки блокируются в порядке возрастания id, чтобы встречные
		// заказы не взяли блокировки в противоположном порядке.
		stallIDs := make([]int64, 0, len(deductions))
		for id := range deductions {
			stallIDs = append(stallIDs, id)
		}
		sort.Slice(stallIDs, func(i, j int) bool { return stallIDs[i] < stallIDs[j] })

		for _, stallID := range stallIDs {
			if err := deductStall(ctx, tx, stallID, deductions[stallID]); err != nil {
				return err
			}
		}

		for _, title := range voucherTitles {
			_, err := tx.Exec(ctx,
				`UPDATE vouchers
				 SET redeemed = array_append(redeemed, $2)
				 WHERE title = $1 AND NOT $2 = ANY(redeemed)`,
				title, order.UserID,
			)
			if err != nil {
				return fmt.Errorf("redeem voucher %q: %w", title, err)
			}
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO orders (id, user_id, name, email, phone, status, items, base_total, discount_total, final_total, promos, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			order.ID, order.UserID, order.Name, order.Email, order.Phone,
			order.Status, order.Items,
			order.Total.Base, order.Total.Discount, order.Total.Final,
			order.Promos, order.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}

// deductStall списывает позиции одного ларька: сначала проверяются все
// блюда, затем одним UPDATE записываются новые остатки и записи склада.
func deductStall(ctx context.Context, tx pgx.Tx, stallID int64, used map[string]int64) error {
	var (
		names      []string
		quantities []int64
		stocks     []string
	)
	err := tx.QueryRow(ctx,
		`SELECT menu_names, menu_quantities, stocks FROM stalls WHERE id = $1 FOR UPDATE`,
		stallID,
	).Scan(&names, &quantities, &stocks)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: id %d", ErrStallNotFound, stallID)
		}
		return fmt.Errorf("lock stall %d: %w", stallID, err)
	}

	newQuantities, err := stock.DeductMenu(names, quantities, used)
	if err != nil {
		return err
	}
	newStocks := stock.DeductRecords(stocks, used)

	_, err = tx.Exec(ctx,
		`UPDATE stalls SET menu_quantities = $2, stocks = $3 WHERE id = $1`,
		stallID, newQuantities, newStocks,
	)
	if err != nil {
		return fmt.Errorf("update stall %d stock: %w", stallID, err)
	}
	return nil
}

const orderColumns = `id, user_id, name, email, phone, status, items, base_total, discount_total, final_total, promos, created_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(&o.ID, &o.UserID, &o.Name, &o.Email, &o.Phone, &o.Status, &o.Items,
		&o.Total.Base, &o.Total.Discount, &o.Total.Final, &o.Promos, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	return &o, nil
}

// GetOrdersByUser возвращает заказы пользователя, новые первыми.
func (r *PostgresRepository) GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var res []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// AppendOrderStatus добавляет статус в историю заказа.
func (r *PostgresRepository) AppendOrderStatus(ctx context.Context, orderID, status string) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = array_append(status, $2) WHERE id = $1`,
		orderID, status,
	)
	if err != nil {
		return fmt.Errorf("append order status: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}
