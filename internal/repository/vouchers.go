package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mmeshcher/foodcourt-system/internal/model"
)

// CreateVoucher создаёт ваучер ларька.
func (r *PostgresRepository) CreateVoucher(ctx context.Context, v *model.Voucher) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO vouchers (stall_id, title, discount, min_orders, quantity, valid_to)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		v.StallID, v.Title, v.Discount, v.MinOrders, v.Quantity, v.ValidTo,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, fmt.Errorf("%w: %s", ErrVoucherExists, v.Title)
		}
		return 0, fmt.Errorf("create voucher: %w", err)
	}
	return id, nil
}

const voucherColumns = `id, stall_id, title, discount, min_orders, quantity, claimed_users, redeemed, valid_to, created_at`

func scanVoucher(row pgx.Row) (*model.Voucher, error) {
	var v model.Voucher
	err := row.Scan(&v.ID, &v.StallID, &v.Title, &v.Discount, &v.MinOrders, &v.Quantity,
		&v.ClaimedUsers, &v.Redeemed, &v.ValidTo, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVoucherNotFound
		}
		return nil, fmt.Errorf("scan voucher: %w", err)
	}
	return &v, nil
}

// GetVoucherByTitle возвращает ваучер по названию — каноническому
// идентификатору, которым корзина ссылается на документ ваучера.
func (r *PostgresRepository) GetVoucherByTitle(ctx context.Context, title string) (*model.Voucher, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+voucherColumns+` FROM vouchers WHERE title = $1`,
		title,
	)
	return scanVoucher(row)
}

// ListVouchersByStall возвращает ваучеры ларька.
func (r *PostgresRepository) ListVouchersByStall(ctx context.Context, stallID int64) ([]model.Voucher, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+voucherColumns+` FROM vouchers WHERE stall_id = $1 ORDER BY created_at DESC`,
		stallID,
	)
	if err != nil {
		return nil, fmt.Errorf("select vouchers: %w", err)
	}
	defer rows.Close()

	var res []model.Voucher
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// ClaimVoucher резервирует ваучер за пользователем. Проверки ёмкости,
// уникальности и срока действия выполняются одним условным UPDATE:
// из двух одновременных заявок на последний экземпляр выигрывает одна.
func (r *PostgresRepository) ClaimVoucher(ctx context.Context, title string, userID int64) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE vouchers
		 SET claimed_users = array_append(claimed_users, $2)
		 WHERE title = $1
		   AND NOT $2 = ANY(claimed_users)
		   AND cardinality(claimed_users) < quantity
		   AND valid_to >= CURRENT_DATE`,
		title, userID,
	)
	if err != nil {
		return fmt.Errorf("claim voucher: %w", err)
	}
	if cmdTag.RowsAffected() == 1 {
		return nil
	}

	// Ничего не обновили — выясняем причину отказа.
	v, err := r.GetVoucherByTitle(ctx, title)
	if err != nil {
		return err
	}
	switch {
	case v.ClaimedBy(userID):
		return ErrVoucherClaimed
	case !v.Active(time.Now()):
		return ErrVoucherExpired
	default:
		return ErrVoucherExhausted
	}
}

// UnredeemVoucher убирает пользователя из списка погасивших ваучер.
// Вызывается при автоматическом снятии ваучера, когда сумма выбранных
// позиций ларька опустилась ниже порога.
func (r *PostgresRepository) UnredeemVoucher(ctx context.Context, title string, userID int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE vouchers SET redeemed = array_remove(redeemed, $2) WHERE title = $1`,
		title, userID,
	)
	if err != nil {
		return fmt.Errorf("unredeem voucher: %w", err)
	}
	return nil
}
