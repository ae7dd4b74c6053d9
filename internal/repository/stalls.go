package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/foodcourt-system/internal/model"
)

// CreateStall создаёт ларёк с пустым меню.
func (r *PostgresRepository) CreateStall(ctx context.Context, ownerID int64, name string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO stalls (owner_id, name) VALUES ($1, $2) RETURNING id`,
		ownerID, name,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create stall: %w", err)
	}
	return id, nil
}

// GetStall возвращает ларёк со всеми массивами меню и склада.
func (r *PostgresRepository) GetStall(ctx context.Context, id int64) (*model.Stall, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, owner_id, name, menu_names, menu_prices, menu_quantities, stocks, created_at
		 FROM stalls WHERE id = $1`,
		id,
	)

	var s model.Stall
	err := row.Scan(&s.ID, &s.OwnerID, &s.Name, &s.MenuNames, &s.MenuPrices, &s.MenuQuantities, &s.Stocks, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStallNotFound
		}
		return nil, fmt.Errorf("get stall: %w", err)
	}

	return &s, nil
}

// ListStalls возвращает все ларьки фудкорта.
func (r *PostgresRepository) ListStalls(ctx context.Context) ([]model.Stall, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, owner_id, name, menu_names, menu_prices, menu_quantities, stocks, created_at
		 FROM stalls ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("select stalls: %w", err)
	}
	defer rows.Close()

	var res []model.Stall
	for rows.Next() {
		var s model.Stall
		if err := rows.Scan(&s.ID, &s.OwnerID, &s.Name, &s.MenuNames, &s.MenuPrices, &s.MenuQuantities, &s.Stocks, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan stall: %w", err)
		}
		res = append(res, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// UpdateStallInventory заменяет меню и записи склада ларька. Запись
// разрешена только владельцу; проверка и запись идут в одной транзакции
// под блокировкой строки.
func (r *PostgresRepository) UpdateStallInventory(ctx context.Context, ownerID int64, s *model.Stall) error {
	return r.withRetry(ctx, func(ctx context.Context) error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		var dbOwner int64
		err = tx.QueryRow(ctx, `SELECT owner_id FROM stalls WHERE id = $1 FOR UPDATE`, s.ID).Scan(&dbOwner)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrStallNotFound
			}
			return fmt.Errorf("lock stall: %w", err)
		}
		if dbOwner != ownerID {
			return ErrNotStallOwner
		}

		_, err = tx.Exec(ctx,
			`UPDATE stalls
			 SET menu_names = $2, menu_prices = $3, menu_quantities = $4, stocks = $5
			 WHERE id = $1`,
			s.ID, s.MenuNames, s.MenuPrices, s.MenuQuantities, s.Stocks,
		)
		if err != nil {
			return fmt.Errorf("update stall inventory: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}
