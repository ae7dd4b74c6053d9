// Package cart реализует хранилище корзин в Redis.
//
// Корзина пользователя хранится одним JSON-массивом позиций под ключом
// cart:<id>, применённые к ларькам ваучеры — отдельным документом под
// ключом cart:discounts:<id>. Оба документа очищаются при успешном
// оформлении заказа.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mmeshcher/foodcourt-system/internal/model"
)

// ErrItemNotFound возвращается при операции над отсутствующей позицией.
var (
	ErrItemNotFound = errors.New("cart item not found")
	// ErrBadQuantity возвращается при попытке выставить количество меньше единицы.
	ErrBadQuantity = errors.New("quantity must be at least 1")
	// ErrVoucherApplied возвращается при включении специальной скидки,
	// когда на ларёк уже применён ваучер.
	ErrVoucherApplied = errors.New("stall already has an active voucher")
)

// Store хранит корзины и выбранные скидки пользователей в Redis.
type Store struct {
	client *redis.Client
}

// NewRedisClient создаёт клиент Redis и проверяет соединение.
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

// NewStore создаёт хранилище корзин поверх клиента Redis.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Close закрывает соединение с Redis.
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func cartKey(userID int64) string      { return fmt.Sprintf("cart:%d", userID) }
func discountsKey(userID int64) string { return fmt.Sprintf("cart:discounts:%d", userID) }

// Get возвращает снимок корзины пользователя. Отсутствие ключа — пустая корзина.
func (s *Store) Get(ctx context.Context, userID int64) ([]model.CartItem, error) {
	val, err := s.client.Get(ctx, cartKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}

	var items []model.CartItem
	if err := json.Unmarshal([]byte(val), &items); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}
	return items, nil
}

func (s *Store) save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("set cart: %w", err)
	}
	return nil
}

// Add добавляет позицию в корзину, складывая количество при совпадении ключа.
func (s *Store) Add(ctx context.Context, userID int64, item model.CartItem) error {
	if item.Quantity < 1 {
		return ErrBadQuantity
	}
	items, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	return s.save(ctx, cartKey(userID), mergeItem(items, item))
}

// UpdateQuantity выставляет количество позиции по её ключу.
func (s *Store) UpdateQuantity(ctx context.Context, userID int64, key string, quantity int64) error {
	if quantity < 1 {
		return ErrBadQuantity
	}
	items, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	updated, ok := setQuantity(items, key, quantity)
	if !ok {
		return ErrItemNotFound
	}
	return s.save(ctx, cartKey(userID), updated)
}

// Remove убирает позицию из корзины по её ключу.
func (s *Store) Remove(ctx context.Context, userID int64, key string) error {
	items, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	updated, ok := removeItem(items, key)
	if !ok {
		return ErrItemNotFound
	}
	return s.save(ctx, cartKey(userID), updated)
}

// Clear полностью очищает корзину и выбранные скидки пользователя.
func (s *Store) Clear(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, cartKey(userID), discountsKey(userID)).Err(); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// Discounts возвращает применённые к ларькам ваучеры пользователя.
func (s *Store) Discounts(ctx context.Context, userID int64) (map[int64]model.StallDiscount, error) {
	val, err := s.client.Get(ctx, discountsKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return map[int64]model.StallDiscount{}, nil
		}
		return nil, fmt.Errorf("get discounts: %w", err)
	}

	discounts := make(map[int64]model.StallDiscount)
	if err := json.Unmarshal([]byte(val), &discounts); err != nil {
		return nil, fmt.Errorf("unmarshal discounts: %w", err)
	}
	return discounts, nil
}

// ApplyVoucher привязывает ваучер к ларьку и снимает флаги специальной
// скидки с его позиций: на ларёк действует либо ваучер, либо специальная
// скидка, но не обе сразу.
func (s *Store) ApplyVoucher(ctx context.Context, userID, roomID int64, title string) error {
	items, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.save(ctx, cartKey(userID), clearSpecials(items, roomID)); err != nil {
		return err
	}

	discounts, err := s.Discounts(ctx, userID)
	if err != nil {
		return err
	}
	discounts[roomID] = model.StallDiscount{Voucher: title}
	return s.save(ctx, discountsKey(userID), discounts)
}

// RemoveVoucher снимает ваучер с ларька.
func (s *Store) RemoveVoucher(ctx context.Context, userID, roomID int64) error {
	discounts, err := s.Discounts(ctx, userID)
	if err != nil {
		return err
	}
	delete(discounts, roomID)
	return s.save(ctx, discountsKey(userID), discounts)
}

// SetSpecial включает или выключает специальную скидку позиции.
// Отклоняется, если на ларёк позиции уже применён ваучер.
func (s *Store) SetSpecial(ctx context.Context, userID int64, key string, on bool) error {
	items, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}

	if on {
		discounts, err := s.Discounts(ctx, userID)
		if err != nil {
			return err
		}
		for _, it := range items {
			if it.Key() == key {
				if _, ok := discounts[it.RoomID]; ok {
					return ErrVoucherApplied
				}
			}
		}
	}

	updated, ok := setSpecial(items, key, on)
	if !ok {
		return ErrItemNotFound
	}
	return s.save(ctx, cartKey(userID), updated)
}
