package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
)

// OpenInventoryPostgres читает снимок инвентаря из Postgres один раз и закрывает соединение.
func OpenInventoryPostgres(ctx context.Context, conn, query string) (*Inventory, error) {
	db, err := sql.Open("postgres", conn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return LoadInventoryPostgres(ctx, db, query)
}

// LoadInventoryPostgres ожидает одну строку с одной колонкой (json/jsonb/text).
func LoadInventoryPostgres(ctx context.Context, db *sql.DB, query string) (*Inventory, error) {
	var data []byte
	err := db.QueryRowContext(ctx, query).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.New("inventory snapshot not found")
	}
	if err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}

	inv, err := NewInventory(data)
	if err != nil {
		return nil, fmt.Errorf("load inventory from postgres: %w", err)
	}
	return inv, nil
}
