package model

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

type MenuItem struct {
	bun.BaseModel `bun:"table:menu_items"`

	Item  string `bun:"item,pk,notnull"`
	Price int    `bun:"price,notnull"`
}

// Upsert the menu item to the database
func (m *MenuItem) Upsert(ctx context.Context, db bun.IDB) error {
	// validate
	switch {
	case m.Item == "":
		return fmt.Errorf("MenuItem.Upsert: item is required")
	case m.Price < 0:
		return fmt.Errorf("MenuItem.Upsert: price can't be negative")
	}

	// upsert to db
	if _, err := db.NewInsert().
		Model(m).
		On("CONFLICT (item) DO UPDATE").
		Set("price = EXCLUDED.price").
		Exec(ctx); err != nil {
		return fmt.Errorf("MenuItem.Upsert: %w", err)
	}

	return nil
}
