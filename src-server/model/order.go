package model

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID         string `bun:"id,pk,notnull"`
	AttendeeID string `bun:"attendee_id,notnull"`
	// snapshot of the attendee's name at order time, never resynced
	AttendeeName string `bun:"attendee_name,notnull"`
	Item         string `bun:"item,notnull"`
	Quantity     int    `bun:"quantity,notnull"`
	// snapshot of the menu price at order time, never re-derived
	UnitPrice int `bun:"unit_price,notnull"`
	Total     int `bun:"total,notnull"`

	Attendee *Attendee `bun:"rel:belongs-to,join:attendee_id=id"`
}

// Upsert the order to the database
func (o *Order) Upsert(ctx context.Context, db bun.IDB) error {
	// validate
	switch {
	case o.ID == "":
		return fmt.Errorf("Order.Upsert: id is required")
	case o.AttendeeID == "":
		return fmt.Errorf("Order.Upsert: attendee id is required")
	case o.Item == "":
		return fmt.Errorf("Order.Upsert: item is required")
	case o.Quantity <= 0:
		return fmt.Errorf("Order.Upsert: quantity must be positive")
	case o.UnitPrice < 0:
		return fmt.Errorf("Order.Upsert: unit price can't be negative")
	case o.Total != o.Quantity*o.UnitPrice:
		return fmt.Errorf("Order.Upsert: total must be quantity * unit price")
	}

	// check if attendee exists
	attendeeExist, err := db.NewSelect().
		Model((*Attendee)(nil)).
		Where("id = ?", o.AttendeeID).
		Exists(ctx)
	if err != nil {
		return fmt.Errorf("Order.Upsert: %w", err)
	}
	if !attendeeExist {
		return fmt.Errorf("Order.Upsert: attendee id not found")
	}

	// upsert to db
	if _, err := db.NewInsert().
		Model(o).
		On("CONFLICT (id) DO UPDATE").
		Set("attendee_id = EXCLUDED.attendee_id").
		Set("attendee_name = EXCLUDED.attendee_name").
		Set("item = EXCLUDED.item").
		Set("quantity = EXCLUDED.quantity").
		Set("unit_price = EXCLUDED.unit_price").
		Set("total = EXCLUDED.total").
		Exec(ctx); err != nil {
		return fmt.Errorf("Order.Upsert: %w", err)
	}

	return nil
}
