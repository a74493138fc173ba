package ledger

import (
	"context"
	"database/sql"
	"errors"
	"evdesk/src-server/model"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PlaceOrder records an order against the attendee's credit. The unit
// price and attendee name are snapshotted; later menu edits or removals
// never touch recorded orders. Accepted only while the attendee's used
// credit plus this order stays within the limit.
func (l *Ledger) PlaceOrder(ctx context.Context, attendeeID string, item string, quantity int) (*model.Order, error) {
	attendeeID = strings.TrimSpace(attendeeID)
	item = strings.TrimSpace(item)

	if quantity <= 0 {
		return nil, fmt.Errorf("PlaceOrder: quantity must be positive: %w", ErrInvalidInput)
	}

	attendeeModel := new(model.Attendee)
	if err := l.db.NewSelect().
		Model(attendeeModel).
		Where("id = ?", attendeeID).
		Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("PlaceOrder: attendee %q not found: %w", attendeeID, ErrNotFound)
		}
		return nil, fmt.Errorf("PlaceOrder: can't get attendee: %w", err)
	}

	menuItemModel := new(model.MenuItem)
	if err := l.db.NewSelect().
		Model(menuItemModel).
		Where("item = ?", item).
		Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("PlaceOrder: %q is not on the menu: %w", item, ErrNotFound)
		}
		return nil, fmt.Errorf("PlaceOrder: can't get menu item: %w", err)
	}

	used, err := l.UsedCredit(ctx, attendeeModel.ID)
	if err != nil {
		return nil, fmt.Errorf("PlaceOrder: %w", err)
	}

	// bound quantity before multiplying; price * quantity must not
	// overflow past the credit check
	if menuItemModel.Price > 0 && quantity > CreditLimit/menuItemModel.Price {
		return nil, fmt.Errorf(
			"PlaceOrder: %d x %d exceeds the %d limit: %w",
			quantity, menuItemModel.Price, CreditLimit, ErrCreditExceeded,
		)
	}

	total := menuItemModel.Price * quantity
	if used+total > CreditLimit {
		return nil, fmt.Errorf(
			"PlaceOrder: %d used + %d order exceeds the %d limit: %w",
			used, total, CreditLimit, ErrCreditExceeded,
		)
	}

	orderModel := model.Order{
		ID:           uuid.NewString(),
		AttendeeID:   attendeeModel.ID,
		AttendeeName: attendeeModel.Name,
		Item:         menuItemModel.Item,
		Quantity:     quantity,
		UnitPrice:    menuItemModel.Price,
		Total:        total,
	}

	start := time.Now()
	if err := orderModel.Upsert(ctx, l.db); err != nil {
		return nil, fmt.Errorf("PlaceOrder: %w", err)
	}
	l.reportWrite(start)

	if err := l.flush(ctx); err != nil {
		return nil, fmt.Errorf("PlaceOrder: %w", err)
	}

	slog.Info("order placed",
		"order", orderModel.ID,
		"attendee", attendeeModel.Name,
		"item", orderModel.Item,
		"total", orderModel.Total)
	return &orderModel, nil
}

// RemoveOrder deletes one order by the id it got at creation; the
// reference stays valid across reloads.
func (l *Ledger) RemoveOrder(ctx context.Context, orderID string) error {
	orderID = strings.TrimSpace(orderID)

	start := time.Now()
	res, err := l.db.NewDelete().
		Model((*model.Order)(nil)).
		Where("id = ?", orderID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("RemoveOrder: %w", err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("RemoveOrder: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("RemoveOrder: order %q not found: %w", orderID, ErrNotFound)
	}
	l.reportWrite(start)

	if err := l.flush(ctx); err != nil {
		return fmt.Errorf("RemoveOrder: %w", err)
	}

	slog.Info("order removed", "order", orderID)
	return nil
}
