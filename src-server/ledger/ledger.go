package ledger

import (
	"context"
	"evdesk/src-server/badge"
	"evdesk/src-server/model"
	"evdesk/src-server/storage"
	"evdesk/src-server/utils"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

const (
	// Per-attendee order budget, enforced when an order is accepted.
	CreditLimit = 1000
	// Flat per-head entry fee the summary page counts with.
	EntryFee = 1500
)

// Ledger owns the three tables for the duration of one operation.
// Every successful mutation rewrites the durable CSV copy before the
// operation returns.
type Ledger struct {
	db      *bun.DB
	store   *storage.Store
	badges  *badge.Generator
	metrics *utils.Metric // optional
}

func New(db *bun.DB, store *storage.Store, badges *badge.Generator, metrics *utils.Metric) *Ledger {
	return &Ledger{
		db:      db,
		store:   store,
		badges:  badges,
		metrics: metrics,
	}
}

func (l *Ledger) DB() *bun.DB {
	return l.db
}

func (l *Ledger) flush(ctx context.Context) error {
	start := time.Now()
	if err := l.store.Flush(ctx, l.db); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	if l.metrics != nil {
		select {
		case l.metrics.StorageFlush <- float64(time.Since(start).Microseconds()):
		default:
		}
	}
	return nil
}

func (l *Ledger) reportWrite(start time.Time) {
	if l.metrics == nil {
		return
	}
	select {
	case l.metrics.DatabaseWrite <- float64(time.Since(start).Microseconds()):
	default:
	}
}

// Attendees returns the live attendee set.
func (l *Ledger) Attendees(ctx context.Context) ([]model.Attendee, error) {
	var attendeeModels []model.Attendee
	if err := l.db.NewSelect().
		Model(&attendeeModels).
		Order("name ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("Attendees: %w", err)
	}
	return attendeeModels, nil
}

// Menu returns the current menu table.
func (l *Ledger) Menu(ctx context.Context) ([]model.MenuItem, error) {
	var menuItemModels []model.MenuItem
	if err := l.db.NewSelect().
		Model(&menuItemModels).
		Order("item ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("Menu: %w", err)
	}
	return menuItemModels, nil
}

// Orders returns one attendee's orders.
func (l *Ledger) Orders(ctx context.Context, attendeeID string) ([]model.Order, error) {
	var orderModels []model.Order
	if err := l.db.NewSelect().
		Model(&orderModels).
		Where("attendee_id = ?", attendeeID).
		OrderExpr("rowid ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("Orders: %w", err)
	}
	return orderModels, nil
}

// UsedCredit sums an attendee's stored order totals.
func (l *Ledger) UsedCredit(ctx context.Context, attendeeID string) (int, error) {
	var used int
	if err := l.db.NewSelect().
		Model((*model.Order)(nil)).
		ColumnExpr("COALESCE(SUM(total), 0)").
		Where("attendee_id = ?", attendeeID).
		Scan(ctx, &used); err != nil {
		return 0, fmt.Errorf("UsedCredit: %w", err)
	}
	return used, nil
}
