package report

import (
	"context"
	"evdesk/src-server/ledger"
	"evdesk/src-server/model"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
)

// Aggregate is the event-wide money view, recomputed from the live
// tables on every request.
type Aggregate struct {
	Headcount             int
	CheckedIn             int
	MoneyRaised           int
	MoneyFromCheckedIn    int
	OrderBudget           int
	MoneySpentByCheckedIn int
	RemainingOrderBudget  int
}

// AttendeeSummary is one row of the per-person order summary.
type AttendeeSummary struct {
	Name       string
	Items      string
	TotalSpent int
	Remaining  int
}

func AggregateSummary(ctx context.Context, db bun.IDB) (*Aggregate, error) {
	headcount, err := db.NewSelect().
		Model((*model.Attendee)(nil)).
		Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("AggregateSummary: can't count attendees: %w", err)
	}

	checkedIn, err := db.NewSelect().
		Model((*model.Attendee)(nil)).
		Where("checked_in = ?", model.Yes).
		Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("AggregateSummary: can't count checked-in attendees: %w", err)
	}

	var spent int
	if err := db.NewSelect().
		Model((*model.Order)(nil)).
		ColumnExpr("COALESCE(SUM(total), 0)").
		Where("attendee_id IN (SELECT id FROM attendees WHERE checked_in = ?)", model.Yes).
		Scan(ctx, &spent); err != nil {
		return nil, fmt.Errorf("AggregateSummary: can't sum checked-in orders: %w", err)
	}

	orderBudget := checkedIn * ledger.CreditLimit
	return &Aggregate{
		Headcount:             headcount,
		CheckedIn:             checkedIn,
		MoneyRaised:           headcount * ledger.EntryFee,
		MoneyFromCheckedIn:    checkedIn * ledger.EntryFee,
		OrderBudget:           orderBudget,
		MoneySpentByCheckedIn: spent,
		RemainingOrderBudget:  orderBudget - spent,
	}, nil
}

// PerAttendeeSummary lists what every attendee ordered and what is left
// of their credit. With checkedInOnly set, attendees who never arrived
// are skipped.
func PerAttendeeSummary(ctx context.Context, db bun.IDB, checkedInOnly bool) ([]AttendeeSummary, error) {
	var attendeeModels []model.Attendee
	query := db.NewSelect().
		Model(&attendeeModels).
		Order("name ASC")
	if checkedInOnly {
		query = query.Where("checked_in = ?", model.Yes)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, fmt.Errorf("PerAttendeeSummary: can't get attendees: %w", err)
	}

	summaries := make([]AttendeeSummary, 0, len(attendeeModels))
	for _, attendeeModel := range attendeeModels {
		var orderModels []model.Order
		// rowid, not the uuid, keeps the list in creation order
		if err := db.NewSelect().
			Model(&orderModels).
			Where("attendee_id = ?", attendeeModel.ID).
			OrderExpr("rowid ASC").
			Scan(ctx); err != nil {
			return nil, fmt.Errorf("PerAttendeeSummary: can't get orders for %q: %w", attendeeModel.Name, err)
		}

		items := make([]string, 0, len(orderModels))
		total := 0
		for _, orderModel := range orderModels {
			items = append(items, orderModel.Item)
			total += orderModel.Total
		}

		itemList := "None"
		if len(items) > 0 {
			itemList = strings.Join(items, ", ")
		}

		summaries = append(summaries, AttendeeSummary{
			Name:       attendeeModel.Name,
			Items:      itemList,
			TotalSpent: total,
			Remaining:  ledger.CreditLimit - total,
		})
	}

	return summaries, nil
}
