package report_test

import (
	"context"
	"database/sql"
	"evdesk/src-server/model"
	"evdesk/src-server/report"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	bundb := bun.NewDB(db, sqlitedialect.New())
	if err := model.CreateSchema(bundb); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return bundb
}

func addOrder(t *testing.T, bundb *bun.DB, attendeeID string, attendeeName string, item string, total int) {
	t.Helper()
	orderModel := model.Order{
		ID:           uuid.NewString(),
		AttendeeID:   attendeeID,
		AttendeeName: attendeeName,
		Item:         item,
		Quantity:     1,
		UnitPrice:    total,
		Total:        total,
	}
	if err := orderModel.Upsert(context.Background(), bundb); err != nil {
		t.Fatal(err)
	}
}

func TestAggregateSummary(t *testing.T) {
	bundb := newTestDB(t)

	// 10 attendees, the first 6 checked in
	for i := 0; i < 10; i++ {
		checkedIn := model.No
		if i < 6 {
			checkedIn = model.Yes
		}
		attendeeModel := model.Attendee{
			ID:         fmt.Sprintf("%d", 100+i),
			Name:       fmt.Sprintf("Guest %d", i),
			AgeBracket: "25-30",
			Paid:       model.Yes,
			CheckedIn:  checkedIn,
		}
		if err := attendeeModel.Upsert(context.Background(), bundb); err != nil {
			t.Fatal(err)
		}
	}

	// 4500 spent by checked-in attendees, 600 by one who never arrived
	addOrder(t, bundb, "100", "Guest 0", "Thali", 900)
	addOrder(t, bundb, "101", "Guest 1", "Thali", 800)
	addOrder(t, bundb, "102", "Guest 2", "Thali", 1000)
	addOrder(t, bundb, "103", "Guest 3", "Thali", 1000)
	addOrder(t, bundb, "104", "Guest 4", "Thali", 800)
	addOrder(t, bundb, "109", "Guest 9", "Thali", 600)

	aggregate, err := report.AggregateSummary(context.Background(), bundb)
	if err != nil {
		t.Fatal(err)
	}

	if aggregate.Headcount != 10 {
		t.Error("headcount: want 10, got", aggregate.Headcount)
	}
	if aggregate.CheckedIn != 6 {
		t.Error("checked in: want 6, got", aggregate.CheckedIn)
	}
	if aggregate.MoneyRaised != 15000 {
		t.Error("money raised: want 15000, got", aggregate.MoneyRaised)
	}
	if aggregate.MoneyFromCheckedIn != 9000 {
		t.Error("money from checked-in: want 9000, got", aggregate.MoneyFromCheckedIn)
	}
	if aggregate.OrderBudget != 6000 {
		t.Error("order budget: want 6000, got", aggregate.OrderBudget)
	}
	if aggregate.MoneySpentByCheckedIn != 4500 {
		t.Error("spent by checked-in: want 4500, got", aggregate.MoneySpentByCheckedIn)
	}
	if aggregate.RemainingOrderBudget != 1500 {
		t.Error("remaining order budget: want 1500, got", aggregate.RemainingOrderBudget)
	}
}

func TestPerAttendeeSummary(t *testing.T) {
	bundb := newTestDB(t)

	for _, attendeeModel := range []model.Attendee{
		{ID: "101", Name: "Alice", AgeBracket: "25-30", Paid: model.Yes, CheckedIn: model.Yes},
		{ID: "102", Name: "Bob", AgeBracket: "31-35", Paid: model.No, CheckedIn: model.No},
	} {
		if err := attendeeModel.Upsert(context.Background(), bundb); err != nil {
			t.Fatal(err)
		}
	}
	addOrder(t, bundb, "101", "Alice", "Chai", 300)
	addOrder(t, bundb, "101", "Alice", "Lassi", 150)

	rows, err := report.PerAttendeeSummary(context.Background(), bundb, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatal("want 2 rows, got", len(rows))
	}

	// rows come back ordered by name
	alice, bob := rows[0], rows[1]
	if alice.Name != "Alice" || alice.TotalSpent != 450 || alice.Remaining != 550 {
		t.Error("bad Alice row:", alice)
	}
	// items list in the order they were placed, not uuid order
	if alice.Items != "Chai, Lassi" {
		t.Error("bad Alice item list:", alice.Items)
	}
	if bob.Items != "None" || bob.TotalSpent != 0 || bob.Remaining != 1000 {
		t.Error("bad Bob row:", bob)
	}

	// the checked-in filter drops Bob
	rows, err = report.PerAttendeeSummary(context.Background(), bundb, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Name != "Alice" {
		t.Error("checked-in filter failed:", rows)
	}
}
