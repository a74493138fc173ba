package storage_test

import (
	"context"
	"database/sql"
	"evdesk/src-server/model"
	"evdesk/src-server/storage"
	"os"
	"path/filepath"
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

func TestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	// seed one database, flush it
	source := newTestDB(t)
	attendeeModel := model.Attendee{
		ID:         "101",
		Name:       "Alice",
		AgeBracket: "25-30",
		Location:   "Delhi",
		Paid:       model.Yes,
		CheckedIn:  model.No,
	}
	if err := attendeeModel.Upsert(context.Background(), source); err != nil {
		t.Fatal(err)
	}
	menuItemModel := model.MenuItem{Item: "Thali", Price: 150}
	if err := menuItemModel.Upsert(context.Background(), source); err != nil {
		t.Fatal(err)
	}
	orderModel := model.Order{
		ID:           uuid.NewString(),
		AttendeeID:   "101",
		AttendeeName: "Alice",
		Item:         "Thali",
		Quantity:     2,
		UnitPrice:    150,
		Total:        300,
	}
	if err := orderModel.Upsert(context.Background(), source); err != nil {
		t.Fatal(err)
	}
	if err := store.Flush(context.Background(), source); err != nil {
		t.Fatal(err)
	}

	// reload into a fresh database, records come back identical
	reloaded := newTestDB(t)
	if err := store.Load(context.Background(), reloaded); err != nil {
		t.Fatal(err)
	}

	attendeeTest := new(model.Attendee)
	if err := reloaded.NewSelect().
		Model(attendeeTest).
		Where("id = ?", "101").
		Scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	if attendeeTest.ID != attendeeModel.ID ||
		attendeeTest.Name != attendeeModel.Name ||
		attendeeTest.AgeBracket != attendeeModel.AgeBracket ||
		attendeeTest.Location != attendeeModel.Location ||
		attendeeTest.Paid != attendeeModel.Paid ||
		attendeeTest.CheckedIn != attendeeModel.CheckedIn {
		t.Error("attendee changed across the round trip:", attendeeTest)
	}

	menuItemTest := new(model.MenuItem)
	if err := reloaded.NewSelect().
		Model(menuItemTest).
		Where("item = ?", "Thali").
		Scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	if *menuItemTest != menuItemModel {
		t.Error("menu item changed across the round trip:", menuItemTest)
	}

	orderTest := new(model.Order)
	if err := reloaded.NewSelect().
		Model(orderTest).
		Where("id = ?", orderModel.ID).
		Scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	if orderTest.AttendeeID != "101" || orderTest.Quantity != 2 ||
		orderTest.UnitPrice != 150 || orderTest.Total != 300 {
		t.Error("order changed across the round trip:", orderTest)
	}
}

func TestLoadNormalizesNames(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(
		filepath.Join(dir, "attendees.csv"),
		[]byte("id,name,age_bracket,location,paid,checked_in\n101,alice smith,25-30,delhi,Yes,No\n"),
		0o644,
	); err != nil {
		t.Fatal(err)
	}

	bundb := newTestDB(t)
	if err := store.Load(context.Background(), bundb); err != nil {
		t.Fatal(err)
	}

	// a hand-edited lowercase row comes back in canonical form, so the
	// name-keyed operations can find it
	attendeeTest := new(model.Attendee)
	if err := bundb.NewSelect().
		Model(attendeeTest).
		Where("id = ?", "101").
		Scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	if attendeeTest.Name != "Alice Smith" {
		t.Error("want name Alice Smith, got", attendeeTest.Name)
	}
	if attendeeTest.Location != "Delhi" {
		t.Error("want location Delhi, got", attendeeTest.Location)
	}
}

func TestRoundTripKeepsOrderSequence(t *testing.T) {
	store, err := storage.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	source := newTestDB(t)
	attendeeModel := model.Attendee{
		ID: "101", Name: "Alice", AgeBracket: "25-30",
		Paid: model.Yes, CheckedIn: model.No,
	}
	if err := attendeeModel.Upsert(context.Background(), source); err != nil {
		t.Fatal(err)
	}
	items := []string{"Thali", "Lassi", "Chai", "Samosa"}
	for _, item := range items {
		orderModel := model.Order{
			ID:           uuid.NewString(),
			AttendeeID:   "101",
			AttendeeName: "Alice",
			Item:         item,
			Quantity:     1,
			UnitPrice:    100,
			Total:        100,
		}
		if err := orderModel.Upsert(context.Background(), source); err != nil {
			t.Fatal(err)
		}
	}

	if err := store.Flush(context.Background(), source); err != nil {
		t.Fatal(err)
	}
	reloaded := newTestDB(t)
	if err := store.Load(context.Background(), reloaded); err != nil {
		t.Fatal(err)
	}

	// the uuids are random; creation order has to survive the round trip
	// on its own
	var orderModels []model.Order
	if err := reloaded.NewSelect().
		Model(&orderModels).
		OrderExpr("rowid ASC").
		Scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(orderModels) != len(items) {
		t.Fatal("want", len(items), "orders, got", len(orderModels))
	}
	for i, orderModel := range orderModels {
		if orderModel.Item != items[i] {
			t.Errorf("order %d: want %s, got %s", i, items[i], orderModel.Item)
		}
	}
}

func TestLoadMissingFiles(t *testing.T) {
	store, err := storage.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	bundb := newTestDB(t)

	// a fresh data dir is just three empty tables
	if err := store.Load(context.Background(), bundb); err != nil {
		t.Fatal(err)
	}
	count, err := bundb.NewSelect().Model((*model.Attendee)(nil)).Count(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Error("expected no attendees, got", count)
	}
}

func TestLoadRejectsWrongColumns(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(
		filepath.Join(dir, "menu.csv"),
		[]byte("item,price,category\nThali,150,meal\n"),
		0o644,
	); err != nil {
		t.Fatal(err)
	}

	bundb := newTestDB(t)
	if err := store.Load(context.Background(), bundb); err == nil {
		t.Error("expected extra column to be rejected")
	}
}

func TestFlushLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	bundb := newTestDB(t)
	if err := store.Flush(context.Background(), bundb); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	names := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) == ".tmp" {
			t.Error("temp file left behind:", entry.Name())
		}
		names[entry.Name()] = struct{}{}
	}
	for _, want := range []string{"attendees.csv", "menu.csv", "orders.csv"} {
		if _, ok := names[want]; !ok {
			t.Error("missing table file:", want)
		}
	}
}
