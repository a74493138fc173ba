package storage

import (
	"context"
	"encoding/csv"
	"evdesk/src-server/model"
	"evdesk/src-server/utils"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/uptrace/bun"
)

const (
	attendeesFile = "attendees.csv"
	menuFile      = "menu.csv"
	ordersFile    = "orders.csv"
)

// Column orders are part of the external format and must not change.
var (
	attendeeHeader = []string{"id", "name", "age_bracket", "location", "paid", "checked_in"}
	menuHeader     = []string{"item", "price"}
	orderHeader    = []string{"order_id", "attendee_id", "attendee_name", "item", "quantity", "unit_price", "total"}
)

// Store owns the durable copy of the three tables. Every flush rewrites
// all of them; there are no partial writes.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("NewStore: can't create data dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Seed the database from the CSV tables. Missing files load as empty
// tables so a fresh data dir works out of the box.
func (s *Store) Load(ctx context.Context, db bun.IDB) error {
	attendeeRows, err := s.readTable(attendeesFile, attendeeHeader)
	if err != nil {
		return fmt.Errorf("Store.Load: %w", err)
	}
	for _, row := range attendeeRows {
		// hand-edited tables may carry unnormalized names; names are
		// normalized here the same way registration does, so the
		// name-keyed operations can match them
		attendeeModel := model.Attendee{
			ID:         row[0],
			Name:       utils.CleanupString(row[1]),
			AgeBracket: row[2],
			Location:   utils.CleanupString(row[3]),
			Paid:       model.YesNo(row[4]),
			CheckedIn:  model.YesNo(row[5]),
		}
		if err := attendeeModel.Upsert(ctx, db); err != nil {
			return fmt.Errorf("Store.Load: %w", err)
		}
	}

	menuRows, err := s.readTable(menuFile, menuHeader)
	if err != nil {
		return fmt.Errorf("Store.Load: %w", err)
	}
	for _, row := range menuRows {
		price, err := strconv.Atoi(row[1])
		if err != nil {
			return fmt.Errorf("Store.Load: bad price %q in %s: %w", row[1], menuFile, err)
		}
		menuItemModel := model.MenuItem{
			Item:  row[0],
			Price: price,
		}
		if err := menuItemModel.Upsert(ctx, db); err != nil {
			return fmt.Errorf("Store.Load: %w", err)
		}
	}

	orderRows, err := s.readTable(ordersFile, orderHeader)
	if err != nil {
		return fmt.Errorf("Store.Load: %w", err)
	}
	for _, row := range orderRows {
		quantity, err := strconv.Atoi(row[4])
		if err != nil {
			return fmt.Errorf("Store.Load: bad quantity %q in %s: %w", row[4], ordersFile, err)
		}
		unitPrice, err := strconv.Atoi(row[5])
		if err != nil {
			return fmt.Errorf("Store.Load: bad unit price %q in %s: %w", row[5], ordersFile, err)
		}
		total, err := strconv.Atoi(row[6])
		if err != nil {
			return fmt.Errorf("Store.Load: bad total %q in %s: %w", row[6], ordersFile, err)
		}
		orderModel := model.Order{
			ID:           row[0],
			AttendeeID:   row[1],
			AttendeeName: row[2],
			Item:         row[3],
			Quantity:     quantity,
			UnitPrice:    unitPrice,
			Total:        total,
		}
		if err := orderModel.Upsert(ctx, db); err != nil {
			return fmt.Errorf("Store.Load: %w", err)
		}
	}

	return nil
}

// Rewrite all three CSV tables from the database.
func (s *Store) Flush(ctx context.Context, db bun.IDB) error {
	var attendeeModels []model.Attendee
	if err := db.NewSelect().
		Model(&attendeeModels).
		Order("id ASC").
		Scan(ctx); err != nil {
		return fmt.Errorf("Store.Flush: can't get attendees: %w", err)
	}
	attendeeRows := make([][]string, 0, len(attendeeModels))
	for _, a := range attendeeModels {
		attendeeRows = append(attendeeRows, []string{
			a.ID, a.Name, a.AgeBracket, a.Location, string(a.Paid), string(a.CheckedIn),
		})
	}
	if err := s.writeTable(attendeesFile, attendeeHeader, attendeeRows); err != nil {
		return fmt.Errorf("Store.Flush: %w", err)
	}

	var menuItemModels []model.MenuItem
	if err := db.NewSelect().
		Model(&menuItemModels).
		Order("item ASC").
		Scan(ctx); err != nil {
		return fmt.Errorf("Store.Flush: can't get menu: %w", err)
	}
	menuRows := make([][]string, 0, len(menuItemModels))
	for _, m := range menuItemModels {
		menuRows = append(menuRows, []string{m.Item, strconv.Itoa(m.Price)})
	}
	if err := s.writeTable(menuFile, menuHeader, menuRows); err != nil {
		return fmt.Errorf("Store.Flush: %w", err)
	}

	var orderModels []model.Order
	// rowid keeps creation order; Load inserts rows in file order, so
	// the sequence survives restarts
	if err := db.NewSelect().
		Model(&orderModels).
		OrderExpr("rowid ASC").
		Scan(ctx); err != nil {
		return fmt.Errorf("Store.Flush: can't get orders: %w", err)
	}
	orderRows := make([][]string, 0, len(orderModels))
	for _, o := range orderModels {
		orderRows = append(orderRows, []string{
			o.ID, o.AttendeeID, o.AttendeeName, o.Item,
			strconv.Itoa(o.Quantity), strconv.Itoa(o.UnitPrice), strconv.Itoa(o.Total),
		})
	}
	if err := s.writeTable(ordersFile, orderHeader, orderRows); err != nil {
		return fmt.Errorf("Store.Flush: %w", err)
	}

	return nil
}

func (s *Store) readTable(name string, header []string) ([][]string, error) {
	file, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("readTable: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	head, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("readTable: can't read %s header: %w", name, err)
	}
	if len(head) != len(header) {
		return nil, fmt.Errorf("readTable: %s has %d columns, want %d", name, len(head), len(header))
	}
	for i := range header {
		if head[i] != header[i] {
			return nil, fmt.Errorf("readTable: %s column %d is %q, want %q", name, i, head[i], header[i])
		}
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("readTable: can't read %s rows: %w", name, err)
	}
	return rows, nil
}

// Whole-file replace: write a temp file, then rename over the table so a
// crash mid-write can't leave a half-written table behind.
func (s *Store) writeTable(name string, header []string, rows [][]string) error {
	path := filepath.Join(s.dir, name)
	tmpPath := path + ".tmp"

	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("writeTable: %w", err)
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		file.Close()
		return fmt.Errorf("writeTable: can't write %s header: %w", name, err)
	}
	if err := writer.WriteAll(rows); err != nil {
		file.Close()
		return fmt.Errorf("writeTable: can't write %s rows: %w", name, err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		file.Close()
		return fmt.Errorf("writeTable: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("writeTable: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("writeTable: %w", err)
	}
	return nil
}
