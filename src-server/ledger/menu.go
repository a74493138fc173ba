package ledger

import (
	"context"
	"database/sql"
	"encoding/csv"
	"evdesk/src-server/model"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// SetMenu replaces the whole menu table. The existing menu is left
// untouched unless every entry passes validation.
func (l *Ledger) SetMenu(ctx context.Context, items []model.MenuItem) error {
	seen := make(map[string]struct{}, len(items))
	for i := range items {
		items[i].Item = strings.TrimSpace(items[i].Item)
		switch {
		case items[i].Item == "":
			return fmt.Errorf("SetMenu: entry %d has no item name: %w", i, ErrInvalidSchema)
		case items[i].Price < 0:
			return fmt.Errorf("SetMenu: %q has a negative price: %w", items[i].Item, ErrInvalidSchema)
		}
		if _, ok := seen[items[i].Item]; ok {
			return fmt.Errorf("SetMenu: duplicate item %q: %w", items[i].Item, ErrInvalidSchema)
		}
		seen[items[i].Item] = struct{}{}
	}

	start := time.Now()
	if err := l.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*model.MenuItem)(nil)).
			Where("1 = 1").
			Exec(ctx); err != nil {
			return err
		}
		for i := range items {
			if err := items[i].Upsert(ctx, tx); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("SetMenu: %w", err)
	}
	l.reportWrite(start)

	if err := l.flush(ctx); err != nil {
		return fmt.Errorf("SetMenu: %w", err)
	}

	slog.Info("menu replaced", "items", len(items))
	return nil
}

// SetMenuCSV bulk-imports the menu from a CSV whose header must be
// exactly "item,price"; extra columns are rejected, not ignored.
func (l *Ledger) SetMenuCSV(ctx context.Context, r io.Reader) error {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("SetMenuCSV: can't read header: %w", ErrInvalidSchema)
	}
	if len(header) != 2 ||
		strings.TrimSpace(header[0]) != "item" ||
		strings.TrimSpace(header[1]) != "price" {
		return fmt.Errorf("SetMenuCSV: header must be exactly item,price: %w", ErrInvalidSchema)
	}

	var items []model.MenuItem
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("SetMenuCSV: bad row: %w", ErrInvalidSchema)
		}
		price, err := strconv.Atoi(strings.TrimSpace(record[1]))
		if err != nil {
			return fmt.Errorf("SetMenuCSV: bad price %q: %w", record[1], ErrInvalidSchema)
		}
		items = append(items, model.MenuItem{
			Item:  strings.TrimSpace(record[0]),
			Price: price,
		})
	}

	return l.SetMenu(ctx, items)
}
