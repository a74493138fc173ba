package ledger

import (
	"context"
	"database/sql"
	"errors"
	"evdesk/src-server/model"
	"evdesk/src-server/utils"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// RegisterAttendee adds a new attendee (never checked in yet), renders
// their badge and flushes.
func (l *Ledger) RegisterAttendee(
	ctx context.Context,
	id string,
	name string,
	ageBracket string,
	location string,
	paid model.YesNo,
) (*model.Attendee, error) {
	id = strings.TrimSpace(id)
	name = utils.CleanupString(name)
	location = utils.CleanupString(location)

	// validate
	switch {
	case id == "":
		return nil, fmt.Errorf("RegisterAttendee: id is required: %w", ErrInvalidInput)
	case name == "":
		return nil, fmt.Errorf("RegisterAttendee: name is required: %w", ErrInvalidInput)
	case !model.ValidAgeBracket(ageBracket):
		return nil, fmt.Errorf("RegisterAttendee: unknown age bracket %q: %w", ageBracket, ErrInvalidInput)
	case !paid.Valid():
		return nil, fmt.Errorf("RegisterAttendee: paid must be Yes or No: %w", ErrInvalidInput)
	}

	// id and name are each unique across the live set
	exist, err := l.db.NewSelect().
		Model((*model.Attendee)(nil)).
		Where("id = ?", id).
		WhereOr("name = ?", name).
		Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("RegisterAttendee: can't check for duplicates: %w", err)
	}
	if exist {
		return nil, fmt.Errorf("RegisterAttendee: id %q or name %q already registered: %w", id, name, ErrDuplicateKey)
	}

	attendeeModel := model.Attendee{
		ID:         id,
		Name:       name,
		AgeBracket: ageBracket,
		Location:   location,
		Paid:       paid,
		CheckedIn:  model.No,
	}

	// insert and badge succeed or fail as a unit; a badge failure must
	// not leave a half-registered attendee in the table
	start := time.Now()
	if err := l.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := attendeeModel.Upsert(ctx, tx); err != nil {
			return err
		}
		_, _, err := l.badges.Generate(
			attendeeModel.ID,
			attendeeModel.Name,
			string(attendeeModel.Paid),
			string(attendeeModel.CheckedIn),
		)
		return err
	}); err != nil {
		return nil, fmt.Errorf("RegisterAttendee: %w", err)
	}
	l.reportWrite(start)

	if err := l.flush(ctx); err != nil {
		return nil, fmt.Errorf("RegisterAttendee: %w", err)
	}

	slog.Info("attendee registered", "id", attendeeModel.ID, "name", attendeeModel.Name)
	return &attendeeModel, nil
}

// RemoveAttendee deletes the attendee selected by name; their orders go
// with them.
func (l *Ledger) RemoveAttendee(ctx context.Context, name string) error {
	name = utils.CleanupString(name)

	attendeeModel := new(model.Attendee)
	if err := l.db.NewSelect().
		Model(attendeeModel).
		Where("name = ?", name).
		Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("RemoveAttendee: no attendee named %q: %w", name, ErrNotFound)
		}
		return fmt.Errorf("RemoveAttendee: can't get attendee: %w", err)
	}

	start := time.Now()
	if _, err := l.db.NewDelete().
		Model((*model.Attendee)(nil)).
		Where("id = ?", attendeeModel.ID).
		Exec(context.WithValue(ctx, model.AttendeeIDCtxKey, attendeeModel.ID)); err != nil {
		return fmt.Errorf("RemoveAttendee: %w", err)
	}
	l.reportWrite(start)

	if err := l.flush(ctx); err != nil {
		return fmt.Errorf("RemoveAttendee: %w", err)
	}

	slog.Info("attendee removed", "id", attendeeModel.ID, "name", attendeeModel.Name)
	return nil
}

// SetPaymentStatus flips the paid flag for the attendee selected by
// name and re-renders their badge so the payload stays current.
func (l *Ledger) SetPaymentStatus(ctx context.Context, name string, paid model.YesNo) (*model.Attendee, error) {
	name = utils.CleanupString(name)

	if !paid.Valid() {
		return nil, fmt.Errorf("SetPaymentStatus: paid must be Yes or No: %w", ErrInvalidInput)
	}

	attendeeModel := new(model.Attendee)
	if err := l.db.NewSelect().
		Model(attendeeModel).
		Where("name = ?", name).
		Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("SetPaymentStatus: no attendee named %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("SetPaymentStatus: can't get attendee: %w", err)
	}

	start := time.Now()
	if err := l.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewUpdate().
			Model((*model.Attendee)(nil)).
			Set("paid = ?", paid).
			Where("name = ?", name).
			Exec(ctx); err != nil {
			return err
		}
		_, _, err := l.badges.Generate(
			attendeeModel.ID,
			attendeeModel.Name,
			string(paid),
			string(attendeeModel.CheckedIn),
		)
		return err
	}); err != nil {
		return nil, fmt.Errorf("SetPaymentStatus: %w", err)
	}
	l.reportWrite(start)
	attendeeModel.Paid = paid

	if err := l.flush(ctx); err != nil {
		return nil, fmt.Errorf("SetPaymentStatus: %w", err)
	}

	slog.Info("payment status updated", "name", attendeeModel.Name, "paid", paid)
	return attendeeModel, nil
}

// CheckIn marks arrival. The transition is one-way; calling it again is
// reported as ErrAlreadyCheckedIn with no write, not a crash.
func (l *Ledger) CheckIn(ctx context.Context, id string) (*model.Attendee, error) {
	id = strings.TrimSpace(id)

	attendeeModel := new(model.Attendee)
	if err := l.db.NewSelect().
		Model(attendeeModel).
		Where("id = ?", id).
		Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("CheckIn: id %q not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("CheckIn: can't get attendee: %w", err)
	}

	if attendeeModel.CheckedIn == model.Yes {
		return attendeeModel, fmt.Errorf("CheckIn: %s: %w", attendeeModel.Name, ErrAlreadyCheckedIn)
	}

	start := time.Now()
	if err := l.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewUpdate().
			Model((*model.Attendee)(nil)).
			Set("checked_in = ?", model.Yes).
			Where("id = ?", id).
			Exec(ctx); err != nil {
			return err
		}
		_, _, err := l.badges.Generate(
			attendeeModel.ID,
			attendeeModel.Name,
			string(attendeeModel.Paid),
			string(model.Yes),
		)
		return err
	}); err != nil {
		return nil, fmt.Errorf("CheckIn: %w", err)
	}
	l.reportWrite(start)
	attendeeModel.CheckedIn = model.Yes

	if err := l.flush(ctx); err != nil {
		return nil, fmt.Errorf("CheckIn: %w", err)
	}

	slog.Info("attendee checked in", "id", attendeeModel.ID, "name", attendeeModel.Name)
	return attendeeModel, nil
}
