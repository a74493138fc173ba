package model

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// YesNo is how paid/checked-in flags are stored, matching the literal
// "Yes"/"No" values in the CSV tables.
type YesNo string

const (
	Yes YesNo = "Yes"
	No  YesNo = "No"
)

func (y YesNo) Valid() bool {
	return y == Yes || y == No
}

// Age brackets offered on the registration form.
var AgeBrackets = []string{"25-30", "31-35", "36-40"}

func ValidAgeBracket(s string) bool {
	for _, bracket := range AgeBrackets {
		if s == bracket {
			return true
		}
	}
	return false
}

type AttendeeIDCtxKeyType string

const AttendeeIDCtxKey AttendeeIDCtxKeyType = "attendee-ids"

type Attendee struct {
	bun.BaseModel `bun:"table:attendees"`

	ID         string `bun:"id,pk,notnull"`
	Name       string `bun:"name,notnull,unique"`
	AgeBracket string `bun:"age_bracket,notnull"`
	Location   string `bun:"location"`
	Paid       YesNo  `bun:"paid,notnull"`
	CheckedIn  YesNo  `bun:"checked_in,notnull"`

	Orders []*Order `bun:"rel:has-many,join:id=attendee_id"`
}

var _ bun.AfterDeleteHook = (*Attendee)(nil)

// Cleanup the deleted attendee's orders
func (a *Attendee) AfterDelete(ctx context.Context, query *bun.DeleteQuery) error {
	if query.DB() == nil {
		return fmt.Errorf("Attendee.AfterDelete: db is nil")
	}

	switch attendeeID := ctx.Value(AttendeeIDCtxKey).(type) {
	case string:
		if attendeeID == "" {
			return fmt.Errorf("Attendee.AfterDelete: attendee id is blank")
		}

		if _, err := query.DB().NewDelete().
			Model((*Order)(nil)).
			Where("attendee_id = ?", attendeeID).
			Exec(ctx); err != nil {
			return fmt.Errorf("Attendee.AfterDelete: can't delete orders: %w", err)
		}
	case []string:
		if len(attendeeID) == 0 {
			return fmt.Errorf("Attendee.AfterDelete: attendee ids is empty")
		}

		if _, err := query.DB().NewDelete().
			Model((*Order)(nil)).
			Where("attendee_id IN (?)", bun.In(attendeeID)).
			Exec(ctx); err != nil {
			return fmt.Errorf("Attendee.AfterDelete: can't delete orders: %w", err)
		}
	case nil:
		return fmt.Errorf("Attendee.AfterDelete: attendee id is nil")
	default:
		return fmt.Errorf("Attendee.AfterDelete: wrong attendee id type | type=%T", attendeeID)
	}

	return nil
}

// Upsert the attendee to the database
func (a *Attendee) Upsert(ctx context.Context, db bun.IDB) error {
	// validate
	switch {
	case a.ID == "":
		return fmt.Errorf("Attendee.Upsert: id is required")
	case a.Name == "":
		return fmt.Errorf("Attendee.Upsert: name is required")
	case !ValidAgeBracket(a.AgeBracket):
		return fmt.Errorf("Attendee.Upsert: unknown age bracket %q", a.AgeBracket)
	case !a.Paid.Valid():
		return fmt.Errorf("Attendee.Upsert: paid must be Yes or No")
	case !a.CheckedIn.Valid():
		return fmt.Errorf("Attendee.Upsert: checked_in must be Yes or No")
	}

	// upsert to db
	if _, err := db.NewInsert().
		Model(a).
		On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("age_bracket = EXCLUDED.age_bracket").
		Set("location = EXCLUDED.location").
		Set("paid = EXCLUDED.paid").
		Set("checked_in = EXCLUDED.checked_in").
		Exec(ctx); err != nil {
		return fmt.Errorf("Attendee.Upsert: %w", err)
	}

	return nil
}
