package metric

import (
	"context"
	"evdesk/src-server/model"
	"evdesk/src-server/utils"
	"time"
)

func database(as *utils.AppState) (time.Duration, error) {
	start := time.Now()
	if _, err := as.BunDB.NewSelect().
		Model((*model.Attendee)(nil)).
		Where("name = ?", "").
		Exists(context.Background()); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

func headcounts(as *utils.AppState) (int, int, error) {
	headcount, err := as.BunDB.NewSelect().
		Model((*model.Attendee)(nil)).
		Count(context.Background())
	if err != nil {
		return 0, 0, err
	}
	checkedIn, err := as.BunDB.NewSelect().
		Model((*model.Attendee)(nil)).
		Where("checked_in = ?", model.Yes).
		Count(context.Background())
	if err != nil {
		return 0, 0, err
	}
	return headcount, checkedIn, nil
}
