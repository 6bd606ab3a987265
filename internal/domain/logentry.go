package domain

import (
	"context"
	"time"
)

// LogEntry is a persisted points record. It is immutable after creation and
// its Points are never recomputed.
type LogEntry struct {
	ID           string    `json:"id"`
	Owner        string    `json:"owner"`
	FoodName     string    `json:"foodName"`
	Calories     float64   `json:"calories"`
	SaturatedFat float64   `json:"saturatedFat"`
	Sugar        float64   `json:"sugar"`
	Protein      float64   `json:"protein"`
	Points       float64   `json:"points"`
	LoggedAt     time.Time `json:"loggedAt"`
}

// Day returns the local calendar day the entry was logged on.
func (e LogEntry) Day() string {
	return e.LoggedAt.In(time.Local).Format(DayLayout)
}

// DayLayout is the calendar-day format used for filtering and charts.
const DayLayout = "2006-01-02"

// LogRepository is the log store port. Insert assigns and returns the id.
// DeleteByID is scoped to the owner and returns a not-found error when no
// row matched.
type LogRepository interface {
	Insert(ctx context.Context, e LogEntry) (string, error)
	ListByOwner(ctx context.Context, owner string) ([]LogEntry, error)
	DeleteByID(ctx context.Context, owner, id string) error
}
