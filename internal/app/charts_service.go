package app

import (
	"context"
	"time"

	"foodpoints/internal/domain"
)

// ChartsService encapsulates chart data retrieval use cases.
type ChartsService struct {
	logs domain.LogRepository
	now  func() time.Time
}

// NewChartsService creates a ChartsService backed by the given repository.
func NewChartsService(logs domain.LogRepository) *ChartsService {
	return &ChartsService{logs: logs, now: time.Now}
}

// DayPoint is a single data point returned by GetDaily.
type DayPoint struct {
	Day     string  `json:"day"`
	Points  float64 `json:"points"`
	Entries int     `json:"entries"`
}

// GetDaily returns per-day points totals for owner over the last days days,
// oldest first. Days without entries have zero totals.
func (s *ChartsService) GetDaily(ctx context.Context, owner string, days int) ([]DayPoint, error) {
	if days < 1 {
		days = 1
	}
	if days > 366 {
		days = 366
	}

	entries, err := s.logs.ListByOwner(ctx, owner)
	if err != nil {
		return nil, domain.Persistence("list log entries", err)
	}
	byDay := make(map[string][]float64)
	for _, e := range entries {
		d := e.Day()
		byDay[d] = append(byDay[d], e.Points)
	}

	today := s.now().In(time.Local)
	points := make([]DayPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i).Format(domain.DayLayout)
		values := byDay[day]
		points = append(points, DayPoint{
			Day:     day,
			Points:  domain.SumPoints(values...),
			Entries: len(values),
		})
	}
	return points, nil
}
