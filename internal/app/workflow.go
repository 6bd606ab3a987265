package app

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"foodpoints/internal/domain"
	"foodpoints/internal/metrics"
)

// DefaultProviderTimeout bounds a single food lookup.
const DefaultProviderTimeout = 5 * time.Second

// Workflow drives the food-logging cycle: search, select, edit, compute,
// confirm and review. Each transition takes the current Session and returns
// the next one; on error the input session is returned unchanged. Workflow
// holds no per-session state and no locks.
type Workflow struct {
	provider domain.FoodProvider
	logs     domain.LogRepository
	timeout  time.Duration
	metrics  metrics.Recorder
	now      func() time.Time
}

// NewWorkflow creates a Workflow. A non-positive timeout uses
// DefaultProviderTimeout.
func NewWorkflow(provider domain.FoodProvider, logs domain.LogRepository, timeout time.Duration) *Workflow {
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	return &Workflow{
		provider: provider,
		logs:     logs,
		timeout:  timeout,
		metrics:  metrics.Noop{},
		now:      time.Now,
	}
}

// WithMetrics reports lookups and log changes to m.
func (w *Workflow) WithMetrics(m metrics.Recorder) *Workflow {
	w.metrics = m
	return w
}

// WithClock overrides the clock used for entry timestamps.
func (w *Workflow) WithClock(now func() time.Time) *Workflow {
	w.now = now
	return w
}

// DateRange is an inclusive range of local calendar days in YYYY-MM-DD form.
// An empty bound is open.
type DateRange struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// LogReview is the filtered list of a user's entries, newest first, and the
// sum of their points.
type LogReview struct {
	Entries     []domain.LogEntry `json:"entries"`
	TotalPoints float64           `json:"totalPoints"`
	Range       DateRange         `json:"range"`
}

// Search looks up query with the food provider. Success replaces the
// candidates and clears any selection or score.
func (w *Workflow) Search(ctx context.Context, s domain.Session, query string) (domain.Session, error) {
	if err := requireLogin(s); err != nil {
		return s, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return s, domain.Validation("search query is required")
	}

	lookupCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	start := time.Now()
	foods, err := w.provider.Lookup(lookupCtx, query)
	elapsed := time.Since(start)
	switch {
	case err != nil && errors.Is(lookupCtx.Err(), context.DeadlineExceeded):
		w.metrics.RecordLookup(metrics.OutcomeTimeout, elapsed)
		slog.WarnContext(ctx, "food lookup timed out", slog.String("query", query), slog.Duration("timeout", w.timeout))
		return s, domain.Provider("food lookup timed out", err)
	case err != nil:
		w.metrics.RecordLookup(metrics.OutcomeError, elapsed)
		slog.WarnContext(ctx, "food lookup failed", slog.String("query", query), slog.Any("error", err))
		return s, domain.Provider("food lookup failed", err)
	case len(foods) == 0:
		w.metrics.RecordLookup(metrics.OutcomeEmpty, elapsed)
		return s, domain.Provider("no foods found for "+query, nil)
	}
	w.metrics.RecordLookup(metrics.OutcomeOK, elapsed)

	next := s.Clone()
	next.State = domain.StateSearched
	next.Candidates = slices.Clone(foods)
	next.Selected = nil
	next.Inputs = domain.Nutrients{}
	next.Points = nil
	return next, nil
}

// Select picks candidate index and seeds the inputs from it.
func (w *Workflow) Select(_ context.Context, s domain.Session, index int) (domain.Session, error) {
	if err := requireLogin(s); err != nil {
		return s, err
	}
	if len(s.Candidates) == 0 {
		return s, domain.Validation("no search results to select from")
	}
	if index < 0 || index >= len(s.Candidates) {
		return s, domain.Validation("candidate index %d out of range [0, %d)", index, len(s.Candidates))
	}

	next := s.Clone()
	food := next.Candidates[index]
	next.Selected = &food
	next.Inputs = food.Nutrients()
	next.Points = nil
	next.State = domain.StateSelected
	return next, nil
}

// SetInputs replaces the four scoring inputs. A stale score is dropped so a
// logged entry always matches its nutrients.
func (w *Workflow) SetInputs(_ context.Context, s domain.Session, in domain.Nutrients) (domain.Session, error) {
	if err := requireLogin(s); err != nil {
		return s, err
	}
	next := s.Clone()
	next.Inputs = in
	if next.State == domain.StateScored {
		next.Points = nil
		next.State = domain.StateIdle
		if next.Selected != nil {
			next.State = domain.StateSelected
		}
	}
	return next, nil
}

// Compute scores the current inputs.
func (w *Workflow) Compute(_ context.Context, s domain.Session) (domain.Session, error) {
	if err := requireLogin(s); err != nil {
		return s, err
	}
	points := domain.ScoreNutrients(s.Inputs)
	next := s.Clone()
	next.Points = &points
	next.State = domain.StateScored
	return next, nil
}

// ConfirmLog persists the computed score as a new entry owned by the
// session's user.
func (w *Workflow) ConfirmLog(ctx context.Context, s domain.Session) (domain.Session, domain.LogEntry, error) {
	if err := requireLogin(s); err != nil {
		return s, domain.LogEntry{}, err
	}
	if !s.PendingLog() {
		return s, domain.LogEntry{}, domain.Validation("compute a score before logging")
	}
	if s.Selected == nil || s.Selected.Name == "" {
		return s, domain.LogEntry{}, domain.NoSelection()
	}

	entry := domain.LogEntry{
		Owner:        s.Username(),
		FoodName:     s.Selected.Name,
		Calories:     s.Inputs.Calories,
		SaturatedFat: s.Inputs.SaturatedFat,
		Sugar:        s.Inputs.Sugar,
		Protein:      s.Inputs.Protein,
		Points:       *s.Points,
		LoggedAt:     w.now(),
	}
	id, err := w.logs.Insert(ctx, entry)
	if err != nil {
		slog.ErrorContext(ctx, "log entry insert failed", slog.String("owner", entry.Owner), slog.Any("error", err))
		return s, domain.LogEntry{}, domain.Persistence("save log entry", err)
	}
	entry.ID = id
	w.metrics.RecordEntryLogged()
	slog.InfoContext(ctx, "entry logged",
		slog.String("owner", entry.Owner),
		slog.String("id", id),
		slog.Float64("points", entry.Points))

	next := s.Clone()
	next.State = domain.StateLogged
	next.LastEntryID = id
	return next, entry, nil
}

// Reset abandons the current cycle.
func (w *Workflow) Reset(_ context.Context, s domain.Session) (domain.Session, error) {
	if err := requireLogin(s); err != nil {
		return s, err
	}
	next := domain.Authenticated(*s.Identity)
	next.LastEntryID = s.LastEntryID
	return next, nil
}

// Review lists the session user's entries within r, newest first, with the
// exact sum of their points.
func (w *Workflow) Review(ctx context.Context, s domain.Session, r DateRange) (LogReview, error) {
	if err := requireLogin(s); err != nil {
		return LogReview{}, err
	}
	if err := r.validate(); err != nil {
		return LogReview{}, err
	}

	all, err := w.logs.ListByOwner(ctx, s.Username())
	if err != nil {
		return LogReview{}, domain.Persistence("list log entries", err)
	}

	entries := make([]domain.LogEntry, 0, len(all))
	points := make([]float64, 0, len(all))
	for _, e := range all {
		if r.contains(e.Day()) {
			entries = append(entries, e)
			points = append(points, e.Points)
		}
	}
	slices.SortStableFunc(entries, func(a, b domain.LogEntry) int {
		return b.LoggedAt.Compare(a.LoggedAt)
	})
	return LogReview{Entries: entries, TotalPoints: domain.SumPoints(points...), Range: r}, nil
}

// DeleteEntry removes one of the session user's entries and reviews r again.
func (w *Workflow) DeleteEntry(ctx context.Context, s domain.Session, id string, r DateRange) (LogReview, error) {
	if err := requireLogin(s); err != nil {
		return LogReview{}, err
	}
	if err := r.validate(); err != nil {
		return LogReview{}, err
	}
	if strings.TrimSpace(id) == "" {
		return LogReview{}, domain.Validation("entry id is required")
	}

	if err := w.logs.DeleteByID(ctx, s.Username(), id); err != nil {
		return LogReview{}, storeError("delete log entry", err)
	}
	w.metrics.RecordEntryDeleted()
	slog.InfoContext(ctx, "entry deleted", slog.String("owner", s.Username()), slog.String("id", id))
	return w.Review(ctx, s, r)
}

func (r DateRange) validate() error {
	for _, v := range []string{r.Start, r.End} {
		if v == "" {
			continue
		}
		if _, err := time.ParseInLocation(domain.DayLayout, v, time.Local); err != nil {
			return domain.Validation("invalid date %q, want YYYY-MM-DD", v)
		}
	}
	if r.Start != "" && r.End != "" && r.Start > r.End {
		return domain.Validation("start date %s is after end date %s", r.Start, r.End)
	}
	return nil
}

// contains compares YYYY-MM-DD strings, which order the same as the dates.
func (r DateRange) contains(day string) bool {
	if r.Start != "" && day < r.Start {
		return false
	}
	if r.End != "" && day > r.End {
		return false
	}
	return true
}

func requireLogin(s domain.Session) error {
	if !s.LoggedIn() {
		return domain.Authentication("login required")
	}
	return nil
}
