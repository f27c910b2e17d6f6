// Package domain implements the read-only query layer over a loaded dataset
// snapshot.
package domain

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"example.com/fitdash/internal/dataset"
	"example.com/fitdash/internal/observability"
)

var (
	// ErrNotFound is returned when the requested user or (user, date) key has
	// no rows. Callers render it as an empty state, not a failure.
	ErrNotFound = errors.New("no rows for requested key")
	// ErrNoData is returned by cohort operations when the combined table is
	// empty.
	ErrNoData = errors.New("dataset contains no combined rows")
)

// IntegrityError reports a violated at-most-one-row-per-key invariant. It
// indicates a source-data defect, not a caller mistake.
type IntegrityError struct {
	Table  string
	UserID int64
	Date   time.Time
	Rows   int
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s: %d rows for user %d on %s, want 1",
		e.Table, e.Rows, e.UserID, e.Date.Format("2006-01-02"))
}

// SnapshotSource yields the current immutable table set.
type SnapshotSource interface {
	Snapshot() *dataset.Tables
}

// Service answers dashboard queries against whichever snapshot is current at
// call time. Every method is a pure read; two calls between reloads return
// identical results.
type Service struct {
	source SnapshotSource
}

// NewService constructs a Service.
func NewService(source SnapshotSource) *Service {
	return &Service{source: source}
}

// CohortSummary holds the arithmetic mean of each daily metric across the
// whole cohort. AverageSleepingHours is nil when no combined row has a sleep
// match; rows without one never enter its denominator.
type CohortSummary struct {
	Days                  int
	AverageSteps          float64
	AverageDistance       float64
	AverageCaloriesBurned float64
	AverageSleepingHours  *float64
}

// Cohort computes the cohort-wide averages. Returns ErrNoData when the
// combined table is empty.
func (s *Service) Cohort() (CohortSummary, error) {
	combined := s.source.Snapshot().Combined
	if len(combined) == 0 {
		observability.RecordQuery("cohort", "no_data")
		return CohortSummary{}, ErrNoData
	}

	var steps, distance, calories, sleep float64
	sleepDays := 0
	for _, day := range combined {
		steps += float64(day.Steps)
		distance += day.Distance
		calories += float64(day.CaloriesBurned)
		if day.SleepingHours != nil {
			sleep += *day.SleepingHours
			sleepDays++
		}
	}

	days := float64(len(combined))
	summary := CohortSummary{
		Days:                  len(combined),
		AverageSteps:          steps / days,
		AverageDistance:       distance / days,
		AverageCaloriesBurned: calories / days,
	}
	if sleepDays > 0 {
		avg := sleep / float64(sleepDays)
		summary.AverageSleepingHours = &avg
	}
	observability.RecordQuery("cohort", "ok")
	return summary, nil
}

// MinutesBreakdown is the activity-minutes split for a single day.
type MinutesBreakdown struct {
	VeryActive    int
	FairlyActive  int
	LightlyActive int
	Sedentary     int
}

// Total is the sum of tracked minutes.
func (m MinutesBreakdown) Total() int {
	return m.VeryActive + m.FairlyActive + m.LightlyActive + m.Sedentary
}

// DistanceBreakdown is the distance split for a single day.
type DistanceBreakdown struct {
	VeryActive       float64
	ModeratelyActive float64
	LightActive      float64
	SedentaryActive  float64
}

// HourlyPoint is one hour present in both the calories and intensity tables.
type HourlyPoint struct {
	Hour           time.Time
	Calories       int
	TotalIntensity int
}

// DaySlice is everything the dashboard shows for one user on one date.
type DaySlice struct {
	Day       dataset.CombinedDay
	Minutes   MinutesBreakdown
	Distances DistanceBreakdown

	// Hourly series, each sorted by hour ascending.
	HourlySteps     []dataset.HourlySteps
	HourlyIntensity []dataset.HourlyIntensity
	HourlyCalories  []dataset.HourlyCalories

	// Inner join of calories and intensity on the hour. Steps stays its own
	// series and never joins in.
	CombinedHourly []HourlyPoint
}

// UserDaySlice filters the five tables down to one user and one calendar
// date. ErrNotFound when the user has no combined row for the date; an
// IntegrityError when the key is duplicated.
func (s *Service) UserDaySlice(userID int64, date time.Time) (DaySlice, error) {
	tables := s.source.Snapshot()
	date = dataset.DateOf(date)

	var slice DaySlice
	matches := 0
	for _, day := range tables.Combined {
		if day.UserID == userID && day.ActivityDate.Equal(date) {
			if matches == 0 {
				slice.Day = day
			}
			matches++
		}
	}
	if matches == 0 {
		observability.RecordQuery("user_day_slice", "not_found")
		return DaySlice{}, ErrNotFound
	}
	if matches > 1 {
		observability.RecordQuery("user_day_slice", "integrity_violation")
		return DaySlice{}, &IntegrityError{Table: "daily_activity", UserID: userID, Date: date, Rows: matches}
	}

	// Exactly one row per key, so the breakdowns are reads, not sums.
	slice.Minutes = MinutesBreakdown{
		VeryActive:    slice.Day.VeryActiveMinutes,
		FairlyActive:  slice.Day.FairlyActiveMinutes,
		LightlyActive: slice.Day.LightlyActiveMinutes,
		Sedentary:     slice.Day.SedentaryMinutes,
	}
	slice.Distances = DistanceBreakdown{
		VeryActive:       slice.Day.VeryActiveDistance,
		ModeratelyActive: slice.Day.ModeratelyActiveDistance,
		LightActive:      slice.Day.LightActiveDistance,
		SedentaryActive:  slice.Day.SedentaryActiveDistance,
	}

	for _, h := range tables.HourlySteps {
		if h.UserID == userID && dataset.DateOf(h.ActivityHour).Equal(date) {
			slice.HourlySteps = append(slice.HourlySteps, h)
		}
	}
	for _, h := range tables.HourlyIntensity {
		if h.UserID == userID && dataset.DateOf(h.ActivityHour).Equal(date) {
			slice.HourlyIntensity = append(slice.HourlyIntensity, h)
		}
	}
	for _, h := range tables.HourlyCalories {
		if h.UserID == userID && dataset.DateOf(h.ActivityHour).Equal(date) {
			slice.HourlyCalories = append(slice.HourlyCalories, h)
		}
	}

	sort.Slice(slice.HourlySteps, func(i, j int) bool {
		return slice.HourlySteps[i].ActivityHour.Before(slice.HourlySteps[j].ActivityHour)
	})
	sort.Slice(slice.HourlyIntensity, func(i, j int) bool {
		return slice.HourlyIntensity[i].ActivityHour.Before(slice.HourlyIntensity[j].ActivityHour)
	})
	sort.Slice(slice.HourlyCalories, func(i, j int) bool {
		return slice.HourlyCalories[i].ActivityHour.Before(slice.HourlyCalories[j].ActivityHour)
	})

	intensityByHour := make(map[time.Time]int, len(slice.HourlyIntensity))
	for _, h := range slice.HourlyIntensity {
		intensityByHour[h.ActivityHour] = h.TotalIntensity
	}
	for _, h := range slice.HourlyCalories {
		intensity, ok := intensityByHour[h.ActivityHour]
		if !ok {
			continue
		}
		slice.CombinedHourly = append(slice.CombinedHourly, HourlyPoint{
			Hour:           h.ActivityHour,
			Calories:       h.Calories,
			TotalIntensity: intensity,
		})
	}

	observability.RecordQuery("user_day_slice", "ok")
	return slice, nil
}

// DateRange bounds a user's recorded days, inclusive.
type DateRange struct {
	Min time.Time
	Max time.Time
}

// UserDateRange returns the first and last activity date for the user. The
// presentation layer uses it to bound its date picker.
func (s *Service) UserDateRange(userID int64) (DateRange, error) {
	var r DateRange
	found := false
	for _, a := range s.source.Snapshot().DailyActivity {
		if a.UserID != userID {
			continue
		}
		if !found {
			r = DateRange{Min: a.ActivityDate, Max: a.ActivityDate}
			found = true
			continue
		}
		if a.ActivityDate.Before(r.Min) {
			r.Min = a.ActivityDate
		}
		if a.ActivityDate.After(r.Max) {
			r.Max = a.ActivityDate
		}
	}
	if !found {
		observability.RecordQuery("user_date_range", "not_found")
		return DateRange{}, ErrNotFound
	}
	observability.RecordQuery("user_date_range", "ok")
	return r, nil
}

// ListUsers returns the distinct user IDs in the daily activity table, sorted
// ascending. ErrNoData when the table is empty.
func (s *Service) ListUsers() ([]int64, error) {
	seen := make(map[int64]struct{})
	users := make([]int64, 0, 64)
	for _, a := range s.source.Snapshot().DailyActivity {
		if _, ok := seen[a.UserID]; ok {
			continue
		}
		seen[a.UserID] = struct{}{}
		users = append(users, a.UserID)
	}
	if len(users) == 0 {
		observability.RecordQuery("list_users", "no_data")
		return nil, ErrNoData
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	observability.RecordQuery("list_users", "ok")
	return users, nil
}

// MetricValues returns every non-null value of one metric across the
// combined table, in row order. Feeds the distribution histogram.
func (s *Service) MetricValues(metric Metric) ([]float64, error) {
	combined := s.source.Snapshot().Combined
	if len(combined) == 0 {
		observability.RecordQuery("metric_values", "no_data")
		return nil, ErrNoData
	}

	values := make([]float64, 0, len(combined))
	for _, day := range combined {
		if v, ok := metric.value(day); ok {
			values = append(values, v)
		}
	}
	observability.RecordQuery("metric_values", "ok")
	return values, nil
}

// MetricPair is one combined row projected onto two metrics.
type MetricPair struct {
	X float64
	Y float64
}

// MetricPairs returns (x, y) points for rows where both metrics are
// non-null. Feeds the correlation scatter plot.
func (s *Service) MetricPairs(x, y Metric) ([]MetricPair, error) {
	combined := s.source.Snapshot().Combined
	if len(combined) == 0 {
		observability.RecordQuery("metric_pairs", "no_data")
		return nil, ErrNoData
	}

	pairs := make([]MetricPair, 0, len(combined))
	for _, day := range combined {
		xv, ok := x.value(day)
		if !ok {
			continue
		}
		yv, ok := y.value(day)
		if !ok {
			continue
		}
		pairs = append(pairs, MetricPair{X: xv, Y: yv})
	}
	observability.RecordQuery("metric_pairs", "ok")
	return pairs, nil
}
