// Package dataset loads and normalizes the FitBit tracker CSV exports into an
// immutable in-memory table set shared by every query.
package dataset

import "time"

// DailyActivity is one user's ground-truth daily record.
type DailyActivity struct {
	UserID                   int64
	ActivityDate             time.Time
	TotalSteps               int
	TotalDistance            float64
	Calories                 int
	VeryActiveMinutes        int
	FairlyActiveMinutes      int
	LightlyActiveMinutes     int
	SedentaryMinutes         int
	VeryActiveDistance       float64
	ModeratelyActiveDistance float64
	LightActiveDistance      float64
	SedentaryActiveDistance  float64
}

// SleepRecord is one user's nightly sleep entry. The raw export keys this on
// SleepDay; the loader renames it to ActivityDate so it joins against
// DailyActivity. Not every (user, date) has one.
type SleepRecord struct {
	UserID             int64
	ActivityDate       time.Time
	TotalMinutesAsleep int
	SleepHours         float64
}

// HourlySteps is one user-hour of step counts.
type HourlySteps struct {
	UserID       int64
	ActivityHour time.Time
	StepTotal    int
}

// HourlyIntensity is one user-hour of intensity totals.
type HourlyIntensity struct {
	UserID         int64
	ActivityHour   time.Time
	TotalIntensity int
}

// HourlyCalories is one user-hour of calorie burn.
type HourlyCalories struct {
	UserID       int64
	ActivityHour time.Time
	Calories     int
}

// CombinedDay is the public daily schema: the activity row left-joined with
// sleep. SleepingHours is nil when the user has no sleep record for the date.
type CombinedDay struct {
	UserID                   int64
	ActivityDate             time.Time
	Steps                    int
	Distance                 float64
	CaloriesBurned           int
	VeryActiveMinutes        int
	FairlyActiveMinutes      int
	LightlyActiveMinutes     int
	SedentaryMinutes         int
	VeryActiveDistance       float64
	ModeratelyActiveDistance float64
	LightActiveDistance      float64
	SedentaryActiveDistance  float64
	SleepingHours            *float64
}

// Tables is one fully-loaded snapshot of the five sources plus the combined
// view. A snapshot is never mutated after Load returns it.
type Tables struct {
	SnapshotID string
	LoadedAt   time.Time

	DailyActivity   []DailyActivity
	DailySleep      []SleepRecord
	HourlySteps     []HourlySteps
	HourlyIntensity []HourlyIntensity
	HourlyCalories  []HourlyCalories
	Combined        []CombinedDay
}

// DateOf truncates a timestamp to its UTC calendar date. Hourly rows carry a
// time-of-day component and must be truncated before comparison against
// ActivityDate-keyed tables.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
