package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"example.com/fitdash/internal/observability"
)

// Sources names the five CSV files making up one dataset.
type Sources struct {
	DailyActivity   string
	DailySleep      string
	HourlySteps     string
	HourlyIntensity string
	HourlyCalories  string
}

// Layouts seen in the Kaggle export. ActivityDate rows carry no time of day,
// ActivityHour and SleepDay rows carry a 12-hour clock.
var dateLayouts = []string{
	"1/2/2006 3:04:05 PM",
	"1/2/2006",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Load parses, normalizes and joins the five sources into one snapshot. The
// five reads run in parallel; any failure aborts the whole load so queries
// never run against a partial dataset.
func Load(ctx context.Context, src Sources) (*Tables, error) {
	started := time.Now()

	tables := &Tables{}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tables.DailyActivity, err = loadDailyActivity(ctx, src.DailyActivity)
		return err
	})
	g.Go(func() error {
		var err error
		tables.DailySleep, err = loadDailySleep(ctx, src.DailySleep)
		return err
	})
	g.Go(func() error {
		var err error
		tables.HourlySteps, err = loadHourlySteps(ctx, src.HourlySteps)
		return err
	})
	g.Go(func() error {
		var err error
		tables.HourlyIntensity, err = loadHourlyIntensity(ctx, src.HourlyIntensity)
		return err
	})
	g.Go(func() error {
		var err error
		tables.HourlyCalories, err = loadHourlyCalories(ctx, src.HourlyCalories)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tables.Combined = combine(tables.DailyActivity, tables.DailySleep)
	tables.SnapshotID = uuid.NewString()
	tables.LoadedAt = time.Now().UTC()

	observability.RecordDatasetLoaded(tables.LoadedAt, time.Since(started), map[string]int{
		"daily_activity":   len(tables.DailyActivity),
		"daily_sleep":      len(tables.DailySleep),
		"hourly_steps":     len(tables.HourlySteps),
		"hourly_intensity": len(tables.HourlyIntensity),
		"hourly_calories":  len(tables.HourlyCalories),
		"combined":         len(tables.Combined),
	})
	return tables, nil
}

// combine left-joins activity with sleep on (UserID, ActivityDate). Every
// activity row survives exactly once; on duplicate sleep keys the first
// match wins.
func combine(activity []DailyActivity, sleep []SleepRecord) []CombinedDay {
	type key struct {
		user int64
		date time.Time
	}
	byKey := make(map[key]*SleepRecord, len(sleep))
	for i := range sleep {
		k := key{sleep[i].UserID, sleep[i].ActivityDate}
		if _, ok := byKey[k]; !ok {
			byKey[k] = &sleep[i]
		}
	}

	combined := make([]CombinedDay, 0, len(activity))
	for _, a := range activity {
		day := CombinedDay{
			UserID:                   a.UserID,
			ActivityDate:             a.ActivityDate,
			Steps:                    a.TotalSteps,
			Distance:                 a.TotalDistance,
			CaloriesBurned:           a.Calories,
			VeryActiveMinutes:        a.VeryActiveMinutes,
			FairlyActiveMinutes:      a.FairlyActiveMinutes,
			LightlyActiveMinutes:     a.LightlyActiveMinutes,
			SedentaryMinutes:         a.SedentaryMinutes,
			VeryActiveDistance:       a.VeryActiveDistance,
			ModeratelyActiveDistance: a.ModeratelyActiveDistance,
			LightActiveDistance:      a.LightActiveDistance,
			SedentaryActiveDistance:  a.SedentaryActiveDistance,
		}
		if match, ok := byKey[key{a.UserID, a.ActivityDate}]; ok {
			hours := match.SleepHours
			day.SleepingHours = &hours
		}
		combined = append(combined, day)
	}
	return combined
}

func loadDailyActivity(ctx context.Context, path string) ([]DailyActivity, error) {
	rows, err := readCSV(ctx, path, []string{
		"Id", "ActivityDate", "TotalSteps", "TotalDistance", "Calories",
		"VeryActiveMinutes", "FairlyActiveMinutes", "LightlyActiveMinutes", "SedentaryMinutes",
		"VeryActiveDistance", "ModeratelyActiveDistance", "LightActiveDistance", "SedentaryActiveDistance",
	})
	if err != nil {
		return nil, err
	}

	out := make([]DailyActivity, 0, len(rows.records))
	for i := range rows.records {
		row := rows.row(i)
		rec := DailyActivity{}
		rec.UserID, err = row.int64("Id")
		if err == nil {
			rec.ActivityDate, err = row.date("ActivityDate")
		}
		if err == nil {
			rec.TotalSteps, err = row.int("TotalSteps")
		}
		if err == nil {
			rec.TotalDistance, err = row.float("TotalDistance")
		}
		if err == nil {
			rec.Calories, err = row.int("Calories")
		}
		if err == nil {
			rec.VeryActiveMinutes, err = row.int("VeryActiveMinutes")
		}
		if err == nil {
			rec.FairlyActiveMinutes, err = row.int("FairlyActiveMinutes")
		}
		if err == nil {
			rec.LightlyActiveMinutes, err = row.int("LightlyActiveMinutes")
		}
		if err == nil {
			rec.SedentaryMinutes, err = row.int("SedentaryMinutes")
		}
		if err == nil {
			rec.VeryActiveDistance, err = row.float("VeryActiveDistance")
		}
		if err == nil {
			rec.ModeratelyActiveDistance, err = row.float("ModeratelyActiveDistance")
		}
		if err == nil {
			rec.LightActiveDistance, err = row.float("LightActiveDistance")
		}
		if err == nil {
			rec.SedentaryActiveDistance, err = row.float("SedentaryActiveDistance")
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func loadDailySleep(ctx context.Context, path string) ([]SleepRecord, error) {
	rows, err := readCSV(ctx, path, []string{"Id", "SleepDay", "TotalMinutesAsleep"})
	if err != nil {
		return nil, err
	}

	out := make([]SleepRecord, 0, len(rows.records))
	for i := range rows.records {
		row := rows.row(i)
		rec := SleepRecord{}
		rec.UserID, err = row.int64("Id")
		if err == nil {
			// SleepDay is the join key against DailyActivity.ActivityDate.
			rec.ActivityDate, err = row.date("SleepDay")
		}
		if err == nil {
			rec.TotalMinutesAsleep, err = row.int("TotalMinutesAsleep")
		}
		if err != nil {
			return nil, err
		}
		rec.SleepHours = float64(rec.TotalMinutesAsleep) / 60.0
		out = append(out, rec)
	}
	return out, nil
}

func loadHourlySteps(ctx context.Context, path string) ([]HourlySteps, error) {
	rows, err := readCSV(ctx, path, []string{"Id", "ActivityHour", "StepTotal"})
	if err != nil {
		return nil, err
	}

	out := make([]HourlySteps, 0, len(rows.records))
	for i := range rows.records {
		row := rows.row(i)
		rec := HourlySteps{}
		rec.UserID, err = row.int64("Id")
		if err == nil {
			rec.ActivityHour, err = row.timestamp("ActivityHour")
		}
		if err == nil {
			rec.StepTotal, err = row.int("StepTotal")
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func loadHourlyIntensity(ctx context.Context, path string) ([]HourlyIntensity, error) {
	rows, err := readCSV(ctx, path, []string{"Id", "ActivityHour", "TotalIntensity"})
	if err != nil {
		return nil, err
	}

	out := make([]HourlyIntensity, 0, len(rows.records))
	for i := range rows.records {
		row := rows.row(i)
		rec := HourlyIntensity{}
		rec.UserID, err = row.int64("Id")
		if err == nil {
			rec.ActivityHour, err = row.timestamp("ActivityHour")
		}
		if err == nil {
			rec.TotalIntensity, err = row.int("TotalIntensity")
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func loadHourlyCalories(ctx context.Context, path string) ([]HourlyCalories, error) {
	rows, err := readCSV(ctx, path, []string{"Id", "ActivityHour", "Calories"})
	if err != nil {
		return nil, err
	}

	out := make([]HourlyCalories, 0, len(rows.records))
	for i := range rows.records {
		row := rows.row(i)
		rec := HourlyCalories{}
		rec.UserID, err = row.int64("Id")
		if err == nil {
			rec.ActivityHour, err = row.timestamp("ActivityHour")
		}
		if err == nil {
			rec.Calories, err = row.int("Calories")
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// csvTable is a parsed source with its header resolved to column positions.
type csvTable struct {
	source  string
	columns map[string]int
	records [][]string
}

func (t *csvTable) row(i int) csvRow {
	// Data rows start on line 2; line 1 is the header.
	return csvRow{table: t, index: i, line: i + 2}
}

// csvRow reads typed cells from one record, reporting MalformedInputError
// with source and line context on coercion failure.
type csvRow struct {
	table *csvTable
	index int
	line  int
}

func (r csvRow) cell(column string) string {
	return r.table.records[r.index][r.table.columns[column]]
}

func (r csvRow) malformed(column string) error {
	return &MalformedInputError{
		Source: r.table.source,
		Line:   r.line,
		Column: column,
		Value:  r.cell(column),
	}
}

func (r csvRow) int64(column string) (int64, error) {
	v, err := strconv.ParseInt(r.cell(column), 10, 64)
	if err != nil {
		return 0, r.malformed(column)
	}
	return v, nil
}

func (r csvRow) int(column string) (int, error) {
	v, err := strconv.Atoi(r.cell(column))
	if err != nil {
		return 0, r.malformed(column)
	}
	return v, nil
}

func (r csvRow) float(column string) (float64, error) {
	v, err := strconv.ParseFloat(r.cell(column), 64)
	if err != nil {
		return 0, r.malformed(column)
	}
	return v, nil
}

// date coerces a daily key and strips any time-of-day component.
func (r csvRow) date(column string) (time.Time, error) {
	ts, err := r.timestamp(column)
	if err != nil {
		return time.Time{}, err
	}
	return DateOf(ts), nil
}

func (r csvRow) timestamp(column string) (time.Time, error) {
	raw := r.cell(column)
	for _, layout := range dateLayouts {
		if ts, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, r.malformed(column)
}

func readCSV(ctx context.Context, path string, required []string) (*csvTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrSourceNotFound)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &SchemaError{Source: path, Column: required[0]}
	}
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", path, err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[name] = i
	}
	for _, name := range required {
		if _, ok := columns[name]; !ok {
			return nil, &SchemaError{Source: path, Column: name}
		}
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &csvTable{source: path, columns: columns, records: records}, nil
}
