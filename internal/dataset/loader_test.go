package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const activityHeader = "Id,ActivityDate,TotalSteps,TotalDistance,TrackerDistance,LoggedActivitiesDistance,VeryActiveDistance,ModeratelyActiveDistance,LightActiveDistance,SedentaryActiveDistance,VeryActiveMinutes,FairlyActiveMinutes,LightlyActiveMinutes,SedentaryMinutes,Calories"

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// fixtureSources lays out a small dataset in the raw Kaggle shape: extra
// columns, 12-hour clock timestamps and SleepDay as the sleep date key.
func fixtureSources(t *testing.T) Sources {
	t.Helper()
	dir := t.TempDir()
	return Sources{
		DailyActivity: writeFixture(t, dir, "dailyActivity_merged.csv",
			activityHeader+"\n"+
				"1503960366,4/12/2016,13162,8.5,8.5,0,1.88,0.55,6.06,0,25,13,328,728,1985\n"+
				"1503960366,4/13/2016,10735,6.97,6.97,0,1.57,0.69,4.71,0,21,19,217,776,1797\n"+
				"1624580081,4/12/2016,8163,5.31,5.31,0,0,0,5.31,0,0,0,146,1294,1432\n"),
		DailySleep: writeFixture(t, dir, "sleepDay_merged.csv",
			"Id,SleepDay,TotalSleepRecords,TotalMinutesAsleep,TotalTimeInBed\n"+
				"1503960366,4/12/2016 12:00:00 AM,1,360,407\n"),
		HourlySteps: writeFixture(t, dir, "hourlySteps_merged.csv",
			"Id,ActivityHour,StepTotal\n"+
				"1503960366,4/12/2016 8:00:00 AM,500\n"+
				"1503960366,4/12/2016 9:00:00 AM,600\n"+
				"1624580081,4/12/2016 8:00:00 AM,120\n"),
		HourlyIntensity: writeFixture(t, dir, "hourlyIntensities_merged.csv",
			"Id,ActivityHour,TotalIntensity,AverageIntensity\n"+
				"1503960366,4/12/2016 8:00:00 AM,5,0.083333\n"),
		HourlyCalories: writeFixture(t, dir, "hourlyCalories_merged.csv",
			"Id,ActivityHour,Calories\n"+
				"1503960366,4/12/2016 8:00:00 AM,50\n"+
				"1503960366,4/12/2016 9:00:00 AM,60\n"),
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestLoadJoinsActivityWithSleep(t *testing.T) {
	tables, err := Load(context.Background(), fixtureSources(t))
	require.NoError(t, err)

	require.Len(t, tables.DailyActivity, 3)
	require.Len(t, tables.Combined, len(tables.DailyActivity))
	require.NotEmpty(t, tables.SnapshotID)

	first := tables.Combined[0]
	require.Equal(t, int64(1503960366), first.UserID)
	require.Equal(t, date(2016, time.April, 12), first.ActivityDate)
	require.Equal(t, 13162, first.Steps)
	require.Equal(t, 8.5, first.Distance)
	require.Equal(t, 1985, first.CaloriesBurned)
	require.NotNil(t, first.SleepingHours)
	require.Equal(t, 6.0, *first.SleepingHours) // 360 minutes asleep

	// No sleep record for the other two keys: null, not zero.
	require.Nil(t, tables.Combined[1].SleepingHours)
	require.Nil(t, tables.Combined[2].SleepingHours)
}

func TestLoadParsesHourlyTimestamps(t *testing.T) {
	tables, err := Load(context.Background(), fixtureSources(t))
	require.NoError(t, err)

	require.Len(t, tables.HourlySteps, 3)
	first := tables.HourlySteps[0]
	require.Equal(t, time.Date(2016, time.April, 12, 8, 0, 0, 0, time.UTC), first.ActivityHour)
	require.Equal(t, date(2016, time.April, 12), DateOf(first.ActivityHour))
}

func TestLoadDuplicateSleepKeysFirstMatchWins(t *testing.T) {
	src := fixtureSources(t)
	dir := t.TempDir()
	src.DailySleep = writeFixture(t, dir, "sleepDay_merged.csv",
		"Id,SleepDay,TotalSleepRecords,TotalMinutesAsleep,TotalTimeInBed\n"+
			"1503960366,4/12/2016 12:00:00 AM,1,360,407\n"+
			"1503960366,4/12/2016 12:00:00 AM,1,480,500\n")

	tables, err := Load(context.Background(), src)
	require.NoError(t, err)

	// Duplicate sleep keys never duplicate the left side.
	require.Len(t, tables.Combined, len(tables.DailyActivity))
	require.NotNil(t, tables.Combined[0].SleepingHours)
	require.Equal(t, 6.0, *tables.Combined[0].SleepingHours)
}

func TestLoadMissingSource(t *testing.T) {
	src := fixtureSources(t)
	src.HourlyCalories = filepath.Join(t.TempDir(), "nope.csv")

	_, err := Load(context.Background(), src)
	require.ErrorIs(t, err, ErrSourceNotFound)
}

func TestLoadMissingColumn(t *testing.T) {
	src := fixtureSources(t)
	dir := t.TempDir()
	src.HourlySteps = writeFixture(t, dir, "hourlySteps_merged.csv",
		"Id,ActivityHour\n1503960366,4/12/2016 8:00:00 AM\n")

	_, err := Load(context.Background(), src)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	require.Equal(t, "StepTotal", schemaErr.Column)
}

func TestLoadMalformedDate(t *testing.T) {
	src := fixtureSources(t)
	dir := t.TempDir()
	src.HourlyCalories = writeFixture(t, dir, "hourlyCalories_merged.csv",
		"Id,ActivityHour,Calories\n"+
			"1503960366,4/12/2016 8:00:00 AM,50\n"+
			"1503960366,not-a-time,60\n")

	_, err := Load(context.Background(), src)
	var malformed *MalformedInputError
	require.ErrorAs(t, err, &malformed)
	require.Equal(t, "ActivityHour", malformed.Column)
	require.Equal(t, 3, malformed.Line)
	require.Equal(t, "not-a-time", malformed.Value)
}
