// Package export writes the combined daily table to interchange formats the
// rest of the analytics tooling consumes.
package export

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"example.com/fitdash/internal/dataset"
)

// csvHeader uses the public daily schema names, matching what the dashboard
// displays.
var csvHeader = []string{
	"Id", "ActivityDate", "Steps", "Distance", "Calories Burned",
	"VeryActiveMinutes", "FairlyActiveMinutes", "LightlyActiveMinutes", "SedentaryMinutes",
	"VeryActiveDistance", "ModeratelyActiveDistance", "LightActiveDistance", "SedentaryActiveDistance",
	"Sleeping Hours",
}

// WriteCSV streams the combined table as CSV. Null sleeping hours become an
// empty cell.
func WriteCSV(w io.Writer, combined []dataset.CombinedDay) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, day := range combined {
		row := []string{
			strconv.FormatInt(day.UserID, 10),
			day.ActivityDate.Format("2006-01-02"),
			strconv.Itoa(day.Steps),
			formatFloat(day.Distance),
			strconv.Itoa(day.CaloriesBurned),
			strconv.Itoa(day.VeryActiveMinutes),
			strconv.Itoa(day.FairlyActiveMinutes),
			strconv.Itoa(day.LightlyActiveMinutes),
			strconv.Itoa(day.SedentaryMinutes),
			formatFloat(day.VeryActiveDistance),
			formatFloat(day.ModeratelyActiveDistance),
			formatFloat(day.LightActiveDistance),
			formatFloat(day.SedentaryActiveDistance),
			formatFloatPtr(day.SleepingHours),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type combinedParquetRow struct {
	UserID                   int64   `parquet:"name=id, type=INT64"`
	ActivityDate             string  `parquet:"name=activity_date, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Steps                    int64   `parquet:"name=steps, type=INT64"`
	Distance                 float64 `parquet:"name=distance, type=DOUBLE"`
	CaloriesBurned           int64   `parquet:"name=calories_burned, type=INT64"`
	VeryActiveMinutes        int64   `parquet:"name=very_active_minutes, type=INT64"`
	FairlyActiveMinutes      int64   `parquet:"name=fairly_active_minutes, type=INT64"`
	LightlyActiveMinutes     int64   `parquet:"name=lightly_active_minutes, type=INT64"`
	SedentaryMinutes         int64   `parquet:"name=sedentary_minutes, type=INT64"`
	VeryActiveDistance       float64 `parquet:"name=very_active_distance, type=DOUBLE"`
	ModeratelyActiveDistance float64 `parquet:"name=moderately_active_distance, type=DOUBLE"`
	LightActiveDistance      float64 `parquet:"name=light_active_distance, type=DOUBLE"`
	SedentaryActiveDistance  float64 `parquet:"name=sedentary_active_distance, type=DOUBLE"`
	SleepingHours            float64 `parquet:"name=sleeping_hours, type=DOUBLE"`
}

// WriteParquet writes the combined table to a parquet file. Null sleeping
// hours become NaN, mirroring how the upstream notebook represents them.
func WriteParquet(path string, combined []dataset.CombinedDay) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	pw, err := writer.NewParquetWriter(fw, new(combinedParquetRow), 4)
	if err != nil {
		_ = fw.Close()
		return err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, day := range combined {
		row := combinedParquetRow{
			UserID:                   day.UserID,
			ActivityDate:             day.ActivityDate.Format("2006-01-02"),
			Steps:                    int64(day.Steps),
			Distance:                 day.Distance,
			CaloriesBurned:           int64(day.CaloriesBurned),
			VeryActiveMinutes:        int64(day.VeryActiveMinutes),
			FairlyActiveMinutes:      int64(day.FairlyActiveMinutes),
			LightlyActiveMinutes:     int64(day.LightlyActiveMinutes),
			SedentaryMinutes:         int64(day.SedentaryMinutes),
			VeryActiveDistance:       day.VeryActiveDistance,
			ModeratelyActiveDistance: day.ModeratelyActiveDistance,
			LightActiveDistance:      day.LightActiveDistance,
			SedentaryActiveDistance:  day.SedentaryActiveDistance,
			SleepingHours:            valueOrNaN(day.SleepingHours),
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			_ = fw.Close()
			return err
		}
	}
	if err := pw.WriteStop(); err != nil {
		_ = fw.Close()
		return err
	}
	return fw.Close()
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
