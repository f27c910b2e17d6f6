package api

import (
	"time"

	"example.com/fitdash/internal/domain"
)

// CohortSummaryResponse is the payload for GET /v1/cohort/summary.
type CohortSummaryResponse struct {
	Days                  int      `json:"days"`
	AverageSteps          float64  `json:"average_steps"`
	AverageDistanceKM     float64  `json:"average_distance_km"`
	AverageCaloriesBurned float64  `json:"average_calories_burned"`
	AverageSleepingHours  *float64 `json:"average_sleeping_hours,omitempty"`
}

// DistributionResponse feeds the metric histogram.
type DistributionResponse struct {
	Metric string    `json:"metric"`
	Values []float64 `json:"values"`
}

// PointView is one scatter-plot point.
type PointView struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CorrelationResponse feeds the correlation scatter plot.
type CorrelationResponse struct {
	XMetric string      `json:"x_metric"`
	YMetric string      `json:"y_metric"`
	Points  []PointView `json:"points"`
}

// UsersResponse lists the cohort's user IDs.
type UsersResponse struct {
	Users []int64 `json:"users"`
}

// RangeResponse bounds a user's recorded days.
type RangeResponse struct {
	UserID  int64  `json:"user_id"`
	MinDate string `json:"min_date"`
	MaxDate string `json:"max_date"`
}

// ReloadResponse reports the snapshot swapped in by a reload.
type ReloadResponse struct {
	SnapshotID   string    `json:"snapshot_id"`
	LoadedAt     time.Time `json:"loaded_at"`
	CombinedRows int       `json:"combined_rows"`
}

// DayRecordView is the combined daily record in the public schema.
type DayRecordView struct {
	UserID         int64    `json:"user_id"`
	Date           string   `json:"date"`
	Steps          int      `json:"steps"`
	DistanceKM     float64  `json:"distance_km"`
	CaloriesBurned int      `json:"calories_burned"`
	SleepingHours  *float64 `json:"sleeping_hours,omitempty"`
}

// MinutesView is the activity-minutes breakdown for one day.
type MinutesView struct {
	VeryActive    int `json:"very_active"`
	FairlyActive  int `json:"fairly_active"`
	LightlyActive int `json:"lightly_active"`
	Sedentary     int `json:"sedentary"`
	Total         int `json:"total"`
}

// DistancesView is the distance breakdown for one day.
type DistancesView struct {
	VeryActive       float64 `json:"very_active"`
	ModeratelyActive float64 `json:"moderately_active"`
	LightActive      float64 `json:"light_active"`
	SedentaryActive  float64 `json:"sedentary_active"`
}

// HourlyValueView is one hour of a single metric series.
type HourlyValueView struct {
	Hour  time.Time `json:"hour"`
	Value int       `json:"value"`
}

// HourlyJoinedView is one hour present in both calorie and intensity series.
type HourlyJoinedView struct {
	Hour           time.Time `json:"hour"`
	Calories       int       `json:"calories"`
	TotalIntensity int       `json:"total_intensity"`
}

// UserDayResponse is the payload for GET /v1/users/{id}/day.
type UserDayResponse struct {
	Day             DayRecordView      `json:"day"`
	Minutes         MinutesView        `json:"minutes"`
	Distances       DistancesView      `json:"distances"`
	HourlySteps     []HourlyValueView  `json:"hourly_steps"`
	HourlyIntensity []HourlyValueView  `json:"hourly_intensity"`
	HourlyCalories  []HourlyValueView  `json:"hourly_calories"`
	CombinedHourly  []HourlyJoinedView `json:"combined_hourly"`
}

func toCohortView(summary domain.CohortSummary) CohortSummaryResponse {
	return CohortSummaryResponse{
		Days:                  summary.Days,
		AverageSteps:          summary.AverageSteps,
		AverageDistanceKM:     summary.AverageDistance,
		AverageCaloriesBurned: summary.AverageCaloriesBurned,
		AverageSleepingHours:  summary.AverageSleepingHours,
	}
}

func toDayView(slice domain.DaySlice) UserDayResponse {
	resp := UserDayResponse{
		Day: DayRecordView{
			UserID:         slice.Day.UserID,
			Date:           slice.Day.ActivityDate.Format(dateLayout),
			Steps:          slice.Day.Steps,
			DistanceKM:     slice.Day.Distance,
			CaloriesBurned: slice.Day.CaloriesBurned,
			SleepingHours:  slice.Day.SleepingHours,
		},
		Minutes: MinutesView{
			VeryActive:    slice.Minutes.VeryActive,
			FairlyActive:  slice.Minutes.FairlyActive,
			LightlyActive: slice.Minutes.LightlyActive,
			Sedentary:     slice.Minutes.Sedentary,
			Total:         slice.Minutes.Total(),
		},
		Distances: DistancesView{
			VeryActive:       slice.Distances.VeryActive,
			ModeratelyActive: slice.Distances.ModeratelyActive,
			LightActive:      slice.Distances.LightActive,
			SedentaryActive:  slice.Distances.SedentaryActive,
		},
		HourlySteps:     make([]HourlyValueView, 0, len(slice.HourlySteps)),
		HourlyIntensity: make([]HourlyValueView, 0, len(slice.HourlyIntensity)),
		HourlyCalories:  make([]HourlyValueView, 0, len(slice.HourlyCalories)),
		CombinedHourly:  make([]HourlyJoinedView, 0, len(slice.CombinedHourly)),
	}

	for _, h := range slice.HourlySteps {
		resp.HourlySteps = append(resp.HourlySteps, HourlyValueView{Hour: h.ActivityHour, Value: h.StepTotal})
	}
	for _, h := range slice.HourlyIntensity {
		resp.HourlyIntensity = append(resp.HourlyIntensity, HourlyValueView{Hour: h.ActivityHour, Value: h.TotalIntensity})
	}
	for _, h := range slice.HourlyCalories {
		resp.HourlyCalories = append(resp.HourlyCalories, HourlyValueView{Hour: h.ActivityHour, Value: h.Calories})
	}
	for _, h := range slice.CombinedHourly {
		resp.CombinedHourly = append(resp.CombinedHourly, HourlyJoinedView{
			Hour:           h.Hour,
			Calories:       h.Calories,
			TotalIntensity: h.TotalIntensity,
		})
	}
	return resp
}
