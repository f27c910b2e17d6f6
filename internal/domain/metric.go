package domain

import (
	"fmt"

	"example.com/fitdash/internal/dataset"
)

// Metric names one of the four daily cohort metrics.
type Metric string

const (
	MetricSteps          Metric = "steps"
	MetricDistance       Metric = "distance"
	MetricCaloriesBurned Metric = "calories_burned"
	MetricSleepingHours  Metric = "sleeping_hours"
)

// ParseMetric validates a metric name from the API surface.
func ParseMetric(raw string) (Metric, error) {
	switch Metric(raw) {
	case MetricSteps, MetricDistance, MetricCaloriesBurned, MetricSleepingHours:
		return Metric(raw), nil
	}
	return "", fmt.Errorf("unknown metric %q", raw)
}

// value extracts the metric from a combined row. The second return is false
// when the value is null for that row; only sleeping hours can be.
func (m Metric) value(day dataset.CombinedDay) (float64, bool) {
	switch m {
	case MetricSteps:
		return float64(day.Steps), true
	case MetricDistance:
		return day.Distance, true
	case MetricCaloriesBurned:
		return float64(day.CaloriesBurned), true
	case MetricSleepingHours:
		if day.SleepingHours == nil {
			return 0, false
		}
		return *day.SleepingHours, true
	}
	return 0, false
}
