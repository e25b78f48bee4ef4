// Package calculator turns cached records into report metrics: delivery
// durations, spend rollups, adoption figures and month-over-month trends.
// Everything here is pure computation over in-memory slices; fetching and
// caching happen upstream.
package calculator

import "sort"

// Median returns the middle value of the series; for an even count it is
// the mean of the two middle values. An empty series yields 0.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// Mean returns the arithmetic mean, 0 for an empty series.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// DurationStats summarizes a set of elapsed-time measurements in hours.
// Excluded records are counted rather than silently dropped so data quality
// stays visible in the report.
type DurationStats struct {
	Completed   int     `json:"completed"`
	InProgress  int     `json:"in_progress"`
	Negative    int     `json:"negative_excluded"`
	MedianHours float64 `json:"median_hours"`
	MeanHours   float64 `json:"mean_hours"`
}

func (d DurationStats) MedianDays() float64 {
	return d.MedianHours / 24
}

func (d DurationStats) MeanDays() float64 {
	return d.MeanHours / 24
}

func summarize(hours []float64, inProgress, negative int) DurationStats {
	return DurationStats{
		Completed:   len(hours),
		InProgress:  inProgress,
		Negative:    negative,
		MedianHours: Median(hours),
		MeanHours:   Mean(hours),
	}
}
