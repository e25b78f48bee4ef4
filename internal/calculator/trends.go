package calculator

import "github.com/devpulse/devpulse/internal/types"

// MonthValue is one point of a per-month series.
type MonthValue struct {
	Month types.Month `json:"month"`
	Value float64     `json:"value"`
}

// TrendPoint extends a series point with its month-over-month movement.
// Delta is nil for the first month. PctChange is nil for the first month
// and whenever the previous value is zero, where a percentage is undefined.
type TrendPoint struct {
	Month     types.Month `json:"month"`
	Value     float64     `json:"value"`
	Delta     *float64    `json:"delta,omitempty"`
	PctChange *float64    `json:"pct_change,omitempty"`
}

// Trend annotates a per-month series with deltas and percentage changes.
// The input is assumed ordered oldest first.
func Trend(series []MonthValue) []TrendPoint {
	out := make([]TrendPoint, 0, len(series))
	for i, mv := range series {
		p := TrendPoint{Month: mv.Month, Value: mv.Value}
		if i > 0 {
			prev := series[i-1].Value
			delta := mv.Value - prev
			p.Delta = &delta
			if prev != 0 {
				pct := delta / prev * 100
				p.PctChange = &pct
			}
		}
		out = append(out, p)
	}
	return out
}
