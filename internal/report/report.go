// Package report shapes calculator output into the structures the renderers
// consume. Assembly only; no I/O and no further computation beyond trend
// annotation.
package report

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/devpulse/devpulse/internal/calculator"
	"github.com/devpulse/devpulse/internal/types"
)

var decimalHundred = decimal.NewFromInt(100)

// Header carries the fields every report shares.
type Header struct {
	Title       string        `json:"title"`
	GeneratedAt types.UTCTime `json:"generated_at"`
	Months      []types.Month `json:"months"`
}

func newHeader(title string, months []types.Month) Header {
	return Header{
		Title:       title,
		GeneratedAt: types.NewUTCTime(time.Now()),
		Months:      months,
	}
}

// Delivery is the presentation-ready delivery report: headline durations,
// review activity, the merged-PR trend and the data-quality summary.
type Delivery struct {
	Header
	Metrics     calculator.DeliveryMetrics `json:"metrics"`
	MergedTrend []calculator.TrendPoint    `json:"merged_trend"`
	DataQuality []string                   `json:"data_quality,omitempty"`
}

func AssembleDelivery(months []types.Month, m calculator.DeliveryMetrics) Delivery {
	return Delivery{
		Header:      newHeader("Delivery Metrics", months),
		Metrics:     m,
		MergedTrend: calculator.Trend(m.MergedByMonth),
		DataQuality: m.Quality.Lines(),
	}
}

// Billing is the presentation-ready spend report with the monthly dollar
// trend annotated for rendering.
type Billing struct {
	Header
	Metrics    calculator.BillingMetrics `json:"metrics"`
	SpendTrend []calculator.TrendPoint   `json:"spend_trend"`
}

func AssembleBilling(months []types.Month, m calculator.BillingMetrics) Billing {
	series := make([]calculator.MonthValue, 0, len(m.Months))
	for _, ms := range m.Months {
		dollars, _ := ms.CostCents.Div(decimalHundred).Float64()
		series = append(series, calculator.MonthValue{Month: ms.Month, Value: dollars})
	}
	return Billing{
		Header:     newHeader("AI Spend", months),
		Metrics:    m,
		SpendTrend: calculator.Trend(series),
	}
}

// Adoption is the presentation-ready adoption report.
type Adoption struct {
	Header
	Metrics     calculator.AdoptionMetrics `json:"metrics"`
	ActiveTrend []calculator.TrendPoint    `json:"active_trend"`
}

func AssembleAdoption(months []types.Month, m calculator.AdoptionMetrics) Adoption {
	return Adoption{
		Header:      newHeader("AI Adoption", months),
		Metrics:     m,
		ActiveTrend: calculator.Trend(m.ActiveByMonth),
	}
}
