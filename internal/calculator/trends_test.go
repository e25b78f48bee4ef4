package calculator

import (
	"testing"
	"time"

	"github.com/devpulse/devpulse/internal/types"
)

func mv(month time.Month, v float64) MonthValue {
	return MonthValue{Month: types.Month{Year: 2025, Month: month}, Value: v}
}

func TestTrendDeltas(t *testing.T) {
	points := Trend([]MonthValue{
		mv(time.January, 100),
		mv(time.February, 150),
		mv(time.March, 120),
	})
	if len(points) != 3 {
		t.Fatalf("len = %d, want 3", len(points))
	}

	if points[0].Delta != nil || points[0].PctChange != nil {
		t.Error("first month must have no delta or pct change")
	}
	if *points[1].Delta != 50 || *points[1].PctChange != 50 {
		t.Errorf("february = (%v, %v), want (50, 50)", *points[1].Delta, *points[1].PctChange)
	}
	if *points[2].Delta != -30 || *points[2].PctChange != -20 {
		t.Errorf("march = (%v, %v), want (-30, -20)", *points[2].Delta, *points[2].PctChange)
	}
}

func TestTrendZeroPreviousMonth(t *testing.T) {
	points := Trend([]MonthValue{
		mv(time.January, 0),
		mv(time.February, 80),
	})
	p := points[1]
	if p.Delta == nil || *p.Delta != 80 {
		t.Errorf("delta = %v, want 80", p.Delta)
	}
	if p.PctChange != nil {
		t.Errorf("pct change against a zero month must be undefined, got %v", *p.PctChange)
	}
}

func TestTrendEmpty(t *testing.T) {
	if points := Trend(nil); len(points) != 0 {
		t.Errorf("Trend(nil) = %v, want empty", points)
	}
}
