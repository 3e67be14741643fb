package utils

import (
	"math"
	"testing"
)

func TestMeanAndStdDev(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	mean := Mean(values)
	if mean != 5 {
		t.Errorf("Expected mean 5, got %f", mean)
	}

	std := StdDev(values)
	if std != 2 {
		t.Errorf("Expected stddev 2, got %f", std)
	}
}

func TestMeanEmpty(t *testing.T) {
	if Mean(nil) != 0 {
		t.Error("Expected mean of empty slice to be 0")
	}
	if StdDev(nil) != 0 {
		t.Error("Expected stddev of empty slice to be 0")
	}
}

func TestMinMaxFloat64s(t *testing.T) {
	values := []float64{419000, 497525, 1240000.5}

	if min := MinFloat64s(values); min != 419000 {
		t.Errorf("Expected min 419000, got %f", min)
	}
	if max := MaxFloat64s(values); max != 1240000.5 {
		t.Errorf("Expected max 1240000.5, got %f", max)
	}
	if MinFloat64s(nil) != 0 || MaxFloat64s(nil) != 0 {
		t.Error("Expected min/max of empty slice to be 0")
	}
}

func TestSum(t *testing.T) {
	got := Sum([]float64{1.5, 2.5, 3})
	if math.Abs(got-7) > 1e-12 {
		t.Errorf("Expected sum 7, got %f", got)
	}
}
