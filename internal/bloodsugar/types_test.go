package bloodsugar

import (
	"testing"
	"time"
)

func TestClassifyRange(t *testing.T) {
	tests := []struct {
		mgdl     int
		expected RangeStatus
	}{
		{40, RangeUrgentLow},
		{54, RangeUrgentLow},
		{55, RangeLow},
		{69, RangeLow},
		{70, RangeNormal},
		{100, RangeNormal},
		{180, RangeNormal},
		{181, RangeHigh},
		{250, RangeHigh},
		{251, RangeVeryHigh},
		{400, RangeVeryHigh},
	}

	for _, tt := range tests {
		result := ClassifyRange(tt.mgdl)
		if result != tt.expected {
			t.Errorf("ClassifyRange(%d) = %s, want %s", tt.mgdl, result, tt.expected)
		}
	}
}

func TestIsStaleAt(t *testing.T) {
	now := time.Date(2026, 1, 22, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		ts       time.Time
		expected bool
	}{
		{"fresh reading (1 minute ago)", now.Add(-1 * time.Minute), false},
		{"fresh reading (9 minutes ago)", now.Add(-9 * time.Minute), false},
		{"stale reading (10 minutes ago)", now.Add(-10 * time.Minute), true},
		{"stale reading (15 minutes ago)", now.Add(-15 * time.Minute), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsStaleAt(tt.ts, now)
			if result != tt.expected {
				t.Errorf("IsStaleAt() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestIsSensorError(t *testing.T) {
	tests := []struct {
		mgdl     int
		expected bool
	}{
		{5, true},
		{12, true},
		{13, false},
		{100, false},
	}

	for _, tt := range tests {
		if result := IsSensorError(tt.mgdl); result != tt.expected {
			t.Errorf("IsSensorError(%d) = %v, want %v", tt.mgdl, result, tt.expected)
		}
	}
}
