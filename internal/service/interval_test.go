package service

import (
	"errors"
	"testing"
)

func TestValidateTimeFormat(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"07:00", true},
		{"00:00", true},
		{"23:59", true},
		{"24:00", false},
		{"7:00", false},
		{"07:60", false},
		{"07:00:00", false},
		{"", false},
		{"ab:cd", false},
	}

	for _, tt := range tests {
		err := ValidateTimeFormat(tt.in)
		if tt.valid && err != nil {
			t.Errorf("%q 应合法，实际: %v", tt.in, err)
		}
		if !tt.valid && !errors.Is(err, ErrInvalidTimeFormat) {
			t.Errorf("%q 期望 ErrInvalidTimeFormat，实际: %v", tt.in, err)
		}
	}
}

func TestValidateTimeOrder(t *testing.T) {
	if err := ValidateTimeOrder("07:00", "07:45"); err != nil {
		t.Errorf("07:00-07:45 应合法: %v", err)
	}
	if err := ValidateTimeOrder("08:00", "08:00"); !errors.Is(err, ErrInvalidTimeOrder) {
		t.Errorf("相同时刻期望 ErrInvalidTimeOrder，实际: %v", err)
	}
	if err := ValidateTimeOrder("09:00", "08:00"); !errors.Is(err, ErrInvalidTimeOrder) {
		t.Errorf("倒序期望 ErrInvalidTimeOrder，实际: %v", err)
	}
}

func TestValidateInterval_FormatCheckedFirst(t *testing.T) {
	if err := ValidateInterval("9:00", "08:00"); !errors.Is(err, ErrInvalidTimeFormat) {
		t.Errorf("期望 ErrInvalidTimeFormat，实际: %v", err)
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name         string
		aStart, aEnd string
		bStart, bEnd string
		want         bool
	}{
		{"端点相接不冲突", "08:00", "09:00", "09:00", "10:00", false},
		{"部分重叠", "08:00", "09:00", "08:30", "09:30", true},
		{"包含", "07:00", "10:00", "08:00", "09:00", true},
		{"完全相同", "08:00", "09:00", "08:00", "09:00", true},
		{"相离", "07:00", "07:45", "08:00", "08:45", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ab := Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd)
			ba := Overlaps(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd)
			if ab != tt.want {
				t.Errorf("期望 %v，实际 %v", tt.want, ab)
			}
			if ab != ba {
				t.Errorf("重叠判断应对称: A→B=%v, B→A=%v", ab, ba)
			}
		})
	}
}
