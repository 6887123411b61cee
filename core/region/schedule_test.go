package region

import (
	"testing"

	"github.com/upnepa/gridlog/core/model"
)

func clock(t *testing.T, s string) model.ClockTime {
	t.Helper()
	c, err := model.ParseClock(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return c
}

func TestWithinBlockSameDay(t *testing.T) {
	b := model.ScheduleBlock{Start: clock(t, "06:00"), End: clock(t, "10:00")}
	cases := []struct {
		at   string
		want bool
	}{
		{"06:00", true},
		{"09:59", true},
		{"10:00", false},
		{"05:59", false},
	}
	for _, c := range cases {
		if got := WithinBlock(b, clock(t, c.at)); got != c.want {
			t.Errorf("WithinBlock(06:00-10:00, %s) = %v, want %v", c.at, got, c.want)
		}
	}
}

func TestWithinBlockWrapsMidnight(t *testing.T) {
	b := model.ScheduleBlock{Start: clock(t, "22:00"), End: clock(t, "05:00")}
	cases := []struct {
		at   string
		want bool
	}{
		{"23:00", true},
		{"00:30", true},
		{"04:59", true},
		{"05:00", false},
		{"21:59", false},
	}
	for _, c := range cases {
		if got := WithinBlock(b, clock(t, c.at)); got != c.want {
			t.Errorf("WithinBlock(22:00-05:00, %s) = %v, want %v", c.at, got, c.want)
		}
	}
}

func TestShouldBeOn(t *testing.T) {
	reg := model.RegionProfile{
		ID: "ikeja",
		ScheduleTemplate: []model.ScheduleBlock{
			{Start: clock(t, "06:00"), End: clock(t, "12:00")},
			{Start: clock(t, "22:00"), End: clock(t, "02:00")},
		},
	}
	if !ShouldBeOn(reg, clock(t, "07:00")) {
		t.Error("expected on inside first block")
	}
	if !ShouldBeOn(reg, clock(t, "23:30")) {
		t.Error("expected on inside wrapping block")
	}
	if ShouldBeOn(reg, clock(t, "15:00")) {
		t.Error("expected off between blocks")
	}
}

func TestShouldBeOnEmptyTemplate(t *testing.T) {
	reg := model.RegionProfile{ID: "yola"}
	if ShouldBeOn(reg, clock(t, "12:00")) {
		t.Error("empty template must never be on")
	}
}
