package region

import "github.com/upnepa/gridlog/core/model"

// WithinBlock reports whether t falls inside the block. A block whose start
// is after its end wraps past midnight: it matches t >= start or t < end.
func WithinBlock(b model.ScheduleBlock, t model.ClockTime) bool {
	if b.Start <= b.End {
		return b.Start <= t && t < b.End
	}
	return t >= b.Start || t < b.End
}

// ShouldBeOn reports whether the region's schedule template expects grid
// supply at time of day t. Blocks are OR'd; overlaps are tolerated. An
// empty template means the region is never expected on.
func ShouldBeOn(r model.RegionProfile, t model.ClockTime) bool {
	for _, b := range r.ScheduleTemplate {
		if WithinBlock(b, t) {
			return true
		}
	}
	return false
}
