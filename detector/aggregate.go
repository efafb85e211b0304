package detector

import (
	"sort"
	"time"
)

const dateLayout = "2006-01-02"

// AggregateDaily collapses minute bars into UTC calendar-day buckets.
// Bars must be sorted ascending by time; the orchestrator guarantees this.
// Classification per bar: close above open counts the bar's volume as
// buying, close below open as selling, an unchanged close contributes to
// total volume only. Output is sorted ascending by date.
func AggregateDaily(bars []MinuteBar) []DailyAggregate {
	if len(bars) == 0 {
		return nil
	}

	byDate := make(map[string]*DailyAggregate)
	dates := make([]string, 0, 8)

	for _, b := range bars {
		date := time.Unix(b.Time, 0).UTC().Format(dateLayout)
		day, ok := byDate[date]
		if !ok {
			day = &DailyAggregate{
				Date: date,
				Open: b.Open,
				High: b.High,
				Low:  b.Low,
			}
			byDate[date] = day
			dates = append(dates, date)
		}

		day.TotalVolume += b.Volume
		switch {
		case b.Close > b.Open:
			day.BuyVolume += b.Volume
		case b.Close < b.Open:
			day.SellVolume += b.Volume
		}

		day.Close = b.Close
		if b.High > day.High {
			day.High = b.High
		}
		if b.Low < day.Low {
			day.Low = b.Low
		}
	}

	// Lexicographic order is chronological for YYYY-MM-DD.
	sort.Strings(dates)

	daily := make([]DailyAggregate, 0, len(dates))
	for _, date := range dates {
		day := byDate[date]
		day.Delta = day.BuyVolume - day.SellVolume
		daily = append(daily, *day)
	}
	return daily
}

// BuildWeeks groups daily aggregates into Monday-start week buckets.
func BuildWeeks(daily []DailyAggregate) []WeeklyAggregate {
	deltas := make([]float64, len(daily))
	for i, d := range daily {
		deltas[i] = d.Delta
	}
	return buildWeeksWithDeltas(daily, deltas)
}

// buildWeeksWithDeltas is the shared implementation; the window scorer
// passes its capped delta series instead of the raw daily deltas.
func buildWeeksWithDeltas(daily []DailyAggregate, deltas []float64) []WeeklyAggregate {
	if len(daily) == 0 {
		return nil
	}

	byWeek := make(map[string]*WeeklyAggregate)
	keys := make([]string, 0, 8)

	for i, d := range daily {
		ws := weekStartOf(d.Date)
		week, ok := byWeek[ws]
		if !ok {
			week = &WeeklyAggregate{WeekStart: ws}
			byWeek[ws] = week
			keys = append(keys, ws)
		}
		week.Delta += deltas[i]
		week.TotalVolume += d.TotalVolume
		week.NumDays++
	}

	sort.Strings(keys)

	weeks := make([]WeeklyAggregate, 0, len(keys))
	for _, key := range keys {
		week := byWeek[key]
		if week.TotalVolume > 0 {
			week.DeltaPct = week.Delta / week.TotalVolume * 100
		}
		weeks = append(weeks, *week)
	}
	return weeks
}

// weekStartOf returns the Monday of the week containing the given date.
// The calculation anchors at UTC noon to stay clear of day-boundary skew.
func weekStartOf(date string) string {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return date
	}
	t = t.Add(12 * time.Hour)
	offset := (int(t.Weekday()) + 6) % 7 // Monday == 0
	return t.AddDate(0, 0, -offset).Format(dateLayout)
}

// countWeeks returns the number of distinct Monday-start weeks spanned.
func countWeeks(daily []DailyAggregate) int {
	seen := make(map[string]struct{}, 8)
	for _, d := range daily {
		seen[weekStartOf(d.Date)] = struct{}{}
	}
	return len(seen)
}

// priceChangePct is the percent change from the first close to the last.
func priceChangePct(daily []DailyAggregate) float64 {
	if len(daily) == 0 || daily[0].Close == 0 {
		return 0
	}
	first := daily[0].Close
	last := daily[len(daily)-1].Close
	return (last - first) / first * 100
}

// netDeltaPct is the raw net delta as a percent of total volume.
func netDeltaPct(daily []DailyAggregate) float64 {
	var delta, volume float64
	for _, d := range daily {
		delta += d.Delta
		volume += d.TotalVolume
	}
	if volume == 0 {
		return 0
	}
	return delta / volume * 100
}
