package detector

import (
	"testing"
	"time"
)

func barAt(t time.Time, open, close, volume float64) MinuteBar {
	high := open
	if close > high {
		high = close
	}
	low := open
	if close < low {
		low = close
	}
	return MinuteBar{Time: t.Unix(), Open: open, High: high, Low: low, Close: close, Volume: volume}
}

func TestAggregateDailyClassification(t *testing.T) {
	day1 := time.Date(2024, 3, 4, 13, 30, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 5, 13, 30, 0, 0, time.UTC)

	bars := []MinuteBar{
		barAt(day1, 100, 101, 500),                // buy
		barAt(day1.Add(time.Minute), 101, 100, 300),   // sell
		barAt(day1.Add(2*time.Minute), 100, 100, 200), // unchanged: total only
		barAt(day2, 100, 102, 1000),                   // buy
	}

	daily := AggregateDaily(bars)
	if len(daily) != 2 {
		t.Fatalf("expected 2 days, got %d", len(daily))
	}

	d1 := daily[0]
	if d1.Date != "2024-03-04" {
		t.Errorf("expected date 2024-03-04, got %s", d1.Date)
	}
	if d1.BuyVolume != 500 || d1.SellVolume != 300 {
		t.Errorf("expected buy=500 sell=300, got buy=%v sell=%v", d1.BuyVolume, d1.SellVolume)
	}
	if d1.TotalVolume != 1000 {
		t.Errorf("expected total=1000, got %v", d1.TotalVolume)
	}
	if d1.Delta != 200 {
		t.Errorf("expected delta=200, got %v", d1.Delta)
	}
	if d1.Open != 100 || d1.Close != 100 {
		t.Errorf("expected open=100 close=100, got open=%v close=%v", d1.Open, d1.Close)
	}
	if d1.High != 101 || d1.Low != 100 {
		t.Errorf("expected high=101 low=100, got high=%v low=%v", d1.High, d1.Low)
	}
}

func TestAggregateDailyVolumeConservation(t *testing.T) {
	base := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	var bars []MinuteBar
	var barVolume float64
	for i := 0; i < 300; i++ {
		open := 100 + float64(i%7)*0.1
		close := 100 + float64((i+3)%5)*0.1
		volume := float64(100 + i%13)
		bars = append(bars, barAt(base.Add(time.Duration(i)*time.Minute), open, close, volume))
		barVolume += volume
	}

	daily := AggregateDaily(bars)
	var dailyVolume float64
	for _, d := range daily {
		dailyVolume += d.TotalVolume
		if d.Delta != d.BuyVolume-d.SellVolume {
			t.Errorf("day %s: delta %v != buy-sell %v", d.Date, d.Delta, d.BuyVolume-d.SellVolume)
		}
	}
	if dailyVolume != barVolume {
		t.Errorf("volume not conserved: daily sum %v, bar sum %v", dailyVolume, barVolume)
	}
}

func TestAggregateDailySortedAscending(t *testing.T) {
	base := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	var bars []MinuteBar
	for d := 0; d < 5; d++ {
		bars = append(bars, barAt(base.AddDate(0, 0, d), 100, 101, 100))
	}
	daily := AggregateDaily(bars)
	for i := 1; i < len(daily); i++ {
		if daily[i].Date <= daily[i-1].Date {
			t.Fatalf("daily not sorted: %s before %s", daily[i-1].Date, daily[i].Date)
		}
	}
}

func TestWeekStartOf(t *testing.T) {
	tests := []struct {
		date string
		want string
	}{
		{"2024-01-01", "2024-01-01"}, // Monday maps to itself
		{"2024-01-03", "2024-01-01"}, // Wednesday
		{"2024-01-07", "2024-01-01"}, // Sunday stays in the Monday-start week
		{"2024-01-08", "2024-01-08"}, // next Monday
	}
	for _, tt := range tests {
		if got := weekStartOf(tt.date); got != tt.want {
			t.Errorf("weekStartOf(%s) = %s, want %s", tt.date, got, tt.want)
		}
	}
}

func TestBuildWeeks(t *testing.T) {
	daily := []DailyAggregate{
		{Date: "2024-01-04", Delta: 100, TotalVolume: 1000},
		{Date: "2024-01-05", Delta: -50, TotalVolume: 1000},
		{Date: "2024-01-08", Delta: 200, TotalVolume: 2000},
		{Date: "2024-01-09", Delta: 100, TotalVolume: 2000},
	}

	weeks := BuildWeeks(daily)
	if len(weeks) != 2 {
		t.Fatalf("expected 2 weeks, got %d", len(weeks))
	}

	w1 := weeks[0]
	if w1.WeekStart != "2024-01-01" || w1.Delta != 50 || w1.TotalVolume != 2000 || w1.NumDays != 2 {
		t.Errorf("unexpected first week: %+v", w1)
	}
	if w1.DeltaPct != 2.5 {
		t.Errorf("expected deltaPct 2.5, got %v", w1.DeltaPct)
	}

	w2 := weeks[1]
	if w2.WeekStart != "2024-01-08" || w2.Delta != 300 || w2.NumDays != 2 {
		t.Errorf("unexpected second week: %+v", w2)
	}
}

func TestBuildWeeksZeroVolume(t *testing.T) {
	daily := []DailyAggregate{{Date: "2024-01-02", Delta: 10, TotalVolume: 0}}
	weeks := BuildWeeks(daily)
	if len(weeks) != 1 || weeks[0].DeltaPct != 0 {
		t.Fatalf("expected zero-volume week with deltaPct 0, got %+v", weeks)
	}
}
