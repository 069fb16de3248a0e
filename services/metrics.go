package services

import (
	"math"
	"sort"

	"song-scraper/models"
)

const fourteenDays = 14

// ComputeMetrics derives the numeric feature record for one song from its
// cumulative stream series. Undefined values are NaN; an empty series yields
// an all-NaN record.
func ComputeMetrics(series models.StreamSeries) models.Metrics {
	if len(series) == 0 {
		return models.UndefinedMetrics()
	}
	daily := series.Daily()

	d13 := day1To3Average(daily)
	d79 := nanMean(window(daily, 6, 9))

	percent := math.NaN()
	if !math.IsNaN(d79) && d79 >= 1 {
		percent = (d13 - d79) / d79 * 100
	}

	thisWeek := nanMean(window(daily, 0, 7))
	lastWeek := nanMean(window(daily, 6, 13))
	weekToWeek := 0.0
	if lastWeek != 0 {
		weekToWeek = (thisWeek - lastWeek) / lastWeek * 100
	}

	last14 := window(daily, 0, fourteenDays)

	return models.Metrics{
		TodayStreams:              round2(at(daily, 0)),
		YesterdayStreams:          round2(at(daily, 1)),
		Day1To3Average:            round2(d13),
		Day7To9Average:            round2(d79),
		PercentIncrease:           round2(percent),
		ThisWeek7DayAverage:       round2(thisWeek),
		LastWeek7DayAverage:       round2(lastWeek),
		WeekToWeekPercentIncrease: round2(weekToWeek),
		FourteenDayMax:            round2(nanMax(last14)),
		FourteenDayMedian:         round2(nanMedian(last14)),
		TotalStreams:              maxCumulative(series),
	}
}

// ExceedsOneDayShare reports whether the biggest single day in the last 14
// positive-stream days is more than maxPercent of the song's 14-day total.
// A window with no positive days never trips.
func ExceedsOneDayShare(series models.StreamSeries, maxPercent float64) bool {
	daily := window(series.Daily(), 0, fourteenDays)
	peak := math.NaN()
	for _, v := range daily {
		if v > 0 && (math.IsNaN(peak) || v > peak) {
			peak = v
		}
	}
	if math.IsNaN(peak) {
		return false
	}
	return peak > maxCumulative(series)*maxPercent/100
}

// day1To3Average is the truncated mean of the first three positive daily
// values among positions 1..3. Sparse data averages to 0.
func day1To3Average(daily []float64) float64 {
	if len(daily) < 4 {
		return 0
	}
	var sum float64
	var n int
	for _, v := range daily[1:4] {
		if v > 0 {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return math.Trunc(sum / float64(n))
}

func maxCumulative(series models.StreamSeries) float64 {
	best := math.NaN()
	for i, p := range series {
		if i >= fourteenDays {
			break
		}
		if math.IsNaN(p.Total) {
			continue
		}
		if math.IsNaN(best) || p.Total > best {
			best = p.Total
		}
	}
	return best
}

// window returns values[from:to] clipped to the slice bounds.
func window(values []float64, from, to int) []float64 {
	if from >= len(values) {
		return nil
	}
	if to > len(values) {
		to = len(values)
	}
	return values[from:to]
}

func at(values []float64, i int) float64 {
	if i < len(values) {
		return values[i]
	}
	return math.NaN()
}

func defined(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

func nanMean(values []float64) float64 {
	vals := defined(values)
	if len(vals) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func nanMax(values []float64) float64 {
	vals := defined(values)
	if len(vals) == 0 {
		return math.NaN()
	}
	best := vals[0]
	for _, v := range vals[1:] {
		if v > best {
			best = v
		}
	}
	return best
}

func nanMedian(values []float64) float64 {
	vals := defined(values)
	if len(vals) == 0 {
		return math.NaN()
	}
	sort.Float64s(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 1 {
		return vals[mid]
	}
	return (vals[mid-1] + vals[mid]) / 2
}

// round2 rounds to two decimals; NaN stays NaN.
func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// orZero maps NaN to 0 for threshold comparisons.
func orZero(f float64) float64 {
	if math.IsNaN(f) {
		return 0
	}
	return f
}
