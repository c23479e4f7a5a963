package features

import (
	"math"
	"time"

	"github.com/polymktlab/poly-data/internal/model"
)

// Trailing window lengths. Volume and volatility run over all three,
// momentum over the first two.
const (
	windowHour = time.Hour
	windowDay  = 24 * time.Hour
	windowWeek = 7 * 24 * time.Hour
)

// returnPoint is one period-over-period return, stamped with the time of
// the later tick.
type returnPoint struct {
	ts  time.Time
	ret float64
}

// seriesReturns computes period-over-period returns over the whole series.
// The first tick has no predecessor and yields no return; a zero previous
// price yields no return either (the ratio is undefined).
func seriesReturns(ticks []model.PriceTick) []returnPoint {
	if len(ticks) < 2 {
		return nil
	}
	out := make([]returnPoint, 0, len(ticks)-1)
	for i := 1; i < len(ticks); i++ {
		prev := ticks[i-1].Price
		if prev == 0 {
			continue
		}
		out = append(out, returnPoint{
			ts:  ticks[i].TS,
			ret: (ticks[i].Price - prev) / prev,
		})
	}
	return out
}

// popStd is the population standard deviation (denominator = count).
func popStd(vals []float64) float64 {
	n := float64(len(vals))
	if n == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range vals {
		mean += v
	}
	mean /= n
	variance := 0.0
	for _, v := range vals {
		d := v - mean
		variance += d * d
	}
	return math.Sqrt(variance / n)
}

// inWindow reports whether ts falls inside the trailing window ending at
// cutoff. The upper bound is exclusive.
func inWindow(ts, cutoff time.Time, dur time.Duration) bool {
	return !ts.Before(cutoff.Add(-dur)) && ts.Before(cutoff)
}

// windowVolume sums tick volume inside the window. The series is assumed
// already restricted to ts < cutoff.
func windowVolume(ticks []model.PriceTick, cutoff time.Time, dur time.Duration) float64 {
	sum := 0.0
	for _, tk := range ticks {
		if inWindow(tk.TS, cutoff, dur) {
			sum += tk.Volume
		}
	}
	return sum
}

// windowVolatility is the population std-dev of the in-window returns.
// Returns are computed over the full restricted series first, then
// filtered, so a window's first return still sees its predecessor tick.
// Fewer than two in-window returns give 0.0.
func windowVolatility(returns []returnPoint, cutoff time.Time, dur time.Duration) float64 {
	var vals []float64
	for _, r := range returns {
		if inWindow(r.ts, cutoff, dur) {
			vals = append(vals, r.ret)
		}
	}
	if len(vals) < 2 {
		return 0
	}
	return popStd(vals)
}

// windowMomentum is last-minus-first price among in-window ticks, 0.0 with
// fewer than two points.
func windowMomentum(ticks []model.PriceTick, cutoff time.Time, dur time.Duration) float64 {
	var first, last *model.PriceTick
	count := 0
	for i := range ticks {
		if !inWindow(ticks[i].TS, cutoff, dur) {
			continue
		}
		if first == nil {
			first = &ticks[i]
		}
		last = &ticks[i]
		count++
	}
	if count < 2 {
		return 0
	}
	return last.Price - first.Price
}
