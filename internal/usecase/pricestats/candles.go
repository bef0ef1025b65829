package pricestats

import (
	"time"

	"github.com/essentialstracker/backend/internal/domain"
)

// ToLineSeries emits one point per observation in ascending time order
// Nothing is deduplicated or smoothed
func ToLineSeries(observations []domain.Observation) []domain.LinePoint {
	sorted := sortedCopy(observations)

	points := make([]domain.LinePoint, 0, len(sorted))
	for _, obs := range sorted {
		points = append(points, domain.LinePoint{
			Time:  obs.Timestamp,
			Value: obs.Value,
		})
	}
	return points
}

// AggregateToCandles buckets observations into ISO weeks on the UTC calendar
// and reduces each bucket to one OHLC candle
func AggregateToCandles(observations []domain.Observation) []domain.Candle {
	return AggregateToCandlesIn(observations, time.UTC)
}

// AggregateToCandlesIn is AggregateToCandles on the calendar of loc
//
// Logic:
//  1. Sort all observations ascending
//  2. Group by ISO 8601 week (Thursday anchored)
//  3. Open = first value, Close = last value, High/Low = max/min of the bucket
//  4. PeriodStart = Monday 00:00 of the bucket's week
//
// Because the input is sorted before grouping, buckets are appended in ascending
// PeriodStart order and every bucket is itself sorted.
func AggregateToCandlesIn(observations []domain.Observation, loc *time.Location) []domain.Candle {
	sorted := sortedCopy(observations)

	candles := make([]domain.Candle, 0)
	var current weekKey

	for i, obs := range sorted {
		week := WeekOf(obs.Timestamp, loc)

		if i == 0 || week.key() != current {
			current = week.key()
			candles = append(candles, domain.Candle{
				PeriodStart: week.Start,
				Open:        obs.Value,
				High:        obs.Value,
				Low:         obs.Value,
				Close:       obs.Value,
			})
			continue
		}

		c := &candles[len(candles)-1]
		if obs.Value.GreaterThan(c.High) {
			c.High = obs.Value
		}
		if obs.Value.LessThan(c.Low) {
			c.Low = obs.Value
		}
		c.Close = obs.Value
	}

	return candles
}
