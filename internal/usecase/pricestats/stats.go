package pricestats

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/essentialstracker/backend/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// ComputeStats projects an essential's price history onto the standard look-back windows
//
// Logic:
//   - No observations: the whole result is absent (there is no current price)
//   - CurrentPrice is the chronologically latest observation
//   - For every window the reference is the EARLIEST observation at or after now-Δw,
//     not the one closest to the boundary and never an interpolation. The latest
//     observation is never its own reference: a lone sample has no baseline
//   - A window without a reference, or with a zero reference, reports an absent change
//   - AvgPrice30d is the mean of every observation at or after now-30d
//
// now is always supplied by the caller; the function never reads the clock.
func ComputeStats(observations []domain.Observation, now time.Time) domain.Optional[domain.WindowedStats] {
	if len(observations) == 0 {
		return domain.None[domain.WindowedStats]()
	}

	sorted := sortedCopy(observations)
	latest := sorted[len(sorted)-1]
	prior := sorted[:len(sorted)-1]

	changes := make(map[domain.Window]domain.Optional[decimal.Decimal], len(domain.Windows()))
	for _, w := range domain.Windows() {
		ref, ok := referenceFor(prior, w.Floor(now))
		if !ok {
			changes[w] = domain.None[decimal.Decimal]()
			continue
		}
		changes[w] = PercentChange(ref.Value, latest.Value)
	}

	return domain.Some(domain.WindowedStats{
		CurrentPrice: latest.Value,
		LatestAt:     latest.Timestamp,
		AsOf:         now,
		Changes:      changes,
		AvgPrice30d:  averageSince(sorted, domain.Window30d.Floor(now)),
	})
}

// PercentChange returns ((current - reference) / reference) * 100 rounded half away from zero
// to two decimals. A zero reference has no defined change and yields an absent result.
func PercentChange(reference, current decimal.Decimal) domain.Optional[decimal.Decimal] {
	if reference.IsZero() {
		return domain.None[decimal.Decimal]()
	}
	change := current.Sub(reference).Mul(hundred).DivRound(reference, domain.PricePrecision)
	return domain.Some(change)
}

// referenceFor returns the first observation with Timestamp >= floor
// sorted must be in ascending order
func referenceFor(sorted []domain.Observation, floor time.Time) (domain.Observation, bool) {
	for _, obs := range sorted {
		if !obs.Timestamp.Before(floor) {
			return obs, true
		}
	}
	return domain.Observation{}, false
}

func averageSince(sorted []domain.Observation, floor time.Time) domain.Optional[decimal.Decimal] {
	sum := decimal.Zero
	count := int64(0)

	for _, obs := range sorted {
		if obs.Timestamp.Before(floor) {
			continue
		}
		sum = sum.Add(obs.Value)
		count++
	}

	if count == 0 {
		return domain.None[decimal.Decimal]()
	}
	return domain.Some(sum.DivRound(decimal.NewFromInt(count), domain.PricePrecision))
}
