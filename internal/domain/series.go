package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Window is a fixed look-back duration used for percentage changes
type Window string

const (
	Window1h  Window = "1h"
	Window24h Window = "24h"
	Window7d  Window = "7d"
	Window30d Window = "30d"
	Window1y  Window = "1y"
)

const day = 24 * time.Hour

var windowDurations = map[Window]time.Duration{
	Window1h:  time.Hour,
	Window24h: day,
	Window7d:  7 * day,
	Window30d: 30 * day,
	Window1y:  365 * day,
}

// Windows lists every supported look-back window, shortest first
func Windows() []Window {
	return []Window{Window1h, Window24h, Window7d, Window30d, Window1y}
}

// Duration returns the look-back length, or zero for an unknown window
func (w Window) Duration() time.Duration {
	return windowDurations[w]
}

// Floor returns the earliest instant that still belongs to the window ending at now
func (w Window) Floor(now time.Time) time.Time {
	return now.Add(-w.Duration())
}

// WindowedStats is a derived, never persisted snapshot of one essential's price movement
type WindowedStats struct {
	CurrentPrice decimal.Decimal                      `json:"current_price"`
	LatestAt     time.Time                            `json:"latest_at"` // Timestamp of the observation behind CurrentPrice
	AsOf         time.Time                            `json:"as_of"`     // The "now" the snapshot was computed for
	Changes      map[Window]Optional[decimal.Decimal] `json:"changes"`   // Percent change per window, absent without a reference
	AvgPrice30d  Optional[decimal.Decimal]            `json:"avg_price_30d"`
}

// Change returns the percentage change for a window
func (s WindowedStats) Change(w Window) Optional[decimal.Decimal] {
	return s.Changes[w]
}

// Candle is the OHLC summary of one ISO week
type Candle struct {
	PeriodStart time.Time       `json:"period_start"` // Monday 00:00 of the ISO week
	Open        decimal.Decimal `json:"open"`
	High        decimal.Decimal `json:"high"`
	Low         decimal.Decimal `json:"low"`
	Close       decimal.Decimal `json:"close"`
}

// LinePoint is one unaggregated point of a line chart
type LinePoint struct {
	Time  time.Time       `json:"time"`
	Value decimal.Decimal `json:"value"`
}

// ChartType selects the series projection of a price history
type ChartType string

const (
	ChartTypeLine        ChartType = "line"
	ChartTypeCandlestick ChartType = "candlestick"
)

// Chart is the renderer-facing series for one essential
// Exactly one of Line or Candles is populated depending on Type
type Chart struct {
	Type    ChartType   `json:"type"`
	Line    []LinePoint `json:"line,omitempty"`
	Candles []Candle    `json:"candles,omitempty"`
}
