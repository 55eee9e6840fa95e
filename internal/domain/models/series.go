package models

import "time"

// AggregationMode selects the calendar bucketing applied to a price series
// before returns are computed.
type AggregationMode string

const (
	AggregateNone    AggregationMode = "none"
	AggregateWeekly  AggregationMode = "weekly"
	AggregateMonthly AggregationMode = "monthly"
)

// ParseAggregationMode normalizes a config/user supplied mode string.
// Empty input means no aggregation.
func ParseAggregationMode(s string) (AggregationMode, bool) {
	switch AggregationMode(s) {
	case "", AggregateNone:
		return AggregateNone, true
	case AggregateWeekly, AggregateMonthly:
		return AggregationMode(s), true
	}
	return AggregateNone, false
}

// PricePoint is one dated price observation.
type PricePoint struct {
	Date  time.Time `json:"Date"`
	Price float64   `json:"Price"`
}

// PriceSeries is an ordered sequence of price observations, ascending by
// date. Built once by the loader and never mutated afterwards.
type PriceSeries struct {
	Points []PricePoint
}

// Len returns the number of observations.
func (s *PriceSeries) Len() int { return len(s.Points) }

// PriceRecord is the wire shape of one price row as served to the
// dashboard, with the date in ISO form.
type PriceRecord struct {
	Date  string  `json:"Date"`
	Price float64 `json:"Price"`
}

// Records converts the series to its wire representation.
func (s *PriceSeries) Records() []PriceRecord {
	out := make([]PriceRecord, len(s.Points))
	for i, p := range s.Points {
		out[i] = PriceRecord{Date: p.Date.Format("2006-01-02"), Price: p.Price}
	}
	return out
}

// ReturnPoint is one dated log-return. Date is the date of the later of the
// two prices the return was computed from.
type ReturnPoint struct {
	Date      time.Time
	LogReturn float64
}

// ReturnSeries is an ordered sequence of log-returns, one element shorter
// than the (post-aggregation) price series it was derived from.
type ReturnSeries struct {
	Points []ReturnPoint
}

// Len returns the number of returns.
func (s *ReturnSeries) Len() int { return len(s.Points) }

// Values returns the log-returns as a flat slice for the sampler.
func (s *ReturnSeries) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.LogReturn
	}
	return out
}

// Dates returns the date index aligned with Values.
func (s *ReturnSeries) Dates() []time.Time {
	out := make([]time.Time, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Date
	}
	return out
}
