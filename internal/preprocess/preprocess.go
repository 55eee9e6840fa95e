package preprocess

import (
	"math"
	"time"

	"BrentShift/internal/domain/models"
	"BrentShift/pkg/util"
)

// Aggregate buckets a price series by calendar week or month and keeps the
// last observation of each bucket, so returns computed downstream reflect
// period-end behavior. The input is never mutated; mode none returns a
// shallow copy. Duplicate dates collapse into their bucket naturally.
func Aggregate(series *models.PriceSeries, mode models.AggregationMode) *models.PriceSeries {
	if mode == models.AggregateNone {
		out := make([]models.PricePoint, len(series.Points))
		copy(out, series.Points)
		return &models.PriceSeries{Points: out}
	}

	bucketOf := util.WeekStart
	if mode == models.AggregateMonthly {
		bucketOf = util.MonthStart
	}

	var (
		out       []models.PricePoint
		curBucket time.Time
		haveAny   bool
	)
	for _, p := range series.Points {
		b := bucketOf(p.Date)
		if haveAny && b.Equal(curBucket) {
			// Same bucket: later observation wins.
			out[len(out)-1] = p
			continue
		}
		out = append(out, p)
		curBucket = b
		haveAny = true
	}
	return &models.PriceSeries{Points: out}
}

// Returns converts a price series into log-returns, aggregating first when
// requested. A post-aggregation series of length 1 yields an empty return
// series; that is the defined boundary, not an error. Any non-positive
// post-aggregation price is an InvalidPrice failure.
func Returns(series *models.PriceSeries, mode models.AggregationMode) (*models.ReturnSeries, error) {
	agg := Aggregate(series, mode)

	for _, p := range agg.Points {
		if p.Price <= 0 {
			return nil, &models.InvalidPriceError{
				Date:  p.Date.Format("2006-01-02"),
				Price: p.Price,
			}
		}
	}

	if agg.Len() < 2 {
		return &models.ReturnSeries{}, nil
	}

	points := make([]models.ReturnPoint, 0, agg.Len()-1)
	for i := 1; i < agg.Len(); i++ {
		points = append(points, models.ReturnPoint{
			Date:      agg.Points[i].Date,
			LogReturn: math.Log(agg.Points[i].Price / agg.Points[i-1].Price),
		})
	}
	return &models.ReturnSeries{Points: points}, nil
}
