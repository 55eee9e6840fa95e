package preprocess

import (
	"errors"
	"math"
	"testing"
	"time"

	"BrentShift/internal/domain/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func priceSeries(points ...models.PricePoint) *models.PriceSeries {
	return &models.PriceSeries{Points: points}
}

func TestReturnsFormula(t *testing.T) {
	s := priceSeries(
		models.PricePoint{Date: day(2020, 1, 1), Price: 100},
		models.PricePoint{Date: day(2020, 1, 2), Price: 110},
	)
	rs, err := Returns(s, models.AggregateNone)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rs.Len() != 1 {
		t.Fatalf("expected 1 return, got %d", rs.Len())
	}
	want := math.Log(1.1)
	if math.Abs(rs.Points[0].LogReturn-want) > 1e-9 {
		t.Fatalf("got %v want %v", rs.Points[0].LogReturn, want)
	}
	if !rs.Points[0].Date.Equal(day(2020, 1, 2)) {
		t.Fatalf("return must carry the later date, got %v", rs.Points[0].Date)
	}
}

func TestReturnsNoneMatchesDirect(t *testing.T) {
	s := priceSeries(
		models.PricePoint{Date: day(2020, 1, 1), Price: 100},
		models.PricePoint{Date: day(2020, 1, 2), Price: 101},
		models.PricePoint{Date: day(2020, 1, 3), Price: 99},
		models.PricePoint{Date: day(2020, 1, 6), Price: 104},
	)
	direct, err := Returns(s, models.AggregateNone)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if direct.Len() != s.Len()-1 {
		t.Fatalf("mode none must keep cardinality, got %d", direct.Len())
	}
	for i := 1; i < s.Len(); i++ {
		want := math.Log(s.Points[i].Price / s.Points[i-1].Price)
		if math.Abs(direct.Points[i-1].LogReturn-want) > 1e-12 {
			t.Fatalf("return %d: got %v want %v", i-1, direct.Points[i-1].LogReturn, want)
		}
	}
}

func TestReturnsSinglePriceIsEmpty(t *testing.T) {
	s := priceSeries(models.PricePoint{Date: day(2020, 1, 1), Price: 100})
	rs, err := Returns(s, models.AggregateNone)
	if err != nil {
		t.Fatalf("length-1 series is a boundary, not an error: %v", err)
	}
	if rs.Len() != 0 {
		t.Fatalf("expected empty return series, got %d", rs.Len())
	}
}

func TestAggregateWeeklyTakesLastObservation(t *testing.T) {
	// Mon/Wed/Fri of one week, then Tue of the next.
	s := priceSeries(
		models.PricePoint{Date: day(2020, 4, 20), Price: 10},
		models.PricePoint{Date: day(2020, 4, 22), Price: 11},
		models.PricePoint{Date: day(2020, 4, 24), Price: 12},
		models.PricePoint{Date: day(2020, 4, 28), Price: 13},
	)
	agg := Aggregate(s, models.AggregateWeekly)
	if agg.Len() != 2 {
		t.Fatalf("expected 2 weekly buckets, got %d", agg.Len())
	}
	if agg.Points[0].Price != 12 || !agg.Points[0].Date.Equal(day(2020, 4, 24)) {
		t.Fatalf("first bucket should keep Friday's observation, got %+v", agg.Points[0])
	}
	if agg.Points[1].Price != 13 {
		t.Fatalf("second bucket wrong: %+v", agg.Points[1])
	}
}

func TestAggregateMonthlyTakesLastObservation(t *testing.T) {
	s := priceSeries(
		models.PricePoint{Date: day(1987, 5, 20), Price: 18.63},
		models.PricePoint{Date: day(1987, 5, 29), Price: 18.45},
		models.PricePoint{Date: day(1987, 6, 1), Price: 18.55},
	)
	agg := Aggregate(s, models.AggregateMonthly)
	if agg.Len() != 2 {
		t.Fatalf("expected 2 monthly buckets, got %d", agg.Len())
	}
	if agg.Points[0].Price != 18.45 {
		t.Fatalf("may bucket should keep the 29th, got %+v", agg.Points[0])
	}
}

func TestAggregateAbsorbsDuplicateDates(t *testing.T) {
	s := priceSeries(
		models.PricePoint{Date: day(2020, 4, 20), Price: 10},
		models.PricePoint{Date: day(2020, 4, 20), Price: 11},
	)
	agg := Aggregate(s, models.AggregateWeekly)
	if agg.Len() != 1 || agg.Points[0].Price != 11 {
		t.Fatalf("duplicate dates must collapse to the later row, got %+v", agg.Points)
	}
}

func TestReturnsDoesNotMutateInput(t *testing.T) {
	s := priceSeries(
		models.PricePoint{Date: day(2020, 4, 20), Price: 10},
		models.PricePoint{Date: day(2020, 4, 22), Price: 11},
	)
	orig := make([]models.PricePoint, len(s.Points))
	copy(orig, s.Points)
	if _, err := Returns(s, models.AggregateWeekly); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range orig {
		if s.Points[i] != orig[i] {
			t.Fatalf("input mutated at %d", i)
		}
	}
}

func TestReturnsInvalidAggregatedPrice(t *testing.T) {
	s := priceSeries(
		models.PricePoint{Date: day(2020, 4, 20), Price: 10},
		models.PricePoint{Date: day(2020, 4, 28), Price: -1},
	)
	_, err := Returns(s, models.AggregateWeekly)
	var ip *models.InvalidPriceError
	if !errors.As(err, &ip) {
		t.Fatalf("expected InvalidPriceError, got %v", err)
	}
}
