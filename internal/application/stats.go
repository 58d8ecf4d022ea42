package application

import "github.com/oksasatya/bmi-tracker/internal/domain/entity"

// Trend compares the newest record with the one before it.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
	TrendNoData     Trend = "no_data"
)

// Stats summarises a newest-first window of records.
type Stats struct {
	AverageBMI           float64
	Trend                Trend
	CategoryDistribution map[entity.Category]int
	// Records is the chart slice: the newest chartSize records of the window.
	Records []entity.BMIRecord
}

// Aggregate computes Stats over window, which must be ordered newest first.
// The category of each record is recomputed from its stored BMI.
func Aggregate(window []entity.BMIRecord) Stats {
	if len(window) == 0 {
		return Stats{
			Trend:                TrendNoData,
			CategoryDistribution: map[entity.Category]int{},
			Records:              []entity.BMIRecord{},
		}
	}

	var sum float64
	dist := make(map[entity.Category]int, len(entity.Categories))
	for _, r := range window {
		sum += r.BMI
		dist[entity.Classify(r.BMI)]++
	}

	trend := TrendStable
	if len(window) >= 2 {
		switch latest, previous := window[0].BMI, window[1].BMI; {
		case latest > previous:
			trend = TrendIncreasing
		case latest < previous:
			trend = TrendDecreasing
		}
	}

	n := min(len(window), chartSize)
	chart := make([]entity.BMIRecord, n)
	copy(chart, window[:n])

	return Stats{
		AverageBMI:           entity.Round1(sum / float64(len(window))),
		Trend:                trend,
		CategoryDistribution: dist,
		Records:              chart,
	}
}
