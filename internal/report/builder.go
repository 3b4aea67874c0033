// Package report turns a slice of loosely-typed upstream records into the
// summary figures, paginated table and chart series shown on a dashboard.
//
// Everything here is pure: no I/O, no shared state, and the input records are
// never modified. A report is rebuilt from scratch on every request.
package report

import (
	"cmp"
	"slices"

	"github.com/drac2606/django-data-monitor/internal/models"
)

// DefaultPageSize is the number of table rows per page
const DefaultPageSize = 10

// Aggregate selects how chart buckets are reduced to a single value
type Aggregate int

const (
	// AggregateAverage divides the bucket sum by the number of records in it
	// and rounds to one decimal.
	AggregateAverage Aggregate = iota
	// AggregateSum reports the bucket sum as is.
	AggregateSum
)

// Spec parameterizes Build for one record shape.
type Spec[K cmp.Ordered, R any] struct {
	// GroupKey buckets records for the "top" computation.
	GroupKey func(models.Record) K
	// Metric extracts the per-record numeric value. ok=false marks an
	// unparsable value: it adds nothing to the sum but the record still counts
	// toward the average's denominator.
	Metric func(models.Record) (value float64, ok bool)
	// Threshold is optional; when set, Summary.ThresholdCount counts the
	// records it accepts.
	Threshold func(models.Record) bool
	// Project maps a record to its table row.
	Project func(models.Record) R
	// ChartKey buckets records for the chart series.
	ChartKey       func(models.Record) K
	ChartAggregate Aggregate
	PageSize       int
}

// Build computes the full report for records. pageNumber is the raw value of
// the incoming page parameter and is interpreted by Paginate.
func Build[K cmp.Ordered, R any](records []models.Record, spec Spec[K, R], pageNumber string) models.Report[K, R] {
	rows := make([]R, 0, len(records))
	for _, rec := range records {
		rows = append(rows, spec.Project(rec))
	}

	pageSize := spec.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	return models.Report[K, R]{
		Summary: Summarize(records, spec),
		Table:   Paginate(rows, pageSize, pageNumber),
		Chart:   Chart(records, spec),
	}
}

// Summarize computes the scalar aggregates of records
func Summarize[K cmp.Ordered, R any](records []models.Record, spec Spec[K, R]) models.Summary[K] {
	summary := models.Summary[K]{Total: len(records)}

	counts := make(map[K]int)
	order := make([]K, 0)

	for _, rec := range records {
		if value, ok := spec.Metric(rec); ok {
			summary.MetricTotal += value
		}

		if spec.Threshold != nil && spec.Threshold(rec) {
			summary.ThresholdCount++
		}

		key := spec.GroupKey(rec)
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}

	if summary.Total > 0 {
		summary.Average = Round1(summary.MetricTotal / float64(summary.Total))
	}

	summary.TopKey, summary.TopCount = topKey(order, counts)

	return summary
}

// topKey returns the most frequent key. order holds keys in first-seen order,
// so a strict comparison keeps the earliest key on ties.
func topKey[K cmp.Ordered](order []K, counts map[K]int) (K, int) {
	var best K
	bestCount := 0

	for _, key := range order {
		if counts[key] > bestCount {
			best = key
			bestCount = counts[key]
		}
	}

	return best, bestCount
}

type bucket struct {
	sum   float64
	count int
}

// Chart groups records by spec.ChartKey, reduces every group with
// spec.ChartAggregate and returns the points sorted ascending by key.
func Chart[K cmp.Ordered, R any](records []models.Record, spec Spec[K, R]) []models.ChartPoint[K] {
	buckets := make(map[K]*bucket)

	for _, rec := range records {
		key := spec.ChartKey(rec)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}

		if value, ok := spec.Metric(rec); ok {
			b.sum += value
		}
		b.count++
	}

	points := make([]models.ChartPoint[K], 0, len(buckets))
	for key, b := range buckets {
		value := b.sum
		if spec.ChartAggregate == AggregateAverage {
			value = Round1(b.sum / float64(b.count))
		}
		points = append(points, models.ChartPoint[K]{Key: key, Value: value})
	}

	slices.SortFunc(points, func(a, b models.ChartPoint[K]) int {
		return cmp.Compare(a.Key, b.Key)
	})

	return points
}
