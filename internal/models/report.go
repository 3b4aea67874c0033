package models

import "cmp"

// Summary holds the scalar aggregates of a report
type Summary[K cmp.Ordered] struct {
	Total          int     `json:"total"`
	MetricTotal    float64 `json:"metric_total"`
	Average        float64 `json:"average"`
	ThresholdCount int     `json:"threshold_count"`
	TopKey         K       `json:"top_key"`
	TopCount       int     `json:"top_count"`
}

// ChartPoint is an aggregated (key, metric) pair for visualization
type ChartPoint[K cmp.Ordered] struct {
	Key   K       `json:"key"`
	Value float64 `json:"value"`
}

// Page is one page of a paginated table
type Page[R any] struct {
	Number             int   `json:"number"`
	NumPages           int   `json:"num_pages"`
	Count              int   `json:"count"`
	PerPage            int   `json:"per_page"`
	Items              []R   `json:"items"`
	HasPrevious        bool  `json:"has_previous"`
	HasNext            bool  `json:"has_next"`
	PreviousPageNumber int   `json:"previous_page_number,omitempty"`
	NextPageNumber     int   `json:"next_page_number,omitempty"`
	StartIndex         int   `json:"start_index"`
	EndIndex           int   `json:"end_index"`
	PageRange          []int `json:"page_range"`
}

// Report bundles everything derived from one fetch of upstream records
type Report[K cmp.Ordered, R any] struct {
	Summary Summary[K]      `json:"summary"`
	Table   Page[R]         `json:"table"`
	Chart   []ChartPoint[K] `json:"chart"`
}

// PostRow is the table projection of a blog post
type PostRow struct {
	UserID string `json:"user_id"`
	PostID string `json:"post_id"`
	Title  string `json:"title"`
}

// ReservationRow is the table projection of a restaurant reservation
type ReservationRow struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	People string `json:"people"`
	Date   string `json:"date"`
}
