package report

import (
	"math"
	"strconv"
	"strings"

	"github.com/drac2606/django-data-monitor/internal/models"
)

// Paginate slices items into pages of perPage and returns the page selected by
// pageNumber.
//
// pageNumber is the raw query value: empty or non-integer values select the
// first page, integral floats such as "2.0" are accepted, and numbers outside
// [1, NumPages] are clamped to the nearest valid page. An empty input still
// has one (empty) page.
func Paginate[R any](items []R, perPage int, pageNumber string) models.Page[R] {
	if perPage <= 0 {
		perPage = DefaultPageSize
	}

	count := len(items)
	numPages := 1
	if count > 0 {
		numPages = (count + perPage - 1) / perPage
	}

	number := clampPage(parsePageNumber(pageNumber), numPages)

	start := (number - 1) * perPage
	end := min(start+perPage, count)

	pageItems := make([]R, end-start)
	copy(pageItems, items[start:end])

	page := models.Page[R]{
		Number:      number,
		NumPages:    numPages,
		Count:       count,
		PerPage:     perPage,
		Items:       pageItems,
		HasPrevious: number > 1,
		HasNext:     number < numPages,
		EndIndex:    end,
		PageRange:   pageRange(numPages),
	}

	if count > 0 {
		page.StartIndex = start + 1
	}
	if page.HasPrevious {
		page.PreviousPageNumber = number - 1
	}
	if page.HasNext {
		page.NextPageNumber = number + 1
	}

	return page
}

func parsePageNumber(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1
	}

	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || f != math.Trunc(f) {
		return 1
	}

	switch {
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	default:
		return int(f)
	}
}

func clampPage(number, numPages int) int {
	if number < 1 {
		return 1
	}
	if number > numPages {
		return numPages
	}
	return number
}

func pageRange(numPages int) []int {
	r := make([]int, numPages)
	for i := range r {
		r[i] = i + 1
	}
	return r
}
