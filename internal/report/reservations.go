package report

import (
	"strconv"
	"strings"

	"github.com/drac2606/django-data-monitor/internal/models"
)

const reservationsTitle = "Reservations Dashboard"

// ReservationsView is the reservations dashboard context
type ReservationsView struct {
	Title                 string                             `json:"title"`
	TotalReservations     int                                `json:"total_reservations"`
	TotalPeople           int                                `json:"total_people"`
	AvgPeoplePerTable     float64                            `json:"avg_people_per_table"`
	TopClientName         string                             `json:"top_client_name"`
	TopClientReservations int                                `json:"top_client_reservations"`
	TableData             models.Page[models.ReservationRow] `json:"table_data"`
	ChartData             []ReservationChartPoint            `json:"chart_data"`
}

// ReservationChartPoint is the number of people booked on one date
type ReservationChartPoint struct {
	Date        string `json:"date"`
	TotalPeople int    `json:"total_people"`
}

// ReservationsSpec groups reservations by client name, sums the party size and
// charts people per date.
func ReservationsSpec() Spec[string, models.ReservationRow] {
	return Spec[string, models.ReservationRow]{
		GroupKey: func(rec models.Record) string {
			return rec.String("name")
		},
		Metric: func(rec models.Record) (float64, bool) {
			n, ok := People(rec)
			return float64(n), ok
		},
		Project: func(rec models.Record) models.ReservationRow {
			return models.ReservationRow{
				ID:     rec.String("id"),
				Name:   rec.String("name"),
				People: rec.String("people"),
				Date:   rec.String("date"),
			}
		},
		ChartKey: func(rec models.Record) string {
			return rec.String("date")
		},
		ChartAggregate: AggregateSum,
		PageSize:       DefaultPageSize,
	}
}

// People reads the party size of a reservation. Text values may carry a
// trailing "+" ("5+" means five or more) which is dropped before parsing.
func People(rec models.Record) (int, bool) {
	raw, isText := rec["people"].(string)
	if !isText {
		return rec.LookupInt("people")
	}

	raw = strings.TrimSuffix(strings.TrimSpace(raw), "+")
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return n, true
}

// BuildReservations builds the reservations dashboard for the requested page
func BuildReservations(records []models.Record, pageNumber string) ReservationsView {
	return NewReservationsView(Build(records, ReservationsSpec(), pageNumber))
}

// NewReservationsView names the generic report fields for the reservations
// dashboard
func NewReservationsView(rep models.Report[string, models.ReservationRow]) ReservationsView {
	chart := make([]ReservationChartPoint, 0, len(rep.Chart))
	for _, p := range rep.Chart {
		chart = append(chart, ReservationChartPoint{Date: p.Key, TotalPeople: int(p.Value)})
	}

	return ReservationsView{
		Title:                 reservationsTitle,
		TotalReservations:     rep.Summary.Total,
		TotalPeople:           int(rep.Summary.MetricTotal),
		AvgPeoplePerTable:     rep.Summary.Average,
		TopClientName:         rep.Summary.TopKey,
		TopClientReservations: rep.Summary.TopCount,
		TableData:             rep.Table,
		ChartData:             chart,
	}
}
