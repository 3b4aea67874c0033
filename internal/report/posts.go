package report

import (
	"unicode/utf8"

	"github.com/drac2606/django-data-monitor/internal/models"
)

const (
	// LongTitleThreshold is the title length, in characters, above which a
	// post counts as having a long title.
	LongTitleThreshold = 50

	postsTitle = "Landing Page Dashboard"
)

// PostsView is the posts dashboard context
type PostsView struct {
	Title          string                      `json:"title"`
	TotalResponses int                         `json:"total_responses"`
	AvgTitleLength float64                     `json:"avg_title_length"`
	LongTitles     int                         `json:"long_titles"`
	TopUserID      int                         `json:"top_user_id"`
	TopUserPosts   int                         `json:"top_user_posts"`
	TableData      models.Page[models.PostRow] `json:"table_data"`
	ChartData      []PostChartPoint            `json:"chart_data"`
}

// PostChartPoint is the average title length of one user's posts
type PostChartPoint struct {
	UserID         int     `json:"user_id"`
	AvgTitleLength float64 `json:"avg_title_length"`
}

// PostsSpec groups posts by userId, measures title length and flags titles
// longer than LongTitleThreshold.
func PostsSpec() Spec[int, models.PostRow] {
	return Spec[int, models.PostRow]{
		GroupKey: postUserID,
		Metric: func(rec models.Record) (float64, bool) {
			return float64(titleLength(rec)), true
		},
		Threshold: func(rec models.Record) bool {
			return titleLength(rec) > LongTitleThreshold
		},
		Project: func(rec models.Record) models.PostRow {
			return models.PostRow{
				UserID: rec.String("userId"),
				PostID: rec.String("id"),
				Title:  rec.String("title"),
			}
		},
		ChartKey:       postUserID,
		ChartAggregate: AggregateAverage,
		PageSize:       DefaultPageSize,
	}
}

// BuildPosts builds the posts dashboard for the requested page
func BuildPosts(records []models.Record, pageNumber string) PostsView {
	return NewPostsView(Build(records, PostsSpec(), pageNumber))
}

// NewPostsView names the generic report fields for the posts dashboard
func NewPostsView(rep models.Report[int, models.PostRow]) PostsView {
	chart := make([]PostChartPoint, 0, len(rep.Chart))
	for _, p := range rep.Chart {
		chart = append(chart, PostChartPoint{UserID: p.Key, AvgTitleLength: p.Value})
	}

	return PostsView{
		Title:          postsTitle,
		TotalResponses: rep.Summary.Total,
		AvgTitleLength: rep.Summary.Average,
		LongTitles:     rep.Summary.ThresholdCount,
		TopUserID:      rep.Summary.TopKey,
		TopUserPosts:   rep.Summary.TopCount,
		TableData:      rep.Table,
		ChartData:      chart,
	}
}

func postUserID(rec models.Record) int {
	return rec.Int("userId")
}

func titleLength(rec models.Record) int {
	return utf8.RuneCountInString(rec.String("title"))
}
