package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecord_String(t *testing.T) {
	rec := Record{
		"title":   "hello",
		"userId":  json.Number("7"),
		"ratio":   1.5,
		"count":   3,
		"active":  true,
		"nothing": nil,
		"tags":    []any{"a", "b"},
	}

	assert.Equal(t, "hello", rec.String("title"))
	assert.Equal(t, "7", rec.String("userId"))
	assert.Equal(t, "1.5", rec.String("ratio"))
	assert.Equal(t, "3", rec.String("count"))
	assert.Equal(t, "true", rec.String("active"))
	assert.Equal(t, "", rec.String("nothing"))
	assert.Equal(t, "", rec.String("missing"))
	assert.Equal(t, `["a","b"]`, rec.String("tags"))
}

func TestRecord_LookupInt(t *testing.T) {
	tests := []struct {
		name   string
		value  any
		want   int
		wantOK bool
	}{
		{"json integer", json.Number("42"), 42, true},
		{"json float", json.Number("4.9"), 4, true},
		{"float", 3.0, 3, true},
		{"numeric string", " 12 ", 12, true},
		{"plus suffix string", "5+", 0, false},
		{"word", "many", 0, false},
		{"bool", true, 0, false},
		{"null", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Record{"v": tt.value}.LookupInt("v")
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, 0, Record{}.Int("v"))
}

func TestRecord_Has(t *testing.T) {
	rec := Record{"a": "x", "b": nil}
	assert.True(t, rec.Has("a"))
	assert.False(t, rec.Has("b"))
	assert.False(t, rec.Has("c"))
}
