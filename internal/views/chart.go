package views

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/mesh-intelligence/daybook/pkg/types"
)

// ChartType selects how activities are aggregated for the chart.
type ChartType string

// Supported chart types.
const (
	ChartCategory ChartType = "category"
	ChartTime     ChartType = "time"
	ChartDaily    ChartType = "daily"
)

// DailyColor fills every bar of the daily chart.
const DailyColor = "rgba(74, 111, 165, 0.7)"

// ErrUnknownChartType is returned by ParseChartType.
var ErrUnknownChartType = errors.New("unknown chart type")

// ChartTypes lists the supported chart types.
var ChartTypes = []ChartType{ChartCategory, ChartTime, ChartDaily}

// ParseChartType validates s as a ChartType.
func ParseChartType(s string) (ChartType, error) {
	for _, t := range ChartTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownChartType, s)
}

// ChartPoint is one bar or slice.
type ChartPoint struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value int    `json:"value"`
	Color string `json:"color"`
}

// Chart is one data series ready to draw.
type Chart struct {
	Type   ChartType    `json:"type"`
	Series string       `json:"series"`
	Points []ChartPoint `json:"points"`
}

// Total sums the point values.
func (c Chart) Total() int {
	total := 0
	for _, p := range c.Points {
		total += p.Value
	}
	return total
}

// BuildChart aggregates activities for chart type t.
func BuildChart(t ChartType, activities []types.Activity, palette Palette) (Chart, error) {
	switch t {
	case ChartCategory, ChartTime:
		return categoryChart(t, activities, palette), nil
	case ChartDaily:
		return dailyChart(activities), nil
	default:
		return Chart{}, fmt.Errorf("%w: %q", ErrUnknownChartType, t)
	}
}

func categoryChart(t ChartType, activities []types.Activity, palette Palette) Chart {
	chart := Chart{Type: t, Series: "Number of Activities", Points: []ChartPoint{}}
	if t == ChartTime {
		chart.Series = "Minutes"
	}
	for _, s := range Summarize(activities) {
		value := s.Count
		if t == ChartTime {
			value = s.Minutes
		}
		chart.Points = append(chart.Points, ChartPoint{
			Key:   s.Category,
			Label: types.DisplayName(s.Category),
			Value: value,
			Color: palette.Color(s.Category),
		})
	}
	return chart
}

func dailyChart(activities []types.Activity) Chart {
	counts := make(map[string]int)
	for _, a := range activities {
		counts[a.Date]++
	}
	dates := make([]string, 0, len(counts))
	for d := range counts {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	chart := Chart{Type: ChartDaily, Series: "Number of Activities", Points: make([]ChartPoint, 0, len(dates))}
	for _, d := range dates {
		chart.Points = append(chart.Points, ChartPoint{
			Key:   d,
			Label: shortDate(d),
			Value: counts[d],
			Color: DailyColor,
		})
	}
	return chart
}

// shortDate renders YYYY-MM-DD as "Jan 2".
func shortDate(s string) string {
	d, err := types.ParseDate(s)
	if err != nil {
		return s
	}
	return d.In(time.UTC).Format("Jan 2")
}
