package render

import (
	"encoding/json"
	"io"

	"cloud.google.com/go/civil"

	"github.com/mesh-intelligence/daybook/internal/views"
)

// Document collects every rendered view. Views that were not rendered are
// omitted.
type Document struct {
	Timeline *TimelineView  `json:"timeline,omitempty"`
	Summary  *SummaryView   `json:"summary,omitempty"`
	Chart    *ChartView     `json:"chart,omitempty"`
	Calendar *views.Month   `json:"calendar,omitempty"`
	Result   any            `json:"result,omitempty"`
}

// TimelineView is the timeline for one date.
type TimelineView struct {
	Date    string                `json:"date"`
	Entries []views.TimelineEntry `json:"entries"`
}

// SummaryView is the category summary for one date.
type SummaryView struct {
	Date       string                  `json:"date"`
	Categories []views.CategorySummary `json:"categories"`
}

// ChartView is a chart series over a date range.
type ChartView struct {
	Range views.Range `json:"range"`
	views.Chart
}

// JSON buffers views and writes them as one indented document on Flush.
type JSON struct {
	w   io.Writer
	doc Document
}

// NewJSON returns a JSON renderer writing to w.
func NewJSON(w io.Writer) *JSON {
	return &JSON{w: w}
}

func (j *JSON) RenderTimeline(date civil.Date, entries []views.TimelineEntry) error {
	if entries == nil {
		entries = []views.TimelineEntry{}
	}
	j.doc.Timeline = &TimelineView{Date: date.String(), Entries: entries}
	return nil
}

func (j *JSON) RenderSummary(date civil.Date, summary []views.CategorySummary) error {
	if summary == nil {
		summary = []views.CategorySummary{}
	}
	j.doc.Summary = &SummaryView{Date: date.String(), Categories: summary}
	return nil
}

func (j *JSON) RenderChart(chart views.Chart, r views.Range) error {
	if chart.Points == nil {
		chart.Points = []views.ChartPoint{}
	}
	j.doc.Chart = &ChartView{Range: r, Chart: chart}
	return nil
}

func (j *JSON) RenderCalendar(month views.Month) error {
	j.doc.Calendar = &month
	return nil
}

// SetResult attaches the outcome of the command that triggered the refresh.
func (j *JSON) SetResult(v any) {
	j.doc.Result = v
}

// Document returns what has been rendered so far.
func (j *JSON) Document() Document { return j.doc }

// Flush writes the document and starts a new one.
func (j *JSON) Flush() error {
	output, err := json.MarshalIndent(j.doc, "", "  ")
	if err != nil {
		return err
	}
	output = append(output, '\n')
	if _, err := j.w.Write(output); err != nil {
		return err
	}
	j.doc = Document{}
	return nil
}
