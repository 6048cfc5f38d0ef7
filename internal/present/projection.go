package present

import (
	"fmt"
	"html"
	"strings"

	"halo-cli/internal/model"
)

// EmptySummaryHint is shown in place of the summary when the collection is empty.
const EmptySummaryHint = "Start typing notes for each function above — they’ll compile here."

// Axis scale bounds. The minimum stays at 0 regardless of data so stage 1 never
// reads as an empty axis.
const (
	ScaleMin = 0
	ScaleMax = 3
)

// Field is one editable field-set, addressed by its current position.
type Field struct {
	Position    int
	ID          string
	Name        string
	Stage       model.Stage
	Note        string
	Placeholder string
}

// SummaryLine is one entry of the compiled summary.
type SummaryLine struct {
	Name       string
	StageLabel string
	Note       string
}

// Text renders "{name}: {stage}" with " — {note}" appended when the note is non-empty.
func (l SummaryLine) Text() string {
	s := l.Name + ": " + l.StageLabel
	if l.Note != "" {
		s += " — " + l.Note
	}
	return s
}

// HTML renders the line as markup with the name in <strong>. Name and note are escaped.
func (l SummaryLine) HTML() string {
	s := "<strong>" + html.EscapeString(l.Name) + "</strong>: " + html.EscapeString(l.StageLabel)
	if l.Note != "" {
		s += " — " + html.EscapeString(l.Note)
	}
	return s
}

// Markdown renders the line as markdown with the name in bold. User text is escaped
// so it cannot introduce markdown structure of its own.
func (l SummaryLine) Markdown() string {
	s := "**" + EscapeMarkdown(l.Name) + "**: " + EscapeMarkdown(l.StageLabel)
	if l.Note != "" {
		s += " — " + EscapeMarkdown(l.Note)
	}
	return s
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"*", `\*`,
	"_", `\_`,
	"{", `\{`,
	"}", `\}`,
	"[", `\[`,
	"]", `\]`,
	"(", `\(`,
	")", `\)`,
	"#", `\#`,
	"+", `\+`,
	"-", `\-`,
	".", `\.`,
	"!", `\!`,
	"|", `\|`,
	"<", `&lt;`,
	">", `&gt;`,
	"\r\n", " ",
	"\n", " ",
)

// EscapeMarkdown escapes markdown metacharacters and flattens newlines.
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// ChartSeries is the chart-ready label/value series.
type ChartSeries struct {
	// Labels holds one entry per axis, each already wrapped into 1+ lines.
	Labels [][]string
	Values []float64
	Min    float64
	Max    float64
}

// Axes returns the axis count.
func (c ChartSeries) Axes() int { return len(c.Labels) }

// StageCounts tallies records per stage.
type StageCounts struct {
	Early       int `json:"early"`
	Advancing   int `json:"advancing"`
	Established int `json:"established"`
}

func (c StageCounts) String() string {
	return fmt.Sprintf("Early: %d · Advancing: %d · Established: %d", c.Early, c.Advancing, c.Established)
}

// Projection is every view derived from one collection state.
type Projection struct {
	Fields  []Field
	Summary []SummaryLine
	Chart   ChartSeries
	Counts  StageCounts
}

// StageLabel maps 1→Early, 2→Advancing, 3→Established.
func StageLabel(s model.Stage) string {
	return s.Label()
}

// Project derives all projections from records. It is pure: equal input yields equal output.
func Project(records []model.Record) Projection {
	p := Projection{
		Fields:  make([]Field, 0, len(records)),
		Summary: make([]SummaryLine, 0, len(records)),
		Chart: ChartSeries{
			Labels: make([][]string, 0, len(records)),
			Values: make([]float64, 0, len(records)),
			Min:    ScaleMin,
			Max:    ScaleMax,
		},
	}
	for i, r := range records {
		p.Fields = append(p.Fields, Field{
			Position:    i,
			ID:          r.ID,
			Name:        r.Name,
			Stage:       r.Stage,
			Note:        r.Note,
			Placeholder: r.NoteHint(),
		})
		p.Summary = append(p.Summary, SummaryLine{
			Name:       r.Name,
			StageLabel: StageLabel(r.Stage),
			Note:       r.Note,
		})
		p.Chart.Labels = append(p.Chart.Labels, WrapLabel(r.Name))
		p.Chart.Values = append(p.Chart.Values, axisValue(r.Stage))

		switch r.Stage {
		case model.StageEarly:
			p.Counts.Early++
		case model.StageAdvancing:
			p.Counts.Advancing++
		case model.StageEstablished:
			p.Counts.Established++
		}
	}
	return p
}

func axisValue(s model.Stage) float64 {
	v := float64(s)
	if v < ScaleMin {
		return ScaleMin
	}
	if v > ScaleMax {
		return ScaleMax
	}
	return v
}

// SummaryText joins the summary lines as plain text.
func (p Projection) SummaryText() string {
	lines := make([]string, 0, len(p.Summary))
	for _, l := range p.Summary {
		lines = append(lines, l.Text())
	}
	return strings.Join(lines, "\n")
}

// SummaryMarkdown renders the summary as a markdown document, or the empty hint.
func (p Projection) SummaryMarkdown() string {
	if len(p.Summary) == 0 {
		return "_" + EscapeMarkdown(EmptySummaryHint) + "_"
	}
	lines := make([]string, 0, len(p.Summary))
	for _, l := range p.Summary {
		lines = append(lines, "- "+l.Markdown())
	}
	return strings.Join(lines, "\n")
}
