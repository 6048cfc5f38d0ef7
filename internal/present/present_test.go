package present

import (
	"errors"
	"strings"
	"testing"

	"halo-cli/internal/model"

	"github.com/google/go-cmp/cmp"
)

// fakeCharts records every chart it constructs so tests can count live instances.
type fakeCharts struct {
	built []*fakeChart
	fail  error
	panic bool
}

type fakeChart struct {
	series    ChartSeries
	destroyed bool
}

func (c *fakeChart) Destroy() { c.destroyed = true }

func (f *fakeCharts) NewChart(s ChartSeries) (Chart, error) {
	if f.panic {
		panic("renderer exploded")
	}
	if f.fail != nil {
		return nil, f.fail
	}
	c := &fakeChart{series: s}
	f.built = append(f.built, c)
	return c, nil
}

func (f *fakeCharts) live() int {
	n := 0
	for _, c := range f.built {
		if !c.destroyed {
			n++
		}
	}
	return n
}

func sampleRecords() []model.Record {
	return []model.Record{
		{ID: "fn-a", Name: "Customers & Community", Stage: model.StageEarly},
		{ID: "fn-b", Name: "Market", Stage: model.StageAdvancing, Note: "Q3 push"},
		{ID: "fn-c", Name: "Money & Resources", Stage: model.StageEstablished, Placeholder: "capital"},
	}
}

func TestSummaryLine_Text(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rec  model.Record
		want string
	}{
		{name: "no note", rec: model.Record{Name: "Market", Stage: model.StageAdvancing}, want: "Market: Advancing"},
		{name: "with note", rec: model.Record{Name: "Market", Stage: model.StageAdvancing, Note: "Q3 push"}, want: "Market: Advancing — Q3 push"},
		{name: "early", rec: model.Record{Name: "Sales", Stage: model.StageEarly}, want: "Sales: Early"},
		{name: "established", rec: model.Record{Name: "Sales", Stage: model.StageEstablished}, want: "Sales: Established"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := Project([]model.Record{tt.rec})
			if got := p.Summary[0].Text(); got != tt.want {
				t.Fatalf("got %q want %q", got, tt.want)
			}
		})
	}
}

func TestSummaryLine_EscapesMarkup(t *testing.T) {
	t.Parallel()

	l := SummaryLine{Name: `<script>alert("x")</script>`, StageLabel: "Early", Note: "a & b"}
	got := l.HTML()
	if strings.Contains(got, "<script>") {
		t.Fatalf("expected name to be escaped; got %q", got)
	}
	if want := "<strong>&lt;script&gt;alert(&#34;x&#34;)&lt;/script&gt;</strong>: Early — a &amp; b"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}

	md := SummaryLine{Name: "**bold** [link](x)", StageLabel: "Early", Note: "# heading\nnext"}.Markdown()
	if strings.Contains(md, "[link](x)") || strings.Contains(md, "\n") {
		t.Fatalf("expected markdown to be escaped and flattened; got %q", md)
	}
	if !strings.HasPrefix(md, `**\*\*bold\*\* \[link\]\(x\)**`) {
		t.Fatalf("unexpected markdown: %q", md)
	}
}

func TestProject_ShapesAndCounts(t *testing.T) {
	t.Parallel()

	p := Project(sampleRecords())
	if len(p.Fields) != 3 || len(p.Summary) != 3 || p.Chart.Axes() != 3 || len(p.Chart.Values) != 3 {
		t.Fatalf("expected 3 of everything; got %+v", p)
	}
	wantLabels := [][]string{
		{"Customers &", "Community"},
		{"Market"},
		{"Money &", "Resources"},
	}
	if diff := cmp.Diff(wantLabels, p.Chart.Labels); diff != "" {
		t.Fatalf("labels mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{1, 2, 3}, p.Chart.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if p.Chart.Min != 0 || p.Chart.Max != 3 {
		t.Fatalf("expected fixed scale [0,3]; got [%v,%v]", p.Chart.Min, p.Chart.Max)
	}
	if got, want := p.Counts.String(), "Early: 1 · Advancing: 1 · Established: 1"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	if p.Fields[0].Placeholder != model.DefaultNotePlaceholder || p.Fields[2].Placeholder != "capital" {
		t.Fatalf("unexpected placeholders: %+v", p.Fields)
	}
	for i, f := range p.Fields {
		if f.Position != i {
			t.Fatalf("field %d has position %d", i, f.Position)
		}
	}
}

func TestProject_Empty(t *testing.T) {
	t.Parallel()

	p := Project(nil)
	if p.Chart.Axes() != 0 || len(p.Fields) != 0 {
		t.Fatalf("expected zero axes and fields")
	}
	if got := p.SummaryMarkdown(); !strings.Contains(got, "Start typing notes") {
		t.Fatalf("expected empty hint; got %q", got)
	}
	if got := p.SummaryText(); got != "" {
		t.Fatalf("expected empty text summary; got %q", got)
	}
}

func TestSynchronizer_IdempotentPasses(t *testing.T) {
	t.Parallel()

	f := &fakeCharts{}
	s := NewSynchronizer(f)
	recs := sampleRecords()
	p1, err := s.Sync(recs, true)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	p2, err := s.Sync(recs, false)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if diff := cmp.Diff(p1, p2); diff != "" {
		t.Fatalf("expected identical projections (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(f.built[0].series, f.built[1].series); diff != "" {
		t.Fatalf("expected identical chart series:\n%s", diff)
	}
}

func TestSynchronizer_DestroysBeforeReplacing(t *testing.T) {
	t.Parallel()

	f := &fakeCharts{}
	s := NewSynchronizer(f)
	recs := sampleRecords()
	for i := 0; i < 5; i++ {
		if _, err := s.Sync(recs[:i%4], i%2 == 0); err != nil {
			t.Fatalf("Sync: %v", err)
		}
		if got := f.live(); got != 1 {
			t.Fatalf("pass %d: expected exactly one live chart; got %d", i, got)
		}
		if s.Chart() != Chart(f.built[len(f.built)-1]) {
			t.Fatalf("pass %d: expected synchronizer to hold the newest chart", i)
		}
	}
	s.Close()
	if got := f.live(); got != 0 {
		t.Fatalf("expected no live chart after Close; got %d", got)
	}
}

func TestSynchronizer_FailedConstructionLeavesNoChart(t *testing.T) {
	t.Parallel()

	f := &fakeCharts{}
	s := NewSynchronizer(f)
	if _, err := s.Sync(sampleRecords(), true); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	boom := errors.New("canvas gone")
	f.fail = boom
	p, err := s.Sync(sampleRecords()[:2], true)
	if !errors.Is(err, boom) {
		t.Fatalf("expected construction error; got %v", err)
	}
	if s.Chart() != nil || f.live() != 0 {
		t.Fatalf("expected zero live charts after failure")
	}
	if len(p.Fields) != 2 || len(s.Projection().Fields) != 2 {
		t.Fatalf("expected projections updated despite chart failure")
	}

	f.fail = nil
	f.panic = true
	if _, err := s.Sync(sampleRecords(), true); err == nil {
		t.Fatalf("expected panic to surface as error")
	}
	if s.Chart() != nil {
		t.Fatalf("expected no chart after panic")
	}

	f.panic = false
	if _, err := s.Sync(sampleRecords(), true); err != nil {
		t.Fatalf("Sync after recovery: %v", err)
	}
	if f.live() != 1 {
		t.Fatalf("expected one live chart after recovery; got %d", f.live())
	}
}

func TestSynchronizer_NoFactory(t *testing.T) {
	t.Parallel()

	s := NewSynchronizer(nil)
	if _, err := s.Sync(sampleRecords(), true); !errors.Is(err, ErrNoChartFactory) {
		t.Fatalf("expected ErrNoChartFactory; got %v", err)
	}
}

func TestSynchronizer_FieldRebuildOnlyOnStructuralPasses(t *testing.T) {
	t.Parallel()

	s := NewSynchronizer(&fakeCharts{})
	recs := sampleRecords()
	_, _ = s.Sync(recs, true)
	if s.FieldsRebuilt() != 1 {
		t.Fatalf("expected initial rebuild")
	}

	recs[1].Note = "edited"
	_, _ = s.Sync(recs, false)
	if s.FieldsRebuilt() != 1 {
		t.Fatalf("expected in-place edit not to rebuild fields; got %d", s.FieldsRebuilt())
	}
	if got := s.Fields()[1].Note; got != "edited" {
		t.Fatalf("expected field value to track record; got %q", got)
	}

	_, _ = s.Sync(recs[:2], true)
	if s.FieldsRebuilt() != 2 {
		t.Fatalf("expected structural pass to rebuild fields; got %d", s.FieldsRebuilt())
	}
	if len(s.Fields()) != 2 {
		t.Fatalf("expected 2 fields; got %d", len(s.Fields()))
	}
	if s.Passes() != 3 {
		t.Fatalf("expected 3 passes; got %d", s.Passes())
	}
}
