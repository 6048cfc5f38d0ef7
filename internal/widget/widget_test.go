package widget

import (
	"context"
	"errors"
	"strings"
	"testing"

	"halo-cli/internal/archive"
	"halo-cli/internal/export"
	"halo-cli/internal/model"
	"halo-cli/internal/present"
	"halo-cli/internal/store"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeChart struct {
	series present.ChartSeries
	live   *int
	dead   bool
}

func (c *fakeChart) Destroy() {
	if !c.dead {
		c.dead = true
		*c.live--
	}
}

type fakeCharts struct {
	live  int
	built int
	fail  bool
}

func (f *fakeCharts) NewChart(s present.ChartSeries) (present.Chart, error) {
	if f.fail {
		return nil, errors.New("renderer unavailable")
	}
	f.live++
	f.built++
	return &fakeChart{series: s, live: &f.live}, nil
}

type notices []string

func (n *notices) Notify(msg string) { *n = append(*n, msg) }

type fakeArchive struct {
	texts []string
	err   error
}

func (a *fakeArchive) Append(_ context.Context, text string, records int) (archive.Entry, error) {
	if a.err != nil {
		return archive.Entry{}, a.err
	}
	a.texts = append(a.texts, text)
	return archive.Entry{ID: int64(len(a.texts)), Records: records, Text: text}, nil
}

func defaults(names ...string) []model.Default {
	out := make([]model.Default, 0, len(names))
	for _, n := range names {
		out = append(out, model.Default{Name: n, Placeholder: "hint"})
	}
	return out
}

type harness struct {
	w       *Widget
	charts  *fakeCharts
	notices *notices
	logs    *observer.ObservedLogs
}

func newHarness(t *testing.T, defs []model.Default) harness {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	h := harness{charts: &fakeCharts{}, notices: &notices{}, logs: logs}
	w, err := New(Options{
		Defaults: defs,
		Charts:   h.charts,
		Notifier: h.notices,
		Logger:   zap.New(core),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.w = w
	return h
}

func names(recs []model.Record) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Name)
	}
	return out
}

func TestNew_RequiresChartFactory(t *testing.T) {
	t.Parallel()

	if _, err := New(Options{}); !errors.Is(err, ErrNoCharts) {
		t.Fatalf("expected ErrNoCharts; got %v", err)
	}
}

func TestNew_PaintsInitialChart(t *testing.T) {
	t.Parallel()

	h := newHarness(t, defaults("A", "B", "C"))
	if h.charts.live != 1 || h.charts.built != 1 {
		t.Fatalf("expected one live chart after init; got live=%d built=%d", h.charts.live, h.charts.built)
	}
	if got := h.w.Projection().Chart.Axes(); got != 3 {
		t.Fatalf("expected 3 axes; got %d", got)
	}
}

func TestWidget_EndToEnd(t *testing.T) {
	t.Parallel()

	h := newHarness(t, defaults("Customers & Community", "Products & Services", "Sales & Growth"))
	recs := h.w.Records()
	second := recs[1]

	h.w.Restage(second.ID, model.StageEstablished)
	if !h.w.Remove(recs[0].ID, Confirmed) {
		t.Fatalf("expected remove to succeed")
	}

	got := h.w.Records()
	if len(got) != 2 {
		t.Fatalf("expected 2 records; got %d", len(got))
	}
	if got[0].ID != second.ID || got[0].Stage != model.StageEstablished {
		t.Fatalf("expected former record 1 at position 0 with stage Established; got %+v", got[0])
	}

	chart := h.w.Projection().Chart
	wantLabels := [][]string{{"Products &", "Services"}, {"Sales &", "Growth"}}
	if diff := cmp.Diff(wantLabels, chart.Labels); diff != "" {
		t.Fatalf("labels mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{3, 1}, chart.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if h.charts.live != 1 {
		t.Fatalf("expected exactly one live chart; got %d", h.charts.live)
	}
	live, ok := h.w.Chart().(*fakeChart)
	if !ok || live.dead || live.series.Axes() != 2 {
		t.Fatalf("expected the live chart to carry 2 axes; got %+v", h.w.Chart())
	}
}

func TestWidget_FieldsTrackCollectionLength(t *testing.T) {
	t.Parallel()

	h := newHarness(t, defaults("A", "B"))
	check := func(step string) {
		t.Helper()
		if got, want := len(h.w.Fields()), h.w.Len(); got != want {
			t.Fatalf("%s: expected %d fields; got %d", step, want, got)
		}
		if h.charts.live > 1 {
			t.Fatalf("%s: %d live charts", step, h.charts.live)
		}
	}
	check("init")
	rec, err := h.w.Add()
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	check("add")
	h.w.Rename(rec.ID, "")
	check("rename")
	h.w.Annotate(rec.ID, "Q3 push")
	check("annotate")
	h.w.Remove(rec.ID, Confirmed)
	check("remove")
	h.w.Reset(Confirmed)
	check("reset")
}

func TestWidget_InPlaceEditsKeepFieldList(t *testing.T) {
	t.Parallel()

	h := newHarness(t, defaults("A", "B"))
	before := h.w.FieldsRebuilt()
	id := h.w.Records()[0].ID

	h.w.Rename(id, "Alpha")
	h.w.Annotate(id, "note")
	h.w.Restage(id, model.StageAdvancing)
	if got := h.w.FieldsRebuilt(); got != before {
		t.Fatalf("expected in-place edits to keep the field list; rebuilt %d -> %d", before, got)
	}
	if f := h.w.Fields()[0]; f.Name != "Alpha" || f.Note != "note" || f.Stage != model.StageAdvancing {
		t.Fatalf("expected field values to track the record; got %+v", f)
	}

	if _, err := h.w.Add(); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if got := h.w.FieldsRebuilt(); got != before+1 {
		t.Fatalf("expected add to rebuild the field list; got %d", got)
	}
}

func TestWidget_RenameEmptyFallsBackToPosition(t *testing.T) {
	t.Parallel()

	h := newHarness(t, defaults("A", "B", "C"))
	for pos, rec := range h.w.Records() {
		h.w.Rename(rec.ID, "")
		if got := h.w.Records()[pos].Name; got != model.PositionalName(pos) {
			t.Fatalf("position %d: expected %q; got %q", pos, model.PositionalName(pos), got)
		}
	}
	id := h.w.Records()[0].ID
	h.w.Rename(id, "  ")
	if got := h.w.Records()[0].Name; got != "  " {
		t.Fatalf("expected whitespace-only name to be kept; got %q", got)
	}
}

func TestWidget_AddAtCapacity(t *testing.T) {
	t.Parallel()

	h := newHarness(t, defaults("A", "B", "C", "D", "E", "F", "G", "H", "I"))
	if _, err := h.w.Add(); err != nil {
		t.Fatalf("expected the tenth add to succeed; got %v", err)
	}
	if h.w.Len() != store.MaxRecords {
		t.Fatalf("expected %d records; got %d", store.MaxRecords, h.w.Len())
	}
	before := h.w.Records()
	built := h.charts.built

	_, err := h.w.Add()
	if !errors.Is(err, store.ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded; got %v", err)
	}
	if diff := cmp.Diff(before, h.w.Records()); diff != "" {
		t.Fatalf("expected collection unchanged (-before +after):\n%s", diff)
	}
	if h.charts.built != built {
		t.Fatalf("expected no sync pass on a rejected add")
	}
	if diff := cmp.Diff([]string{CapacityNotice}, []string(*h.notices)); diff != "" {
		t.Fatalf("notices mismatch (-want +got):\n%s", diff)
	}
}

func TestWidget_ConfirmationGates(t *testing.T) {
	t.Parallel()

	h := newHarness(t, defaults("A", "B"))
	recs := h.w.Records()

	var prompts []string
	asked := ConfirmFunc(func(p string) bool { prompts = append(prompts, p); return false })
	if h.w.Remove(recs[0].ID, asked) {
		t.Fatalf("expected declined remove to be a no-op")
	}
	if h.w.Reset(asked) || h.w.Reset(nil) {
		t.Fatalf("expected declined reset to be a no-op")
	}
	if diff := cmp.Diff(recs, h.w.Records()); diff != "" {
		t.Fatalf("expected collection unchanged (-before +after):\n%s", diff)
	}
	if diff := cmp.Diff([]string{`Remove "A"?`, ResetPrompt}, prompts); diff != "" {
		t.Fatalf("prompts mismatch (-want +got):\n%s", diff)
	}

	h.w.Rename(recs[0].ID, "Renamed")
	h.w.Add()
	if !h.w.Reset(Confirmed) {
		t.Fatalf("expected confirmed reset to succeed")
	}
	got := h.w.Records()
	if diff := cmp.Diff([]string{"A", "B"}, names(got)); diff != "" {
		t.Fatalf("names mismatch after reset (-want +got):\n%s", diff)
	}
	if got[0].ID == recs[0].ID {
		t.Fatalf("expected reset to mint fresh ids")
	}
}

func TestWidget_StaleReferencesAreLoggedNoOps(t *testing.T) {
	t.Parallel()

	h := newHarness(t, defaults("A"))
	id := h.w.Records()[0].ID
	built := h.charts.built
	version := h.w.Version()

	h.w.Rename("fn-missing", "x")
	h.w.Annotate("fn-missing", "x")
	h.w.Restage(id, model.Stage(9))
	if h.w.Remove("fn-missing", Confirmed) {
		t.Fatalf("expected stale remove to report false")
	}

	if h.w.Version() != version || h.charts.built != built {
		t.Fatalf("expected defensive errors to leave state untouched")
	}
	entries := h.logs.FilterMessage("stale or invalid reference").All()
	if len(entries) != 4 {
		t.Fatalf("expected 4 defensive log entries; got %d", len(entries))
	}
	for _, e := range entries {
		if e.Level != zapcore.DPanicLevel {
			t.Fatalf("expected DPanic level; got %v", e.Level)
		}
	}
	if kind := entries[2].ContextMap()["kind"]; kind != store.InvalidArgument.String() {
		t.Fatalf("expected restage to log %q; got %v", store.InvalidArgument, kind)
	}
}

func TestWidget_DefensiveErrorsPanicUnderDevelopmentLogger(t *testing.T) {
	t.Parallel()

	core, _ := observer.New(zapcore.DebugLevel)
	w, err := New(Options{
		Defaults: defaults("A"),
		Charts:   &fakeCharts{},
		Logger:   zap.New(core, zap.Development()),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("expected DPanic to panic under the development logger")
		}
	}()
	w.Rename("fn-missing", "x")
}

func TestWidget_ChartFailureLeavesNoLiveChart(t *testing.T) {
	t.Parallel()

	h := newHarness(t, defaults("A", "B"))
	h.charts.fail = true
	id := h.w.Records()[0].ID
	h.w.Rename(id, "Alpha")

	if h.charts.live != 0 || h.w.Chart() != nil {
		t.Fatalf("expected zero live charts after a failed rebuild; got %d", h.charts.live)
	}
	if h.w.ChartErr() == nil {
		t.Fatalf("expected the rebuild error to be kept")
	}
	if got := h.w.Projection().Summary[0].Name; got != "Alpha" {
		t.Fatalf("expected projections to update despite chart failure; got %q", got)
	}
	if len(h.logs.FilterMessage("chart rebuild failed").All()) != 1 {
		t.Fatalf("expected the rebuild failure to be logged")
	}

	h.charts.fail = false
	h.w.Redraw(nil)
	if h.charts.live != 1 || h.w.ChartErr() != nil {
		t.Fatalf("expected redraw to recover; live=%d err=%v", h.charts.live, h.w.ChartErr())
	}
}

func TestWidget_RedrawSwapsFactory(t *testing.T) {
	t.Parallel()

	h := newHarness(t, defaults("A"))
	next := &fakeCharts{}
	h.w.Redraw(next)
	if h.charts.live != 0 || next.live != 1 {
		t.Fatalf("expected old chart destroyed and new one live; old=%d new=%d", h.charts.live, next.live)
	}
	h.w.Close()
	h.w.Close()
	if next.live != 0 {
		t.Fatalf("expected Close to destroy the chart")
	}
}

func TestWidget_Export(t *testing.T) {
	t.Parallel()

	core, _ := observer.New(zapcore.DebugLevel)
	var copied string
	arc := &fakeArchive{}
	n := &notices{}
	w, err := New(Options{
		Defaults:  defaults("Market"),
		Charts:    &fakeCharts{},
		Notifier:  n,
		Clipboard: export.ClipboardFunc(func(s string) error { copied = s; return nil }),
		Archive:   arc,
		Logger:    zap.New(core),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	id := w.Records()[0].ID
	w.Restage(id, model.StageAdvancing)
	w.Annotate(id, "Q3 push")

	text, err := w.Export(context.Background())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	want := "Divine H.A.L.O. Snapshot\nMarket: Advancing — Q3 push"
	if text != want || copied != want || w.Snapshot() != want {
		t.Fatalf("expected %q; got text=%q copied=%q", want, text, copied)
	}
	if diff := cmp.Diff([]string{want}, arc.texts); diff != "" {
		t.Fatalf("archive mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{CopiedNotice}, []string(*n)); diff != "" {
		t.Fatalf("notices mismatch (-want +got):\n%s", diff)
	}
}

func TestWidget_ExportClipboardFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	arc := &fakeArchive{err: errors.New("disk full")}
	n := &notices{}
	w, _ := New(Options{
		Defaults: defaults("A"),
		Charts:   &fakeCharts{},
		Notifier: n,
		Clipboard: export.ClipboardFunc(func(string) error {
			panic("clipboard denied")
		}),
		Archive: arc,
		Logger:  zap.New(core),
	})

	text, err := w.Export(context.Background())
	if !errors.Is(err, store.ErrClipboardUnavailable) {
		t.Fatalf("expected ErrClipboardUnavailable; got %v", err)
	}
	if !strings.HasPrefix(text, "Divine H.A.L.O. Snapshot") {
		t.Fatalf("expected snapshot text despite failure; got %q", text)
	}
	if diff := cmp.Diff([]string{CopyFailedNotes}, []string(*n)); diff != "" {
		t.Fatalf("notices mismatch (-want +got):\n%s", diff)
	}
	if len(logs.FilterMessage("snapshot archive failed").All()) != 1 {
		t.Fatalf("expected archive failure to be logged")
	}
}

func TestWidget_InstancesAreIndependent(t *testing.T) {
	t.Parallel()

	a := newHarness(t, defaults("A", "B"))
	b := newHarness(t, defaults("A", "B"))
	a.w.Remove(a.w.Records()[0].ID, Confirmed)
	if b.w.Len() != 2 || a.w.Len() != 1 {
		t.Fatalf("expected independent instances; a=%d b=%d", a.w.Len(), b.w.Len())
	}
}
