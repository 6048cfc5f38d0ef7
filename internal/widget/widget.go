package widget

import (
	"context"
	"errors"
	"fmt"

	"halo-cli/internal/archive"
	"halo-cli/internal/export"
	"halo-cli/internal/model"
	"halo-cli/internal/present"
	"halo-cli/internal/store"

	"go.uber.org/zap"
)

// User-facing messages.
const (
	CapacityNotice  = "You can track up to 10 functions."
	ResetPrompt     = "Reset to default functions?"
	CopiedNotice    = "Snapshot copied to clipboard."
	CopyFailedNotes = "Couldn't copy the snapshot: clipboard unavailable."
)

// RemovePrompt is the confirmation shown before removing rec.
func RemovePrompt(rec model.Record) string {
	return fmt.Sprintf("Remove %q?", rec.Name)
}

// Notifier surfaces blocking, non-fatal notices to the user.
type Notifier interface {
	Notify(msg string)
}

type NotifierFunc func(string)

func (f NotifierFunc) Notify(msg string) { f(msg) }

// Confirmer gates destructive operations.
type Confirmer interface {
	Confirm(prompt string) bool
}

type ConfirmFunc func(string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

var (
	// Confirmed is passed by front ends that already resolved their own confirmation UI.
	Confirmed Confirmer = ConfirmFunc(func(string) bool { return true })
	Declined  Confirmer = ConfirmFunc(func(string) bool { return false })
)

// Archiver records exported snapshots. *archive.Archive implements it.
type Archiver interface {
	Append(ctx context.Context, text string, records int) (archive.Entry, error)
}

type Options struct {
	Defaults  []model.Default
	Charts    present.ChartFactory
	Notifier  Notifier
	Clipboard export.Clipboard
	Archive   Archiver
	Logger    *zap.Logger
}

// Widget is one self-assessment instance: an entity store plus the synchronizer
// that owns its chart. Each operation applies exactly one store mutation and then
// exactly one synchronizer pass.
//
// Widget is not safe for concurrent use; callers serialize access.
type Widget struct {
	store     *store.Store
	sync      *present.Synchronizer
	notifier  Notifier
	clipboard export.Clipboard
	archive   Archiver
	log       *zap.Logger

	proj     present.Projection
	chartErr error
	closed   bool
}

var ErrNoCharts = errors.New("widget: chart factory required")

// New constructs a widget from opts and performs the initial paint.
func New(opts Options) (*Widget, error) {
	if opts.Charts == nil {
		return nil, ErrNoCharts
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	w := &Widget{
		store:     store.New(opts.Defaults),
		sync:      present.NewSynchronizer(opts.Charts),
		notifier:  opts.Notifier,
		clipboard: opts.Clipboard,
		archive:   opts.Archive,
		log:       log,
	}
	w.resync(true)
	return w, nil
}

func (w *Widget) resync(structural bool) {
	proj, err := w.sync.Sync(w.store.Records(), structural)
	w.store.ClearDirty()
	w.proj = proj
	w.chartErr = err
	if err != nil {
		w.log.Error("chart rebuild failed", zap.Error(err), zap.Int("axes", proj.Chart.Axes()))
	}
}

// defensive logs a view/model synchronization bug. Under the development logger
// DPanic panics; in production it only logs and the operation is a no-op.
func (w *Widget) defensive(op string, err error) {
	w.log.DPanic("stale or invalid reference",
		zap.String("op", op),
		zap.Stringer("kind", store.KindOf(err)),
		zap.Error(err),
	)
}

func (w *Widget) notify(msg string) {
	if w.notifier != nil {
		w.notifier.Notify(msg)
	}
}

// Rename sets the name of record id; an empty name falls back to its positional name.
func (w *Widget) Rename(id, name string) {
	if err := w.store.RenameID(id, name); err != nil {
		w.defensive("rename", err)
		return
	}
	w.resync(false)
}

// Restage sets the stage of record id.
func (w *Widget) Restage(id string, stage model.Stage) {
	if err := w.store.RestageID(id, stage); err != nil {
		w.defensive("restage", err)
		return
	}
	w.resync(false)
}

// Annotate replaces the note of record id.
func (w *Widget) Annotate(id, note string) {
	if err := w.store.AnnotateID(id, note); err != nil {
		w.defensive("annotate", err)
		return
	}
	w.resync(false)
}

// Add appends a new record. At capacity the user is notified, the collection is
// left unchanged, and the CapacityExceeded error is returned.
func (w *Widget) Add() (model.Record, error) {
	rec, err := w.store.Insert(w.store.NewRecord())
	if err != nil {
		if errors.Is(err, store.ErrCapacityExceeded) {
			w.notify(CapacityNotice)
		}
		w.log.Info("add rejected", zap.Error(err), zap.Int("len", w.store.Len()))
		return model.Record{}, err
	}
	w.resync(true)
	return rec, nil
}

// Remove deletes record id once c confirms. It reports whether anything was removed.
func (w *Widget) Remove(id string, c Confirmer) bool {
	pos, ok := w.store.Position(id)
	if !ok {
		w.defensive("remove", &store.Error{Kind: store.IndexOutOfRange, Op: "remove", Pos: -1, ID: id})
		return false
	}
	rec, _ := w.store.At(pos)
	if c == nil || !c.Confirm(RemovePrompt(rec)) {
		return false
	}
	if _, err := w.store.RemoveAt(pos); err != nil {
		w.defensive("remove", err)
		return false
	}
	w.resync(true)
	return true
}

// Reset replaces the collection with fresh defaults once c confirms.
func (w *Widget) Reset(c Confirmer) bool {
	if c == nil || !c.Confirm(ResetPrompt) {
		return false
	}
	w.store.ResetToDefaults()
	w.resync(true)
	return true
}

// Export copies the snapshot to the clipboard and archives it when an archive is
// configured. Clipboard failures are reported as ClipboardUnavailable and through
// the notifier; they never panic past this call.
func (w *Widget) Export(ctx context.Context) (string, error) {
	return w.ExportTo(ctx, w.clipboard)
}

// ExportTo is Export with a per-call clipboard (e.g. the requesting browser).
func (w *Widget) ExportTo(ctx context.Context, cb export.Clipboard) (string, error) {
	records := w.store.Records()
	text, err := export.Copy(cb, records)
	if err != nil {
		w.log.Warn("snapshot export failed", zap.Error(err))
		w.notify(CopyFailedNotes)
	} else {
		w.notify(CopiedNotice)
	}
	if w.archive != nil {
		if _, aerr := w.archive.Append(ctx, text, len(records)); aerr != nil {
			w.log.Warn("snapshot archive failed", zap.Error(aerr))
		}
	}
	return text, err
}

// Redraw rebuilds the chart with a new factory (e.g. after a resize) without
// mutating the collection.
func (w *Widget) Redraw(f present.ChartFactory) {
	if f != nil {
		w.sync.SetFactory(f)
	}
	w.resync(false)
}

// Projection returns the projection of the last pass.
func (w *Widget) Projection() present.Projection { return w.proj }

// Fields returns the synchronizer's field list.
func (w *Widget) Fields() []present.Field { return w.sync.Fields() }

// FieldsRebuilt counts passes that rebuilt the field list.
func (w *Widget) FieldsRebuilt() int { return w.sync.FieldsRebuilt() }

// Chart returns the live chart for painting. Do not retain it across operations.
func (w *Widget) Chart() present.Chart { return w.sync.Chart() }

// ChartErr returns the error of the last chart rebuild, if any.
func (w *Widget) ChartErr() error { return w.chartErr }

func (w *Widget) Records() []model.Record { return w.store.Records() }

func (w *Widget) Len() int { return w.store.Len() }

func (w *Widget) Version() uint64 { return w.store.Version() }

// Snapshot returns the plain-text export without touching the clipboard.
func (w *Widget) Snapshot() string { return export.Snapshot(w.store.Records()) }

// Close destroys the chart. The widget must not be used afterwards.
func (w *Widget) Close() {
	if w.closed {
		return
	}
	w.closed = true
	w.sync.Close()
}
