package present

import (
	"errors"
	"fmt"

	"halo-cli/internal/model"
)

// Chart is a live chart instance owned by a Synchronizer.
type Chart interface {
	// Destroy releases the instance. A destroyed chart renders nothing.
	Destroy()
}

// ChartFactory constructs (and initially paints) a chart from a series.
type ChartFactory interface {
	NewChart(ChartSeries) (Chart, error)
}

// ChartFactoryFunc adapts a function to ChartFactory.
type ChartFactoryFunc func(ChartSeries) (Chart, error)

func (f ChartFactoryFunc) NewChart(s ChartSeries) (Chart, error) { return f(s) }

// ErrNoChartFactory is returned by Sync when the synchronizer has no factory.
var ErrNoChartFactory = errors.New("no chart factory")

// Synchronizer derives projections after each mutation and owns the chart instance.
//
// Every Sync destroys the live chart before constructing its replacement, so at
// most one chart is ever live. There is no partial-update path.
type Synchronizer struct {
	factory ChartFactory

	chart  Chart
	last   Projection
	fields []Field
	built  bool

	passes        int
	fieldsRebuilt int
}

func NewSynchronizer(factory ChartFactory) *Synchronizer {
	return &Synchronizer{factory: factory}
}

// Sync recomputes every projection from records and rebuilds the chart.
//
// The field list is rebuilt only for structural passes (initial, insert, remove,
// reset); in-place edits keep the existing field identities so inputs keep focus,
// while their values still track the records.
//
// When chart construction fails the synchronizer is left with no live chart and
// the error is returned; the projections are still updated.
func (s *Synchronizer) Sync(records []model.Record, structural bool) (Projection, error) {
	p := Project(records)
	s.passes++
	if structural || !s.built || len(s.fields) != len(p.Fields) {
		s.fieldsRebuilt++
		s.built = true
	}
	s.fields = p.Fields
	s.last = p
	return p, s.rebuildChart(p.Chart)
}

func (s *Synchronizer) rebuildChart(series ChartSeries) (err error) {
	if s.chart != nil {
		s.chart.Destroy()
		s.chart = nil
	}
	if s.factory == nil {
		return ErrNoChartFactory
	}
	defer func() {
		if r := recover(); r != nil {
			s.chart = nil
			err = fmt.Errorf("chart construction panicked: %v", r)
		}
	}()
	c, err := s.factory.NewChart(series)
	if err != nil {
		return fmt.Errorf("chart construction: %w", err)
	}
	s.chart = c
	return nil
}

// SetFactory swaps the chart factory (e.g. after a resize). It takes effect on
// the next Sync.
func (s *Synchronizer) SetFactory(f ChartFactory) { s.factory = f }

// Chart returns the live chart, or nil. Callers must not hold it across a Sync.
func (s *Synchronizer) Chart() Chart { return s.chart }

// Projection returns the projection computed by the last Sync.
func (s *Synchronizer) Projection() Projection { return s.last }

// Fields returns the current field list.
func (s *Synchronizer) Fields() []Field { return append([]Field(nil), s.fields...) }

// Passes counts Sync calls.
func (s *Synchronizer) Passes() int { return s.passes }

// FieldsRebuilt counts passes that rebuilt the field list.
func (s *Synchronizer) FieldsRebuilt() int { return s.fieldsRebuilt }

// Close destroys the live chart.
func (s *Synchronizer) Close() {
	if s.chart != nil {
		s.chart.Destroy()
		s.chart = nil
	}
}
