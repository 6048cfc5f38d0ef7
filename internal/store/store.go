package store

import (
	"strings"

	"halo-cli/internal/model"
)

// MaxRecords caps the collection length.
const MaxRecords = 10

// Store owns the ordered collection of records for one widget instance.
//
// Store is not safe for concurrent use. Every operation completes before it
// returns, so a reader never observes a partially applied mutation.
type Store struct {
	records  []model.Record
	defaults []model.Default

	dirty   bool
	version uint64
}

// New returns a store initialized from defaults.
func New(defaults []model.Default) *Store {
	s := &Store{}
	s.Initialize(defaults)
	return s
}

// Initialize replaces any existing collection with fresh records built from defaults
// (stage Early, empty notes). Defaults beyond MaxRecords are ignored.
func (s *Store) Initialize(defaults []model.Default) {
	if len(defaults) > MaxRecords {
		defaults = defaults[:MaxRecords]
	}
	s.defaults = append([]model.Default(nil), defaults...)
	s.replaceAll()
}

// ResetToDefaults replaces the entire collection with fresh records built from the
// defaults captured by Initialize. Confirmation is the caller's concern.
func (s *Store) ResetToDefaults() {
	s.replaceAll()
}

func (s *Store) replaceAll() {
	next := make([]model.Record, 0, len(s.defaults))
	taken := map[string]bool{}
	for i, d := range s.defaults {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			name = model.PositionalName(i)
		}
		id := newRecordID(func(id string) bool { return taken[id] })
		taken[id] = true
		next = append(next, model.Record{
			ID:          id,
			Name:        name,
			Stage:       model.StageEarly,
			Placeholder: d.Placeholder,
		})
	}
	s.records = next
	s.touch()
}

func (s *Store) touch() {
	s.dirty = true
	s.version++
}

// Len returns the current collection length.
func (s *Store) Len() int { return len(s.records) }

// At returns the record at pos.
func (s *Store) At(pos int) (model.Record, bool) {
	if pos < 0 || pos >= len(s.records) {
		return model.Record{}, false
	}
	return s.records[pos], true
}

// Records returns a copy of the collection in order.
func (s *Store) Records() []model.Record {
	return append([]model.Record(nil), s.records...)
}

// Defaults returns a copy of the default set.
func (s *Store) Defaults() []model.Default {
	return append([]model.Default(nil), s.defaults...)
}

// Position resolves a record id to its current position.
func (s *Store) Position(id string) (int, bool) {
	for i := range s.records {
		if s.records[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// Dirty reports whether the collection changed since the last ClearDirty.
func (s *Store) Dirty() bool { return s.dirty }

func (s *Store) ClearDirty() { s.dirty = false }

// Version increases on every successful mutation.
func (s *Store) Version() uint64 { return s.version }

// Rename sets the name at pos. An empty name falls back to "Function {pos+1}".
// It reports false (and does nothing) when pos is out of bounds.
func (s *Store) Rename(pos int, name string) bool {
	if pos < 0 || pos >= len(s.records) {
		return false
	}
	if name == "" {
		name = model.PositionalName(pos)
	}
	s.records[pos].Name = name
	s.touch()
	return true
}

// Restage sets the stage at pos.
func (s *Store) Restage(pos int, stage model.Stage) error {
	if !stage.Valid() {
		return errAt("restage", InvalidArgument, pos)
	}
	if pos < 0 || pos >= len(s.records) {
		return errAt("restage", IndexOutOfRange, pos)
	}
	s.records[pos].Stage = stage
	s.touch()
	return nil
}

// Annotate replaces the note at pos. Empty notes are allowed.
func (s *Store) Annotate(pos int, note string) error {
	if pos < 0 || pos >= len(s.records) {
		return errAt("annotate", IndexOutOfRange, pos)
	}
	s.records[pos].Note = note
	s.touch()
	return nil
}

// Insert appends rec and returns it with its assigned id. The collection is left
// unchanged when it already holds MaxRecords entries.
func (s *Store) Insert(rec model.Record) (model.Record, error) {
	if len(s.records) >= MaxRecords {
		return model.Record{}, errAt("insert", CapacityExceeded, len(s.records))
	}
	if !rec.Stage.Valid() {
		rec.Stage = model.StageEarly
	}
	if strings.TrimSpace(rec.Name) == "" {
		rec.Name = model.PositionalName(len(s.records))
	}
	if _, taken := s.Position(rec.ID); rec.ID == "" || taken {
		rec.ID = newRecordID(func(id string) bool {
			_, ok := s.Position(id)
			return ok
		})
	}
	s.records = append(s.records, rec)
	s.touch()
	return rec, nil
}

// NewRecord returns the record "add" appends: a positional name, stage Early and
// the generic note placeholder.
func (s *Store) NewRecord() model.Record {
	return model.Record{
		Name:        model.PositionalName(len(s.records)),
		Stage:       model.StageEarly,
		Placeholder: model.DefaultNotePlaceholder,
	}
}

// RemoveAt removes the record at pos; later records shift down by one.
func (s *Store) RemoveAt(pos int) (model.Record, error) {
	if pos < 0 || pos >= len(s.records) {
		return model.Record{}, errAt("remove", IndexOutOfRange, pos)
	}
	rec := s.records[pos]
	s.records = append(s.records[:pos:pos], s.records[pos+1:]...)
	s.touch()
	return rec, nil
}

// RenameID is Rename addressed by id. An unknown id is a stale reference.
func (s *Store) RenameID(id, name string) error {
	pos, ok := s.Position(id)
	if !ok {
		return errID("rename", IndexOutOfRange, id)
	}
	s.Rename(pos, name)
	return nil
}

func (s *Store) RestageID(id string, stage model.Stage) error {
	if !stage.Valid() {
		return errID("restage", InvalidArgument, id)
	}
	pos, ok := s.Position(id)
	if !ok {
		return errID("restage", IndexOutOfRange, id)
	}
	return s.Restage(pos, stage)
}

func (s *Store) AnnotateID(id, note string) error {
	pos, ok := s.Position(id)
	if !ok {
		return errID("annotate", IndexOutOfRange, id)
	}
	return s.Annotate(pos, note)
}

func (s *Store) RemoveID(id string) (model.Record, error) {
	pos, ok := s.Position(id)
	if !ok {
		return model.Record{}, errID("remove", IndexOutOfRange, id)
	}
	return s.RemoveAt(pos)
}
