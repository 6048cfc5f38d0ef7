package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Stage is the ordinal maturity level assigned to a function/pillar.
type Stage int

const (
	StageEarly       Stage = 1
	StageAdvancing   Stage = 2
	StageEstablished Stage = 3
)

// Stages lists every valid stage in display order.
var Stages = []Stage{StageEarly, StageAdvancing, StageEstablished}

func (s Stage) Valid() bool {
	return s >= StageEarly && s <= StageEstablished
}

// Label returns the display label for a stage, or "" for an invalid one.
func (s Stage) Label() string {
	switch s {
	case StageEarly:
		return "Early"
	case StageAdvancing:
		return "Advancing"
	case StageEstablished:
		return "Established"
	default:
		return ""
	}
}

func (s Stage) String() string {
	if l := s.Label(); l != "" {
		return l
	}
	return "Stage(" + strconv.Itoa(int(s)) + ")"
}

// ParseStage accepts a numeric stage ("1".."3") or a label (case-insensitive).
func ParseStage(s string) (Stage, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		st := Stage(n)
		if !st.Valid() {
			return 0, fmt.Errorf("invalid stage: %d", n)
		}
		return st, nil
	}
	for _, st := range Stages {
		if strings.EqualFold(st.Label(), s) {
			return st, nil
		}
	}
	return 0, fmt.Errorf("invalid stage: %q", s)
}

// DefaultNotePlaceholder is shown for records created without a hint.
const DefaultNotePlaceholder = "KPIs, milestones, blockers"

// Record is one function/pillar in the collection.
type Record struct {
	// ID is a stable identity assigned at creation. Positions are resolved
	// from the collection at render time and never stored on a record.
	ID          string `json:"id"`
	Name        string `json:"name"`
	Stage       Stage  `json:"stage"`
	Note        string `json:"note"`
	Placeholder string `json:"placeholder,omitempty"`
}

// NoteHint returns the placeholder to display when the note is empty.
func (r Record) NoteHint() string {
	if strings.TrimSpace(r.Placeholder) == "" {
		return DefaultNotePlaceholder
	}
	return r.Placeholder
}

// Default describes one entry of a default entity set.
type Default struct {
	Name        string `json:"name" yaml:"name"`
	Placeholder string `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
}

// PositionalName is the fallback name for the record at pos (0-based).
func PositionalName(pos int) string {
	return "Function " + strconv.Itoa(pos+1)
}
