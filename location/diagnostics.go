// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package location

import (
	"log"
	"sync"
	"time"
)

// Diagnostic is one (provider, operation, error) observation.
type Diagnostic struct {
	Provider  Source    `json:"provider"`
	Operation string    `json:"operation"`
	Kind      ErrorKind `json:"-"`
	KindName  string    `json:"kind"`
	Detail    string    `json:"detail"`
	At        time.Time `json:"at"`
}

// DiagnosticsSink receives provider failures. It never affects control flow.
type DiagnosticsSink interface {
	Report(d Diagnostic)
}

func newDiagnostic(provider Source, op string, err error) Diagnostic {
	kind := KindOf(err)

	d := Diagnostic{
		Provider:  provider,
		Operation: op,
		Kind:      kind,
		KindName:  kind.String(),
		At:        time.Now(),
	}
	if err != nil {
		d.Detail = err.Error()
	}

	return d
}

// LogSink writes diagnostics through the standard logger.
// Unavailable providers, empty answers and cancelled calls are only logged
// when Verbose is set.
type LogSink struct {
	Verbose bool
}

// Report implements DiagnosticsSink.
func (s LogSink) Report(d Diagnostic) {
	if !s.Verbose && (d.Kind == ProviderUnavailable || d.Kind == NoResults || d.Kind == Canceled) {
		return
	}

	log.Printf("%s/%s %s: %s", d.Provider, d.Operation, d.KindName, d.Detail)
}

// RecordingSink keeps the last Size diagnostics in memory.
type RecordingSink struct {
	Size int

	mu      sync.Mutex
	entries []Diagnostic
}

// NewRecordingSink returns a sink retaining at most size entries.
func NewRecordingSink(size int) *RecordingSink {
	return &RecordingSink{Size: size}
}

// Report implements DiagnosticsSink.
func (s *RecordingSink) Report(d Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, d)
	if s.Size > 0 && len(s.entries) > s.Size {
		s.entries = s.entries[len(s.entries)-s.Size:]
	}
}

// Entries returns a copy of the retained diagnostics, oldest first.
func (s *RecordingSink) Entries() []Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Diagnostic, len(s.entries))
	copy(out, s.entries)

	return out
}

// MultiSink fans a report out to several sinks.
type MultiSink []DiagnosticsSink

// Report implements DiagnosticsSink.
func (m MultiSink) Report(d Diagnostic) {
	for _, s := range m {
		if s != nil {
			s.Report(d)
		}
	}
}
