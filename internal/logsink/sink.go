// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logsink is the operator console model: an append-only list of
// timestamped, colour-classified records, optionally teed to per-step log
// files under the scratch logs/ directory.
package logsink

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// TimeLayout is the record timestamp format.
const TimeLayout = "15:04:05"

// Record is one console line.
type Record struct {
	Time  time.Time
	Text  string // repaired for display
	Class Class
}

// Stamp renders the HH:MM:SS prefix.
func (r Record) Stamp() string {
	return r.Time.Format(TimeLayout)
}

func (r Record) String() string {
	return "[" + r.Stamp() + "] " + r.Text
}

// Sink collects records. It is safe for concurrent use; records keep the
// order of Append calls.
type Sink struct {
	mu       sync.Mutex
	records  []Record
	now      func() time.Time
	onAppend func(Record)
	tee      *os.File
}

// New creates an empty sink.
func New() *Sink {
	return &Sink{now: time.Now}
}

// OnAppend registers the single listener called after every append, outside
// the sink lock.
func (s *Sink) OnAppend(fn func(Record)) {
	s.mu.Lock()
	s.onAppend = fn
	s.mu.Unlock()
}

// Append timestamps, repairs and classifies a line.
func (s *Sink) Append(text string) Record {
	text = strings.TrimRight(text, "\r\n")

	s.mu.Lock()
	now := s.now()
	shown := Repair(text)
	rec := Record{Time: now, Text: shown, Class: Classify(shown)}
	s.records = append(s.records, rec)
	if s.tee != nil {
		_, _ = fmt.Fprintf(s.tee, "[%s] %s\n", now.Format(TimeLayout), text)
	}
	fn := s.onAppend
	s.mu.Unlock()

	if fn != nil {
		fn(rec)
	}
	return rec
}

// Appendf formats and appends a line.
func (s *Sink) Appendf(format string, args ...any) Record {
	return s.Append(fmt.Sprintf(format, args...))
}

// Records returns a copy of all records.
func (s *Sink) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of records.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Clear drops every record. Log files are left alone.
func (s *Sink) Clear() {
	s.mu.Lock()
	s.records = nil
	s.mu.Unlock()
}

// BeginStep opens a log file for the step under dir and tees every following
// record to it until EndStep. A previous step's file is closed first.
func (s *Sink) BeginStep(dir string, index int, name string) (string, error) {
	s.EndStep()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating log directory: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	path := filepath.Join(dir, fmt.Sprintf("%s_%02d_%s.log", s.now().Format("20060102_150405"), index, slug(name)))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("opening step log: %w", err)
	}
	s.tee = f
	return path, nil
}

// EndStep closes the current step log, if any.
func (s *Sink) EndStep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tee != nil {
		_ = s.tee.Close()
		s.tee = nil
	}
}

func slug(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "step"
	}
	return b.String()
}
