package model

import (
	"fmt"
	"io"
	"strings"
)

// UnknownHeader is used for date and info when a snapshot has no header chunk.
const UnknownHeader = "unknown"

// Snapshot is one point-in-time capture of all thread stacks.
// It is immutable after construction.
type Snapshot struct {
	Date     string
	Info     string
	Threads  []*ThreadRecord
	Monitors *MonitorRegistry
}

// NewSnapshot creates a snapshot and builds its monitor registry.
func NewSnapshot(date, info string, threads []*ThreadRecord) *Snapshot {
	return &Snapshot{
		Date:     date,
		Info:     info,
		Threads:  threads,
		Monitors: BuildMonitorRegistry(threads),
	}
}

// String returns a one-line summary of the snapshot.
func (s *Snapshot) String() string {
	return fmt.Sprintf("%s - %d threads", s.Date, len(s.Threads))
}

// SystemThreadCount returns the number of threads without a state.
func (s *Snapshot) SystemThreadCount() int {
	n := 0
	for _, t := range s.Threads {
		if t.IsSystemThread() {
			n++
		}
	}
	return n
}

// ContendedMonitors returns monitors that are owned by one thread and waited on by another.
func (s *Snapshot) ContendedMonitors() []*MonitorState {
	var out []*MonitorState
	for _, m := range s.Monitors.Monitors() {
		if m.IsContended() {
			out = append(out, m)
		}
	}
	return out
}

// BaseName derives a file name stem from the snapshot date.
func (s *Snapshot) BaseName() string {
	return strings.ReplaceAll(s.Date, " ", "_")
}

// GraphFileName returns the file name for the snapshot's graph description.
func (s *Snapshot) GraphFileName() string {
	return s.BaseName() + ".gv"
}

// Print writes the text report: date, info, a blank line, then every
// thread followed by a blank line.
func (s *Snapshot) Print(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%s\n%s\n\n", s.Date, s.Info); err != nil {
		return err
	}
	for _, t := range s.Threads {
		if err := t.Print(w); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

// PrintLocks writes the lock matrix: one line per monitor, one two-character
// cell per thread. "o " marks an owner, "x " a waiter.
func (s *Snapshot) PrintLocks(w io.Writer) error {
	for _, m := range s.Monitors.Monitors() {
		if _, err := io.WriteString(w, s.lockRow(m)+"\n"); err != nil {
			return err
		}
	}
	return nil
}

func (s *Snapshot) lockRow(m *MonitorState) string {
	var sb strings.Builder
	sb.WriteString(m.ID)
	sb.WriteString(": ")
	for _, t := range s.Threads {
		switch {
		case m.Owners.Contains(t):
			sb.WriteString("o ")
		case m.Waiters.Contains(t):
			sb.WriteString("x ")
		default:
			sb.WriteString("  ")
		}
	}
	return sb.String()
}
