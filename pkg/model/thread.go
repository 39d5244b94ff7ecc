package model

import (
	"fmt"
	"io"
)

// ThreadState is the lifecycle state of a JVM thread.
// The zero value means the record carries no state line.
type ThreadState string

const (
	ThreadStateNone         ThreadState = ""
	ThreadStateNew          ThreadState = "NEW"
	ThreadStateRunnable     ThreadState = "RUNNABLE"
	ThreadStateBlocked      ThreadState = "BLOCKED"
	ThreadStateWaiting      ThreadState = "WAITING"
	ThreadStateTimedWaiting ThreadState = "TIMED_WAITING"
	ThreadStateTerminated   ThreadState = "TERMINATED"
)

// StateLinePrefix starts the line that carries a thread's state.
const StateLinePrefix = "java.lang.Thread.State:"

// ParseThreadState parses a state name. Names are case-sensitive.
func ParseThreadState(s string) (ThreadState, bool) {
	switch ThreadState(s) {
	case ThreadStateNew, ThreadStateRunnable, ThreadStateBlocked,
		ThreadStateWaiting, ThreadStateTimedWaiting, ThreadStateTerminated:
		return ThreadState(s), true
	default:
		return ThreadStateNone, false
	}
}

// ThreadRecord is one thread parsed from a snapshot.
type ThreadRecord struct {
	// ID is the quoted display name, e.g. `"main"`.
	ID string `json:"id"`

	// Info is the full first line of the thread chunk.
	Info string `json:"info"`

	State        ThreadState  `json:"state,omitempty"`
	StateComment string       `json:"state_comment,omitempty"`
	Frames       []StackFrame `json:"frames,omitempty"`
}

// IsSystemThread reports whether the record has no state (a one-line chunk).
func (t *ThreadRecord) IsSystemThread() bool {
	return t.State == ThreadStateNone
}

// Matches reports whether the thread matches the filter.
// An empty filter matches every thread.
func (t *ThreadRecord) Matches(filter string) bool {
	if filter == "" {
		return true
	}
	for _, f := range t.Frames {
		if f.Matches(filter) {
			return true
		}
	}
	return false
}

// StateLine renders the state line without indentation, or "" for system threads.
func (t *ThreadRecord) StateLine() string {
	if t.IsSystemThread() {
		return ""
	}
	line := StateLinePrefix + " " + string(t.State)
	if t.StateComment != "" {
		line += " " + t.StateComment
	}
	return line
}

// Print writes the thread in thread dump text form.
func (t *ThreadRecord) Print(w io.Writer) error {
	if _, err := fmt.Fprintln(w, t.Info); err != nil {
		return err
	}
	if !t.IsSystemThread() {
		if _, err := fmt.Fprintln(w, "  "+t.StateLine()); err != nil {
			return err
		}
	}
	for _, f := range t.Frames {
		if _, err := fmt.Fprintln(w, "    "+f.String()); err != nil {
			return err
		}
	}
	return nil
}
