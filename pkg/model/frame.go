// Package model defines the core data structures used throughout the application.
package model

import "strings"

// FrameKind represents the kind of a stack frame line.
type FrameKind int

const (
	FrameKindMethod FrameKind = iota // "at ..." call-stack line
	FrameKindLock                    // "- locked <id>" ownership line
	FrameKindWait                    // "- waiting on <id>" / "- parking to wait for <id>"
)

// String returns the string representation of FrameKind.
func (k FrameKind) String() string {
	switch k {
	case FrameKindMethod:
		return "method"
	case FrameKindLock:
		return "lock"
	case FrameKindWait:
		return "wait"
	default:
		return "unknown"
	}
}

// StackFrame is one typed line of a thread's stack.
//
// For method frames Text is the line without its leading "at ".
// For lock and wait frames Text is the line without its leading "- "
// and MonitorID holds the text between the first '<' and the first '>'.
type StackFrame struct {
	Kind      FrameKind `json:"kind"`
	Text      string    `json:"text"`
	MonitorID string    `json:"monitor_id,omitempty"`
}

// NewMethodFrame creates a method frame.
func NewMethodFrame(text string) StackFrame {
	return StackFrame{Kind: FrameKindMethod, Text: text}
}

// NewLockFrame creates a frame for a monitor held by the thread.
func NewLockFrame(monitorID, text string) StackFrame {
	return StackFrame{Kind: FrameKindLock, Text: text, MonitorID: monitorID}
}

// NewWaitFrame creates a frame for a monitor the thread is waiting on.
func NewWaitFrame(monitorID, text string) StackFrame {
	return StackFrame{Kind: FrameKindWait, Text: text, MonitorID: monitorID}
}

// IsMonitor reports whether the frame references a monitor.
func (f StackFrame) IsMonitor() bool {
	return f.Kind == FrameKindLock || f.Kind == FrameKindWait
}

// Matches reports whether the frame matches a filter string.
// Only method frames can match.
func (f StackFrame) Matches(filter string) bool {
	if f.Kind != FrameKindMethod {
		return false
	}
	return strings.Contains(f.Text, filter)
}

// String renders the frame the way it appears in a thread dump.
func (f StackFrame) String() string {
	if f.Kind == FrameKindMethod {
		return "at " + f.Text
	}
	return " - " + f.Text
}

// Color returns the graph edge color for monitor frames.
func (f StackFrame) Color() string {
	switch f.Kind {
	case FrameKindLock:
		return "green"
	case FrameKindWait:
		return "red"
	default:
		return ""
	}
}
