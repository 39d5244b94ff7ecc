// Package threaddump parses textual JVM thread dumps into snapshots.
//
// Input is line oriented. Blank lines separate chunks; a two-line chunk whose
// second line starts with "Full thread dump" is a header that opens a new
// snapshot, every other chunk is a candidate thread record:
//
//	2024-01-01 12:00:00
//	Full thread dump Java HotSpot(TM) 64-Bit Server VM:
//
//	"main" #1 prio=5 tid=0x00007f runnable
//	   java.lang.Thread.State: BLOCKED (on object monitor)
//	        at com.example.Foo.bar(Foo.java:10)
//	        - waiting to lock <0x1> (a java.lang.Object)
package threaddump

import (
	"strings"

	"github.com/thobe/thread-dump-analysis/pkg/errors"
	"github.com/thobe/thread-dump-analysis/pkg/model"
)

const localVariablePrefix = "Local Variable:"

// ClassifyFrame turns one trimmed, non-empty stack line into a frame.
// It returns ok=false for lines that carry no frame (heap dump root
// markers) and an ErrMalformedFrame error for unrecognized lines.
func ClassifyFrame(line string) (frame model.StackFrame, ok bool, err error) {
	switch {
	case strings.HasPrefix(line, "at"):
		return model.NewMethodFrame(cut(line, 3)), true, nil

	case strings.HasPrefix(line, "-"):
		if len(line) < 2 {
			return frame, false, errors.ErrMalformedFrame.WithDetail(line)
		}
		rest := line[2:]
		switch {
		case strings.HasPrefix(rest, "lock"):
			id, err := monitorID(line, rest)
			if err != nil {
				return frame, false, err
			}
			return model.NewLockFrame(id, rest), true, nil
		case strings.HasPrefix(rest, "park"), strings.HasPrefix(rest, "wait"):
			id, err := monitorID(line, rest)
			if err != nil {
				return frame, false, err
			}
			return model.NewWaitFrame(id, rest), true, nil
		}

	case strings.HasPrefix(line, localVariablePrefix):
		return frame, false, nil
	}

	return frame, false, errors.ErrMalformedFrame.WithDetail(line)
}

// ExtractMonitorID returns the text strictly between the first '<' and the first '>'.
func ExtractMonitorID(s string) (string, bool) {
	open := strings.IndexByte(s, '<')
	closing := strings.IndexByte(s, '>')
	if open < 0 || closing < 0 || closing < open {
		return "", false
	}
	return s[open+1 : closing], true
}

func monitorID(line, rest string) (string, error) {
	id, ok := ExtractMonitorID(rest)
	if !ok {
		return "", errors.ErrMalformedFrame.WithDetail(line)
	}
	return id, nil
}

// cut drops the first n bytes of s, returning "" when s is shorter.
func cut(s string, n int) string {
	if len(s) <= n {
		return ""
	}
	return s[n:]
}
