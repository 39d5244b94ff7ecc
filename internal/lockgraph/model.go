// Package lockgraph selects the threads and monitors of a snapshot that are
// worth drawing together and writes them as a graph description.
package lockgraph

import (
	"strconv"

	"github.com/thobe/thread-dump-analysis/pkg/model"
)

// Row is one line of a thread node's label. Stack frame rows are left
// aligned; monitor rows also carry a port that edges attach to.
type Row struct {
	Text  string `json:"text"`
	Frame bool   `json:"frame,omitempty"`
	Port  string `json:"port,omitempty"`
}

// Node represents one rendered thread.
type Node struct {
	ThreadID string `json:"thread_id"`
	Rows     []Row  `json:"rows"`

	// Extra marks threads pulled in only because they share a monitor
	// with a thread that matched the filter.
	Extra bool `json:"extra,omitempty"`
}

// Edge links a thread's stack frame to a monitor.
type Edge struct {
	ThreadID   string          `json:"thread_id"`
	Port       string          `json:"port"`
	FrameIndex int             `json:"frame_index"`
	MonitorID  string          `json:"monitor_id"`
	Kind       model.FrameKind `json:"kind"`
	Color      string          `json:"color"`
}

// Graph is the rendered closure of one snapshot.
type Graph struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Filter   string   `json:"filter,omitempty"`
	Nodes    []*Node  `json:"nodes"`
	Edges    []Edge   `json:"edges"`
	Monitors []string `json:"monitors"`
}

// Included returns the ids of threads that matched the filter.
func (g *Graph) Included() []string {
	return g.threadIDs(false)
}

// ExtraThreads returns the ids of threads pulled in through shared monitors.
func (g *Graph) ExtraThreads() []string {
	return g.threadIDs(true)
}

func (g *Graph) threadIDs(extra bool) []string {
	ids := make([]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.Extra == extra {
			ids = append(ids, n.ThreadID)
		}
	}
	return ids
}

// PortName returns the port of the frame at index.
func PortName(index int) string {
	return "l" + strconv.Itoa(index)
}
