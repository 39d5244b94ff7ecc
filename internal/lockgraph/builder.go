package lockgraph

import (
	"github.com/thobe/thread-dump-analysis/pkg/model"
)

// Build computes the lock graph of a snapshot.
//
// Threads that have a state and match filter are included. Every monitor
// owned or awaited by an included thread is drawn with all of its links,
// and the other threads on those links are added as extra nodes. The
// expansion stops there: monitors reachable only through extra threads are
// not drawn. An empty filter matches every thread.
func Build(snapshot *model.Snapshot, filter string) *Graph {
	g := &Graph{
		Name:   snapshot.BaseName(),
		Label:  snapshot.Info,
		Filter: filter,
	}

	included := make(map[*model.ThreadRecord]bool)
	for _, t := range snapshot.Threads {
		if !t.IsSystemThread() && t.Matches(filter) {
			included[t] = true
		}
	}

	extra := make(map[*model.ThreadRecord]bool)
	for _, m := range snapshot.Monitors.Monitors() {
		if !touches(m, included) {
			continue
		}
		g.Monitors = append(g.Monitors, m.ID)
		for _, set := range []*model.LinkSet{m.Owners, m.Waiters} {
			for _, link := range set.Links() {
				g.Edges = append(g.Edges, newEdge(link))
				if !included[link.Thread] {
					extra[link.Thread] = true
				}
			}
		}
	}

	for _, t := range snapshot.Threads {
		if included[t] {
			g.Nodes = append(g.Nodes, newNode(t, false))
		}
	}
	for _, t := range snapshot.Threads {
		if extra[t] {
			g.Nodes = append(g.Nodes, newNode(t, true))
		}
	}
	return g
}

func touches(m *model.MonitorState, included map[*model.ThreadRecord]bool) bool {
	for _, set := range []*model.LinkSet{m.Owners, m.Waiters} {
		for _, link := range set.Links() {
			if included[link.Thread] {
				return true
			}
		}
	}
	return false
}

func newEdge(link *model.MonitorLink) Edge {
	frame := link.Thread.Frames[link.FrameIndex]
	return Edge{
		ThreadID:   link.Thread.ID,
		Port:       PortName(link.FrameIndex),
		FrameIndex: link.FrameIndex,
		MonitorID:  link.Monitor.ID,
		Kind:       link.Kind,
		Color:      frame.Color(),
	}
}

func newNode(t *model.ThreadRecord, extra bool) *Node {
	n := &Node{ThreadID: t.ID, Extra: extra}
	n.Rows = append(n.Rows, Row{Text: t.Info})
	if !t.IsSystemThread() {
		n.Rows = append(n.Rows, Row{Text: t.StateLine()})
	}
	for i, f := range t.Frames {
		row := Row{Text: f.String(), Frame: true}
		if f.IsMonitor() {
			row.Port = PortName(i)
		}
		n.Rows = append(n.Rows, row)
	}
	return n
}
