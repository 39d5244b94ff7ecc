package model

import "time"

// MonitorSummary describes one monitor of a snapshot.
type MonitorSummary struct {
	ID        string   `json:"id" yaml:"id"`
	Owners    []string `json:"owners" yaml:"owners"`
	Waiters   []string `json:"waiters" yaml:"waiters"`
	Contended bool     `json:"contended" yaml:"contended"`
}

// SnapshotSummary is the serializable overview of one snapshot.
type SnapshotSummary struct {
	Index             int              `json:"index" yaml:"index"`
	Date              string           `json:"date" yaml:"date"`
	Info              string           `json:"info" yaml:"info"`
	ThreadCount       int              `json:"thread_count" yaml:"thread_count"`
	SystemThreadCount int              `json:"system_thread_count" yaml:"system_thread_count"`
	MonitorCount      int              `json:"monitor_count" yaml:"monitor_count"`
	Contended         []MonitorSummary `json:"contended,omitempty" yaml:"contended,omitempty"`
	GraphPath         string           `json:"graph_path,omitempty" yaml:"graph_path,omitempty"`
	ReportPath        string           `json:"report_path,omitempty" yaml:"report_path,omitempty"`
}

// Summarize builds the summary of the snapshot at the given stream index.
func (s *Snapshot) Summarize(index int) SnapshotSummary {
	summary := SnapshotSummary{
		Index:             index,
		Date:              s.Date,
		Info:              s.Info,
		ThreadCount:       len(s.Threads),
		SystemThreadCount: s.SystemThreadCount(),
		MonitorCount:      s.Monitors.Len(),
	}
	for _, m := range s.ContendedMonitors() {
		summary.Contended = append(summary.Contended, m.Summarize())
	}
	return summary
}

// Summarize lists the owning and waiting thread ids of the monitor.
func (m *MonitorState) Summarize() MonitorSummary {
	return MonitorSummary{
		ID:        m.ID,
		Owners:    linkThreadIDs(m.Owners),
		Waiters:   linkThreadIDs(m.Waiters),
		Contended: m.IsContended(),
	}
}

func linkThreadIDs(s *LinkSet) []string {
	ids := make([]string, 0, s.Len())
	for _, l := range s.Links() {
		ids = append(ids, l.Thread.ID)
	}
	return ids
}

// AnalysisResult is the outcome of analyzing one thread dump source.
type AnalysisResult struct {
	Source      string            `json:"source" yaml:"source"`
	AnalyzedAt  time.Time         `json:"analyzed_at" yaml:"analyzed_at"`
	Filter      string            `json:"filter,omitempty" yaml:"filter,omitempty"`
	Snapshots   []SnapshotSummary `json:"snapshots" yaml:"snapshots"`
	ParseErrors []string          `json:"parse_errors,omitempty" yaml:"parse_errors,omitempty"`
}

// ContendedCount returns the number of contended monitors across all snapshots.
func (r *AnalysisResult) ContendedCount() int {
	n := 0
	for _, s := range r.Snapshots {
		n += len(s.Contended)
	}
	return n
}

// StoredSnapshot is a snapshot summary persisted in the history database.
type StoredSnapshot struct {
	ID        int64           `json:"id" yaml:"id"`
	Source    string          `json:"source" yaml:"source"`
	CreatedAt time.Time       `json:"created_at" yaml:"created_at"`
	Summary   SnapshotSummary `json:"summary" yaml:"summary"`
}
