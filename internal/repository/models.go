package repository

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/thobe/thread-dump-analysis/pkg/model"
)

// SnapshotRecord represents the snapshot_records table.
type SnapshotRecord struct {
	ID                int64           `gorm:"column:id;primaryKey;autoIncrement"`
	Source            string          `gorm:"column:source;type:varchar(512);index"`
	StreamIndex       int             `gorm:"column:stream_index"`
	Date              string          `gorm:"column:date;type:varchar(128)"`
	Info              string          `gorm:"column:info;type:text"`
	ThreadCount       int             `gorm:"column:thread_count"`
	SystemThreadCount int             `gorm:"column:system_thread_count"`
	MonitorCount      int             `gorm:"column:monitor_count"`
	ContendedCount    int             `gorm:"column:contended_count"`
	GraphURL          string          `gorm:"column:graph_url;type:varchar(1024)"`
	ReportURL         string          `gorm:"column:report_url;type:varchar(1024)"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	Monitors          []MonitorRecord `gorm:"foreignKey:SnapshotID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for SnapshotRecord.
func (SnapshotRecord) TableName() string {
	return "snapshot_records"
}

// MonitorRecord represents the monitor_records table. Only contended
// monitors are stored.
type MonitorRecord struct {
	ID         int64      `gorm:"column:id;primaryKey;autoIncrement"`
	SnapshotID int64      `gorm:"column:snapshot_id;index"`
	MonitorID  string     `gorm:"column:monitor_id;type:varchar(128)"`
	Owners     StringList `gorm:"column:owners;type:text"`
	Waiters    StringList `gorm:"column:waiters;type:text"`
}

// TableName returns the table name for MonitorRecord.
func (MonitorRecord) TableName() string {
	return "monitor_records"
}

// newSnapshotRecord converts a summary into its rows.
func newSnapshotRecord(source string, s model.SnapshotSummary) *SnapshotRecord {
	record := &SnapshotRecord{
		Source:            source,
		StreamIndex:       s.Index,
		Date:              s.Date,
		Info:              s.Info,
		ThreadCount:       s.ThreadCount,
		SystemThreadCount: s.SystemThreadCount,
		MonitorCount:      s.MonitorCount,
		ContendedCount:    len(s.Contended),
		GraphURL:          s.GraphPath,
		ReportURL:         s.ReportPath,
	}
	for _, m := range s.Contended {
		record.Monitors = append(record.Monitors, MonitorRecord{
			MonitorID: m.ID,
			Owners:    StringList(m.Owners),
			Waiters:   StringList(m.Waiters),
		})
	}
	return record
}

// ToModel converts SnapshotRecord to model.StoredSnapshot.
func (r *SnapshotRecord) ToModel() *model.StoredSnapshot {
	stored := &model.StoredSnapshot{
		ID:        r.ID,
		Source:    r.Source,
		CreatedAt: r.CreatedAt,
		Summary: model.SnapshotSummary{
			Index:             r.StreamIndex,
			Date:              r.Date,
			Info:              r.Info,
			ThreadCount:       r.ThreadCount,
			SystemThreadCount: r.SystemThreadCount,
			MonitorCount:      r.MonitorCount,
			GraphPath:         r.GraphURL,
			ReportPath:        r.ReportURL,
		},
	}
	for _, m := range r.Monitors {
		stored.Summary.Contended = append(stored.Summary.Contended, model.MonitorSummary{
			ID:        m.MonitorID,
			Owners:    []string(m.Owners),
			Waiters:   []string(m.Waiters),
			Contended: true,
		})
	}
	return stored
}

// StringList stores a list of thread ids as a JSON array.
type StringList []string

// Value implements driver.Valuer interface.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner interface.
func (l *StringList) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for StringList: %T", value)
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("failed to decode string list: %w", err)
	}
	*l = list
	return nil
}
