package printers

import (
	"time"
)

// Status is the observed condition of a printer as reported by a user.
type Status string

const (
	StatusAvailable  Status = "available"
	StatusBusy       Status = "busy"
	StatusOffline    Status = "offline"
	StatusOutOfPaper Status = "out_of_paper"
	StatusOutOfToner Status = "out_of_toner"
	// StatusUnknown is derived for printers nobody has reported on yet. It is
	// never accepted on a submitted report.
	StatusUnknown Status = "unknown"
)

// ParseStatus accepts only the statuses a user may report.
func ParseStatus(raw string) (Status, bool) {
	switch status := Status(raw); status {
	case StatusAvailable, StatusBusy, StatusOffline, StatusOutOfPaper, StatusOutOfToner:
		return status, true
	default:
		return "", false
	}
}

const (
	maxFloorLength    = 32
	maxCommentsLength = 1000
	minLevel          = 0
	maxLevel          = 100
)

// Printer is the slow-changing description of a campus printer. Its current
// status is never stored here; see DeriveState.
type Printer struct {
	ID        string    `gorm:"column:id;primaryKey;size:36" json:"id"`
	Name      string    `gorm:"column:name;size:190;not null;index:idx_printers_name" json:"name"`
	Location  string    `gorm:"column:location;size:190;not null;index:idx_printers_location" json:"location"`
	Building  string    `gorm:"column:building;size:190;not null;index:idx_printers_building" json:"building"`
	Floor     string    `gorm:"column:floor;size:32;not null" json:"floor"`
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime:false;index:idx_printers_created_at,sort:desc" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;autoUpdateTime:false" json:"updated_at"`
}

// TableName provides the explicit table binding for GORM.
func (Printer) TableName() string {
	return "printers"
}

// Report is one append-only observation of a printer. PrinterID is not a
// foreign key: reports outlive the printer they describe.
type Report struct {
	ID         string    `gorm:"column:id;primaryKey;size:36" json:"id"`
	PrinterID  string    `gorm:"column:printer_id;size:36;not null;index:idx_printer_reports_printer_time,priority:1" json:"printer_id"`
	Status     Status    `gorm:"column:status;size:32;not null;index:idx_printer_reports_status" json:"status"`
	PaperLevel int       `gorm:"column:paper_level;not null" json:"paper_level"`
	TonerLevel int       `gorm:"column:toner_level;not null" json:"toner_level"`
	Comments   string    `gorm:"column:comments;type:text;not null" json:"comments"`
	ReportedBy string    `gorm:"column:reported_by;size:190;not null" json:"reported_by"`
	Timestamp  time.Time `gorm:"column:timestamp;not null;index:idx_printer_reports_printer_time,priority:2,sort:desc;index:idx_printer_reports_timestamp,sort:desc" json:"timestamp"`
}

// TableName provides the explicit table binding for GORM.
func (Report) TableName() string {
	return "printer_reports"
}

// State is the view of a printer derived from its most recent report.
type State struct {
	Status      Status     `json:"status"`
	PaperLevel  *int       `json:"paper_level"`
	TonerLevel  *int       `json:"toner_level"`
	LastUpdated *time.Time `json:"last_updated"`
	ReportedBy  *string    `json:"reported_by"`
}

// View is a printer decorated with its derived state.
type View struct {
	Printer
	State
}

// Detail is a printer view together with its latest reports.
type Detail struct {
	View
	RecentReports []Report `json:"recent_reports"`
}

// CreateInput carries the descriptive fields of a new printer.
type CreateInput struct {
	Name     string
	Location string
	Building string
	Floor    string
}

// Patch carries the descriptive fields an update may change. Nil fields are
// left untouched.
type Patch struct {
	Name     *string
	Location *string
	Building *string
	Floor    *string
}

// ReportInput is a status report as submitted by a client.
type ReportInput struct {
	PrinterID  string
	Status     string
	PaperLevel *int
	TonerLevel *int
	Comments   string
	ReportedBy string
}

// ReportFilter narrows a report listing.
type ReportFilter struct {
	PrinterID string
	Limit     int
}
