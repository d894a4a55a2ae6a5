package domain

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("audit record not found")

const (
	StatusCompleted = "Completed"
	StatusPartial   = "Partial"
	StatusFailed    = "Failed"
)

// Record is one row of legacy_data_audit: a single imported batch.
type Record struct {
	ID             int64     `json:"audit_id"`
	LegacySystemID string    `json:"legacy_system_id"`
	DataType       string    `json:"data_type"`
	SourceFileName string    `json:"source_file_name"`
	ImportedBy     string    `json:"imported_by"`
	ImportStatus   string    `json:"import_status"`
	RecordCount    int       `json:"record_count"`
	FailedCount    int       `json:"failed_count"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	ImportedAt     time.Time `json:"imported_at"`
}

// Batch is the outcome of importing one source file.
type Batch struct {
	LegacySystemID string
	DataType       string
	SourceFileName string
	ImportedBy     string
	RecordCount    int
	FailedCount    int
	Err            error
}

// Status derives the audit status: Failed when nothing made it through,
// Partial when some records failed, Completed otherwise.
func (b Batch) Status() string {
	switch {
	case b.Err != nil && b.FailedCount >= b.RecordCount:
		return StatusFailed
	case b.RecordCount > 0 && b.FailedCount >= b.RecordCount:
		return StatusFailed
	case b.FailedCount > 0:
		return StatusPartial
	default:
		return StatusCompleted
	}
}

// ToRecord converts a batch into a row ready to insert.
func (b Batch) ToRecord() Record {
	r := Record{
		LegacySystemID: b.LegacySystemID,
		DataType:       b.DataType,
		SourceFileName: b.SourceFileName,
		ImportedBy:     b.ImportedBy,
		ImportStatus:   b.Status(),
		RecordCount:    b.RecordCount,
		FailedCount:    b.FailedCount,
	}
	if b.Err != nil {
		r.ErrorMessage = b.Err.Error()
	}
	if r.LegacySystemID == "" {
		r.LegacySystemID = "unknown"
	}
	if r.DataType == "" {
		r.DataType = "customization"
	}
	return r
}
