package models

import (
	"fmt"
	"time"
)

// Document type ids in the document repository.
const (
	DocTypeContract = 134
	DocTypeIdentity = 104
)

// Attribute ids used to tag numeric document attributes.
const (
	AttributeClientID       = 21
	AttributeTrackingNumber = 1517
)

// IdentityDocumentLabel is the fixed type label attached to identity
// documents resolved from the consolidated reference table, which does not
// carry the catalog label itself.
const IdentityDocumentLabel = "CEDULA DE IDENTIDAD"

// RenameFlagYes marks output rows whose physical file must be renamed by
// the downstream export job.
const RenameFlagYes = "SI"

// AttributeRecord is one tagged numeric attribute of a repository document,
// joined to its version and storage metadata.
type AttributeRecord struct {
	DocumentID  int64     `db:"document_id"`
	AttributeID int       `db:"attribute_id"`
	Value       int64     `db:"value"`
	CreatedAt   time.Time `db:"created_at"`
	VersionID   int64     `db:"version_id"`
	TypeLabel   string    `db:"type_label"`
	LogicalName string    `db:"logical_name"`
	StoragePath string    `db:"storage_path"`
}

// PhysicalName derives the physical file reference for the record:
// the two-character storage partition, a backslash, and the
// "<document id>_<version id>" file stem.
func (r AttributeRecord) PhysicalName() string {
	return fmt.Sprintf(`%s\%d_%d`, r.Partition(), r.DocumentID, r.VersionID)
}

// Partition returns the two-character partition suffix of the storage path.
func (r AttributeRecord) Partition() string {
	if len(r.StoragePath) < 2 {
		return r.StoragePath
	}
	return r.StoragePath[len(r.StoragePath)-2:]
}

// IdentityReference is one row of the pre-consolidated "latest identity
// document per client" table.
type IdentityReference struct {
	ClientID     int64     `db:"client_id"`
	YearMonthDay int       `db:"year_month_day"`
	PhysicalName string    `db:"physical_name"`
	LogicalName  string    `db:"logical_name"`
	CreatedAt    time.Time `db:"created_at"`
}

// ConsolidatedDocument is one row of the output relation: a contract or an
// identity document attributed to an activation-candidate client.
type ConsolidatedDocument struct {
	Year           int
	YearMonth      int
	YearMonthDay   int
	CreatedAt      time.Time
	DocumentID     *int64
	VersionID      *int64
	PhysicalName   string
	LogicalName    string
	DocumentType   string
	RenameFlag     string
	TrackingNumber *int64
	ClientID       int64
}

// DateParts splits t into the (year, year-month, year-month-day) integer
// triple used by the output relation, e.g. 2026, 202609, 20260901.
func DateParts(t time.Time) (year, yearMonth, yearMonthDay int) {
	y, m, d := t.Date()
	return y, y*100 + int(m), (y*100+int(m))*100 + d
}
