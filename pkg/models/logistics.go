package models

import (
	"database/sql"
	"time"
)

// Event type codes used by the logistics tracking system.
const (
	EventTypeDelivered       = 1
	EventTypeActivated       = 16
	EventTypeDestroyed       = 19
	EventTypeSignatureVaries = 70
)

// OutcomeTerminal marks an event whose lifecycle branch is closed.
// Events carrying this flag do not count against a delivered document.
const OutcomeTerminal = "T"

// LogisticsEvent is one state transition of a delivery document.
type LogisticsEvent struct {
	DocumentID int64     `db:"document_id"`
	EventType  int       `db:"event_type"`
	Sequence   int64     `db:"sequence"`
	EventDate  time.Time `db:"event_date"`
	Outcome    string    `db:"outcome"`
}

// SelectedEvent is the surviving (document, max-sequence) pair produced by
// the event window selection.
type SelectedEvent struct {
	DocumentID int64
	Sequence   int64
	EventDate  time.Time
}

// DeliveryDocument is the header of a trackable delivery item. Client id
// comes over the wire as free text and is parsed later; empty or
// non-numeric values degrade to null rather than failing the row.
type DeliveryDocument struct {
	DocumentID     int64          `db:"document_id"`
	ClientRaw      sql.NullString `db:"client_raw"`
	ClientName     sql.NullString `db:"client_name"`
	TrackingNumber sql.NullString `db:"tracking_number"`
	CardKey        sql.NullString `db:"card_key"`
	ProductCode    string         `db:"product_code"`
	ProductSubtype int            `db:"product_subtype"`
	State          sql.NullString `db:"state"`
	ActivityDate   time.Time      `db:"activity_date"`
	City           sql.NullString `db:"city"`
}

// DocumentTypeInfo is one entry of the document-type catalog, keyed by
// (product code, product subtype).
type DocumentTypeInfo struct {
	ProductCode    string `db:"product_code"`
	ProductSubtype int    `db:"product_subtype"`
	Description    string `db:"description"`
}

// DeliveryRecord is a delivered document enriched with catalog and
// cardholder data. TypeDescription and TitularID stay nil when the
// corresponding lookup found nothing.
type DeliveryRecord struct {
	DocumentID      int64
	TypeDescription *string
	ClientID        *int64
	ClientName      string
	TrackingNumber  *string
	CardKey         string
	ProductCode     string
	ProductSubtype  int
	ActivityDate    time.Time
	EventSequence   int64
	EventDate       time.Time
	TitularID       *int64
}

// CardholderLink associates a card number with its holders. CardKey is the
// card number with the last three characters already stripped by the query.
type CardholderLink struct {
	CardKey       string         `db:"card_key"`
	CardType      sql.NullString `db:"card_type"`
	AdditionalRaw sql.NullString `db:"additional_raw"`
	TitularRaw    sql.NullString `db:"titular_raw"`
}
