package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cardops/legit-engine/pkg/models"
)

func contractAttr(docID, verID int64, attrID int, value int64, created time.Time) models.AttributeRecord {
	return models.AttributeRecord{
		DocumentID:  docID,
		AttributeID: attrID,
		Value:       value,
		CreatedAt:   created,
		VersionID:   verID,
		TypeLabel:   "CONTRATO TARJETA",
		LogicalName: "contrato.pdf",
		StoragePath: "/store/ab",
	}
}

func TestContractResolver_PivotsAttributesPerVersion(t *testing.T) {
	created := day(2026, 8, 20)
	attrs := []models.AttributeRecord{
		contractAttr(10, 1, models.AttributeClientID, 100, created),
		contractAttr(10, 1, models.AttributeTrackingNumber, 555, created),
	}

	got := NewContractResolver().Resolve(attrs)
	assert.Len(t, got, 1)

	doc := got[0]
	assert.Equal(t, int64(100), doc.ClientID)
	assert.Equal(t, int64(555), *doc.TrackingNumber)
	assert.Equal(t, int64(10), *doc.DocumentID)
	assert.Equal(t, int64(1), *doc.VersionID)
	assert.Equal(t, `ab\10_1`, doc.PhysicalName)
	assert.Equal(t, "CONTRATO TARJETA", doc.DocumentType)
	assert.Equal(t, models.RenameFlagYes, doc.RenameFlag)
	assert.Equal(t, 2026, doc.Year)
	assert.Equal(t, 202608, doc.YearMonth)
	assert.Equal(t, 20260820, doc.YearMonthDay)
}

func TestContractResolver_DropsVersionsWithoutClient(t *testing.T) {
	attrs := []models.AttributeRecord{
		contractAttr(10, 1, models.AttributeTrackingNumber, 555, day(2026, 8, 20)),
	}
	assert.Empty(t, NewContractResolver().Resolve(attrs))
}

func TestContractResolver_TrackingOptional(t *testing.T) {
	attrs := []models.AttributeRecord{
		contractAttr(10, 1, models.AttributeClientID, 100, day(2026, 8, 20)),
	}

	got := NewContractResolver().Resolve(attrs)
	assert.Len(t, got, 1)
	assert.Nil(t, got[0].TrackingNumber)
}

func TestContractResolver_DeduplicatesPerClientDay(t *testing.T) {
	morning := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 8, 20, 18, 0, 0, 0, time.UTC)
	nextDay := time.Date(2026, 8, 21, 9, 0, 0, 0, time.UTC)

	attrs := []models.AttributeRecord{
		contractAttr(10, 1, models.AttributeClientID, 100, morning),
		contractAttr(11, 1, models.AttributeClientID, 100, evening),
		contractAttr(12, 1, models.AttributeClientID, 100, nextDay),
	}

	got := NewContractResolver().Resolve(attrs)
	assert.Len(t, got, 2)
	// Same day: the later record survives. The next day stands alone.
	assert.Equal(t, int64(11), *got[0].DocumentID)
	assert.Equal(t, int64(12), *got[1].DocumentID)
}

func TestContractResolver_TimestampTieBreaksOnVersionThenDocument(t *testing.T) {
	created := day(2026, 8, 20)

	attrs := []models.AttributeRecord{
		contractAttr(10, 2, models.AttributeClientID, 100, created),
		contractAttr(10, 5, models.AttributeClientID, 100, created),
		contractAttr(10, 3, models.AttributeClientID, 100, created),
	}
	got := NewContractResolver().Resolve(attrs)
	assert.Len(t, got, 1)
	assert.Equal(t, int64(5), *got[0].VersionID)

	attrs = []models.AttributeRecord{
		contractAttr(20, 1, models.AttributeClientID, 200, created),
		contractAttr(30, 1, models.AttributeClientID, 200, created),
	}
	got = NewContractResolver().Resolve(attrs)
	assert.Len(t, got, 1)
	assert.Equal(t, int64(30), *got[0].DocumentID)
}

func TestContractResolver_SeparateClientsKept(t *testing.T) {
	created := day(2026, 8, 20)
	attrs := []models.AttributeRecord{
		contractAttr(10, 1, models.AttributeClientID, 100, created),
		contractAttr(11, 1, models.AttributeClientID, 200, created),
	}

	got := NewContractResolver().Resolve(attrs)
	assert.Len(t, got, 2)
	assert.Equal(t, int64(100), got[0].ClientID)
	assert.Equal(t, int64(200), got[1].ClientID)
}
