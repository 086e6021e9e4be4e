package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cardops/legit-engine/pkg/models"
)

func identityAttr(docID, verID, clientID int64, created time.Time) models.AttributeRecord {
	return models.AttributeRecord{
		DocumentID:  docID,
		AttributeID: models.AttributeClientID,
		Value:       clientID,
		CreatedAt:   created,
		VersionID:   verID,
		TypeLabel:   models.IdentityDocumentLabel,
		LogicalName: "cedula.pdf",
		StoragePath: "/store/cd",
	}
}

func TestContractClients(t *testing.T) {
	contracts := []models.ConsolidatedDocument{
		{ClientID: 100},
		{ClientID: 100},
		{ClientID: 200},
	}
	assert.Equal(t, []int64{100, 200}, ContractClients(contracts).Sorted())
}

func TestIdentityResolver_Tier1(t *testing.T) {
	r := NewIdentityResolver()
	contractClients := ClientSet{100: {}, 200: {}}

	refs := []models.IdentityReference{
		{ClientID: 100, YearMonthDay: 20260810, PhysicalName: `cd\1_1`, LogicalName: "ci.pdf", CreatedAt: day(2026, 8, 10)},
		// Not a contract client: ignored.
		{ClientID: 999, YearMonthDay: 20260810, PhysicalName: `cd\2_1`, LogicalName: "ci.pdf", CreatedAt: day(2026, 8, 10)},
	}

	docs, resolved := r.ResolveTier1(refs, contractClients)
	assert.Len(t, docs, 1)
	assert.Equal(t, []int64{100}, resolved.Sorted())

	doc := docs[0]
	assert.Equal(t, int64(100), doc.ClientID)
	assert.Equal(t, 2026, doc.Year)
	assert.Equal(t, 202608, doc.YearMonth)
	assert.Equal(t, 20260810, doc.YearMonthDay)
	assert.Equal(t, models.IdentityDocumentLabel, doc.DocumentType)
	assert.Equal(t, models.RenameFlagYes, doc.RenameFlag)
	// Reference rows carry no repository ids.
	assert.Nil(t, doc.DocumentID)
	assert.Nil(t, doc.VersionID)
}

func TestIdentityResolver_Tier1LatestPerClient(t *testing.T) {
	r := NewIdentityResolver()
	contractClients := ClientSet{100: {}}

	refs := []models.IdentityReference{
		{ClientID: 100, YearMonthDay: 20260801, PhysicalName: `cd\1_1`, CreatedAt: day(2026, 8, 1)},
		{ClientID: 100, YearMonthDay: 20260815, PhysicalName: `cd\1_2`, CreatedAt: day(2026, 8, 15)},
	}

	docs, _ := r.ResolveTier1(refs, contractClients)
	assert.Len(t, docs, 1)
	assert.Equal(t, 20260815, docs[0].YearMonthDay)
}

func TestIdentityResolver_Tier2LatestPerClient(t *testing.T) {
	r := NewIdentityResolver()
	wanted := ClientSet{100: {}}

	attrs := []models.AttributeRecord{
		identityAttr(10, 1, 100, day(2026, 8, 1)),
		identityAttr(11, 1, 100, day(2026, 8, 15)),
	}

	docs := r.ResolveTier2(attrs, wanted)
	assert.Len(t, docs, 1)
	assert.Equal(t, int64(11), *docs[0].DocumentID)
	assert.Equal(t, `cd\11_1`, docs[0].PhysicalName)
	assert.Equal(t, 20260815, docs[0].YearMonthDay)
}

func TestIdentityResolver_Tier2TieBreaksOnVersionThenDocument(t *testing.T) {
	r := NewIdentityResolver()
	wanted := ClientSet{100: {}}
	created := day(2026, 8, 15)

	attrs := []models.AttributeRecord{
		identityAttr(10, 2, 100, created),
		identityAttr(10, 7, 100, created),
		identityAttr(12, 7, 100, created),
	}

	docs := r.ResolveTier2(attrs, wanted)
	assert.Len(t, docs, 1)
	assert.Equal(t, int64(12), *docs[0].DocumentID)
	assert.Equal(t, int64(7), *docs[0].VersionID)
}

func TestIdentityResolver_Tier2IgnoresOtherAttributesAndClients(t *testing.T) {
	r := NewIdentityResolver()
	wanted := ClientSet{100: {}}

	attrs := []models.AttributeRecord{
		// Tracking attribute on an identity document: not a client link.
		{DocumentID: 10, AttributeID: models.AttributeTrackingNumber, Value: 100, CreatedAt: day(2026, 8, 15), VersionID: 1},
		identityAttr(11, 1, 999, day(2026, 8, 15)),
	}

	assert.Empty(t, r.ResolveTier2(attrs, wanted))
}

func TestRemainder(t *testing.T) {
	all := ClientSet{100: {}, 200: {}, 300: {}}
	resolved := ClientSet{200: {}}
	assert.Equal(t, []int64{100, 300}, Remainder(all, resolved).Sorted())
}
