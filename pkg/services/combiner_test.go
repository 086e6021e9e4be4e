package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cardops/legit-engine/pkg/models"
)

func contractDoc(clientID, docID int64) models.ConsolidatedDocument {
	id := docID
	ver := int64(1)
	return models.ConsolidatedDocument{
		Year: 2026, YearMonth: 202608, YearMonthDay: 20260820,
		CreatedAt:    day(2026, 8, 20),
		DocumentID:   &id,
		VersionID:    &ver,
		PhysicalName: "ab\\contract",
		DocumentType: "CONTRATO TARJETA",
		RenameFlag:   models.RenameFlagYes,
		ClientID:     clientID,
	}
}

func identityDoc(clientID int64) models.ConsolidatedDocument {
	return models.ConsolidatedDocument{
		Year: 2026, YearMonth: 202608, YearMonthDay: 20260815,
		CreatedAt:    day(2026, 8, 15),
		PhysicalName: "cd\\identity",
		DocumentType: models.IdentityDocumentLabel,
		RenameFlag:   models.RenameFlagYes,
		ClientID:     clientID,
	}
}

func TestCombiner_SemiJoinFiltersNonCandidates(t *testing.T) {
	c := NewCombiner(false)
	contracts := []models.ConsolidatedDocument{contractDoc(100, 10), contractDoc(999, 11)}
	candidates := ClientSet{100: {}}

	got := c.Combine(contracts, nil, candidates)
	assert.Len(t, got, 1)
	assert.Equal(t, int64(100), got[0].ClientID)
}

func TestCombiner_UnionsContractsAndIdentities(t *testing.T) {
	c := NewCombiner(false)
	candidates := ClientSet{100: {}}

	got := c.Combine(
		[]models.ConsolidatedDocument{contractDoc(100, 10)},
		[]models.ConsolidatedDocument{identityDoc(100)},
		candidates,
	)
	assert.Len(t, got, 2)
	types := []string{got[0].DocumentType, got[1].DocumentType}
	assert.Contains(t, types, "CONTRATO TARJETA")
	assert.Contains(t, types, models.IdentityDocumentLabel)
}

func TestCombiner_IdentityWithoutContractKeptByDefault(t *testing.T) {
	c := NewCombiner(false)
	candidates := ClientSet{200: {}}

	got := c.Combine(nil, []models.ConsolidatedDocument{identityDoc(200)}, candidates)
	assert.Len(t, got, 1)
}

func TestCombiner_PruneIdentityOnly(t *testing.T) {
	c := NewCombiner(true)
	candidates := ClientSet{100: {}, 200: {}}

	got := c.Combine(
		[]models.ConsolidatedDocument{contractDoc(100, 10)},
		[]models.ConsolidatedDocument{identityDoc(100), identityDoc(200)},
		candidates,
	)

	// Client 200 has only an identity document, so pruning removes it.
	assert.Len(t, got, 2)
	for _, d := range got {
		assert.Equal(t, int64(100), d.ClientID)
	}
}

func TestCombiner_IdenticalRowsCollapse(t *testing.T) {
	c := NewCombiner(false)
	candidates := ClientSet{100: {}}

	got := c.Combine(
		[]models.ConsolidatedDocument{contractDoc(100, 10), contractDoc(100, 10)},
		nil,
		candidates,
	)
	assert.Len(t, got, 1)
}

func TestCombiner_Deterministic(t *testing.T) {
	c := NewCombiner(false)
	candidates := ClientSet{100: {}, 200: {}}
	contracts := []models.ConsolidatedDocument{contractDoc(200, 20), contractDoc(100, 10)}
	identities := []models.ConsolidatedDocument{identityDoc(200), identityDoc(100)}

	first := c.Combine(contracts, identities, candidates)
	second := c.Combine(contracts, identities, candidates)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(100), first[0].ClientID)
}

// Full-stage scenario: two delivered cards, one with a titular, flowing from
// delivery records to the final output.
func TestPipelineStages_EndToEnd(t *testing.T) {
	records := []models.DeliveryRecord{
		{DocumentID: 1, ClientID: i64p(100), TitularID: i64p(150)},
		{DocumentID: 2, ClientID: i64p(200)},
	}

	candidates := BuildActivationCandidates(records)
	assert.Equal(t, []int64{100, 150, 200}, candidates.Sorted())

	contractAttrs := []models.AttributeRecord{
		contractAttr(10, 1, models.AttributeClientID, 100, day(2026, 8, 20)),
		contractAttr(10, 1, models.AttributeTrackingNumber, 77, day(2026, 8, 20)),
		contractAttr(11, 1, models.AttributeClientID, 150, day(2026, 8, 21)),
	}
	contracts := NewContractResolver().Resolve(contractAttrs)
	assert.Len(t, contracts, 2)

	contractClients := ContractClients(contracts)
	assert.Equal(t, []int64{100, 150}, contractClients.Sorted())

	identity := NewIdentityResolver()
	refs := []models.IdentityReference{
		{ClientID: 100, YearMonthDay: 20260810, PhysicalName: `cd\5_1`, CreatedAt: day(2026, 8, 10)},
	}
	tier1, resolved := identity.ResolveTier1(refs, contractClients)
	assert.Len(t, tier1, 1)

	remainder := Remainder(contractClients, resolved)
	assert.Equal(t, []int64{150}, remainder.Sorted())

	tier2 := identity.ResolveTier2([]models.AttributeRecord{
		identityAttr(20, 1, 150, day(2026, 8, 12)),
	}, remainder)
	assert.Len(t, tier2, 1)

	final := NewCombiner(false).Combine(contracts, append(tier1, tier2...), candidates)
	// Two contracts plus two identity documents, all candidate clients.
	assert.Len(t, final, 4)
	for _, d := range final {
		assert.True(t, candidates.Contains(d.ClientID))
		assert.Equal(t, models.RenameFlagYes, d.RenameFlag)
	}
}
