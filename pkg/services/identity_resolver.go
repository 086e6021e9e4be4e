package services

import (
	"sort"

	"github.com/cardops/legit-engine/pkg/models"
)

// IdentityResolver resolves one identity document per contract-bearing
// client through a two-tier fallback: the pre-consolidated reference table
// first, then the raw document repository for clients it missed.
type IdentityResolver struct{}

// NewIdentityResolver creates an IdentityResolver.
func NewIdentityResolver() *IdentityResolver {
	return &IdentityResolver{}
}

// ContractClients collects the distinct client ids of the given contract
// records. Identity documents are only resolved for these clients.
func ContractClients(contracts []models.ConsolidatedDocument) ClientSet {
	set := make(ClientSet, len(contracts))
	for _, c := range contracts {
		set[c.ClientID] = struct{}{}
	}
	return set
}

// ResolveTier1 converts reference-table rows into identity-document
// records for clients in the contract set, keeping the single latest row
// per client. It returns the records together with the set of clients it
// resolved, so the caller can restrict the fallback to the remainder.
func (r *IdentityResolver) ResolveTier1(refs []models.IdentityReference, contractClients ClientSet) ([]models.ConsolidatedDocument, ClientSet) {
	best := make(map[int64]models.IdentityReference)
	for _, ref := range refs {
		if !contractClients.Contains(ref.ClientID) {
			continue
		}
		cur, ok := best[ref.ClientID]
		if !ok || newerReference(ref, cur) {
			best[ref.ClientID] = ref
		}
	}

	resolved := make(ClientSet, len(best))
	docs := make([]models.ConsolidatedDocument, 0, len(best))
	for clientID, ref := range best {
		resolved[clientID] = struct{}{}
		docs = append(docs, models.ConsolidatedDocument{
			Year:         ref.YearMonthDay / 10000,
			YearMonth:    ref.YearMonthDay / 100,
			YearMonthDay: ref.YearMonthDay,
			CreatedAt:    ref.CreatedAt,
			PhysicalName: ref.PhysicalName,
			LogicalName:  ref.LogicalName,
			DocumentType: models.IdentityDocumentLabel,
			RenameFlag:   models.RenameFlagYes,
			ClientID:     clientID,
		})
	}
	sortByClient(docs)
	return docs, resolved
}

// ResolveTier2 converts raw repository attribute rows into identity
// records for clients in wanted, keeping the latest record per client.
// Timestamp ties break on version id then document id, descending. The
// caller passes wanted = contract clients minus tier-1 resolutions, so a
// tier-1 client can never be shadowed by a fresher fallback row.
func (r *IdentityResolver) ResolveTier2(attrs []models.AttributeRecord, wanted ClientSet) []models.ConsolidatedDocument {
	best := make(map[int64]models.AttributeRecord)
	for _, a := range attrs {
		if a.AttributeID != models.AttributeClientID {
			continue
		}
		if !wanted.Contains(a.Value) {
			continue
		}
		cur, ok := best[a.Value]
		if !ok || newerAttribute(a, cur) {
			best[a.Value] = a
		}
	}

	docs := make([]models.ConsolidatedDocument, 0, len(best))
	for clientID, a := range best {
		year, yearMonth, yearMonthDay := models.DateParts(a.CreatedAt)
		docID := a.DocumentID
		verID := a.VersionID
		docs = append(docs, models.ConsolidatedDocument{
			Year:         year,
			YearMonth:    yearMonth,
			YearMonthDay: yearMonthDay,
			CreatedAt:    a.CreatedAt,
			DocumentID:   &docID,
			VersionID:    &verID,
			PhysicalName: a.PhysicalName(),
			LogicalName:  a.LogicalName,
			DocumentType: a.TypeLabel,
			RenameFlag:   models.RenameFlagYes,
			ClientID:     clientID,
		})
	}
	sortByClient(docs)
	return docs
}

// Remainder returns the members of all that are not in resolved, i.e. the
// clients the fallback tier still has to cover.
func Remainder(all, resolved ClientSet) ClientSet {
	rest := make(ClientSet)
	for id := range all {
		if !resolved.Contains(id) {
			rest[id] = struct{}{}
		}
	}
	return rest
}

func newerReference(a, b models.IdentityReference) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	if a.YearMonthDay != b.YearMonthDay {
		return a.YearMonthDay > b.YearMonthDay
	}
	return a.PhysicalName < b.PhysicalName
}

func newerAttribute(a, b models.AttributeRecord) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	if a.VersionID != b.VersionID {
		return a.VersionID > b.VersionID
	}
	return a.DocumentID > b.DocumentID
}

func sortByClient(docs []models.ConsolidatedDocument) {
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].ClientID != docs[j].ClientID {
			return docs[i].ClientID < docs[j].ClientID
		}
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})
}
