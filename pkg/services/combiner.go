package services

import (
	"sort"
	"time"

	"github.com/cardops/legit-engine/pkg/models"
)

// Combiner unions contract and identity records into the final output,
// optionally pruning identity-only clients, and keeps only rows reachable
// from the activation candidate set.
type Combiner struct {
	// PruneIdentityOnly drops identity-document rows for clients that have
	// no contract row in the same run.
	PruneIdentityOnly bool
}

// NewCombiner creates a Combiner.
func NewCombiner(pruneIdentityOnly bool) *Combiner {
	return &Combiner{PruneIdentityOnly: pruneIdentityOnly}
}

// Combine unions the two record sets and applies the final membership
// filter: a row survives only if its client id appears in the activation
// candidate set (which already contains both direct client ids and
// titulars). The filter is a semi-join, so a client matching several
// logistics events still contributes each document row exactly once.
// Identical rows from earlier stages collapse to one.
func (c *Combiner) Combine(contracts, identities []models.ConsolidatedDocument, candidates ClientSet) []models.ConsolidatedDocument {
	kept := identities
	if c.PruneIdentityOnly {
		withContract := ContractClients(contracts)
		kept = make([]models.ConsolidatedDocument, 0, len(identities))
		for _, d := range identities {
			if withContract.Contains(d.ClientID) {
				kept = append(kept, d)
			}
		}
	}

	combined := make([]models.ConsolidatedDocument, 0, len(contracts)+len(kept))
	combined = append(combined, contracts...)
	combined = append(combined, kept...)

	type rowKey struct {
		yearMonthDay int
		createdAt    time.Time
		documentID   int64
		versionID    int64
		physicalName string
		logicalName  string
		documentType string
		tracking     int64
		clientID     int64
	}
	seen := make(map[rowKey]struct{}, len(combined))

	out := make([]models.ConsolidatedDocument, 0, len(combined))
	for _, d := range combined {
		if !candidates.Contains(d.ClientID) {
			continue
		}
		key := rowKey{
			yearMonthDay: d.YearMonthDay,
			createdAt:    d.CreatedAt,
			documentID:   derefOrZero(d.DocumentID),
			versionID:    derefOrZero(d.VersionID),
			physicalName: d.PhysicalName,
			logicalName:  d.LogicalName,
			documentType: d.DocumentType,
			tracking:     derefOrZero(d.TrackingNumber),
			clientID:     d.ClientID,
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, d)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ClientID != b.ClientID {
			return a.ClientID < b.ClientID
		}
		if a.DocumentType != b.DocumentType {
			return a.DocumentType < b.DocumentType
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.PhysicalName < b.PhysicalName
	})
	return out
}
