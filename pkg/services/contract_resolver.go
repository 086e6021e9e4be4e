package services

import (
	"sort"
	"time"

	"github.com/cardops/legit-engine/pkg/models"
)

// ContractResolver turns raw contract attribute rows into one contract
// record per client per calendar day.
type ContractResolver struct{}

// NewContractResolver creates a ContractResolver.
func NewContractResolver() *ContractResolver {
	return &ContractResolver{}
}

// Resolve pivots the per-attribute rows of each document version into a
// single record carrying both the client id and the tracking number, drops
// records without a client id, and deduplicates to the most recent record
// per (client, calendar day). Timestamp ties break on version id then
// document id, descending, so identical inputs always yield identical
// output.
func (r *ContractResolver) Resolve(attrs []models.AttributeRecord) []models.ConsolidatedDocument {
	type versionKey struct {
		documentID int64
		versionID  int64
	}
	type pivoted struct {
		record   models.AttributeRecord
		client   *int64
		tracking *int64
	}

	groups := make(map[versionKey]*pivoted)
	order := make([]versionKey, 0)
	for _, a := range attrs {
		key := versionKey{a.DocumentID, a.VersionID}
		g, ok := groups[key]
		if !ok {
			g = &pivoted{record: a}
			groups[key] = g
			order = append(order, key)
		}
		v := a.Value
		switch a.AttributeID {
		case models.AttributeClientID:
			g.client = &v
		case models.AttributeTrackingNumber:
			g.tracking = &v
		}
	}

	docs := make([]models.ConsolidatedDocument, 0, len(groups))
	for _, key := range order {
		g := groups[key]
		if g.client == nil {
			continue
		}
		rec := g.record
		year, yearMonth, yearMonthDay := models.DateParts(rec.CreatedAt)
		docID := rec.DocumentID
		verID := rec.VersionID
		docs = append(docs, models.ConsolidatedDocument{
			Year:           year,
			YearMonth:      yearMonth,
			YearMonthDay:   yearMonthDay,
			CreatedAt:      rec.CreatedAt,
			DocumentID:     &docID,
			VersionID:      &verID,
			PhysicalName:   rec.PhysicalName(),
			LogicalName:    rec.LogicalName,
			DocumentType:   rec.TypeLabel,
			RenameFlag:     models.RenameFlagYes,
			TrackingNumber: g.tracking,
			ClientID:       *g.client,
		})
	}

	return dedupePerClientDay(docs)
}

// dedupePerClientDay keeps, for each (client id, calendar day), the record
// with the latest creation timestamp. Ties break on version id then
// document id, descending.
func dedupePerClientDay(docs []models.ConsolidatedDocument) []models.ConsolidatedDocument {
	type dayKey struct {
		clientID int64
		day      time.Time
	}

	best := make(map[dayKey]models.ConsolidatedDocument)
	for _, d := range docs {
		key := dayKey{d.ClientID, truncateToDay(d.CreatedAt)}
		cur, ok := best[key]
		if !ok || newerContract(d, cur) {
			best[key] = d
		}
	}

	out := make([]models.ConsolidatedDocument, 0, len(best))
	for _, d := range best {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ClientID != out[j].ClientID {
			return out[i].ClientID < out[j].ClientID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func newerContract(a, b models.ConsolidatedDocument) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	if va, vb := derefOrZero(a.VersionID), derefOrZero(b.VersionID); va != vb {
		return va > vb
	}
	return derefOrZero(a.DocumentID) > derefOrZero(b.DocumentID)
}

func derefOrZero(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
