package services

import (
	"sort"

	"github.com/cardops/legit-engine/pkg/models"
)

// Product allow-list for activation candidates: the card family with its
// activatable subtypes, plus one alternate product code issued through the
// same logistics channel.
const (
	productFamilyCard    = "TARJ.C"
	productCodeAlternate = "105"
)

var cardFamilySubtypes = map[int]struct{}{
	1: {}, 36: {}, 37: {}, 70: {}, 89: {}, 116: {}, 132: {},
}

// DocumentEnricher joins selected events to their delivery-document
// headers and the document-type catalog, applying the product allow-list.
type DocumentEnricher struct{}

// NewDocumentEnricher creates a DocumentEnricher.
func NewDocumentEnricher() *DocumentEnricher {
	return &DocumentEnricher{}
}

// Enrich produces one DeliveryRecord per selected event whose header passes
// the product allow-list. Catalog misses are tolerated: the record keeps a
// nil type description. Client ids are parsed permissively. Headers outside
// the primary window never reach this stage (the header fetch is windowed),
// so no date re-check happens here.
func (e *DocumentEnricher) Enrich(
	selected []models.SelectedEvent,
	headers []models.DeliveryDocument,
	catalog []models.DocumentTypeInfo,
) []models.DeliveryRecord {
	headerByID := make(map[int64]models.DeliveryDocument, len(headers))
	for _, h := range headers {
		headerByID[h.DocumentID] = h
	}

	type catalogKey struct {
		code    string
		subtype int
	}
	descriptions := make(map[catalogKey]string, len(catalog))
	for _, c := range catalog {
		descriptions[catalogKey{c.ProductCode, c.ProductSubtype}] = c.Description
	}

	records := make([]models.DeliveryRecord, 0, len(selected))
	for _, ev := range selected {
		h, ok := headerByID[ev.DocumentID]
		if !ok {
			continue
		}
		if !productAllowed(h.ProductCode, h.ProductSubtype) {
			continue
		}

		rec := models.DeliveryRecord{
			DocumentID:     h.DocumentID,
			ClientID:       parseNullClientID(h.ClientRaw),
			ClientName:     h.ClientName.String,
			CardKey:        h.CardKey.String,
			ProductCode:    h.ProductCode,
			ProductSubtype: h.ProductSubtype,
			ActivityDate:   h.ActivityDate,
			EventSequence:  ev.Sequence,
			EventDate:      ev.EventDate,
		}
		if h.TrackingNumber.Valid {
			tracking := h.TrackingNumber.String
			rec.TrackingNumber = &tracking
		}
		if desc, ok := descriptions[catalogKey{h.ProductCode, h.ProductSubtype}]; ok {
			d := desc
			rec.TypeDescription = &d
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].DocumentID < records[j].DocumentID
	})
	return records
}

func productAllowed(code string, subtype int) bool {
	if code == productFamilyCard {
		_, ok := cardFamilySubtypes[subtype]
		return ok
	}
	return code == productCodeAlternate && subtype == 89
}
