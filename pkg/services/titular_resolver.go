package services

import (
	"strings"

	"github.com/cardops/legit-engine/pkg/models"
)

// TitularResolver attaches the primary accountholder to each delivery
// record by correlating the document's embedded card key against the
// cardholder table. The lookup is left-preserving: records without a match
// keep a nil titular.
type TitularResolver struct{}

// NewTitularResolver creates a TitularResolver.
func NewTitularResolver() *TitularResolver {
	return &TitularResolver{}
}

// NormalizeCardKey canonicalizes a card correlation key for matching:
// surrounding whitespace stripped and upper-cased, since the warehouse
// stores these columns under a case-insensitive collation.
func NormalizeCardKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

// CardKeys returns the distinct normalized card keys of the given records,
// for pushing down into the cardholder fetch. Records without a card key
// contribute nothing.
func (r *TitularResolver) CardKeys(records []models.DeliveryRecord) []string {
	seen := make(map[string]struct{}, len(records))
	keys := make([]string, 0, len(records))
	for _, rec := range records {
		k := NormalizeCardKey(rec.CardKey)
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}

// Resolve fills TitularID on each record from the cardholder links. When
// several links share a card key, the lowest non-nil titular id wins so
// that identical inputs always resolve identically.
func (r *TitularResolver) Resolve(records []models.DeliveryRecord, links []models.CardholderLink) []models.DeliveryRecord {
	titularByKey := make(map[string]int64, len(links))
	for _, l := range links {
		titular := parseNullClientID(l.TitularRaw)
		if titular == nil {
			continue
		}
		key := NormalizeCardKey(l.CardKey)
		if key == "" {
			continue
		}
		if cur, ok := titularByKey[key]; !ok || *titular < cur {
			titularByKey[key] = *titular
		}
	}

	resolved := make([]models.DeliveryRecord, len(records))
	for i, rec := range records {
		if id, ok := titularByKey[NormalizeCardKey(rec.CardKey)]; ok && rec.CardKey != "" {
			titular := id
			rec.TitularID = &titular
		}
		resolved[i] = rec
	}
	return resolved
}
