package services

import (
	"sort"

	"github.com/cardops/legit-engine/pkg/models"
)

// ClientSet is a deduplicated set of client ids.
type ClientSet map[int64]struct{}

// Contains reports membership.
func (s ClientSet) Contains(id int64) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in ascending order.
func (s ClientSet) Sorted() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// BuildActivationCandidates unions every non-nil client id and titular id
// found in the resolved delivery records. This set is the authoritative
// scope for all downstream document-repository queries: every later fetch
// is pre-filtered to it so that per-run cost tracks candidate count, not
// repository size.
func BuildActivationCandidates(records []models.DeliveryRecord) ClientSet {
	set := make(ClientSet, len(records)*2)
	for _, rec := range records {
		if rec.ClientID != nil {
			set[*rec.ClientID] = struct{}{}
		}
		if rec.TitularID != nil {
			set[*rec.TitularID] = struct{}{}
		}
	}
	return set
}
