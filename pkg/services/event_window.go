package services

import (
	"sort"
	"time"

	"github.com/cardops/legit-engine/pkg/models"
)

// EventWindowSelector reduces the raw delivered-event scan to one surviving
// event per document: the latest delivered event of each document, dropping
// documents that already progressed past "delivered", then narrowed to the
// primary window.
type EventWindowSelector struct {
	// MainSince is the inclusive lower bound of the primary window.
	MainSince time.Time
}

// NewEventWindowSelector creates a selector for the given primary window start.
func NewEventWindowSelector(mainSince time.Time) *EventWindowSelector {
	return &EventWindowSelector{MainSince: mainSince}
}

// Select picks, per document, the delivered event with the highest sequence
// number, removes documents listed in excludedIDs, and keeps only survivors
// whose event date falls inside the primary window. Sequence numbers are
// unique per document, so the max is unambiguous. Output is ordered by
// document id for reproducible runs.
func (s *EventWindowSelector) Select(events []models.LogisticsEvent, excludedIDs []int64) []models.SelectedEvent {
	excluded := make(map[int64]struct{}, len(excludedIDs))
	for _, id := range excludedIDs {
		excluded[id] = struct{}{}
	}

	latest := make(map[int64]models.LogisticsEvent)
	for _, e := range events {
		if e.EventType != models.EventTypeDelivered {
			continue
		}
		if _, drop := excluded[e.DocumentID]; drop {
			continue
		}
		if cur, ok := latest[e.DocumentID]; !ok || e.Sequence > cur.Sequence {
			latest[e.DocumentID] = e
		}
	}

	selected := make([]models.SelectedEvent, 0, len(latest))
	for _, e := range latest {
		if e.EventDate.Before(s.MainSince) {
			continue
		}
		selected = append(selected, models.SelectedEvent{
			DocumentID: e.DocumentID,
			Sequence:   e.Sequence,
			EventDate:  e.EventDate,
		})
	}

	sort.Slice(selected, func(i, j int) bool {
		return selected[i].DocumentID < selected[j].DocumentID
	})
	return selected
}
