package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cardops/legit-engine/pkg/models"
	"github.com/cardops/legit-engine/pkg/repositories"
	"github.com/cardops/legit-engine/pkg/retry"
)

// ConsolidationService runs one full batch pass: event selection,
// enrichment, titular resolution, candidate construction, document
// resolution, and the atomic replacement of the output relation.
type ConsolidationService interface {
	// Run executes the pipeline once against a snapshot of the sources.
	// Any structural failure aborts the run before the previous output is
	// touched.
	Run(ctx context.Context) (*RunSummary, error)
}

// ConsolidationConfig holds the pipeline parameters for one service instance.
type ConsolidationConfig struct {
	MainLookbackDays     int
	ExtendedLookbackDays int
	PruneIdentityOnly    bool
}

// RunSummary reports what one pass produced.
type RunSummary struct {
	RunID           uuid.UUID
	SelectedEvents  int
	DeliveryRecords int
	Candidates      int
	Contracts       int
	IdentityTier1   int
	IdentityTier2   int
	OutputRows      int
}

type consolidationService struct {
	logistics   repositories.LogisticsRepository
	cardholders repositories.CardholderRepository
	archive     repositories.DocumentArchiveRepository
	identityRef repositories.IdentityReferenceRepository
	output      repositories.ConsolidatedRepository
	config      ConsolidationConfig
	retryCfg    *retry.Config
	now         func() time.Time
	logger      *zap.Logger
}

// NewConsolidationService creates a ConsolidationService.
func NewConsolidationService(
	logistics repositories.LogisticsRepository,
	cardholders repositories.CardholderRepository,
	archive repositories.DocumentArchiveRepository,
	identityRef repositories.IdentityReferenceRepository,
	output repositories.ConsolidatedRepository,
	config ConsolidationConfig,
	logger *zap.Logger,
) ConsolidationService {
	return &consolidationService{
		logistics:   logistics,
		cardholders: cardholders,
		archive:     archive,
		identityRef: identityRef,
		output:      output,
		config:      config,
		retryCfg:    retry.DefaultConfig(),
		now:         time.Now,
		logger:      logger,
	}
}

var _ ConsolidationService = (*consolidationService)(nil)

func (s *consolidationService) Run(ctx context.Context) (*RunSummary, error) {
	runID := uuid.New()
	logger := s.logger.With(zap.String("run_id", runID.String()))

	// Window bounds are day-granular: the sources keep dates, not times.
	today := truncateToDay(s.now())
	mainSince := today.AddDate(0, 0, -s.config.MainLookbackDays)
	extendedSince := today.AddDate(0, 0, -s.config.ExtendedLookbackDays)

	logger.Info("starting consolidation run",
		zap.Time("main_since", mainSince),
		zap.Time("extended_since", extendedSince),
		zap.Bool("prune_identity_only", s.config.PruneIdentityOnly))

	// Stage 1: event window selection.
	var events []models.LogisticsEvent
	err := retry.Do(ctx, s.retryCfg, func() error {
		var ferr error
		events, ferr = s.logistics.FetchDeliveredEvents(ctx, extendedSince)
		return ferr
	})
	if err != nil {
		return nil, fmt.Errorf("fetching delivered events: %w", err)
	}

	var excludedIDs []int64
	err = retry.Do(ctx, s.retryCfg, func() error {
		var ferr error
		excludedIDs, ferr = s.logistics.FetchExcludedDocumentIDs(ctx)
		return ferr
	})
	if err != nil {
		return nil, fmt.Errorf("fetching excluded documents: %w", err)
	}

	selector := NewEventWindowSelector(mainSince)
	selected := selector.Select(events, excludedIDs)
	logger.Info("event window selected",
		zap.Int("events_scanned", len(events)),
		zap.Int("documents_excluded", len(excludedIDs)),
		zap.Int("documents_selected", len(selected)))

	// Stage 2: enrichment with headers and type catalog.
	docIDs := make([]int64, len(selected))
	for i, ev := range selected {
		docIDs[i] = ev.DocumentID
	}

	var headers []models.DeliveryDocument
	err = retry.Do(ctx, s.retryCfg, func() error {
		var ferr error
		headers, ferr = s.logistics.FetchDocumentsByIDs(ctx, docIDs, mainSince)
		return ferr
	})
	if err != nil {
		return nil, fmt.Errorf("fetching delivery documents: %w", err)
	}

	catalog, err := s.logistics.FetchTypeCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching type catalog: %w", err)
	}

	records := NewDocumentEnricher().Enrich(selected, headers, catalog)

	// Stage 3: titular resolution.
	resolver := NewTitularResolver()
	var links []models.CardholderLink
	err = retry.Do(ctx, s.retryCfg, func() error {
		var ferr error
		links, ferr = s.cardholders.FetchLinksByCardKeys(ctx, resolver.CardKeys(records))
		return ferr
	})
	if err != nil {
		return nil, fmt.Errorf("fetching cardholder links: %w", err)
	}
	records = resolver.Resolve(records, links)

	// Stage 4: activation candidate set. Every downstream fetch is scoped
	// to this set.
	candidates := BuildActivationCandidates(records)
	logger.Info("activation candidates built",
		zap.Int("delivery_records", len(records)),
		zap.Int("candidates", len(candidates)))

	// Stage 5: contracts.
	var contractAttrs []models.AttributeRecord
	err = retry.Do(ctx, s.retryCfg, func() error {
		var ferr error
		contractAttrs, ferr = s.archive.FetchContractAttributes(ctx, mainSince, candidates.Sorted())
		return ferr
	})
	if err != nil {
		return nil, fmt.Errorf("fetching contract attributes: %w", err)
	}
	contracts := NewContractResolver().Resolve(contractAttrs)
	contractClients := ContractClients(contracts)

	// Stage 6: identity documents, two tiers.
	identity := NewIdentityResolver()

	var refs []models.IdentityReference
	err = retry.Do(ctx, s.retryCfg, func() error {
		var ferr error
		refs, ferr = s.identityRef.FetchByClients(ctx, contractClients.Sorted())
		return ferr
	})
	if err != nil {
		return nil, fmt.Errorf("fetching identity references: %w", err)
	}
	tier1, resolved := identity.ResolveTier1(refs, contractClients)

	remainder := Remainder(contractClients, resolved)
	var tier2 []models.ConsolidatedDocument
	if len(remainder) > 0 {
		var identityAttrs []models.AttributeRecord
		err = retry.Do(ctx, s.retryCfg, func() error {
			var ferr error
			identityAttrs, ferr = s.archive.FetchIdentityAttributes(ctx, remainder.Sorted())
			return ferr
		})
		if err != nil {
			return nil, fmt.Errorf("fetching identity attributes: %w", err)
		}
		tier2 = identity.ResolveTier2(identityAttrs, remainder)
	}

	identities := make([]models.ConsolidatedDocument, 0, len(tier1)+len(tier2))
	identities = append(identities, tier1...)
	identities = append(identities, tier2...)

	// Stage 7: combine and replace the output relation.
	final := NewCombiner(s.config.PruneIdentityOnly).Combine(contracts, identities, candidates)

	if err := s.output.Replace(ctx, final, candidates.Sorted(), contractClients.Sorted()); err != nil {
		return nil, fmt.Errorf("replacing output relation: %w", err)
	}

	summary := &RunSummary{
		RunID:           runID,
		SelectedEvents:  len(selected),
		DeliveryRecords: len(records),
		Candidates:      len(candidates),
		Contracts:       len(contracts),
		IdentityTier1:   len(tier1),
		IdentityTier2:   len(tier2),
		OutputRows:      len(final),
	}
	logger.Info("consolidation run complete",
		zap.Int("contracts", summary.Contracts),
		zap.Int("identity_tier1", summary.IdentityTier1),
		zap.Int("identity_tier2", summary.IdentityTier2),
		zap.Int("output_rows", summary.OutputRows))
	return summary, nil
}
