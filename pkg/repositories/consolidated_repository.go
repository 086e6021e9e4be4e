package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cardops/legit-engine/pkg/database"
	"github.com/cardops/legit-engine/pkg/models"
)

// ConsolidatedRepository owns the output relation in the destination
// database. The relation and its two auxiliary candidate materializations
// are fully rebuilt on every run; a failed run rolls back and leaves the
// previous run's output untouched.
type ConsolidatedRepository interface {
	// Replace atomically swaps the output relation and the candidate
	// materializations for this run's rows, rebuilding the lookup index
	// after population.
	Replace(ctx context.Context, docs []models.ConsolidatedDocument, candidates, contractClients []int64) error
}

type consolidatedRepository struct {
	db *database.DB
}

// NewConsolidatedRepository creates a ConsolidatedRepository over the
// destination pool.
func NewConsolidatedRepository(db *database.DB) ConsolidatedRepository {
	return &consolidatedRepository{db: db}
}

var _ ConsolidatedRepository = (*consolidatedRepository)(nil)

func (r *consolidatedRepository) Replace(ctx context.Context, docs []models.ConsolidatedDocument, candidates, contractClients []int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	_, err = tx.Exec(ctx, `TRUNCATE consolidated_documents, activation_candidates, contract_clients`)
	if err != nil {
		return fmt.Errorf("failed to truncate output relations: %w", err)
	}

	// The lookup index is dropped for the bulk load and rebuilt afterwards.
	if _, err := tx.Exec(ctx, `DROP INDEX IF EXISTS idx_consolidated_documents_client_type`); err != nil {
		return fmt.Errorf("failed to drop lookup index: %w", err)
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"consolidated_documents"},
		[]string{
			"year", "year_month", "year_month_day", "created_at",
			"document_id", "version_id", "physical_name", "logical_name",
			"document_type", "rename_flag", "tracking_number", "client_id",
		},
		pgx.CopyFromSlice(len(docs), func(i int) ([]any, error) {
			d := docs[i]
			return []any{
				d.Year, d.YearMonth, d.YearMonthDay, d.CreatedAt,
				d.DocumentID, d.VersionID, d.PhysicalName, d.LogicalName,
				d.DocumentType, d.RenameFlag, d.TrackingNumber, d.ClientID,
			}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to load consolidated documents: %w", err)
	}

	_, err = tx.Exec(ctx, `CREATE INDEX idx_consolidated_documents_client_type
		ON consolidated_documents (client_id, document_type)`)
	if err != nil {
		return fmt.Errorf("failed to rebuild lookup index: %w", err)
	}

	if err := copyClientIDs(ctx, tx, "activation_candidates", candidates); err != nil {
		return err
	}
	if err := copyClientIDs(ctx, tx, "contract_clients", contractClients); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit output replacement: %w", err)
	}
	return nil
}

func copyClientIDs(ctx context.Context, tx pgx.Tx, table string, ids []int64) error {
	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{table},
		[]string{"client_id"},
		pgx.CopyFromSlice(len(ids), func(i int) ([]any, error) {
			return []any{ids[i]}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", table, err)
	}
	return nil
}
