package repositories

import (
	"context"
	"fmt"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"

	"github.com/cardops/legit-engine/pkg/models"
)

// IdentityReferenceRepository reads the pre-consolidated "latest identity
// document per client" table. This is the preferred identity source; the
// raw document repository is only consulted for clients missing here.
type IdentityReferenceRepository interface {
	// FetchByClients returns reference rows for the given client ids.
	FetchByClients(ctx context.Context, clients []int64) ([]models.IdentityReference, error)
}

type identityReferenceRepository struct {
	db *sqlx.DB
}

// NewIdentityReferenceRepository creates an IdentityReferenceRepository
// over the warehouse handle.
func NewIdentityReferenceRepository(db *sqlx.DB) IdentityReferenceRepository {
	return &identityReferenceRepository{db: db}
}

var _ IdentityReferenceRepository = (*identityReferenceRepository)(nil)

func (r *identityReferenceRepository) FetchByClients(ctx context.Context, clients []int64) ([]models.IdentityReference, error) {
	var refs []models.IdentityReference
	for _, batch := range chunk(clients, maxInListSize) {
		sb := sqlbuilder.SQLServer.NewSelectBuilder()
		sb.Select(
			"CAST(b.VALOR AS bigint) AS client_id",
			"b.ANHO_MES_DIA AS year_month_day",
			"b.NOMBRE_FISICO AS physical_name",
			"ISNULL(b.NOMBRE_LOGICO, '') AS logical_name",
			"b.FECHA_CREACION AS created_at",
		)
		sb.From("dbo.LS_ULTIMO_CI_AXNT_FULL b")
		sb.Where(sb.In("CAST(b.VALOR AS bigint)", anySlice(batch)...))

		query, args := sb.Build()
		var part []models.IdentityReference
		if err := r.db.SelectContext(ctx, &part, query, args...); err != nil {
			return nil, fmt.Errorf("failed to fetch identity references: %w", err)
		}
		refs = append(refs, part...)
	}
	return refs, nil
}
