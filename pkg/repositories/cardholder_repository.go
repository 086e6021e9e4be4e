package repositories

import (
	"context"
	"fmt"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"

	"github.com/cardops/legit-engine/pkg/models"
)

// CardholderRepository reads the card/cardholder relationship view.
type CardholderRepository interface {
	// FetchLinksByCardKeys returns cardholder rows whose card number, with
	// its last three characters stripped, matches one of the given keys.
	FetchLinksByCardKeys(ctx context.Context, keys []string) ([]models.CardholderLink, error)
}

type cardholderRepository struct {
	db *sqlx.DB
}

// NewCardholderRepository creates a CardholderRepository over the warehouse handle.
func NewCardholderRepository(db *sqlx.DB) CardholderRepository {
	return &cardholderRepository{db: db}
}

var _ CardholderRepository = (*cardholderRepository)(nil)

func (r *cardholderRepository) FetchLinksByCardKeys(ctx context.Context, keys []string) ([]models.CardholderLink, error) {
	var links []models.CardholderLink
	for _, batch := range chunk(keys, maxInListSize) {
		sb := sqlbuilder.SQLServer.NewSelectBuilder()
		sb.Select(
			"SUBSTRING(a.NUTARJET, 1, LEN(a.NUTARJET) - 3) AS card_key",
			"a.TITARJET AS card_type",
			"CONVERT(varchar(32), a.CONUMECL) AS additional_raw",
			"CONVERT(varchar(32), a.CONUCLTI) AS titular_raw",
		)
		sb.From("dbo.V_TARJETA_PBTARJETA a")
		sb.Where(
			"LEN(a.NUTARJET) > 3",
			sb.In("SUBSTRING(a.NUTARJET, 1, LEN(a.NUTARJET) - 3)", anySlice(batch)...),
		)

		query, args := sb.Build()
		var part []models.CardholderLink
		if err := r.db.SelectContext(ctx, &part, query, args...); err != nil {
			return nil, fmt.Errorf("failed to fetch cardholder links: %w", err)
		}
		links = append(links, part...)
	}
	return links, nil
}
