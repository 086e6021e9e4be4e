package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"

	"github.com/cardops/legit-engine/pkg/models"
)

// wireDate is the yyyymmdd layout the logistics tables use for their
// varchar date columns.
const wireDate = "20060102"

// LogisticsRepository reads the delivery tracking tables of the warehouse.
type LogisticsRepository interface {
	// FetchDeliveredEvents returns every DELIVERED event dated on or after since.
	FetchDeliveredEvents(ctx context.Context, since time.Time) ([]models.LogisticsEvent, error)

	// FetchExcludedDocumentIDs returns the ids of documents that progressed
	// past "delivered" into a non-terminal activated/destroyed/signature-varies
	// state. The scan is unwindowed: a document excluded long ago stays excluded.
	FetchExcludedDocumentIDs(ctx context.Context) ([]int64, error)

	// FetchDocumentsByIDs returns delivery-document headers for the given ids
	// whose activity date falls on or after since.
	FetchDocumentsByIDs(ctx context.Context, ids []int64, since time.Time) ([]models.DeliveryDocument, error)

	// FetchTypeCatalog returns the full document-type catalog.
	FetchTypeCatalog(ctx context.Context) ([]models.DocumentTypeInfo, error)
}

type logisticsRepository struct {
	db *sqlx.DB
}

// NewLogisticsRepository creates a LogisticsRepository over the warehouse handle.
func NewLogisticsRepository(db *sqlx.DB) LogisticsRepository {
	return &logisticsRepository{db: db}
}

var _ LogisticsRepository = (*logisticsRepository)(nil)

func (r *logisticsRepository) FetchDeliveredEvents(ctx context.Context, since time.Time) ([]models.LogisticsEvent, error) {
	query := `
		SELECT a.DOCID AS document_id,
		       a.EVTTDI AS event_type,
		       a.EVTSC AS sequence,
		       CONVERT(datetime, a.EVTFCH, 112) AS event_date,
		       ISNULL(a.EVTED, '') AS outcome
		FROM dbo.ODSP_LGLIB_LGMEVT a
		WHERE a.EVTTDI = @p1
		  AND a.EVTFCH >= @p2`

	var events []models.LogisticsEvent
	err := r.db.SelectContext(ctx, &events, query, models.EventTypeDelivered, since.Format(wireDate))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch delivered events: %w", err)
	}
	return events, nil
}

func (r *logisticsRepository) FetchExcludedDocumentIDs(ctx context.Context) ([]int64, error) {
	query := `
		SELECT DISTINCT DOCID
		FROM dbo.ODSP_LGLIB_LGMEVT
		WHERE EVTTDI IN (@p1, @p2, @p3)
		  AND EVTED <> @p4`

	var ids []int64
	err := r.db.SelectContext(ctx, &ids, query,
		models.EventTypeActivated, models.EventTypeDestroyed, models.EventTypeSignatureVaries,
		models.OutcomeTerminal)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch excluded document ids: %w", err)
	}
	return ids, nil
}

func (r *logisticsRepository) FetchDocumentsByIDs(ctx context.Context, ids []int64, since time.Time) ([]models.DeliveryDocument, error) {
	var docs []models.DeliveryDocument
	for _, batch := range chunk(ids, maxInListSize) {
		sb := sqlbuilder.SQLServer.NewSelectBuilder()
		sb.Select(
			"a.DOCID AS document_id",
			"CONVERT(varchar(32), a.DOCCTI) AS client_raw",
			"a.DOCNM AS client_name",
			"a.DOCGU AS tracking_number",
			"a.DOCNRD AS card_key",
			"a.DOCPRI AS product_code",
			"a.DOCTDI AS product_subtype",
			"a.DOCES AS state",
			"CONVERT(datetime, a.DOCEDF, 112) AS activity_date",
			"a.DOCCD AS city",
		)
		sb.From("dbo.ODSP_LGLIB_LGMDOC a")
		sb.Where(
			sb.GreaterEqualThan("a.DOCEDF", since.Format(wireDate)),
			sb.In("a.DOCID", anySlice(batch)...),
		)

		query, args := sb.Build()
		var part []models.DeliveryDocument
		if err := r.db.SelectContext(ctx, &part, query, args...); err != nil {
			return nil, fmt.Errorf("failed to fetch delivery documents: %w", err)
		}
		docs = append(docs, part...)
	}
	return docs, nil
}

func (r *logisticsRepository) FetchTypeCatalog(ctx context.Context) ([]models.DocumentTypeInfo, error) {
	query := `
		SELECT TDCPRI AS product_code,
		       TDCID AS product_subtype,
		       TDCDS AS description
		FROM dbo.ODSP_LGLIB_LGMTDC`

	var catalog []models.DocumentTypeInfo
	if err := r.db.SelectContext(ctx, &catalog, query); err != nil {
		return nil, fmt.Errorf("failed to fetch document type catalog: %w", err)
	}
	return catalog, nil
}
