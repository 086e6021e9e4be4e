package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"

	"github.com/cardops/legit-engine/pkg/models"
)

// DocumentArchiveRepository reads tagged numeric attributes from the
// document repository. The repository spans one "current" schema plus any
// number of archived yearly partitions; callers see a single logical store
// and the fan-out stays internal.
type DocumentArchiveRepository interface {
	// FetchContractAttributes returns client-id and tracking-number attribute
	// rows of contract documents created on or after since, restricted to
	// documents tagged with one of the given client ids.
	FetchContractAttributes(ctx context.Context, since time.Time, clients []int64) ([]models.AttributeRecord, error)

	// FetchIdentityAttributes returns client-id attribute rows of identity
	// documents tagged with one of the given client ids, with no date bound.
	FetchIdentityAttributes(ctx context.Context, clients []int64) ([]models.AttributeRecord, error)
}

type documentArchiveRepository struct {
	db         *sqlx.DB
	partitions []partition
}

// partition identifies one physical slice of the document repository.
// The zero suffix is the live schema; archived slices carry a yearly
// suffix and a snapshot date column that must join across all tables.
type partition struct {
	suffix string
}

func (p partition) table(base string) string {
	if p.suffix == "" {
		return "dbo." + base
	}
	return fmt.Sprintf("dbo.%s_%s", base, p.suffix)
}

func (p partition) archived() bool {
	return p.suffix != ""
}

// NewDocumentArchiveRepository creates a DocumentArchiveRepository spanning
// the live schema and the given archived partition suffixes.
func NewDocumentArchiveRepository(db *sqlx.DB, archiveSuffixes []string) DocumentArchiveRepository {
	parts := []partition{{}}
	for _, s := range archiveSuffixes {
		parts = append(parts, partition{suffix: s})
	}
	return &documentArchiveRepository{db: db, partitions: parts}
}

var _ DocumentArchiveRepository = (*documentArchiveRepository)(nil)

func (r *documentArchiveRepository) FetchContractAttributes(ctx context.Context, since time.Time, clients []int64) ([]models.AttributeRecord, error) {
	var records []models.AttributeRecord
	for _, p := range r.partitions {
		for _, batch := range chunk(clients, maxInListSize) {
			sb := r.attributeQuery(p, batch, models.DocTypeContract,
				[]int{models.AttributeClientID, models.AttributeTrackingNumber})
			sb.Where(sb.GreaterEqualThan("e.VE_FECHACREACION", since))

			query, args := sb.Build()
			var part []models.AttributeRecord
			if err := r.db.SelectContext(ctx, &part, query, args...); err != nil {
				return nil, fmt.Errorf("failed to fetch contract attributes (partition %q): %w", p.suffix, err)
			}
			records = append(records, part...)
		}
	}
	return records, nil
}

func (r *documentArchiveRepository) FetchIdentityAttributes(ctx context.Context, clients []int64) ([]models.AttributeRecord, error) {
	var records []models.AttributeRecord
	for _, p := range r.partitions {
		for _, batch := range chunk(clients, maxInListSize) {
			sb := r.attributeQuery(p, batch, models.DocTypeIdentity,
				[]int{models.AttributeClientID})

			query, args := sb.Build()
			var part []models.AttributeRecord
			if err := r.db.SelectContext(ctx, &part, query, args...); err != nil {
				return nil, fmt.Errorf("failed to fetch identity attributes (partition %q): %w", p.suffix, err)
			}
			records = append(records, part...)
		}
	}
	return records, nil
}

// attributeQuery builds the shared attribute/version/storage join for one
// partition, filtered by document type, attribute ids, and the candidate
// pushdown on the client-id attribute.
func (r *documentArchiveRepository) attributeQuery(p partition, clients []int64, docType int, attrIDs []int) *sqlbuilder.SelectBuilder {
	sb := sqlbuilder.SQLServer.NewSelectBuilder()
	sb.Select(
		"a.VCN_IDDO AS document_id",
		"a.VCN_IDCM AS attribute_id",
		"CAST(FLOOR(a.VCN_VALOR) AS bigint) AS value",
		"e.VE_FECHACREACION AS created_at",
		"e.VE_ID AS version_id",
		"c.TD_NOMBRE AS type_label",
		"ISNULL(d.CO_NOMBRE, '') AS logical_name",
		"ISNULL(f.ALFS_CAMINO, '') AS storage_path",
	)
	sb.From(p.table("AXNT_VALORCAMPONUM") + " a")
	sb.JoinWithOption(sqlbuilder.LeftJoin, p.table("AXNT_TIPODOC")+" c", r.on(p, "a.VCN_IDTD = c.TD_ID", "c")...)
	sb.JoinWithOption(sqlbuilder.LeftJoin, p.table("AXNT_CONTENIDO")+" d", r.on(p, "a.VCN_IDDO = d.CO_ID", "d")...)
	sb.JoinWithOption(sqlbuilder.LeftJoin, p.table("AXNT_VERSION")+" e", r.on(p, "a.VCN_IDDO = e.VE_IDDO", "e")...)
	sb.JoinWithOption(sqlbuilder.LeftJoin, p.table("AXNT_ALMACENFS")+" f", r.on(p, "e.VE_IDALMACEN = f.ALFS_ID", "f")...)

	inner := sqlbuilder.SQLServer.NewSelectBuilder()
	inner.Select("v.VCN_IDDO")
	inner.From(p.table("AXNT_VALORCAMPONUM") + " v")
	inner.Where(
		inner.Equal("v.VCN_IDCM", models.AttributeClientID),
		inner.In("FLOOR(v.VCN_VALOR)", anySlice(clients)...),
	)

	sb.Where(
		sb.Equal("c.TD_ID", docType),
		sb.In("a.VCN_IDCM", anySlice(attrIDs)...),
		"a.VCN_VALOR IS NOT NULL",
		fmt.Sprintf("a.VCN_IDDO IN (%s)", sb.Var(inner)),
	)
	return sb
}

// on returns the join conditions for an aliased table, adding the snapshot
// date equi-join on archived partitions.
func (r *documentArchiveRepository) on(p partition, base, alias string) []string {
	if !p.archived() {
		return []string{base}
	}
	return []string{base, fmt.Sprintf("a.FECHA_CIERRE = %s.FECHA_CIERRE", alias)}
}
