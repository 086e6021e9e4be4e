package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cardops/legit-engine/pkg/models"
)

func TestPartitionTable(t *testing.T) {
	live := partition{}
	assert.Equal(t, "dbo.AXNT_VALORCAMPONUM", live.table("AXNT_VALORCAMPONUM"))
	assert.False(t, live.archived())

	archived := partition{suffix: "2025"}
	assert.Equal(t, "dbo.AXNT_VALORCAMPONUM_2025", archived.table("AXNT_VALORCAMPONUM"))
	assert.True(t, archived.archived())
}

func TestAttributeQuery_LivePartition(t *testing.T) {
	repo := NewDocumentArchiveRepository(nil, nil).(*documentArchiveRepository)

	sb := repo.attributeQuery(partition{}, []int64{100, 200}, models.DocTypeContract,
		[]int{models.AttributeClientID, models.AttributeTrackingNumber})
	query, args := sb.Build()

	assert.Contains(t, query, "FROM dbo.AXNT_VALORCAMPONUM a")
	assert.Contains(t, query, "LEFT JOIN dbo.AXNT_TIPODOC c")
	assert.Contains(t, query, "LEFT JOIN dbo.AXNT_CONTENIDO d")
	assert.Contains(t, query, "LEFT JOIN dbo.AXNT_VERSION e")
	assert.Contains(t, query, "LEFT JOIN dbo.AXNT_ALMACENFS f")
	// Candidate pushdown rides in a nested subquery on the client attribute.
	assert.Contains(t, query, "a.VCN_IDDO IN (SELECT v.VCN_IDDO")
	assert.Contains(t, query, "a.VCN_VALOR IS NOT NULL")
	assert.NotContains(t, query, "FECHA_CIERRE")

	assert.Contains(t, args, models.DocTypeContract)
	assert.Contains(t, args, int64(100))
	assert.Contains(t, args, int64(200))
}

func TestAttributeQuery_ArchivedPartitionJoinsSnapshotDate(t *testing.T) {
	repo := NewDocumentArchiveRepository(nil, []string{"2025"}).(*documentArchiveRepository)

	sb := repo.attributeQuery(partition{suffix: "2025"}, []int64{100}, models.DocTypeIdentity,
		[]int{models.AttributeClientID})
	query, _ := sb.Build()

	assert.Contains(t, query, "dbo.AXNT_VALORCAMPONUM_2025 a")
	assert.Contains(t, query, "dbo.AXNT_TIPODOC_2025 c")
	// Every archived join carries the snapshot date equi-join.
	assert.Contains(t, query, "a.FECHA_CIERRE = c.FECHA_CIERRE")
	assert.Contains(t, query, "a.FECHA_CIERRE = d.FECHA_CIERRE")
	assert.Contains(t, query, "a.FECHA_CIERRE = e.FECHA_CIERRE")
	assert.Contains(t, query, "a.FECHA_CIERRE = f.FECHA_CIERRE")
}

func TestNewDocumentArchiveRepository_AlwaysIncludesLivePartition(t *testing.T) {
	repo := NewDocumentArchiveRepository(nil, []string{"2024", "2025"}).(*documentArchiveRepository)
	assert.Len(t, repo.partitions, 3)
	assert.Equal(t, "", repo.partitions[0].suffix)
	assert.Equal(t, "2024", repo.partitions[1].suffix)
	assert.Equal(t, "2025", repo.partitions[2].suffix)
}
