package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cardops/legit-engine/pkg/models"
)

func TestClientSet(t *testing.T) {
	set := ClientSet{3: {}, 1: {}, 2: {}}
	assert.True(t, set.Contains(2))
	assert.False(t, set.Contains(4))
	assert.Equal(t, []int64{1, 2, 3}, set.Sorted())
}

func TestBuildActivationCandidates(t *testing.T) {
	records := []models.DeliveryRecord{
		{DocumentID: 1, ClientID: i64p(100), TitularID: i64p(200)},
		{DocumentID: 2, ClientID: i64p(100)},
		{DocumentID: 3, TitularID: i64p(300)},
		{DocumentID: 4},
	}

	set := BuildActivationCandidates(records)
	assert.Equal(t, []int64{100, 200, 300}, set.Sorted())
}

func TestBuildActivationCandidates_Empty(t *testing.T) {
	assert.Empty(t, BuildActivationCandidates(nil))
}
