package board

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nvimer/plaet-kitchen/internal/domain"
)

func ids(orders []domain.Order) []string {
	out := make([]string, len(orders))
	for i, o := range orders {
		out[i] = o.ID
	}
	return out
}

func TestPartitionSortsOldestFirst(t *testing.T) {
	orders := []domain.Order{
		order("t5", domain.StagePending, t0.Add(5*time.Minute)),
		order("t1", domain.StagePending, t0.Add(1*time.Minute)),
		order("t3", domain.StagePending, t0.Add(3*time.Minute)),
	}

	b := Partition(orders)

	assert.Equal(t, []string{"t1", "t3", "t5"}, ids(b[domain.StagePending]))
	assert.Empty(t, b[domain.StageInProgress])
	assert.Empty(t, b[domain.StageDone])
}

func TestPartitionSplitsByStage(t *testing.T) {
	orders := []domain.Order{
		order("d", domain.StageDone, t0),
		order("p", domain.StagePending, t0),
		order("i2", domain.StageInProgress, t0.Add(time.Minute)),
		order("i1", domain.StageInProgress, t0),
		order("x", domain.Stage("ARCHIVED"), t0),
	}

	b := Partition(orders)

	assert.Len(t, b, 3)
	assert.Equal(t, []string{"p"}, ids(b[domain.StagePending]))
	assert.Equal(t, []string{"i1", "i2"}, ids(b[domain.StageInProgress]))
	assert.Equal(t, []string{"d"}, ids(b[domain.StageDone]))
}

func TestPartitionEmpty(t *testing.T) {
	b := Partition(nil)
	for _, st := range domain.Stages {
		assert.NotNil(t, b[st])
		assert.Empty(t, b[st])
	}
}
