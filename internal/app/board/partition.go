package board

import (
	"sort"

	"github.com/nvimer/plaet-kitchen/internal/domain"
)

// Buckets holds the orders of each stage, oldest first.
type Buckets map[domain.Stage][]domain.Order

// Partition splits orders into the three stage buckets and sorts each by
// creation time. Orders with an unknown stage are left out.
func Partition(orders []domain.Order) Buckets {
	b := make(Buckets, len(domain.Stages))
	for _, st := range domain.Stages {
		b[st] = []domain.Order{}
	}

	for _, o := range orders {
		if _, ok := b[o.Stage]; !ok {
			continue
		}
		b[o.Stage] = append(b[o.Stage], o)
	}

	for _, st := range domain.Stages {
		bucket := b[st]
		sort.SliceStable(bucket, func(i, j int) bool {
			return bucket[i].CreatedAt.Before(bucket[j].CreatedAt)
		})
	}
	return b
}
