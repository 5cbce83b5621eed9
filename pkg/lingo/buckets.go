package lingo

// BucketStep is one step of a bucket plan: Count buckets of Size rows each
type BucketStep struct {
	Count int
	Size  int
}

// BucketPlan is the escalating bucket-size schedule for whole-table
// backfills. Early buckets are small so the first rows of a new field
// populate visibly fast; later buckets grow geometrically to amortize
// per-bucket overhead. When the plan runs out before the table does, the
// last size is reused for the remainder.
type BucketPlan []BucketStep

// DefaultBucketPlan returns the standard backfill schedule
func DefaultBucketPlan() BucketPlan {
	return BucketPlan{
		{Count: 5, Size: 1},
		{Count: 5, Size: 2},
		{Count: 5, Size: 10},
		{Count: 5, Size: 100},
		{Count: 5, Size: 500},
		{Count: 5, Size: 2000},
		{Count: 5, Size: 200000},
	}
}

// Partition splits ids into consecutive buckets following the plan. Every id
// appears in exactly one bucket, in the original order.
func (p BucketPlan) Partition(ids []int64) [][]int64 {
	sizes := p.sizes()
	if len(sizes) == 0 {
		sizes = []int{len(ids)}
	}

	var buckets [][]int64
	next := 0
	for offset := 0; offset < len(ids); {
		size := sizes[next]
		if next < len(sizes)-1 {
			next++
		}
		end := offset + size
		if end > len(ids) {
			end = len(ids)
		}
		buckets = append(buckets, ids[offset:end])
		offset = end
	}
	return buckets
}

func (p BucketPlan) sizes() []int {
	var sizes []int
	for _, step := range p {
		if step.Size <= 0 {
			continue
		}
		for i := 0; i < step.Count; i++ {
			sizes = append(sizes, step.Size)
		}
	}
	return sizes
}
