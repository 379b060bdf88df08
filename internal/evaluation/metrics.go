package evaluation

// DefaultK is the ranking depth scored when none is given.
const DefaultK = 5

// RecallAtK computes Recall@K: the fraction of relevant items found in the top-K retrieved results.
// Returns 0.0 if relevant is empty.
func RecallAtK(relevant, retrieved []string, k int) float64 {
	if len(relevant) == 0 {
		return 0.0
	}

	want := toSet(relevant)
	found := 0
	for _, r := range topK(retrieved, k) {
		if _, ok := want[r]; ok {
			found++
		}
	}

	return float64(found) / float64(len(want))
}

// MRRAtK computes the reciprocal rank of the first relevant item in the
// top-K retrieved results. Returns 0.0 if none is found.
func MRRAtK(relevant, retrieved []string, k int) float64 {
	if len(relevant) == 0 || len(retrieved) == 0 {
		return 0.0
	}

	want := toSet(relevant)
	for i, r := range topK(retrieved, k) {
		if _, ok := want[r]; ok {
			return 1.0 / float64(i+1)
		}
	}

	return 0.0
}

func topK(retrieved []string, k int) []string {
	if k >= 0 && k < len(retrieved) {
		return retrieved[:k]
	}
	return retrieved
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}
