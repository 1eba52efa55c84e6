package canopy

// FilterResult is the outcome of a support filter
type FilterResult struct {
	Retained []Canopy
	Rejected []Canopy
}

// Filter keeps canopies whose observation count reaches minObservations.
// An empty Retained set is a valid, reportable outcome rather than an error.
func Filter(canopies []Canopy, minObservations int64, counters Counters) FilterResult {
	var res FilterResult
	for _, c := range canopies {
		if c.Observations >= minObservations {
			res.Retained = append(res.Retained, c)
		} else {
			res.Rejected = append(res.Rejected, c)
		}
	}
	inc(counters, CounterCanopiesRetained, int64(len(res.Retained)))
	inc(counters, CounterCanopiesRejected, int64(len(res.Rejected)))
	return res
}
