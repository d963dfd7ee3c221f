package courrier

// Stats holds counts derived from a collection
type Stats struct {
	Total    int
	ByStatus map[Status]int
}

// ComputeStats counts records per canonical status. The four canonical
// statuses are always present; StatusUnknown only when some record has an
// unrecognized status.
func ComputeStats(records []Record) Stats {
	st := Stats{
		Total:    len(records),
		ByStatus: make(map[Status]int, 5),
	}
	for _, s := range CanonicalStatuses() {
		st.ByStatus[s] = 0
	}
	for _, r := range records {
		st.ByStatus[r.Status.Canonical()]++
	}
	if st.ByStatus[StatusUnknown] == 0 {
		delete(st.ByStatus, StatusUnknown)
	}
	return st
}

// Count returns the number of records in status s
func (s Stats) Count(status Status) int {
	return s.ByStatus[status.Canonical()]
}
