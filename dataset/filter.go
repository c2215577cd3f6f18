package dataset

// FilterByScore keeps records whose bbox score is at least thr, preserving
// order. A nil threshold returns records unchanged. The input is never
// modified.
func FilterByScore(records []InstanceRecord, thr *float32) []InstanceRecord {
	if thr == nil {
		return records
	}

	out := make([]InstanceRecord, 0, len(records))
	for _, r := range records {
		if r.BBoxScore < *thr {
			continue
		}
		out = append(out, r)
	}
	return out
}
