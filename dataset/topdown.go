package dataset

// IsValidInstance reports whether an instance can supervise training: it must
// not be a crowd region, must have at least one annotated keypoint and must have
// a box with positive width and height.
func IsValidInstance(r InstanceRecord) bool {
	if r.IsCrowd {
		return false
	}
	if r.NumKeypoints == 0 {
		return false
	}
	if r.BBox.W <= 0 || r.BBox.H <= 0 {
		return false
	}
	return true
}

// TopdownRecords keeps the valid instances, preserving order.
func TopdownRecords(records []InstanceRecord) []InstanceRecord {
	out := make([]InstanceRecord, 0, len(records))
	for _, r := range records {
		if IsValidInstance(r) {
			out = append(out, r)
		}
	}
	return out
}
