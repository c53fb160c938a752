package reconcile

// MergeFailures concatenates the match-phase failures with the contacts-join
// failures into the single failed table the caller reports on.
func MergeFailures(matchFailures, joinFailures []FailedRecord) []FailedRecord {
	merged := make([]FailedRecord, 0, len(matchFailures)+len(joinFailures))
	merged = append(merged, matchFailures...)
	merged = append(merged, joinFailures...)
	return merged
}

// CountByReason tallies failed records per reason string. Reasons outside
// the known vocabulary tally under their own key; grouping them as "other"
// is a consumer concern.
func CountByReason(failures []FailedRecord) map[string]int {
	counts := make(map[string]int, len(failures))
	for _, f := range failures {
		counts[f.Reason]++
	}
	return counts
}
