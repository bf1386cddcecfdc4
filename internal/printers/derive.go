package printers

// DeriveState computes a printer's current state from its reports. The report
// with the latest timestamp wins; among equal timestamps the higher report id
// wins. With no reports the status is StatusUnknown and every other field is
// nil.
func DeriveState(reports []Report) State {
	latest := mostRecent(reports)
	if latest == nil {
		return State{Status: StatusUnknown}
	}
	paperLevel := latest.PaperLevel
	tonerLevel := latest.TonerLevel
	lastUpdated := latest.Timestamp
	reportedBy := latest.ReportedBy
	return State{
		Status:      latest.Status,
		PaperLevel:  &paperLevel,
		TonerLevel:  &tonerLevel,
		LastUpdated: &lastUpdated,
		ReportedBy:  &reportedBy,
	}
}

func mostRecent(reports []Report) *Report {
	var latest *Report
	for index := range reports {
		candidate := &reports[index]
		if latest == nil || newer(candidate, latest) {
			latest = candidate
		}
	}
	return latest
}

func newer(candidate, current *Report) bool {
	if candidate.Timestamp.Equal(current.Timestamp) {
		return candidate.ID > current.ID
	}
	return candidate.Timestamp.After(current.Timestamp)
}
