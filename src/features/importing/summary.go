package importing

// BatchSummary aggregates the per-item outcomes of a bulk replace. One
// bad item never aborts the batch; its failure is recorded here and the
// run continues.
type BatchSummary struct {
	Created     int `json:"created"`
	Updated     int `json:"updated"`
	Unchanged   int `json:"unchanged"`
	NotCreated  int `json:"notCreated"`
	Conflicts   int `json:"conflicts"` // ambiguous paths, incompatible payloads
	NotImported int `json:"notImported"`
	Failed      int `json:"failed"`
}

// Tally records one replace result in the summary.
func (s *BatchSummary) Tally(result ReplaceResult) {
	switch result.(type) {
	case ReplaceCreated:
		s.Created++
	case ReplaceUpdated:
		s.Updated++
	case ReplaceUnchanged:
		s.Unchanged++
	case ReplaceNotCreated:
		s.NotCreated++
	case ReplaceAmbiguous, ReplaceIncompatibleFormat, ReplaceIncompatibleVersion:
		s.Conflicts++
	default:
		s.Failed++
	}
}

// Total returns the number of processed items.
func (s *BatchSummary) Total() int {
	return s.Created + s.Updated + s.Unchanged + s.NotCreated + s.Conflicts + s.NotImported + s.Failed
}
