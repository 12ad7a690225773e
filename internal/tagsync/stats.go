package tagsync

import "fmt"

// Stats accumulates per-item outcomes for one instance run, or the totals of
// a multi-instance run.
type Stats struct {
	TotalItems       int      `json:"total_items"`
	ProcessedItems   int      `json:"processed_items"`
	SuccessfulSyncs  int      `json:"successful_syncs"`
	AlreadySynced    int      `json:"already_synced"`
	NoTagsToSync     int      `json:"no_tags_to_sync"`
	NotInMediaServer int      `json:"not_in_emby"`
	FailedSyncs      int      `json:"failed_syncs"`
	Errors           []string `json:"errors"`
}

// Record counts an outcome for an item that finished processing.
func (s *Stats) Record(o Outcome) {
	s.ProcessedItems++
	switch o.Kind {
	case OutcomeUpdated:
		s.SuccessfulSyncs++
	case OutcomeAlreadySynced:
		s.AlreadySynced++
	case OutcomeNoTags:
		s.NoTagsToSync++
	case OutcomeNotInMediaServer:
		s.NotInMediaServer++
	case OutcomeFailed, OutcomeError:
		s.FailedSyncs++
		s.Errors = append(s.Errors, fmt.Sprintf("%s: %s", o.Title, o.Message()))
	}
}

// RecordItemError counts an item whose processing was interrupted by an
// error. The item is not counted as processed.
func (s *Stats) RecordItemError(title string, err error) {
	s.FailedSyncs++
	s.Errors = append(s.Errors, fmt.Sprintf("%s: Unexpected error: %v", title, err))
}

// Add sums other into s and appends its errors.
func (s *Stats) Add(other Stats) {
	s.TotalItems += other.TotalItems
	s.ProcessedItems += other.ProcessedItems
	s.SuccessfulSyncs += other.SuccessfulSyncs
	s.AlreadySynced += other.AlreadySynced
	s.NoTagsToSync += other.NoTagsToSync
	s.NotInMediaServer += other.NotInMediaServer
	s.FailedSyncs += other.FailedSyncs
	s.Errors = append(s.Errors, other.Errors...)
}
