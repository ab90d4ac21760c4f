package services

import (
	"time"

	"github.com/assoportal/pollengine/internal/models"
)

// CanViewResults decides whether aggregated results may be disclosed to a
// viewer. The rules, in priority order:
//
//   - immediate: always visible
//   - afterVote: visible once the viewer has responded, regardless of status
//   - afterClose: visible once the vote is closed or archived
//
// Status, not wall-clock time, governs closure: a vote past its end date but
// still marked active does not satisfy afterClose. The clock parameter is
// part of the contract so callers evaluate the policy at a single instant,
// even though no current rule consults it.
func CanViewResults(vote *models.Vote, viewerHasResponded bool, now time.Time) bool {
	switch vote.ShowResultsMode {
	case models.ShowResultsImmediate:
		return true
	case models.ShowResultsAfterVote:
		return viewerHasResponded
	case models.ShowResultsAfterClose:
		return vote.Status == models.VoteStatusClosed || vote.Status == models.VoteStatusArchived
	}
	return false
}
