package services_test

import (
	"testing"
	"time"

	"github.com/assoportal/pollengine/internal/models"
	"github.com/assoportal/pollengine/internal/services"
)

func TestCanViewResults(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		mode      models.ShowResultsMode
		status    models.VoteStatus
		responded bool
		want      bool
	}{
		{"immediate draft", models.ShowResultsImmediate, models.VoteStatusDraft, false, true},
		{"immediate active", models.ShowResultsImmediate, models.VoteStatusActive, false, true},
		{"immediate closed", models.ShowResultsImmediate, models.VoteStatusClosed, false, true},

		{"afterVote not responded", models.ShowResultsAfterVote, models.VoteStatusActive, false, false},
		{"afterVote responded", models.ShowResultsAfterVote, models.VoteStatusActive, true, true},
		{"afterVote responded on closed", models.ShowResultsAfterVote, models.VoteStatusClosed, true, true},
		{"afterVote not responded on closed", models.ShowResultsAfterVote, models.VoteStatusClosed, false, false},

		{"afterClose draft", models.ShowResultsAfterClose, models.VoteStatusDraft, false, false},
		{"afterClose active", models.ShowResultsAfterClose, models.VoteStatusActive, false, false},
		{"afterClose active responder", models.ShowResultsAfterClose, models.VoteStatusActive, true, false},
		{"afterClose closed", models.ShowResultsAfterClose, models.VoteStatusClosed, false, true},
		{"afterClose archived", models.ShowResultsAfterClose, models.VoteStatusArchived, false, true},

		{"unknown mode", models.ShowResultsMode("never"), models.VoteStatusClosed, true, false},
	}

	for _, tt := range tests {
		vote := &models.Vote{Status: tt.status, ShowResultsMode: tt.mode}
		if got := services.CanViewResults(vote, tt.responded, now); got != tt.want {
			t.Errorf("%s: CanViewResults = %v, want %v", tt.name, got, tt.want)
		}
	}
}

// An active vote past its end date does not satisfy afterClose: the status,
// not the clock, marks closure.
func TestCanViewResults_ElapsedWindowIsNotClosure(t *testing.T) {
	vote := &models.Vote{
		Status:          models.VoteStatusActive,
		ShowResultsMode: models.ShowResultsAfterClose,
		StartDate:       time.Now().Add(-48 * time.Hour),
		EndDate:         time.Now().Add(-24 * time.Hour),
	}
	if services.CanViewResults(vote, true, time.Now()) {
		t.Error("expected hidden while status is active, regardless of the window")
	}
}
