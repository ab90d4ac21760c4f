package services_test

import (
	"context"
	"errors"
	"testing"

	apperrors "github.com/assoportal/pollengine/internal/errors"
	"github.com/assoportal/pollengine/internal/logger"
	"github.com/assoportal/pollengine/internal/models"
	"github.com/assoportal/pollengine/internal/repository/mock"
	"github.com/assoportal/pollengine/internal/services"
	"github.com/assoportal/pollengine/internal/testutil"
)

// TestFullVoteLifecycle walks a vote from draft to archived: create, activate,
// collect responses including a changed mind, close, read results.
func TestFullVoteLifecycle(t *testing.T) {
	lifecycleSvc, submissionSvc, resultsSvc, _, _, _ := setupServices(t)
	ctx := context.Background()

	input := openInput("single_choice", "White", "Blue", "Green")
	input.ShowResultsMode = "afterClose"
	created, err := lifecycleSvc.CreateVote(ctx, member, input)
	if err != nil {
		t.Fatalf("CreateVote failed: %v", err)
	}
	id := created.Vote.ID
	white, blue := created.Options[0].ID, created.Options[1].ID

	// Responses are rejected while the vote is still a draft
	if _, err := submissionSvc.Submit(ctx, id, "m-10", []string{white}); apperrors.KindOf(err) != apperrors.ErrNotActive {
		t.Fatalf("expected not active on draft, got %v", err)
	}

	if _, err := lifecycleSvc.Transition(ctx, member, id, models.VoteStatusActive); err != nil {
		t.Fatalf("activation failed: %v", err)
	}

	// Three members vote; one changes their mind from Blue to White
	for voter, selection := range map[string]string{"m-10": white, "m-11": white, "m-12": blue} {
		if _, err := submissionSvc.Submit(ctx, id, voter, []string{selection}); err != nil {
			t.Fatalf("Submit for %s failed: %v", voter, err)
		}
	}
	if _, err := submissionSvc.Submit(ctx, id, "m-12", []string{white}); err != nil {
		t.Fatalf("resubmission failed: %v", err)
	}

	// Results stay hidden until closure
	if _, err := resultsSvc.GetResultsForViewer(ctx, id, "m-10"); err != services.ErrResultsHidden {
		t.Fatalf("expected hidden results while active, got %v", err)
	}

	if _, err := lifecycleSvc.Transition(ctx, member, id, models.VoteStatusClosed); err != nil {
		t.Fatalf("closing failed: %v", err)
	}

	// No more responses after closing
	if _, err := submissionSvc.Submit(ctx, id, "m-13", []string{blue}); apperrors.KindOf(err) != apperrors.ErrNotActive {
		t.Fatalf("expected not active on closed vote, got %v", err)
	}

	result, err := resultsSvc.GetResultsForViewer(ctx, id, "")
	if err != nil {
		t.Fatalf("results after close failed: %v", err)
	}
	if result.TotalResponses != 3 {
		t.Errorf("expected 3 responses, got %d", result.TotalResponses)
	}
	if result.Options[0].Text != "White" || result.Options[0].Count != 3 {
		t.Errorf("expected White with all 3 votes, got %+v", result.Options[0])
	}
	if result.Options[0].Percentage != 100 {
		t.Errorf("expected 100%%, got %d", result.Options[0].Percentage)
	}

	// Archive keeps results readable
	if _, err := lifecycleSvc.Transition(ctx, member, id, models.VoteStatusArchived); err != nil {
		t.Fatalf("archiving failed: %v", err)
	}
	if _, err := resultsSvc.GetResultsForViewer(ctx, id, ""); err != nil {
		t.Errorf("archived results should stay visible, got %v", err)
	}
}

// TestRepositoryErrorsPropagate injects storage failures and checks the
// services pass them through instead of masking them.
func TestRepositoryErrorsPropagate(t *testing.T) {
	realRepo := testutil.NewTestRepository(t)
	mockRepo := mock.NewRepository(realRepo)
	log := logger.New()
	ctx := context.Background()

	lifecycleSvc := services.NewLifecycleService(log, mockRepo)
	submissionSvc := services.NewSubmissionService(log, mockRepo)
	resultsSvc := services.NewResultsService(log, mockRepo)
	settingsSvc := services.NewSettingsService(log, mockRepo)

	created, err := lifecycleSvc.CreateVote(ctx, member, openInput("yes_no", "Yes", "No"))
	if err != nil {
		t.Fatalf("CreateVote failed: %v", err)
	}
	if _, err := lifecycleSvc.Transition(ctx, member, created.Vote.ID, models.VoteStatusActive); err != nil {
		t.Fatalf("Transition failed: %v", err)
	}

	dbErr := errors.New("database error")

	mockRepo.UpsertResponseError = dbErr
	if _, err := submissionSvc.Submit(ctx, created.Vote.ID, "m-9", []string{created.Options[0].ID}); !errors.Is(err, dbErr) {
		t.Errorf("expected injected upsert error, got %v", err)
	}
	mockRepo.UpsertResponseError = nil

	mockRepo.ListResponsesError = dbErr
	if _, err := resultsSvc.ComputeResults(ctx, created.Vote.ID); !errors.Is(err, dbErr) {
		t.Errorf("expected injected list error, got %v", err)
	}
	mockRepo.ListResponsesError = nil

	mockRepo.GetSettingError = dbErr
	if _, err := settingsSvc.AnnouncementsEnabled(ctx); !errors.Is(err, dbErr) {
		t.Errorf("expected injected settings error, got %v", err)
	}
	mockRepo.GetSettingError = nil

	mockRepo.GetVoteError = dbErr
	if _, err := lifecycleSvc.GetVote(ctx, created.Vote.ID); !errors.Is(err, dbErr) {
		t.Errorf("expected injected get error, got %v", err)
	}
}
