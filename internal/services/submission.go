package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/assoportal/pollengine/internal/errors"
	"github.com/assoportal/pollengine/internal/logger"
	"github.com/assoportal/pollengine/internal/models"
	"github.com/assoportal/pollengine/internal/repository"
)

// SubmissionServiceRepository defines the repository methods needed by SubmissionService
type SubmissionServiceRepository interface {
	GetVote(ctx context.Context, id string) (*models.Vote, error)
	ListOptions(ctx context.Context, voteID string) ([]models.VoteOption, error)
	UpsertResponse(ctx context.Context, response *models.VoteResponse) (*models.VoteResponse, error)
	GetResponse(ctx context.Context, voteID, voterID string) (*models.VoteResponse, error)
}

// SubmissionService records voters' choices, enforcing one response per
// (vote, voter) pair and the per-type selection rules
type SubmissionService struct {
	log  logger.Logger
	repo SubmissionServiceRepository
}

// NewSubmissionService creates a new SubmissionService
func NewSubmissionService(log logger.Logger, repo SubmissionServiceRepository) *SubmissionService {
	return &SubmissionService{log: log, repo: repo}
}

// Submit validates and records a voter's selection. Preconditions are checked
// in a fixed order, each with its own failure kind: the vote exists, it is
// active, now is inside its window, the selection satisfies the type rule,
// and the voter is authenticated. A repeat submission while the vote stays
// active overwrites the earlier response instead of adding a second row.
func (s *SubmissionService) Submit(ctx context.Context, voteID, voterID string, selectedOptionIDs []string) (*models.VoteResponse, error) {
	vote, err := s.repo.GetVote(ctx, voteID)
	if err == repository.ErrNotFound {
		return nil, errors.NotFoundf("vote %s not found", voteID)
	}
	if err != nil {
		return nil, err
	}

	if vote.Status != models.VoteStatusActive {
		return nil, errors.NotActive("vote is not accepting responses")
	}
	if !vote.InWindow(time.Now()) {
		return nil, errors.OutOfWindow("vote is outside its voting window")
	}

	options, err := s.repo.ListOptions(ctx, voteID)
	if err != nil {
		return nil, err
	}
	selected, problem := validateSelection(vote.Type, options, selectedOptionIDs)
	if problem != "" {
		return nil, errors.InvalidSelection(problem)
	}

	if voterID == "" {
		return nil, errors.Unauthorized("no authenticated voter")
	}

	now := time.Now().UTC()
	response, err := s.repo.UpsertResponse(ctx, &models.VoteResponse{
		ID:                uuid.NewString(),
		VoteID:            voteID,
		VoterID:           voterID,
		SelectedOptionIDs: selected,
		CreatedAt:         now,
		UpdatedAt:         now,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Response recorded", "vote_id", voteID, "voter_id", voterID, "selections", len(selected))
	return response, nil
}

// HasResponded reports whether a voter already has a response for a vote
func (s *SubmissionService) HasResponded(ctx context.Context, voteID, voterID string) (bool, error) {
	if voterID == "" {
		return false, nil
	}
	_, err := s.repo.GetResponse(ctx, voteID, voterID)
	if err == repository.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// validateSelection deduplicates the selection, checks every id belongs to
// the vote, and applies the per-type selection-count rule. Returns the
// normalized selection, or a problem description.
func validateSelection(voteType models.VoteType, options []models.VoteOption, selectedOptionIDs []string) ([]string, string) {
	if len(selectedOptionIDs) == 0 {
		return nil, "at least one option must be selected"
	}

	known := make(map[string]bool, len(options))
	for _, opt := range options {
		known[opt.ID] = true
	}

	seen := make(map[string]bool, len(selectedOptionIDs))
	selected := make([]string, 0, len(selectedOptionIDs))
	for _, id := range selectedOptionIDs {
		if !known[id] {
			return nil, "selected option does not belong to this vote"
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		selected = append(selected, id)
	}

	if !voteType.SelectionCountAllowed(len(selected), len(options)) {
		if voteType == models.VoteTypeMultipleChoice {
			return nil, "too many options selected"
		}
		return nil, "exactly one option must be selected"
	}
	return selected, ""
}
