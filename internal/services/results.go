package services

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/assoportal/pollengine/internal/errors"
	"github.com/assoportal/pollengine/internal/logger"
	"github.com/assoportal/pollengine/internal/models"
	"github.com/assoportal/pollengine/internal/repository"
)

// ResultsServiceRepository defines the repository methods needed by ResultsService
type ResultsServiceRepository interface {
	GetVote(ctx context.Context, id string) (*models.Vote, error)
	ListOptions(ctx context.Context, voteID string) ([]models.VoteOption, error)
	ListResponses(ctx context.Context, voteID string) ([]models.VoteResponse, error)
	GetResponse(ctx context.Context, voteID, voterID string) (*models.VoteResponse, error)
	GetVoteStats(ctx context.Context) (map[string]interface{}, error)
}

// ResultsService computes per-option counts and percentages from the
// response set and gates their disclosure through the visibility policy
type ResultsService struct {
	log  logger.Logger
	repo ResultsServiceRepository
}

// NewResultsService creates a new ResultsService
func NewResultsService(log logger.Logger, repo ResultsServiceRepository) *ResultsService {
	return &ResultsService{log: log, repo: repo}
}

// ComputeResults aggregates the full response set for a vote. It is safe to
// call while voting is still open; the result reflects whatever the store
// holds at read time.
func (s *ResultsService) ComputeResults(ctx context.Context, voteID string) (*models.VoteResult, error) {
	vote, err := s.repo.GetVote(ctx, voteID)
	if err == repository.ErrNotFound {
		return nil, errors.NotFoundf("vote %s not found", voteID)
	}
	if err != nil {
		return nil, err
	}
	return s.computeForVote(ctx, vote)
}

// GetResultsForViewer aggregates results and applies the vote's disclosure
// policy for the given viewer. Hidden results surface as ErrResultsHidden,
// never as partial data.
func (s *ResultsService) GetResultsForViewer(ctx context.Context, voteID, viewerID string) (*models.VoteResult, error) {
	vote, err := s.repo.GetVote(ctx, voteID)
	if err == repository.ErrNotFound {
		return nil, errors.NotFoundf("vote %s not found", voteID)
	}
	if err != nil {
		return nil, err
	}

	hasResponded := false
	if viewerID != "" {
		if _, err := s.repo.GetResponse(ctx, voteID, viewerID); err == nil {
			hasResponded = true
		} else if err != repository.ErrNotFound {
			return nil, err
		}
	}

	if !CanViewResults(vote, hasResponded, time.Now()) {
		return nil, ErrResultsHidden
	}
	return s.computeForVote(ctx, vote)
}

// GetStats retrieves aggregate statistics for the admin dashboard
func (s *ResultsService) GetStats(ctx context.Context) (map[string]interface{}, error) {
	return s.repo.GetVoteStats(ctx)
}

// computeForVote does the actual aggregation: count per option, distinct
// response rows as the total, half-up integer percentages, and a display
// ordering of descending count with creation order breaking ties.
func (s *ResultsService) computeForVote(ctx context.Context, vote *models.Vote) (*models.VoteResult, error) {
	options, err := s.repo.ListOptions(ctx, vote.ID)
	if err != nil {
		return nil, err
	}
	responses, err := s.repo.ListResponses(ctx, vote.ID)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(options))
	for _, response := range responses {
		for _, optionID := range response.SelectedOptionIDs {
			counts[optionID]++
		}
	}

	total := len(responses)
	results := make([]models.OptionResult, 0, len(options))
	for _, opt := range options {
		count := counts[opt.ID]
		results = append(results, models.OptionResult{
			OptionID:   opt.ID,
			Text:       opt.Text,
			Count:      count,
			Percentage: percentage(count, total),
		})
	}

	// Options arrive in creation order, so the stable sort leaves ties in
	// their original positions. The ordering is advisory for display only.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Count > results[j].Count
	})

	return &models.VoteResult{
		VoteID:         vote.ID,
		TotalResponses: total,
		Options:        results,
	}, nil
}

// percentage computes round-half-up(count/total*100), or 0 when total is 0
func percentage(count, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(count) / float64(total) * 100))
}
